package pipeline

import "fmt"

// State is a step of the transaction state machine.
type State string

const (
	StateIngress         State = "INGRESS"
	StateInputScanning   State = "INPUT_SCANNING"
	StateUpstreamCalling State = "UPSTREAM_CALLING"
	StateOutputScanning  State = "OUTPUT_SCANNING"
	StateDelivered       State = "DELIVERED"
	StateBlocked         State = "BLOCKED"
	StateFailed          State = "FAILED"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDelivered || s == StateBlocked || s == StateFailed
}

var transitions = map[State][]State{
	StateIngress:         {StateInputScanning},
	StateInputScanning:   {StateBlocked, StateUpstreamCalling, StateFailed},
	StateUpstreamCalling: {StateOutputScanning, StateFailed},
	StateOutputScanning:  {StateBlocked, StateDelivered},
}

// TxStatus is the business status of a transaction.
type TxStatus string

const (
	TxInProgress     TxStatus = "IN_PROGRESS"
	TxInputBlocked   TxStatus = "INPUT_BLOCKED"
	TxOutputBlocked  TxStatus = "OUTPUT_BLOCKED"
	TxUpstreamFailed TxStatus = "UPSTREAM_FAILED"
	TxComplete       TxStatus = "COMPLETE"
)

// Transaction is the per-request record. It is created at ingress, mutated
// only by the pipeline goroutine handling it, and never shared.
type Transaction struct {
	ID                string
	UserID            string
	Model             string
	OriginalPrompt    string
	SanitizedPrompt   string
	RawResponse       string
	SanitizedResponse string
	PolicyVersion     string
	Status            TxStatus
	State             State

	// Trail lists every state entered, starting with INGRESS.
	Trail []State
}

func newTransaction(id, userID, model, prompt string) *Transaction {
	return &Transaction{
		ID:             id,
		UserID:         userID,
		Model:          model,
		OriginalPrompt: prompt,
		Status:         TxInProgress,
		State:          StateIngress,
		Trail:          []State{StateIngress},
	}
}

// advance moves the transaction to next. An illegal transition is a
// programming error in this package.
func (tx *Transaction) advance(next State) {
	for _, allowed := range transitions[tx.State] {
		if allowed == next {
			tx.State = next
			tx.Trail = append(tx.Trail, next)
			return
		}
	}
	panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", tx.State, next))
}
