// Guardian is a sensitive-data enforcement proxy for LLM chat completions.
//
// Every request is scanned before it leaves the network and every completion
// is scanned before it reaches the caller. Matches are redacted or the
// transaction is blocked according to the active policy, and each phase is
// written to an append-only audit log.
//
// Usage:
//
//	# Start the proxy
//	guardian run --config /etc/guardian/config.yaml
//
//	# Start against an echo upstream for local testing
//	guardian run --mock-upstream
//
//	# Scan text with the same engine the proxy uses
//	echo "reach me at alice@example.com" | guardian scan -
//
//	# Check a policy file
//	guardian policy validate policy.yaml
//
//	# Query the audit log
//	guardian audit query --jsonl data/audit.jsonl --transaction <id>
package main

func main() {
	Execute()
}
