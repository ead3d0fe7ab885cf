package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONLStore appends one JSON object per line to a file. Each entry is
// written with a single Write on an O_APPEND descriptor.
type JSONLStore struct {
	path string
	sync bool

	mu   sync.Mutex
	file *os.File
}

// NewJSONLStore opens (or creates) the log file at path. When syncWrites is
// set, every append is fsynced before it is acknowledged.
func NewJSONLStore(path string, syncWrites bool) (*JSONLStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStoreError("jsonl", "mkdir", err)
		}
	}
	f, err := openAppend(path)
	if err != nil {
		return nil, NewStoreError("jsonl", "open", err)
	}
	return &JSONLStore{path: path, sync: syncWrites, file: f}, nil
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
}

// Backend returns "jsonl".
func (s *JSONLStore) Backend() string { return "jsonl" }

// Path returns the active file path.
func (s *JSONLStore) Path() string { return s.path }

// Append writes e as one line.
func (s *JSONLStore) Append(ctx context.Context, e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return NewStoreError("jsonl", "encode", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return NewStoreError("jsonl", "append", os.ErrClosed)
	}
	if _, err := s.file.Write(line); err != nil {
		return NewStoreError("jsonl", "append", err)
	}
	if s.sync {
		if err := s.file.Sync(); err != nil {
			return NewStoreError("jsonl", "sync", err)
		}
	}
	return nil
}

// Rotate closes the active file, renames it to "<path>.<timestamp>" and
// opens a fresh one. Rotated segments are never deleted. It returns the
// segment name.
func (s *JSONLStore) Rotate(now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return "", NewStoreError("jsonl", "rotate", os.ErrClosed)
	}
	if err := s.file.Close(); err != nil {
		return "", NewStoreError("jsonl", "rotate", err)
	}
	segment := fmt.Sprintf("%s.%s", s.path, now.UTC().Format("20060102T150405.000000000Z"))
	renameErr := os.Rename(s.path, segment)

	f, err := openAppend(s.path)
	if err != nil {
		s.file = nil
		return "", NewStoreError("jsonl", "reopen", err)
	}
	s.file = f
	if renameErr != nil {
		return "", NewStoreError("jsonl", "rotate", renameErr)
	}
	return segment, nil
}

// Close closes the file.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// ReadJSONL reads entries matching f from a JSONL file in append order.
// Lines that fail to parse are reported as an error with their line number.
func ReadJSONL(path string, f Filter) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, NewStoreError("jsonl", "open", err)
	}
	defer file.Close()

	var out []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return out, NewStoreError("jsonl", "read", fmt.Errorf("line %d: %w", line, err))
		}
		if !f.Matches(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return out, NewStoreError("jsonl", "read", err)
	}
	return out, nil
}
