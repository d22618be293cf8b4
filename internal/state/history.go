// internal/state/history.go
package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/fridacode/internal/types"
)

// HistoryStore is a JSONL-backed append-only log of launched sessions,
// stored in history.jsonl under the data directory.
type HistoryStore struct {
	root string
	mu   sync.Mutex
}

// NewHistoryStore creates a new file-backed HistoryStore rooted at the given directory.
func NewHistoryStore(root string) *HistoryStore {
	return &HistoryStore{root: root}
}

func (h *HistoryStore) path() string {
	return filepath.Join(h.root, "history.jsonl")
}

// count reads the history file and counts lines. Caller must hold the lock.
func (h *HistoryStore) count() (int64, error) {
	f, err := os.Open(h.path())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var count int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan history file: %w", err)
	}
	return count, nil
}

// Append adds a record with an auto-incremented sequence number.
func (h *HistoryStore) Append(_ context.Context, rec *types.SessionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(h.root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	existing, err := h.count()
	if err != nil {
		return err
	}
	rec.Seq = existing + 1

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f, err := os.OpenFile(h.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Tail returns the last N records, oldest first.
func (h *HistoryStore) Tail(_ context.Context, limit int) ([]*types.SessionRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var records []*types.SessionRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec types.SessionRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history file: %w", err)
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

// Count returns the number of recorded sessions.
func (h *HistoryStore) Count(_ context.Context) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count()
}
