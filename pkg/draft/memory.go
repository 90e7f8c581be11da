package draft

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
)

// MemoryStore keeps serialized snapshots in process memory. Snapshots are
// stored as JSON so a Load never aliases the map a caller saved.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Save serializes the answer set under the form's draft key.
func (s *MemoryStore) Save(_ context.Context, formID string, answers map[string]any) error {
	if formID == "" {
		return fmt.Errorf("draft: form id is required")
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("draft: marshal answers: %w", err)
	}
	s.mu.Lock()
	s.blobs[Key(formID)] = payload
	s.mu.Unlock()
	return nil
}

// Load returns the last saved snapshot, or ok=false when none exists.
func (s *MemoryStore) Load(_ context.Context, formID string) (map[string]any, bool, error) {
	s.mu.RLock()
	payload, ok := s.blobs[Key(formID)]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	var answers map[string]any
	if err := json.Unmarshal(payload, &answers); err != nil {
		return nil, false, fmt.Errorf("draft: unmarshal answers: %w", err)
	}
	return answers, true, nil
}

// ResetAll drops every draft.
func (s *MemoryStore) ResetAll(context.Context) error {
	s.mu.Lock()
	s.blobs = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}
