package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fraudlens/ringview/internal/model"
)

// MemoryStore keeps case snapshots in process memory. The serve command
// uses it when no database URL is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	cases map[string]memoryCase
}

type memoryCase struct {
	snap      model.Snapshot
	updatedAt time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cases: make(map[string]memoryCase)}
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, caseID string, snap model.Snapshot) error {
	// Deep-copy so later mutation of the caller's slices cannot leak in.
	cp := model.Snapshot{
		Nodes: append([]model.GraphNode(nil), snap.Nodes...),
		Edges: append([]model.GraphEdge(nil), snap.Edges...),
	}
	s.mu.Lock()
	s.cases[caseID] = memoryCase{snap: cp, updatedAt: time.Now().UTC()}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, caseID string) (model.Snapshot, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return model.Snapshot{}, time.Time{}, ErrNotFound
	}
	cp := model.Snapshot{
		Nodes: append([]model.GraphNode(nil), c.snap.Nodes...),
		Edges: append([]model.GraphEdge(nil), c.snap.Edges...),
	}
	return cp, c.updatedAt, nil
}

func (s *MemoryStore) ListCases(context.Context) ([]CaseInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CaseInfo, 0, len(s.cases))
	for id, c := range s.cases {
		out = append(out, CaseInfo{
			CaseID:    id,
			NodeCount: len(c.snap.Nodes),
			EdgeCount: len(c.snap.Edges),
			UpdatedAt: c.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].CaseID < out[j].CaseID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteCase(_ context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[caseID]; !ok {
		return ErrNotFound
	}
	delete(s.cases, caseID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
