package store

import (
	"context"
	"errors"
	"testing"

	"github.com/fraudlens/ringview/internal/model"
)

func TestMemoryStore_SaveGetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	snap := model.Snapshot{
		Nodes: []model.GraphNode{{ID: "user-1", Type: model.NodeUser}},
		Edges: nil,
	}
	if err := s.SaveSnapshot(ctx, "case-rv-1", snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, updatedAt, err := s.GetSnapshot(ctx, "case-rv-1")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if updatedAt.IsZero() {
		t.Error("updatedAt not stamped")
	}
	if len(got.Nodes) != 1 || got.Nodes[0].ID != "user-1" {
		t.Errorf("snapshot = %+v", got)
	}

	// Returned copy must not alias the stored state.
	got.Nodes[0].ID = "mutated"
	again, _, _ := s.GetSnapshot(ctx, "case-rv-1")
	if again.Nodes[0].ID != "user-1" {
		t.Error("stored snapshot was mutated through a returned copy")
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, _, err := s.GetSnapshot(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ListAndDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.SaveSnapshot(ctx, "case-a", model.Snapshot{})
	s.SaveSnapshot(ctx, "case-b", model.Snapshot{
		Nodes: []model.GraphNode{{ID: "n1"}},
	})

	cases, err := s.ListCases(ctx)
	if err != nil {
		t.Fatalf("ListCases: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("listed %d cases, want 2", len(cases))
	}

	if err := s.DeleteCase(ctx, "case-a"); err != nil {
		t.Fatalf("DeleteCase: %v", err)
	}
	if err := s.DeleteCase(ctx, "case-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}
