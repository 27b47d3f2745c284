package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fraudlens/ringview/internal/model"
	"github.com/fraudlens/ringview/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and
// expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		Nodes: []model.GraphNode{
			{ID: "user-1", Type: model.NodeUser, X: 100, Y: 100},
			{ID: "ip-1", Type: model.NodeIP, X: 300, Y: 200},
		},
		Edges: []model.GraphEdge{
			{Source: "user-1", Target: "ip-1", Type: "shared-ip", Weight: 0.9},
		},
	}
}

func TestSaveSnapshot_Upserts(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	snap := sampleSnapshot()
	data, _ := json.Marshal(snap)

	mock.ExpectExec("INSERT INTO case_snapshots").
		WithArgs("case-rv-1", data, 2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.SaveSnapshot(context.Background(), "case-rv-1", snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
}

func TestGetSnapshot_RoundTripsJSON(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	snap := sampleSnapshot()
	data, _ := json.Marshal(snap)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT snapshot, updated_at FROM case_snapshots WHERE case_id = \\$1").
		WithArgs("case-rv-1").
		WillReturnRows(sqlmock.NewRows([]string{"snapshot", "updated_at"}).AddRow(data, now))

	got, updatedAt, err := s.GetSnapshot(context.Background(), "case-rv-1")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if !updatedAt.Equal(now) {
		t.Errorf("updatedAt = %v, want %v", updatedAt, now)
	}
	if len(got.Nodes) != 2 || len(got.Edges) != 1 {
		t.Errorf("snapshot has %d nodes / %d edges, want 2 / 1", len(got.Nodes), len(got.Edges))
	}
	if got.Nodes[0].ID != "user-1" {
		t.Errorf("first node = %s, want user-1", got.Nodes[0].ID)
	}
}

func TestGetSnapshot_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectQuery("SELECT snapshot, updated_at FROM case_snapshots").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, _, err := s.GetSnapshot(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want store.ErrNotFound", err)
	}
}

func TestListCases_NewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT case_id, node_count, edge_count, updated_at").
		WillReturnRows(sqlmock.NewRows([]string{"case_id", "node_count", "edge_count", "updated_at"}).
			AddRow("case-rv-2", 5, 7, now).
			AddRow("case-rv-1", 2, 1, now.Add(-time.Hour)))

	cases, err := s.ListCases(context.Background())
	if err != nil {
		t.Fatalf("ListCases: %v", err)
	}
	if len(cases) != 2 || cases[0].CaseID != "case-rv-2" {
		t.Errorf("cases = %+v, want case-rv-2 first", cases)
	}
}

func TestDeleteCase_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectExec("DELETE FROM case_snapshots").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DeleteCase(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want store.ErrNotFound", err)
	}
}

func TestDeleteCase_Deletes(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectExec("DELETE FROM case_snapshots").
		WithArgs("case-rv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.DeleteCase(context.Background(), "case-rv-1"); err != nil {
		t.Fatalf("DeleteCase: %v", err)
	}
}
