// Package store persists case snapshots: the saved node/edge state of an
// investigation, keyed by case id.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/fraudlens/ringview/internal/model"
)

// ErrNotFound is returned when a case id has no saved snapshot.
var ErrNotFound = errors.New("store: case not found")

// CaseInfo summarizes one saved case.
type CaseInfo struct {
	CaseID    string    `json:"case_id"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the persistence interface for case snapshots.
type Store interface {
	// SaveSnapshot inserts or replaces the snapshot for a case.
	SaveSnapshot(ctx context.Context, caseID string, snap model.Snapshot) error
	// GetSnapshot returns the saved snapshot for a case, or ErrNotFound.
	GetSnapshot(ctx context.Context, caseID string) (model.Snapshot, time.Time, error)
	// ListCases returns summaries for every saved case, newest first.
	ListCases(ctx context.Context) ([]CaseInfo, error)
	// DeleteCase removes a saved case; deleting an absent case is ErrNotFound.
	DeleteCase(ctx context.Context, caseID string) error

	Close() error
}
