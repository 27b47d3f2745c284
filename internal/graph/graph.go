// Package graph holds the canonical in-memory entity graph for one
// investigation view. One Model is owned by exactly one view; it is mutated
// by feed handlers and user actions and read by the render loop through
// immutable snapshots.
package graph

import (
	"log/slog"
	"sync"

	"github.com/fraudlens/ringview/internal/model"
)

// Model is the live node/edge set for an investigation. All methods are
// safe for concurrent use; readers consume Snapshot copies and never see a
// half-applied mutation.
type Model struct {
	mu sync.RWMutex

	nodes     map[string]model.GraphNode
	nodeOrder []string // insertion order, drives draw order (later = topmost)
	edges     map[string]model.GraphEdge
	edgeOrder []string

	logger *slog.Logger
}

// New returns an empty Model. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		nodes:  make(map[string]model.GraphNode),
		edges:  make(map[string]model.GraphEdge),
		logger: logger,
	}
}

// Seed replaces the model contents with an initial snapshot, typically the
// result of the initial-state fetch. Edges referencing unknown nodes are
// dropped the same way UpsertEdge drops them.
func (m *Model) Seed(snap model.Snapshot) {
	m.mu.Lock()
	m.nodes = make(map[string]model.GraphNode, len(snap.Nodes))
	m.nodeOrder = m.nodeOrder[:0]
	m.edges = make(map[string]model.GraphEdge, len(snap.Edges))
	m.edgeOrder = m.edgeOrder[:0]
	for _, n := range snap.Nodes {
		if _, ok := m.nodes[n.ID]; !ok {
			m.nodeOrder = append(m.nodeOrder, n.ID)
		}
		m.nodes[n.ID] = n
	}
	m.mu.Unlock()

	for _, e := range snap.Edges {
		m.UpsertEdge(e)
	}
}

// UpsertNode inserts or replaces a node by ID. Existing edges are untouched.
func (m *Model) UpsertNode(n model.GraphNode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[n.ID]; !ok {
		m.nodeOrder = append(m.nodeOrder, n.ID)
	}
	m.nodes[n.ID] = n
}

// UpsertEdge inserts or replaces an edge. An edge whose source or target is
// not present is an orphan edge: it is dropped and logged, never retained.
// Returns true when the edge was stored.
func (m *Model) UpsertEdge(e model.GraphEdge) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[e.Source]; !ok {
		m.logger.Warn("dropping orphan edge", "source", e.Source, "target", e.Target, "type", e.Type)
		return false
	}
	if _, ok := m.nodes[e.Target]; !ok {
		m.logger.Warn("dropping orphan edge", "source", e.Source, "target", e.Target, "type", e.Type)
		return false
	}
	key := e.Key()
	if _, ok := m.edges[key]; !ok {
		m.edgeOrder = append(m.edgeOrder, key)
	}
	m.edges[key] = e
	return true
}

// RemoveNode deletes the node and every edge touching it in one atomic
// mutation; no snapshot taken afterwards can contain a dangling edge.
func (m *Model) RemoveNode(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[id]; !ok {
		return
	}
	delete(m.nodes, id)
	m.nodeOrder = removeString(m.nodeOrder, id)

	kept := m.edgeOrder[:0]
	for _, key := range m.edgeOrder {
		e := m.edges[key]
		if e.Source == id || e.Target == id {
			delete(m.edges, key)
			continue
		}
		kept = append(kept, key)
	}
	m.edgeOrder = kept
}

// SetPosition writes the simulated position and velocity back onto a node.
// Unknown IDs are ignored (the node may have been removed mid-tick).
func (m *Model) SetPosition(id string, x, y, vx, vy float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return
	}
	n.X, n.Y, n.VX, n.VY = x, y, vx, vy
	m.nodes[id] = n
}

// SetFlagged toggles the analyst flag on a node.
func (m *Model) SetFlagged(id string, flagged bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return
	}
	n.Flagged = flagged
	m.nodes[id] = n
}

// Node returns a copy of the node with the given ID.
func (m *Model) Node(id string) (model.GraphNode, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	return n, ok
}

// Len returns the current node and edge counts.
func (m *Model) Len() (nodes, edges int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes), len(m.edges)
}

// Snapshot returns an immutable copy of the current nodes and edges in
// insertion order. The caller owns the returned slices.
func (m *Model) Snapshot() model.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := model.Snapshot{
		Nodes: make([]model.GraphNode, 0, len(m.nodeOrder)),
		Edges: make([]model.GraphEdge, 0, len(m.edgeOrder)),
	}
	for _, id := range m.nodeOrder {
		snap.Nodes = append(snap.Nodes, m.nodes[id])
	}
	for _, key := range m.edgeOrder {
		snap.Edges = append(snap.Edges, m.edges[key])
	}
	return snap
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
