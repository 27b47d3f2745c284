// Package view drives the per-investigation presentation loop: each frame
// it steps the layout over a model snapshot, hands the frame to a renderer,
// and refreshes the hit-test index used for pointer interaction.
package view

import (
	"sync"

	"github.com/fraudlens/ringview/internal/model"
)

// Interaction resolves pointer events against the most recently drawn
// frame and tracks selection and hover state. Selection never feeds back
// into the graph model; it is presentation state only.
type Interaction struct {
	mu       sync.Mutex
	frame    []model.GraphNode // draw order, last element is topmost
	selected map[string]bool
	hovered  string
}

// NewInteraction returns an Interaction with an empty frame and selection.
func NewInteraction() *Interaction {
	return &Interaction{selected: make(map[string]bool)}
}

// UpdateFrame records the nodes of the frame just drawn, in draw order.
// Selection and hover entries for nodes no longer present are dropped.
func (ix *Interaction) UpdateFrame(nodes []model.GraphNode) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.frame = append(ix.frame[:0], nodes...)

	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}
	for id := range ix.selected {
		if !present[id] {
			delete(ix.selected, id)
		}
	}
	if ix.hovered != "" && !present[ix.hovered] {
		ix.hovered = ""
	}
}

// HitTest returns the id of the node whose radius contains (x, y). When
// several nodes overlap the point, the most recently drawn one wins.
func (ix *Interaction) HitTest(x, y float64) (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.hitLocked(x, y)
}

func (ix *Interaction) hitLocked(x, y float64) (string, bool) {
	for i := len(ix.frame) - 1; i >= 0; i-- {
		n := ix.frame[i]
		r := n.Type.Radius()
		dx, dy := x-n.X, y-n.Y
		if dx*dx+dy*dy <= r*r {
			return n.ID, true
		}
	}
	return "", false
}

// Click replaces the current selection with the hit node, or clears the
// selection when nothing is hit. It returns the hit node id, if any.
func (ix *Interaction) Click(x, y float64) (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	id, ok := ix.hitLocked(x, y)
	ix.selected = make(map[string]bool)
	if ok {
		ix.selected[id] = true
	}
	return id, ok
}

// ModifierClick toggles the hit node in the multi-select set, leaving the
// rest of the selection untouched. A miss changes nothing.
func (ix *Interaction) ModifierClick(x, y float64) (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	id, ok := ix.hitLocked(x, y)
	if !ok {
		return "", false
	}
	if ix.selected[id] {
		delete(ix.selected, id)
	} else {
		ix.selected[id] = true
	}
	return id, true
}

// Hover updates the hovered node from the pointer position. Hover is
// independent of selection and affects visual emphasis only.
func (ix *Interaction) Hover(x, y float64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if id, ok := ix.hitLocked(x, y); ok {
		ix.hovered = id
	} else {
		ix.hovered = ""
	}
}

// Hovered returns the currently hovered node id, or "".
func (ix *Interaction) Hovered() string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.hovered
}

// IsSelected reports whether id is in the selection.
func (ix *Interaction) IsSelected(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.selected[id]
}

// Selection returns the selected node ids in frame draw order.
func (ix *Interaction) Selection() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	var out []string
	for _, n := range ix.frame {
		if ix.selected[n.ID] {
			out = append(out, n.ID)
		}
	}
	return out
}
