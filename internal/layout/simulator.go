// Package layout implements the force-directed layout simulation that
// positions investigation-graph nodes. Each Step advances a mass-spring-
// repulsion system one tick; damping below one guarantees the layout
// settles instead of oscillating.
package layout

import (
	"math"
	"math/rand"

	"github.com/fraudlens/ringview/internal/model"
)

// Config holds the simulation constants. Zero values are replaced by the
// defaults from DefaultConfig, so a partially filled Config is usable.
type Config struct {
	// Repulsion scales the inverse-square force pushing every node pair
	// apart.
	Repulsion float64
	// Stiffness scales the spring force along each edge; the edge weight
	// multiplies it further.
	Stiffness float64
	// Gravity is the constant-proportion pull toward the canvas center
	// that keeps the graph from drifting off-screen.
	Gravity float64
	// Damping multiplies velocity each tick. Must be < 1.
	Damping float64
	// MinDistance clamps the effective pair distance so coincident nodes
	// never produce an infinite or NaN force.
	MinDistance float64
	// Width and Height are the viewport extents; positions are clamped
	// into [0,Width]x[0,Height] after integration.
	Width, Height float64
}

// DefaultConfig returns constants tuned for graphs of tens of nodes on a
// 900x500 viewport.
func DefaultConfig() Config {
	return Config{
		Repulsion:   2500,
		Stiffness:   0.05,
		Gravity:     0.02,
		Damping:     0.85,
		MinDistance: 0.5,
		Width:       900,
		Height:      500,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Repulsion == 0 {
		c.Repulsion = d.Repulsion
	}
	if c.Stiffness == 0 {
		c.Stiffness = d.Stiffness
	}
	if c.Gravity == 0 {
		c.Gravity = d.Gravity
	}
	if c.Damping == 0 {
		c.Damping = d.Damping
	}
	if c.MinDistance == 0 {
		c.MinDistance = d.MinDistance
	}
	if c.Width == 0 {
		c.Width = d.Width
	}
	if c.Height == 0 {
		c.Height = d.Height
	}
	return c
}

// Simulator advances node positions one tick at a time. It holds no graph
// state of its own; callers hand it a snapshot's nodes and edges each tick.
type Simulator struct {
	cfg Config
}

// New returns a Simulator using cfg with defaults filled in.
func New(cfg Config) *Simulator {
	return &Simulator{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (s *Simulator) Config() Config {
	return s.cfg
}

// Scatter assigns a random position inside the viewport to every node that
// is still at the origin, so fresh graphs do not start as a single
// degenerate stack. Seeded nodes keep their positions.
func (s *Simulator) Scatter(nodes []model.GraphNode, rng *rand.Rand) {
	for i := range nodes {
		if nodes[i].X == 0 && nodes[i].Y == 0 {
			nodes[i].X = rng.Float64() * s.cfg.Width
			nodes[i].Y = rng.Float64() * s.cfg.Height
		}
	}
}

// Step integrates one tick, mutating nodes in place. Repulsion is computed
// over all pairs (O(n²), fine at this scale), attraction along each edge
// scaled by its weight, and a centering pull keeps the layout on screen.
func (s *Simulator) Step(nodes []model.GraphNode, edges []model.GraphEdge) {
	n := len(nodes)
	if n == 0 {
		return
	}

	fx := make([]float64, n)
	fy := make([]float64, n)
	index := make(map[string]int, n)
	for i := range nodes {
		index[nodes[i].ID] = i
	}

	// Pairwise repulsion, inverse-square with a clamped minimum distance.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := nodes[i].X - nodes[j].X
			dy := nodes[i].Y - nodes[j].Y
			dist := math.Hypot(dx, dy)
			if dist < s.cfg.MinDistance {
				// Coincident nodes get a deterministic nudge apart so the
				// direction of the force is defined.
				dist = s.cfg.MinDistance
				dx, dy = dist, 0
			}
			f := s.cfg.Repulsion / (dist * dist)
			ux, uy := dx/dist, dy/dist
			fx[i] += ux * f
			fy[i] += uy * f
			fx[j] -= ux * f
			fy[j] -= uy * f
		}
	}

	// Spring attraction along edges, proportional to distance and weight.
	for _, e := range edges {
		i, ok := index[e.Source]
		if !ok {
			continue
		}
		j, ok := index[e.Target]
		if !ok {
			continue
		}
		dx := nodes[j].X - nodes[i].X
		dy := nodes[j].Y - nodes[i].Y
		f := s.cfg.Stiffness * e.Weight
		fx[i] += dx * f
		fy[i] += dy * f
		fx[j] -= dx * f
		fy[j] -= dy * f
	}

	// Centering and integration.
	cx, cy := s.cfg.Width/2, s.cfg.Height/2
	for i := range nodes {
		fx[i] += (cx - nodes[i].X) * s.cfg.Gravity
		fy[i] += (cy - nodes[i].Y) * s.cfg.Gravity

		nodes[i].VX = (nodes[i].VX + fx[i]) * s.cfg.Damping
		nodes[i].VY = (nodes[i].VY + fy[i]) * s.cfg.Damping

		nodes[i].X = clamp(nodes[i].X+nodes[i].VX, 0, s.cfg.Width)
		nodes[i].Y = clamp(nodes[i].Y+nodes[i].VY, 0, s.cfg.Height)
	}
}

// Settled reports whether every node's speed is below threshold, i.e. the
// layout has visually come to rest.
func Settled(nodes []model.GraphNode, threshold float64) bool {
	for i := range nodes {
		if math.Hypot(nodes[i].VX, nodes[i].VY) > threshold {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
