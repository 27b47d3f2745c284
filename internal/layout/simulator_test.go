package layout

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/fraudlens/ringview/internal/model"
)

func finite(n model.GraphNode) bool {
	for _, v := range []float64{n.X, n.Y, n.VX, n.VY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func TestStep_RandomGraphsStayFiniteAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sim := New(Config{})
	cfg := sim.Config()

	for _, n := range []int{1, 2, 10, 50} {
		nodes := make([]model.GraphNode, n)
		for i := range nodes {
			nodes[i] = model.GraphNode{
				ID:   fmt.Sprintf("n%d", i),
				Type: model.NodeUser,
				X:    rng.Float64() * cfg.Width,
				Y:    rng.Float64() * cfg.Height,
			}
		}
		var edges []model.GraphEdge
		for i := 1; i < n; i++ {
			edges = append(edges, model.GraphEdge{
				Source: fmt.Sprintf("n%d", rng.Intn(i)),
				Target: fmt.Sprintf("n%d", i),
				Type:   "shared-ip",
				Weight: rng.Float64(),
			})
		}

		for tick := 0; tick < 500; tick++ {
			sim.Step(nodes, edges)
		}
		for _, node := range nodes {
			if !finite(node) {
				t.Fatalf("n=%d: node %s not finite: %+v", n, node.ID, node)
			}
			if node.X < 0 || node.X > cfg.Width || node.Y < 0 || node.Y > cfg.Height {
				t.Fatalf("n=%d: node %s out of bounds: (%v,%v)", n, node.ID, node.X, node.Y)
			}
		}
	}
}

func TestStep_CoincidentNodesStayFinite(t *testing.T) {
	sim := New(Config{})
	nodes := []model.GraphNode{
		{ID: "a", Type: model.NodeUser, X: 450, Y: 250},
		{ID: "b", Type: model.NodeUser, X: 450, Y: 250},
	}
	sim.Step(nodes, nil)
	for _, n := range nodes {
		if !finite(n) {
			t.Fatalf("coincident node produced non-finite state: %+v", n)
		}
	}
	// The epsilon clamp must actually push them apart.
	if nodes[0].X == nodes[1].X && nodes[0].Y == nodes[1].Y {
		t.Error("coincident nodes did not separate after one tick")
	}
}

func TestStep_SystemSettles(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	sim := New(Config{})
	cfg := sim.Config()

	nodes := make([]model.GraphNode, 12)
	for i := range nodes {
		nodes[i] = model.GraphNode{
			ID:   fmt.Sprintf("n%d", i),
			Type: model.NodeDevice,
			X:    rng.Float64() * cfg.Width,
			Y:    rng.Float64() * cfg.Height,
		}
	}
	var edges []model.GraphEdge
	for i := 1; i < len(nodes); i++ {
		edges = append(edges, model.GraphEdge{
			Source: "n0", Target: fmt.Sprintf("n%d", i), Type: "shared-device", Weight: 0.8,
		})
	}

	for tick := 0; tick < 500; tick++ {
		sim.Step(nodes, edges)
	}
	if !Settled(nodes, 1.0) {
		for _, n := range nodes {
			t.Logf("%s v=(%v,%v)", n.ID, n.VX, n.VY)
		}
		t.Error("layout did not settle within 500 ticks")
	}
}

func TestStep_AttractionScalesWithWeight(t *testing.T) {
	run := func(weight float64) float64 {
		sim := New(Config{Gravity: 1e-9}) // isolate the spring term
		nodes := []model.GraphNode{
			{ID: "a", X: 100, Y: 250},
			{ID: "b", X: 800, Y: 250},
		}
		edges := []model.GraphEdge{{Source: "a", Target: "b", Type: "t", Weight: weight}}
		for i := 0; i < 50; i++ {
			sim.Step(nodes, edges)
		}
		return math.Hypot(nodes[0].X-nodes[1].X, nodes[0].Y-nodes[1].Y)
	}

	if heavy, light := run(1.0), run(0.1); heavy >= light {
		t.Errorf("weight 1.0 ended at distance %v, weight 0.1 at %v; heavier edge should pull tighter", heavy, light)
	}
}

func TestScatter_OnlyMovesOriginNodes(t *testing.T) {
	sim := New(Config{})
	nodes := []model.GraphNode{
		{ID: "seeded", X: 123, Y: 45},
		{ID: "fresh"},
	}
	sim.Scatter(nodes, rand.New(rand.NewSource(1)))
	if nodes[0].X != 123 || nodes[0].Y != 45 {
		t.Errorf("seeded node moved: %+v", nodes[0])
	}
	if nodes[1].X == 0 && nodes[1].Y == 0 {
		t.Errorf("fresh node not scattered")
	}
}

func TestFraudRingScenario_StaysInViewport(t *testing.T) {
	// 11 nodes / 12 edges mirroring a small fraud-ring sample.
	rng := rand.New(rand.NewSource(11))
	sim := New(Config{Width: 900, Height: 500})

	ids := []struct {
		id  string
		typ model.NodeType
	}{
		{"user-1", model.NodeUser}, {"user-2", model.NodeUser}, {"user-3", model.NodeUser},
		{"user-4", model.NodeUser}, {"user-5", model.NodeUser},
		{"dev-1", model.NodeDevice}, {"dev-2", model.NodeDevice},
		{"ip-1", model.NodeIP}, {"ip-2", model.NodeIP},
		{"dom-1", model.NodeEmailDomain}, {"dom-2", model.NodeEmailDomain},
	}
	nodes := make([]model.GraphNode, len(ids))
	for i, d := range ids {
		nodes[i] = model.GraphNode{ID: d.id, Type: d.typ}
	}
	sim.Scatter(nodes, rng)

	edges := []model.GraphEdge{
		{Source: "user-1", Target: "ip-1", Type: "shared-ip", Weight: 0.9},
		{Source: "user-2", Target: "ip-1", Type: "shared-ip", Weight: 0.9},
		{Source: "user-3", Target: "ip-1", Type: "shared-ip", Weight: 0.7},
		{Source: "user-1", Target: "dev-1", Type: "shared-device", Weight: 1},
		{Source: "user-2", Target: "dev-1", Type: "shared-device", Weight: 1},
		{Source: "user-4", Target: "dev-2", Type: "shared-device", Weight: 0.6},
		{Source: "user-5", Target: "dev-2", Type: "shared-device", Weight: 0.6},
		{Source: "user-1", Target: "dom-1", Type: "email-domain", Weight: 0.4},
		{Source: "user-4", Target: "dom-1", Type: "email-domain", Weight: 0.4},
		{Source: "user-5", Target: "dom-2", Type: "email-domain", Weight: 0.3},
		{Source: "user-3", Target: "ip-2", Type: "shared-ip", Weight: 0.5},
		{Source: "user-4", Target: "ip-2", Type: "shared-ip", Weight: 0.5},
	}

	for tick := 0; tick < 500; tick++ {
		sim.Step(nodes, edges)
	}
	for _, n := range nodes {
		if !finite(n) {
			t.Fatalf("node %s not finite: %+v", n.ID, n)
		}
		if n.X < 0 || n.X > 900 || n.Y < 0 || n.Y > 500 {
			t.Errorf("node %s left the 900x500 viewport: (%v,%v)", n.ID, n.X, n.Y)
		}
	}
}
