package model

// NodeType categorizes an entity in an investigation graph.
type NodeType string

const (
	NodeUser        NodeType = "user"
	NodeDevice      NodeType = "device"
	NodeIP          NodeType = "ip"
	NodeEmailDomain NodeType = "email_domain"
)

// String returns the string representation of the node type.
func (t NodeType) String() string {
	return string(t)
}

// IsValid checks whether the node type is a known value.
func (t NodeType) IsValid() bool {
	switch t {
	case NodeUser, NodeDevice, NodeIP, NodeEmailDomain:
		return true
	}
	return false
}

// Radius returns the on-screen radius for a node of this type.
// Users draw larger than supporting entities so they dominate hit-testing
// and visual weight.
func (t NodeType) Radius() float64 {
	if t == NodeUser {
		return 18
	}
	return 12
}

// GraphNode is a single entity in an investigation graph. Position and
// velocity are owned by the layout simulation; everything else comes from
// the feed or the initial snapshot fetch.
type GraphNode struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Type      NodeType `json:"type"`
	RiskScore int      `json:"risk_score,omitempty"` // 0–100
	Flagged   bool     `json:"flagged,omitempty"`

	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// GraphEdge is a relationship between two nodes. Weight is in [0,1] and
// drives both rendered thickness and spring strength in the layout.
type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// Key returns a stable identity for the edge within one graph.
func (e GraphEdge) Key() string {
	return e.Source + "\x00" + e.Target + "\x00" + e.Type
}

// Snapshot is an immutable copy of a graph's nodes and edges, safe to hand
// to the simulator and renderer while the live model keeps mutating.
type Snapshot struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
