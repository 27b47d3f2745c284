package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNodeType_IsValid(t *testing.T) {
	for _, tc := range []struct {
		typ  NodeType
		want bool
	}{
		{NodeUser, true},
		{NodeDevice, true},
		{NodeIP, true},
		{NodeEmailDomain, true},
		{NodeType(""), false},
		{NodeType("bogus"), false},
	} {
		if got := tc.typ.IsValid(); got != tc.want {
			t.Errorf("NodeType(%q).IsValid() = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestNodeType_Radius(t *testing.T) {
	if NodeUser.Radius() <= NodeIP.Radius() {
		t.Errorf("user radius %v should exceed ip radius %v", NodeUser.Radius(), NodeIP.Radius())
	}
	if NodeDevice.Radius() != NodeEmailDomain.Radius() {
		t.Errorf("non-user types should share a radius")
	}
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(TopicAlert, AlertRaised{NodeID: "user-1", Severity: "high"})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.Type != TopicAlert {
		t.Errorf("type = %q, want %q", env.Type, TopicAlert)
	}
	if env.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	// Envelope timestamps must round-trip as ISO-8601.
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	var back Envelope
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if !back.Timestamp.Equal(env.Timestamp.Truncate(time.Nanosecond)) {
		t.Errorf("timestamp did not round-trip: %v vs %v", back.Timestamp, env.Timestamp)
	}
}

func TestDecodeGraphEvent(t *testing.T) {
	env, err := NewEnvelope(TopicGraphNode, NodeUpserted{Node: GraphNode{ID: "ip-1", Type: NodeIP}})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	ev, err := DecodeGraphEvent(env)
	if err != nil {
		t.Fatalf("DecodeGraphEvent: %v", err)
	}
	if ev.NodeUpserted == nil || ev.NodeUpserted.Node.ID != "ip-1" {
		t.Errorf("node payload not decoded: %+v", ev)
	}
}

func TestDecodeGraphEvent_UnknownTopic(t *testing.T) {
	_, err := DecodeGraphEvent(Envelope{Type: "settings:changed", Payload: json.RawMessage(`{}`)})
	var unknown *ErrUnknownTopic
	if !errors.As(err, &unknown) {
		t.Fatalf("want *ErrUnknownTopic, got %v", err)
	}
	if unknown.Topic != "settings:changed" {
		t.Errorf("topic = %q", unknown.Topic)
	}
}

func TestDecodeGraphEvent_MalformedPayload(t *testing.T) {
	_, err := DecodeGraphEvent(Envelope{Type: TopicAlert, Payload: json.RawMessage(`{not json`)})
	if err == nil {
		t.Fatal("want decode error for malformed payload")
	}
}

func TestGraphEdge_Key(t *testing.T) {
	a := GraphEdge{Source: "u1", Target: "ip1", Type: "shared-ip"}
	b := GraphEdge{Source: "u1", Target: "ip1", Type: "shared-device"}
	if a.Key() == b.Key() {
		t.Error("edges of different types must have distinct keys")
	}
	if a.Key() != (GraphEdge{Source: "u1", Target: "ip1", Type: "shared-ip"}).Key() {
		t.Error("identical edges must share a key")
	}
}
