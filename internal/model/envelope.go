package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event topic constants. Every message crossing the real-time channel
// carries one of these (or an application-defined topic the core merely
// routes).
const (
	TopicGraphNode   = "graph:node"
	TopicGraphEdge   = "graph:edge"
	TopicGraphRemove = "graph:remove"
	TopicAlert       = "alert"
	TopicJobCreated  = "job:created"
	TopicConnStatus  = "connection:status"

	// TopicWildcard subscribes a handler to every inbound message.
	TopicWildcard = "*"

	// Ping and pong are internal to the channel and never reach handlers.
	TopicPing = "ping"
	TopicPong = "pong"
)

// Envelope is the wire format for every message in both directions.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEnvelope wraps a payload in an envelope stamped with the current time.
func NewEnvelope(topic string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshaling %s payload: %w", topic, err)
	}
	return Envelope{Type: topic, Payload: data, Timestamp: time.Now().UTC()}, nil
}

// Typed payloads for the reserved application topics.

type NodeUpserted struct {
	Node GraphNode `json:"node"`
}

type EdgeUpserted struct {
	Edge GraphEdge `json:"edge"`
}

type NodeRemoved struct {
	NodeID string `json:"node_id"`
}

type AlertRaised struct {
	NodeID   string `json:"node_id"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type JobCreated struct {
	JobID string `json:"job_id"`
	Kind  string `json:"kind"`
}

type ConnStatus struct {
	State string `json:"state"`
}

// GraphEvent is the tagged union of payloads the console interprets.
// Exactly one field is non-nil after a successful decode.
type GraphEvent struct {
	NodeUpserted *NodeUpserted
	EdgeUpserted *EdgeUpserted
	NodeRemoved  *NodeRemoved
	Alert        *AlertRaised
	Job          *JobCreated
}

// ErrUnknownTopic reports an envelope type the console does not interpret.
// Callers log and ignore it rather than failing the channel.
type ErrUnknownTopic struct {
	Topic string
}

func (e *ErrUnknownTopic) Error() string {
	return fmt.Sprintf("unknown topic %q", e.Topic)
}

// DecodeGraphEvent decodes an envelope into the tagged union above.
// Unrecognized topics return *ErrUnknownTopic; malformed payloads return a
// wrapped unmarshal error. Both are non-fatal to the channel.
func DecodeGraphEvent(env Envelope) (GraphEvent, error) {
	var ev GraphEvent
	var err error
	switch env.Type {
	case TopicGraphNode:
		var p NodeUpserted
		err = json.Unmarshal(env.Payload, &p)
		ev.NodeUpserted = &p
	case TopicGraphEdge:
		var p EdgeUpserted
		err = json.Unmarshal(env.Payload, &p)
		ev.EdgeUpserted = &p
	case TopicGraphRemove:
		var p NodeRemoved
		err = json.Unmarshal(env.Payload, &p)
		ev.NodeRemoved = &p
	case TopicAlert:
		var p AlertRaised
		err = json.Unmarshal(env.Payload, &p)
		ev.Alert = &p
	case TopicJobCreated:
		var p JobCreated
		err = json.Unmarshal(env.Payload, &p)
		ev.Job = &p
	default:
		return GraphEvent{}, &ErrUnknownTopic{Topic: env.Type}
	}
	if err != nil {
		return GraphEvent{}, fmt.Errorf("decoding %s payload: %w", env.Type, err)
	}
	return ev, nil
}
