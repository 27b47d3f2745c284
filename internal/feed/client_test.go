package feed

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fraudlens/ringview/internal/graph"
	"github.com/fraudlens/ringview/internal/model"
)

func TestClient_FetchGraph(t *testing.T) {
	m := graph.New(testLogger())
	m.UpsertNode(model.GraphNode{ID: "user-1", Type: model.NodeUser})
	s := NewServer(m, testLogger())
	ts := httptest.NewServer(s.NewHTTPHandler("sekrit"))
	defer ts.Close()

	c := NewClient(ts.URL, "sekrit")
	snap, err := c.FetchGraph(context.Background())
	if err != nil {
		t.Fatalf("FetchGraph: %v", err)
	}
	if len(snap.Nodes) != 1 || snap.Nodes[0].ID != "user-1" {
		t.Errorf("snapshot = %+v", snap)
	}

	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}

func TestClient_FetchGraphUnauthorized(t *testing.T) {
	m := graph.New(testLogger())
	s := NewServer(m, testLogger())
	ts := httptest.NewServer(s.NewHTTPHandler("sekrit"))
	defer ts.Close()

	c := NewClient(ts.URL, "wrong")
	_, err := c.FetchGraph(context.Background())
	if err == nil || !strings.Contains(err.Error(), "invalid token") {
		t.Errorf("err = %v, want invalid token", err)
	}
}
