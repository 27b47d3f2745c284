package main

import (
	"testing"

	"github.com/fraudlens/ringview/internal/config"
)

func TestResolveFeedURL(t *testing.T) {
	cfg := &config.Config{FeedURL: "ws://cfg.test/v1/stream"}

	feedURL = ""
	if got := resolveFeedURL(cfg); got != "ws://cfg.test/v1/stream" {
		t.Errorf("resolveFeedURL without flag = %q, want the configured URL", got)
	}

	feedURL = "ws://flag.test/v1/stream"
	t.Cleanup(func() { feedURL = "" })
	if got := resolveFeedURL(cfg); got != "ws://flag.test/v1/stream" {
		t.Errorf("resolveFeedURL with flag = %q, want the flag value", got)
	}
}
