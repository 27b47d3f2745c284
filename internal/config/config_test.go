package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %s, want :8080", c.HTTPAddr)
	}
	if c.BackoffBase != time.Second {
		t.Errorf("BackoffBase = %v, want 1s", c.BackoffBase)
	}
	if c.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", c.MaxAttempts)
	}
	if c.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", c.HeartbeatInterval)
	}
	if c.ArchiveInterval != 3*time.Minute {
		t.Errorf("ArchiveInterval = %v, want 3m", c.ArchiveInterval)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RINGVIEW_HTTP_ADDR", ":9999")
	t.Setenv("RINGVIEW_BACKOFF_BASE", "250ms")
	t.Setenv("RINGVIEW_MAX_ATTEMPTS", "3")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %s, want :9999", c.HTTPAddr)
	}
	if c.BackoffBase != 250*time.Millisecond {
		t.Errorf("BackoffBase = %v, want 250ms", c.BackoffBase)
	}
	if c.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", c.MaxAttempts)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("RINGVIEW_BACKOFF_BASE", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Error("Load accepted an invalid duration")
	}
}

func TestLoad_LayoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.toml")
	body := "repulsion = 4000.0\ndamping = 0.9\nwidth = 1200.0\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RINGVIEW_LAYOUT_FILE", path)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Layout.Repulsion != 4000 || c.Layout.Damping != 0.9 || c.Layout.Width != 1200 {
		t.Errorf("layout overlay = %+v", c.Layout)
	}
	// Unset fields stay zero so the simulator fills its defaults.
	if c.Layout.Gravity != 0 {
		t.Errorf("gravity = %v, want 0", c.Layout.Gravity)
	}
}

func TestLoad_MissingLayoutFile(t *testing.T) {
	t.Setenv("RINGVIEW_LAYOUT_FILE", "/nonexistent/layout.toml")
	if _, err := Load(); err == nil {
		t.Error("Load accepted a missing layout file")
	}
}
