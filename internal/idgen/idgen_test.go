package idgen

import (
	"regexp"
	"strings"
	"testing"
)

func TestNew_ShapeAndKind(t *testing.T) {
	id, err := New("case")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !strings.HasPrefix(id, "case-") {
		t.Errorf("New(\"case\") = %q, want case- prefix", id)
	}
	if len(id) != len("case-")+length {
		t.Errorf("id length = %d, want %d (id=%q)", len(id), len("case-")+length, id)
	}
}

func TestNewConsoleID_Charset(t *testing.T) {
	pattern := regexp.MustCompile(`^con-[a-z0-9]{12}$`)
	for i := 0; i < 100; i++ {
		id, err := NewConsoleID()
		if err != nil {
			t.Fatalf("NewConsoleID() error on iteration %d: %v", i, err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("NewConsoleID() = %q, does not match expected pattern", id)
		}
	}
}

func TestNewExportID_Prefix(t *testing.T) {
	id, err := NewExportID()
	if err != nil {
		t.Fatalf("NewExportID() error: %v", err)
	}
	if !strings.HasPrefix(id, "exp-") {
		t.Errorf("NewExportID() = %q, want exp- prefix", id)
	}
}

func TestNew_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := New("rv")
		if err != nil {
			t.Fatalf("New() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}
