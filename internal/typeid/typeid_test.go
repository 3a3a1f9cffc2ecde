package typeid

import (
	"strings"
	"testing"
)

func TestNewShapeIDValidates(t *testing.T) {
	id := NewShapeID()
	if !strings.HasPrefix(id, PrefixShape+"_") {
		t.Fatalf("id %q missing prefix", id)
	}
	if err := Validate(id, PrefixShape); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := Validate(id, PrefixDrawing); err == nil {
		t.Fatal("expected prefix mismatch error")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	if err := Validate("not an id", PrefixDrawing); err == nil {
		t.Fatal("expected error")
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewDrawingID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
