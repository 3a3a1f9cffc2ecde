package history

import (
	"errors"
	"strconv"
	"testing"
)

// counter is a Target whose whole state is one integer.
type counter struct {
	value   int
	failing bool
}

func (c *counter) Capture() ([]byte, error) {
	return []byte(strconv.Itoa(c.value)), nil
}

func (c *counter) Apply(state []byte) error {
	if c.failing {
		return errors.New("apply failed")
	}
	v, err := strconv.Atoi(string(state))
	if err != nil {
		return err
	}
	c.value = v
	return nil
}

func commitSet(t *testing.T, m *Manager, c *counter, v int) {
	t.Helper()
	if err := m.Begin(); err != nil {
		t.Fatal(err)
	}
	c.value = v
	if _, err := m.Commit(); err != nil {
		t.Fatal(err)
	}
}

func TestNoOpCommitIsDiscarded(t *testing.T) {
	c := &counter{}
	m := New(c)
	if err := m.Begin(); err != nil {
		t.Fatal(err)
	}
	recorded, err := m.Commit()
	if err != nil || recorded {
		t.Fatalf("recorded=%v err=%v", recorded, err)
	}
	if m.CanUndo() {
		t.Error("no-op commit pushed an undo step")
	}
}

func TestBeginIsIdempotent(t *testing.T) {
	c := &counter{}
	m := New(c)
	_ = m.Begin()
	c.value = 1
	_ = m.Begin()
	c.value = 2
	if _, err := m.Commit(); err != nil {
		t.Fatal(err)
	}
	if undo, _ := m.Depth(); undo != 1 {
		t.Fatalf("undo depth = %d, want 1", undo)
	}
	if _, err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if c.value != 0 {
		t.Errorf("undo restored %d, want the first pre-state 0", c.value)
	}
}

func TestBoundedHistory(t *testing.T) {
	c := &counter{}
	m := New(c)
	for i := 1; i <= 15; i++ {
		commitSet(t, m, c, i)
	}
	if undo, _ := m.Depth(); undo != MaxDepth {
		t.Fatalf("undo depth = %d, want %d", undo, MaxDepth)
	}

	for m.CanUndo() {
		if _, err := m.Undo(); err != nil {
			t.Fatal(err)
		}
	}
	// States 0..4 were evicted; the oldest reachable pre-state is 5.
	if c.value != 5 {
		t.Errorf("oldest reachable state = %d, want 5", c.value)
	}
	if _, redo := m.Depth(); redo != MaxDepth {
		t.Errorf("redo depth = %d, want %d", redo, MaxDepth)
	}
}

func TestUndoRedoInverse(t *testing.T) {
	c := &counter{}
	m := New(c)
	commitSet(t, m, c, 1)
	commitSet(t, m, c, 2)
	commitSet(t, m, c, 3)

	if _, err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if c.value != 2 {
		t.Fatalf("after undo: %d", c.value)
	}
	if _, err := m.Redo(); err != nil {
		t.Fatal(err)
	}
	if c.value != 3 {
		t.Fatalf("after redo: %d", c.value)
	}

	ok, err := m.Redo()
	if ok || err != nil {
		t.Errorf("redo on empty stack: ok=%v err=%v", ok, err)
	}
}

func TestCommitClearsRedo(t *testing.T) {
	c := &counter{}
	m := New(c)
	commitSet(t, m, c, 1)
	commitSet(t, m, c, 2)
	_, _ = m.Undo()
	if !m.CanRedo() {
		t.Fatal("expected redo")
	}
	commitSet(t, m, c, 7)
	if m.CanRedo() {
		t.Error("new commit kept the redo stack")
	}
}

func TestFailedApplyKeepsStacks(t *testing.T) {
	c := &counter{}
	m := New(c)
	commitSet(t, m, c, 1)
	c.failing = true
	if _, err := m.Undo(); err == nil {
		t.Fatal("expected error")
	}
	if undo, redo := m.Depth(); undo != 1 || redo != 0 {
		t.Errorf("depth = %d/%d, want 1/0", undo, redo)
	}
}

func TestClear(t *testing.T) {
	c := &counter{}
	m := New(c)
	commitSet(t, m, c, 1)
	_ = m.Begin()
	m.Clear()
	if m.CanUndo() || m.InTransaction() {
		t.Error("Clear left state behind")
	}
}
