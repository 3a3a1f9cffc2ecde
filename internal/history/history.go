// Package history implements bounded undo/redo over serialized whole-scene
// snapshots.
package history

import (
	"bytes"
	"fmt"
)

// MaxDepth bounds both the undo and the redo stack.
const MaxDepth = 10

// Target is the state under history control.
type Target interface {
	// Capture serializes the current state. Equal states must produce equal
	// bytes.
	Capture() ([]byte, error)
	// Apply replaces the current state with a captured one.
	Apply(state []byte) error
}

// Manager records one undo step per committed transaction. It is not safe
// for concurrent use.
type Manager struct {
	target  Target
	undo    [][]byte
	redo    [][]byte
	pending []byte
	open    bool
}

func New(target Target) *Manager {
	return &Manager{target: target}
}

// Begin opens a transaction by capturing the pre-state. Calling it again
// before Commit keeps the first capture.
func (m *Manager) Begin() error {
	if m.open {
		return nil
	}
	state, err := m.target.Capture()
	if err != nil {
		return fmt.Errorf("capture pre-state: %w", err)
	}
	m.pending = state
	m.open = true
	return nil
}

// InTransaction reports whether Begin has been called without a matching
// Commit or Abort.
func (m *Manager) InTransaction() bool {
	return m.open
}

// Commit closes the open transaction. It records an undo step only if the
// state changed, and any recorded step clears the redo stack. Committing
// with no open transaction does nothing.
func (m *Manager) Commit() (bool, error) {
	if !m.open {
		return false, nil
	}
	before := m.pending
	m.pending, m.open = nil, false

	after, err := m.target.Capture()
	if err != nil {
		return false, fmt.Errorf("capture post-state: %w", err)
	}
	if bytes.Equal(before, after) {
		return false, nil
	}
	m.undo = push(m.undo, before)
	m.redo = nil
	return true, nil
}

// Abort closes the open transaction without recording anything.
func (m *Manager) Abort() {
	m.pending, m.open = nil, false
}

// Undo restores the most recent undo step, saving the current state for
// redo. It reports false when there is nothing to undo.
func (m *Manager) Undo() (bool, error) {
	return m.step(&m.undo, &m.redo)
}

// Redo is the inverse of Undo.
func (m *Manager) Redo() (bool, error) {
	return m.step(&m.redo, &m.undo)
}

func (m *Manager) step(from, to *[][]byte) (bool, error) {
	if len(*from) == 0 {
		return false, nil
	}
	m.Abort()

	current, err := m.target.Capture()
	if err != nil {
		return false, fmt.Errorf("capture current state: %w", err)
	}
	state := (*from)[len(*from)-1]
	if err := m.target.Apply(state); err != nil {
		return false, fmt.Errorf("restore snapshot: %w", err)
	}
	*from = (*from)[:len(*from)-1]
	*to = push(*to, current)
	return true, nil
}

// Clear drops both stacks and any open transaction.
func (m *Manager) Clear() {
	m.undo, m.redo = nil, nil
	m.Abort()
}

func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (m *Manager) Depth() (undo, redo int) {
	return len(m.undo), len(m.redo)
}

func push(stack [][]byte, state []byte) [][]byte {
	stack = append(stack, state)
	if len(stack) > MaxDepth {
		stack = append(stack[:0:0], stack[len(stack)-MaxDepth:]...)
	}
	return stack
}
