package ledger

import "sync"

// DefaultHistoryCapacity bounds the undo stack when no capacity is given.
const DefaultHistoryCapacity = 50

// Command is an execute/undo pair. The history never inspects what a
// command does; any mutation with a compensating inverse can be recorded.
type Command struct {
	Description string
	Execute     func() error
	Undo        func() error
}

// History is a bounded undo/redo stack of commands. Executing a new
// command discards any not-yet-redone future, exactly like an editor's
// undo buffer.
type History struct {
	mu       sync.Mutex
	entries  []Command
	cursor   int // number of entries currently applied
	capacity int
}

// NewHistory creates a history with the given capacity; zero or negative
// means DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// Do executes a command and records it. Entries beyond the current cursor
// (undone commands awaiting redo) are discarded first; if the command
// fails nothing is recorded.
func (h *History) Do(cmd Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := cmd.Execute(); err != nil {
		return err
	}

	h.entries = append(h.entries[:h.cursor], cmd)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity:]
	}
	h.cursor = len(h.entries)
	return nil
}

// Undo reverts the most recent applied command. At the bottom of the
// stack it is a no-op and returns false.
func (h *History) Undo() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor == 0 {
		return false, nil
	}
	cmd := h.entries[h.cursor-1]
	if err := cmd.Undo(); err != nil {
		return false, err
	}
	h.cursor--
	return true, nil
}

// Redo re-applies the next undone command. At the top of the stack it is
// a no-op and returns false.
func (h *History) Redo() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor >= len(h.entries) {
		return false, nil
	}
	cmd := h.entries[h.cursor]
	if err := cmd.Execute(); err != nil {
		return false, err
	}
	h.cursor++
	return true, nil
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.entries)
}

// LastDescription returns the description of the command Undo would
// revert, or "" at the bottom of the stack.
func (h *History) LastDescription() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor == 0 {
		return ""
	}
	return h.entries[h.cursor-1].Description
}
