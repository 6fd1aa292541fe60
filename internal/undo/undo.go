// Package undo provides an undo/redo manager that stores inverse actions
// as plain values. The manager never runs an action itself; callers pass an
// apply function to Undo and Redo that interprets the stored actions.
package undo

import (
	"errors"
	"log/slog"
)

var (
	// ErrNothingToUndo is returned by Undo when the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by Redo when the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrGroupingOpen is returned by Undo and Redo while a group begun with
	// BeginGrouping has not been ended yet.
	ErrGroupingOpen = errors.New("undo grouping is still open")

	// ErrReplaying is returned when Undo or Redo is called from inside an
	// apply function.
	ErrReplaying = errors.New("undo manager is already replaying")

	// ErrNoGroup is returned by EndGrouping without a matching BeginGrouping.
	ErrNoGroup = errors.New("no open undo grouping")
)

// Group is one user-visible undo step: the inverse actions recorded
// between BeginGrouping and EndGrouping (or a single recorded action),
// in recording order.
type Group[A any] struct {
	Name    string
	Actions []A
}

type mode int

const (
	idle mode = iota
	undoing
	redoing
)

// Manager keeps the undo and redo stacks.
//
// While Undo or Redo is running, actions recorded by the apply function
// are not treated as new user actions: they are collected into the group
// that becomes the matching entry on the opposite stack, and the redo
// stack is left alone.
type Manager[A any] struct {
	undos []*Group[A]
	redos []*Group[A]

	open  *Group[A]
	depth int

	mode    mode
	pending *Group[A]

	levels int
	logger *slog.Logger
}

// NewManager returns an empty manager keeping at most levels undo steps.
// Zero levels means unlimited history. A nil logger discards output.
func NewManager[A any](levels int, logger *slog.Logger) *Manager[A] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if levels < 0 {
		levels = 0
	}
	return &Manager[A]{levels: levels, logger: logger}
}

// Record registers the inverse of a mutation that just happened.
// Outside a grouping it becomes its own undo step named name.
func (m *Manager[A]) Record(a A, name string) {
	switch {
	case m.mode != idle:
		m.pending.Actions = append(m.pending.Actions, a)
	case m.depth > 0:
		m.open.Actions = append(m.open.Actions, a)
		if m.open.Name == "" {
			m.open.Name = name
		}
	default:
		m.pushUndo(&Group[A]{Name: name, Actions: []A{a}})
		m.redos = nil
	}
}

// BeginGrouping starts collecting recorded actions into one undo step.
// Groupings nest; only the outermost EndGrouping closes the step.
func (m *Manager[A]) BeginGrouping() {
	if m.mode != idle {
		return
	}
	if m.depth == 0 {
		m.open = &Group[A]{}
	}
	m.depth++
}

// EndGrouping closes the innermost grouping. Closing the outermost one
// pushes the collected actions as a single undo step; an empty grouping
// leaves the stacks untouched.
func (m *Manager[A]) EndGrouping() error {
	if m.mode != idle {
		return nil
	}
	if m.depth == 0 {
		return ErrNoGroup
	}
	m.depth--
	if m.depth > 0 {
		return nil
	}
	g := m.open
	m.open = nil
	if len(g.Actions) == 0 {
		return nil
	}
	m.pushUndo(g)
	m.redos = nil
	m.logger.Debug("undo group closed", "action", g.Name, "actions", len(g.Actions))
	return nil
}

// SetActionName names the currently open grouping, or the most recent
// undo step when no grouping is open.
func (m *Manager[A]) SetActionName(name string) {
	switch {
	case m.depth > 0:
		m.open.Name = name
	case len(m.undos) > 0:
		m.undos[len(m.undos)-1].Name = name
	}
}

// GroupingLevel returns how many groupings are currently open.
func (m *Manager[A]) GroupingLevel() int { return m.depth }

// IsUndoing reports whether an Undo apply function is running.
func (m *Manager[A]) IsUndoing() bool { return m.mode == undoing }

// IsRedoing reports whether a Redo apply function is running.
func (m *Manager[A]) IsRedoing() bool { return m.mode == redoing }

// CanUndo reports whether there is a step to undo.
func (m *Manager[A]) CanUndo() bool { return len(m.undos) > 0 }

// CanRedo reports whether there is a step to redo.
func (m *Manager[A]) CanRedo() bool { return len(m.redos) > 0 }

// UndoActionName returns the name of the step Undo would revert.
func (m *Manager[A]) UndoActionName() string {
	if len(m.undos) == 0 {
		return ""
	}
	return m.undos[len(m.undos)-1].Name
}

// RedoActionName returns the name of the step Redo would reapply.
func (m *Manager[A]) RedoActionName() string {
	if len(m.redos) == 0 {
		return ""
	}
	return m.redos[len(m.redos)-1].Name
}

// Undo pops the most recent undo step and calls apply for each of its
// actions, newest first. The inverses recorded while applying form the
// matching redo step, which keeps the original step name.
func (m *Manager[A]) Undo(apply func(A) error) error {
	if err := m.checkReplay(); err != nil {
		return err
	}
	if len(m.undos) == 0 {
		return ErrNothingToUndo
	}
	g := m.undos[len(m.undos)-1]
	m.undos = m.undos[:len(m.undos)-1]

	err := m.replay(undoing, g, apply)
	if len(m.pending.Actions) > 0 {
		m.redos = append(m.redos, m.pending)
	}
	m.pending = nil
	if err != nil {
		m.logger.Error("undo failed", "action", g.Name, "error", err)
		return err
	}
	m.logger.Debug("undo", "action", g.Name)
	return nil
}

// Redo pops the most recent redo step and applies it the same way Undo
// does, pushing the collected inverses back onto the undo stack.
func (m *Manager[A]) Redo(apply func(A) error) error {
	if err := m.checkReplay(); err != nil {
		return err
	}
	if len(m.redos) == 0 {
		return ErrNothingToRedo
	}
	g := m.redos[len(m.redos)-1]
	m.redos = m.redos[:len(m.redos)-1]

	err := m.replay(redoing, g, apply)
	if len(m.pending.Actions) > 0 {
		m.pushUndo(m.pending)
	}
	m.pending = nil
	if err != nil {
		m.logger.Error("redo failed", "action", g.Name, "error", err)
		return err
	}
	m.logger.Debug("redo", "action", g.Name)
	return nil
}

func (m *Manager[A]) checkReplay() error {
	if m.mode != idle {
		return ErrReplaying
	}
	if m.depth > 0 {
		return ErrGroupingOpen
	}
	return nil
}

func (m *Manager[A]) replay(md mode, g *Group[A], apply func(A) error) error {
	m.mode = md
	m.pending = &Group[A]{Name: g.Name}
	defer func() { m.mode = idle }()
	for i := len(g.Actions) - 1; i >= 0; i-- {
		if err := apply(g.Actions[i]); err != nil {
			return err
		}
	}
	return nil
}

// pushUndo appends g and trims the oldest steps beyond the level limit.
func (m *Manager[A]) pushUndo(g *Group[A]) {
	m.undos = append(m.undos, g)
	if m.levels > 0 && len(m.undos) > m.levels {
		drop := len(m.undos) - m.levels
		clear(m.undos[:drop])
		m.undos = m.undos[drop:]
	}
}

// Levels returns the maximum number of undo steps kept, 0 meaning unlimited.
func (m *Manager[A]) Levels() int { return m.levels }

// SetLevels changes the history limit, trimming the oldest steps if needed.
func (m *Manager[A]) SetLevels(levels int) {
	if levels < 0 {
		levels = 0
	}
	m.levels = levels
	if levels > 0 && len(m.undos) > levels {
		m.undos = m.undos[len(m.undos)-levels:]
	}
}

// RemoveAll clears both stacks and any open grouping.
func (m *Manager[A]) RemoveAll() {
	m.undos = nil
	m.redos = nil
	m.open = nil
	m.depth = 0
}

// UndoStack returns a copy of the undo steps, oldest first.
func (m *Manager[A]) UndoStack() []Group[A] { return copyStack(m.undos) }

// RedoStack returns a copy of the redo steps, oldest first.
func (m *Manager[A]) RedoStack() []Group[A] { return copyStack(m.redos) }

func copyStack[A any](s []*Group[A]) []Group[A] {
	out := make([]Group[A], len(s))
	for i, g := range s {
		out[i] = Group[A]{Name: g.Name, Actions: append([]A(nil), g.Actions...)}
	}
	return out
}
