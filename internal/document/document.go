package document

import (
	"log/slog"

	"github.com/google/uuid"

	"piuma/internal/undo"
)

// FileExtension is the extension of saved documents.
const FileExtension = ".piuma"

// IDGenerator returns a new process-wide unique node id.
type IDGenerator func() string

// Document owns a root folder and the undo history shared by every node in
// it. It is the unit of serialization.
type Document struct {
	root      *Node
	undo      *undo.Manager[Action]
	newID     IDGenerator
	namer     Namer
	listeners Broadcaster
	logger    *slog.Logger

	// undoLevels is applied once every option has run; -1 leaves the
	// manager's own limit.
	undoLevels int
}

// Option configures a Document.
type Option func(*Document)

// WithIDGenerator replaces the default uuid-based id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(d *Document) { d.newID = gen }
}

// WithNamer replaces the built-in English names.
func WithNamer(namer Namer) Option {
	return func(d *Document) { d.namer = namer }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) { d.logger = logger }
}

// WithUndoLevels limits the undo history; 0 keeps everything.
func WithUndoLevels(levels int) Option {
	return func(d *Document) { d.undoLevels = levels }
}

// WithUndoManager makes the document record into an existing manager.
func WithUndoManager(m *undo.Manager[Action]) Option {
	return func(d *Document) {
		if m != nil {
			d.undo = m
		}
	}
}

func newDocument(opts []Option) *Document {
	d := &Document{
		newID:  uuid.NewString,
		namer:  EnglishNamer{},
		logger: slog.New(slog.DiscardHandler),
		undo:   undo.NewManager[Action](0, nil),

		undoLevels: -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.undoLevels >= 0 {
		d.undo.SetLevels(d.undoLevels)
	}
	return d
}

// New returns a document whose root is an empty folder with the default
// root name.
func New(opts ...Option) *Document {
	d := newDocument(opts)
	d.root = &Node{id: d.newID(), kind: KindFolder, name: d.namer.RootName(), document: d}
	return d
}

// Root returns the root folder. It can never be removed.
func (d *Document) Root() *Node { return d.root }

// UndoManager returns the undo history.
func (d *Document) UndoManager() *undo.Manager[Action] { return d.undo }

// Namer returns the names provider.
func (d *Document) Namer() Namer { return d.namer }

// NewNode returns a detached node of the given kind with a fresh id and
// the default name for its kind. A nil document uses the built-in defaults.
func (d *Document) NewNode(kind Kind) *Node {
	if d == nil {
		return NewNode(uuid.NewString(), kind, EnglishNamer{}.DefaultName(kind))
	}
	return NewNode(d.newID(), kind, d.namer.DefaultName(kind))
}

// Validate validates the whole tree, anchoring the root to this document.
func (d *Document) Validate() error {
	d.root.parent = nil
	d.root.document = d
	if d.root.kind != KindFolder {
		return nodeError(ErrRootNotFolder, d.root)
	}
	return Validate(d.root)
}

// Find returns the node with the given id, or nil.
func (d *Document) Find(id string) *Node {
	var found *Node
	d.root.Walk(func(n *Node) bool {
		if found != nil {
			return Break
		}
		if n.id == id {
			found = n
			return Break
		}
		return Continue
	})
	return found
}

// Listen registers o to receive the notifications of every folder in the
// document. The returned function unregisters it.
func (d *Document) Listen(o Observer) (remove func()) {
	d.listeners.Add(o)
	return func() { d.listeners.Remove(o) }
}

// Undo reverts the most recent undo step.
func (d *Document) Undo() error { return d.undo.Undo(replay) }

// Redo reapplies the most recently undone step.
func (d *Document) Redo() error { return d.undo.Redo(replay) }

// CanUndo reports whether Undo has anything to revert.
func (d *Document) CanUndo() bool { return d.undo.CanUndo() }

// CanRedo reports whether Redo has anything to reapply.
func (d *Document) CanRedo() bool { return d.undo.CanRedo() }

// UndoActionName returns the name of the step Undo would revert.
func (d *Document) UndoActionName() string { return d.undo.UndoActionName() }

// RedoActionName returns the name of the step Redo would reapply.
func (d *Document) RedoActionName() string { return d.undo.RedoActionName() }

// UndoMenuItemTitle returns a menu label such as "Undo Create Request".
func (d *Document) UndoMenuItemTitle() string { return d.namer.UndoTitle(d.UndoActionName()) }

// RedoMenuItemTitle returns a menu label such as "Redo Delete Folder".
func (d *Document) RedoMenuItemTitle() string { return d.namer.RedoTitle(d.RedoActionName()) }

// BeginGrouping starts a composite edit that undoes as one step.
func (d *Document) BeginGrouping() { d.undo.BeginGrouping() }

// EndGrouping closes the composite edit started by BeginGrouping.
func (d *Document) EndGrouping() error { return d.undo.EndGrouping() }

// SetActionName names the open composite edit.
func (d *Document) SetActionName(name string) { d.undo.SetActionName(name) }

// record stores the inverse of a mutation. Detached trees have no
// document and therefore no history.
func (d *Document) record(a Action, verb Verb, kind Kind) {
	if d == nil {
		return
	}
	d.undo.Record(a, d.namer.ActionName(verb, kind))
}

func (d *Document) logDebug(msg string, args ...any) {
	if d == nil {
		return
	}
	d.logger.Debug(msg, args...)
}
