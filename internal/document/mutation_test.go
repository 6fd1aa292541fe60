package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piuma/internal/domain"
	"piuma/internal/undo"
)

func TestCreateChildInEmptyRoot(t *testing.T) {
	d := newTestDocument()
	rec := &recorder{}
	d.Listen(rec)

	index, err := d.Root().CreateChild(KindFolder)
	require.NoError(t, err)

	assert.Equal(t, 0, index)
	child := d.Root().Child(0)
	require.NotNil(t, child)
	assert.Equal(t, "New Folder", child.Name())
	assert.Same(t, d.Root(), child.Parent())
	assert.Same(t, d, child.Document())
	assert.Equal(t, []string{"begin Requests", "inserted Requests [0]", "end Requests"}, rec.events)
	assert.Len(t, d.UndoManager().UndoStack(), 1)
	assert.Equal(t, "Create Folder", d.UndoActionName())
}

func TestCreateChildErrors(t *testing.T) {
	d := newTestDocument()
	kids := buildFolder(d, d.Root(), "request:ping")

	_, err := kids[0].CreateChild(KindRequest)
	assert.ErrorIs(t, err, ErrRequestHasChildren)

	_, err = d.Root().CreateChild(Kind("bogus"))
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.False(t, d.CanUndo())
}

func TestRemoveAndUndo(t *testing.T) {
	d := newTestDocument()
	kids := buildFolder(d, d.Root(), "folder:A", "request:B")
	buildFolder(d, kids[0], "request:A1")
	before := snapshot(d.Root())

	rec := &recorder{}
	d.Listen(rec)

	require.NoError(t, kids[0].Remove())
	assert.Equal(t, []string{"B"}, names(d.Root()))
	assert.Equal(t, []string{"begin Requests", "removed Requests [0]", "end Requests"}, rec.events)
	assert.Nil(t, kids[0].Parent())
	assert.Nil(t, kids[0].Document())
	assert.Nil(t, kids[0].Child(0).Document(), "removed subtree is detached")
	assert.Equal(t, "Delete Folder", d.UndoActionName())

	rec.reset()
	require.NoError(t, d.Undo())
	assert.Equal(t, []string{"A", "B"}, names(d.Root()))
	assert.Same(t, d.Root(), kids[0].Parent())
	assert.Same(t, d, kids[0].Document())
	assert.Same(t, d, kids[0].Child(0).Document())
	assert.Equal(t, before, snapshot(d.Root()))
	assert.Equal(t, []string{"begin Requests", "inserted Requests [0]", "end Requests"}, rec.events)
	require.NoError(t, d.Validate())

	assert.Equal(t, "Delete Folder", d.RedoActionName())
	require.NoError(t, d.Redo())
	assert.Equal(t, []string{"B"}, names(d.Root()))
	assert.True(t, d.CanUndo())
	assert.False(t, d.CanRedo())
}

func TestRemoveRootFails(t *testing.T) {
	d := newTestDocument()
	err := d.Root().Remove()
	assert.ErrorIs(t, err, ErrNoParent)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, d.CanUndo())
}

func TestInsertThenRemoveIsIdentity(t *testing.T) {
	d := newTestDocument()
	buildFolder(d, d.Root(), "request:a", "request:b")
	before := snapshot(d.Root())

	n := d.NewNode(KindRequest)
	require.NoError(t, d.Root().InsertChild(n, 1))
	assert.Equal(t, []string{"a", "New Request", "b"}, names(d.Root()))
	require.NoError(t, n.Remove())

	assert.Equal(t, before, snapshot(d.Root()))
}

func TestRenameEmptyIsRejected(t *testing.T) {
	d := newTestDocument()
	kids := buildFolder(d, d.Root(), "request:ping")
	rec := &recorder{}
	d.Listen(rec)

	err := kids[0].Rename("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyName)

	var nodeErr *NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Same(t, kids[0], nodeErr.Node)
	assert.Equal(t, "ping", kids[0].Name())
	assert.Empty(t, rec.events)
	assert.False(t, d.CanUndo())
}

func TestRenameAndUndo(t *testing.T) {
	d := newTestDocument()
	kids := buildFolder(d, d.Root(), "request:a", "request:b")
	rec := &recorder{}
	d.Listen(rec)

	require.NoError(t, kids[1].Rename("users"))
	assert.Equal(t, []string{"begin Requests", "updated Requests [1]", "end Requests"}, rec.events)
	assert.Equal(t, "Rename Request", d.UndoActionName())

	require.NoError(t, d.Undo())
	assert.Equal(t, "b", kids[1].Name())
	require.NoError(t, d.Redo())
	assert.Equal(t, "users", kids[1].Name())

	rec.reset()
	require.NoError(t, kids[1].Rename("users"))
	assert.Empty(t, rec.events, "same name is a no-op")
	assert.Len(t, d.UndoManager().UndoStack(), 1)
}

func TestRenameRootRecordsUndoWithoutDelta(t *testing.T) {
	d := newTestDocument()
	rec := &recorder{}
	d.Listen(rec)

	require.NoError(t, d.Root().Rename("Collection"))
	assert.Empty(t, rec.events)
	assert.Equal(t, "Rename Folder", d.UndoActionName())

	require.NoError(t, d.Undo())
	assert.Equal(t, "Requests", d.Root().Name())
}

func TestSetURL(t *testing.T) {
	d := newTestDocument()
	kids := buildFolder(d, d.Root(), "folder:api", "request:ping")
	rec := &recorder{}
	d.Listen(rec)

	assert.ErrorIs(t, kids[0].SetURL("http://x"), ErrFolderHasURL)
	require.NoError(t, kids[0].SetURL(""))
	assert.Empty(t, rec.events)

	require.NoError(t, kids[1].SetURL("https://example.com/ping"))
	assert.Equal(t, "https://example.com/ping", kids[1].URL())
	assert.Equal(t, []string{"begin Requests", "updated Requests [1]", "end Requests"}, rec.events)
	assert.Equal(t, "Edit URL", d.UndoActionName())

	require.NoError(t, d.Undo())
	assert.Empty(t, kids[1].URL())
}

func TestInsertPreconditions(t *testing.T) {
	d := newTestDocument()
	kids := buildFolder(d, d.Root(), "folder:outer", "request:leaf")
	inner := buildFolder(d, kids[0], "folder:inner")[0]
	before := snapshot(d.Root())
	rec := &recorder{}
	d.Listen(rec)

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"into request", func() error { return kids[1].AddChild(d.NewNode(KindRequest)) }, ErrRequestHasChildren},
		{"nil child", func() error { return kids[0].AddChild(nil) }, ErrNilChild},
		{"into itself", func() error { return kids[0].AddChild(kids[0]) }, ErrCycle},
		{"into descendant", func() error { return inner.AddChild(kids[0]) }, ErrCycle},
		{"root of another document", func() error { return kids[0].AddChild(New().Root()) }, ErrRootNode},
		{"index past end", func() error { return d.Root().InsertChild(d.NewNode(KindRequest), 3) }, ErrInvalidIndex},
		{"negative index", func() error { return d.Root().InsertChild(d.NewNode(KindRequest), -2) }, ErrInvalidIndex},
		{"reorder past end", func() error { return d.Root().InsertChild(kids[0], 2) }, ErrInvalidIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, snapshot(d.Root()))
			assert.Empty(t, rec.events)
			assert.False(t, d.CanUndo())
		})
	}
}

func TestInsertRejectsInvalidSubtree(t *testing.T) {
	d := newTestDocument()
	kids := buildFolder(d, d.Root(), "folder:outer", "request:leaf")
	other := newTestDocument()
	stranger := buildFolder(other, other.Root(), "request:stranger")[0]
	before := snapshot(d.Root())
	rec := &recorder{}
	d.Listen(rec)

	withChild := func(parent, child *Node) *Node {
		parent.children = append(parent.children, child)
		child.parent = parent
		return parent
	}

	tests := []struct {
		name  string
		child *Node
		want  error
	}{
		{"empty name", NewNode("x", KindRequest, ""), ErrEmptyName},
		{"unknown kind", NewNode("x", Kind("bogus"), "x"), ErrUnknownKind},
		{"empty id", NewNode("", KindRequest, "x"), ErrInvalidID},
		{"root id", NewNode(d.Root().ID(), KindRequest, "x"), ErrDuplicateID},
		{"sibling id", NewNode(kids[1].ID(), KindRequest, "x"), ErrDuplicateID},
		{"id taken deeper in subtree", withChild(NewNode("f", KindFolder, "f"), NewNode(kids[0].ID(), KindRequest, "x")), ErrDuplicateID},
		{"id repeated in subtree", withChild(NewNode("f", KindFolder, "f"), NewNode("f", KindRequest, "x")), ErrDuplicateID},
		{"invalid descendant", withChild(NewNode("f", KindFolder, "f"), NewNode("y", KindRequest, "")), ErrEmptyName},
		{"request with children", withChild(NewNode("q", KindRequest, "q"), NewNode("y", KindRequest, "y")), ErrRequestHasChildren},
		{"node of another document", stranger, ErrForeignNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := kids[0].AddChild(tt.child)
			assert.ErrorIs(t, err, tt.want)
			var nodeErr *NodeError
			assert.True(t, errors.As(err, &nodeErr))
			assert.Equal(t, before, snapshot(d.Root()))
			assert.Empty(t, rec.events)
			assert.False(t, d.CanUndo())
		})
	}

	assert.Same(t, other.Root(), stranger.Parent())
	_, err := d.Encode()
	assert.NoError(t, err)
}

func TestMovedNodeIsNotCheckedAgainstItself(t *testing.T) {
	d := newTestDocument()
	folders := buildFolder(d, d.Root(), "folder:a", "folder:b")
	moved := buildFolder(d, folders[0], "request:r")[0]

	require.NoError(t, folders[1].AddChild(moved))
	require.NoError(t, d.Undo())
	assert.Same(t, folders[0], moved.Parent())

	require.NoError(t, moved.Remove())
	require.NoError(t, d.Undo(), "a removed subtree goes back in")
	assert.Same(t, folders[0], moved.Parent())
}

func TestUndoLevelsSurviveUndoManagerOption(t *testing.T) {
	m := undo.NewManager[Action](0, nil)
	d := newTestDocument(WithUndoLevels(2), WithUndoManager(m))
	assert.Same(t, m, d.UndoManager())
	for range 3 {
		_, err := d.Root().CreateChild(KindRequest)
		require.NoError(t, err)
	}
	assert.Len(t, m.UndoStack(), 2)
}

func TestInvalidIndexErrorReportsBounds(t *testing.T) {
	d := newTestDocument()
	buildFolder(d, d.Root(), "request:a")

	err := d.Root().InsertChild(d.NewNode(KindRequest), 5)
	var nodeErr *NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, 5, nodeErr.Index)
	assert.Equal(t, 1, nodeErr.Len)
	assert.Contains(t, nodeErr.Error(), "5 not in [0, 1]")
}

func TestMoveBetweenFolders(t *testing.T) {
	d := newTestDocument()
	folders := buildFolder(d, d.Root(), "folder:P1", "folder:P2")
	p1, p2 := folders[0], folders[1]
	moved := buildFolder(d, p1, "request:x", "request:y", "request:N")[2]
	buildFolder(d, p2, "request:z")
	before := snapshot(d.Root())

	rec := &recorder{}
	d.Listen(rec)

	require.NoError(t, p2.InsertChild(moved, 0))
	assert.Equal(t, []string{"x", "y"}, names(p1))
	assert.Equal(t, []string{"N", "z"}, names(p2))
	assert.Same(t, p2, moved.Parent())
	assert.Equal(t, []string{
		"begin P1", "removed P1 [2]",
		"begin P2", "inserted P2 [0]",
		"end P2", "end P1",
	}, rec.events)
	assert.Len(t, d.UndoManager().UndoStack(), 1)
	assert.Equal(t, "Move Request", d.UndoActionName())

	rec.reset()
	require.NoError(t, d.Undo())
	assert.Equal(t, before, snapshot(d.Root()))
	assert.Equal(t, 2, moved.Index())
	assert.Equal(t, []string{
		"begin P2", "removed P2 [0]",
		"begin P1", "inserted P1 [2]",
		"end P1", "end P2",
	}, rec.events)

	require.NoError(t, d.Redo())
	assert.Equal(t, []string{"N", "z"}, names(p2))
}

func TestReorderWithinFolder(t *testing.T) {
	d := newTestDocument()
	kids := buildFolder(d, d.Root(), "request:a", "request:b", "request:c")
	rec := &recorder{}
	d.Listen(rec)

	require.NoError(t, d.Root().InsertChild(kids[0], 0))
	assert.Empty(t, rec.events, "same position is a no-op")
	assert.False(t, d.CanUndo())

	require.NoError(t, d.Root().InsertChild(kids[0], End))
	assert.Equal(t, []string{"b", "c", "a"}, names(d.Root()))
	assert.Equal(t, []string{"begin Requests", "moved Requests 0->2", "end Requests"}, rec.events)

	rec.reset()
	require.NoError(t, d.Undo())
	assert.Equal(t, []string{"a", "b", "c"}, names(d.Root()))
	assert.Equal(t, []string{"begin Requests", "moved Requests 2->0", "end Requests"}, rec.events)
}

func TestFolderObserverAndListeners(t *testing.T) {
	d := newTestDocument()
	folder := buildFolder(d, d.Root(), "folder:api")[0]

	own := &recorder{}
	Attach(own, folder)
	all := &recorder{}
	remove := d.Listen(all)

	_, err := folder.CreateChild(KindRequest)
	require.NoError(t, err)
	_, err = d.Root().CreateChild(KindRequest)
	require.NoError(t, err)

	assert.Equal(t, []string{"begin api", "inserted api [0]", "end api"}, own.events)
	assert.Equal(t, []string{
		"begin api", "inserted api [0]", "end api",
		"begin Requests", "inserted Requests [1]", "end Requests",
	}, all.events)

	remove()
	Attach(nil, folder)
	own.reset()
	all.reset()
	require.NoError(t, folder.Child(0).Rename("list"))
	assert.Empty(t, own.events)
	assert.Empty(t, all.events)
}

func TestDetachedTreeMutations(t *testing.T) {
	d := newTestDocument()
	folder := NewNode("f", KindFolder, "loose")
	require.NoError(t, folder.AddChild(NewNode("r", KindRequest, "req")))
	require.NoError(t, folder.Child(0).Rename("renamed"))
	assert.Nil(t, folder.Child(0).Document())

	require.NoError(t, d.Root().AddChild(folder))
	assert.Same(t, d, folder.Child(0).Document())
	assert.Len(t, d.UndoManager().UndoStack(), 1)
	assert.Equal(t, "Create Folder", d.UndoActionName())

	require.NoError(t, d.Undo())
	assert.False(t, d.Root().HasChildren())
	assert.Nil(t, folder.Document())
}

func TestGroupedEditsUndoAsOneStep(t *testing.T) {
	d := newTestDocument()
	before := snapshot(d.Root())

	d.BeginGrouping()
	_, err := d.Root().CreateChild(KindFolder)
	require.NoError(t, err)
	index, err := d.Root().CreateChild(KindRequest)
	require.NoError(t, err)
	req := d.Root().Child(index)
	require.NoError(t, req.Rename("health"))
	require.NoError(t, req.SetURL("https://example.com/health"))
	d.SetActionName("Add Samples")
	require.NoError(t, d.EndGrouping())
	after := snapshot(d.Root())

	assert.Len(t, d.UndoManager().UndoStack(), 1)
	assert.Equal(t, "Undo Add Samples", d.UndoMenuItemTitle())

	require.NoError(t, d.Undo())
	assert.Equal(t, before, snapshot(d.Root()))
	assert.Equal(t, "Redo Add Samples", d.RedoMenuItemTitle())
	assert.Equal(t, "Undo", d.UndoMenuItemTitle())

	require.NoError(t, d.Redo())
	assert.Equal(t, after, snapshot(d.Root()))
}

func TestUndoWhileGroupingIsOpen(t *testing.T) {
	d := newTestDocument()
	_, err := d.Root().CreateChild(KindRequest)
	require.NoError(t, err)

	d.BeginGrouping()
	assert.Error(t, d.Undo())
	require.NoError(t, d.EndGrouping())
	assert.Error(t, d.EndGrouping())
	require.NoError(t, d.Undo())
	assert.Error(t, d.Undo())
}

func TestUndoLevelsOption(t *testing.T) {
	d := newTestDocument(WithUndoLevels(2))
	for range 3 {
		_, err := d.Root().CreateChild(KindRequest)
		require.NoError(t, err)
	}
	require.NoError(t, d.Undo())
	require.NoError(t, d.Undo())
	assert.False(t, d.CanUndo())
	assert.Equal(t, 1, d.Root().NumChildren())
}

func TestUndoRedoFullHistory(t *testing.T) {
	d := newTestDocument()
	kids := buildFolder(d, d.Root(), "folder:a", "folder:b")
	child := buildFolder(d, kids[0], "request:r")[0]
	before := snapshot(d.Root())

	require.NoError(t, kids[1].AddChild(child))
	require.NoError(t, child.Rename("moved"))
	require.NoError(t, kids[1].Remove())
	after := snapshot(d.Root())

	for d.CanUndo() {
		require.NoError(t, d.Undo())
	}
	assert.Equal(t, before, snapshot(d.Root()))
	require.NoError(t, d.Validate())

	for d.CanRedo() {
		require.NoError(t, d.Redo())
	}
	assert.Equal(t, after, snapshot(d.Root()))
}
