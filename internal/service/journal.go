package service

import (
	"slices"

	"piuma/internal/document"
	"piuma/internal/domain/models"
)

// journalLimit is the number of change entries kept per open document.
const journalLimit = 1000

// journal listens to an open document and records every delta it sees, so
// clients can poll for incremental updates instead of refetching the tree.
type journal struct {
	entries []models.Change
	seq     uint64
	batch   uint64
	depth   int
}

var _ document.Observer = (*journal)(nil)

func (j *journal) BeginUpdates(*document.Node) {
	if j.depth == 0 {
		j.batch++
	}
	j.depth++
}

func (j *journal) EndUpdates(*document.Node) {
	j.depth--
}

func (j *journal) ChildrenRemoved(folder *document.Node, indexes []int) {
	j.add(folder, models.ChangeRemoved, indexes)
}

func (j *journal) ChildrenInserted(folder *document.Node, indexes []int) {
	j.add(folder, models.ChangeInserted, indexes)
}

func (j *journal) ChildrenUpdated(folder *document.Node, indexes []int) {
	j.add(folder, models.ChangeUpdated, indexes)
}

func (j *journal) ChildMoved(folder *document.Node, from, to int) {
	c := j.add(folder, models.ChangeMoved, nil)
	c.From, c.To = &from, &to
}

func (j *journal) add(folder *document.Node, op models.ChangeOp, indexes []int) *models.Change {
	j.seq++
	j.entries = append(j.entries, models.Change{
		Seq:      j.seq,
		Batch:    j.batch,
		FolderID: folder.ID(),
		Op:       op,
		Indexes:  slices.Clone(indexes),
	})
	if len(j.entries) > journalLimit {
		j.entries = slices.Delete(j.entries, 0, len(j.entries)-journalLimit)
	}
	return &j.entries[len(j.entries)-1]
}

// since returns the entries after seq. ok is false when entries after seq
// were already trimmed and the client has to refetch the whole tree.
func (j *journal) since(seq uint64) (changes []models.Change, ok bool) {
	if seq >= j.seq {
		return []models.Change{}, true
	}
	if len(j.entries) == 0 || j.entries[0].Seq > seq+1 {
		return nil, false
	}
	i, _ := slices.BinarySearchFunc(j.entries, seq+1, func(c models.Change, target uint64) int {
		switch {
		case c.Seq < target:
			return -1
		case c.Seq > target:
			return 1
		}
		return 0
	})
	return slices.Clone(j.entries[i:]), true
}
