package document

import "slices"

// Observer receives change notifications for the children of a folder.
//
// Every structural change is delivered between BeginUpdates and EndUpdates
// for the folder whose children changed; the model is already updated when
// the delta methods run. Indexes refer to positions in that folder's
// children: removals use positions before the change, insertions and
// updates use positions after it.
type Observer interface {
	BeginUpdates(folder *Node)
	ChildrenRemoved(folder *Node, indexes []int)
	ChildrenInserted(folder *Node, indexes []int)
	ChildrenUpdated(folder *Node, indexes []int)
	ChildMoved(folder *Node, from, to int)
	EndUpdates(folder *Node)
}

// BaseObserver implements every Observer method as a no-op. Embed it to
// implement only the notifications you need.
type BaseObserver struct{}

func (BaseObserver) BeginUpdates(*Node)            {}
func (BaseObserver) ChildrenRemoved(*Node, []int)  {}
func (BaseObserver) ChildrenInserted(*Node, []int) {}
func (BaseObserver) ChildrenUpdated(*Node, []int)  {}
func (BaseObserver) ChildMoved(*Node, int, int)    {}
func (BaseObserver) EndUpdates(*Node)              {}

// Broadcaster fans every notification out to a list of observers, in the
// order they were added.
type Broadcaster struct {
	observers []Observer
}

// Add appends o to the broadcast list.
func (b *Broadcaster) Add(o Observer) {
	b.observers = append(b.observers, o)
}

// Remove drops o from the broadcast list.
func (b *Broadcaster) Remove(o Observer) {
	b.observers = slices.DeleteFunc(b.observers, func(e Observer) bool { return e == o })
}

// Len returns the number of observers.
func (b *Broadcaster) Len() int { return len(b.observers) }

func (b *Broadcaster) BeginUpdates(folder *Node) {
	for _, o := range b.observers {
		o.BeginUpdates(folder)
	}
}

func (b *Broadcaster) ChildrenRemoved(folder *Node, indexes []int) {
	for _, o := range b.observers {
		o.ChildrenRemoved(folder, indexes)
	}
}

func (b *Broadcaster) ChildrenInserted(folder *Node, indexes []int) {
	for _, o := range b.observers {
		o.ChildrenInserted(folder, indexes)
	}
}

func (b *Broadcaster) ChildrenUpdated(folder *Node, indexes []int) {
	for _, o := range b.observers {
		o.ChildrenUpdated(folder, indexes)
	}
}

func (b *Broadcaster) ChildMoved(folder *Node, from, to int) {
	for _, o := range b.observers {
		o.ChildMoved(folder, from, to)
	}
}

func (b *Broadcaster) EndUpdates(folder *Node) {
	for _, o := range b.observers {
		o.EndUpdates(folder)
	}
}

// batch is the envelope every mutation notifies through. It opens exactly
// one BeginUpdates per touched folder and closes them in reverse order.
type batch struct {
	open []*Node
}

// targets returns who hears about changes to folder: its own observer and
// the listeners of its document.
func targets(folder *Node) []Observer {
	var out []Observer
	if folder.observer != nil {
		out = append(out, folder.observer)
	}
	if d := folder.document; d != nil && d.listeners.Len() > 0 {
		out = append(out, &d.listeners)
	}
	return out
}

func (b *batch) touch(folder *Node) []Observer {
	ts := targets(folder)
	if !slices.Contains(b.open, folder) {
		b.open = append(b.open, folder)
		for _, o := range ts {
			o.BeginUpdates(folder)
		}
	}
	return ts
}

func (b *batch) removed(folder *Node, index int) {
	for _, o := range b.touch(folder) {
		o.ChildrenRemoved(folder, []int{index})
	}
}

func (b *batch) inserted(folder *Node, index int) {
	for _, o := range b.touch(folder) {
		o.ChildrenInserted(folder, []int{index})
	}
}

func (b *batch) updated(folder *Node, index int) {
	for _, o := range b.touch(folder) {
		o.ChildrenUpdated(folder, []int{index})
	}
}

func (b *batch) moved(folder *Node, from, to int) {
	for _, o := range b.touch(folder) {
		o.ChildMoved(folder, from, to)
	}
}

func (b *batch) close() {
	for i := len(b.open) - 1; i >= 0; i-- {
		folder := b.open[i]
		for _, o := range targets(folder) {
			o.EndUpdates(folder)
		}
	}
	b.open = nil
}
