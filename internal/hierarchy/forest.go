package hierarchy

import "context"

// Forest is an arena of nodes addressed by identifier, with the parent stored
// as an optional identifier rather than a live reference. The children index
// is rebuilt on every Add, so reads never touch mutable state and owners can
// guard the forest with a plain read lock.
//
// Forest is not synchronized; owners (the in-memory stores) guard it with
// their own locks.
type Forest[ID comparable] struct {
	parents  map[ID]*ID
	children map[ID][]ID
}

func NewForest[ID comparable]() *Forest[ID] {
	return &Forest[ID]{
		parents:  make(map[ID]*ID),
		children: make(map[ID][]ID),
	}
}

// Add registers a node with an optional parent. Re-adding a node moves it
// under the new parent.
func (f *Forest[ID]) Add(id ID, parent *ID) {
	if parent != nil {
		p := *parent
		f.parents[id] = &p
	} else {
		f.parents[id] = nil
	}
	f.rebuild()
}

func (f *Forest[ID]) Len() int { return len(f.parents) }

// Parent returns the parent of id, or nil for roots and unknown nodes.
func (f *Forest[ID]) Parent(id ID) *ID {
	p := f.parents[id]
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (f *Forest[ID]) rebuild() {
	children := make(map[ID][]ID, len(f.parents))
	for id, parent := range f.parents {
		if parent != nil {
			children[*parent] = append(children[*parent], id)
		}
	}
	f.children = children
}

// Exists implements ChildSource.
func (f *Forest[ID]) Exists(_ context.Context, id ID) (bool, error) {
	_, ok := f.parents[id]
	return ok, nil
}

// Children implements ChildSource.
func (f *Forest[ID]) Children(_ context.Context, id ID) ([]ID, error) {
	kids := f.children[id]
	out := make([]ID, len(kids))
	copy(out, kids)
	return out, nil
}
