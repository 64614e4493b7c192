// Package tree provides the generational slotmap-style arena that backs the
// element tree and the render-object tree. Nodes are addressed by a dense
// NodeID rather than a pointer, so parent/child/listener edges survive
// serialization-free moves and deletions are detectable by generation
// mismatch at next use, the same discipline original_source's
// util::tree::TreeNode<K, V> applies via Option<V>-as-borrow-sentinel.
package tree

import "fmt"

// NodeID addresses a node in a Tree. The zero value is never issued by
// Insert and is used as the "no node" sentinel (akin to a null parent).
type NodeID struct {
	index underlyingIndex
	gen   uint32
}

type underlyingIndex = uint32

// IsNil reports whether id is the zero NodeID.
func (id NodeID) IsNil() bool {
	return id.gen == 0 && id.index == 0
}

func (id NodeID) String() string {
	return fmt.Sprintf("Node(%d#%d)", id.index, id.gen)
}

// ErrInUse is returned when a node is mutated while it is borrowed
// elsewhere, i.e. it has been taken out of storage and not yet returned.
// Spec: "Tree-in-use (attempted mutation of a node currently borrowed) —
// fatal, signals programmer error."
type ErrInUse struct {
	ID NodeID
}

func (e *ErrInUse) Error() string {
	return fmt.Sprintf("node %s is currently in use", e.ID)
}

// ErrStale is returned when a NodeID refers to a slot that has since been
// reused by a different node (a generation mismatch).
type ErrStale struct {
	ID NodeID
}

func (e *ErrStale) Error() string {
	return fmt.Sprintf("node %s no longer exists", e.ID)
}

type slot[V any] struct {
	gen      uint32
	occupied bool
	borrowed bool
	value    V
	parent   NodeID
	children []NodeID
	depth    int
}

// Tree is a keyed, depth-ranked arena of values of type V with parent/child
// links and in-use borrow tracking. It is the "Tree container" component:
// component #1 of the reactor (§2).
type Tree[V any] struct {
	slots     []slot[V]
	freeList  []underlyingIndex
	liveCount int
}

// New creates an empty Tree.
func New[V any]() *Tree[V] {
	return &Tree[V]{}
}

// Len returns the number of live (non-deleted) nodes.
func (t *Tree[V]) Len() int {
	return t.liveCount
}

func (t *Tree[V]) resolve(id NodeID) (*slot[V], error) {
	if id.IsNil() || int(id.index) >= len(t.slots) {
		return nil, &ErrStale{ID: id}
	}
	s := &t.slots[id.index]
	if !s.occupied || s.gen != id.gen {
		return nil, &ErrStale{ID: id}
	}
	return s, nil
}

// Insert reserves a new node under parent (the zero NodeID for a root) with
// the given initial value, and returns its id. The node's depth is the
// parent's depth + 1, or 0 for a root.
func (t *Tree[V]) Insert(parent NodeID, value V) NodeID {
	depth := 0
	if !parent.IsNil() {
		if p, err := t.resolve(parent); err == nil {
			depth = p.depth + 1
		}
	}

	var idx underlyingIndex
	if n := len(t.freeList); n > 0 {
		idx = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		gen := t.slots[idx].gen + 1
		t.slots[idx] = slot[V]{gen: gen, occupied: true, value: value, parent: parent, depth: depth}
	} else {
		idx = underlyingIndex(len(t.slots))
		t.slots = append(t.slots, slot[V]{gen: 1, occupied: true, value: value, parent: parent, depth: depth})
	}

	id := NodeID{index: idx, gen: t.slots[idx].gen}
	t.liveCount++

	if !parent.IsNil() {
		if p, err := t.resolve(parent); err == nil {
			p.children = append(p.children, id)
		}
	}
	return id
}

// Remove deletes a node. It does not recurse into children; callers (the
// reactor) are expected to remove a subtree in post-order themselves so
// that each element's Unmount() observes its own children before they
// disappear from the arena.
func (t *Tree[V]) Remove(id NodeID) error {
	s, err := t.resolve(id)
	if err != nil {
		return err
	}
	if s.borrowed {
		return &ErrInUse{ID: id}
	}
	if !s.parent.IsNil() {
		if p, perr := t.resolve(s.parent); perr == nil {
			p.children = removeID(p.children, id)
		}
	}
	*s = slot[V]{gen: s.gen}
	t.freeList = append(t.freeList, id.index)
	t.liveCount--
	return nil
}

func removeID(ids []NodeID, target NodeID) []NodeID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Get returns a copy of the node's value.
func (t *Tree[V]) Get(id NodeID) (V, error) {
	s, err := t.resolve(id)
	if err != nil {
		var zero V
		return zero, err
	}
	if s.borrowed {
		var zero V
		return zero, &ErrInUse{ID: id}
	}
	return s.value, nil
}

// Set overwrites the node's value.
func (t *Tree[V]) Set(id NodeID, value V) error {
	s, err := t.resolve(id)
	if err != nil {
		return err
	}
	if s.borrowed {
		return &ErrInUse{ID: id}
	}
	s.value = value
	return nil
}

// Mutate takes the node's value out of the arena (marking it borrowed so
// reentrant access observes ErrInUse), passes it to fn, and returns it.
// This is the borrow discipline from spec §5: "tree operations that mutate
// a node take that node out of storage... for the duration of the call".
func (t *Tree[V]) Mutate(id NodeID, fn func(V) V) error {
	s, err := t.resolve(id)
	if err != nil {
		return err
	}
	if s.borrowed {
		return &ErrInUse{ID: id}
	}
	s.borrowed = true
	v := s.value
	var zero V
	s.value = zero // release reference to the outgoing value while borrowed
	v = fn(v)
	s.borrowed = false
	s.value = v
	return nil
}

// Parent returns the node's parent id (the zero NodeID for a root).
func (t *Tree[V]) Parent(id NodeID) (NodeID, error) {
	s, err := t.resolve(id)
	if err != nil {
		return NodeID{}, err
	}
	return s.parent, nil
}

// Children returns a copy of the node's ordered child id list.
func (t *Tree[V]) Children(id NodeID) ([]NodeID, error) {
	s, err := t.resolve(id)
	if err != nil {
		return nil, err
	}
	out := make([]NodeID, len(s.children))
	copy(out, s.children)
	return out, nil
}

// SetChildren replaces the node's ordered child id list wholesale. Used by
// the reconciler after it computes the new child order.
func (t *Tree[V]) SetChildren(id NodeID, children []NodeID) error {
	s, err := t.resolve(id)
	if err != nil {
		return err
	}
	s.children = append([]NodeID(nil), children...)
	return nil
}

// Depth returns the node's depth (root = 0).
func (t *Tree[V]) Depth(id NodeID) (int, error) {
	s, err := t.resolve(id)
	if err != nil {
		return 0, err
	}
	return s.depth, nil
}

// Reparent moves an existing node to a new parent, recomputing its depth.
// Used by the detach/reattach path of keyed reconciliation (spec §4.2).
func (t *Tree[V]) Reparent(id NodeID, newParent NodeID) error {
	s, err := t.resolve(id)
	if err != nil {
		return err
	}
	if !s.parent.IsNil() {
		if old, operr := t.resolve(s.parent); operr == nil {
			old.children = removeID(old.children, id)
		}
	}
	s.parent = newParent
	if newParent.IsNil() {
		s.depth = 0
	} else if np, nerr := t.resolve(newParent); nerr == nil {
		np.children = append(np.children, id)
		s.depth = np.depth + 1
	}
	return nil
}

// Exists reports whether id still refers to a live node.
func (t *Tree[V]) Exists(id NodeID) bool {
	_, err := t.resolve(id)
	return err == nil
}
