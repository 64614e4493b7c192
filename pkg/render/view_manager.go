package render

import (
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/paint"
	"github.com/loomui/loom/pkg/tree"
)

// ViewManager maintains the render-object → view mapping spec §4.5.6
// describes, re-resolving it as render objects are (re-)attached so a
// render object reparented under a different view root starts reporting
// to its new owner instead of its old one.
type ViewManager struct {
	owner *PipelineOwner

	// resolved caches the nearest ViewRoot ancestor (inclusive) for a
	// render object, so repeated lookups during a paint/layout pass are
	// O(1) after the first per-node resolution this cycle.
	resolved map[tree.NodeID]tree.NodeID
}

// NewViewManager creates a ViewManager bound to owner's structural tree.
func NewViewManager(owner *PipelineOwner) *ViewManager {
	return &ViewManager{owner: owner, resolved: make(map[tree.NodeID]tree.NodeID)}
}

// forget drops any cached resolution for id, forcing the next lookup to
// walk the tree again. Called whenever id is inserted, removed, or
// reparented.
func (m *ViewManager) forget(id tree.NodeID) {
	delete(m.resolved, id)
}

// resolve returns the id and View of the nearest ViewRoot at or above id,
// or ok=false if id's subtree isn't attached under any view (e.g. an
// offstage render tree with no view bound yet).
func (m *ViewManager) resolve(id tree.NodeID) (tree.NodeID, View, bool) {
	if root, ok := m.resolved[id]; ok {
		if obj, ok := m.owner.lookup(root); ok {
			if vr, ok := obj.(ViewRoot); ok && vr.Binding() != nil {
				return root, vr.Binding(), true
			}
		}
		delete(m.resolved, id)
	}

	cur := id
	for !cur.IsNil() {
		obj, ok := m.owner.lookup(cur)
		if !ok {
			return tree.NodeID{}, nil, false
		}
		if vr, ok := obj.(ViewRoot); ok {
			if binding := vr.Binding(); binding != nil {
				m.resolved[id] = cur
				return cur, binding, true
			}
			return tree.NodeID{}, nil, false
		}
		parent, ok := m.owner.Parent(cur)
		if !ok {
			return tree.NodeID{}, nil, false
		}
		cur = parent
	}
	return tree.NodeID{}, nil, false
}

// notifyAttach resolves id's view and reports the attach, called after a
// render object (re-)joins the structural tree under parent.
func (m *ViewManager) notifyAttach(parent, id tree.NodeID) {
	m.forget(id)
	if _, view, ok := m.resolve(id); ok {
		view.OnAttach(parent, id)
	}
}

// notifyDetach reports id leaving its view, called before it's removed
// from the structural tree.
func (m *ViewManager) notifyDetach(id tree.NodeID) {
	if _, view, ok := m.resolve(id); ok {
		view.OnDetach(id)
	}
	m.forget(id)
}

// notifySizeChanged reports a post-layout size change.
func (m *ViewManager) notifySizeChanged(id tree.NodeID, size geom.Size) {
	if _, view, ok := m.resolve(id); ok {
		view.OnSizeChanged(id, size)
	}
}

// notifyOffsetChanged reports a parent-assigned offset change.
func (m *ViewManager) notifyOffsetChanged(id tree.NodeID, offset geom.Offset) {
	if _, view, ok := m.resolve(id); ok {
		view.OnOffsetChanged(id, offset)
	}
}

// notifyPaint delivers a freshly painted canvas to id's view.
func (m *ViewManager) notifyPaint(id tree.NodeID, canvas *paint.DisplayList) {
	if _, view, ok := m.resolve(id); ok {
		view.OnPaint(id, canvas)
	}
}

// sync calls OnSync on every distinct view currently attached, once
// layout and paint have both completed for the cycle.
func (m *ViewManager) sync() {
	seen := make(map[tree.NodeID]bool)
	for _, root := range m.resolved {
		if seen[root] {
			continue
		}
		seen[root] = true
		if obj, ok := m.owner.lookup(root); ok {
			if vr, ok := obj.(ViewRoot); ok {
				if binding := vr.Binding(); binding != nil {
					binding.OnSync()
				}
			}
		}
	}
}
