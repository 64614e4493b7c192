package render

import (
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/tree"
)

// PipelineOwner tracks which render objects need layout or paint and
// exposes the structural tree render objects are registered in, so
// BoxBase can resolve a parent's boundary without holding a raw pointer
// to it (spec's generational-arena redesign, §3/§9).
type PipelineOwner struct {
	nodes *tree.Tree[Object]
	views *ViewManager

	dirtyLayout map[tree.NodeID]Object
	dirtyPaint  map[tree.NodeID]Object

	needsLayout bool
	needsPaint  bool
}

// NewPipelineOwner creates an empty pipeline owner with its own
// ViewManager (spec §4.5.6, component #8).
func NewPipelineOwner() *PipelineOwner {
	p := &PipelineOwner{nodes: tree.New[Object]()}
	p.views = NewViewManager(p)
	return p
}

// Views returns the owner's ViewManager, which fans out attach/detach/
// size/offset/paint/sync notifications to the render-view that owns each
// render object (spec §4.5.6).
func (p *PipelineOwner) Views() *ViewManager {
	return p.views
}

// Parent returns the structural parent of id within this owner's tree, or
// ok=false if id is unknown or has no parent (a root).
func (p *PipelineOwner) Parent(id tree.NodeID) (tree.NodeID, bool) {
	parent, err := p.nodes.Parent(id)
	if err != nil || parent.IsNil() {
		return tree.NodeID{}, false
	}
	return parent, true
}

// Insert registers a render object under parent (the zero NodeID for the
// root) and wires its BoxBase up via SetOwner/SetParent, mirroring the
// teacher's SetOwner/SetParent pair but addressed by NodeID instead of a
// pointer.
func (p *PipelineOwner) Insert(parent tree.NodeID, obj Object) tree.NodeID {
	id := p.nodes.Insert(parent, obj)
	obj.SetOwner(p, id)
	if setter, ok := obj.(interface {
		SetParent(parent tree.NodeID, parentDepth int, parentExists bool)
	}); ok {
		if parentObj, perr := p.nodes.Get(parent); perr == nil {
			depth := 0
			if depther, ok := parentObj.(interface{ Depth() int }); ok {
				depth = depther.Depth()
			}
			setter.SetParent(parent, depth, true)
		} else {
			setter.SetParent(tree.NodeID{}, 0, false)
		}
	}
	p.views.notifyAttach(parent, id)
	return id
}

// Remove unregisters a render object. Callers must remove children first.
func (p *PipelineOwner) Remove(id tree.NodeID) error {
	p.views.notifyDetach(id)
	delete(p.dirtyLayout, id)
	delete(p.dirtyPaint, id)
	return p.nodes.Remove(id)
}

func (p *PipelineOwner) lookup(id tree.NodeID) (Object, bool) {
	obj, err := p.nodes.Get(id)
	if err != nil {
		return nil, false
	}
	return obj, true
}

// ScheduleLayout marks a render object dirty for layout.
func (p *PipelineOwner) ScheduleLayout(id tree.NodeID, obj Object) {
	if p.dirtyLayout == nil {
		p.dirtyLayout = make(map[tree.NodeID]Object)
	}
	if _, exists := p.dirtyLayout[id]; exists {
		return
	}
	p.dirtyLayout[id] = obj
	p.needsLayout = true
	p.needsPaint = true
}

// SchedulePaint marks a render object dirty for paint.
func (p *PipelineOwner) SchedulePaint(id tree.NodeID, obj Object) {
	if p.dirtyPaint == nil {
		p.dirtyPaint = make(map[tree.NodeID]Object)
	}
	if _, exists := p.dirtyPaint[id]; exists {
		return
	}
	p.dirtyPaint[id] = obj
	p.needsPaint = true
}

// NeedsLayout reports whether any render object is dirty for layout.
func (p *PipelineOwner) NeedsLayout() bool { return p.needsLayout }

// NeedsPaint reports whether any render object is dirty for paint.
func (p *PipelineOwner) NeedsPaint() bool { return p.needsPaint }

// FlushLayoutForRoot lays the whole tree out from root when anything is
// dirty. Individual boundaries short-circuit inside BoxBase.Layout when
// their own constraints and dirty flag say nothing changed.
func (p *PipelineOwner) FlushLayoutForRoot(root Object, constraints geom.Constraints) {
	if !p.needsLayout || root == nil {
		return
	}
	root.Layout(constraints, false)
	p.dirtyLayout = nil
	p.needsLayout = false
}

// FlushPaint clears the dirty-paint set after a paint pass has run and
// notifies every attached view that the cycle's layout and paint are both
// complete (spec §4.5.6: View.OnSync, "called when the tree has had
// layout and paint complete for this update cycle").
func (p *PipelineOwner) FlushPaint() {
	p.dirtyPaint = nil
	p.needsPaint = false
	p.views.sync()
}

// DirtyPaintRoots returns the render objects that are repaint boundaries
// and currently dirty, for the engine's paint phase to revisit.
func (p *PipelineOwner) DirtyPaintRoots() []Object {
	out := make([]Object, 0, len(p.dirtyPaint))
	for _, obj := range p.dirtyPaint {
		out = append(out, obj)
	}
	return out
}
