// Package render implements the render-object tree: layout, paint, and hit
// testing, with relayout/repaint/semantics boundary tracking (spec §4.5).
package render

import (
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/paint"
	"github.com/loomui/loom/pkg/tree"
)

// Object is implemented by every render object: the thing a RenderObjectElement
// owns and that PipelineOwner schedules layout/paint passes for.
type Object interface {
	Layout(constraints geom.Constraints, parentUsesSize bool)
	Size() geom.Size
	Paint(ctx *PaintContext)
	HitTest(position geom.Offset, result *HitTestResult) bool
	ParentData() any
	SetParentData(data any)
	MarkNeedsLayout()
	MarkNeedsPaint()
	SetOwner(owner *PipelineOwner, self tree.NodeID)
	IsRepaintBoundary() bool
}

// ChildVisitor is implemented by render objects with children, letting
// generic passes (hit testing, disposal) walk the tree without knowing the
// concrete layout algorithm of each node.
type ChildVisitor interface {
	VisitChildren(visitor func(Object))
}

// BoxParentData stores the offset a parent assigned to one of its children
// during layout.
type BoxParentData struct {
	Offset geom.Offset
}

// BoxBase provides the shared bookkeeping every concrete render object
// embeds: size, boundary caching, and the dirty-flag walk-to-boundary logic
// (spec §4.5.3, §4.5.4). Concrete types embed BoxBase and implement
// PerformLayout() and Paint(ctx) on top of it, following the same split the
// teacher's RenderBoxBase/PerformLayout pair uses.
type BoxBase struct {
	size       geom.Size
	parentData any

	owner *PipelineOwner
	self  tree.NodeID // this node's identity in owner's structural tree
	impl  Object      // the concrete render object, for boundary/self comparisons

	parent tree.NodeID
	depth  int

	relayoutBoundary tree.NodeID
	needsLayout      bool
	constraints      geom.Constraints

	repaintBoundary tree.NodeID
	needsPaint      bool
	layer           *paint.DisplayList
}

// Size returns the box's current size, set by the most recent layout pass.
func (b *BoxBase) Size() geom.Size { return b.size }

// SetSize stores the size a concrete PerformLayout computed, reporting the
// change to the owning view if it differs from the previous size (spec
// §4.5.6: View.OnSizeChanged).
func (b *BoxBase) SetSize(size geom.Size) {
	changed := b.size != size
	b.size = size
	if changed && b.owner != nil {
		b.owner.views.notifySizeChanged(b.self, size)
	}
}

// ParentData returns the parent-assigned layout data (e.g. BoxParentData).
func (b *BoxBase) ParentData() any { return b.parentData }

// SetParentData assigns parent-controlled layout data, reporting an
// offset change to the owning view if data is a BoxParentData whose
// offset differs from the previous one (spec §4.5.6: View.OnOffsetChanged).
func (b *BoxBase) SetParentData(data any) {
	if next, ok := data.(BoxParentData); ok {
		prev, hadPrev := b.parentData.(BoxParentData)
		b.parentData = data
		if b.owner != nil && (!hadPrev || prev.Offset != next.Offset) {
			b.owner.views.notifyOffsetChanged(b.self, next.Offset)
		}
		return
	}
	b.parentData = data
}

// SetOwner registers this render object with a pipeline owner under id self,
// and marks it dirty for its first layout/paint pass.
func (b *BoxBase) SetOwner(owner *PipelineOwner, self tree.NodeID) {
	b.owner = owner
	b.self = self
	b.needsLayout = true
	b.needsPaint = true
}

// SetImpl records the concrete Object this BoxBase backs, needed so boundary
// comparisons (`b.relayoutBoundary == b.self`) can be driven by the public
// interface rather than an internal pointer. Concrete types call this once
// from their constructor.
func (b *BoxBase) SetImpl(impl Object) { b.impl = impl }

// SetParent sets the structural parent and recomputes depth, clearing
// cached boundaries and constraints — stale after a reparent (spec's keyed
// reconciliation can move a render object to a new parent slot).
func (b *BoxBase) SetParent(parent tree.NodeID, parentDepth int, parentExists bool) {
	b.parent = parent
	if !parentExists {
		b.depth = 0
	} else {
		b.depth = parentDepth + 1
	}
	b.relayoutBoundary = tree.NodeID{}
	b.constraints = geom.Constraints{}
	b.needsLayout = true
	b.repaintBoundary = tree.NodeID{}
	b.needsPaint = true
	b.layer = nil
}

// Depth returns the tree depth (root = 0).
func (b *BoxBase) Depth() int { return b.depth }

// Self returns this render object's structural identity.
func (b *BoxBase) Self() tree.NodeID { return b.self }

// Parent returns the structural parent's identity.
func (b *BoxBase) Parent() tree.NodeID { return b.parent }

// RelayoutBoundary returns the cached nearest relayout boundary's identity.
func (b *BoxBase) RelayoutBoundary() tree.NodeID { return b.relayoutBoundary }

// NeedsLayout reports whether this box is due for a layout pass.
func (b *BoxBase) NeedsLayout() bool { return b.needsLayout }

// Constraints returns the last constraints this box was laid out with.
func (b *BoxBase) Constraints() geom.Constraints { return b.constraints }

// IsRepaintBoundary reports whether this render object isolates its paint
// into a cached layer. The default is false; concrete types that want
// isolation (e.g. a clipped scroll viewport) override this.
func (b *BoxBase) IsRepaintBoundary() bool { return false }

// RepaintBoundary returns the cached nearest repaint boundary's identity.
func (b *BoxBase) RepaintBoundary() tree.NodeID { return b.repaintBoundary }

// NeedsPaint reports whether this box is due for a paint pass.
func (b *BoxBase) NeedsPaint() bool { return b.needsPaint }

// Layer returns the cached display list, valid only when this box is a
// repaint boundary and NeedsPaint is false.
func (b *BoxBase) Layer() *paint.DisplayList { return b.layer }

// SetLayer stores the display list a repaint boundary just painted and
// reports it to the owning view, if any (spec §4.5.6: View.OnPaint).
func (b *BoxBase) SetLayer(list *paint.DisplayList) {
	b.layer = list
	if b.owner != nil {
		b.owner.views.notifyPaint(b.self, list)
	}
}

// ClearNeedsPaint marks this object as freshly painted.
func (b *BoxBase) ClearNeedsPaint() { b.needsPaint = false }

// MarkNeedsLayout walks up to the nearest relayout boundary and schedules
// it, setting needsLayout along the whole path (spec §4.5.3: "marking a
// node dirty walks ancestors until a relayout boundary, which is what gets
// scheduled").
func (b *BoxBase) MarkNeedsLayout() {
	if b.needsLayout {
		return
	}
	b.needsLayout = true
	if b.owner == nil || b.impl == nil {
		return
	}
	if b.relayoutBoundary == b.self {
		b.owner.ScheduleLayout(b.self, b.impl)
		return
	}
	if parent, ok := b.owner.lookup(b.parent); ok {
		parent.MarkNeedsLayout()
		return
	}
	b.owner.ScheduleLayout(b.self, b.impl)
}

// MarkNeedsPaint walks up to the nearest repaint boundary and schedules it,
// invalidating this node's cached layer unconditionally.
func (b *BoxBase) MarkNeedsPaint() {
	b.layer = nil
	if b.owner == nil || b.impl == nil {
		b.needsPaint = true
		return
	}
	if b.repaintBoundary == b.self {
		b.needsPaint = true
		b.owner.SchedulePaint(b.self, b.impl)
		return
	}
	b.needsPaint = true
	if parent, ok := b.owner.lookup(b.parent); ok {
		parent.MarkNeedsPaint()
		return
	}
	b.owner.SchedulePaint(b.self, b.impl)
}

// performer is implemented by concrete render objects to run their actual
// layout algorithm once BoxBase.Layout has resolved boundaries and decided
// a pass is actually needed.
type performer interface {
	PerformLayout()
}

// Layout resolves this node's relayout/repaint boundary status against its
// parent, then skips or runs PerformLayout depending on whether
// constraints changed (spec §4.5.3).
func (b *BoxBase) Layout(constraints geom.Constraints, parentUsesSize bool) {
	shouldBeBoundary := constraints.IsTight() || b.parent.IsNil() || !parentUsesSize
	if shouldBeBoundary {
		b.relayoutBoundary = b.self
	} else if parent, ok := b.owner.lookup(b.parent); ok {
		b.relayoutBoundary = parent.(interface{ RelayoutBoundary() tree.NodeID }).RelayoutBoundary()
	}

	if b.impl != nil && b.impl.IsRepaintBoundary() {
		b.repaintBoundary = b.self
	} else if parent, ok := b.owner.lookup(b.parent); ok {
		b.repaintBoundary = parent.(interface{ RepaintBoundary() tree.NodeID }).RepaintBoundary()
	}

	if !b.needsLayout && b.constraints.Equal(constraints) {
		return
	}
	b.constraints = constraints
	b.needsLayout = false

	if p, ok := b.impl.(performer); ok {
		p.PerformLayout()
	}
}
