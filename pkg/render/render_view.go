package render

import "github.com/loomui/loom/pkg/geom"

// RenderView is the render-view variant of render object spec §3 names
// alongside render-box ("a render object variant may mark itself a view
// root", §4.5.6): the root of one view's subtree. It always isolates its
// own layout and paint (a view root never shares a relayout/repaint
// boundary with whatever hosts it) and owns the View binding the
// ViewManager resolves for everything beneath it.
type RenderView struct {
	BoxBase

	binding View
	child   Object
}

// NewRenderView creates a RenderView, optionally bound to an external
// View immediately (Attach may also set or replace it later).
func NewRenderView(binding View) *RenderView {
	v := &RenderView{binding: binding}
	v.SetImpl(v)
	return v
}

// Attach installs or replaces the View binding. A render object inserted
// under this node before Attach is called simply isn't reported until a
// binding exists; ViewManager resolves lazily on each notification.
func (v *RenderView) Attach(binding View) { v.binding = binding }

// Binding implements ViewRoot.
func (v *RenderView) Binding() View { return v.binding }

// IsRepaintBoundary implements Object: a view root always isolates its
// subtree's paint into its own cached layer.
func (v *RenderView) IsRepaintBoundary() bool { return true }

// SetChild installs the view's single child, marking both layout and
// paint dirty.
func (v *RenderView) SetChild(child Object) {
	v.child = child
	v.MarkNeedsLayout()
	v.MarkNeedsPaint()
}

// VisitChildren implements ChildVisitor.
func (v *RenderView) VisitChildren(visitor func(Object)) {
	if v.child != nil {
		visitor(v.child)
	}
}

// PerformLayout sizes the view to the biggest size its constraints allow
// (the window/surface it was given) and lays its child out at that exact
// size, positioned at the origin.
func (v *RenderView) PerformLayout() {
	size := v.Constraints().Biggest()
	v.SetSize(size)
	if v.child == nil {
		return
	}
	v.child.Layout(geom.Tight(size), false)
	v.child.SetParentData(BoxParentData{})
}

// Paint paints the child at the origin, replaying its cached layer when
// it's a clean repaint boundary.
func (v *RenderView) Paint(ctx *PaintContext) {
	if v.child != nil {
		ctx.PaintChildWithLayer(v.child, geom.Offset{})
	}
}

// HitTest forwards to the child; the view itself occupies its whole area.
func (v *RenderView) HitTest(position geom.Offset, result *HitTestResult) bool {
	if v.child == nil {
		return false
	}
	result.Add(v, result.CurrentTransform())
	return v.child.HitTest(position, result)
}
