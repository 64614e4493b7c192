// Package widgets provides a minimal primitive widget set — just enough to
// exercise every core/render contract end to end, not a full widget
// library (the concrete widget library is explicitly out of scope).
package widgets

import (
	"github.com/loomui/loom/pkg/core"
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/render"
)

// SizedBox constrains its child to an explicit width and/or height. A zero
// field leaves the corresponding dimension to the child's own size.
type SizedBox struct {
	Width  float64
	Height float64
	Child  core.Widget
}

func (s SizedBox) Key() any                    { return nil }
func (s SizedBox) CreateElement() core.Element { return core.NewRenderObjectElement() }
func (s SizedBox) ChildWidget() core.Widget     { return s.Child }

func (s SizedBox) CreateRenderObject(ctx core.BuildContext) render.Object {
	box := &renderSizedBox{width: s.Width, height: s.Height}
	box.SetImpl(box)
	return box
}

func (s SizedBox) UpdateRenderObject(ctx core.BuildContext, obj render.Object) {
	box := obj.(*renderSizedBox)
	box.width = s.Width
	box.height = s.Height
	box.MarkNeedsLayout()
	box.MarkNeedsPaint()
}

type renderSizedBox struct {
	render.BoxBase
	child  render.Object
	width  float64
	height float64
}

func (r *renderSizedBox) SetChild(child render.Object) { r.child = child }

func (r *renderSizedBox) VisitChildren(visitor func(render.Object)) {
	if r.child != nil {
		visitor(r.child)
	}
}

func (r *renderSizedBox) PerformLayout() {
	constraints := r.Constraints()
	desired := geom.Size{Width: r.width, Height: r.height}

	if r.child == nil {
		r.SetSize(constraints.Constrain(desired))
		return
	}

	constrained := constraints.Constrain(desired)
	childConstraints := constraints
	if r.width > 0 {
		childConstraints.MinWidth, childConstraints.MaxWidth = constrained.Width, constrained.Width
	}
	if r.height > 0 {
		childConstraints.MinHeight, childConstraints.MaxHeight = constrained.Height, constrained.Height
	}

	r.child.Layout(childConstraints, true)
	r.child.SetParentData(render.BoxParentData{})

	final := r.child.Size()
	if r.width > 0 {
		final.Width = constrained.Width
	}
	if r.height > 0 {
		final.Height = constrained.Height
	}
	r.SetSize(constraints.Constrain(final))
}

func (r *renderSizedBox) Paint(ctx *render.PaintContext) {
	if r.child != nil {
		ctx.PaintChildWithLayer(r.child, geom.Offset{})
	}
}

func (r *renderSizedBox) HitTest(position geom.Offset, result *render.HitTestResult) bool {
	if !withinBounds(position, r.Size()) {
		return false
	}
	if r.child != nil && r.child.HitTest(position, result) {
		return true
	}
	result.Add(r, result.CurrentTransform())
	return true
}
