package widgets

import (
	"github.com/loomui/loom/pkg/core"
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/render"
)

// Padding adds empty space around its child, per geom.EdgeInsets. The
// child is constrained to the remaining space after insets are deducted.
type Padding struct {
	Insets geom.EdgeInsets
	Child  core.Widget
}

func (p Padding) Key() any                    { return nil }
func (p Padding) CreateElement() core.Element { return core.NewRenderObjectElement() }
func (p Padding) ChildWidget() core.Widget     { return p.Child }

func (p Padding) CreateRenderObject(ctx core.BuildContext) render.Object {
	box := &renderPadding{insets: p.Insets}
	box.SetImpl(box)
	return box
}

func (p Padding) UpdateRenderObject(ctx core.BuildContext, obj render.Object) {
	box := obj.(*renderPadding)
	box.insets = p.Insets
	box.MarkNeedsLayout()
	box.MarkNeedsPaint()
}

type renderPadding struct {
	render.BoxBase
	child  render.Object
	insets geom.EdgeInsets
}

func (r *renderPadding) SetChild(child render.Object) { r.child = child }

func (r *renderPadding) VisitChildren(visitor func(render.Object)) {
	if r.child != nil {
		visitor(r.child)
	}
}

func (r *renderPadding) PerformLayout() {
	constraints := r.Constraints()
	if r.child == nil {
		r.SetSize(constraints.Constrain(geom.Size{}))
		return
	}

	childConstraints := constraints.Deflate(r.insets)
	r.child.Layout(childConstraints, true)
	childSize := r.child.Size()

	size := constraints.Constrain(geom.Size{
		Width:  childSize.Width + r.insets.Horizontal(),
		Height: childSize.Height + r.insets.Vertical(),
	})
	r.SetSize(size)
	r.child.SetParentData(render.BoxParentData{Offset: geom.Offset{X: r.insets.Left, Y: r.insets.Top}})
}

func (r *renderPadding) Paint(ctx *render.PaintContext) {
	if r.child != nil {
		ctx.PaintChildWithLayer(r.child, childOffset(r.child))
	}
}

func (r *renderPadding) HitTest(position geom.Offset, result *render.HitTestResult) bool {
	if !withinBounds(position, r.Size()) {
		return false
	}
	if r.child != nil {
		offset := childOffset(r.child)
		local := geom.Offset{X: position.X - offset.X, Y: position.Y - offset.Y}
		result.PushOffset(offset)
		hit := r.child.HitTest(local, result)
		result.PopOffset()
		if hit {
			return true
		}
	}
	result.Add(r, result.CurrentTransform())
	return true
}
