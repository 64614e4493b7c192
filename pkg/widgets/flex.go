package widgets

import (
	"math"

	"github.com/loomui/loom/pkg/core"
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/render"
)

// Axis is the direction a Row or Column lays its children along.
type Axis int

const (
	AxisHorizontal Axis = iota
	AxisVertical
)

// MainAxisAlignment controls spacing along the main axis.
type MainAxisAlignment int

const (
	MainAxisAlignmentStart MainAxisAlignment = iota
	MainAxisAlignmentEnd
	MainAxisAlignmentCenter
	MainAxisAlignmentSpaceBetween
	MainAxisAlignmentSpaceAround
	MainAxisAlignmentSpaceEvenly
)

// CrossAxisAlignment controls alignment along the cross axis.
type CrossAxisAlignment int

const (
	CrossAxisAlignmentStart CrossAxisAlignment = iota
	CrossAxisAlignmentEnd
	CrossAxisAlignmentCenter
	CrossAxisAlignmentStretch
)

// MainAxisSize controls whether a flex container shrink-wraps its children
// or expands to fill the space it is given along the main axis.
type MainAxisSize int

const (
	MainAxisSizeMin MainAxisSize = iota
	MainAxisSizeMax
)

// Expanded makes its child share a flex container's remaining main-axis
// space proportionally to Flex (default 1 if zero).
type Expanded struct {
	Flex  int
	Child core.Widget
}

func (e Expanded) Key() any                    { return nil }
func (e Expanded) CreateElement() core.Element { return core.NewRenderObjectElement() }
func (e Expanded) ChildWidget() core.Widget     { return e.Child }

func (e Expanded) CreateRenderObject(ctx core.BuildContext) render.Object {
	box := &renderExpanded{flex: e.flexFactor()}
	box.SetImpl(box)
	return box
}

func (e Expanded) UpdateRenderObject(ctx core.BuildContext, obj render.Object) {
	obj.(*renderExpanded).flex = e.flexFactor()
}

func (e Expanded) flexFactor() int {
	if e.Flex <= 0 {
		return 1
	}
	return e.Flex
}

// renderExpanded is a transparent pass-through that reports a flex factor
// to its parent renderFlex; it contributes no layout or paint of its own
// beyond forwarding to its single child.
type renderExpanded struct {
	render.BoxBase
	child render.Object
	flex  int
}

func (r *renderExpanded) FlexFactor() int { return r.flex }

func (r *renderExpanded) SetChild(child render.Object) { r.child = child }

func (r *renderExpanded) VisitChildren(visitor func(render.Object)) {
	if r.child != nil {
		visitor(r.child)
	}
}

func (r *renderExpanded) PerformLayout() {
	if r.child == nil {
		r.SetSize(r.Constraints().Constrain(geom.Size{}))
		return
	}
	r.child.Layout(r.Constraints(), true)
	r.SetSize(r.child.Size())
	r.child.SetParentData(render.BoxParentData{})
}

func (r *renderExpanded) Paint(ctx *render.PaintContext) {
	if r.child != nil {
		ctx.PaintChildWithLayer(r.child, geom.Offset{})
	}
}

func (r *renderExpanded) HitTest(position geom.Offset, result *render.HitTestResult) bool {
	if r.child != nil && r.child.HitTest(position, result) {
		return true
	}
	return false
}

// Row lays children out horizontally; Column lays them out vertically.
// Both are configurations of the same flex algorithm (spec's "Flex-row/
// column" primitive), matching the teacher's Row/Column split over one
// renderFlex implementation.
type Row struct {
	Children           []core.Widget
	MainAxisAlignment  MainAxisAlignment
	CrossAxisAlignment CrossAxisAlignment
	MainAxisSize       MainAxisSize
}

func (r Row) Key() any                     { return nil }
func (r Row) CreateElement() core.Element  { return core.NewRenderObjectElement() }
func (r Row) ChildrenWidgets() []core.Widget { return r.Children }

func (r Row) CreateRenderObject(ctx core.BuildContext) render.Object {
	flex := &renderFlex{direction: AxisHorizontal, alignment: r.MainAxisAlignment, crossAlignment: r.CrossAxisAlignment, axisSize: r.MainAxisSize}
	flex.SetImpl(flex)
	return flex
}

func (r Row) UpdateRenderObject(ctx core.BuildContext, obj render.Object) {
	flex := obj.(*renderFlex)
	flex.direction = AxisHorizontal
	flex.alignment = r.MainAxisAlignment
	flex.crossAlignment = r.CrossAxisAlignment
	flex.axisSize = r.MainAxisSize
	flex.MarkNeedsLayout()
	flex.MarkNeedsPaint()
}

type Column struct {
	Children           []core.Widget
	MainAxisAlignment  MainAxisAlignment
	CrossAxisAlignment CrossAxisAlignment
	MainAxisSize       MainAxisSize
}

func (c Column) Key() any                     { return nil }
func (c Column) CreateElement() core.Element  { return core.NewRenderObjectElement() }
func (c Column) ChildrenWidgets() []core.Widget { return c.Children }

func (c Column) CreateRenderObject(ctx core.BuildContext) render.Object {
	flex := &renderFlex{direction: AxisVertical, alignment: c.MainAxisAlignment, crossAlignment: c.CrossAxisAlignment, axisSize: c.MainAxisSize}
	flex.SetImpl(flex)
	return flex
}

func (c Column) UpdateRenderObject(ctx core.BuildContext, obj render.Object) {
	flex := obj.(*renderFlex)
	flex.direction = AxisVertical
	flex.alignment = c.MainAxisAlignment
	flex.crossAlignment = c.CrossAxisAlignment
	flex.axisSize = c.MainAxisSize
	flex.MarkNeedsLayout()
	flex.MarkNeedsPaint()
}

// flexFactor is implemented by a flex container's children that want a
// share of remaining main-axis space (Expanded).
type flexFactor interface {
	FlexFactor() int
}

type renderFlex struct {
	render.BoxBase
	children       []render.Object
	direction      Axis
	alignment      MainAxisAlignment
	crossAlignment CrossAxisAlignment
	axisSize       MainAxisSize
}

func (r *renderFlex) SetChildren(children []render.Object) { r.children = children }

func (r *renderFlex) VisitChildren(visitor func(render.Object)) {
	for _, child := range r.children {
		visitor(child)
	}
}

func (r *renderFlex) mainAxis(size geom.Size) float64 {
	if r.direction == AxisHorizontal {
		return size.Width
	}
	return size.Height
}

func (r *renderFlex) crossAxis(size geom.Size) float64 {
	if r.direction == AxisHorizontal {
		return size.Height
	}
	return size.Width
}

func (r *renderFlex) makeSize(main, cross float64) geom.Size {
	if r.direction == AxisHorizontal {
		return geom.Size{Width: main, Height: cross}
	}
	return geom.Size{Width: cross, Height: main}
}

func (r *renderFlex) makeOffset(main, cross float64) geom.Offset {
	if r.direction == AxisHorizontal {
		return geom.Offset{X: main, Y: cross}
	}
	return geom.Offset{X: cross, Y: main}
}

func (r *renderFlex) flex(child render.Object) int {
	if f, ok := child.(flexFactor); ok {
		return f.FlexFactor()
	}
	return 0
}

func (r *renderFlex) looseConstraints(maxSize geom.Size) geom.Constraints {
	if r.crossAlignment != CrossAxisAlignmentStretch {
		return geom.Loose(maxSize)
	}
	if r.direction == AxisHorizontal {
		return geom.Constraints{MaxWidth: maxSize.Width, MinHeight: maxSize.Height, MaxHeight: maxSize.Height}
	}
	return geom.Constraints{MinWidth: maxSize.Width, MaxWidth: maxSize.Width, MaxHeight: maxSize.Height}
}

func (r *renderFlex) flexConstraints(constraints geom.Constraints, mainSize float64) geom.Constraints {
	if r.direction == AxisHorizontal {
		minHeight := 0.0
		if r.crossAlignment == CrossAxisAlignmentStretch {
			minHeight = constraints.MaxHeight
		}
		return geom.Constraints{MinWidth: mainSize, MaxWidth: mainSize, MinHeight: minHeight, MaxHeight: constraints.MaxHeight}
	}
	minWidth := 0.0
	if r.crossAlignment == CrossAxisAlignmentStretch {
		minWidth = constraints.MaxWidth
	}
	return geom.Constraints{MinWidth: minWidth, MaxWidth: constraints.MaxWidth, MinHeight: mainSize, MaxHeight: mainSize}
}

// PerformLayout lays non-flex children out first at their own preferred
// size, then distributes remaining main-axis space among flex children
// proportionally (spec's constrained-layout contract, two-pass variant
// grounded in the teacher's renderFlex.PerformLayout).
func (r *renderFlex) PerformLayout() {
	constraints := r.Constraints()
	maxSize := geom.Size{Width: constraints.MaxWidth, Height: constraints.MaxHeight}
	maxMain := r.mainAxis(maxSize)

	mainSize, crossSize, totalFlex := 0.0, 0.0, 0
	var flexChildren []render.Object
	var flexFactors []int

	for _, child := range r.children {
		if f := r.flex(child); f > 0 {
			flexChildren = append(flexChildren, child)
			flexFactors = append(flexFactors, f)
			totalFlex += f
			continue
		}
		child.Layout(r.looseConstraints(maxSize), true)
		size := child.Size()
		mainSize += r.mainAxis(size)
		crossSize = math.Max(crossSize, r.crossAxis(size))
	}

	remaining := math.Max(maxMain-mainSize, 0)
	if r.axisSize != MainAxisSizeMax {
		remaining = 0
	}

	for i, child := range flexChildren {
		allocated := 0.0
		if totalFlex > 0 {
			allocated = remaining * float64(flexFactors[i]) / float64(totalFlex)
		}
		child.Layout(r.flexConstraints(constraints, allocated), true)
		size := child.Size()
		mainSize += r.mainAxis(size)
		crossSize = math.Max(crossSize, r.crossAxis(size))
	}

	finalMain := mainSize
	if r.axisSize == MainAxisSizeMax {
		finalMain = maxMain
	}
	size := constraints.Constrain(r.makeSize(finalMain, crossSize))
	r.SetSize(size)

	freeSpace := math.Max(0, r.mainAxis(size)-mainSize)
	spacing, cursor := r.computeSpacing(freeSpace)
	for _, child := range r.children {
		crossOffset := r.crossAxisOffset(child.Size())
		child.SetParentData(render.BoxParentData{Offset: r.makeOffset(cursor, crossOffset)})
		cursor += r.mainAxis(child.Size()) + spacing
	}
}

func (r *renderFlex) crossAxisOffset(childSize geom.Size) float64 {
	free := r.crossAxis(r.Size()) - r.crossAxis(childSize)
	if free <= 0 {
		return 0
	}
	switch r.crossAlignment {
	case CrossAxisAlignmentEnd:
		return free
	case CrossAxisAlignmentCenter:
		return free * 0.5
	default:
		return 0
	}
}

func (r *renderFlex) computeSpacing(freeSpace float64) (spacing, offset float64) {
	n := len(r.children)
	switch r.alignment {
	case MainAxisAlignmentEnd:
		offset = freeSpace
	case MainAxisAlignmentCenter:
		offset = freeSpace * 0.5
	case MainAxisAlignmentSpaceBetween:
		if n > 1 {
			spacing = freeSpace / float64(n-1)
		}
	case MainAxisAlignmentSpaceAround:
		if n > 0 {
			spacing = freeSpace / float64(n)
			offset = spacing * 0.5
		}
	case MainAxisAlignmentSpaceEvenly:
		if n > 0 {
			spacing = freeSpace / float64(n+1)
			offset = spacing
		}
	}
	return
}

func (r *renderFlex) Paint(ctx *render.PaintContext) {
	for _, child := range r.children {
		ctx.PaintChildWithLayer(child, childOffset(child))
	}
}

func (r *renderFlex) HitTest(position geom.Offset, result *render.HitTestResult) bool {
	if !withinBounds(position, r.Size()) {
		return false
	}
	for i := len(r.children) - 1; i >= 0; i-- {
		child := r.children[i]
		offset := childOffset(child)
		local := geom.Offset{X: position.X - offset.X, Y: position.Y - offset.Y}
		result.PushOffset(offset)
		hit := child.HitTest(local, result)
		result.PopOffset()
		if hit {
			return true
		}
	}
	result.Add(r, result.CurrentTransform())
	return true
}
