package core

import (
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/render"
	"github.com/loomui/loom/pkg/tree"
)

// LayoutBuilderWidget is implemented by widgets that defer building their
// child to the layout phase. Unlike a normal widget, whose Build runs
// before layout, a LayoutBuilderWidget supplies a builder function invoked
// during the render object's PerformLayout, once the parent's constraints
// are actually known.
type LayoutBuilderWidget interface {
	RenderObjectWidget
	LayoutBuilder() func(ctx BuildContext, constraints geom.Constraints) Widget
}

// LayoutBuilderElement hosts a LayoutBuilderWidget, deferring child
// building to the layout phase so the builder function receives resolved
// constraints rather than guessing at them during the build phase.
//
// It uses a dual-trigger invalidation model:
//
//   - Layout-phase trigger: when the parent's constraints change, the
//     render object calls layoutCallback during PerformLayout and the
//     element re-invokes the builder with the new constraints.
//   - Build-phase trigger: when an inherited dependency changes or the
//     widget itself is updated, RebuildIfNeeded translates the dirty flag
//     into childDirty plus MarkNeedsLayout on the render object, which
//     schedules a layout pass that re-invokes the builder.
//
// LayoutBuilderElement implements renderObjectHost, so descendant
// RenderObjectElements attach their render objects through it.
type LayoutBuilderElement struct {
	elementBase
	renderObjectID      tree.NodeID
	renderObject        render.Object
	child               Element
	childDirty          bool
	previousConstraints geom.Constraints
	hasBuilt            bool
}

// NewLayoutBuilderElement creates a LayoutBuilderElement for widget. owner
// may be nil in unit tests; the framework sets it when mounting into a
// live tree.
func NewLayoutBuilderElement(widget LayoutBuilderWidget, owner *BuildOwner) *LayoutBuilderElement {
	element := &LayoutBuilderElement{}
	element.widget = widget
	element.buildOwner = owner
	return element
}

func (e *LayoutBuilderElement) Mount(parent Element, slot any) {
	e.mountBase(e, parent, slot)
	e.mounted = true

	widget := e.widget.(LayoutBuilderWidget)
	e.renderObject = widget.CreateRenderObject(e)

	e.renderParent = e.findRenderParent()
	parentID := tree.NodeID{}
	if e.renderParent != nil {
		parentID = e.renderParent.renderObjectNodeID()
	}
	if e.buildOwner != nil {
		e.renderObjectID = e.buildOwner.Pipeline().Insert(parentID, e.renderObject)
	}

	if setter, ok := e.renderObject.(interface {
		SetLayoutCallback(func(geom.Constraints))
	}); ok {
		setter.SetLayoutCallback(e.layoutCallback)
	}

	if e.renderParent != nil {
		e.renderParent.insertRenderObjectChild(e.renderObject, slot)
	}

	// The first build happens during the first layout pass, not here.
	e.childDirty = true
}

func (e *LayoutBuilderElement) Update(newWidget Widget) {
	e.widget = newWidget
	e.childDirty = true
	if lbw, ok := e.widget.(LayoutBuilderWidget); ok {
		lbw.UpdateRenderObject(e, e.renderObject)
	}
	e.renderObject.MarkNeedsLayout()
}

func (e *LayoutBuilderElement) Unmount() {
	e.mounted = false
	e.cancelTasks()
	e.removeInheritedDependencies()
	if e.child != nil {
		e.child.Unmount()
		e.child = nil
	}
	e.detachRenderObject()
	e.removeFromTree()
}

// RebuildIfNeeded handles build-phase invalidation (e.g. an inherited
// dependency changing). The child build itself still happens at layout
// time; this just arranges for a layout pass to occur and re-invoke the
// builder.
func (e *LayoutBuilderElement) RebuildIfNeeded() {
	if !e.dirty || !e.mounted {
		return
	}
	e.dirty = false
	e.childDirty = true
	e.renderObject.MarkNeedsLayout()
}

// layoutCallback is invoked by the render object during PerformLayout. It
// skips rebuilding the child when constraints are unchanged and no
// build-phase invalidation occurred; otherwise it re-invokes the builder
// and reconciles the child element.
//
// Reconciling from within the layout pass means the element tree mutates
// during layout — the builder must not call MarkNeedsLayout on an ancestor
// already laid out this pass, or the result would be stale.
func (e *LayoutBuilderElement) layoutCallback(constraints geom.Constraints) {
	if !e.mounted {
		return
	}
	if !e.childDirty && e.hasBuilt && constraints == e.previousConstraints {
		return
	}

	lbw := e.widget.(LayoutBuilderWidget)
	builder := lbw.LayoutBuilder()

	var built Widget
	if builder != nil {
		built = e.safeBuild(func() Widget {
			return builder(e, constraints)
		})
	}

	e.child = updateChild(e.child, built, e, e.buildOwner, nil)

	e.childDirty = false
	e.previousConstraints = constraints
	e.hasBuilt = true
}

func (e *LayoutBuilderElement) VisitChildren(visitor func(Element) bool) {
	if e.child != nil {
		visitor(e.child)
	}
}

func (e *LayoutBuilderElement) RenderObject() render.Object { return e.renderObject }

func (e *LayoutBuilderElement) insertRenderObjectChild(child render.Object, slot any) {
	if child == nil {
		return
	}
	if single, ok := e.renderObject.(interface{ SetChild(render.Object) }); ok {
		single.SetChild(child)
	}
}

func (e *LayoutBuilderElement) removeRenderObjectChild(child render.Object, slot any) {
	if child == nil {
		return
	}
	if single, ok := e.renderObject.(interface{ SetChild(render.Object) }); ok {
		single.SetChild(nil)
	}
}

func (e *LayoutBuilderElement) moveRenderObjectChild(child render.Object, oldSlot, newSlot any) {}

func (e *LayoutBuilderElement) renderObjectNodeID() tree.NodeID { return e.renderObjectID }

func (e *LayoutBuilderElement) detachRenderObject() {
	if e.renderParent != nil {
		e.renderParent.removeRenderObjectChild(e.renderObject, e.slot)
		e.renderParent = nil
	}
	if disposer, ok := e.renderObject.(interface{ Dispose() }); ok {
		disposer.Dispose()
	}
	if e.buildOwner != nil && !e.renderObjectID.IsNil() {
		_ = e.buildOwner.Pipeline().Remove(e.renderObjectID)
	}
}

// UpdateSlot updates the slot and notifies the render parent of the move.
func (e *LayoutBuilderElement) UpdateSlot(newSlot any) {
	oldSlot := e.slot
	e.slot = newSlot
	if e.renderParent != nil {
		e.renderParent.moveRenderObjectChild(e.renderObject, oldSlot, newSlot)
	}
}
