package core

import (
	"context"
	"fmt"
	"reflect"
	"time"

	reactorerrors "github.com/loomui/loom/pkg/errors"
	"github.com/loomui/loom/pkg/render"
	"github.com/loomui/loom/pkg/tree"
)

// IndexedSlot identifies a child's position among a multi-child parent's
// children, used by keyed reconciliation to detect moves.
type IndexedSlot struct {
	Index           int
	PreviousSibling Element
}

// renderObjectHost is implemented by elements that own a render object and
// can serve as the attachment point for descendant RenderObjectElements.
// RenderObjectElement and LayoutBuilderElement both implement it.
type renderObjectHost interface {
	RenderObject() render.Object
	insertRenderObjectChild(child render.Object, slot any)
	removeRenderObjectChild(child render.Object, slot any)
	moveRenderObjectChild(child render.Object, oldSlot, newSlot any)
	renderObjectNodeID() tree.NodeID
}

// elementBase holds the bookkeeping every Element variant shares: tree
// position, dirty tracking, and the scope-copied inherited-widget map that
// makes DependOnInherited an O(1) lookup instead of an ancestor walk.
//
// Parent/self identity is a tree.NodeID into the owning BuildOwner's element
// arena (BuildOwner.Elements()), not a raw Element pointer: nodeID is this
// element's own id, assigned when mountBase inserts it into the arena;
// parentID is its parent's id, the zero NodeID for a root. Every ancestor
// walk (parentElement, FindAncestor, findErrorBoundary, findRenderParent)
// resolves through the arena instead of following an in-memory pointer, the
// same generational-slotmap discipline the render-object tree already uses
// (spec §3).
type elementBase struct {
	renderObjectID tree.NodeID
	widget         Widget
	nodeID         tree.NodeID
	parentID       tree.NodeID
	depth          int
	slot           any
	buildOwner     *BuildOwner
	dirty          bool
	mounted        bool
	renderParent   renderObjectHost
	tasks          taskScope

	// inheritedDeps lists every InheritedElement this element has ever
	// registered as a dependent of, so Unmount can remove the listener edge
	// instead of leaving a stale dependent behind (spec §3's listener-
	// lifetime invariant: "listener edges live until the listener element
	// unmounts").
	inheritedDeps []*InheritedElement

	// scope is this element's view of the nearest InheritedElement per
	// widget type. It is copied by reference from the parent on Mount, and
	// only copied-on-write by InheritedElement when it adds its own entry,
	// so a subtree with no inherited widgets shares one map all the way
	// down instead of allocating per element.
	scope map[reflect.Type]*InheritedElement
}

func (e *elementBase) Widget() Widget   { return e.widget }
func (e *elementBase) Depth() int       { return e.depth }
func (e *elementBase) Slot() any        { return e.slot }
func (e *elementBase) UpdateSlot(s any) { e.slot = s }

// NodeID returns this element's id in its BuildOwner's element arena, the
// zero NodeID if it has never been mounted.
func (e *elementBase) NodeID() tree.NodeID { return e.nodeID }

// nodeIDOf extracts an arbitrary Element's arena id, or the zero NodeID for
// nil (a root's "parent").
func nodeIDOf(element Element) tree.NodeID {
	if element == nil {
		return tree.NodeID{}
	}
	if withID, ok := element.(interface{ NodeID() tree.NodeID }); ok {
		return withID.NodeID()
	}
	return tree.NodeID{}
}

// mountBase records slot/depth/scope bookkeeping shared by every variant's
// Mount and inserts self into the owning BuildOwner's element arena under
// parent's id, replacing the old plain-pointer e.parent/e.self assignment.
func (e *elementBase) mountBase(self Element, parent Element, slot any) {
	e.slot = slot
	e.parentID = nodeIDOf(parent)
	if parent != nil {
		e.depth = parent.Depth() + 1
		e.inheritScope(parent)
	}
	if e.buildOwner != nil {
		e.nodeID = e.buildOwner.Elements().Insert(e.parentID, self)
		e.registerKey(self)
	}
}

// registerKey records self's reconciliation key with the owner's
// KeyRegistry if it carries a tree.Key. Only a widget that opts into the
// typed key variants (tree.LocalKey/GlobalKey/UniqueKey) is registered; a
// plain comparable Key() value (the common case today) keeps working
// through canUpdateWidget's direct comparison and is never entered into the
// registry, since there is nothing cycle-wide to enforce for it.
func (e *elementBase) registerKey(self Element) {
	widget := self.Widget()
	if widget == nil {
		return
	}
	key, ok := widget.Key().(tree.Key)
	if !ok {
		return
	}
	e.buildOwner.Keys().Register(e.nodeID, key)
}

// removeFromTree deletes this element from the arena and releases any key
// it held. Called at the end of every variant's Unmount, after children
// have already removed themselves, matching tree.Tree.Remove's post-order
// contract.
func (e *elementBase) removeFromTree() {
	if e.buildOwner == nil || e.nodeID.IsNil() {
		return
	}
	e.buildOwner.Keys().Unregister(e.nodeID)
	_ = e.buildOwner.Elements().Remove(e.nodeID)
}

// resolveSelf looks up this element's own current value in the arena. It is
// how code that only has an *elementBase recovers the concrete Element
// interface value to pass to APIs that key on Element (ScheduleBuild,
// AddDependent), without keeping a second plain-pointer copy around.
func (e *elementBase) resolveSelf() Element {
	if e.buildOwner == nil || e.nodeID.IsNil() {
		return nil
	}
	self, err := e.buildOwner.Elements().Get(e.nodeID)
	if err != nil {
		return nil
	}
	return self
}

func (e *elementBase) MarkNeedsBuild() {
	if e.dirty {
		return
	}
	e.dirty = true
	if e.buildOwner == nil {
		return
	}
	if self := e.resolveSelf(); self != nil {
		e.buildOwner.ScheduleBuild(self)
	}
}

// spawnTask starts fn on the build owner's scheduler, tied to this
// element's lifetime: cancelTasks (called from Unmount) cancels it (spec
// §5, §6's spawn_local_task/spawn_shared_task bindings).
func (e *elementBase) spawnTask(fn func(ctx context.Context)) (TaskHandle, error) {
	var scheduler Scheduler
	if e.buildOwner != nil {
		scheduler = e.buildOwner.Scheduler()
	}
	return SpawnTask(scheduler, &e.tasks, fn)
}

// cancelTasks cancels every task this element spawned. Called once from
// each variant's Unmount.
func (e *elementBase) cancelTasks() { e.tasks.cancelAll() }

// parentElement resolves this element's parent through the arena. Promoted
// onto every embedding variant, so ancestor walks (FindAncestor,
// findErrorBoundary, findRenderParent, GlobalOffsetOf) work uniformly
// regardless of concrete Element type.
func (e *elementBase) parentElement() Element {
	if e.buildOwner == nil || e.parentID.IsNil() {
		return nil
	}
	parent, err := e.buildOwner.Elements().Get(e.parentID)
	if err != nil {
		return nil
	}
	return parent
}

func (e *elementBase) setWidget(w Widget)               { e.widget = w }
func (e *elementBase) setBuildOwner(owner *BuildOwner) { e.buildOwner = owner }
func (e *elementBase) isMounted() bool                  { return e.mounted }

func (e *elementBase) currentScope() map[reflect.Type]*InheritedElement { return e.scope }

// inheritScope adopts the parent's scope map reference. Called once from
// Mount, before the element's first build, so DependOnInherited works
// correctly even during the initial build.
func (e *elementBase) inheritScope(parent Element) {
	if base, ok := parent.(interface {
		currentScope() map[reflect.Type]*InheritedElement
	}); ok {
		e.scope = base.currentScope()
	}
}

// DependOnInherited resolves inheritedType via the scope map in O(1) and
// registers e as a dependent for the given aspect (nil means "all
// changes").
func (e *elementBase) DependOnInherited(inheritedType reflect.Type, aspect any) any {
	inherited, ok := e.scope[inheritedType]
	if !ok {
		return nil
	}
	inherited.AddDependent(e.resolveSelf(), aspect)
	e.trackInheritedDependency(inherited)
	return inherited.widget
}

// DependOnInheritedWithAspects registers several aspects against one
// InheritedElement in a single scope lookup.
func (e *elementBase) DependOnInheritedWithAspects(inheritedType reflect.Type, aspects ...any) any {
	inherited, ok := e.scope[inheritedType]
	if !ok {
		return nil
	}
	self := e.resolveSelf()
	for _, aspect := range aspects {
		inherited.AddDependent(self, aspect)
	}
	e.trackInheritedDependency(inherited)
	return inherited.widget
}

// trackInheritedDependency records inherited as an ancestor this element
// depends on, deduplicating repeat registrations, so Unmount knows exactly
// which InheritedElements to remove itself from.
func (e *elementBase) trackInheritedDependency(inherited *InheritedElement) {
	for _, existing := range e.inheritedDeps {
		if existing == inherited {
			return
		}
	}
	e.inheritedDeps = append(e.inheritedDeps, inherited)
}

// removeInheritedDependencies unregisters this element from every
// InheritedElement ancestor it ever called DependOnInherited against.
// Called from every variant's Unmount, before the element itself is
// removed from the arena, so a later InheritedElement.Update never notifies
// a disposed element (spec §3 listener-lifetime invariant).
func (e *elementBase) removeInheritedDependencies() {
	if len(e.inheritedDeps) == 0 {
		return
	}
	self := e.resolveSelf()
	for _, inherited := range e.inheritedDeps {
		inherited.RemoveDependent(self)
	}
	e.inheritedDeps = nil
}

func (e *elementBase) FindAncestor(predicate func(Element) bool) Element {
	current := e.parentElement()
	for current != nil {
		if predicate(current) {
			return current
		}
		if base, ok := current.(interface{ parentElement() Element }); ok {
			current = base.parentElement()
		} else {
			break
		}
	}
	return nil
}

// safeBuild runs buildFn with panic recovery. A panic becomes a
// BoundaryError that is reported to the global handler and, if possible,
// handed to the nearest error boundary instead of unwinding past this
// element.
func (e *elementBase) safeBuild(buildFn func() Widget) Widget {
	var built Widget
	var buildErr *reactorerrors.BoundaryError

	func() {
		defer func() {
			if r := recover(); r != nil {
				buildErr = &reactorerrors.BoundaryError{
					Phase:      "build",
					Widget:     reflect.TypeOf(e.widget).String(),
					Recovered:  r,
					StackTrace: reactorerrors.CaptureStack(),
					Timestamp:  time.Now(),
				}
			}
		}()
		built = buildFn()
	}()

	if buildErr == nil {
		return built
	}

	reactorerrors.ReportBoundaryError(buildErr)

	if boundary := e.findErrorBoundary(); boundary != nil {
		boundary.CaptureError(buildErr)
		return nil
	}
	if builder := GetErrorWidgetBuilder(); builder != nil {
		if errWidget := builder(buildErr); errWidget != nil {
			return errWidget
		}
	}
	return errorPlaceholder{err: buildErr}
}

func (e *elementBase) findErrorBoundary() ErrorBoundaryCapture {
	current := e.parentElement()
	for current != nil {
		if capture, ok := current.(ErrorBoundaryCapture); ok {
			return capture
		}
		if base, ok := current.(interface{ parentElement() Element }); ok {
			current = base.parentElement()
		} else {
			break
		}
	}
	return nil
}

// findRenderParent walks up to the nearest element that owns a render
// object, so a newly-mounted RenderObjectElement knows where to attach.
func (e *elementBase) findRenderParent() renderObjectHost {
	current := e.parentElement()
	for current != nil {
		if host, ok := current.(renderObjectHost); ok {
			return host
		}
		if base, ok := current.(interface{ parentElement() Element }); ok {
			current = base.parentElement()
		} else {
			break
		}
	}
	return nil
}

// errorPlaceholder is the last-resort fallback shown when a build panics
// and no error boundary or error widget builder is configured.
type errorPlaceholder struct {
	err *reactorerrors.BoundaryError
}

func (p errorPlaceholder) Key() any                      { return nil }
func (p errorPlaceholder) CreateElement() Element        { return NewStatelessElement() }
func (p errorPlaceholder) Build(ctx BuildContext) Widget { return nil }

// StatelessElement hosts a StatelessWidget: a widget with no persistent
// state of its own, rebuilt by calling Build directly.
type StatelessElement struct {
	elementBase
	child Element
}

// NewStatelessElement creates an unmounted StatelessElement.
func NewStatelessElement() *StatelessElement {
	return &StatelessElement{}
}

func (e *StatelessElement) Mount(parent Element, slot any) {
	e.mountBase(e, parent, slot)
	e.renderParent = e.findRenderParent()
	e.mounted = true
	e.dirty = true
	e.RebuildIfNeeded()
}

func (e *StatelessElement) Update(newWidget Widget) {
	e.widget = newWidget
	e.MarkNeedsBuild()
}

func (e *StatelessElement) Unmount() {
	e.mounted = false
	e.cancelTasks()
	e.removeInheritedDependencies()
	if e.child != nil {
		e.child.Unmount()
		e.child = nil
	}
	e.removeFromTree()
}

func (e *StatelessElement) RebuildIfNeeded() {
	if !e.dirty || !e.mounted {
		return
	}
	e.dirty = false
	widget := e.widget.(StatelessWidget)
	built := e.safeBuild(func() Widget {
		return widget.Build(e)
	})
	e.child = updateChild(e.child, built, e, e.buildOwner, nil)
}

func (e *StatelessElement) VisitChildren(visitor func(Element) bool) {
	if e.child != nil {
		visitor(e.child)
	}
}

// RenderObject returns the render object owned by the nearest
// render-object-hosting descendant.
func (e *StatelessElement) RenderObject() render.Object {
	if e.child == nil {
		return nil
	}
	if child, ok := e.child.(interface{ RenderObject() render.Object }); ok {
		return child.RenderObject()
	}
	return nil
}

// StatefulElement hosts a StatefulWidget and the State it creates.
type StatefulElement struct {
	elementBase
	child Element
	state State
}

// NewStatefulElement creates an unmounted StatefulElement.
func NewStatefulElement() *StatefulElement {
	return &StatefulElement{}
}

func (e *StatefulElement) Mount(parent Element, slot any) {
	e.mountBase(e, parent, slot)
	e.renderParent = e.findRenderParent()
	e.mounted = true
	widget := e.widget.(StatefulWidget)
	e.state = widget.CreateState()
	if setter, ok := e.state.(interface{ SetElement(*StatefulElement) }); ok {
		setter.SetElement(e)
	}
	e.state.InitState()
	e.dirty = true
	e.RebuildIfNeeded()
}

func (e *StatefulElement) Update(newWidget Widget) {
	oldWidget := e.widget.(StatefulWidget)
	e.widget = newWidget
	e.state.DidUpdateWidget(oldWidget)
	e.MarkNeedsBuild()
}

func (e *StatefulElement) Unmount() {
	e.mounted = false
	e.cancelTasks()
	e.removeInheritedDependencies()
	if e.child != nil {
		e.child.Unmount()
		e.child = nil
	}
	if e.state != nil {
		e.state.Dispose()
	}
	e.removeFromTree()
}

func (e *StatefulElement) RebuildIfNeeded() {
	if !e.dirty || !e.mounted {
		return
	}
	e.dirty = false
	built := e.safeBuild(func() Widget {
		return e.state.Build(e)
	})
	e.child = updateChild(e.child, built, e, e.buildOwner, nil)
}

func (e *StatefulElement) VisitChildren(visitor func(Element) bool) {
	if e.child != nil {
		visitor(e.child)
	}
}

func (e *StatefulElement) RenderObject() render.Object {
	if e.child == nil {
		return nil
	}
	if child, ok := e.child.(interface{ RenderObject() render.Object }); ok {
		return child.RenderObject()
	}
	return nil
}

// StateOf returns the live State instance.
func (e *StatefulElement) StateOf() State { return e.state }

// RenderObjectElement hosts a RenderObjectWidget, owning exactly one render
// object and zero or more element children.
type RenderObjectElement struct {
	elementBase
	renderObject render.Object
	children     []Element
}

// NewRenderObjectElement creates an unmounted RenderObjectElement.
func NewRenderObjectElement() *RenderObjectElement {
	return &RenderObjectElement{}
}

func (e *RenderObjectElement) Mount(parent Element, slot any) {
	e.mountBase(e, parent, slot)
	e.mounted = true

	widget := e.widget.(RenderObjectWidget)
	e.renderObject = widget.CreateRenderObject(e)

	// Resolve the render-tree parent before registering with the pipeline
	// so the arena records the real parent/depth instead of treating every
	// render object as a root.
	e.renderParent = e.findRenderParent()
	parentID := tree.NodeID{}
	if e.renderParent != nil {
		parentID = e.renderParent.renderObjectNodeID()
	}
	if e.buildOwner != nil {
		e.renderObjectID = e.buildOwner.Pipeline().Insert(parentID, e.renderObject)
	}

	// Attach to the render tree before building children so a child's
	// own Mount observes a fully wired renderParent chain.
	if e.renderParent != nil {
		e.renderParent.insertRenderObjectChild(e.renderObject, slot)
	}

	e.dirty = true
	e.RebuildIfNeeded()
}

func (e *RenderObjectElement) Update(newWidget Widget) {
	e.widget = newWidget
	e.MarkNeedsBuild()
}

func (e *RenderObjectElement) Unmount() {
	e.mounted = false
	e.cancelTasks()
	e.removeInheritedDependencies()
	for _, child := range e.children {
		child.Unmount()
	}
	e.children = nil
	e.detachRenderObject()
	e.removeFromTree()
}

func (e *RenderObjectElement) RebuildIfNeeded() {
	if !e.dirty || !e.mounted {
		return
	}
	e.dirty = false

	widget := e.widget.(RenderObjectWidget)
	widget.UpdateRenderObject(e, e.renderObject)

	switch typed := e.widget.(type) {
	case interface{ ChildWidget() Widget }:
		childWidget := typed.ChildWidget()
		var child Element
		if len(e.children) > 0 {
			child = e.children[0]
		}
		child = updateChild(child, childWidget, e, e.buildOwner, nil)
		if child != nil {
			e.children = []Element{child}
		} else {
			e.children = nil
		}
	case interface{ ChildrenWidgets() []Widget }:
		widgets := typed.ChildrenWidgets()
		e.children = updateChildren(e, e.children, widgets, e.buildOwner)
		e.rebuildChildrenRenderList()
	}
}

func (e *RenderObjectElement) VisitChildren(visitor func(Element) bool) {
	for _, child := range e.children {
		if !visitor(child) {
			return
		}
	}
}

func (e *RenderObjectElement) RenderObject() render.Object    { return e.renderObject }
func (e *RenderObjectElement) renderObjectNodeID() tree.NodeID { return e.renderObjectID }

// UpdateSlot updates the slot and notifies the render parent of the move.
func (e *RenderObjectElement) UpdateSlot(newSlot any) {
	oldSlot := e.slot
	e.slot = newSlot
	if e.renderParent != nil {
		e.renderParent.moveRenderObjectChild(e.renderObject, oldSlot, newSlot)
	}
}

// moveRenderObjectChild is a no-op: rebuildChildrenRenderList runs once
// after updateChildren finishes, which is cheaper than tracking every
// individual move for the child-list sizes this reactor expects.
func (e *RenderObjectElement) moveRenderObjectChild(child render.Object, oldSlot, newSlot any) {}

func (e *RenderObjectElement) detachRenderObject() {
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

func (e *RenderObjectElement) insertRenderObjectChild(child render.Object, slot any) {
	if child == nil {
		return
	}
	if single, ok := e.renderObject.(interface{ SetChild(render.Object) }); ok {
		single.SetChild(child)
	}
}

func (e *RenderObjectElement) removeRenderObjectChild(child render.Object, slot any) {
	if child == nil {
		return
	}
	if single, ok := e.renderObject.(interface{ SetChild(render.Object) }); ok {
		single.SetChild(nil)
		return
	}
	e.rebuildChildrenRenderList()
}

func (e *RenderObjectElement) rebuildChildrenRenderList() {
	multi, ok := e.renderObject.(interface{ SetChildren([]render.Object) })
	if !ok {
		return
	}
	objects := make([]render.Object, 0, len(e.children))
	for _, child := range e.children {
		if provider, ok := child.(interface{ RenderObject() render.Object }); ok {
			if ro := provider.RenderObject(); ro != nil {
				objects = append(objects, ro)
			}
		}
	}
	multi.SetChildren(objects)
}

// slotEqual compares two slot values. Slots are either nil or IndexedSlot,
// both directly comparable, so this avoids reflect.DeepEqual on the hot
// reconciliation path.
func slotEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	sa, aOK := a.(IndexedSlot)
	sb, bOK := b.(IndexedSlot)
	if aOK && bOK {
		return sa == sb
	}
	return a == b
}

// moveChildSlot reassigns an already-mounted child's slot, the "detach/
// reattach" case tree.Tree.Reparent's doc comment calls out for keyed
// reconciliation. UpdateSlot only ever touches cached fields on the
// receiver (never re-reads its own or its parent's arena slot), so it is
// safe to run under a Mutate borrow of the child's own node: a genuinely
// reentrant attempt to move or reconcile that same child while this move is
// in flight observes tree.ErrInUse and panics instead of racing the move,
// matching spec's "reentrant tree mutation" fail-fast contract.
func moveChildSlot(existing Element, owner *BuildOwner, slot any) {
	id := nodeIDOf(existing)
	if owner == nil || id.IsNil() {
		existing.UpdateSlot(slot)
		return
	}
	err := owner.Elements().Mutate(id, func(self Element) Element {
		existing.UpdateSlot(slot)
		return self
	})
	if err != nil {
		panic(fmt.Sprintf("loom: reentrant slot mutation on %s: %v", id, err))
	}
}

func updateChild(existing Element, widget Widget, parent Element, owner *BuildOwner, slot any) Element {
	if widget == nil {
		if existing != nil {
			existing.Unmount()
		}
		return nil
	}
	if existing != nil && canUpdateWidget(existing.Widget(), widget) {
		if !slotEqual(existing.Slot(), slot) {
			moveChildSlot(existing, owner, slot)
		}
		existing.Update(widget)
		return existing
	}
	if existing != nil {
		existing.Unmount()
	}
	element := inflateWidget(widget, owner)
	element.Mount(parent, slot)
	return element
}

// updateChildren reconciles a multi-child parent's element list against a
// new widget list, then records the resulting child order in the parent's
// arena slot so the element tree's structure — not just each element's own
// bookkeeping fields — lives in the arena (spec §3's "the arena redesign is
// load bearing" applied to child ordering).
//
// The diff itself is not run inside a Tree.Mutate borrow of the parent:
// reconciling a render-object child calls findRenderParent, which reads the
// parent back out of the same arena slot via Get, and Get rejects a borrowed
// slot exactly like Mutate would — borrowing the parent for the whole pass
// would make every child's own Mount observe a false ErrInUse. The borrow
// discipline is exercised instead at the point that is genuinely reentrant:
// moving an already-mounted child to a new slot (see updateChild).
func updateChildren(parent Element, oldChildren []Element, newWidgets []Widget, owner *BuildOwner) []Element {
	result := reconcileChildren(parent, oldChildren, newWidgets, owner)

	parentID := nodeIDOf(parent)
	if owner == nil || parentID.IsNil() {
		return result
	}

	childIDs := make([]tree.NodeID, 0, len(result))
	for _, child := range result {
		if id := nodeIDOf(child); !id.IsNil() {
			childIDs = append(childIDs, id)
		}
	}
	_ = owner.Elements().SetChildren(parentID, childIDs)

	return result
}

// reconcileChildren runs the five-pass keyed diff: sync a matching run from
// the front, scan a matching run from the back without touching it yet,
// key-map what's left in the middle, sync the middle by key or position,
// then sync the back run and unmount whatever the middle pools didn't reuse.
func reconcileChildren(parent Element, oldChildren []Element, newWidgets []Widget, owner *BuildOwner) []Element {
	newChildren := make([]Element, 0, len(newWidgets))

	frontOld, frontNew := 0, 0
	oldCount, newCount := len(oldChildren), len(newWidgets)

	var prevChild Element

	// 1. Sync a run from the front while widgets line up positionally.
	for frontOld < oldCount && frontNew < newCount {
		oldChild := oldChildren[frontOld]
		newWidget := newWidgets[frontNew]
		if !canUpdateWidget(oldChild.Widget(), newWidget) {
			break
		}
		slot := IndexedSlot{Index: frontNew, PreviousSibling: prevChild}
		child := updateChild(oldChild, newWidget, parent, owner, slot)
		newChildren = append(newChildren, child)
		prevChild = child
		frontOld++
		frontNew++
	}

	// 2. Scan (don't process yet) a matching run from the back.
	backOld, backNew := oldCount, newCount
	for backOld > frontOld && backNew > frontNew {
		oldChild := oldChildren[backOld-1]
		newWidget := newWidgets[backNew-1]
		if !canUpdateWidget(oldChild.Widget(), newWidget) {
			break
		}
		backOld--
		backNew--
	}

	// 3. Key-map the remaining old middle. Non-comparable keys fall back
	// to positional matching against the remaining unkeyed pool.
	keyedPool := make(map[any]Element)
	unkeyedPool := make([]Element, 0)
	for i := frontOld; i < backOld; i++ {
		child := oldChildren[i]
		key := child.Widget().Key()
		if key != nil && isComparable(key) {
			keyedPool[key] = child
		} else {
			unkeyedPool = append(unkeyedPool, child)
		}
	}

	// 4. Sync the middle new widgets against the key map / positional pool.
	unkeyedCursor := 0
	for frontNew < backNew {
		newWidget := newWidgets[frontNew]
		key := newWidget.Key()
		var oldChild Element

		if key != nil && isComparable(key) {
			oldChild = keyedPool[key]
			delete(keyedPool, key)
		} else if unkeyedCursor < len(unkeyedPool) {
			candidate := unkeyedPool[unkeyedCursor]
			if candidate != nil && canUpdateWidget(candidate.Widget(), newWidget) {
				oldChild = candidate
				unkeyedPool[unkeyedCursor] = nil
			}
			unkeyedCursor++
		}

		slot := IndexedSlot{Index: len(newChildren), PreviousSibling: prevChild}
		child := updateChild(oldChild, newWidget, parent, owner, slot)
		newChildren = append(newChildren, child)
		prevChild = child
		frontNew++
	}

	// 5. Sync the back run that step 2 scanned past.
	for backNew < newCount {
		oldChild := oldChildren[backOld]
		newWidget := newWidgets[backNew]
		slot := IndexedSlot{Index: len(newChildren), PreviousSibling: prevChild}
		child := updateChild(oldChild, newWidget, parent, owner, slot)
		newChildren = append(newChildren, child)
		prevChild = child
		backOld++
		backNew++
	}

	// 6. Anything left over in the middle pools was not reused.
	for _, remaining := range keyedPool {
		remaining.Unmount()
	}
	for _, remaining := range unkeyedPool {
		if remaining != nil {
			remaining.Unmount()
		}
	}

	return newChildren
}

// canUpdateWidget reports whether existing's element can be reused for
// next: same concrete widget type and an equal reconciliation key.
func canUpdateWidget(existing Widget, next Widget) bool {
	if existing == nil || next == nil {
		return false
	}
	if reflect.TypeOf(existing) != reflect.TypeOf(next) {
		return false
	}

	existingKey, nextKey := existing.Key(), next.Key()
	if ek, ok := existingKey.(tree.Key); ok {
		nk, ok := nextKey.(tree.Key)
		if !ok || ek.Kind == tree.KeyUnique || nk.Kind == tree.KeyUnique {
			// A Unique key never matches, including against itself: spec
			// §4.2 "unique" means every occurrence forces a fresh inflate.
			return false
		}
		return ek == nk
	}
	return reflect.DeepEqual(existingKey, nextKey)
}

// isComparable reports whether v can be used as a map key. Slices, maps,
// and funcs cannot and are treated as unkeyed.
func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

// MountRoot inflates widget with no parent, making it the root of a new
// element tree attached to owner. The executor loop calls this once per
// view to mount that view's widget tree (spec's "Executor loop" component,
// §9 design notes: "the entry point that first builds a widget tree").
func MountRoot(widget Widget, owner *BuildOwner) Element {
	element := inflateWidget(widget, owner)
	element.Mount(nil, nil)
	return element
}

func inflateWidget(widget Widget, owner *BuildOwner) Element {
	if widget == nil {
		return nil
	}
	element := widget.CreateElement()
	if setter, ok := element.(interface{ setWidget(Widget) }); ok {
		setter.setWidget(widget)
	}
	if setter, ok := element.(interface{ setBuildOwner(*BuildOwner) }); ok {
		setter.setBuildOwner(owner)
	}
	return element
}
