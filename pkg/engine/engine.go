// Package engine drives the executor loop: draining dispatched host
// callbacks, settling build and the callback bus to a fixed point, then
// running layout and paint for every attached view (spec component #9,
// grounded in the teacher's appRunner.Paint/Dispatch/RequestFrame loop).
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/loomui/loom/pkg/core"
	reactorerrors "github.com/loomui/loom/pkg/errors"
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/paint"
	"github.com/loomui/loom/pkg/render"
)

// Executor owns one BuildOwner (and the PipelineOwner/ViewManager it in
// turn owns) and runs it through repeated frames against every attached
// view. A host embedder creates one Executor per running application,
// installs a core.Scheduler for async tasks, attaches one ViewHandle per
// window/surface, and calls RunFrame whenever NeedsFrame reports true.
type Executor struct {
	owner *core.BuildOwner

	mu    sync.Mutex
	views map[*ViewHandle]struct{}

	dispatchMu    sync.Mutex
	dispatchQueue []func()
	pendingFrame  atomic.Bool
}

// NewExecutor creates an Executor configured by cfg, wiring the
// BuildOwner's OnNeedsFrame hook to RequestFrame so a dirty element or
// drained callback wakes the host exactly like an explicit RequestFrame
// call, and its MaxBuildPasses cycle budget (spec §4.7).
func NewExecutor(cfg Config) *Executor {
	ex := &Executor{
		owner: core.NewBuildOwner(),
		views: make(map[*ViewHandle]struct{}),
	}
	ex.owner.OnNeedsFrame = ex.RequestFrame
	ex.owner.MaxBuildPasses = cfg.MaxBuildPasses
	return ex
}

// Owner returns the executor's BuildOwner, for installing a Scheduler
// (core.BuildOwner.SetScheduler) or reading the shared callback bus.
func (ex *Executor) Owner() *core.BuildOwner { return ex.owner }

// ViewHandle is one attached view: its mounted element tree and the
// render-view root that owns its render-object subtree.
type ViewHandle struct {
	root     core.Element
	viewRoot *render.RenderView
}

// RootElement returns the element tree mounted for this view.
func (h *ViewHandle) RootElement() core.Element { return h.root }

// Size returns the view's current size, as last computed by RunFrame.
func (h *ViewHandle) Size() geom.Size {
	if h.viewRoot == nil {
		return geom.Size{}
	}
	return h.viewRoot.Size()
}

// HitTest runs a hit-test pass against this view at position (spec
// §4.5.6/§7). It returns the render objects found in paint order;
// resolving those into gesture recognizers or focus changes is
// widget-library-adjacent machinery this core does not implement.
func (h *ViewHandle) HitTest(position geom.Offset) *render.HitTestResult {
	result := &render.HitTestResult{}
	if h.viewRoot != nil {
		h.viewRoot.HitTest(position, result)
	}
	return result
}

// AttachView mounts rootWidget as a new element tree whose render-object
// root is a render.RenderView bound to binding, making binding the
// View (spec §4.5.6) that receives attach/detach/size/offset/paint/sync
// notifications for everything in this view's subtree.
func (ex *Executor) AttachView(binding render.View, rootWidget core.Widget) *ViewHandle {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	element := core.MountRoot(viewRootWidget{binding: binding, child: rootWidget}, ex.owner)
	viewRoot, _ := element.RenderObject().(*render.RenderView)
	handle := &ViewHandle{root: element, viewRoot: viewRoot}
	ex.views[handle] = struct{}{}
	return handle
}

// DetachView unmounts a view's element tree (which detaches and removes
// its render objects, cancelling any tasks its elements spawned) and
// stops driving it.
func (ex *Executor) DetachView(handle *ViewHandle) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	delete(ex.views, handle)
	if handle.root != nil {
		handle.root.Unmount()
	}
}

// Dispatch schedules fn to run on the executor's thread at the start of
// the next RunFrame call. Safe to call from any goroutine — this is the
// host-level counterpart to core.CallbackBus: CallbackBus carries
// per-element typed callbacks, Dispatch carries arbitrary host-level
// work (e.g. "a platform timer fired, apply its effect before the next
// frame").
func (ex *Executor) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	ex.dispatchMu.Lock()
	ex.dispatchQueue = append(ex.dispatchQueue, fn)
	ex.dispatchMu.Unlock()
	ex.RequestFrame()
}

func (ex *Executor) drainDispatchQueue() []func() {
	ex.dispatchMu.Lock()
	queue := ex.dispatchQueue
	ex.dispatchQueue = nil
	ex.dispatchMu.Unlock()
	return queue
}

// RequestFrame marks that a new frame should run even if nothing else
// reports dirty, e.g. an external animation driver ticking outside the
// reactor's own dirty-tracking.
func (ex *Executor) RequestFrame() { ex.pendingFrame.Store(true) }

// NeedsFrame reports whether the host should call RunFrame again: a
// dispatched host callback is queued, a frame was explicitly requested,
// or the BuildOwner has dirty elements, pending layout/paint, or a
// queued bus callback (spec §4.3's termination condition, inverted).
func (ex *Executor) NeedsFrame() bool {
	ex.dispatchMu.Lock()
	hasDispatch := len(ex.dispatchQueue) > 0
	ex.dispatchMu.Unlock()
	return hasDispatch || ex.pendingFrame.Load() || ex.owner.NeedsWork()
}

// RunFrame drains dispatched host callbacks, settles build and the
// callback bus to a fixed point (core.BuildOwner.DrainToFixedPoint),
// then lays out and paints handle's view at the given logical size,
// recovering and reporting any panic instead of crashing the host.
func (ex *Executor) RunFrame(handle *ViewHandle, size geom.Size) (err error) {
	defer reactorerrors.RecoverWithCallback("engine.RunFrame", func(r any) {
		err = fmt.Errorf("panic during frame: %v", r)
	})

	for _, fn := range ex.drainDispatchQueue() {
		fn()
	}
	ex.pendingFrame.Store(false)

	ex.owner.DrainToFixedPoint()

	pipeline := ex.owner.Pipeline()
	if handle.viewRoot != nil {
		pipeline.FlushLayoutForRoot(handle.viewRoot, geom.Tight(size))
	}

	for _, boundary := range pipeline.DirtyPaintRoots() {
		paintBoundaryToLayer(boundary)
	}
	pipeline.FlushPaint()

	return nil
}

// paintBoundaryToLayer records boundary's subtree into a fresh display
// list and caches it, mirroring the teacher's paintBoundaryToLayer: every
// dirty repaint boundary gets repainted in isolation, and clean
// boundaries beneath it replay their own cached layer instead
// (PaintContext.PaintChildWithLayer enforces that during the recording).
func paintBoundaryToLayer(boundary render.Object) {
	var recorder paint.Recorder
	canvas := recorder.BeginRecording(boundary.Size())
	boundary.Paint(&render.PaintContext{Canvas: canvas})
	layer := recorder.EndRecording()

	if setter, ok := boundary.(interface {
		SetLayer(*paint.DisplayList)
		ClearNeedsPaint()
	}); ok {
		setter.SetLayer(layer)
		setter.ClearNeedsPaint()
	}
}

// viewRootWidget adapts an external render.View binding into the element
// tree: its render object is a render.RenderView, and rootWidget mounts
// as that RenderView's single child, so the first real render object the
// child subtree produces attaches as the view's child exactly the way any
// other nested RenderObjectElement attaches to its renderObjectHost
// parent (element.go's existing insertRenderObjectChild machinery, no
// changes needed there).
type viewRootWidget struct {
	binding render.View
	child   core.Widget
}

func (w viewRootWidget) Key() any                  { return nil }
func (w viewRootWidget) CreateElement() core.Element { return core.NewRenderObjectElement() }

func (w viewRootWidget) CreateRenderObject(ctx core.BuildContext) render.Object {
	return render.NewRenderView(w.binding)
}

func (w viewRootWidget) UpdateRenderObject(ctx core.BuildContext, obj render.Object) {
	if rv, ok := obj.(*render.RenderView); ok {
		rv.Attach(w.binding)
	}
}

func (w viewRootWidget) ChildWidget() core.Widget { return w.child }
