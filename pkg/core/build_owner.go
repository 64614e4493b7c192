package core

import (
	"fmt"
	"slices"
	"sync"

	"github.com/loomui/loom/pkg/render"
	"github.com/loomui/loom/pkg/tree"
)

// BuildOwner tracks dirty elements that need rebuilding and owns the
// render-object PipelineOwner those elements attach their render objects
// to. It is the executor loop's build-phase driver: ScheduleBuild enqueues
// work, FlushBuild drains it to a fixed point in depth order so a parent
// never rebuilds after a child it just created.
//
// BuildOwner also owns the element tree's backing arena: every mounted
// Element lives in elements, addressed by tree.NodeID, the same generational
// slotmap discipline the render-object tree already uses (spec §3's "the
// arena redesign is load bearing, not optional" applied to the element side
// as well as the render side).
type BuildOwner struct {
	dirty     []Element
	dirtySet  map[Element]bool
	pipeline  *render.PipelineOwner
	elements  *tree.Tree[Element]
	keys      *tree.KeyRegistry
	callbacks *CallbackBus
	scheduler Scheduler
	mu        sync.Mutex

	// OnNeedsFrame is called each time ScheduleBuild adds an element that
	// was not already in the dirty set, signalling the host that a frame
	// should be driven. Necessary for on-demand scheduling where
	// the frame loop is paused until explicitly woken. The callback bus's
	// Wake is wired to the same function in NewBuildOwner, so a callback
	// invocation wakes the host exactly like a dirty element does.
	OnNeedsFrame func()

	// MaxBuildPasses bounds how many times FlushBuild's drain-to-fixed-
	// point loop may re-sort and rebuild the dirty set in one call before
	// giving up and panicking, catching a widget that marks itself (or a
	// cycle of widgets that mark each other) dirty every single build
	// instead of settling. Zero means unbounded.
	MaxBuildPasses int
}

// NewBuildOwner creates a new BuildOwner with its own PipelineOwner and
// CallbackBus.
func NewBuildOwner() *BuildOwner {
	b := &BuildOwner{
		pipeline:  render.NewPipelineOwner(),
		elements:  tree.New[Element](),
		keys:      tree.NewKeyRegistry(),
		callbacks: NewCallbackBus(),
	}
	b.callbacks.Wake = func() {
		if b.OnNeedsFrame != nil {
			b.OnNeedsFrame()
		}
	}
	return b
}

// Pipeline returns the PipelineOwner render objects attach to.
func (b *BuildOwner) Pipeline() *render.PipelineOwner {
	return b.pipeline
}

// Elements returns the arena every mounted Element is inserted into on
// Mount and removed from on Unmount. Parent/child/self edges in elementBase
// are tree.NodeIDs into this arena rather than raw Element pointers.
func (b *BuildOwner) Elements() *tree.Tree[Element] {
	return b.elements
}

// Keys returns the registry that enforces spec §4.2's global-key contract:
// a widget whose Key() is a tree.Key of kind Global must be unique across
// the whole tree for the cycle it mounts in. Registration happens in
// mountBase and is keyed on the element's arena NodeID, not its widget
// value, so a reused element's key moves with it across updates instead of
// re-registering.
func (b *BuildOwner) Keys() *tree.KeyRegistry {
	return b.keys
}

// Bus returns the callback bus elements bind their handlers to and async
// tasks deliver results through (spec §4.6).
func (b *BuildOwner) Bus() *CallbackBus {
	return b.callbacks
}

// SetScheduler installs the host's async-task binding. Elements that call
// SpawnTask before a scheduler is installed get ErrNoScheduler.
func (b *BuildOwner) SetScheduler(scheduler Scheduler) {
	b.scheduler = scheduler
}

// Scheduler returns the installed async-task binding, or nil.
func (b *BuildOwner) Scheduler() Scheduler {
	return b.scheduler
}

// ScheduleBuild marks an element as needing rebuild, deduplicating repeat
// schedules within the same cycle.
func (b *BuildOwner) ScheduleBuild(element Element) {
	added := func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.dirtySet[element] {
			return false
		}
		if b.dirtySet == nil {
			b.dirtySet = make(map[Element]bool)
		}
		b.dirtySet[element] = true
		b.dirty = append(b.dirty, element)
		return true
	}()

	if added && b.OnNeedsFrame != nil {
		b.OnNeedsFrame()
	}
}

// NeedsWork reports whether there is a dirty element, pending layout or
// paint work, or a queued callback invocation (spec §4.3's termination
// condition, inverted: this is true until that condition holds).
func (b *BuildOwner) NeedsWork() bool {
	b.mu.Lock()
	hasDirty := len(b.dirty) > 0
	b.mu.Unlock()
	if hasDirty {
		return true
	}
	if !b.callbacks.IsEmpty() {
		return true
	}
	return b.pipeline.NeedsLayout() || b.pipeline.NeedsPaint()
}

// FlushCallbacks drains every queued callback invocation. The executor
// loop calls this before FlushBuild each turn: a callback's handler may
// call SetState (marking its element dirty) or otherwise schedule build/
// layout/paint work that FlushBuild and the render pipeline need to see
// (spec §4.6, "On the next scheduler turn, the reactor drains the bus").
func (b *BuildOwner) FlushCallbacks() {
	b.callbacks.Drain()
}

// FlushBuild rebuilds all dirty elements in depth-ascending order, draining
// to a fixed point: a rebuild can itself dirty new elements (an inherited
// widget notifying dependents further down the tree), so the loop repeats
// until nothing is left.
func (b *BuildOwner) FlushBuild() {
	passes := 0
	for {
		b.mu.Lock()
		if len(b.dirty) == 0 {
			b.mu.Unlock()
			return
		}

		passes++
		if b.MaxBuildPasses > 0 && passes > b.MaxBuildPasses {
			offenders := make([]string, 0, len(b.dirty))
			for _, element := range b.dirty {
				offenders = append(offenders, fmt.Sprintf("%T", element.Widget()))
			}
			b.mu.Unlock()
			panic(fmt.Sprintf("core: build did not settle after %d passes, still dirty: %v", b.MaxBuildPasses, offenders))
		}

		slices.SortFunc(b.dirty, func(a, other Element) int {
			return a.Depth() - other.Depth()
		})

		dirty := b.dirty
		b.dirty = nil
		clear(b.dirtySet)
		b.mu.Unlock()

		for _, element := range dirty {
			if mountable, ok := element.(interface{ isMounted() bool }); ok && !mountable.isMounted() {
				continue
			}
			element.RebuildIfNeeded()
		}
	}
}

// DrainToFixedPoint alternates FlushCallbacks and FlushBuild until neither
// produces further work, the build-phase half of spec §4.3's termination
// condition (the render pipeline's layout/paint flush is the other half,
// driven by the executor loop after this returns).
func (b *BuildOwner) DrainToFixedPoint() {
	for {
		b.FlushCallbacks()
		b.FlushBuild()

		b.mu.Lock()
		empty := len(b.dirty) == 0
		b.mu.Unlock()
		if empty && b.callbacks.IsEmpty() {
			return
		}
	}
}
