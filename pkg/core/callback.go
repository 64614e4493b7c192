package core

import (
	"fmt"
	"reflect"
	"sync"
)

// CallbackID identifies one bound callback by owner element and expected
// argument type, the "(owner-element, argument-type)" pair spec §4.6 and
// the GLOSSARY define a callback as.
type CallbackID struct {
	Owner Element
	Type  reflect.Type
}

func (id CallbackID) String() string {
	if id.Type == nil {
		return fmt.Sprintf("Callback(%p, <untyped>)", id.Owner)
	}
	return fmt.Sprintf("Callback(%p, %s)", id.Owner, id.Type)
}

// Callback is the typed handle a build() result hands out (e.g. a
// button's onPressed). Because Go generics check A at compile time, the
// runtime downcast-and-panic spec §4.6 describes for the "public,
// type-safe API" collapses to a static guarantee here. The erased path
// (CallbackBus.CallUnchecked, for scheduler-internal use and tests) is
// still checked at runtime: CallbackBus.Drain panics on a mismatched type.
type Callback[A any] struct {
	id  CallbackID
	bus *CallbackBus
}

// BindCallback registers handler as owner's callback for argument type A
// on bus and returns a handle invokable from any goroutine. Re-binding the
// same (owner, A) pair replaces the previous handler, which is how a
// rebuild refreshes a callback's closure without changing its identity.
func BindCallback[A any](bus *CallbackBus, owner Element, handler func(A)) Callback[A] {
	var zero A
	id := CallbackID{Owner: owner, Type: reflect.TypeOf(zero)}
	bus.register(id, func(arg any) {
		a, _ := arg.(A)
		handler(a)
	})
	return Callback[A]{id: id, bus: bus}
}

// Call enqueues arg for delivery on the bus's next drain and wakes the
// scheduler. Safe to call from any thread (spec §4.6, §5).
func (c Callback[A]) Call(arg A) {
	if c.bus == nil {
		return
	}
	c.bus.CallUnchecked(c.id, arg)
}

// ID returns the handle's owner/type identity.
func (c Callback[A]) ID() CallbackID { return c.id }

// BindStateCallback registers handler as s's element's callback for
// argument type A, reading the bus off the element's BuildOwner so
// widgets never have to thread a *CallbackBus through by hand. Returns a
// zero Callback if s hasn't mounted yet.
func BindStateCallback[A any](s *StateBase, handler func(A)) Callback[A] {
	element := s.Element()
	if element == nil || element.buildOwner == nil {
		return Callback[A]{}
	}
	return BindCallback(element.buildOwner.Bus(), element, handler)
}

// Unregister removes the handler so further Call/CallUnchecked invocations
// targeting this id are dropped instead of panicking on a missing
// handler. Unmounting an element does not call this; a handler stays
// registered until it is unregistered here or replaced by a re-bind.
func (c Callback[A]) Unregister() {
	if c.bus != nil {
		c.bus.unregister(c.id)
	}
}

type invocation struct {
	id  CallbackID
	arg any
}

// CallbackBus is the thread-safe producer / cooperative-consumer queue
// spec §4.6 describes: any goroutine may enqueue an invocation, but only
// the update thread drains it (spec §5's single-owner model). Draining
// dispatches to the owning element's registered handler and wakes the
// executor loop so the resulting state mutation is observed on the next
// cycle.
type CallbackBus struct {
	mu       sync.Mutex
	queue    []invocation
	handlers map[CallbackID]func(any)

	// Wake is invoked (outside the lock) the first time an invocation
	// lands on an otherwise-empty queue, mirroring the dirty-set wake
	// flag so a host can drive both off the same frame-request path.
	Wake func()
}

// NewCallbackBus creates an empty bus.
func NewCallbackBus() *CallbackBus {
	return &CallbackBus{handlers: make(map[CallbackID]func(any))}
}

func (b *CallbackBus) register(id CallbackID, handler func(any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[id] = handler
}

func (b *CallbackBus) unregister(id CallbackID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
}

// CallUnchecked enqueues an invocation by id without the static type
// safety Callback[A] provides. Spec §4.6/§6 reserve this for the
// scheduler's own internal plumbing (e.g. re-delivering a callback whose
// static type has been erased) and for tests that construct a CallbackID
// directly; Drain still enforces the type match against the id's
// registered type, so a mismatched arg panics there rather than silently
// corrupting a downcast.
func (b *CallbackBus) CallUnchecked(id CallbackID, arg any) {
	b.mu.Lock()
	b.queue = append(b.queue, invocation{id: id, arg: arg})
	wasEmpty := len(b.queue) == 1
	wake := b.Wake
	b.mu.Unlock()

	if wasEmpty && wake != nil {
		wake()
	}
}

// IsEmpty reports whether the bus has no pending invocations, part of
// spec §4.3/§8's termination condition ("needs_build ∪ needs_layout ∪
// needs_paint = ∅ ∧ callback-bus = ∅").
func (b *CallbackBus) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue) == 0
}

// Drain runs every queued invocation against its registered handler and
// clears the queue. An invocation whose id has no registered handler
// (never bound, or since unregistered) is silently dropped, matching the
// "missing-during-rebuild" recoverable category in spec §7. Must only be
// called from the update thread.
func (b *CallbackBus) Drain() {
	b.mu.Lock()
	pending := b.queue
	b.queue = nil
	b.mu.Unlock()

	for _, inv := range pending {
		b.mu.Lock()
		handler, ok := b.handlers[inv.id]
		b.mu.Unlock()
		if !ok {
			continue
		}
		if inv.id.Type != nil && inv.arg != nil && reflect.TypeOf(inv.arg) != inv.id.Type {
			panic(fmt.Sprintf("core: callback %s invoked with mismatched argument type %T", inv.id, inv.arg))
		}
		handler(inv.arg)
	}
}
