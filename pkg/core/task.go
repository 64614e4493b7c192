package core

import (
	"context"
	"errors"
)

// ErrNoScheduler is returned by SpawnTask when no Scheduler binding has
// been installed, the "NoScheduler" error spec §6/§7 has async spawning
// propagate to the caller rather than silently dropping the task.
var ErrNoScheduler = errors.New("core: no scheduler bound")

// TaskHandle lets the spawner cancel a running task directly. The reactor
// also cancels every task an element spawned when that element unmounts
// (spec §5: "async tasks are tied to the spawning element").
type TaskHandle struct {
	cancel context.CancelFunc
}

// Cancel stops the task. Safe to call more than once or on a zero value.
func (h TaskHandle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}

// Scheduler is the host binding for spec §6's spawn_local_task /
// spawn_shared_task: given a cancellable context and the function to run,
// it starts the task on whatever executor the host provides (a goroutine
// pool, a single-threaded local-task queue, ...). The core never awaits a
// spawned task inline; fn communicates back only through a CallbackBus or
// by calling the dirty-set Mark* methods through a task-scoped context
// (spec §4.6).
type Scheduler interface {
	Spawn(ctx context.Context, fn func(ctx context.Context)) error
}

// SchedulerFunc adapts a plain function to the Scheduler interface.
type SchedulerFunc func(ctx context.Context, fn func(ctx context.Context)) error

// Spawn implements Scheduler.
func (f SchedulerFunc) Spawn(ctx context.Context, fn func(ctx context.Context)) error {
	return f(ctx, fn)
}

// taskScope tracks every task one element spawned so they can all be
// cancelled together at unmount without the element remembering
// individual handles.
type taskScope struct {
	cancels []context.CancelFunc
}

func (s *taskScope) add(cancel context.CancelFunc) {
	s.cancels = append(s.cancels, cancel)
}

// cancelAll cancels every task this scope spawned and forgets them.
func (s *taskScope) cancelAll() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

// SpawnTask starts fn on scheduler with a context tied to scope's
// lifetime: when the owning element unmounts, the context fn observes is
// cancelled. fn must poll ctx.Done() at its own suspension points; the
// core has no way to preempt a task that ignores cancellation (spec §5's
// "tasks observe cancellation at their own suspension points").
func SpawnTask(scheduler Scheduler, scope *taskScope, fn func(ctx context.Context)) (TaskHandle, error) {
	if scheduler == nil {
		return TaskHandle{}, ErrNoScheduler
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := scheduler.Spawn(ctx, fn); err != nil {
		cancel()
		return TaskHandle{}, err
	}
	if scope != nil {
		scope.add(cancel)
	}
	return TaskHandle{cancel: cancel}, nil
}
