// Package errors provides structured error handling for the loom reactor core.
package errors

import (
	"fmt"
	"time"
)

// Kind identifies the category of an error, following the taxonomy in the
// reactor's error handling design: programmer errors are fatal, tree
// inconsistencies are recoverable, resource exhaustion propagates, and
// external-renderer failures surface to the application.
type Kind int

const (
	// KindUnknown indicates an error of unknown origin.
	KindUnknown Kind = iota
	// KindProgrammer indicates a programmer error (colliding global keys,
	// a mistyped callback argument, reentrant tree mutation). Always fatal.
	KindProgrammer
	// KindTreeInconsistency indicates a scheduled operation referenced a
	// node that no longer exists (missing-during-rebuild, parent not found
	// during reparent). Recoverable: the offending entry is dropped.
	KindTreeInconsistency
	// KindResourceExhaustion indicates a downstream resource could not be
	// obtained (e.g. no scheduler bound for an async task).
	KindResourceExhaustion
	// KindExternalRenderer indicates a view binding reported an attach,
	// paint, or sync failure.
	KindExternalRenderer
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindBuild indicates a panic during a widget's Build().
	KindBuild
)

func (k Kind) String() string {
	switch k {
	case KindProgrammer:
		return "programmer"
	case KindTreeInconsistency:
		return "tree-inconsistency"
	case KindResourceExhaustion:
		return "resource-exhaustion"
	case KindExternalRenderer:
		return "external-renderer"
	case KindPanic:
		return "panic"
	case KindBuild:
		return "build"
	default:
		return "unknown"
	}
}

// ReactorError is a structured error carrying its category, the failing
// operation, and an optional underlying cause.
type ReactorError struct {
	// Op is the operation that failed (e.g. "reconciler.rebuild").
	Op string
	// Kind categorizes the error.
	Kind Kind
	// Err is the underlying error, if any.
	Err error
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *ReactorError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *ReactorError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g. "executor.flushBuild").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// BoundaryError represents a failure caught during a single phase of a
// cycle: build, layout, paint, hittest, or callback dispatch. It is the
// unified shape surfaced to error boundaries and the global handler.
//
// Possible Phase values: "build", "layout", "paint", "hittest", "callback".
type BoundaryError struct {
	// Phase is the phase where the error occurred.
	Phase string
	// Widget is the type name of the widget that failed (for build errors).
	Widget string
	// RenderObject is the type name of the render object that failed (for
	// layout/paint/hittest errors).
	RenderObject string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error (nil for panics).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BoundaryError) Error() string {
	typeName := e.Widget
	if typeName == "" {
		typeName = e.RenderObject
	}
	if e.Recovered != nil {
		if typeName != "" {
			return fmt.Sprintf("panic in %s (%s): %v", typeName, e.Phase, e.Recovered)
		}
		return fmt.Sprintf("%v", e.Recovered)
	}
	if e.Err != nil {
		if typeName != "" {
			return fmt.Sprintf("error in %s (%s): %v", typeName, e.Phase, e.Err)
		}
		return fmt.Sprintf("%v", e.Err)
	}
	if typeName != "" {
		return fmt.Sprintf("unknown error in %s (%s)", typeName, e.Phase)
	}
	return "unknown error"
}

func (e *BoundaryError) Unwrap() error {
	return e.Err
}

// Handler receives errors reported by the reactor.
type Handler interface {
	// HandleError is called for a general reactor error.
	HandleError(err *ReactorError)
	// HandlePanic is called when a panic is recovered outside any phase
	// boundary (e.g. during callback dispatch).
	HandlePanic(err *PanicError)
	// HandleBoundaryError is called when a phase boundary (build, layout,
	// paint, hittest) catches an error or recovers a panic.
	HandleBoundaryError(err *BoundaryError)
}
