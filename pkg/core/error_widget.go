package core

import (
	"sync"

	"github.com/loomui/loom/pkg/errors"
)

// ErrorWidgetBuilder creates a fallback widget when a widget build fails.
// The builder receives the boundary error and returns a widget to display
// in place of the one that panicked.
type ErrorWidgetBuilder func(err *errors.BoundaryError) Widget

var (
	errorWidgetBuilder ErrorWidgetBuilder = DefaultErrorWidgetBuilder
	errorBuilderMu     sync.RWMutex
)

// SetErrorWidgetBuilder configures the global error widget builder. Pass
// nil to restore the default.
func SetErrorWidgetBuilder(builder ErrorWidgetBuilder) {
	errorBuilderMu.Lock()
	defer errorBuilderMu.Unlock()
	if builder == nil {
		errorWidgetBuilder = DefaultErrorWidgetBuilder
	} else {
		errorWidgetBuilder = builder
	}
}

// GetErrorWidgetBuilder returns the current error widget builder.
func GetErrorWidgetBuilder() ErrorWidgetBuilder {
	errorBuilderMu.RLock()
	defer errorBuilderMu.RUnlock()
	return errorWidgetBuilder
}

// DefaultErrorWidgetBuilder returns nil, signalling that elementBase's
// safeBuild should fall back to its own minimal errorPlaceholder rather
// than a widget-package error view.
func DefaultErrorWidgetBuilder(err *errors.BoundaryError) Widget {
	return nil
}

// ErrorBoundaryCapture is implemented by elements that want to intercept
// build errors from their descendants instead of letting them propagate to
// the global error widget builder.
type ErrorBoundaryCapture interface {
	// CaptureError handles a boundary error raised by a descendant. Returns
	// true if it captured and will display the error itself.
	CaptureError(err *errors.BoundaryError) bool
}
