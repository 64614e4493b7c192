package core

import "github.com/loomui/loom/pkg/render"

// RenderObjectWidget is a widget that creates and updates a render object
// directly, rather than delegating to a child widget.
type RenderObjectWidget interface {
	Widget
	CreateRenderObject(ctx BuildContext) render.Object
	UpdateRenderObject(ctx BuildContext, renderObject render.Object)
}

// StatelessBase provides the Key/CreateElement boilerplate a StatelessWidget
// needs, so embedding structs need only implement Build. Override Key by
// defining a method on the embedding type; Go's method shadowing rules let
// the embedder's own Key take precedence.
type StatelessBase struct{}

func (StatelessBase) Key() any             { return nil }
func (StatelessBase) CreateElement() Element { return NewStatelessElement() }

// StatefulBase provides the Key/CreateElement boilerplate a StatefulWidget
// needs, so embedding structs need only implement CreateState.
type StatefulBase struct{}

func (StatefulBase) Key() any             { return nil }
func (StatefulBase) CreateElement() Element { return NewStatefulElement() }

// InheritedBase provides the Key/CreateElement boilerplate an
// InheritedWidget needs, so embedding structs need only implement
// ChildWidget and UpdateShouldNotify.
type InheritedBase struct{}

func (InheritedBase) Key() any             { return nil }
func (InheritedBase) CreateElement() Element { return NewInheritedElement() }

// Stateful creates a stateful widget from an init and a build function. For
// lifecycle callbacks beyond Init/Build, use StatefulBuilder directly.
func Stateful[S any](
	init func() S,
	build func(state S, ctx BuildContext, setState func(func(S) S)) Widget,
) Widget {
	return &statefulBuilderWidget[S]{
		config: StatefulBuilder[S]{
			Init:  init,
			Build: build,
		},
	}
}

// StatefulBuilder provides a declarative way to create a stateful widget
// with full lifecycle support, without defining a dedicated State type.
type StatefulBuilder[S any] struct {
	// Init creates the initial state value. Required.
	Init func() S

	// Build creates the widget tree. Required. setState updates the value
	// and schedules a rebuild.
	Build func(state S, ctx BuildContext, setState func(func(S) S)) Widget

	// Dispose runs when the widget leaves the tree. Optional.
	Dispose func(state S)

	// DidChangeDependencies runs when an inherited dependency changes.
	// Optional.
	DidChangeDependencies func(state S, ctx BuildContext)

	// DidUpdateWidget runs when the widget configuration changes. Optional.
	DidUpdateWidget func(state S, oldWidget StatefulWidget)

	// WidgetKey is the reconciliation key for the produced widget.
	WidgetKey any
}

// Widget returns a Widget usable in the widget tree.
func (b StatefulBuilder[S]) Widget() Widget {
	return &statefulBuilderWidget[S]{config: b}
}

type statefulBuilderWidget[S any] struct {
	config StatefulBuilder[S]
}

func (s *statefulBuilderWidget[S]) CreateElement() Element {
	return NewStatefulElement()
}

func (s *statefulBuilderWidget[S]) Key() any {
	return s.config.WidgetKey
}

func (s *statefulBuilderWidget[S]) CreateState() State {
	return &statefulBuilderState[S]{config: s.config}
}

type statefulBuilderState[S any] struct {
	value   S
	config  StatefulBuilder[S]
	element *StatefulElement
}

func (s *statefulBuilderState[S]) SetElement(element *StatefulElement) {
	s.element = element
}

func (s *statefulBuilderState[S]) InitState() {
	if s.config.Init != nil {
		s.value = s.config.Init()
	}
}

func (s *statefulBuilderState[S]) Build(ctx BuildContext) Widget {
	if s.config.Build == nil {
		return nil
	}
	return s.config.Build(s.value, ctx, func(update func(S) S) {
		s.value = update(s.value)
		if s.element != nil {
			s.element.MarkNeedsBuild()
		}
	})
}

func (s *statefulBuilderState[S]) SetState(fn func()) {
	if fn != nil {
		fn()
	}
	if s.element != nil {
		s.element.MarkNeedsBuild()
	}
}

func (s *statefulBuilderState[S]) Dispose() {
	if s.config.Dispose != nil {
		s.config.Dispose(s.value)
	}
}

func (s *statefulBuilderState[S]) DidChangeDependencies() {
	if s.config.DidChangeDependencies != nil && s.element != nil {
		s.config.DidChangeDependencies(s.value, s.element)
	}
}

func (s *statefulBuilderState[S]) DidUpdateWidget(oldWidget StatefulWidget) {
	if s.config.DidUpdateWidget != nil {
		s.config.DidUpdateWidget(s.value, oldWidget)
	}
}
