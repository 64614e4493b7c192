package paint

import "fmt"

// Style describes how a shape command fills or strokes its geometry.
type Style int

const (
	// StyleFill fills the shape interior.
	StyleFill Style = iota
	// StyleStroke draws only the outline.
	StyleStroke
	// StyleFillAndStroke fills and then strokes the outline.
	StyleFillAndStroke
)

func (s Style) String() string {
	switch s {
	case StyleFill:
		return "fill"
	case StyleStroke:
		return "stroke"
	case StyleFillAndStroke:
		return "fill_and_stroke"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// StrokeCap describes how stroked line endpoints are drawn.
type StrokeCap int

const (
	CapButt StrokeCap = iota
	CapRound
	CapSquare
)

// StrokeJoin describes how stroked corners are drawn.
type StrokeJoin int

const (
	JoinMiter StrokeJoin = iota
	JoinRound
	JoinBevel
)

// BlendMode controls how a child layer's content composites onto its
// parent layer (spec §4.5.5: "a list of child canvas-layers, each with its
// own offset, clip, and blend").
type BlendMode int

const (
	// BlendSrcOver composites normally: source over destination.
	BlendSrcOver BlendMode = iota
	// BlendSrc replaces the destination entirely, ignoring its content.
	BlendSrc
	// BlendMultiply multiplies source and destination channels.
	BlendMultiply
)

// Paint describes the fill/stroke styling applied to one shape command.
// Paints are interned in a Canvas's palette and commands reference them by
// index rather than embedding a copy (spec §4.5.5: "a paint palette").
type Paint struct {
	Color       Color
	Style       Style
	StrokeWidth float64
	StrokeCap   StrokeCap
	StrokeJoin  StrokeJoin
	Alpha       float64 // 0 (transparent) to 1 (opaque); multiplies Color's own alpha
}

// DefaultPaint is a fully-opaque black fill, matching a zero-value Paint
// with Alpha defaulted to 1.
func DefaultPaint() Paint {
	return Paint{Color: ColorBlack, Style: StyleFill, Alpha: 1}
}
