package paint

import "github.com/loomui/loom/pkg/geom"

// ImageRef is an opaque handle to a decoded image resource, resolved by
// whatever backend renderer consumes a DisplayList. The core never decodes
// image bytes itself (spec §4.5.5 scopes image decoding out of the core).
type ImageRef uint64

// TextRun is a pre-shaped run of text and the font metrics needed to draw
// it without the canvas doing any shaping of its own. Shaping is delegated
// to a TextDelegate (spec §6 external interfaces); the canvas only replays
// already-shaped runs.
type TextRun struct {
	Text   string
	Size   geom.Size // bounding box of the shaped run, for layout bookkeeping
	FontID uint64
}

// ShapeKind distinguishes the shape commands a Canvas can record.
type ShapeKind int

const (
	ShapeRect ShapeKind = iota
	ShapeCircle
	ShapeLine
)

// Canvas receives the drawing commands a render object emits from its Paint
// method (spec §4.5.5). A Canvas is backed by a Recorder and produces an
// immutable DisplayList; it is never drawn onto directly by a backend.
type Canvas interface {
	// Save pushes the current transform/clip state.
	Save()
	// Restore pops the most recently saved transform/clip state.
	Restore()
	// Translate moves the origin by the given offset.
	Translate(dx, dy float64)
	// ClipRect restricts subsequent drawing to rect.
	ClipRect(rect geom.Rect)

	// DrawRect records a shape-draw command for a rectangle.
	DrawRect(rect geom.Rect, p Paint)
	// DrawCircle records a shape-draw command for a circle.
	DrawCircle(center geom.Offset, radius float64, p Paint)
	// DrawLine records a shape-draw command for a line segment.
	DrawLine(start, end geom.Offset, p Paint)

	// DrawImage records a textured-blit command.
	DrawImage(ref ImageRef, dst geom.Rect)
	// DrawText records a styled-text-run command.
	DrawText(run TextRun, position geom.Offset, p Paint)

	// PushLayer begins recording a child canvas-layer composited at offset
	// with the given clip (nil for unclipped) and blend mode. The returned
	// Canvas records into the new layer; PopLayer must be called on the
	// canvas PushLayer was called on (the parent) to finish the layer and
	// attach it to the parent's child-layer list.
	PushLayer(offset geom.Offset, clip *geom.Rect, blend BlendMode) Canvas

	// PopLayer finishes the most recently pushed child layer and attaches it
	// to this canvas's child-layer list.
	PopLayer()

	// Size returns the canvas's logical size.
	Size() geom.Size
}

type op interface{ isOp() }

type opSave struct{}
type opRestore struct{}
type opTranslate struct{ dx, dy float64 }
type opClipRect struct{ rect geom.Rect }
type opShape struct {
	kind      ShapeKind
	rect      geom.Rect // for ShapeRect
	center    geom.Offset
	radius    float64
	start, end geom.Offset
	paintIdx  int
}
type opImage struct {
	ref      ImageRef
	dst      geom.Rect
}
type opText struct {
	run      TextRun
	position geom.Offset
	paintIdx int
}
type opLayer struct {
	layer *DisplayList
	offset geom.Offset
	clip   *geom.Rect
	blend  BlendMode
}

func (opSave) isOp()      {}
func (opRestore) isOp()   {}
func (opTranslate) isOp() {}
func (opClipRect) isOp()  {}
func (opShape) isOp()     {}
func (opImage) isOp()     {}
func (opText) isOp()      {}
func (opLayer) isOp()     {}
