package widgets

import (
	"reflect"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/loomui/loom/pkg/core"
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/paint"
	"github.com/loomui/loom/pkg/render"
)

// TextDelegate measures a run of text without performing real glyph
// shaping. Font shaping and text layout are consumed via this delegate
// rather than implemented in the core (explicitly out of scope).
type TextDelegate interface {
	// Measure returns the size a run of text occupies, wrapping at
	// maxWidth if the delegate supports wrapping (maxWidth <= 0 means
	// unbounded).
	Measure(text string, maxWidth float64) geom.Size
}

// InheritedTextDelegate makes a TextDelegate available to every Text
// descendant in O(1), the scope-copied mechanism every inherited value in
// this tree uses (spec §4.4).
type InheritedTextDelegate struct {
	core.InheritedBase
	Delegate TextDelegate
	Child    core.Widget
}

func (w InheritedTextDelegate) ChildWidget() core.Widget { return w.Child }

func (w InheritedTextDelegate) UpdateShouldNotify(old core.InheritedWidget) bool {
	return w.Delegate != old.(InheritedTextDelegate).Delegate
}

var textDelegateType = reflect.TypeOf(InheritedTextDelegate{})

func resolveTextDelegate(ctx core.BuildContext) TextDelegate {
	value := ctx.DependOnInherited(textDelegateType, nil)
	if value == nil {
		return nil
	}
	return value.(InheritedTextDelegate).Delegate
}

// Text displays a single string, measured by the nearest
// InheritedTextDelegate ancestor and painted as one shaped TextRun.
type Text struct {
	Content string
	Color   paint.Color
}

func (t Text) Key() any                    { return nil }
func (t Text) CreateElement() core.Element { return core.NewRenderObjectElement() }

func (t Text) CreateRenderObject(ctx core.BuildContext) render.Object {
	box := &renderText{text: t.Content, color: t.Color, delegate: resolveTextDelegate(ctx)}
	box.SetImpl(box)
	return box
}

func (t Text) UpdateRenderObject(ctx core.BuildContext, obj render.Object) {
	box := obj.(*renderText)
	box.text = t.Content
	box.color = t.Color
	box.delegate = resolveTextDelegate(ctx)
	box.MarkNeedsLayout()
	box.MarkNeedsPaint()
}

type renderText struct {
	render.BoxBase
	text     string
	color    paint.Color
	delegate TextDelegate
}

func (r *renderText) PerformLayout() {
	constraints := r.Constraints()
	if r.delegate == nil {
		r.SetSize(constraints.Constrain(geom.Size{}))
		return
	}
	r.SetSize(constraints.Constrain(r.delegate.Measure(r.text, constraints.MaxWidth)))
}

func (r *renderText) Paint(ctx *render.PaintContext) {
	size := r.Size()
	if size.IsEmpty() {
		return
	}
	run := paint.TextRun{Text: r.text, Size: size}
	ctx.Canvas.DrawText(run, geom.Offset{}, paint.Paint{Color: r.color, Style: paint.StyleFill, Alpha: 1})
}

func (r *renderText) HitTest(position geom.Offset, result *render.HitTestResult) bool {
	if !withinBounds(position, r.Size()) {
		return false
	}
	result.Add(r, result.CurrentTransform())
	return true
}

// ImageFontDelegate is a reference TextDelegate backed by a fixed bitmap
// glyph atlas (golang.org/x/image/font/basicfont), giving the delegate
// contract a concrete, testable implementation without depending on a real
// shaping engine.
type ImageFontDelegate struct {
	Face font.Face
}

// NewImageFontDelegate returns a delegate using the stock 7x13 bitmap font.
func NewImageFontDelegate() ImageFontDelegate {
	return ImageFontDelegate{Face: basicfont.Face7x13}
}

// Measure sums each rune's advance for the width and uses the face's line
// height for height; maxWidth wraps onto additional lines greedily when
// positive.
func (d ImageFontDelegate) Measure(text string, maxWidth float64) geom.Size {
	face := d.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	lineHeight := fixedToFloat(face.Metrics().Height)

	var width, lineWidth float64
	lines := 1
	for _, r := range text {
		advance, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		delta := fixedToFloat(advance)
		if maxWidth > 0 && lineWidth+delta > maxWidth && lineWidth > 0 {
			lines++
			lineWidth = 0
		}
		lineWidth += delta
		if lineWidth > width {
			width = lineWidth
		}
	}
	return geom.Size{Width: width, Height: lineHeight * float64(lines)}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
