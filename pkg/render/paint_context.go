package render

import (
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/paint"
)

// HitTestEntry records one render object a hit test pass found, along with
// the transform accumulated from the root down to that object's local
// coordinate frame at the moment of the hit (spec §4.5.4: "an entry records
// (render-object-id, transform-at-hit)").
type HitTestEntry struct {
	Object    Object
	Transform geom.Offset
}

// HitTestResult collects the render objects a hit test pass found, in
// paint order (front-most first), per spec §4.5.6. It also carries the
// coordinate-transform stack spec §4.5.4 describes: a render object calls
// PushOffset with its child's offset before descending into that child's
// HitTest and PopOffset on return, so CurrentTransform always reflects the
// accumulated offset down to whatever object is being tested right now.
type HitTestResult struct {
	Entries []HitTestEntry

	transform geom.Offset
	stack     []geom.Offset
}

// PushOffset records a child offset before descending into its HitTest.
func (h *HitTestResult) PushOffset(offset geom.Offset) {
	h.stack = append(h.stack, offset)
	h.transform.X += offset.X
	h.transform.Y += offset.Y
}

// PopOffset undoes the most recent PushOffset.
func (h *HitTestResult) PopOffset() {
	if len(h.stack) == 0 {
		return
	}
	last := h.stack[len(h.stack)-1]
	h.stack = h.stack[:len(h.stack)-1]
	h.transform.X -= last.X
	h.transform.Y -= last.Y
}

// CurrentTransform returns the transform accumulated by PushOffset calls
// still in effect, i.e. the offset from the root to whatever local frame is
// being tested right now.
func (h *HitTestResult) CurrentTransform() geom.Offset { return h.transform }

// Add appends target to the result, recording transform as the
// transform-at-hit (ordinarily the caller's CurrentTransform(), read after
// any PushOffset for target's own subtree has already been popped).
func (h *HitTestResult) Add(target Object, transform geom.Offset) {
	h.Entries = append(h.Entries, HitTestEntry{Object: target, Transform: transform})
}

// PaintContext threads the active Canvas and the accumulated
// transform/clip state through a paint pass (spec §4.5.5).
type PaintContext struct {
	Canvas paint.Canvas

	clipStack      []geom.Rect
	transformStack []geom.Offset
	transform      geom.Offset
}

// PushTranslation records a translation delta, both on the canvas and in
// the context's own accumulated-transform bookkeeping (needed for culling
// math that doesn't have canvas-side introspection).
func (p *PaintContext) PushTranslation(dx, dy float64) {
	p.transformStack = append(p.transformStack, geom.Offset{X: dx, Y: dy})
	p.transform.X += dx
	p.transform.Y += dy
}

// PopTranslation undoes the most recent PushTranslation.
func (p *PaintContext) PopTranslation() {
	if len(p.transformStack) == 0 {
		return
	}
	last := p.transformStack[len(p.transformStack)-1]
	p.transformStack = p.transformStack[:len(p.transformStack)-1]
	p.transform.X -= last.X
	p.transform.Y -= last.Y
}

// PushClipRect intersects localRect (translated to global coordinates)
// with the current clip and pushes the result.
func (p *PaintContext) PushClipRect(localRect geom.Rect) {
	global := localRect.Translate(p.transform.X, p.transform.Y)
	if len(p.clipStack) > 0 {
		global = p.clipStack[len(p.clipStack)-1].Intersect(global)
	}
	p.clipStack = append(p.clipStack, global)
}

// PopClipRect removes the most recently pushed clip.
func (p *PaintContext) PopClipRect() {
	if len(p.clipStack) > 0 {
		p.clipStack = p.clipStack[:len(p.clipStack)-1]
	}
}

// CurrentClipBounds returns the effective clip in global coordinates, or
// (zero, false) if nothing is currently clipped.
func (p *PaintContext) CurrentClipBounds() (geom.Rect, bool) {
	if len(p.clipStack) == 0 {
		return geom.Rect{}, false
	}
	return p.clipStack[len(p.clipStack)-1], true
}

// CurrentTransform returns the accumulated translation.
func (p *PaintContext) CurrentTransform() geom.Offset { return p.transform }

// PaintChild paints a child at offset, culling it entirely if its bounds
// fall outside the current clip.
func (p *PaintContext) PaintChild(child Object, offset geom.Offset) {
	if child == nil || p.shouldCull(child, offset) {
		return
	}
	p.Canvas.Save()
	p.Canvas.Translate(offset.X, offset.Y)
	p.PushTranslation(offset.X, offset.Y)
	child.Paint(p)
	p.PopTranslation()
	p.Canvas.Restore()
}

// PaintChildWithLayer paints child at offset, replaying its cached layer
// instead of calling Paint when it is a clean repaint boundary (spec
// §4.5.4: "a clean repaint boundary's cached output is reused rather than
// repainting its subtree").
func (p *PaintContext) PaintChildWithLayer(child Object, offset geom.Offset) {
	if child == nil || p.shouldCull(child, offset) {
		return
	}
	p.Canvas.Save()
	p.Canvas.Translate(offset.X, offset.Y)
	p.PushTranslation(offset.X, offset.Y)

	if boundary, ok := child.(interface {
		IsRepaintBoundary() bool
		Layer() *paint.DisplayList
		NeedsPaint() bool
	}); ok && boundary.IsRepaintBoundary() {
		if layer := boundary.Layer(); layer != nil && !boundary.NeedsPaint() {
			layer.Paint(p.Canvas)
			p.PopTranslation()
			p.Canvas.Restore()
			return
		}
	}

	child.Paint(p)
	p.PopTranslation()
	p.Canvas.Restore()
}

type paintBoundsProvider interface {
	PaintBounds() geom.Rect
}

func (p *PaintContext) shouldCull(child Object, offset geom.Offset) bool {
	clip, ok := p.CurrentClipBounds()
	if !ok {
		return false
	}
	var local geom.Rect
	if provider, ok := child.(paintBoundsProvider); ok {
		local = provider.PaintBounds()
		if local.IsEmpty() {
			return false
		}
	} else {
		size := child.Size()
		if size.Width <= 0 || size.Height <= 0 {
			return false
		}
		local = geom.RectFromLTWH(0, 0, size.Width, size.Height)
	}
	global := local.Translate(p.transform.X+offset.X, p.transform.Y+offset.Y)
	return clip.Intersect(global).IsEmpty()
}
