package paint

import "github.com/loomui/loom/pkg/geom"

// DisplayList is an immutable, replayable recording of one render object's
// paint commands: a paint palette, a head command list, and any child
// canvas-layers nested within it (spec §4.5.5). A repaint boundary caches
// its DisplayList across frames in which it is clean (spec §4.5.4).
type DisplayList struct {
	ops     []op
	palette []Paint
	size    geom.Size
}

// Size returns the size recorded when the display list was created.
func (d *DisplayList) Size() geom.Size { return d.size }

// CommandCount returns the number of top-level commands recorded, counting
// nested layers as a single command each. Used to verify the "no no-op
// draws" testable property (spec §8): paint command count should equal the
// number of non-degenerate draw calls a render object issued.
func (d *DisplayList) CommandCount() int { return len(d.ops) }

// Paint replays the recorded commands onto target, resolving each shape or
// text command's paint index against this display list's palette.
func (d *DisplayList) Paint(target Canvas) {
	for _, o := range d.ops {
		switch v := o.(type) {
		case opSave:
			target.Save()
		case opRestore:
			target.Restore()
		case opTranslate:
			target.Translate(v.dx, v.dy)
		case opClipRect:
			target.ClipRect(v.rect)
		case opShape:
			p := d.palette[v.paintIdx]
			switch v.kind {
			case ShapeRect:
				target.DrawRect(v.rect, p)
			case ShapeCircle:
				target.DrawCircle(v.center, v.radius, p)
			case ShapeLine:
				target.DrawLine(v.start, v.end, p)
			}
		case opImage:
			target.DrawImage(v.ref, v.dst)
		case opText:
			target.DrawText(v.run, v.position, d.palette[v.paintIdx])
		case opLayer:
			child := target.PushLayer(v.offset, v.clip, v.blend)
			v.layer.Paint(child)
			target.PopLayer()
		}
	}
}

// Recorder records drawing commands into a DisplayList. A Recorder is
// reusable across frames: call BeginRecording to start a fresh recording
// and discard whatever it held before.
type Recorder struct {
	size      geom.Size
	ops       []op
	palette   []Paint
	recording bool
	stack     []*layerCanvas // open child layers, pushed by PushLayer and finished by PopLayer
}

// BeginRecording starts a new recording session and returns a Canvas that
// records into it.
func (r *Recorder) BeginRecording(size geom.Size) Canvas {
	r.size = size
	r.ops = r.ops[:0]
	r.palette = r.palette[:0]
	r.recording = true
	return &recordingCanvas{recorder: r, size: size}
}

// EndRecording finishes recording and returns an immutable DisplayList.
func (r *Recorder) EndRecording() *DisplayList {
	if !r.recording {
		return &DisplayList{size: r.size}
	}
	r.recording = false
	ops := make([]op, len(r.ops))
	copy(ops, r.ops)
	palette := make([]Paint, len(r.palette))
	copy(palette, r.palette)
	return &DisplayList{ops: ops, palette: palette, size: r.size}
}

func (r *Recorder) append(o op) {
	if r.recording {
		r.ops = append(r.ops, o)
	}
}

// internPaint returns the palette index for p, reusing an existing entry
// when one already matches so repeated use of one Paint value (the common
// case: a widget reusing the same style across many shapes) doesn't bloat
// the palette.
func (r *Recorder) internPaint(p Paint) int {
	for i, existing := range r.palette {
		if existing == p {
			return i
		}
	}
	r.palette = append(r.palette, p)
	return len(r.palette) - 1
}

type recordingCanvas struct {
	recorder *Recorder
	size     geom.Size
	child    *Recorder // not set by this package; open layers live on Recorder.stack
}

func (c *recordingCanvas) Save()    { c.recorder.append(opSave{}) }
func (c *recordingCanvas) Restore() { c.recorder.append(opRestore{}) }

func (c *recordingCanvas) Translate(dx, dy float64) {
	c.recorder.append(opTranslate{dx: dx, dy: dy})
}

func (c *recordingCanvas) ClipRect(rect geom.Rect) {
	c.recorder.append(opClipRect{rect: rect})
}

func (c *recordingCanvas) DrawRect(rect geom.Rect, p Paint) {
	c.recorder.append(opShape{kind: ShapeRect, rect: rect, paintIdx: c.recorder.internPaint(p)})
}

func (c *recordingCanvas) DrawCircle(center geom.Offset, radius float64, p Paint) {
	c.recorder.append(opShape{kind: ShapeCircle, center: center, radius: radius, paintIdx: c.recorder.internPaint(p)})
}

func (c *recordingCanvas) DrawLine(start, end geom.Offset, p Paint) {
	c.recorder.append(opShape{kind: ShapeLine, start: start, end: end, paintIdx: c.recorder.internPaint(p)})
}

func (c *recordingCanvas) DrawImage(ref ImageRef, dst geom.Rect) {
	c.recorder.append(opImage{ref: ref, dst: dst})
}

func (c *recordingCanvas) DrawText(run TextRun, position geom.Offset, p Paint) {
	c.recorder.append(opText{run: run, position: position, paintIdx: c.recorder.internPaint(p)})
}

func (c *recordingCanvas) PushLayer(offset geom.Offset, clip *geom.Rect, blend BlendMode) Canvas {
	child := &Recorder{}
	childCanvas := child.BeginRecording(c.size)
	layer := &layerCanvas{recordingCanvas: childCanvas.(*recordingCanvas), parent: c.recorder, offset: offset, clip: clip, blend: blend, self: child}
	c.recorder.stack = append(c.recorder.stack, layer)
	return layer
}

// PopLayer finishes the layer most recently pushed on this canvas and
// appends it to this canvas's recording as a single layer command. It does
// nothing if no layer is open.
func (c *recordingCanvas) PopLayer() {
	n := len(c.recorder.stack)
	if n == 0 {
		return
	}
	top := c.recorder.stack[n-1]
	c.recorder.stack = c.recorder.stack[:n-1]
	c.recorder.append(opLayer{layer: top.self.EndRecording(), offset: top.offset, clip: top.clip, blend: top.blend})
}

func (c *recordingCanvas) Size() geom.Size { return c.size }

// layerCanvas is the Canvas returned by PushLayer: it records into the
// nested layer and keeps the offset, clip and blend that the parent
// canvas's PopLayer attaches the finished layer with.
type layerCanvas struct {
	*recordingCanvas
	parent *Recorder
	self   *Recorder
	offset geom.Offset
	clip   *geom.Rect
	blend  BlendMode
}
