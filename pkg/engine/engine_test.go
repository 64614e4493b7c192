package engine

import (
	"testing"

	"github.com/loomui/loom/pkg/core"
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/paint"
	"github.com/loomui/loom/pkg/render"
	"github.com/loomui/loom/pkg/tree"
)

// leafBox is a minimal leaf render object, standing in for the widget
// library: it sizes itself to whatever it's given and paints nothing.
type leafBox struct {
	render.BoxBase
}

func newLeafBox() *leafBox {
	b := &leafBox{}
	b.SetImpl(b)
	return b
}

func (b *leafBox) PerformLayout()                 { b.SetSize(b.Constraints().Biggest()) }
func (b *leafBox) Paint(ctx *render.PaintContext)  {}
func (b *leafBox) HitTest(position geom.Offset, result *render.HitTestResult) bool {
	result.Add(b, result.CurrentTransform())
	return true
}

type leafWidget struct{}

func (leafWidget) Key() any                    { return nil }
func (leafWidget) CreateElement() core.Element { return core.NewRenderObjectElement() }
func (leafWidget) CreateRenderObject(ctx core.BuildContext) render.Object {
	return newLeafBox()
}
func (leafWidget) UpdateRenderObject(ctx core.BuildContext, obj render.Object) {}

// recordingBinding is a render.View that counts notifications, for
// asserting RunFrame actually drove a layout+paint cycle.
type recordingBinding struct {
	attached int
	synced   int
	painted  int
	sized    geom.Size
}

func (v *recordingBinding) OnAttach(parent, id tree.NodeID)              { v.attached++ }
func (v *recordingBinding) OnDetach(id tree.NodeID)                      {}
func (v *recordingBinding) OnSizeChanged(id tree.NodeID, s geom.Size)    { v.sized = s }
func (v *recordingBinding) OnOffsetChanged(id tree.NodeID, o geom.Offset) {}
func (v *recordingBinding) OnPaint(id tree.NodeID, c *paint.DisplayList) { v.painted++ }
func (v *recordingBinding) OnSync()                                      { v.synced++ }

func TestExecutorRunFrameLaysOutAndPaints(t *testing.T) {
	ex := NewExecutor(DefaultConfig())
	binding := &recordingBinding{}
	handle := ex.AttachView(binding, leafWidget{})

	if binding.attached == 0 {
		t.Fatal("expected at least one attach notification when the view was mounted")
	}

	if err := ex.RunFrame(handle, geom.Size{Width: 100, Height: 80}); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}

	if handle.Size() != (geom.Size{Width: 100, Height: 80}) {
		t.Fatalf("view size = %v, want {100 80}", handle.Size())
	}
	if binding.synced == 0 {
		t.Fatal("expected OnSync after a frame completed layout and paint")
	}
	if ex.NeedsFrame() {
		t.Fatal("NeedsFrame should be false immediately after a clean frame with nothing pending")
	}
}

func TestExecutorDispatchRequestsAndDrains(t *testing.T) {
	ex := NewExecutor(DefaultConfig())
	binding := &recordingBinding{}
	handle := ex.AttachView(binding, leafWidget{})

	ran := false
	ex.Dispatch(func() { ran = true })

	if !ex.NeedsFrame() {
		t.Fatal("NeedsFrame should be true once a callback is dispatched")
	}
	if err := ex.RunFrame(handle, geom.Size{Width: 10, Height: 10}); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	if !ran {
		t.Fatal("dispatched callback should have run during RunFrame")
	}
}

func TestExecutorDetachViewUnmounts(t *testing.T) {
	ex := NewExecutor(DefaultConfig())
	binding := &recordingBinding{}
	handle := ex.AttachView(binding, leafWidget{})
	_ = ex.RunFrame(handle, geom.Size{Width: 5, Height: 5})

	ex.DetachView(handle)
	if ex.NeedsFrame() {
		t.Fatal("NeedsFrame should be false once the only view is detached and nothing else is pending")
	}
}

func TestExecutorBuildCycleBudgetPanics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBuildPasses = 2
	ex := NewExecutor(cfg)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected FlushBuild to panic once the cycle budget is exceeded")
		}
	}()

	owner := ex.Owner()
	widget := oscillatingWidget{owner: owner}
	element := core.MountRoot(widget, owner)
	element.MarkNeedsBuild()
	owner.FlushBuild()
}

// oscillatingWidget marks itself dirty again every time it builds,
// simulating a widget that never settles.
type oscillatingWidget struct {
	owner *core.BuildOwner
}

func (w oscillatingWidget) Key() any                    { return nil }
func (w oscillatingWidget) CreateElement() core.Element { return core.NewStatelessElement() }
func (w oscillatingWidget) Build(ctx core.BuildContext) core.Widget {
	if el, ok := ctx.(core.Element); ok {
		el.MarkNeedsBuild()
	}
	return nil
}

func TestLoadConfigMissingFileReturnsDefault(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}
