package render

import (
	"testing"

	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/tree"
)

// fixedBox is a leaf render object used only by tests: it reports a fixed
// intrinsic size and never paints anything.
type fixedBox struct {
	BoxBase
	want geom.Size
}

func newFixedBox(size geom.Size) *fixedBox {
	b := &fixedBox{want: size}
	b.SetImpl(b)
	return b
}

func (b *fixedBox) PerformLayout() {
	b.SetSize(b.Constraints().Constrain(b.want))
}

func (b *fixedBox) Paint(ctx *PaintContext) {}

func (b *fixedBox) HitTest(position geom.Offset, result *HitTestResult) bool {
	return false
}

func TestLayoutSkipsWhenCleanAndUnchanged(t *testing.T) {
	owner := NewPipelineOwner()
	box := newFixedBox(geom.Size{Width: 10, Height: 10})
	owner.Insert(tree.NodeID{}, box)

	c := geom.Tight(geom.Size{Width: 20, Height: 20})
	box.Layout(c, false)
	if box.Size() != (geom.Size{Width: 20, Height: 20}) {
		t.Fatalf("Size = %+v", box.Size())
	}

	box.SetSize(geom.Size{}) // prove the second Layout call is actually a no-op
	box.Layout(c, false)
	if box.Size() != (geom.Size{}) {
		t.Errorf("expected second Layout with unchanged constraints to skip PerformLayout")
	}
}

func TestMarkNeedsLayoutWalksToBoundary(t *testing.T) {
	owner := NewPipelineOwner()
	root := newFixedBox(geom.Size{Width: 100, Height: 100})
	rootID := owner.Insert(tree.NodeID{}, root)
	root.Layout(geom.Tight(geom.Size{Width: 100, Height: 100}), false)

	child := newFixedBox(geom.Size{Width: 10, Height: 10})
	childID := owner.Insert(rootID, child)
	// A loose parent means the child inherits the root's relayout boundary
	// rather than becoming its own (spec §4.5.3).
	child.Layout(geom.Loose(geom.Size{Width: 100, Height: 100}), true)

	if child.RelayoutBoundary() != rootID {
		t.Fatalf("child should inherit root as its relayout boundary, got %v want %v", child.RelayoutBoundary(), rootID)
	}

	child.MarkNeedsLayout()
	if _, dirty := owner.dirtyLayout[rootID]; !dirty {
		t.Error("expected root to be scheduled for layout when child below a loose boundary is marked dirty")
	}
	if _, dirty := owner.dirtyLayout[childID]; dirty {
		t.Error("only the boundary should be scheduled, not the intermediate node")
	}
}

func TestRepaintBoundaryCachesLayer(t *testing.T) {
	owner := NewPipelineOwner()
	box := newFixedBox(geom.Size{Width: 10, Height: 10})
	owner.Insert(tree.NodeID{}, box)
	box.Layout(geom.Tight(geom.Size{Width: 10, Height: 10}), false)

	if box.NeedsPaint() == false {
		t.Fatal("a freshly inserted render object should need its first paint")
	}
	box.ClearNeedsPaint()
	if box.NeedsPaint() {
		t.Error("ClearNeedsPaint should clear the dirty flag")
	}
	box.MarkNeedsPaint()
	if !box.NeedsPaint() {
		t.Error("MarkNeedsPaint should set the dirty flag again")
	}
}
