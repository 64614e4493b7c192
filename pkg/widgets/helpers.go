package widgets

import (
	"github.com/loomui/loom/pkg/core"
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/render"
)

// withinBounds reports whether position falls inside a box of the given
// size, the common hit-test bounds check every leaf/single-child render
// object in this package uses.
func withinBounds(position geom.Offset, size geom.Size) bool {
	return position.X >= 0 && position.Y >= 0 && position.X < size.Width && position.Y < size.Height
}

// childOffset extracts the offset a parent assigned to child during
// layout, or the zero offset if none was assigned yet.
func childOffset(child render.Object) geom.Offset {
	if child == nil {
		return geom.Offset{}
	}
	if data, ok := child.ParentData().(render.BoxParentData); ok {
		return data.Offset
	}
	return geom.Offset{}
}

// PaddingAll wraps a child with uniform padding on all sides.
func PaddingAll(value float64, child core.Widget) Padding {
	return Padding{Insets: geom.EdgeInsetsAll(value), Child: child}
}

// PaddingSymmetric wraps a child with symmetric horizontal/vertical padding.
func PaddingSymmetric(horizontal, vertical float64, child core.Widget) Padding {
	return Padding{Insets: geom.EdgeInsetsSymmetric(horizontal, vertical), Child: child}
}

// HSpace creates a fixed-width horizontal spacer.
func HSpace(width float64) SizedBox { return SizedBox{Width: width} }

// VSpace creates a fixed-height vertical spacer.
func VSpace(height float64) SizedBox { return SizedBox{Height: height} }

// Spacer fills remaining space along the main axis of a Row or Column.
func Spacer() Expanded { return Expanded{Flex: 1, Child: SizedBox{}} }
