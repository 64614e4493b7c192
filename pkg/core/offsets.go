package core

import (
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/render"
)

// ScrollOffsetProvider reports a paint-time scroll offset a render object
// applies to its descendants, on top of its own BoxParentData offset.
type ScrollOffsetProvider interface {
	ScrollOffset() geom.Offset
}

// GlobalOffsetOf accumulates the render-tree offset from the root down to
// element, by walking element's ancestors and summing each distinct render
// object's BoxParentData offset (plus any scroll offset it applies).
func GlobalOffsetOf(element Element) geom.Offset {
	var offset geom.Offset
	var lastRenderObject render.Object
	current := element
	for current != nil {
		if renderElement, ok := current.(interface{ RenderObject() render.Object }); ok {
			ro := renderElement.RenderObject()
			if ro != nil && ro != lastRenderObject {
				if data, ok := ro.ParentData().(*render.BoxParentData); ok && data != nil {
					offset.X += data.Offset.X
					offset.Y += data.Offset.Y
				}
				if provider, ok := ro.(ScrollOffsetProvider); ok {
					scroll := provider.ScrollOffset()
					offset.X += scroll.X
					offset.Y += scroll.Y
				}
				lastRenderObject = ro
			}
		}

		if parentProvider, ok := current.(interface{ parentElement() Element }); ok {
			current = parentProvider.parentElement()
		} else {
			break
		}
	}

	return offset
}
