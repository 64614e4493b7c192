package render

import (
	"github.com/loomui/loom/pkg/geom"
	"github.com/loomui/loom/pkg/paint"
	"github.com/loomui/loom/pkg/tree"
)

// View is the external renderer's binding for one view root's subtree
// (spec §4.5.6). Notifications are fanned out per view instead of
// globally, so a host with several windows or surfaces only hears about
// the render objects that belong to each one. The core delivers paint
// commands; the view owns pixels (spec §6).
type View interface {
	// OnAttach is called when a new render object is attached (or moved)
	// within this view, with the id of its render-tree parent (the zero
	// NodeID if the render object is the view's own root).
	OnAttach(parent tree.NodeID, id tree.NodeID)
	// OnDetach is called when a render object leaves this view.
	OnDetach(id tree.NodeID)
	// OnSizeChanged is called after layout whenever a render object in
	// this view produces a size different from its previous one.
	OnSizeChanged(id tree.NodeID, size geom.Size)
	// OnOffsetChanged is called whenever a parent assigns a render
	// object in this view a new offset.
	OnOffsetChanged(id tree.NodeID, offset geom.Offset)
	// OnPaint delivers the canvas a render object in this view just
	// painted (or repainted).
	OnPaint(id tree.NodeID, canvas *paint.DisplayList)
	// OnSync is called once layout and paint have both completed for
	// the current update cycle.
	OnSync()
}

// ViewRoot is implemented by the render-view variant of render object
// (spec §3's render-object variant list: "render-box or render-view"):
// a render object that owns a View binding for its subtree and marks
// itself as a relayout/repaint boundary by construction.
type ViewRoot interface {
	Object
	// Binding returns the View this render object owns, or nil if none
	// has attached yet.
	Binding() View
}
