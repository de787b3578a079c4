package editor

import (
	"strings"

	"tree-decor/internal/decor"
	"tree-decor/internal/raycast"
)

// NoAttribution is shown when neither a decoration nor its entry says who made it.
const NoAttribution = "—"

// Tooltip describes the decoration under the pointer.
type Tooltip struct {
	Decoration  *decor.Decoration
	Name        string
	Attribution string
	Note        string
	X, Y        float32
}

// Hover returns the tooltip for the decoration under (x, y), if any. It works
// in view mode too and never changes state. While dragging nothing is shown.
func (c *Controller) Hover(x, y float32) (Tooltip, bool) {
	if c.dragging || c.session.Closed() {
		return Tooltip{}, false
	}
	hit := c.caster.CastPointer(x, y, c.viewport, c.camera, c.Billboards())
	if hit.Kind != raycast.HitDecoration {
		return Tooltip{}, false
	}
	d := c.store.At(hit.Index)
	if d == nil {
		return Tooltip{}, false
	}
	tip := Tooltip{Decoration: d, Attribution: d.Attribution, Note: strings.TrimSpace(d.Note), X: x, Y: y}
	if e, ok := c.session.Catalog.Lookup(d.CatalogID); ok {
		tip.Name = e.Name
		if tip.Attribution == "" {
			tip.Attribution = e.Attribution
		}
		if tip.Note == "" {
			tip.Note = strings.TrimSpace(e.Note)
		}
	}
	if tip.Attribution == "" {
		tip.Attribution = NoAttribution
	}
	return tip, true
}
