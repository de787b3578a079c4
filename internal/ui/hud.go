package ui

import (
	"fmt"
	"strings"
)

// Status is the one-line summary in the top-left corner.
type Status struct {
	Mode     string
	Active   string
	Scale    float32
	Count    int
	Selected bool
	Dragging bool
	SnowOn   bool
	Pending  int
}

// HUD owns the status line and the hover tooltip.
type HUD struct {
	status  *Node
	tooltip *Node
}

// NewHUD creates the .status and .tooltip nodes.
func NewHUD() *HUD {
	return &HUD{
		status:  NewNode("label", "status", "status", ""),
		tooltip: NewNode("label", "tooltip", "tooltip", ""),
	}
}

// StatusText formats st for the status line.
func StatusText(st Status) string {
	parts := []string{st.Mode}
	if st.Mode != "view" {
		parts = append(parts, fmt.Sprintf("toy: %s", orDash(st.Active)), fmt.Sprintf("scale %.2f", st.Scale))
	}
	parts = append(parts, fmt.Sprintf("%d placed", st.Count))
	switch {
	case st.Dragging:
		parts = append(parts, "dragging")
	case st.Selected:
		parts = append(parts, "selected")
	}
	if st.Pending > 0 {
		parts = append(parts, fmt.Sprintf("loading %d", st.Pending))
	}
	if !st.SnowOn {
		parts = append(parts, "snow off")
	}
	return strings.Join(parts, " | ")
}

// TooltipText returns the hover text: the name, then the attribution line,
// then the note when present.
func TooltipText(name, attribution, note string) string {
	lines := []string{name, "by " + attribution}
	if note != "" {
		lines = append(lines, note)
	}
	return strings.Join(lines, "\n")
}

// AppendNodes adds the status line, and the tooltip at (x+14, y+14) when
// tip is non-empty.
func (h *HUD) AppendNodes(dst []*Node, st Status, tip string, x, y float32) []*Node {
	h.status.Text = StatusText(st)
	dst = append(dst, h.status)
	if tip == "" {
		return dst
	}
	h.tooltip.Text = tip
	h.tooltip.MoveTo(x+14, y+14)
	return append(dst, h.tooltip)
}
