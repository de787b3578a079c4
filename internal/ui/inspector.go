package ui

import "fmt"

// Selection is what the inspector shows for the selected decoration.
// ui does not import the editor; the app copies the fields in.
type Selection struct {
	Name        string
	CatalogID   string
	Position    [3]float32
	Scale       float32
	Attribution string
	Note        string
}

// Inspector is the right-hand panel describing the selected decoration.
type Inspector struct {
	panel    *Node
	title    *Node
	name     *Node
	position *Node
	scale    *Node
	by       *Node
	note     *Node
}

// NewInspector creates the panel nodes (.inspector, .inspector-title,
// .inspector-line with per-line ids).
func NewInspector() *Inspector {
	return &Inspector{
		panel:    NewNode("panel", "inspector", "", ""),
		title:    NewNode("label", "inspector-title", "", "Selected"),
		name:     NewNode("label", "inspector-line", "inspector-name", ""),
		position: NewNode("label", "inspector-line", "inspector-position", ""),
		scale:    NewNode("label", "inspector-line", "inspector-scale", ""),
		by:       NewNode("label", "inspector-line", "inspector-by", ""),
		note:     NewNode("label", "inspector-line", "inspector-note", ""),
	}
}

// AppendNodes refreshes the labels from sel and appends the panel to dst.
// dst is returned unchanged when visible is false.
func (in *Inspector) AppendNodes(dst []*Node, visible bool, sel Selection) []*Node {
	if !visible {
		return dst
	}
	name := sel.Name
	if name == "" {
		name = sel.CatalogID
	}
	in.name.Text = "Name: " + name
	in.position.Text = fmt.Sprintf("Position: %.2f, %.2f, %.2f", sel.Position[0], sel.Position[1], sel.Position[2])
	in.scale.Text = fmt.Sprintf("Scale: %.2f", sel.Scale)
	in.by.Text = "By: " + orDash(sel.Attribution)
	in.note.Text = "Note: " + orDash(sel.Note)
	return append(dst, in.panel, in.title, in.name, in.position, in.scale, in.by, in.note)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
