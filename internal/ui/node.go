package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Node is one overlay element. Class and ID are matched against the
// stylesheet. A Pinned node keeps the Bounds position set by code (the
// tooltip follows the pointer) instead of taking left/top from its style.
type Node struct {
	Type   string // "panel" or "label"
	Class  string
	ID     string
	Bounds rl.Rectangle
	Text   string
	Pinned bool
}

// NewNode creates a node with type and optional class, id and text.
func NewNode(typ, class, id, text string) *Node {
	return &Node{Type: typ, Class: class, ID: id, Text: text}
}

// MoveTo pins the node at x, y.
func (n *Node) MoveTo(x, y float32) {
	n.Pinned = true
	n.Bounds.X = x
	n.Bounds.Y = y
}
