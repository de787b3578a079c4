// Package ui draws the decorator's 2D overlay: a status line, the hover
// tooltip and the inspector for the selected decoration. Nodes are styled by
// a small stylesheet with .class and #id selectors.
package ui

import (
	_ "embed"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const defaultFontSize = 18

//go:embed overlay.css
var overlayCSS string

// DefaultStylesheet returns the built-in overlay stylesheet.
func DefaultStylesheet() *Stylesheet {
	sheet, err := ParseCSS(overlayCSS)
	if err != nil {
		return &Stylesheet{}
	}
	return sheet
}

// Engine holds the stylesheet and the nodes for the current frame and draws
// them in order. Styles are resolved once per node set and cached; call
// SetNodes with a different slice (or Invalidate) when classes change.
// Text uses the loaded font if any, otherwise raylib's default font.
type Engine struct {
	sheet  *Stylesheet
	nodes  []*Node
	styles map[*Node]ComputedStyle
	font   rl.Font
}

// New returns an engine using DefaultStylesheet.
func New() *Engine {
	return &Engine{sheet: DefaultStylesheet(), styles: map[*Node]ComputedStyle{}}
}

// LoadCSS replaces the stylesheet with the file at path.
func (e *Engine) LoadCSS(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sheet, err := ParseCSS(string(data))
	if err != nil {
		return err
	}
	e.SetStylesheet(sheet)
	return nil
}

// SetStylesheet replaces the stylesheet.
func (e *Engine) SetStylesheet(sheet *Stylesheet) {
	e.sheet = sheet
	e.Invalidate()
}

// Stylesheet returns the current stylesheet.
func (e *Engine) Stylesheet() *Stylesheet {
	return e.sheet
}

// LoadFont loads a TTF font for overlay text. Needs the GL context.
func (e *Engine) LoadFont(path string) error {
	f := rl.LoadFont(path)
	if f.Texture.ID == 0 {
		return os.ErrNotExist
	}
	if e.font.Texture.ID != 0 {
		rl.UnloadFont(e.font)
	}
	e.font = f
	return nil
}

// Font returns the loaded font; its texture ID is 0 when none is loaded.
func (e *Engine) Font() rl.Font {
	return e.font
}

// SetNodes replaces the nodes drawn by the next Draw.
func (e *Engine) SetNodes(nodes []*Node) {
	e.nodes = nodes
}

// Invalidate drops the cached styles.
func (e *Engine) Invalidate() {
	clear(e.styles)
}

// Style returns the computed style for n, resolving and caching it on first use.
func (e *Engine) Style(n *Node) ComputedStyle {
	if st, ok := e.styles[n]; ok {
		return st
	}
	st := ResolveProps(e.match(n))
	e.styles[n] = st
	return st
}

// match merges the declarations of every rule that selects n; later rules win.
func (e *Engine) match(n *Node) map[string]string {
	merged := make(map[string]string)
	if e.sheet == nil {
		return merged
	}
	for _, rule := range e.sheet.Rules {
		sel := rule.Selector
		if len(sel) < 2 {
			continue
		}
		hit := (sel[0] == '.' && n.Class == sel[1:]) || (sel[0] == '#' && n.ID == sel[1:])
		if !hit {
			continue
		}
		for k, v := range rule.Props {
			merged[k] = v
		}
	}
	return merged
}

// Layout returns the on-screen rectangle of n for a screen of sw x sh
// pixels, given the measured size of its text.
func Layout(n *Node, st ComputedStyle, textW, textH, sw, sh int32) rl.Rectangle {
	w, h := st.Width, st.Height
	if w <= 0 {
		w = textW + 2*st.Padding
	}
	if h <= 0 {
		h = textH + 2*st.Padding
	}
	var x, y int32
	if n.Pinned {
		x, y = int32(n.Bounds.X), int32(n.Bounds.Y)
		x = min(max(x, 0), max(sw-w, 0))
		y = min(max(y, 0), max(sh-h, 0))
	} else {
		x, y = st.Left, st.Top
		if st.LeftPct >= 0 {
			x = (sw - w) * st.LeftPct / 100
		}
		if st.TopPct >= 0 {
			y = (sh - h) * st.TopPct / 100
		}
	}
	return rl.NewRectangle(float32(x), float32(y), float32(w), float32(h))
}

// Draw draws the current nodes.
func (e *Engine) Draw() {
	sw := int32(rl.GetScreenWidth())
	sh := int32(rl.GetScreenHeight())
	for _, n := range e.nodes {
		st := e.Style(n)
		if st.Hidden {
			continue
		}
		size := e.measure(n.Text, st.FontSize)
		r := Layout(n, st, int32(size.X), int32(size.Y), sw, sh)
		n.Bounds = r
		if st.Background.A > 0 {
			rl.DrawRectangleRec(r, st.Background)
		}
		if st.HasBorder && r.Width > 0 && r.Height > 0 {
			rl.DrawRectangleLinesEx(r, 1, st.Border)
		}
		if n.Text == "" {
			continue
		}
		pos := rl.NewVector2(r.X+float32(st.Padding), r.Y+float32(st.Padding))
		if e.font.Texture.ID != 0 {
			rl.DrawTextEx(e.font, n.Text, pos, float32(st.FontSize), 1, st.Color)
		} else {
			rl.DrawText(n.Text, int32(pos.X), int32(pos.Y), st.FontSize, st.Color)
		}
	}
}

func (e *Engine) measure(text string, size int32) rl.Vector2 {
	if text == "" {
		return rl.Vector2{}
	}
	if e.font.Texture.ID != 0 {
		return rl.MeasureTextEx(e.font, text, float32(size), 1)
	}
	return rl.MeasureTextEx(rl.GetFontDefault(), text, float32(size), float32(size)/10)
}
