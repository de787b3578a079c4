// Package debug draws the optional top-right overlay: FPS, heap size and the
// scene counters the editor reports.
package debug

import (
	"fmt"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	fontSize   = 20
	padding    = 12
	lineHeight = fontSize + 4
	// Text is only refreshed every updateInterval frames to limit allocations.
	updateInterval = 30
)

// Counters are the scene numbers shown under FPS/Mem.
type Counters struct {
	Decorations int
	Particles   int
	Textures    int
	Pending     int
	Fetches     int64
}

// String is the counts overlay line.
func (c Counters) String() string {
	return fmt.Sprintf("Decor: %d  Snow: %d  Tex: %d (+%d, %d fetched)", c.Decorations, c.Particles, c.Textures, c.Pending, c.Fetches)
}

// Debug holds the overlay switches. All overlays are off by default.
type Debug struct {
	ShowFPS      bool
	ShowMemAlloc bool
	ShowCounts   bool
	// Counts is polled when ShowCounts is set.
	Counts func() Counters

	font       rl.Font
	frameCount uint32
	lines      [3]string
	memStats   runtime.MemStats
}

// New returns a Debug overlay with everything hidden.
func New() *Debug {
	return &Debug{}
}

// SetFont sets the overlay font. Zero texture ID = raylib default.
func (d *Debug) SetFont(font rl.Font) {
	d.font = font
}

// Toggle flips an overlay by name ("fps", "mem", "counts"). Unknown names report false.
func (d *Debug) Toggle(name string) bool {
	switch name {
	case "fps":
		d.ShowFPS = !d.ShowFPS
	case "mem":
		d.ShowMemAlloc = !d.ShowMemAlloc
	case "counts":
		d.ShowCounts = !d.ShowCounts
	default:
		return false
	}
	d.frameCount = updateInterval - 1
	return true
}

// Lines returns the overlay text for the enabled parts, refreshing it every
// updateInterval calls.
func (d *Debug) Lines() []string {
	d.frameCount++
	if d.frameCount%updateInterval == 0 || d.lines == [3]string{} {
		d.refresh()
	}
	out := make([]string, 0, 3)
	if d.ShowFPS {
		out = append(out, d.lines[0])
	}
	if d.ShowMemAlloc {
		out = append(out, d.lines[1])
	}
	if d.ShowCounts && d.Counts != nil {
		out = append(out, d.lines[2])
	}
	return out
}

func (d *Debug) refresh() {
	d.lines[0] = fmt.Sprintf("FPS: %d", rl.GetFPS())
	if d.ShowMemAlloc {
		runtime.ReadMemStats(&d.memStats)
	}
	d.lines[1] = fmt.Sprintf("Mem: %.2f MiB", float64(d.memStats.Alloc)/(1024*1024))
	if d.Counts != nil {
		d.lines[2] = d.Counts().String()
	}
}

// Draw renders the enabled overlays at the top-right in green. Call after
// the scene and the console.
func (d *Debug) Draw() {
	lines := d.Lines()
	if len(lines) == 0 {
		return
	}
	screenW := float32(rl.GetScreenWidth())
	y := float32(padding)
	for _, text := range lines {
		if d.font.Texture.ID != 0 {
			w := rl.MeasureTextEx(d.font, text, fontSize, 1).X
			rl.DrawTextEx(d.font, text, rl.NewVector2(screenW-w-padding, y), fontSize, 1, rl.Green)
		} else {
			w := float32(rl.MeasureText(text, fontSize))
			rl.DrawText(text, int32(screenW-w-padding), int32(y), fontSize, rl.Green)
		}
		y += lineHeight
	}
}
