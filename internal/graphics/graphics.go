// Package graphics owns the window and the frame loop.
package graphics

import rl "github.com/gen2brain/raylib-go/raylib"

// MaxFrameTime caps the step handed to update so a stalled frame does not
// teleport the simulation.
const MaxFrameTime float32 = 0.033

// Window describes the window opened by Run.
type Window struct {
	Title  string
	Width  int32
	Height int32
	FPS    int32
}

// ClampFrameTime returns dt limited to [0, MaxFrameTime].
func ClampFrameTime(dt float32) float32 {
	return rl.Clamp(dt, 0, MaxFrameTime)
}

// Run opens a resizable window and loops until it is closed. Each frame it
// calls update with the capped frame time, clears to a dark backdrop and
// calls draw. ESC does not quit; it toggles the console.
func Run(w Window, update func(dt float32), draw func()) {
	if w.Width <= 0 || w.Height <= 0 {
		w.Width, w.Height = 1280, 800
	}
	if w.FPS <= 0 {
		w.FPS = 60
	}
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint | rl.FlagVsyncHint)
	rl.InitWindow(w.Width, w.Height, w.Title)
	defer rl.CloseWindow()

	rl.SetExitKey(rl.KeyNull)
	rl.SetTargetFPS(w.FPS)

	for !rl.WindowShouldClose() {
		update(ClampFrameTime(rl.GetFrameTime()))

		rl.BeginDrawing()
		rl.ClearBackground(backdrop)
		draw()
		rl.EndDrawing()
	}
}

var backdrop = rl.NewColor(18, 24, 34, 255)
