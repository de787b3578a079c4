package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"tree-decor/internal/editor"
)

// Input is one frame's worth of raw pointer and keyboard state.
type Input struct {
	X, Y             float32
	Moved            bool
	PrimaryPressed   bool
	PrimaryReleased  bool
	SecondaryPressed bool
	Delete           bool
	Left, Right      bool
	Up, Down         bool
	Shift, Alt       bool
	Unfocused        bool
}

// readInput samples raylib. keyboard is false while the console has focus.
func readInput(keyboard bool) Input {
	pos := rl.GetMousePosition()
	d := rl.GetMouseDelta()
	in := Input{
		X:                pos.X,
		Y:                pos.Y,
		Moved:            d.X != 0 || d.Y != 0,
		PrimaryPressed:   rl.IsMouseButtonPressed(rl.MouseButtonLeft),
		PrimaryReleased:  rl.IsMouseButtonReleased(rl.MouseButtonLeft),
		SecondaryPressed: rl.IsMouseButtonPressed(rl.MouseButtonRight),
		Unfocused:        !rl.IsWindowFocused(),
	}
	if keyboard {
		in.Delete = rl.IsKeyPressed(rl.KeyDelete) || rl.IsKeyPressed(rl.KeyBackspace)
		in.Left = rl.IsKeyPressed(rl.KeyLeft) || rl.IsKeyPressedRepeat(rl.KeyLeft)
		in.Right = rl.IsKeyPressed(rl.KeyRight) || rl.IsKeyPressedRepeat(rl.KeyRight)
		in.Up = rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressedRepeat(rl.KeyUp)
		in.Down = rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressedRepeat(rl.KeyDown)
		in.Shift = rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)
		in.Alt = rl.IsKeyDown(rl.KeyLeftAlt) || rl.IsKeyDown(rl.KeyRightAlt)
	}
	return in
}

// NudgeStep picks the arrow-key step: shift is coarse, alt is fine and wins
// over shift.
func NudgeStep(shift, alt bool) float32 {
	switch {
	case alt:
		return editor.NudgeStepFine
	case shift:
		return editor.NudgeStepCoarse
	}
	return editor.NudgeStep
}

// Events turns in into editor events in the order they apply: pointer moves
// before presses, presses before releases, keys last. Losing focus during a
// drag cancels it.
func Events(in Input, dragging bool) []editor.Event {
	var out []editor.Event
	if in.Moved {
		out = append(out, editor.PointerMove{X: in.X, Y: in.Y})
	}
	if in.PrimaryPressed {
		out = append(out, editor.PointerDown{Button: editor.Primary, X: in.X, Y: in.Y})
	}
	if in.SecondaryPressed {
		out = append(out, editor.PointerDown{Button: editor.Secondary, X: in.X, Y: in.Y})
	}
	if in.PrimaryReleased {
		out = append(out, editor.PointerUp{Button: editor.Primary, X: in.X, Y: in.Y})
	}
	if in.Unfocused && dragging && !in.PrimaryReleased {
		out = append(out, editor.PointerCancel{})
	}
	if in.Delete {
		out = append(out, editor.Delete{})
	}
	step := NudgeStep(in.Shift, in.Alt)
	for _, k := range []struct {
		on  bool
		dir rl.Vector2
	}{
		{in.Left, rl.NewVector2(-1, 0)},
		{in.Right, rl.NewVector2(1, 0)},
		{in.Up, rl.NewVector2(0, 1)},
		{in.Down, rl.NewVector2(0, -1)},
	} {
		if k.on {
			out = append(out, editor.Nudge{Dir: k.dir, Step: step})
		}
	}
	return out
}
