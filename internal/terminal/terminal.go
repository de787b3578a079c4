// Package terminal is the in-editor console: a line log with an input bar,
// toggled with ESC, that runs "cmd ..." lines through the command registry.
// While closed it still shows the latest toast.
package terminal

import (
	"unicode/utf8"

	rl "github.com/gen2brain/raylib-go/raylib"

	"tree-decor/internal/commands"
	"tree-decor/internal/logger"
)

const (
	BarHeight = 40
	prompt    = "> "
	fontSize  = 20
	padding   = 8
	// Number of log lines drawn above the input bar when the console is open.
	maxLinesOnScreen = 14
	lineHeight       = fontSize + 4
	maxLineLen       = 200
)

var (
	// Reused every frame to avoid per-frame color allocations.
	termBarColor    = rl.NewColor(40, 40, 40, 255)
	termLineColor   = rl.NewColor(80, 80, 80, 255)
	termChatBgColor = rl.NewColor(24, 24, 24, 240)
	toastBgColor    = rl.NewColor(20, 30, 20, 220)
)

// Terminal is the console bar at the bottom of the screen.
type Terminal struct {
	log      *logger.Logger
	reg      *commands.Registry
	inputBuf string
	history  []string
	histPos  int
	open     bool
	font     rl.Font // optional; when set, Draw uses DrawTextEx instead of default font
}

// New returns a closed Terminal that logs lines and runs "cmd ..." through reg.
func New(log *logger.Logger, reg *commands.Registry) *Terminal {
	return &Terminal{log: log, reg: reg}
}

// IsOpen reports whether the console is visible and capturing the keyboard.
func (t *Terminal) IsOpen() bool {
	return t.open
}

// SetFont sets the font used to draw the console. Zero texture ID = raylib default.
func (t *Terminal) SetFont(font rl.Font) {
	t.font = font
}

// Submit runs one console line as if typed.
func (t *Terminal) Submit(line string) {
	t.log.Log(prompt + line)
	if len(t.history) == 0 || t.history[len(t.history)-1] != line {
		t.history = append(t.history, line)
	}
	t.histPos = len(t.history)

	args, isCmd := commands.Parse(line)
	if !isCmd {
		t.log.Log(`commands start with "cmd "; try "cmd help"`)
		return
	}
	if err := t.reg.Execute(args); err != nil {
		t.log.Log(err.Error())
	}
}

// Update handles ESC (toggle) and, when open, typing, paste, history and
// enter. Call once per frame. It reports whether the keyboard was consumed.
func (t *Terminal) Update() bool {
	if rl.IsKeyPressed(rl.KeyEscape) {
		t.open = !t.open
		return true
	}
	if !t.open {
		return false
	}
	// Paste: Ctrl+V (Windows/Linux) or Cmd+V (macOS)
	if rl.IsKeyPressed(rl.KeyV) && (rl.IsKeyDown(rl.KeyLeftControl) || rl.IsKeyDown(rl.KeyRightControl) || rl.IsKeyDown(rl.KeyLeftSuper) || rl.IsKeyDown(rl.KeyRightSuper)) {
		if pasted := rl.GetClipboardText(); pasted != "" {
			t.inputBuf += pasted
		}
	} else {
		for {
			c := rl.GetCharPressed()
			if c == 0 {
				break
			}
			t.inputBuf += string(rune(c))
		}
	}
	if rl.IsKeyPressed(rl.KeyBackspace) && len(t.inputBuf) > 0 {
		_, size := utf8.DecodeLastRuneInString(t.inputBuf)
		t.inputBuf = t.inputBuf[:len(t.inputBuf)-size]
	}
	if rl.IsKeyPressed(rl.KeyUp) && t.histPos > 0 {
		t.histPos--
		t.inputBuf = t.history[t.histPos]
	}
	if rl.IsKeyPressed(rl.KeyDown) && t.histPos < len(t.history) {
		t.histPos++
		t.inputBuf = ""
		if t.histPos < len(t.history) {
			t.inputBuf = t.history[t.histPos]
		}
	}
	if (rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeyKpEnter)) && t.inputBuf != "" {
		line := t.inputBuf
		t.inputBuf = ""
		t.Submit(line)
	}
	return true
}

func (t *Terminal) text(s string, x, y int, c rl.Color) {
	if t.font.Texture.ID != 0 {
		rl.DrawTextEx(t.font, s, rl.NewVector2(float32(x), float32(y)), float32(fontSize), 1, c)
		return
	}
	rl.DrawText(s, int32(x), int32(y), int32(fontSize), c)
}

// Draw draws the console when open, otherwise only the current toast.
func (t *Terminal) Draw() {
	screenW := int(rl.GetScreenWidth())
	screenH := int(rl.GetScreenHeight())
	if !t.open {
		t.drawToast(screenW, screenH)
		return
	}
	barY := screenH - BarHeight

	chatHeight := maxLinesOnScreen * lineHeight
	chatY := barY - chatHeight
	if chatY < 0 {
		chatHeight = barY
		chatY = 0
	}
	if chatHeight > 0 {
		rl.DrawRectangle(0, int32(chatY), int32(screenW), int32(chatHeight), termChatBgColor)
	}
	lines := t.log.Lines()
	start := max(0, len(lines)-maxLinesOnScreen)
	for i := start; i < len(lines); i++ {
		t.text(clip(lines[i]), padding, chatY+(i-start)*lineHeight+padding, rl.LightGray)
	}

	rl.DrawRectangle(0, int32(barY), int32(screenW), int32(BarHeight), termBarColor)
	rl.DrawRectangle(0, int32(barY), int32(screenW), 1, termLineColor)
	t.text(prompt+t.inputBuf+"|", padding, barY+padding, rl.White)
}

func (t *Terminal) drawToast(screenW, screenH int) {
	msg, ok := t.log.Toast()
	if !ok {
		return
	}
	msg = clip(msg)
	w := int(rl.MeasureText(msg, fontSize))
	if t.font.Texture.ID != 0 {
		w = int(rl.MeasureTextEx(t.font, msg, fontSize, 1).X)
	}
	x := (screenW - w) / 2
	y := screenH - BarHeight - 2*padding
	rl.DrawRectangle(int32(x-padding), int32(y-padding/2), int32(w+2*padding), int32(fontSize+padding), toastBgColor)
	t.text(msg, x, y, rl.RayWhite)
}

func clip(line string) string {
	if len(line) <= maxLineLen {
		return line
	}
	cut := maxLineLen - 3
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	return line[:cut] + "..."
}
