package editor

import rl "github.com/gen2brain/raylib-go/raylib"

// Button identifies a pointer button.
type Button int

const (
	Primary Button = iota
	Secondary
)

// Event is anything Controller.Handle accepts: pointer input or a command.
type Event interface{ event() }

// PointerDown is a button press at viewport pixel (X, Y).
type PointerDown struct {
	Button Button
	X, Y   float32
}

// PointerMove is pointer motion to (X, Y).
type PointerMove struct{ X, Y float32 }

// PointerUp is a button release.
type PointerUp struct {
	Button Button
	X, Y   float32
}

// PointerCancel aborts pointer interaction (focus loss, capture lost).
type PointerCancel struct{}

// Delete removes the selected decoration.
type Delete struct{}

// Deselect clears the selection.
type Deselect struct{}

// SetScale sets the selected decoration's scale, or the placement scale when
// nothing is selected.
type SetScale struct{ Value float32 }

// SelectCatalog picks the catalog entry new decorations use.
type SelectCatalog struct{ ID string }

// Clear removes every decoration.
type Clear struct{}

// Nudge moves the selected decoration Step units along Dir, a direction in
// camera space (X right, Y up).
type Nudge struct {
	Dir  rl.Vector2
	Step float32
}

// Nudge step sizes for plain, coarse and fine moves.
const (
	NudgeStep       float32 = 0.02
	NudgeStepCoarse float32 = 0.06
	NudgeStepFine   float32 = 0.008
)

func (PointerDown) event()   {}
func (PointerMove) event()   {}
func (PointerUp) event()     {}
func (PointerCancel) event() {}
func (Delete) event()        {}
func (Deselect) event()      {}
func (SetScale) event()      {}
func (SelectCatalog) event() {}
func (Clear) event()         {}
func (Nudge) event()         {}

// Change reports what a handled event did.
type Change int

const (
	NoChange Change = iota
	Selected
	Deselected
	Placed
	Moved
	Deleted
	Scaled
	PlacementScaled
	CatalogSelected
	Cleared
)

var changeNames = [...]string{
	NoChange:        "none",
	Selected:        "selected",
	Deselected:      "deselected",
	Placed:          "placed",
	Moved:           "moved",
	Deleted:         "deleted",
	Scaled:          "scaled",
	PlacementScaled: "placement-scaled",
	CatalogSelected: "catalog-selected",
	Cleared:         "cleared",
}

func (c Change) String() string {
	if c < 0 || int(c) >= len(changeNames) {
		return "unknown"
	}
	return changeNames[c]
}
