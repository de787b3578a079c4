package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tree-decor/internal/catalog"
	"tree-decor/internal/decor"
	"tree-decor/internal/faults"
	"tree-decor/internal/geom"
	"tree-decor/internal/raycast"
	"tree-decor/internal/state"
)

const tol = 1e-4

var vp = geom.Viewport{Width: 100, Height: 100}

func frontCamera() rl.Camera3D {
	return rl.Camera3D{
		Position:   rl.NewVector3(0, 1, 5),
		Target:     rl.NewVector3(0, 1, 0),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}

// wall is a 4x4 square in the z=-1 plane centred on (0,1).
func wall() *raycast.Mesh {
	a := rl.NewVector3(-2, -1, -1)
	b := rl.NewVector3(2, -1, -1)
	c := rl.NewVector3(2, 3, -1)
	d := rl.NewVector3(-2, 3, -1)
	return raycast.NewMesh([][3]rl.Vector3{{a, b, c}, {a, c, d}})
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Merge([]catalog.Entry{
		{ID: "ball", Name: "Ball", Image: catalog.External("ball.webp"), DefaultScale: 0.3, Attribution: "Shop"},
		{ID: "star", Name: "Star", Image: catalog.External("star.webp"), DefaultScale: 0.2, Note: "top"},
	}, nil)
	require.NoError(t, err)
	return c
}

type notes struct{ msgs []string }

func (n *notes) Notify(msg string) { n.msgs = append(n.msgs, msg) }

type fixture struct {
	ctl   *Controller
	store *decor.Store
	st    state.Store
	notes *notes
}

func newFixture(t *testing.T, st state.Store, editing bool) fixture {
	t.Helper()
	if st == nil {
		st = state.NewMemory()
	}
	store := decor.NewStore(st)
	n := &notes{}
	ctl := NewController(NewSession(testCatalog(t), editing), store, &raycast.Caster{Mesh: wall()}, WithNotifier(n))
	ctl.SetView(frontCamera(), vp)
	return fixture{ctl: ctl, store: store, st: st, notes: n}
}

func restored(t *testing.T, st state.Store) []*decor.Decoration {
	t.Helper()
	list, err := decor.NewStore(st).Restore(context.Background(), func(string) bool { return true }, 0.26)
	require.NoError(t, err)
	return list
}

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession(testCatalog(t), true)
	assert.Equal(t, "ball", s.ActiveID)
	assert.InDelta(t, 0.3, s.PlacementScale, 1e-6)
	assert.False(t, s.SelectCatalog("nope"))
	assert.True(t, s.SelectCatalog("star"))
	s.Close()
	assert.True(t, s.Closed())
	assert.False(t, s.Editing)
}

func TestPlaceOnSurface(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)

	change := f.ctl.Handle(ctx, PointerDown{Button: Primary, X: 50, Y: 50})
	require.Equal(t, Placed, change)
	require.Equal(t, 1, f.store.Len())

	d := f.store.At(0)
	assert.Equal(t, "ball", d.CatalogID)
	assert.Equal(t, "Shop", d.Attribution)
	assert.InDelta(t, 0.3, d.Scale, 1e-6)
	assert.InDelta(t, 0, d.Position.X, tol)
	assert.InDelta(t, 1, d.Position.Y, tol)
	assert.InDelta(t, -1+SurfaceOffset, d.Position.Z, tol)
	assert.Equal(t, StateIdle, f.ctl.State())

	assert.Len(t, restored(t, f.st), 1)
}

func TestPlaceOnMissLeavesListUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	f.store.Add(decor.Decoration{CatalogID: "ball", Position: rl.NewVector3(1.5, 2.5, 0), Scale: 0.1})

	// Far corner: the ray passes beside the wall.
	change := f.ctl.Handle(ctx, PointerDown{Button: Primary, X: 0, Y: 0})
	assert.Equal(t, NoChange, change)
	assert.Equal(t, 1, f.store.Len())
}

func TestDragThenCancelKeepsDraggedPosition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	d := f.store.Add(decor.Decoration{CatalogID: "ball", Position: rl.NewVector3(0, 1, 0), Scale: 0.26})

	require.Equal(t, Selected, f.ctl.Handle(ctx, PointerDown{Button: Primary, X: 50, Y: 50}))
	require.Equal(t, StateDragging, f.ctl.State())
	assert.Same(t, d, f.ctl.Session().Selected)

	// Pointer x whose ray meets the z=0 drag plane at x=0.5.
	px := (0.5/(5*math32.Tan(22.5*rl.Deg2rad)) + 1) * 50
	require.Equal(t, Moved, f.ctl.Handle(ctx, PointerMove{X: px, Y: 50}))
	require.Equal(t, Moved, f.ctl.Handle(ctx, PointerCancel{}))

	assert.Equal(t, StateSelected, f.ctl.State())
	assert.InDelta(t, 0.5, d.Position.X, tol)
	assert.InDelta(t, 1, d.Position.Y, tol)
	assert.InDelta(t, 0, d.Position.Z, tol)

	list := restored(t, f.st)
	require.Len(t, list, 1)
	assert.InDelta(t, 0.5, list[0].Position.X, tol)
}

func TestDragKeepsGrabOffset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	d := f.store.Add(decor.Decoration{CatalogID: "ball", Position: rl.NewVector3(0, 1, 0), Scale: 1})

	// Grab off-centre, then release without moving: no snap to the pointer.
	f.ctl.Handle(ctx, PointerDown{Button: Primary, X: 55, Y: 50})
	f.ctl.Handle(ctx, PointerMove{X: 55, Y: 50})
	f.ctl.Handle(ctx, PointerUp{Button: Primary, X: 55, Y: 50})
	assert.InDelta(t, 0, d.Position.X, tol)
	assert.InDelta(t, 1, d.Position.Y, tol)
}

func TestClickOnEmptySpaceDeselectsFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	f.store.Add(decor.Decoration{CatalogID: "ball", Position: rl.NewVector3(0, 1, 0), Scale: 0.26})
	f.ctl.Handle(ctx, PointerDown{Button: Primary, X: 50, Y: 50})
	f.ctl.Handle(ctx, PointerUp{Button: Primary, X: 50, Y: 50})
	require.Equal(t, StateSelected, f.ctl.State())

	change := f.ctl.Handle(ctx, PointerDown{Button: Primary, X: 70, Y: 40})
	assert.Equal(t, Placed, change)
	assert.Nil(t, f.ctl.Session().Selected)
	assert.Equal(t, 2, f.store.Len())
}

func TestDeleteSelectedClearsSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	d := f.store.Add(decor.Decoration{CatalogID: "ball", Position: rl.NewVector3(0, 1, 0), Scale: 0.26})
	f.ctl.Handle(ctx, PointerDown{Button: Primary, X: 50, Y: 50})
	f.ctl.Handle(ctx, PointerUp{Button: Primary})

	require.Equal(t, Deleted, f.ctl.Handle(ctx, Delete{}))
	assert.Equal(t, StateIdle, f.ctl.State())
	assert.Equal(t, 0, f.store.Len())
	assert.Contains(t, f.notes.msgs, "Deleted")

	// Scale now targets the placement default, not the removed decoration.
	assert.Equal(t, PlacementScaled, f.ctl.Handle(ctx, SetScale{Value: 0.5}))
	assert.InDelta(t, 0.5, f.ctl.Session().PlacementScale, 1e-6)
	assert.InDelta(t, 0.26, d.Scale, 1e-6)
	assert.Empty(t, restored(t, f.st))
}

func TestSecondaryDeletesUnderPointer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	f.store.Add(decor.Decoration{CatalogID: "ball", Position: rl.NewVector3(0, 1, 0), Scale: 0.26})
	other := f.store.Add(decor.Decoration{CatalogID: "star", Position: rl.NewVector3(1, 2, 0), Scale: 0.2})
	f.ctl.Session().Selected = other

	assert.Equal(t, Deleted, f.ctl.Handle(ctx, PointerDown{Button: Secondary, X: 50, Y: 50}))
	assert.Equal(t, 1, f.store.Len())
	assert.Same(t, other, f.ctl.Session().Selected)

	assert.Equal(t, NoChange, f.ctl.Handle(ctx, PointerDown{Button: Secondary, X: 5, Y: 95}))
}

func TestSetScaleClampsAndPersists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	d := f.store.Add(decor.Decoration{CatalogID: "ball", Position: rl.NewVector3(0, 1, 0), Scale: 0.26})
	f.ctl.Session().Selected = d

	for _, tt := range []struct{ in, want float32 }{{5, 1.2}, {0.01, 0.06}, {0.7, 0.7}} {
		assert.Equal(t, Scaled, f.ctl.Handle(ctx, SetScale{Value: tt.in}))
		assert.InDelta(t, tt.want, d.Scale, 1e-6)
		assert.InDelta(t, tt.want, restored(t, f.st)[0].Scale, 1e-6)
	}

	f.ctl.Handle(ctx, Deselect{})
	f.ctl.Handle(ctx, SetScale{Value: 9})
	assert.Equal(t, decor.MaxScale, f.ctl.Session().PlacementScale)
}

func TestNudge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	d := f.store.Add(decor.Decoration{CatalogID: "ball", Position: rl.NewVector3(0, 1, 0), Scale: 0.26})

	assert.Equal(t, NoChange, f.ctl.Handle(ctx, Nudge{Dir: rl.NewVector2(1, 0), Step: NudgeStep}))
	f.ctl.Session().Selected = d
	assert.Equal(t, Moved, f.ctl.Handle(ctx, Nudge{Dir: rl.NewVector2(1, 0), Step: NudgeStepCoarse}))
	assert.Equal(t, Moved, f.ctl.Handle(ctx, Nudge{Dir: rl.NewVector2(0, -1), Step: NudgeStepFine}))
	assert.InDelta(t, 0.06, d.Position.X, tol)
	assert.InDelta(t, 1-0.008, d.Position.Y, tol)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	f.store.Add(decor.Decoration{CatalogID: "ball", Scale: 0.26})
	require.NoError(t, f.store.Persist(ctx))

	assert.Equal(t, Cleared, f.ctl.Handle(ctx, Clear{}))
	assert.Equal(t, 0, f.store.Len())
	_, err := f.st.Get(ctx, decor.StateKey)
	assert.ErrorIs(t, err, faults.ErrNotFound)
}

func TestViewModeOnlyHovers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, false)
	d := f.store.Add(decor.Decoration{CatalogID: "star", Position: rl.NewVector3(0, 1, 0), Scale: 0.26})

	assert.Equal(t, NoChange, f.ctl.Handle(ctx, PointerDown{Button: Primary, X: 50, Y: 50}))
	assert.Equal(t, NoChange, f.ctl.Handle(ctx, PointerDown{Button: Primary, X: 70, Y: 40}))
	assert.Equal(t, 1, f.store.Len())

	tip, ok := f.ctl.Hover(50, 50)
	require.True(t, ok)
	assert.Same(t, d, tip.Decoration)
	assert.Equal(t, "Star", tip.Name)
	assert.Equal(t, NoAttribution, tip.Attribution)
	assert.Equal(t, "top", tip.Note)

	_, ok = f.ctl.Hover(70, 40)
	assert.False(t, ok)
}

type brokenState struct{ state.Memory }

func (b *brokenState) Put(context.Context, string, []byte) error {
	return errors.Join(faults.ErrStoreUnavailable, errors.New("disk full"))
}

func TestPersistFailureIsNotRolledBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &brokenState{}, true)

	assert.Equal(t, Placed, f.ctl.Handle(ctx, PointerDown{Button: Primary, X: 50, Y: 50}))
	assert.Equal(t, 1, f.store.Len())
	assert.Contains(t, f.notes.msgs, "Could not save the arrangement")
}

func TestChangeString(t *testing.T) {
	assert.Equal(t, "placed", Placed.String())
	assert.Equal(t, "unknown", Change(99).String())
	assert.Equal(t, "dragging", StateDragging.String())
}

func TestHoverUsesImageAspect(t *testing.T) {
	newCtl := func(opts ...Option) *Controller {
		store := decor.NewStore(state.NewMemory())
		store.Add(decor.Decoration{CatalogID: "ball", Position: rl.NewVector3(0, 1, 0), Scale: 0.2})
		ctl := NewController(NewSession(testCatalog(t), true), store, &raycast.Caster{Mesh: wall()}, opts...)
		ctl.SetView(frontCamera(), vp)
		return ctl
	}

	// x=54 lands about 0.17 right of the centre: outside a square footprint,
	// inside one twice as wide.
	_, ok := newCtl().Hover(54, 50)
	assert.False(t, ok)
	wide := newCtl(WithAspect(func(string) float32 { return 2 }))
	tip, ok := wide.Hover(54, 50)
	require.True(t, ok)
	assert.Equal(t, "Ball", tip.Name)
	assert.Equal(t, float32(2), wide.Billboards()[0].Aspect)
}
