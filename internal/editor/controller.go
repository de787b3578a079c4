package editor

import (
	"context"
	"errors"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"tree-decor/internal/decor"
	"tree-decor/internal/faults"
	"tree-decor/internal/geom"
	"tree-decor/internal/raycast"
)

// SurfaceOffset lifts a new decoration off the surface along its normal.
const SurfaceOffset float32 = 0.02

// State is the controller's interaction state.
type State int

const (
	StateIdle State = iota
	StateSelected
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateSelected:
		return "selected"
	case StateDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Notifier shows short transient messages to the user.
type Notifier interface {
	Notify(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// Controller applies events to a Session and its decoration store. All
// methods must be called from the render goroutine.
type Controller struct {
	session *Session
	store   *decor.Store
	caster  *raycast.Caster

	camera   rl.Camera3D
	viewport geom.Viewport

	// drag state, valid while dragging is true
	dragging   bool
	dragPlane  geom.Plane
	grabOffset rl.Vector3

	offset float32
	notify Notifier
	log    *slog.Logger
	aspect func(catalogID string) float32
	boards []raycast.Billboard
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets where user-facing notices go.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notify = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSurfaceOffset overrides SurfaceOffset.
func WithSurfaceOffset(off float32) Option {
	return func(c *Controller) { c.offset = off }
}

// WithAspect sets how the width/height ratio of a catalog entry's image is
// found, so pick footprints match the drawn billboards. Without it every
// footprint is square.
func WithAspect(aspect func(catalogID string) float32) Option {
	return func(c *Controller) { c.aspect = aspect }
}

// NewController wires a session, the decoration list and the pick caster.
func NewController(s *Session, store *decor.Store, caster *raycast.Caster, opts ...Option) *Controller {
	c := &Controller{
		session: s,
		store:   store,
		caster:  caster,
		offset:  SurfaceOffset,
		notify:  nopNotifier{},
		log:     slog.New(slog.DiscardHandler),
	}
	if c.caster == nil {
		c.caster = &raycast.Caster{}
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetView updates the camera and viewport used to cast pointer rays. Call it
// once per frame before feeding events.
func (c *Controller) SetView(cam rl.Camera3D, vp geom.Viewport) {
	c.camera = cam
	c.viewport = vp
}

// Session returns the controlled session.
func (c *Controller) Session() *Session { return c.session }

// State returns the current interaction state.
func (c *Controller) State() State {
	switch {
	case c.dragging:
		return StateDragging
	case c.session.Selected != nil:
		return StateSelected
	default:
		return StateIdle
	}
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool { return c.dragging }

// Billboards returns the pick footprints of the current decorations, in
// list order. The slice is reused between calls.
func (c *Controller) Billboards() []raycast.Billboard {
	c.boards = c.boards[:0]
	for _, d := range c.store.List() {
		b := raycast.Billboard{Position: d.Position, Size: d.Scale}
		if c.aspect != nil {
			b.Aspect = c.aspect(d.CatalogID)
		}
		c.boards = append(c.boards, b)
	}
	return c.boards
}

func (c *Controller) cast(x, y float32) (rl.Ray, raycast.Hit) {
	ray := geom.PointerRay(x, y, c.viewport, c.camera)
	return ray, c.caster.Cast(ray, c.camera, c.Billboards())
}

// Handle applies ev. With editing disabled every event is ignored.
func (c *Controller) Handle(ctx context.Context, ev Event) Change {
	if !c.session.Editing || c.session.Closed() {
		return NoChange
	}
	switch e := ev.(type) {
	case PointerDown:
		if e.Button == Secondary {
			return c.deleteAt(ctx, e.X, e.Y)
		}
		return c.pointerDown(ctx, e.X, e.Y)
	case PointerMove:
		return c.dragTo(e.X, e.Y)
	case PointerUp:
		if e.Button != Primary {
			return NoChange
		}
		return c.endDrag(ctx)
	case PointerCancel:
		return c.endDrag(ctx)
	case Delete:
		if c.session.Selected == nil {
			return NoChange
		}
		return c.remove(ctx, c.session.Selected)
	case Deselect:
		return c.deselect()
	case SetScale:
		return c.setScale(ctx, e.Value)
	case SelectCatalog:
		if c.session.SelectCatalog(e.ID) {
			return CatalogSelected
		}
		return NoChange
	case Clear:
		return c.clear(ctx)
	case Nudge:
		return c.nudge(ctx, e.Dir, e.Step)
	}
	return NoChange
}

func (c *Controller) pointerDown(ctx context.Context, x, y float32) Change {
	ray, hit := c.cast(x, y)
	if hit.Kind == raycast.HitDecoration {
		d := c.store.At(hit.Index)
		if d == nil {
			return NoChange
		}
		c.session.Selected = d
		c.beginDrag(ray, d)
		return Selected
	}

	change := c.deselect()
	if hit.Kind != raycast.HitSurface {
		return change
	}
	entry, ok := c.session.Active()
	if !ok {
		return change
	}
	d := c.store.Add(decor.Decoration{
		CatalogID:   entry.ID,
		Position:    hit.Anchor(c.offset),
		Scale:       c.session.PlacementScale,
		Attribution: entry.Attribution,
		Note:        entry.Note,
	})
	c.log.Debug("decoration placed", "catalog", d.CatalogID, "pos", d.Position, "scale", d.Scale)
	c.persist(ctx)
	return Placed
}

// beginDrag sets up a camera-facing plane through d. If the ray misses that
// plane the decoration stays selected without dragging.
func (c *Controller) beginDrag(ray rl.Ray, d *decor.Decoration) {
	plane := geom.PlaneFromNormalAndPoint(geom.ViewDirection(c.camera), d.Position)
	hit, ok := geom.IntersectPlane(ray, plane)
	if !ok {
		return
	}
	c.dragPlane = plane
	c.grabOffset = rl.Vector3Subtract(d.Position, hit)
	c.dragging = true
}

func (c *Controller) dragTo(x, y float32) Change {
	d := c.session.Selected
	if !c.dragging || d == nil {
		return NoChange
	}
	hit, ok := geom.IntersectPlane(geom.PointerRay(x, y, c.viewport, c.camera), c.dragPlane)
	if !ok {
		return NoChange
	}
	d.Position = rl.Vector3Add(hit, c.grabOffset)
	return Moved
}

// endDrag finishes a drag where it is; nothing is reverted.
func (c *Controller) endDrag(ctx context.Context) Change {
	if !c.dragging {
		return NoChange
	}
	c.dragging = false
	c.persist(ctx)
	return Moved
}

func (c *Controller) deselect() Change {
	c.dragging = false
	if c.session.Selected == nil {
		return NoChange
	}
	c.session.Selected = nil
	return Deselected
}

func (c *Controller) deleteAt(ctx context.Context, x, y float32) Change {
	_, hit := c.cast(x, y)
	if hit.Kind != raycast.HitDecoration {
		return NoChange
	}
	d := c.store.At(hit.Index)
	if d == nil {
		return NoChange
	}
	return c.remove(ctx, d)
}

func (c *Controller) remove(ctx context.Context, d *decor.Decoration) Change {
	if !c.store.Remove(d) {
		return NoChange
	}
	if c.session.Selected == d {
		c.session.Selected = nil
		c.dragging = false
	}
	c.persist(ctx)
	c.notify.Notify("Deleted")
	return Deleted
}

func (c *Controller) setScale(ctx context.Context, v float32) Change {
	v = decor.Clamp(v)
	if d := c.session.Selected; d != nil {
		d.Scale = v
		c.persist(ctx)
		return Scaled
	}
	c.session.PlacementScale = v
	return PlacementScaled
}

func (c *Controller) clear(ctx context.Context) Change {
	c.deselect()
	if err := c.store.Clear(ctx); err != nil {
		c.report(err)
	}
	c.notify.Notify("Cleared")
	return Cleared
}

// nudge moves the selection along the camera's right axis and its up vector.
func (c *Controller) nudge(ctx context.Context, dir rl.Vector2, step float32) Change {
	d := c.session.Selected
	if d == nil || c.dragging || step == 0 {
		return NoChange
	}
	_, right, _ := geom.CameraBasis(c.camera)
	up := rl.Vector3Normalize(c.camera.Up)
	move := rl.Vector3Add(rl.Vector3Scale(right, dir.X*step), rl.Vector3Scale(up, dir.Y*step))
	d.Position = rl.Vector3Add(d.Position, move)
	c.persist(ctx)
	return Moved
}

func (c *Controller) persist(ctx context.Context) {
	if err := c.store.Persist(ctx); err != nil {
		c.report(err)
	}
}

func (c *Controller) report(err error) {
	c.log.Warn("arrangement not saved", "err", err)
	if errors.Is(err, faults.ErrStoreUnavailable) {
		c.notify.Notify("Could not save the arrangement")
		return
	}
	c.notify.Notify("Save failed: " + err.Error())
}
