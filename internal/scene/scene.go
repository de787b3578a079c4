// Package scene draws the decorated model, the stand, the placed
// decorations and the snow, and owns the orbit camera. GPU work (model load,
// texture upload) is deferred until the first Draw so that New can run
// before the window exists.
package scene

import (
	"image"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"tree-decor/internal/decor"
	"tree-decor/internal/particles"
	"tree-decor/internal/raycast"
	"tree-decor/internal/textures"
)

const (
	fovy       = 55
	standSides = 64
)

var (
	standColor    = rl.NewColor(242, 242, 246, 255)
	snowTopColor  = rl.White
	pendingColor  = rl.NewColor(200, 200, 210, 200)
	failedColor   = rl.NewColor(220, 90, 90, 220)
	selectColor   = rl.NewColor(255, 210, 0, 255)
	hoverTint     = rl.NewColor(255, 244, 214, 255)
	snowFlakeTint = rl.NewColor(255, 255, 255, 230)
)

// TextureSource hands out decoded decoration images without blocking.
type TextureSource interface {
	Peek(id string) (image.Image, textures.Status)
	Request(id string)
}

// Options configures a Scene.
type Options struct {
	ModelPath   string
	ModelHeight float32
	StandRadius float32
	StandHeight float32
	Log         *slog.Logger
}

// Frame is what one Draw call shows.
type Frame struct {
	Decorations []*decor.Decoration
	Selected    *decor.Decoration
	Hovered     *decor.Decoration
	Snow        *particles.Field // nil hides the snow
}

// Scene holds the camera and the GPU resources of the 3D view.
type Scene struct {
	Camera rl.Camera3D
	Orbit  Orbit

	opts    Options
	log     *slog.Logger
	caster  *raycast.Caster
	tree    *Tree
	pending bool
	source  TextureSource
	gpu     map[string]rl.Texture2D
}

// New returns a scene with the fallback tree in place, so picking works
// before the first frame. The model at opts.ModelPath replaces it on the
// first Draw.
func New(opts Options, source TextureSource) *Scene {
	if opts.ModelHeight <= 0 {
		opts.ModelHeight = DefaultModelHeight
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Scene{
		opts:    opts,
		log:     log,
		caster:  &raycast.Caster{},
		pending: opts.ModelPath != "",
		source:  source,
		gpu:     make(map[string]rl.Texture2D),
	}
	s.Camera.Fovy = fovy
	s.Camera.Projection = rl.CameraPerspective
	s.setTree(FallbackTree(opts.ModelHeight, opts.StandHeight))
	return s
}

// Caster returns the pick caster kept in sync with the loaded model.
func (s *Scene) Caster() *raycast.Caster { return s.caster }

// Tree returns the current model.
func (s *Scene) Tree() *Tree { return s.tree }

func (s *Scene) setTree(t *Tree) {
	if s.tree != nil {
		s.tree.Unload()
	}
	s.tree = t
	s.caster.Mesh = t.Mesh
	d := t.MaxDim()
	center := t.Center()
	auto := true
	if s.Orbit.Distance > 0 {
		auto = s.Orbit.AutoRotate
	}
	s.Orbit = OrbitFrom(rl.NewVector3(0, d*0.6, d*1.7), center)
	s.Orbit.AutoRotate = auto
	s.Orbit.Apply(&s.Camera)
}

// ensureLoaded swaps in the real model on the first frame.
func (s *Scene) ensureLoaded() {
	if !s.pending {
		return
	}
	s.pending = false
	t, err := LoadTree(s.opts.ModelPath, s.opts.ModelHeight, s.opts.StandHeight)
	if err != nil {
		s.log.Warn("model not loaded, using fallback tree", "path", s.opts.ModelPath, "err", err)
		return
	}
	s.log.Info("model loaded", "path", s.opts.ModelPath, "triangles", t.Mesh.Len())
	s.setTree(t)
}

// Update moves the camera: middle-button drag orbits, the wheel zooms, and
// the idle spin runs unless hold is set (a decoration is being dragged).
func (s *Scene) Update(dt float32, hold bool) {
	if !hold {
		if wheel := rl.GetMouseWheelMove(); wheel != 0 {
			s.Orbit.Zoom(wheel)
		}
		if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
			d := rl.GetMouseDelta()
			s.Orbit.Rotate(d.X, d.Y)
		}
		s.Orbit.Advance(dt)
	}
	s.Orbit.Apply(&s.Camera)
}

// Draw renders f. Call between BeginDrawing and EndDrawing, before the 2D
// overlay.
func (s *Scene) Draw(f Frame) {
	s.ensureLoaded()
	rl.BeginMode3D(s.Camera)
	s.drawStand()
	s.tree.Draw()
	for _, d := range f.Decorations {
		s.drawDecoration(d, d == f.Hovered)
	}
	if f.Selected != nil {
		sz := f.Selected.Scale * 1.08
		rl.DrawCubeWiresV(f.Selected.Position, rl.NewVector3(sz, sz, sz), selectColor)
	}
	if f.Snow != nil {
		for i := 0; i < f.Snow.Len(); i++ {
			rl.DrawPoint3D(f.Snow.Position(i), snowFlakeTint)
		}
	}
	rl.EndMode3D()
}

func (s *Scene) drawStand() {
	r, h := s.opts.StandRadius, s.opts.StandHeight
	if r <= 0 || h <= 0 {
		return
	}
	rl.DrawCylinder(rl.Vector3{}, r, r, h, standSides, standColor)
	rl.DrawCylinder(rl.NewVector3(0, h, 0), r*0.98, r*0.98, 0.002, standSides, snowTopColor)
}

func (s *Scene) drawDecoration(d *decor.Decoration, hovered bool) {
	tex, st := s.texture(d.CatalogID)
	if st != textures.Ready {
		c := pendingColor
		if st == textures.Failed {
			c = failedColor
		}
		rl.DrawSphere(d.Position, d.Scale*0.3, c)
		return
	}
	tint := rl.White
	if hovered {
		tint = hoverTint
	}
	rl.DrawBillboard(s.Camera, tex, d.Position, d.Scale, tint)
}

// texture returns the uploaded texture for id, uploading the decoded image
// the first time it is ready and requesting it when unknown.
func (s *Scene) texture(id string) (rl.Texture2D, textures.Status) {
	if tex, ok := s.gpu[id]; ok {
		return tex, textures.Ready
	}
	if s.source == nil {
		return rl.Texture2D{}, textures.Failed
	}
	img, st := s.source.Peek(id)
	switch st {
	case textures.Missing:
		s.source.Request(id)
		return rl.Texture2D{}, textures.Pending
	case textures.Ready:
		rimg := rl.NewImageFromImage(img)
		tex := rl.LoadTextureFromImage(rimg)
		rl.UnloadImage(rimg)
		if !rl.IsTextureValid(tex) {
			return rl.Texture2D{}, textures.Failed
		}
		rl.SetTextureFilter(tex, rl.FilterBilinear)
		s.gpu[id] = tex
		return tex, textures.Ready
	}
	return rl.Texture2D{}, st
}

// Forget drops the uploaded texture for id.
func (s *Scene) Forget(id string) {
	if tex, ok := s.gpu[id]; ok {
		rl.UnloadTexture(tex)
		delete(s.gpu, id)
	}
}

// Textures returns how many textures are on the GPU.
func (s *Scene) Textures() int { return len(s.gpu) }

// Unload releases every GPU resource.
func (s *Scene) Unload() {
	for id := range s.gpu {
		s.Forget(id)
	}
	s.tree.Unload()
}
