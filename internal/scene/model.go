package scene

import (
	"fmt"
	"os"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"tree-decor/internal/faults"
	"tree-decor/internal/raycast"
)

// DefaultModelHeight is the height the target model is scaled to.
const DefaultModelHeight float32 = 2.3

// Normalize returns the world transform that centres bounds on the Y axis,
// scales it uniformly to height and rests its lowest point on floorY.
func Normalize(bounds rl.BoundingBox, height, floorY float32) rl.Matrix {
	size := rl.Vector3Subtract(bounds.Max, bounds.Min)
	center := rl.Vector3Scale(rl.Vector3Add(bounds.Min, bounds.Max), 0.5)
	s := height / math32.Max(size.Y, 0.0001)
	m := rl.MatrixTranslate(-center.X, -center.Y, -center.Z)
	m = rl.MatrixMultiply(m, rl.MatrixScale(s, s, s))
	return rl.MatrixMultiply(m, rl.MatrixTranslate(0, floorY+size.Y*s/2, 0))
}

// tier is one cone of the fallback tree.
type tier struct {
	base   float32
	radius float32
	height float32
}

// fallbackTiers stacks three cones of unit total height.
var fallbackTiers = []tier{
	{base: 0.12, radius: 0.42, height: 0.45},
	{base: 0.38, radius: 0.34, height: 0.40},
	{base: 0.62, radius: 0.24, height: 0.38},
}

const coneSlices = 24

// coneTriangles returns the triangles of a cone standing on y=base. Rim
// vertices sit half a slice off the axes.
func coneTriangles(base, radius, height float32, slices int) [][3]rl.Vector3 {
	apex := rl.NewVector3(0, base+height, 0)
	out := make([][3]rl.Vector3, 0, slices*2)
	rim := func(i int) rl.Vector3 {
		s, c := math32.Sincos(2 * math32.Pi * (float32(i) + 0.5) / float32(slices))
		return rl.NewVector3(radius*s, base, radius*c)
	}
	center := rl.NewVector3(0, base, 0)
	for i := 0; i < slices; i++ {
		a, b := rim(i), rim(i+1)
		out = append(out, [3]rl.Vector3{a, b, apex}, [3]rl.Vector3{center, b, a})
	}
	return out
}

// Tree is the decorated model: either a loaded model file or a stack of
// cones when no model is available. Mesh is its world-space pick geometry.
type Tree struct {
	Mesh     *raycast.Mesh
	Bounds   rl.BoundingBox
	model    rl.Model
	loaded   bool
	world    rl.Matrix
	fallback bool
}

// FallbackTree builds the cone tree scaled to height on floorY. It needs no
// GL context.
func FallbackTree(height, floorY float32) *Tree {
	var tris [][3]rl.Vector3
	for _, t := range fallbackTiers {
		tris = append(tris, coneTriangles(t.base, t.radius, t.height, coneSlices)...)
	}
	raw := raycast.NewMesh(tris)
	world := Normalize(raw.Bounds(), height, floorY)
	for i := range tris {
		for j := range tris[i] {
			tris[i][j] = rl.Vector3Transform(tris[i][j], world)
		}
	}
	mesh := raycast.NewMesh(tris)
	return &Tree{Mesh: mesh, Bounds: mesh.Bounds(), world: world, fallback: true}
}

// LoadTree loads the model at path (glTF, OBJ, IQM, VOX or M3D), normalizes it
// and extracts its pick mesh. Must run after the window exists.
func LoadTree(path string, height, floorY float32) (*Tree, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("scene: model %s: %w: %w", path, faults.ErrNotFound, err)
	}
	model := rl.LoadModel(path)
	if model.MeshCount == 0 {
		return nil, fmt.Errorf("scene: model %s: %w", path, faults.ErrMalformedInput)
	}
	raw := raycast.MeshFromModel(model, rl.MatrixIdentity())
	if raw.Len() == 0 {
		rl.UnloadModel(model)
		return nil, fmt.Errorf("scene: model %s has no triangles: %w", path, faults.ErrMalformedInput)
	}
	world := Normalize(raw.Bounds(), height, floorY)
	model.Transform = rl.MatrixMultiply(model.Transform, world)
	mesh := raycast.MeshFromModel(model, rl.MatrixIdentity())
	return &Tree{Mesh: mesh, Bounds: mesh.Bounds(), model: model, loaded: true, world: world}, nil
}

// Center returns the middle of the tree's bounds.
func (t *Tree) Center() rl.Vector3 {
	return rl.Vector3Scale(rl.Vector3Add(t.Bounds.Min, t.Bounds.Max), 0.5)
}

// MaxDim returns the largest side of the tree's bounds.
func (t *Tree) MaxDim() float32 {
	s := rl.Vector3Subtract(t.Bounds.Max, t.Bounds.Min)
	return math32.Max(s.X, math32.Max(s.Y, s.Z))
}

var treeGreen = rl.NewColor(36, 110, 62, 255)

// Draw renders the tree. Call inside BeginMode3D.
func (t *Tree) Draw() {
	if t.loaded {
		rl.DrawModel(t.model, rl.Vector3{}, 1, rl.White)
		return
	}
	if !t.fallback {
		return
	}
	// The cone geometry was normalized as a unit; replay the same transform
	// on each tier's base and apex.
	for _, tr := range fallbackTiers {
		base := rl.Vector3Transform(rl.NewVector3(0, tr.base, 0), t.world)
		apex := rl.Vector3Transform(rl.NewVector3(0, tr.base+tr.height, 0), t.world)
		edge := rl.Vector3Transform(rl.NewVector3(tr.radius, tr.base, 0), t.world)
		r := rl.Vector3Distance(base, edge)
		rl.DrawCylinderEx(base, apex, r, 0, coneSlices, treeGreen)
	}
}

// Unload releases the GPU model, if any.
func (t *Tree) Unload() {
	if t.loaded {
		rl.UnloadModel(t.model)
		t.loaded = false
	}
}
