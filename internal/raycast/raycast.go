// Package raycast answers "what is under the pointer": a placed decoration
// billboard, a point on the target model's surface, or nothing. Queries are
// pure; nothing here mutates scene state.
package raycast

import (
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"tree-decor/internal/geom"
)

// Kind says what a Hit refers to.
type Kind int

const (
	HitNone Kind = iota
	HitDecoration
	HitSurface
)

func (k Kind) String() string {
	switch k {
	case HitDecoration:
		return "decoration"
	case HitSurface:
		return "surface"
	default:
		return "none"
	}
}

// Hit is the result of a cast. Index is the position of the decoration in the
// billboard slice passed to Cast and is only meaningful for HitDecoration.
// Normal faces the ray origin.
type Hit struct {
	Kind     Kind
	Index    int
	Point    rl.Vector3
	Normal   rl.Vector3
	Distance float32
}

// Anchor returns the hit point pushed offset units along the hit normal, so a
// decoration placed there does not z-fight with the surface.
func (h Hit) Anchor(offset float32) rl.Vector3 {
	return rl.Vector3Add(h.Point, rl.Vector3Scale(h.Normal, offset))
}

// Billboard is the pickable footprint of a placed decoration: a
// camera-facing rectangle centred on Position, Size tall and Size·Aspect
// wide, matching what rl.DrawBillboard draws. Aspect is width/height of the
// texture; zero means square.
type Billboard struct {
	Position rl.Vector3
	Size     float32
	Aspect   float32
}

func (b Billboard) halfExtents() (w, h float32) {
	aspect := b.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	return b.Size * aspect / 2, b.Size / 2
}

// Mesh is a world-space triangle soup with precomputed bounds.
type Mesh struct {
	tris   [][3]rl.Vector3
	bounds rl.BoundingBox
}

// NewMesh builds a Mesh from world-space triangles.
func NewMesh(tris [][3]rl.Vector3) *Mesh {
	m := &Mesh{tris: tris}
	if len(tris) == 0 {
		return m
	}
	lo, hi := tris[0][0], tris[0][0]
	for _, t := range tris {
		for _, v := range t {
			lo = rl.Vector3Min(lo, v)
			hi = rl.Vector3Max(hi, v)
		}
	}
	m.bounds = rl.NewBoundingBox(lo, hi)
	return m
}

// MeshFromModel copies every triangle of model into a Mesh, transformed by
// model.Transform and then by world. Call once after loading; the copy is
// independent of the GPU-side model.
func MeshFromModel(model rl.Model, world rl.Matrix) *Mesh {
	xf := rl.MatrixMultiply(model.Transform, world)
	var tris [][3]rl.Vector3
	if model.MeshCount <= 0 || model.Meshes == nil {
		return NewMesh(nil)
	}
	for _, mesh := range unsafe.Slice(model.Meshes, model.MeshCount) {
		if mesh.Vertices == nil || mesh.VertexCount <= 0 {
			continue
		}
		verts := unsafe.Slice(mesh.Vertices, int(mesh.VertexCount)*3)
		at := func(i int) rl.Vector3 {
			v := rl.NewVector3(verts[i*3], verts[i*3+1], verts[i*3+2])
			return rl.Vector3Transform(v, xf)
		}
		if mesh.Indices != nil && mesh.TriangleCount > 0 {
			idx := unsafe.Slice(mesh.Indices, int(mesh.TriangleCount)*3)
			for i := 0; i+2 < len(idx); i += 3 {
				tris = append(tris, [3]rl.Vector3{at(int(idx[i])), at(int(idx[i+1])), at(int(idx[i+2]))})
			}
			continue
		}
		for i := 0; i+2 < int(mesh.VertexCount); i += 3 {
			tris = append(tris, [3]rl.Vector3{at(i), at(i + 1), at(i + 2)})
		}
	}
	return NewMesh(tris)
}

// Len returns the number of triangles.
func (m *Mesh) Len() int {
	if m == nil {
		return 0
	}
	return len(m.tris)
}

// Bounds returns the axis-aligned bounds of the mesh.
func (m *Mesh) Bounds() rl.BoundingBox {
	return m.bounds
}

// Intersect returns the nearest triangle hit along ray.
func (m *Mesh) Intersect(ray rl.Ray) (rl.RayCollision, bool) {
	if m.Len() == 0 {
		return rl.RayCollision{}, false
	}
	if !rl.GetRayCollisionBox(ray, m.bounds).Hit {
		return rl.RayCollision{}, false
	}
	var best rl.RayCollision
	for _, t := range m.tris {
		c := rl.GetRayCollisionTriangle(ray, t[0], t[1], t[2])
		if !c.Hit {
			continue
		}
		if !best.Hit || c.Distance < best.Distance {
			best = c
		}
	}
	return best, best.Hit
}

// Caster runs pointer queries against a target mesh and a set of billboards.
// A nil Mesh means the model is not loaded yet; surface queries then miss.
type Caster struct {
	Mesh *Mesh
}

// CastPointer is Cast for a pointer position in viewport pixels.
func (c *Caster) CastPointer(x, y float32, vp geom.Viewport, cam rl.Camera3D, boards []Billboard) Hit {
	return c.Cast(geom.PointerRay(x, y, vp, cam), cam, boards)
}

// Cast returns the nearest billboard hit if any billboard is crossed,
// otherwise the nearest surface hit, otherwise a HitNone.
func (c *Caster) Cast(ray rl.Ray, cam rl.Camera3D, boards []Billboard) Hit {
	if h := PickBillboard(ray, cam, boards); h.Kind != HitNone {
		return h
	}
	return c.PickSurface(ray)
}

// PickSurface returns the nearest point on the mesh with its normal turned
// towards the ray origin.
func (c *Caster) PickSurface(ray rl.Ray) Hit {
	if c == nil || c.Mesh == nil {
		return Hit{Kind: HitNone, Index: -1}
	}
	col, ok := c.Mesh.Intersect(ray)
	if !ok {
		return Hit{Kind: HitNone, Index: -1}
	}
	n := col.Normal
	if rl.Vector3DotProduct(n, ray.Direction) > 0 {
		n = rl.Vector3Negate(n)
	}
	return Hit{Kind: HitSurface, Index: -1, Point: col.Point, Normal: n, Distance: col.Distance}
}

// PickBillboard returns the nearest billboard crossed by ray. Billboards face
// the camera, so their quads are built from the camera's right and up axes.
func PickBillboard(ray rl.Ray, cam rl.Camera3D, boards []Billboard) Hit {
	best := Hit{Kind: HitNone, Index: -1}
	if len(boards) == 0 {
		return best
	}
	forward, right, up := geom.CameraBasis(cam)
	for i, b := range boards {
		hw, hh := b.halfExtents()
		r := rl.Vector3Scale(right, hw)
		u := rl.Vector3Scale(up, hh)
		p1 := rl.Vector3Subtract(rl.Vector3Subtract(b.Position, r), u)
		p2 := rl.Vector3Subtract(rl.Vector3Add(b.Position, r), u)
		p3 := rl.Vector3Add(rl.Vector3Add(b.Position, r), u)
		p4 := rl.Vector3Add(rl.Vector3Subtract(b.Position, r), u)
		col := rl.GetRayCollisionQuad(ray, p1, p2, p3, p4)
		if !col.Hit {
			continue
		}
		if best.Kind == HitNone || col.Distance < best.Distance {
			best = Hit{
				Kind:     HitDecoration,
				Index:    i,
				Point:    col.Point,
				Normal:   rl.Vector3Negate(forward),
				Distance: col.Distance,
			}
		}
	}
	return best
}
