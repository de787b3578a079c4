package raycast

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tree-decor/internal/geom"
)

const tol = 1e-4

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
func wall() *Mesh {
	a := rl.NewVector3(-2, -1, -1)
	b := rl.NewVector3(2, -1, -1)
	c := rl.NewVector3(2, 3, -1)
	d := rl.NewVector3(-2, 3, -1)
	return NewMesh([][3]rl.Vector3{{a, b, c}, {a, c, d}})
}

var vp = geom.Viewport{Width: 100, Height: 100}

func TestPickSurfaceFacesCamera(t *testing.T) {
	c := &Caster{Mesh: wall()}
	h := c.CastPointer(50, 50, vp, frontCamera(), nil)
	require.Equal(t, HitSurface, h.Kind)
	assert.InDelta(t, 0, h.Point.X, tol)
	assert.InDelta(t, 1, h.Point.Y, tol)
	assert.InDelta(t, -1, h.Point.Z, tol)
	assert.InDelta(t, 1, h.Normal.Z, tol)
	assert.InDelta(t, 6, h.Distance, tol)

	anchor := h.Anchor(0.02)
	assert.InDelta(t, -0.98, anchor.Z, tol)
}

func TestPickSurfaceNormalFlipsForBackFace(t *testing.T) {
	c := &Caster{Mesh: wall()}
	cam := frontCamera()
	cam.Position = rl.NewVector3(0, 1, -5)
	h := c.CastPointer(50, 50, vp, cam, nil)
	require.Equal(t, HitSurface, h.Kind)
	assert.InDelta(t, -1, h.Normal.Z, tol)
}

func TestCastMisses(t *testing.T) {
	c := &Caster{Mesh: wall()}
	cam := frontCamera()
	cam.Target = rl.NewVector3(0, 1, 10)
	cam.Position = rl.NewVector3(0, 1, 5)
	h := c.CastPointer(50, 50, vp, cam, nil)
	assert.Equal(t, HitNone, h.Kind)
	assert.Equal(t, -1, h.Index)
}

func TestCastWithoutMesh(t *testing.T) {
	var c Caster
	assert.Equal(t, HitNone, c.CastPointer(50, 50, vp, frontCamera(), nil).Kind)
}

func TestDecorationWinsOverSurface(t *testing.T) {
	c := &Caster{Mesh: wall()}
	boards := []Billboard{
		{Position: rl.NewVector3(1.5, 1, 0), Size: 0.3},
		{Position: rl.NewVector3(0, 1, -0.5), Size: 0.3},
		{Position: rl.NewVector3(0, 1, 0.5), Size: 0.3},
	}
	h := c.CastPointer(50, 50, vp, frontCamera(), boards)
	require.Equal(t, HitDecoration, h.Kind)
	assert.Equal(t, 2, h.Index, "nearest billboard along the ray")
	assert.InDelta(t, 0.5, h.Point.Z, tol)
}

func TestBillboardEdge(t *testing.T) {
	boards := []Billboard{{Position: rl.NewVector3(0, 1, 0), Size: 0.2}}
	cam := frontCamera()
	inside := rl.NewRay(rl.NewVector3(0.09, 1, 5), rl.NewVector3(0, 0, -1))
	outside := rl.NewRay(rl.NewVector3(0.11, 1, 5), rl.NewVector3(0, 0, -1))
	assert.Equal(t, HitDecoration, PickBillboard(inside, cam, boards).Kind)
	assert.Equal(t, HitNone, PickBillboard(outside, cam, boards).Kind)
}

func TestBillboardFollowsAspect(t *testing.T) {
	cam := frontCamera()
	wide := []Billboard{{Position: rl.NewVector3(0, 1, 0), Size: 0.2, Aspect: 2}}
	side := rl.NewRay(rl.NewVector3(0.18, 1, 5), rl.NewVector3(0, 0, -1))
	above := rl.NewRay(rl.NewVector3(0, 1.12, 5), rl.NewVector3(0, 0, -1))
	assert.Equal(t, HitDecoration, PickBillboard(side, cam, wide).Kind)
	assert.Equal(t, HitNone, PickBillboard(above, cam, wide).Kind)

	tall := []Billboard{{Position: rl.NewVector3(0, 1, 0), Size: 0.2, Aspect: 0.5}}
	assert.Equal(t, HitNone, PickBillboard(side, cam, tall).Kind)
	inside := rl.NewRay(rl.NewVector3(0.04, 1.09, 5), rl.NewVector3(0, 0, -1))
	assert.Equal(t, HitDecoration, PickBillboard(inside, cam, tall).Kind)
}

func TestMeshBounds(t *testing.T) {
	m := wall()
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, rl.NewVector3(-2, -1, -1), m.Bounds().Min)
	assert.Equal(t, rl.NewVector3(2, 3, -1), m.Bounds().Max)
}
