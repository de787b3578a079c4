package geom

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
)

const tol = 1e-4

func testCamera() rl.Camera3D {
	return rl.Camera3D{
		Position:   rl.NewVector3(0, 1, 5),
		Target:     rl.NewVector3(0, 1, 0),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}

func assertVec(t *testing.T, want, got rl.Vector3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol)
	assert.InDelta(t, want.Y, got.Y, tol)
	assert.InDelta(t, want.Z, got.Z, tol)
}

func TestNormalizePointer(t *testing.T) {
	vp := Viewport{Width: 200, Height: 100}
	assert.Equal(t, rl.NewVector2(-1, 1), NormalizePointer(0, 0, vp))
	assert.Equal(t, rl.NewVector2(1, -1), NormalizePointer(200, 100, vp))
	assert.Equal(t, rl.NewVector2(0, 0), NormalizePointer(100, 50, vp))
}

func TestViewportAspect(t *testing.T) {
	assert.Equal(t, float32(2), Viewport{Width: 200, Height: 100}.Aspect())
	assert.Equal(t, float32(1), Viewport{}.Aspect())
}

func TestRayFromCameraCenter(t *testing.T) {
	cam := testCamera()
	ray := PointerRay(50, 50, Viewport{Width: 100, Height: 100}, cam)
	assertVec(t, cam.Position, ray.Position)
	assertVec(t, rl.NewVector3(0, 0, -1), ray.Direction)
}

func TestRayFromCameraOffCenterHitsExpectedPoint(t *testing.T) {
	cam := testCamera()
	plane := PlaneFromNormalAndPoint(ViewDirection(cam), cam.Target)
	// Top edge of the view at distance 5 is 5*tan(22.5°) above the target.
	ray := RayFromCamera(rl.NewVector2(0, 1), cam, 1)
	hit, ok := IntersectPlane(ray, plane)
	assert.True(t, ok)
	assertVec(t, rl.NewVector3(0, 1+5*0.41421356, 0), hit)
}

func TestRayFromOrthographicCamera(t *testing.T) {
	cam := testCamera()
	cam.Projection = rl.CameraOrthographic
	cam.Fovy = 4
	ray := RayFromCamera(rl.NewVector2(1, 0), cam, 2)
	assertVec(t, rl.NewVector3(4, 1, 5), ray.Position)
	assertVec(t, rl.NewVector3(0, 0, -1), ray.Direction)
}

func TestIntersectPlane(t *testing.T) {
	plane := PlaneFromNormalAndPoint(rl.NewVector3(0, 2, 0), rl.NewVector3(0, 1, 0))
	assert.InDelta(t, float32(-1), plane.Constant, tol)

	tests := []struct {
		name string
		ray  rl.Ray
		want rl.Vector3
		ok   bool
	}{
		{"straight down", rl.NewRay(rl.NewVector3(2, 5, 3), rl.NewVector3(0, -1, 0)), rl.NewVector3(2, 1, 3), true},
		{"plane behind", rl.NewRay(rl.NewVector3(0, 5, 0), rl.NewVector3(0, 1, 0)), rl.Vector3{}, false},
		{"parallel", rl.NewRay(rl.NewVector3(0, 5, 0), rl.NewVector3(1, 0, 0)), rl.Vector3{}, false},
		{"in plane", rl.NewRay(rl.NewVector3(3, 1, 0), rl.NewVector3(1, 0, 0)), rl.NewVector3(3, 1, 0), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := IntersectPlane(tc.ray, plane)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assertVec(t, tc.want, got)
			}
		})
	}
}

func TestCameraBasisIsOrthonormal(t *testing.T) {
	cam := testCamera()
	cam.Up = rl.NewVector3(0.2, 1, 0.1)
	f, r, u := CameraBasis(cam)
	assert.InDelta(t, 0, rl.Vector3DotProduct(f, r), tol)
	assert.InDelta(t, 0, rl.Vector3DotProduct(f, u), tol)
	assert.InDelta(t, 0, rl.Vector3DotProduct(r, u), tol)
	assert.InDelta(t, 1, rl.Vector3Length(u), tol)
}
