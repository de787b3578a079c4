// Package geom turns viewport pointer coordinates into world-space rays and
// intersects them with planes. It works on raylib's vector types so the
// results feed straight into raylib's collision helpers.
package geom

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// parallelEpsilon: a ray whose direction is this close to perpendicular with a
// plane normal is treated as parallel to the plane.
const parallelEpsilon = 1e-6

// Viewport is the pixel size of the area pointer coordinates are measured in.
type Viewport struct {
	Width  float32
	Height float32
}

// Aspect returns width/height, or 1 for a degenerate viewport.
func (v Viewport) Aspect() float32 {
	if v.Width <= 0 || v.Height <= 0 {
		return 1
	}
	return v.Width / v.Height
}

// NormalizePointer maps a pointer position in viewport pixels (origin top-left)
// to device coordinates in [-1,1] with +Y pointing up.
func NormalizePointer(x, y float32, vp Viewport) rl.Vector2 {
	w, h := vp.Width, vp.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return rl.NewVector2(x/w*2-1, -(y/h*2 - 1))
}

// ViewDirection returns the normalized direction the camera looks along.
func ViewDirection(cam rl.Camera3D) rl.Vector3 {
	return rl.Vector3Normalize(rl.Vector3Subtract(cam.Target, cam.Position))
}

// CameraBasis returns the camera's forward, right and up unit vectors.
// Up is re-orthogonalized against forward so a tilted Camera.Up still works.
func CameraBasis(cam rl.Camera3D) (forward, right, up rl.Vector3) {
	forward = ViewDirection(cam)
	right = rl.Vector3Normalize(rl.Vector3CrossProduct(forward, cam.Up))
	up = rl.Vector3CrossProduct(right, forward)
	return forward, right, up
}

// RayFromCamera returns the world-space pick ray through the device coordinate
// ndc for cam. Perspective cameras use Fovy as the vertical field of view in
// degrees; orthographic cameras use it as the view height in world units.
func RayFromCamera(ndc rl.Vector2, cam rl.Camera3D, aspect float32) rl.Ray {
	forward, right, up := CameraBasis(cam)
	if cam.Projection == rl.CameraOrthographic {
		halfH := cam.Fovy / 2
		halfW := halfH * aspect
		origin := rl.Vector3Add(cam.Position, rl.Vector3Add(
			rl.Vector3Scale(right, ndc.X*halfW),
			rl.Vector3Scale(up, ndc.Y*halfH),
		))
		return rl.NewRay(origin, forward)
	}
	tanHalf := math32.Tan(cam.Fovy * rl.Deg2rad / 2)
	dir := rl.Vector3Add(forward, rl.Vector3Add(
		rl.Vector3Scale(right, ndc.X*tanHalf*aspect),
		rl.Vector3Scale(up, ndc.Y*tanHalf),
	))
	return rl.NewRay(cam.Position, rl.Vector3Normalize(dir))
}

// PointerRay is NormalizePointer followed by RayFromCamera.
func PointerRay(x, y float32, vp Viewport, cam rl.Camera3D) rl.Ray {
	return RayFromCamera(NormalizePointer(x, y, vp), cam, vp.Aspect())
}

// Plane is the set of points p with Normal·p + Constant = 0.
type Plane struct {
	Normal   rl.Vector3
	Constant float32
}

// PlaneFromNormalAndPoint returns the plane with the given normal passing
// through point. The normal is normalized.
func PlaneFromNormalAndPoint(normal, point rl.Vector3) Plane {
	n := rl.Vector3Normalize(normal)
	return Plane{Normal: n, Constant: -rl.Vector3DotProduct(n, point)}
}

// DistanceTo returns the signed distance from point to the plane.
func (p Plane) DistanceTo(point rl.Vector3) float32 {
	return rl.Vector3DotProduct(p.Normal, point) + p.Constant
}

// IntersectPlane returns where ray crosses plane. It reports false when the ray
// runs parallel to the plane (and does not lie in it) or the plane is behind
// the ray origin.
func IntersectPlane(ray rl.Ray, plane Plane) (rl.Vector3, bool) {
	denom := rl.Vector3DotProduct(plane.Normal, ray.Direction)
	if math32.Abs(denom) < parallelEpsilon {
		if plane.DistanceTo(ray.Position) == 0 {
			return ray.Position, true
		}
		return rl.Vector3{}, false
	}
	t := -plane.DistanceTo(ray.Position) / denom
	if t < 0 {
		return rl.Vector3{}, false
	}
	return rl.Vector3Add(ray.Position, rl.Vector3Scale(ray.Direction, t)), true
}
