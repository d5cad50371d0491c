package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/anvil/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidShape is returned when shape parameters are malformed
// (zero extents, non-unit plane normal, ...).
var ErrInvalidShape = errors.New("geom: invalid shape parameters")

// Kind identifies a shape type.
type Kind int

const (
	KindPlane Kind = iota
	KindBox
	KindSphere
)

// Shape is the interface implemented by all collision shapes.
//
// Support and ContactFeature operate in the shape's local space; the owning
// Geometry composes them with its world transform.
type Shape interface {
	Kind() Kind

	// Validate rejects degenerate shape parameters at creation time.
	Validate() error

	// AABB computes the world-space axis-aligned bounding box of the shape
	// at the given transform.
	AABB(transform actor.Transform) AABB

	// Bounded reports whether the shape has a finite bounding volume.
	// Unbounded shapes (planes) are kept out of spatial indexes.
	Bounded() bool

	// Support returns the local-space point of the shape furthest along
	// direction.
	Support(direction mgl64.Vec3) mgl64.Vec3

	// ContactFeature returns the local-space face, edge or point of the
	// shape most aligned with direction, used for contact manifolds.
	ContactFeature(direction mgl64.Vec3) []mgl64.Vec3
}

// Box is a solid box centered on the geometry origin, described by its
// half-extents along x, y and z.
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b *Box) Kind() Kind { return KindBox }

func (b *Box) Validate() error {
	h := b.HalfExtents
	if !(h.X() > 0) || !(h.Y() > 0) || !(h.Z() > 0) ||
		math.IsInf(h.X(), 0) || math.IsInf(h.Y(), 0) || math.IsInf(h.Z(), 0) {
		return fmt.Errorf("%w: box half-extents %v must be positive and finite", ErrInvalidShape, h)
	}
	return nil
}

func (b *Box) Bounded() bool { return true }

func (b *Box) AABB(transform actor.Transform) AABB {
	h := b.HalfExtents
	corners := [8]mgl64.Vec3{
		{-h.X(), -h.Y(), -h.Z()},
		{+h.X(), -h.Y(), -h.Z()},
		{-h.X(), +h.Y(), -h.Z()},
		{+h.X(), +h.Y(), -h.Z()},
		{-h.X(), -h.Y(), +h.Z()},
		{+h.X(), -h.Y(), +h.Z()},
		{-h.X(), +h.Y(), +h.Z()},
		{+h.X(), +h.Y(), +h.Z()},
	}

	min := transform.Apply(corners[0])
	max := min
	for i := 1; i < 8; i++ {
		world := transform.Apply(corners[i])
		for axis := 0; axis < 3; axis++ {
			min[axis] = math.Min(min[axis], world[axis])
			max[axis] = math.Max(max[axis], world[axis])
		}
	}

	return AABB{Min: min, Max: max}
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()
	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}
	return mgl64.Vec3{hx, hy, hz}
}

// Corners returns the 8 local-space corners of the box.
func (b *Box) Corners() [8]mgl64.Vec3 {
	h := b.HalfExtents
	return [8]mgl64.Vec3{
		{-h.X(), -h.Y(), -h.Z()},
		{+h.X(), -h.Y(), -h.Z()},
		{-h.X(), +h.Y(), -h.Z()},
		{+h.X(), +h.Y(), -h.Z()},
		{-h.X(), -h.Y(), +h.Z()},
		{+h.X(), -h.Y(), +h.Z()},
		{-h.X(), +h.Y(), +h.Z()},
		{+h.X(), +h.Y(), +h.Z()},
	}
}

// ContactFeature returns the box face whose outward normal is most aligned
// with direction, as 4 vertices in counter-clockwise order seen from outside.
func (b *Box) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	faces := []struct {
		normal   mgl64.Vec3
		vertices []mgl64.Vec3
	}{
		{mgl64.Vec3{1, 0, 0}, []mgl64.Vec3{{hx, -hy, -hz}, {hx, -hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}},
		{mgl64.Vec3{-1, 0, 0}, []mgl64.Vec3{{-hx, -hy, hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {-hx, hy, hz}}},
		{mgl64.Vec3{0, 1, 0}, []mgl64.Vec3{{-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}},
		{mgl64.Vec3{0, -1, 0}, []mgl64.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, -hy, -hz}, {-hx, -hy, -hz}}},
		{mgl64.Vec3{0, 0, 1}, []mgl64.Vec3{{-hx, -hy, hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, -hy, hz}}},
		{mgl64.Vec3{0, 0, -1}, []mgl64.Vec3{{hx, -hy, -hz}, {hx, hy, -hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}}},
	}

	bestDot := math.Inf(-1)
	var best []mgl64.Vec3
	for _, face := range faces {
		dot := direction.Dot(face.normal)
		if dot > bestDot {
			bestDot = dot
			best = face.vertices
		}
	}

	return best
}

// Sphere is a solid sphere centered on the geometry origin.
type Sphere struct {
	Radius float64
}

func (s *Sphere) Kind() Kind { return KindSphere }

func (s *Sphere) Validate() error {
	if !(s.Radius > 0) || math.IsInf(s.Radius, 0) {
		return fmt.Errorf("%w: sphere radius %v must be positive and finite", ErrInvalidShape, s.Radius)
	}
	return nil
}

func (s *Sphere) Bounded() bool { return true }

func (s *Sphere) AABB(transform actor.Transform) AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{
		Min: transform.Position.Sub(r),
		Max: transform.Position.Add(r),
	}
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() < 1e-16 {
		return mgl64.Vec3{s.Radius, 0, 0}
	}
	return direction.Normalize().Mul(s.Radius)
}

func (s *Sphere) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

// Plane is an infinite static plane satisfying Normal·p = Offset, with the
// normal pointing out of the solid halfspace. The normal must be unit length.
type Plane struct {
	Normal mgl64.Vec3
	Offset float64
}

func (p *Plane) Kind() Kind { return KindPlane }

func (p *Plane) Validate() error {
	const unitTolerance = 1e-6
	if math.Abs(p.Normal.Len()-1) > unitTolerance {
		return fmt.Errorf("%w: plane normal %v must be unit length", ErrInvalidShape, p.Normal)
	}
	if math.IsNaN(p.Offset) || math.IsInf(p.Offset, 0) {
		return fmt.Errorf("%w: plane offset %v must be finite", ErrInvalidShape, p.Offset)
	}
	return nil
}

func (p *Plane) Bounded() bool { return false }

// AABB of a plane is unbounded; axes nearly aligned with the normal are
// clipped at the plane, the others extend to infinity.
func (p *Plane) AABB(transform actor.Transform) AABB {
	inf := math.Inf(1)
	aabb := AABB{
		Min: mgl64.Vec3{-inf, -inf, -inf},
		Max: mgl64.Vec3{inf, inf, inf},
	}

	const axisThreshold = 1 - 1e-9
	for axis := 0; axis < 3; axis++ {
		if p.Normal[axis] >= axisThreshold {
			aabb.Max[axis] = p.Offset
		} else if p.Normal[axis] <= -axisThreshold {
			aabb.Min[axis] = -p.Offset
		}
	}

	return aabb
}

// Support treats the plane as a very large slab below its surface. Planes are
// collided analytically; this only exists so a plane can stand in as a
// support shape for debugging.
func (p *Plane) Support(direction mgl64.Vec3) mgl64.Vec3 {
	const halfWidth = 1e6
	tangent1, tangent2 := TangentBasis(p.Normal)

	point := p.Normal.Mul(p.Offset)
	if direction.Dot(tangent1) > 0 {
		point = point.Add(tangent1.Mul(halfWidth))
	} else {
		point = point.Sub(tangent1.Mul(halfWidth))
	}
	if direction.Dot(tangent2) > 0 {
		point = point.Add(tangent2.Mul(halfWidth))
	}
	if direction.Dot(p.Normal) < 0 {
		point = point.Sub(p.Normal.Mul(halfWidth))
	}
	return point
}

// ContactFeature returns a large quad on the plane surface.
func (p *Plane) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	const size = 1e6
	tangent1, tangent2 := TangentBasis(p.Normal)
	center := p.Normal.Mul(p.Offset)

	return []mgl64.Vec3{
		center.Add(tangent1.Mul(-size)).Add(tangent2.Mul(-size)),
		center.Add(tangent1.Mul(-size)).Add(tangent2.Mul(size)),
		center.Add(tangent1.Mul(size)).Add(tangent2.Mul(size)),
		center.Add(tangent1.Mul(size)).Add(tangent2.Mul(-size)),
	}
}

// TangentBasis returns two unit vectors orthogonal to normal and to each
// other, forming a right-handed basis with it.
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	tangent1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
