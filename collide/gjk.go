package collide

import (
	"github.com/akmonengine/anvil/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// gjkMaxIterations bounds the simplex refinement loop; valid convex shapes
// converge in a handful of iterations.
const gjkMaxIterations = 32

// simplex holds 1 to 4 points in Minkowski difference space. GJK grows it
// point → line → triangle → tetrahedron while converging on the origin.
type simplex struct {
	points [4]mgl64.Vec3
	count  int
}

// minkowskiSupport returns the support point of the Minkowski difference
// A - B along direction: supportA(d) - supportB(-d).
func minkowskiSupport(a, b *geom.Geometry, direction mgl64.Vec3) mgl64.Vec3 {
	return a.SupportWorld(direction).Sub(b.SupportWorld(direction.Mul(-1)))
}

// gjkIntersect reports whether two convex geometries overlap, by testing
// whether their Minkowski difference contains the origin (Gilbert, Johnson,
// Keerthi 1988). On intersection the simplex is a tetrahedron containing the
// origin, ready for EPA.
func gjkIntersect(a, b *geom.Geometry, s *simplex) bool {
	direction := b.Transform().Position.Sub(a.Transform().Position)
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	s.points[0] = minkowskiSupport(a, b, direction)
	s.count = 1

	direction = s.points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		return true // first support point sits on the origin, shapes touch
	}

	for i := 0; i < gjkMaxIterations; i++ {
		point := minkowskiSupport(a, b, direction)

		// The new point never passed the origin: the origin is unreachable,
		// the shapes are separated.
		if point.Dot(direction) <= 0 {
			return false
		}

		s.points[s.count] = point
		s.count++

		if containsOrigin(s, &direction) {
			return true
		}
	}

	return false
}

// containsOrigin tests whether the simplex contains the origin. When it does
// not, the simplex is reduced to its feature closest to the origin and the
// search direction is updated.
func containsOrigin(s *simplex, direction *mgl64.Vec3) bool {
	switch s.count {
	case 2:
		return simplexLine(s, direction)
	case 3:
		return simplexTriangle(s, direction)
	case 4:
		return simplexTetrahedron(s, direction)
	}
	return false
}

func simplexLine(s *simplex, direction *mgl64.Vec3) bool {
	a := s.points[1] // most recent point
	b := s.points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		s.points[0] = a
		s.count = 1
		*direction = ao
		return false
	}

	// Origin behind A: keep A only.
	if ab.Dot(ao) <= 0 {
		s.points[0] = a
		s.count = 1
		*direction = ao
		return false
	}

	perpendicular := ab.Cross(ao).Cross(ab)
	if perpendicular.LenSqr() < 1e-8 {
		return true // origin lies on the segment
	}

	*direction = perpendicular
	return false
}

func simplexTriangle(s *simplex, direction *mgl64.Vec3) bool {
	a := s.points[2] // most recent point
	b := s.points[1]
	c := s.points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	normal := ab.Cross(ac)

	// Collinear points: fall back to the line case.
	if normal.LenSqr() < 1e-10 {
		s.points[0] = b
		s.points[1] = a
		s.count = 2
		return simplexLine(s, direction)
	}

	// Edge AB region.
	if ab.Cross(normal).Dot(ao) > 0 {
		s.points[0] = b
		s.points[1] = a
		s.count = 2
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}

	// Edge AC region.
	if normal.Cross(ac).Dot(ao) > 0 {
		s.points[0] = c
		s.points[1] = a
		s.count = 2
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	if normal.Dot(ao) > 0 {
		*direction = normal
	} else {
		// Below the triangle: flip winding so the next point keeps the
		// tetrahedron consistently oriented.
		s.points[0] = a
		s.points[1] = c
		s.points[2] = b
		s.count = 3
		*direction = normal.Mul(-1)
	}

	return false
}

func simplexTetrahedron(s *simplex, direction *mgl64.Vec3) bool {
	a := s.points[3] // most recent point
	b := s.points[2]
	c := s.points[1]
	d := s.points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	// Face normals oriented away from the opposite vertex.
	abc := ab.Cross(ac)
	if abc.Dot(ad) > 0 {
		abc = abc.Mul(-1)
	}
	acd := ac.Cross(ad)
	if acd.Dot(ab) > 0 {
		acd = acd.Mul(-1)
	}
	adb := ad.Cross(ab)
	if adb.Dot(ac) > 0 {
		adb = adb.Mul(-1)
	}

	if abc.LenSqr() < 1e-10 || acd.LenSqr() < 1e-10 || adb.LenSqr() < 1e-10 {
		s.points[0] = c
		s.points[1] = b
		s.points[2] = a
		s.count = 3
		return simplexTriangle(s, direction)
	}

	if abc.Dot(ao) > 0 {
		s.points[0] = c
		s.points[1] = b
		s.points[2] = a
		s.count = 3
		return simplexTriangle(s, direction)
	}
	if acd.Dot(ao) > 0 {
		s.points[0] = d
		s.points[1] = c
		s.points[2] = a
		s.count = 3
		return simplexTriangle(s, direction)
	}
	if adb.Dot(ao) > 0 {
		s.points[0] = b
		s.points[1] = d
		s.points[2] = a
		s.count = 3
		return simplexTriangle(s, direction)
	}

	// Origin is inside all four faces.
	return true
}
