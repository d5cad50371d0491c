// Package collide implements the narrow phase: exact per-shape-pair tests
// producing contact points for a candidate pair of geometries.
//
// Plane pairs and sphere-sphere pairs are resolved analytically; the
// remaining convex pairs go through GJK (overlap test) followed by EPA
// (penetration depth and normal) and contact-feature clipping (manifold).
package collide

import (
	"sort"

	"github.com/akmonengine/anvil/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultMaxContacts is the default cap on contact points per geometry pair.
const DefaultMaxContacts = 10

// Contact is a single contact point between two geometries, produced fresh
// each step and never persisted.
type Contact struct {
	// Position of the contact in world space.
	Position mgl64.Vec3
	// Normal is the unit contact normal pointing from GeomA toward GeomB.
	Normal mgl64.Vec3
	// Depth is the non-negative penetration depth along the normal.
	Depth float64

	GeomA *geom.Geometry
	GeomB *geom.Geometry
}

// Detect computes the contact points between two geometries. It returns nil
// when the shapes do not overlap. At most maxContacts points are returned;
// when more exist the deepest points win (ties keep discovery order), which
// makes truncation deterministic.
func Detect(a, b *geom.Geometry, maxContacts int) []Contact {
	if maxContacts <= 0 {
		maxContacts = DefaultMaxContacts
	}

	var contacts []Contact

	aPlane := a.Shape().Kind() == geom.KindPlane
	bPlane := b.Shape().Kind() == geom.KindPlane

	switch {
	case aPlane && bPlane:
		return nil
	case aPlane:
		contacts = collidePlane(a, b, false)
	case bPlane:
		contacts = collidePlane(b, a, true)
	case a.Shape().Kind() == geom.KindSphere && b.Shape().Kind() == geom.KindSphere:
		contacts = collideSpheres(a, b)
	default:
		contacts = collideConvex(a, b)
	}

	return truncate(contacts, maxContacts)
}

// truncate keeps the maxContacts deepest points. sort.SliceStable preserves
// discovery order between equal depths.
func truncate(contacts []Contact, maxContacts int) []Contact {
	if len(contacts) <= maxContacts {
		return contacts
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].Depth > contacts[j].Depth
	})
	return contacts[:maxContacts]
}

// collidePlane tests a bounded geometry against a plane. The contact normal
// always points from the first to the second geometry of the original pair:
// when the plane came second (swapped), the plane normal is flipped.
func collidePlane(planeGeom, other *geom.Geometry, swapped bool) []Contact {
	plane := planeGeom.Shape().(*geom.Plane)

	normal := plane.Normal
	geomA, geomB := planeGeom, other
	if swapped {
		normal = plane.Normal.Mul(-1)
		geomA, geomB = other, planeGeom
	}

	var contacts []Contact
	appendContact := func(position mgl64.Vec3, depth float64) {
		contacts = append(contacts, Contact{
			Position: position,
			Normal:   normal,
			Depth:    depth,
			GeomA:    geomA,
			GeomB:    geomB,
		})
	}

	switch shape := other.Shape().(type) {
	case *geom.Sphere:
		center := other.Transform().Position
		distance := plane.Normal.Dot(center) - plane.Offset - shape.Radius
		if distance < 0 {
			appendContact(center.Sub(plane.Normal.Mul(shape.Radius)), -distance)
		}
	case *geom.Box:
		corners := shape.Corners()
		transform := other.Transform()
		for _, corner := range corners {
			world := transform.Apply(corner)
			distance := plane.Normal.Dot(world) - plane.Offset
			if distance < 0 {
				appendContact(world, -distance)
			}
		}
	default:
		// Generic convex against plane: single deepest support point.
		deepest := other.SupportWorld(plane.Normal.Mul(-1))
		distance := plane.Normal.Dot(deepest) - plane.Offset
		if distance < 0 {
			appendContact(deepest, -distance)
		}
	}

	return contacts
}

func collideSpheres(a, b *geom.Geometry) []Contact {
	sphereA := a.Shape().(*geom.Sphere)
	sphereB := b.Shape().(*geom.Sphere)

	delta := b.Transform().Position.Sub(a.Transform().Position)
	distance := delta.Len()
	depth := sphereA.Radius + sphereB.Radius - distance
	if depth <= 0 {
		return nil
	}

	normal := mgl64.Vec3{1, 0, 0} // concentric spheres have no preferred axis
	if distance > 1e-12 {
		normal = delta.Mul(1 / distance)
	}

	position := a.Transform().Position.Add(normal.Mul(sphereA.Radius - depth/2))

	return []Contact{{
		Position: position,
		Normal:   normal,
		Depth:    depth,
		GeomA:    a,
		GeomB:    b,
	}}
}

// collideConvex handles the remaining convex pairs with GJK + EPA.
func collideConvex(a, b *geom.Geometry) []Contact {
	var s simplex
	if !gjkIntersect(a, b, &s) {
		return nil
	}

	normal, depth, ok := epaPenetration(a, b, &s)
	if !ok {
		return nil
	}

	points := generateManifold(a, b, normal, depth)

	contacts := make([]Contact, 0, len(points))
	for _, point := range points {
		contacts = append(contacts, Contact{
			Position: point,
			Normal:   normal,
			Depth:    depth,
			GeomA:    a,
			GeomB:    b,
		})
	}
	return contacts
}
