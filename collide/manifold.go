package collide

import (
	"math"

	"github.com/akmonengine/anvil/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// generateManifold builds the set of world-space contact positions for an
// overlapping convex pair from the EPA normal and depth, via
// Sutherland-Hodgman clipping of the incident contact feature against the
// reference one. Multiple points keep stacked shapes from rocking on a
// single contact.
func generateManifold(a, b *geom.Geometry, normal mgl64.Vec3, depth float64) []mgl64.Vec3 {
	localNormalA := a.Transform().InverseRotation.Rotate(normal)
	localNormalB := b.Transform().InverseRotation.Rotate(normal.Mul(-1))

	featureA := transformFeature(a.Shape().ContactFeature(localNormalA), a)
	featureB := transformFeature(b.Shape().ContactFeature(localNormalB), b)

	// The feature with fewer vertices is the incident one.
	incident, reference := featureB, featureA
	if len(featureA) < len(featureB) {
		incident, reference = featureA, featureB
	}

	if len(incident) == 1 {
		return incident
	}

	clipped := clipAgainstReference(incident, reference, normal)

	// Keep only clipped points at or behind the reference face plane.
	var points []mgl64.Vec3
	if len(clipped) > 0 && len(reference) >= 3 {
		refNormal := reference[1].Sub(reference[0]).Cross(reference[2].Sub(reference[0])).Normalize()
		if refNormal.Dot(normal) < 0 {
			refNormal = refNormal.Mul(-1)
		}
		offset := reference[0].Dot(refNormal)

		for _, point := range clipped {
			if point.Dot(refNormal)-offset <= 0 {
				points = append(points, point)
			}
		}
	}

	// Everything clipped away: fall back to the deepest point of b.
	if len(points) == 0 {
		points = append(points, b.SupportWorld(normal.Mul(-1)))
	}

	if len(points) > 4 {
		points = reduceToFour(points, normal)
	}

	return points
}

func transformFeature(feature []mgl64.Vec3, g *geom.Geometry) []mgl64.Vec3 {
	world := make([]mgl64.Vec3, len(feature))
	for i, point := range feature {
		world[i] = g.Transform().Apply(point)
	}
	return world
}

// clipAgainstReference clips the incident polygon against the side planes of
// the reference polygon (perpendicular to the contact normal).
func clipAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	if len(reference) < 2 {
		return incident
	}

	center := polygonCenter(reference)
	output := incident

	for i := 0; i < len(reference) && len(output) > 0; i++ {
		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		edge := v2.Sub(v1)
		clipNormal := edge.Cross(normal)
		if clipNormal.Len() < 1e-12 {
			continue
		}
		clipNormal = clipNormal.Normalize()

		// Side plane normal points toward the reference interior.
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = clipPolygon(output, v1, clipNormal)
	}

	return output
}

// clipPolygon is Sutherland-Hodgman against a single plane; points on the
// positive side of the plane normal are kept.
func clipPolygon(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	if len(polygon) == 0 {
		return polygon
	}

	const tolerance = 1e-6
	var output []mgl64.Vec3

	for i := 0; i < len(polygon); i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		if currentDist >= -tolerance {
			output = append(output, current)
			if nextDist < -tolerance {
				output = append(output, intersectPlane(current, next, planePoint, planeNormal))
			}
		} else if nextDist >= -tolerance {
			output = append(output, intersectPlane(current, next, planePoint, planeNormal))
		}
	}

	return output
}

func intersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	direction := p2.Sub(p1)
	denominator := direction.Dot(planeNormal)
	if math.Abs(denominator) < 1e-12 {
		return p1
	}

	t := -p1.Sub(planePoint).Dot(planeNormal) / denominator
	t = math.Max(0, math.Min(1, t))
	return p1.Add(direction.Mul(t))
}

func polygonCenter(points []mgl64.Vec3) mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(points)))
}

// reduceToFour keeps the extreme points along the two tangent axes of the
// contact plane, preserving the manifold footprint. Index order is kept so
// the reduction is deterministic.
func reduceToFour(points []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	tangent1, tangent2 := geom.TangentBasis(normal)

	minX, maxX, minY, maxY := 0, 0, 0, 0
	for i, p := range points {
		x := p.Dot(tangent1)
		y := p.Dot(tangent2)

		if x < points[minX].Dot(tangent1) {
			minX = i
		}
		if x > points[maxX].Dot(tangent1) {
			maxX = i
		}
		if y < points[minY].Dot(tangent2) {
			minY = i
		}
		if y > points[maxY].Dot(tangent2) {
			maxY = i
		}
	}

	var result []mgl64.Vec3
	for _, idx := range []int{minX, maxX, minY, maxY} {
		duplicate := false
		for _, kept := range result {
			if kept == points[idx] {
				duplicate = true
				break
			}
		}
		if !duplicate {
			result = append(result, points[idx])
		}
	}

	return result
}
