package collide

import (
	"math"

	"github.com/akmonengine/anvil/geom"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// epaMaxIterations bounds polytope expansion.
	epaMaxIterations = 32

	// epaTolerance: expansion stops once a new support point improves the
	// closest face distance by less than this.
	epaTolerance = 0.001

	// epaMinFaceDistance: faces closer to the origin than this are treated
	// as degenerate and skipped.
	epaMinFaceDistance = 0.0001

	// degeneratePenetration is the fallback depth when the GJK simplex was
	// too degenerate to expand.
	degeneratePenetration = 0.01
)

// face is a triangle of the expanding polytope with its outward normal and
// distance from the origin.
type face struct {
	points   [3]mgl64.Vec3
	normal   mgl64.Vec3
	distance float64
}

// edgeEntry counts edge occurrences among removed faces; edges seen exactly
// once form the boundary of the hole left by the removal. Vertices are
// ordered lexicographically so both windings dedupe to the same entry.
type edgeEntry struct {
	a, b  mgl64.Vec3
	count int
}

// polytope holds the EPA working state. Slices instead of maps keep face and
// edge visiting order deterministic, which keeps trajectories reproducible.
type polytope struct {
	faces   []face
	edges   []edgeEntry
	visible []int
}

// epaPenetration expands the GJK simplex into a polytope approximating the
// Minkowski difference boundary and returns the penetration normal (pointing
// from a toward b) and depth (Expanding Polytope Algorithm, van den Bergen
// 2001). ok is false when the expansion failed to converge.
func epaPenetration(a, b *geom.Geometry, s *simplex) (mgl64.Vec3, float64, bool) {
	if s.count < 4 {
		return degenerateContact(a, b, s)
	}

	var p polytope
	p.buildInitialFaces(s)

	for i := 0; i < epaMaxIterations; i++ {
		if len(p.faces) == 0 {
			break
		}

		closest := p.closestFaceIndex()
		f := p.faces[closest]

		if f.distance < epaMinFaceDistance {
			p.faces[closest] = p.faces[len(p.faces)-1]
			p.faces = p.faces[:len(p.faces)-1]
			continue
		}

		support := minkowskiSupport(a, b, f.normal)
		distance := support.Dot(f.normal)

		if distance-f.distance < epaTolerance {
			return f.normal, f.distance, true
		}

		p.expand(support, closest)
	}

	return mgl64.Vec3{}, 0, false
}

// degenerateContact estimates a contact when GJK stopped before reaching a
// tetrahedron (shapes touching rather than overlapping).
func degenerateContact(a, b *geom.Geometry, s *simplex) (mgl64.Vec3, float64, bool) {
	if s.count >= 2 {
		pa, pb := s.points[0], s.points[1]
		if pa.Len() < pb.Len() {
			pb = pa
		}
		if pb.Len() > 1e-12 {
			return pb.Normalize(), pb.Len(), true
		}
	}

	normal := b.Transform().Position.Sub(a.Transform().Position)
	if normal.Len() < 1e-12 {
		normal = mgl64.Vec3{0, 1, 0}
	} else {
		normal = normal.Normalize()
	}
	return normal, degeneratePenetration, true
}

func (p *polytope) buildInitialFaces(s *simplex) {
	p0, p1, p2, p3 := s.points[0], s.points[1], s.points[2], s.points[3]

	candidates := [4]face{
		makeFace(p0, p1, p2, p3),
		makeFace(p0, p2, p3, p1),
		makeFace(p0, p3, p1, p2),
		makeFace(p1, p3, p2, p0),
	}

	for _, f := range candidates {
		if f.distance >= epaMinFaceDistance {
			p.faces = append(p.faces, f)
		}
	}
	// A valid polytope needs at least 3 faces; keep everything otherwise.
	if len(p.faces) < 3 {
		p.faces = append(p.faces[:0], candidates[:]...)
	}
}

// makeFace builds a face whose normal points outward, using the opposite
// polytope point as the inward reference.
func makeFace(p0, p1, p2, opposite mgl64.Vec3) face {
	f := face{points: [3]mgl64.Vec3{p0, p1, p2}}

	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	length := normal.Len()
	if length < 1e-8 {
		// Zero-area triangle.
		f.normal = mgl64.Vec3{0, 1, 0}
		f.distance = epaMinFaceDistance
		return f
	}
	normal = normal.Mul(1 / length)

	if normal.Dot(opposite.Sub(p0)) > 0 {
		normal = normal.Mul(-1)
	}

	distance := p0.Dot(normal)
	if distance < 0 {
		normal = normal.Mul(-1)
		distance = -distance
	}
	if distance < epaMinFaceDistance {
		distance = epaMinFaceDistance
	}

	f.normal = snapNormal(normal)
	f.distance = distance
	return f
}

func (p *polytope) closestFaceIndex() int {
	closest := 0
	for i := 1; i < len(p.faces); i++ {
		if p.faces[i].distance < p.faces[closest].distance {
			closest = i
		}
	}
	return closest
}

// expand adds a support point to the polytope: faces visible from the point
// are removed and the boundary of the hole is reconnected to the point.
func (p *polytope) expand(support mgl64.Vec3, closest int) {
	centroid := p.centroid()

	p.visible = p.visible[:0]
	for i := range p.faces {
		if support.Sub(p.faces[i].points[0]).Dot(p.faces[i].normal) > 0 {
			p.visible = append(p.visible, i)
		}
	}
	// Never remove every face; fall back to splitting just the closest one.
	if len(p.visible) >= len(p.faces) {
		p.visible = append(p.visible[:0], closest)
	}

	p.collectBoundaryEdges()

	// Remove visible faces back to front so indices stay valid.
	for i := len(p.visible) - 1; i >= 0; i-- {
		idx := p.visible[i]
		p.faces = append(p.faces[:idx], p.faces[idx+1:]...)
	}

	for _, e := range p.edges {
		if e.count != 1 {
			continue
		}
		p.faces = append(p.faces, makeFace(e.a, e.b, support, centroid))
	}

	if len(p.faces) == 0 {
		p.faces = append(p.faces, face{
			points:   [3]mgl64.Vec3{support, support, support},
			normal:   mgl64.Vec3{0, 1, 0},
			distance: epaMinFaceDistance,
		})
	}
}

func (p *polytope) collectBoundaryEdges() {
	p.edges = p.edges[:0]

	for _, idx := range p.visible {
		f := &p.faces[idx]
		pairs := [3][2]mgl64.Vec3{
			{f.points[0], f.points[1]},
			{f.points[1], f.points[2]},
			{f.points[2], f.points[0]},
		}

		for _, pair := range pairs {
			a, b := pair[0], pair[1]
			if compareVec3(a, b) > 0 {
				a, b = b, a
			}

			found := false
			for i := range p.edges {
				if p.edges[i].a == a && p.edges[i].b == b {
					p.edges[i].count++
					found = true
					break
				}
			}
			if !found {
				p.edges = append(p.edges, edgeEntry{a: a, b: b, count: 1})
			}
		}
	}
}

// centroid averages the distinct vertices of the polytope, used as the
// inward reference when orienting new faces.
func (p *polytope) centroid() mgl64.Vec3 {
	var sum mgl64.Vec3
	var unique []mgl64.Vec3

	for i := range p.faces {
	pointLoop:
		for _, point := range p.faces[i].points {
			for _, seen := range unique {
				if seen == point {
					continue pointLoop
				}
			}
			unique = append(unique, point)
			sum = sum.Add(point)
		}
	}

	if len(unique) == 0 {
		return mgl64.Vec3{}
	}
	return sum.Mul(1 / float64(len(unique)))
}

// snapNormal clamps nearly-zero normal components to exactly zero, which
// stabilizes axis-aligned stacking (box resting flat on box).
func snapNormal(normal mgl64.Vec3) mgl64.Vec3 {
	const threshold = 1e-8

	for i := 0; i < 3; i++ {
		if math.Abs(normal[i]) < threshold {
			normal[i] = 0
		}
	}

	length := normal.Len()
	if length < 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}
	return normal.Mul(1 / length)
}

func compareVec3(a, b mgl64.Vec3) int {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
