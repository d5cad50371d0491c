package anvil

import "github.com/akmonengine/anvil/geom"

// Pair is an unordered candidate pair of geometries whose bounding volumes
// overlap. A is always the geometry inserted earlier.
type Pair struct {
	A *geom.Geometry
	B *geom.Geometry
}

// Space indexes collision geometries and reports candidate pairs for the
// narrow phase. The partitioning strategy is chosen at configuration time:
// SimpleSpace suits a handful of geometries, HashSpace larger populations.
//
// Pairs is a pure query over the current transforms: a conservative superset
// of the truly colliding pairs. Pairs where neither geometry has an owning
// body are dropped, two world-fixed geometries never need a resolved contact.
type Space interface {
	Add(g *geom.Geometry)
	Remove(g *geom.Geometry)
	Geoms() []*geom.Geometry
	Pairs() []Pair
}

// SimpleSpace is a flat-list space with O(n²) pair search.
type SimpleSpace struct {
	geoms []*geom.Geometry
}

// NewSimpleSpace creates an empty flat-list space.
func NewSimpleSpace() *SimpleSpace {
	return &SimpleSpace{}
}

func (s *SimpleSpace) Add(g *geom.Geometry) {
	s.geoms = append(s.geoms, g)
}

func (s *SimpleSpace) Remove(g *geom.Geometry) {
	for i, existing := range s.geoms {
		if existing == g {
			s.geoms = append(s.geoms[:i], s.geoms[i+1:]...)
			return
		}
	}
}

func (s *SimpleSpace) Geoms() []*geom.Geometry {
	return s.geoms
}

func (s *SimpleSpace) Pairs() []Pair {
	var pairs []Pair

	for i := 0; i < len(s.geoms); i++ {
		for j := i + 1; j < len(s.geoms); j++ {
			a, b := s.geoms[i], s.geoms[j]
			if a.Body() == nil && b.Body() == nil {
				continue
			}
			if !a.AABB().Overlaps(b.AABB()) {
				continue
			}
			pairs = append(pairs, Pair{A: a, B: b})
		}
	}

	return pairs
}
