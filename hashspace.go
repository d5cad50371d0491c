package anvil

import (
	"math"

	"github.com/akmonengine/anvil/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// cellKey is a cell coordinate in the uniform grid.
type cellKey struct {
	x, y, z int
}

// HashSpace is a uniform spatial hash grid. Bounded geometries are inserted
// into every cell their AABB covers; unbounded geometries (planes) are kept
// aside and paired against everything, a plane would cover the whole grid.
//
// Pair order is deterministic: pairs come out ordered by insertion index,
// regardless of hashing.
type HashSpace struct {
	cellSize float64
	cells    [][]int
	cellMask int

	geoms []*geom.Geometry
}

// NewHashSpace creates a hash grid with the given cell size and cell count
// (rounded up to a power of two).
func NewHashSpace(cellSize float64, numCells int) *HashSpace {
	numCells = nextPowerOfTwo(numCells)

	return &HashSpace{
		cellSize: cellSize,
		cells:    make([][]int, numCells),
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

func (s *HashSpace) Add(g *geom.Geometry) {
	s.geoms = append(s.geoms, g)
}

func (s *HashSpace) Remove(g *geom.Geometry) {
	for i, existing := range s.geoms {
		if existing == g {
			s.geoms = append(s.geoms[:i], s.geoms[i+1:]...)
			return
		}
	}
}

func (s *HashSpace) Geoms() []*geom.Geometry {
	return s.geoms
}

func (s *HashSpace) Pairs() []Pair {
	for i := range s.cells {
		s.cells[i] = s.cells[i][:0]
	}

	var unbounded []int
	for i, g := range s.geoms {
		if !g.Shape().Bounded() {
			unbounded = append(unbounded, i)
			continue
		}
		s.insert(i, g)
	}

	var pairs []Pair
	seen := make([]bool, len(s.geoms))

	for i, a := range s.geoms {
		if !a.Shape().Bounded() {
			continue
		}

		// A pair sharing several cells must only be reported once.
		for j := range seen {
			seen[j] = false
		}

		minCell := s.worldToCell(a.AABB().Min)
		maxCell := s.worldToCell(a.AABB().Max)

		for x := minCell.x; x <= maxCell.x; x++ {
			for y := minCell.y; y <= maxCell.y; y++ {
				for z := minCell.z; z <= maxCell.z; z++ {
					for _, other := range s.cells[s.hashCell(cellKey{x, y, z})] {
						if other <= i || seen[other] {
							continue
						}
						seen[other] = true

						b := s.geoms[other]
						if a.Body() == nil && b.Body() == nil {
							continue
						}
						if a.AABB().Overlaps(b.AABB()) {
							pairs = append(pairs, Pair{A: a, B: b})
						}
					}
				}
			}
		}
	}

	// Planes against every bounded geometry.
	for _, u := range unbounded {
		plane := s.geoms[u]
		for i, g := range s.geoms {
			if !g.Shape().Bounded() {
				continue
			}
			if plane.Body() == nil && g.Body() == nil {
				continue
			}
			if u < i {
				pairs = append(pairs, Pair{A: plane, B: g})
			} else {
				pairs = append(pairs, Pair{A: g, B: plane})
			}
		}
	}

	return pairs
}

func (s *HashSpace) insert(index int, g *geom.Geometry) {
	minCell := s.worldToCell(g.AABB().Min)
	maxCell := s.worldToCell(g.AABB().Max)

	for x := minCell.x; x <= maxCell.x; x++ {
		for y := minCell.y; y <= maxCell.y; y++ {
			for z := minCell.z; z <= maxCell.z; z++ {
				idx := s.hashCell(cellKey{x, y, z})
				s.cells[idx] = append(s.cells[idx], index)
			}
		}
	}
}

func (s *HashSpace) worldToCell(pos mgl64.Vec3) cellKey {
	return cellKey{
		x: int(math.Floor(pos.X() / s.cellSize)),
		y: int(math.Floor(pos.Y() / s.cellSize)),
		z: int(math.Floor(pos.Z() / s.cellSize)),
	}
}

func (s *HashSpace) hashCell(key cellKey) int {
	h := (key.x * 73856093) ^ (key.y * 19349663) ^ (key.z * 83492791)
	return h & s.cellMask
}
