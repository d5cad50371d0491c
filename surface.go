package anvil

import (
	"github.com/akmonengine/anvil/constraint"
	"github.com/akmonengine/anvil/geom"
)

// materialKey is an unordered pair of material tags.
type materialKey struct {
	a, b string
}

func makeMaterialKey(a, b string) materialKey {
	if b < a {
		a, b = b, a
	}
	return materialKey{a: a, b: b}
}

// SurfaceTable maps a pair of geometry material tags to the surface
// parameters of their contacts. Lookup is a pure, deterministic function of
// the two tags; pairs without an entry get the Default.
type SurfaceTable struct {
	// Default applies to every contact without a more specific entry.
	Default constraint.SurfaceParams

	byPair map[materialKey]constraint.SurfaceParams
}

// NewSurfaceTable creates a table where every contact uses the default
// surface (infinite friction, no bounce).
func NewSurfaceTable() *SurfaceTable {
	return &SurfaceTable{
		Default: constraint.DefaultSurface(),
		byPair:  make(map[materialKey]constraint.SurfaceParams),
	}
}

// Set registers the surface parameters for contacts between two material
// tags, in either order.
func (t *SurfaceTable) Set(materialA, materialB string, params constraint.SurfaceParams) {
	t.byPair[makeMaterialKey(materialA, materialB)] = params
}

// Lookup resolves the surface parameters for a contact between two
// geometries.
func (t *SurfaceTable) Lookup(a, b *geom.Geometry) constraint.SurfaceParams {
	if params, ok := t.byPair[makeMaterialKey(a.Material, b.Material)]; ok {
		return params
	}
	return t.Default
}
