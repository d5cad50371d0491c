// Package constraint turns contact points into solver rows and solves the
// assembled system with iterative projected relaxation, producing a velocity
// update that approximately satisfies every row's bound.
package constraint

import (
	"math"

	"github.com/akmonengine/anvil/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// NoFriction marks a row that is not coupled to a normal row.
const NoFriction = -1

// Row is one scalar constraint in the solver's system:
//
//	J1Lin·v1 + J1Ang·ω1 + J2Lin·v2 + J2Ang·ω2 = RHS, with impulse in [Lo, Hi]
//
// Either body may be nil, which pins that side to the world (static
// geometry, disabled body).
type Row struct {
	Body1 *actor.RigidBody
	Body2 *actor.RigidBody

	J1Lin, J1Ang mgl64.Vec3
	J2Lin, J2Ang mgl64.Vec3

	// RHS is the target constraint velocity, including the ERP bias and any
	// restitution target.
	RHS float64

	// CFM softens the row by entering the effective-mass diagonal.
	CFM float64

	// Lo and Hi bound the accumulated impulse. Non-penetration rows use
	// [0, +Inf].
	Lo, Hi float64

	// FrictionOf indexes the normal row this friction row is coupled to
	// (within the same row slice), or NoFriction. The bounds of a coupled
	// row are recomputed every sweep as ±FrictionScale × normal impulse:
	// a friction cone, not a fixed box.
	FrictionOf    int
	FrictionScale float64
}

// Joint is the extension point for persistent constraints. Implementations
// emit their rows each step; FrictionOf indices are relative to the returned
// slice.
type Joint interface {
	Rows(dt float64) []Row
}

// Group accumulates constraint rows for one step. Contact rows live in the
// World's ephemeral group, which is rebuilt every step and cleared
// unconditionally afterwards, whether or not the step succeeded.
type Group struct {
	rows []Row
}

// Add appends a block of rows, rebasing their intra-block FrictionOf indices
// onto the group's flat slice.
func (g *Group) Add(rows []Row) {
	offset := len(g.rows)
	for _, row := range rows {
		if row.FrictionOf != NoFriction {
			row.FrictionOf += offset
		}
		g.rows = append(g.rows, row)
	}
}

// Rows returns the flattened row slice.
func (g *Group) Rows() []Row { return g.rows }

// Len returns the number of rows in the group.
func (g *Group) Len() int { return len(g.rows) }

// Clear empties the group, keeping capacity for the next step.
func (g *Group) Clear() { g.rows = g.rows[:0] }

// Infinite reports whether the bound encodes "unbounded" (Mu = Inf).
func infinite(v float64) bool { return math.IsInf(v, 0) }
