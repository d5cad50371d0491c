package constraint

import (
	"math"

	"github.com/akmonengine/anvil/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultIterations is the default number of relaxation sweeps. More sweeps
// trade CPU time for accuracy; the count is fixed configuration, there is no
// convergence-based early exit.
const DefaultIterations = 20

// Solver computes a velocity update satisfying a set of rows, by iterative
// projected relaxation: a fixed number of sweeps over all rows, each sweep
// updating one row's impulse to locally satisfy its bound given the current
// velocity estimate (projected Gauss-Seidel).
type Solver struct {
	Iterations int
}

// workRow is a row resolved against the scratch velocity arrays, with its
// precomputed M^-1·J^T blocks and effective-mass diagonal.
type workRow struct {
	row    Row
	b1, b2 int // indices into the scratch arrays, -1 for a world-pinned side

	iMJ1Lin, iMJ1Ang mgl64.Vec3
	iMJ2Lin, iMJ2Ang mgl64.Vec3

	denom  float64
	cfmHat float64
	lambda float64
}

// Solve relaxes the rows against the scratch velocity state (lin, ang),
// parallel to bodies, mutating it in place. Body state itself is never
// touched: the caller commits the scratch velocities only after checking
// them, so a failed step leaves every body intact.
func (s Solver) Solve(bodies []*actor.RigidBody, lin, ang []mgl64.Vec3, rows []Row, dt float64) {
	iterations := s.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	index := make(map[*actor.RigidBody]int, len(bodies))
	for i, body := range bodies {
		index[body] = i
	}

	work := make([]workRow, 0, len(rows))
	for _, row := range rows {
		w := workRow{row: row, b1: -1, b2: -1, cfmHat: row.CFM / dt}

		if row.Body1 != nil {
			if i, ok := index[row.Body1]; ok {
				w.b1 = i
				invMass := row.Body1.InverseMass()
				invInertia := row.Body1.InverseInertiaWorld()
				w.iMJ1Lin = row.J1Lin.Mul(invMass)
				w.iMJ1Ang = invInertia.Mul3x1(row.J1Ang)
				w.denom += row.J1Lin.Dot(w.iMJ1Lin) + row.J1Ang.Dot(w.iMJ1Ang)
			}
		}
		if row.Body2 != nil {
			if i, ok := index[row.Body2]; ok {
				w.b2 = i
				invMass := row.Body2.InverseMass()
				invInertia := row.Body2.InverseInertiaWorld()
				w.iMJ2Lin = row.J2Lin.Mul(invMass)
				w.iMJ2Ang = invInertia.Mul3x1(row.J2Ang)
				w.denom += row.J2Lin.Dot(w.iMJ2Lin) + row.J2Ang.Dot(w.iMJ2Ang)
			}
		}

		w.denom += w.cfmHat
		work = append(work, w)
	}

	for sweep := 0; sweep < iterations; sweep++ {
		for i := range work {
			w := &work[i]
			if w.denom < 1e-12 {
				continue
			}

			lo, hi := w.row.Lo, w.row.Hi
			if w.row.FrictionOf != NoFriction {
				normalLambda := math.Abs(work[w.row.FrictionOf].lambda)
				if infinite(w.row.FrictionScale) {
					// No-slip friction: unbounded while the contact carries
					// a normal impulse.
					if normalLambda > 0 {
						lo, hi = math.Inf(-1), math.Inf(1)
					} else {
						lo, hi = 0, 0
					}
				} else {
					limit := w.row.FrictionScale * normalLambda
					lo, hi = -limit, limit
				}
			}

			jv := 0.0
			if w.b1 >= 0 {
				jv += w.row.J1Lin.Dot(lin[w.b1]) + w.row.J1Ang.Dot(ang[w.b1])
			}
			if w.b2 >= 0 {
				jv += w.row.J2Lin.Dot(lin[w.b2]) + w.row.J2Ang.Dot(ang[w.b2])
			}

			delta := (w.row.RHS - jv - w.cfmHat*w.lambda) / w.denom
			next := math.Max(lo, math.Min(hi, w.lambda+delta))
			delta = next - w.lambda
			w.lambda = next

			if delta == 0 {
				continue
			}

			if w.b1 >= 0 {
				lin[w.b1] = lin[w.b1].Add(w.iMJ1Lin.Mul(delta))
				ang[w.b1] = ang[w.b1].Add(w.iMJ1Ang.Mul(delta))
			}
			if w.b2 >= 0 {
				lin[w.b2] = lin[w.b2].Add(w.iMJ2Lin.Mul(delta))
				ang[w.b2] = ang[w.b2].Add(w.iMJ2Ang.Mul(delta))
			}
		}
	}
}
