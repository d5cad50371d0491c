// Package anvil is a 3D rigid body dynamics engine: a World steps bodies
// under gravity, detects contacts between their geometries through a
// configurable broad phase, and resolves non-penetration, friction and
// restitution with an iterative constraint solver.
package anvil

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/anvil/actor"
	"github.com/akmonengine/anvil/collide"
	"github.com/akmonengine/anvil/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrInvalidTimeStep is returned by Step for a non-positive or non-finite
	// dt.
	ErrInvalidTimeStep = errors.New("anvil: invalid time step")

	// ErrUnstable is returned by Step when the solved velocities are not
	// finite. The step commits nothing: body state is exactly what it was
	// before the call.
	ErrUnstable = errors.New("anvil: simulation diverged")

	// ErrInvalidWorld is returned by Validate for out-of-range world
	// parameters.
	ErrInvalidWorld = errors.New("anvil: invalid world configuration")
)

// World owns the bodies, geometries and joints of one simulation and advances
// them in fixed steps. The exported fields are tuning parameters; they may be
// changed between steps but not during one.
type World struct {
	// Gravity is applied to every active body each step (m/s²).
	Gravity mgl64.Vec3

	// ERP is the global error reduction parameter: the fraction of contact
	// penetration corrected per step. Must be in [0, 1].
	ERP float64

	// CFM is the global constraint force mixing parameter, a softness added
	// to every constraint. Must be >= 0.
	CFM float64

	// SurfaceLayer is the contact depth tolerated before the ERP correction
	// engages, preventing jitter from contacts hovering at zero depth.
	SurfaceLayer float64

	// MaxCorrectingVel clamps the velocity the ERP correction may inject.
	MaxCorrectingVel float64

	// AutoDisable freezes bodies that stay below the velocity thresholds for
	// AutoDisableSteps consecutive steps.
	AutoDisable        bool
	AutoDisableLinear  float64
	AutoDisableAngular float64
	AutoDisableSteps   int

	// Iterations is the solver sweep count.
	Iterations int

	// MaxContacts caps the contact points kept per colliding pair.
	MaxContacts int

	bodies   []*actor.RigidBody
	space    Space
	surfaces *SurfaceTable
	joints   []constraint.Joint

	contacts constraint.Group
	events   Events

	scratchLin []mgl64.Vec3
	scratchAng []mgl64.Vec3
	active     []*actor.RigidBody
}

// NewWorld creates a world using the given broad phase, with zero gravity
// and stiff, hard contacts.
func NewWorld(space Space) *World {
	return &World{
		ERP:              0.2,
		CFM:              1e-10,
		SurfaceLayer:     0.0,
		MaxCorrectingVel: math.Inf(1),

		AutoDisableLinear:  0.01,
		AutoDisableAngular: 0.01,
		AutoDisableSteps:   10,

		Iterations:  constraint.DefaultIterations,
		MaxContacts: collide.DefaultMaxContacts,

		space:    space,
		surfaces: NewSurfaceTable(),
		events:   newEvents(),
	}
}

// Validate checks the world's tuning parameters.
func (w *World) Validate() error {
	if w.ERP < 0 || w.ERP > 1 {
		return fmt.Errorf("%w: ERP %v outside [0, 1]", ErrInvalidWorld, w.ERP)
	}
	if w.CFM < 0 || math.IsNaN(w.CFM) {
		return fmt.Errorf("%w: CFM %v is negative", ErrInvalidWorld, w.CFM)
	}
	if w.SurfaceLayer < 0 {
		return fmt.Errorf("%w: surface layer %v is negative", ErrInvalidWorld, w.SurfaceLayer)
	}
	if w.MaxCorrectingVel <= 0 {
		return fmt.Errorf("%w: max correcting velocity %v is not positive", ErrInvalidWorld, w.MaxCorrectingVel)
	}
	if w.Iterations <= 0 {
		return fmt.Errorf("%w: iteration count %d is not positive", ErrInvalidWorld, w.Iterations)
	}
	if w.MaxContacts <= 0 {
		return fmt.Errorf("%w: max contacts %d is not positive", ErrInvalidWorld, w.MaxContacts)
	}
	return nil
}

// AddBody registers a body with the world.
func (w *World) AddBody(body *actor.RigidBody) {
	w.bodies = append(w.bodies, body)
}

// RemoveBody unregisters a body. Geometries attached to it stay in the space;
// detach or remove them separately.
func (w *World) RemoveBody(body *actor.RigidBody) {
	for i, existing := range w.bodies {
		if existing == body {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			w.events.forget(body)
			return
		}
	}
}

// Bodies returns the registered bodies in insertion order.
func (w *World) Bodies() []*actor.RigidBody {
	return w.bodies
}

// AddJoint registers a persistent constraint.
func (w *World) AddJoint(joint constraint.Joint) {
	w.joints = append(w.joints, joint)
}

// RemoveJoint unregisters a persistent constraint.
func (w *World) RemoveJoint(joint constraint.Joint) {
	for i, existing := range w.joints {
		if existing == joint {
			w.joints = append(w.joints[:i], w.joints[i+1:]...)
			return
		}
	}
}

// Space returns the broad phase.
func (w *World) Space() Space { return w.space }

// Surfaces returns the material surface table.
func (w *World) Surfaces() *SurfaceTable { return w.surfaces }

// Events returns the event hub for subscribing to contact and sleep/wake
// notifications.
func (w *World) Events() *Events { return &w.events }

// Step advances the simulation by dt seconds: collide, solve constraints,
// integrate, then dispatch events. dt must be positive and finite.
//
// The contact group is rebuilt from scratch every step; contacts never
// persist. On ErrUnstable no body state is modified.
func (w *World) Step(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTimeStep, dt)
	}

	defer w.contacts.Clear()

	w.collideStep(dt)
	for _, joint := range w.joints {
		w.contacts.Add(joint.Rows(dt))
	}

	active := w.activeBodies()
	lin, ang := w.seedVelocities(active, dt)

	solver := constraint.Solver{Iterations: w.Iterations}
	solver.Solve(active, lin, ang, w.contacts.Rows(), dt)

	for i := range active {
		if !finiteVec(lin[i]) || !finiteVec(ang[i]) {
			return fmt.Errorf("%w: body %d has non-finite velocity", ErrUnstable, i)
		}
	}

	for i, body := range active {
		body.Velocity = lin[i]
		body.AngularVelocity = ang[i]
		body.ClearForces()
		body.Integrate(dt)
	}

	for _, g := range w.space.Geoms() {
		if body := g.Body(); body != nil && body.State == actor.Active {
			g.Sync()
		}
	}

	if w.AutoDisable {
		for _, body := range active {
			body.UpdateDisable(w.AutoDisableLinear, w.AutoDisableAngular, w.AutoDisableSteps)
		}
	}

	w.events.step(w.bodies)

	return nil
}

// collideStep runs broad and narrow phase and assembles contact rows into the
// ephemeral group.
func (w *World) collideStep(dt float64) {
	for _, pair := range w.space.Pairs() {
		bodyA, bodyB := pair.A.Body(), pair.B.Body()
		if !anyActive(bodyA, bodyB) {
			continue
		}

		contacts := collide.Detect(pair.A, pair.B, w.MaxContacts)
		if len(contacts) == 0 {
			continue
		}

		// A contact with an active body wakes a sleeping one, so a stack
		// disturbed from above reactivates.
		wakeOnContact(bodyA, bodyB)

		w.events.recordContact(pair.A, pair.B)

		if pair.A.Sensor || pair.B.Sensor {
			continue
		}

		surface := w.surfaces.Lookup(pair.A, pair.B)
		params := constraint.WorldParams{
			ERP:              w.ERP,
			CFM:              w.CFM,
			SurfaceLayer:     w.SurfaceLayer,
			MaxCorrectingVel: w.MaxCorrectingVel,
		}

		for _, c := range contacts {
			w.contacts.Add(constraint.ContactRows(c, surface, params, dt))
		}
	}
}

// activeBodies collects the bodies that take part in this step's solve.
func (w *World) activeBodies() []*actor.RigidBody {
	w.active = w.active[:0]
	for _, body := range w.bodies {
		if body.State == actor.Active {
			w.active = append(w.active, body)
		}
	}
	return w.active
}

// seedVelocities fills the scratch arrays with each active body's velocity
// plus the explicit acceleration from gravity and the force accumulators.
// The solver relaxes these in place; bodies are committed only afterwards.
func (w *World) seedVelocities(active []*actor.RigidBody, dt float64) (lin, ang []mgl64.Vec3) {
	if cap(w.scratchLin) < len(active) {
		w.scratchLin = make([]mgl64.Vec3, len(active))
		w.scratchAng = make([]mgl64.Vec3, len(active))
	}
	lin = w.scratchLin[:len(active)]
	ang = w.scratchAng[:len(active)]

	for i, body := range active {
		accel := w.Gravity.Add(body.Force().Mul(body.InverseMass()))
		lin[i] = body.Velocity.Add(accel.Mul(dt))

		angAccel := body.InverseInertiaWorld().Mul3x1(body.Torque())
		ang[i] = body.AngularVelocity.Add(angAccel.Mul(dt))
	}

	return lin, ang
}

func anyActive(bodies ...*actor.RigidBody) bool {
	for _, body := range bodies {
		if body != nil && body.State == actor.Active {
			return true
		}
	}
	return false
}

// wakeOnContact enables a disabled body touched by an active one.
func wakeOnContact(a, b *actor.RigidBody) {
	if a != nil && b != nil {
		if a.State == actor.Active && b.State == actor.Disabled {
			b.Enable()
		}
		if b.State == actor.Active && a.State == actor.Disabled {
			a.Enable()
		}
	}
}

func finiteVec(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
