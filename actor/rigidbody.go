package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// State is the activity state of a rigid body.
type State int

const (
	// Active bodies are integrated and take part in collision response.
	Active State = iota

	// Disabled bodies are at rest: velocity is zero, they are skipped by the
	// integrator and by constraint assembly. Their geometries still block
	// active bodies as if they were static obstacles.
	Disabled
)

// RigidBody represents a dynamic body in the simulation: position,
// orientation, velocities and mass distribution. Bodies are owned by the
// World that they were added to.
type RigidBody struct {
	Transform Transform

	Velocity        mgl64.Vec3 // Linear velocity (m/s)
	AngularVelocity mgl64.Vec3 // Angular velocity (rad/s)

	State State

	// UserData is an opaque tag for the caller, never touched by the engine.
	UserData any

	mass           Mass
	inverseMass    float64
	inverseInertia mgl64.Mat3 // inverse inertia tensor in body space

	force  mgl64.Vec3
	torque mgl64.Vec3

	idleSteps int
}

// New creates an active rigid body at the given transform with a unit mass.
// Call SetMass to give it a real mass distribution.
func New(transform Transform) *RigidBody {
	transform.InverseRotation = transform.Rotation.Inverse()

	rb := &RigidBody{
		Transform: transform,
		State:     Active,
	}
	// UnitMass always passes validation
	_ = rb.SetMass(UnitMass())

	return rb
}

// SetMass validates and installs the body's mass distribution. The center of
// mass must lie at the body origin; translate the mass before attaching it.
func (rb *RigidBody) SetMass(m Mass) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.Center.Len() > 1e-9 {
		return fmt.Errorf("%w: center of mass %v must lie at the body origin", ErrInvalidMass, m.Center)
	}

	rb.mass = m
	rb.inverseMass = 1.0 / m.Value
	rb.inverseInertia = m.Inertia.Inv()

	return nil
}

// Mass returns the body's mass distribution.
func (rb *RigidBody) Mass() Mass {
	return rb.mass
}

// InverseMass returns 1/m.
func (rb *RigidBody) InverseMass() float64 {
	return rb.inverseMass
}

// InverseInertiaWorld returns the inverse inertia tensor rotated into world
// space: R * I_local^(-1) * R^T.
func (rb *RigidBody) InverseInertiaWorld() mgl64.Mat3 {
	r := rb.Transform.Rotation.Mat4().Mat3()
	return r.Mul3(rb.inverseInertia).Mul3(r.Transpose())
}

// VelocityAt returns the velocity of the body material point currently at the
// given world position.
func (rb *RigidBody) VelocityAt(point mgl64.Vec3) mgl64.Vec3 {
	arm := point.Sub(rb.Transform.Position)
	return rb.Velocity.Add(rb.AngularVelocity.Cross(arm))
}

// AddForce accumulates a force (in N) to be applied on the next step.
// Wakes the body.
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	rb.Enable()
	rb.force = rb.force.Add(force)
}

// AddTorque accumulates a torque (in N·m) to be applied on the next step.
// Wakes the body.
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	rb.Enable()
	rb.torque = rb.torque.Add(torque)
}

// Force returns the force accumulated since the last step.
func (rb *RigidBody) Force() mgl64.Vec3 { return rb.force }

// Torque returns the torque accumulated since the last step.
func (rb *RigidBody) Torque() mgl64.Vec3 { return rb.torque }

// ClearForces resets the force and torque accumulators.
func (rb *RigidBody) ClearForces() {
	rb.force = mgl64.Vec3{}
	rb.torque = mgl64.Vec3{}
}

// Enable puts the body back in the Active state and resets the auto-disable
// counter.
func (rb *RigidBody) Enable() {
	rb.State = Active
	rb.idleSteps = 0
}

// Disable freezes the body: zero velocity, no integration, no constraint
// response until it is woken again.
func (rb *RigidBody) Disable() {
	rb.State = Disabled
	rb.idleSteps = 0
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
	rb.ClearForces()
}

// UpdateDisable advances the auto-disable state machine by one step: after
// steps consecutive steps with linear and angular speed below the thresholds
// the body is disabled.
func (rb *RigidBody) UpdateDisable(linearThreshold, angularThreshold float64, steps int) {
	if rb.State == Disabled {
		return
	}

	if rb.Velocity.Len() < linearThreshold && rb.AngularVelocity.Len() < angularThreshold {
		rb.idleSteps++
		if rb.idleSteps >= steps {
			rb.Disable()
		}
	} else {
		rb.idleSteps = 0
	}
}

// Integrate advances position and orientation by dt using the current
// (post-solve) velocities. Semi-implicit: the solver updates velocity first,
// the position moves with the updated velocity.
func (rb *RigidBody) Integrate(dt float64) {
	if rb.State == Disabled {
		return
	}

	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	omega := mgl64.Quat{W: 0, V: rb.AngularVelocity}
	qDot := omega.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()
}

// Finite reports whether position, orientation and velocities are all finite.
func (rb *RigidBody) Finite() bool {
	return finiteVec(rb.Transform.Position) &&
		finiteVec(rb.Velocity) &&
		finiteVec(rb.AngularVelocity) &&
		finiteVec(rb.Transform.Rotation.V) &&
		!math.IsNaN(rb.Transform.Rotation.W) && !math.IsInf(rb.Transform.Rotation.W, 0)
}

func finiteVec(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
