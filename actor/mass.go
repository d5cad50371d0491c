package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrInvalidMass is returned when a mass has a non-positive value.
	ErrInvalidMass = errors.New("actor: mass must be positive and finite")
	// ErrInvalidInertia is returned when an inertia tensor is not symmetric
	// positive-definite.
	ErrInvalidInertia = errors.New("actor: inertia tensor must be symmetric positive-definite")
)

// Mass describes the mass distribution of a rigid body: total mass, the
// center of mass expressed in body space, and the inertia tensor about the
// center of mass, also in body space.
type Mass struct {
	Value   float64
	Center  mgl64.Vec3
	Inertia mgl64.Mat3
}

// UnitMass returns a 1kg point-like mass with identity inertia. New bodies
// start with it until SetMass is called.
func UnitMass() Mass {
	return Mass{Value: 1, Inertia: mgl64.Ident3()}
}

// BoxMass computes the mass of a solid box from its density and full side
// lengths along x, y and z.
func BoxMass(density, lx, ly, lz float64) (Mass, error) {
	if density <= 0 || lx <= 0 || ly <= 0 || lz <= 0 {
		return Mass{}, fmt.Errorf("%w: box density %v sides (%v, %v, %v)", ErrInvalidMass, density, lx, ly, lz)
	}

	m := density * lx * ly * lz
	factor := m / 12.0

	return Mass{
		Value: m,
		Inertia: mgl64.Mat3{
			factor * (ly*ly + lz*lz), 0, 0,
			0, factor * (lx*lx + lz*lz), 0,
			0, 0, factor * (lx*lx + ly*ly),
		},
	}, nil
}

// SphereMass computes the mass of a solid sphere from its density and radius.
func SphereMass(density, radius float64) (Mass, error) {
	if density <= 0 || radius <= 0 {
		return Mass{}, fmt.Errorf("%w: sphere density %v radius %v", ErrInvalidMass, density, radius)
	}

	m := density * (4.0 / 3.0) * math.Pi * radius * radius * radius
	i := (2.0 / 5.0) * m * radius * radius

	return Mass{
		Value: m,
		Inertia: mgl64.Mat3{
			i, 0, 0,
			0, i, 0,
			0, 0, i,
		},
	}, nil
}

// Validate checks that the mass value is positive and finite and that the
// inertia tensor is symmetric positive-definite (Sylvester's criterion on
// the leading principal minors).
func (m Mass) Validate() error {
	if !(m.Value > 0) || math.IsInf(m.Value, 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidMass, m.Value)
	}

	i := m.Inertia
	const symTolerance = 1e-9
	if math.Abs(i.At(0, 1)-i.At(1, 0)) > symTolerance ||
		math.Abs(i.At(0, 2)-i.At(2, 0)) > symTolerance ||
		math.Abs(i.At(1, 2)-i.At(2, 1)) > symTolerance {
		return fmt.Errorf("%w: not symmetric", ErrInvalidInertia)
	}

	minor1 := i.At(0, 0)
	minor2 := i.At(0, 0)*i.At(1, 1) - i.At(0, 1)*i.At(1, 0)
	minor3 := i.Det()
	if !(minor1 > 0) || !(minor2 > 0) || !(minor3 > 0) {
		return fmt.Errorf("%w: leading minors (%v, %v, %v)", ErrInvalidInertia, minor1, minor2, minor3)
	}

	return nil
}
