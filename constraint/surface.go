package constraint

import "math"

// SurfaceMode flags select which optional SurfaceParams fields apply to a
// contact.
type SurfaceMode uint8

const (
	// SurfaceMu2 enables a separate friction coefficient for the second
	// tangent axis.
	SurfaceMu2 SurfaceMode = 1 << iota
	// SurfaceBounce enables restitution.
	SurfaceBounce
	// SurfaceSoftCFM overrides the world CFM on the contact normal row.
	SurfaceSoftCFM
)

// SurfaceParams controls how a contact point becomes a constraint.
type SurfaceParams struct {
	Mode SurfaceMode

	// Mu is the friction coefficient of the first tangent axis (and of the
	// second unless SurfaceMu2 is set). Inf means no slip, 0 disables the
	// friction axis entirely.
	Mu  float64
	Mu2 float64

	// Bounce is the restitution coefficient in [0, 1]; BounceVel is the
	// minimum approach velocity below which restitution is not applied, to
	// avoid jitter at near-rest contacts.
	Bounce    float64
	BounceVel float64

	// SoftCFM softens the normal row when SurfaceSoftCFM is set.
	SoftCFM float64
}

// DefaultSurface is infinite friction, no bounce, no softness.
func DefaultSurface() SurfaceParams {
	return SurfaceParams{Mu: math.Inf(1)}
}
