package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and orientation in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// At returns an identity-oriented transform at the given position
func At(position mgl64.Vec3) Transform {
	t := NewTransform()
	t.Position = position
	return t
}

// Compose returns the transform obtained by applying local after t,
// i.e. the world transform of a child whose fixed offset relative to t is local.
func (t Transform) Compose(local Transform) Transform {
	rotation := t.Rotation.Mul(local.Rotation).Normalize()
	return Transform{
		Position:        t.Position.Add(t.Rotation.Rotate(local.Position)),
		Rotation:        rotation,
		InverseRotation: rotation.Inverse(),
	}
}

// Apply transforms a point from local space into world space
func (t Transform) Apply(point mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(point))
}
