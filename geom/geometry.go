// Package geom owns collision geometries: immutable shape descriptions plus
// their current world transform. A geometry may reference the rigid body it
// is attached to; the reference is non-owning, geometries without a body are
// static, world-fixed obstacles.
package geom

import (
	"github.com/akmonengine/anvil/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Geometry is a collision shape placed in the world. Attached geometries
// follow their body: world transform = body transform composed with a fixed
// local offset, re-derived whenever the body moves.
type Geometry struct {
	// Material selects the surface parameters used when this geometry is
	// involved in a contact. Empty means the table default.
	Material string

	// Sensor geometries report contact events but never generate constraint
	// response.
	Sensor bool

	// UserData is an opaque tag for the caller, never touched by the engine.
	UserData any

	shape     Shape
	transform actor.Transform
	offset    actor.Transform
	body      *actor.RigidBody
	aabb      AABB
}

// New validates the shape and returns a static geometry at the origin.
func New(shape Shape) (*Geometry, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	g := &Geometry{
		shape:     shape,
		transform: actor.NewTransform(),
		offset:    actor.NewTransform(),
	}
	g.aabb = shape.AABB(g.transform)

	return g, nil
}

// Shape returns the geometry's shape description.
func (g *Geometry) Shape() Shape { return g.shape }

// Body returns the owning rigid body, or nil for a static geometry.
func (g *Geometry) Body() *actor.RigidBody { return g.body }

// SetBody attaches the geometry to a body (nil detaches it, freezing the
// geometry at its current world transform). The current local offset is kept.
func (g *Geometry) SetBody(body *actor.RigidBody) {
	g.body = body
	g.Sync()
}

// SetOffset sets the fixed transform of the geometry relative to its body.
func (g *Geometry) SetOffset(offset actor.Transform) {
	offset.InverseRotation = offset.Rotation.Inverse()
	g.offset = offset
	g.Sync()
}

// SetPosition places a static geometry; for attached geometries the world
// transform is owned by the body and this call moves the local offset instead.
func (g *Geometry) SetPosition(position mgl64.Vec3) {
	if g.body != nil {
		g.offset.Position = position
	} else {
		g.transform.Position = position
	}
	g.Sync()
}

// SetRotation orients a static geometry; for attached geometries the local
// offset rotation is changed instead.
func (g *Geometry) SetRotation(rotation mgl64.Quat) {
	rotation = rotation.Normalize()
	if g.body != nil {
		g.offset.Rotation = rotation
		g.offset.InverseRotation = rotation.Inverse()
	} else {
		g.transform.Rotation = rotation
		g.transform.InverseRotation = rotation.Inverse()
	}
	g.Sync()
}

// Transform returns the geometry's current world transform.
func (g *Geometry) Transform() actor.Transform { return g.transform }

// AABB returns the world-space bounding box computed at the last Sync.
func (g *Geometry) AABB() AABB { return g.aabb }

// Sync re-derives the world transform from the owning body and refreshes the
// cached bounding box. Called by the integrator after each step and by the
// setters above.
func (g *Geometry) Sync() {
	if g.body != nil {
		g.transform = g.body.Transform.Compose(g.offset)
	}
	g.aabb = g.shape.AABB(g.transform)
}

// SupportWorld returns the world-space point of the geometry furthest along
// the world-space direction.
func (g *Geometry) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	local := g.transform.InverseRotation.Rotate(direction)
	support := g.shape.Support(local)
	return g.transform.Apply(support)
}
