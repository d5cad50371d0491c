package constraint

import (
	"math"

	"github.com/akmonengine/anvil/actor"
	"github.com/akmonengine/anvil/collide"
	"github.com/akmonengine/anvil/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// WorldParams carries the world-level constants that parameterize contact
// rows.
type WorldParams struct {
	// ERP is the fraction of positional error corrected per step.
	ERP float64
	// CFM is the global constraint softness.
	CFM float64
	// SurfaceLayer is the depth contacts may sink into each other before
	// positional correction kicks in.
	SurfaceLayer float64
	// MaxCorrectingVel clamps the ERP correction velocity so deep
	// interpenetration separates without exploding.
	MaxCorrectingVel float64
}

// ContactRows builds the solver rows for one contact point: a non-penetration
// row along the normal and up to two friction rows along the tangent axes.
// Disabled bodies and static geometries contribute a nil body side, so a
// contact against a static geometry attaches to the single real body.
//
// FrictionOf indices in the returned slice are relative to it; Group.Add
// rebases them.
func ContactRows(c collide.Contact, surface SurfaceParams, params WorldParams, dt float64) []Row {
	body1 := dynamicBody(c.GeomA)
	body2 := dynamicBody(c.GeomB)
	if body1 == nil && body2 == nil {
		return nil
	}

	normal := c.Normal

	var arm1, arm2 mgl64.Vec3
	if body1 != nil {
		arm1 = c.Position.Sub(body1.Transform.Position)
	}
	if body2 != nil {
		arm2 = c.Position.Sub(body2.Transform.Position)
	}

	rows := make([]Row, 0, 3)

	// Non-penetration row. Positional error beyond the surface layer is fed
	// back as an ERP velocity bias, clamped by the max correcting velocity.
	depth := c.Depth - params.SurfaceLayer
	if depth < 0 {
		depth = 0
	}
	bias := math.Min(params.ERP*depth/dt, params.MaxCorrectingVel)

	rhs := bias
	if surface.Mode&SurfaceBounce != 0 {
		// Approach velocity of the bodies at the contact, along the normal.
		approach := -relativeNormalVelocity(body1, body2, c.Position, normal)
		if approach > surface.BounceVel {
			rhs = math.Max(rhs, surface.Bounce*approach)
		}
	}

	cfm := params.CFM
	if surface.Mode&SurfaceSoftCFM != 0 {
		cfm = surface.SoftCFM
	}

	rows = append(rows, contactRow(body1, body2, arm1, arm2, normal, Row{
		RHS:        rhs,
		CFM:        cfm,
		Lo:         0,
		Hi:         math.Inf(1),
		FrictionOf: NoFriction,
	}))

	// Friction rows, bounded each sweep by mu times the normal impulse.
	mu2 := surface.Mu
	if surface.Mode&SurfaceMu2 != 0 {
		mu2 = surface.Mu2
	}

	tangent1, tangent2 := geom.TangentBasis(normal)
	for _, axis := range []struct {
		dir mgl64.Vec3
		mu  float64
	}{
		{tangent1, surface.Mu},
		{tangent2, mu2},
	} {
		if axis.mu <= 0 {
			continue
		}
		rows = append(rows, contactRow(body1, body2, arm1, arm2, axis.dir, Row{
			RHS:           0,
			CFM:           params.CFM,
			FrictionOf:    0,
			FrictionScale: axis.mu,
		}))
	}

	return rows
}

// contactRow fills the Jacobian blocks for a constraint along dir at the
// contact point: positive impulse pushes body2 along +dir and body1 along
// -dir.
func contactRow(body1, body2 *actor.RigidBody, arm1, arm2, dir mgl64.Vec3, row Row) Row {
	row.Body1 = body1
	row.Body2 = body2

	if body1 != nil {
		row.J1Lin = dir.Mul(-1)
		row.J1Ang = arm1.Cross(dir).Mul(-1)
	}
	if body2 != nil {
		row.J2Lin = dir
		row.J2Ang = arm2.Cross(dir)
	}

	return row
}

// relativeNormalVelocity returns the separating velocity of the two body
// sides at the contact point, positive when they move apart.
func relativeNormalVelocity(body1, body2 *actor.RigidBody, point, normal mgl64.Vec3) float64 {
	var v1, v2 mgl64.Vec3
	if body1 != nil {
		v1 = body1.VelocityAt(point)
	}
	if body2 != nil {
		v2 = body2.VelocityAt(point)
	}
	return normal.Dot(v2.Sub(v1))
}

// dynamicBody returns the geometry's body when it participates in response:
// static geometries and disabled bodies are pinned to the world.
func dynamicBody(g *geom.Geometry) *actor.RigidBody {
	body := g.Body()
	if body == nil || body.State != actor.Active {
		return nil
	}
	return body
}
