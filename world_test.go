package anvil

import (
	"errors"
	"math"
	"testing"

	"github.com/akmonengine/anvil/actor"
	"github.com/akmonengine/anvil/constraint"
	"github.com/akmonengine/anvil/geom"
	"github.com/go-gl/mathgl/mgl64"
)

func createSphere(t *testing.T, world *World, position mgl64.Vec3, radius float64) *actor.RigidBody {
	t.Helper()

	body := actor.New(actor.At(position))
	world.AddBody(body)

	g, err := geom.New(&geom.Sphere{Radius: radius})
	if err != nil {
		t.Fatal(err)
	}
	g.SetBody(body)
	world.Space().Add(g)

	return body
}

func createBox(t *testing.T, world *World, position mgl64.Vec3, halfExtents mgl64.Vec3) *actor.RigidBody {
	t.Helper()

	body := actor.New(actor.At(position))
	world.AddBody(body)

	g, err := geom.New(&geom.Box{HalfExtents: halfExtents})
	if err != nil {
		t.Fatal(err)
	}
	g.SetBody(body)
	world.Space().Add(g)

	return body
}

func createGround(t *testing.T, world *World) *geom.Geometry {
	t.Helper()

	g, err := geom.New(&geom.Plane{Normal: mgl64.Vec3{0, 1, 0}, Offset: 0})
	if err != nil {
		t.Fatal(err)
	}
	world.Space().Add(g)
	return g
}

func TestStepRejectsInvalidTimeStep(t *testing.T) {
	world := NewWorld(NewSimpleSpace())

	for _, dt := range []float64{0, -0.01, math.NaN(), math.Inf(1)} {
		if err := world.Step(dt); !errors.Is(err, ErrInvalidTimeStep) {
			t.Errorf("Step(%v) = %v, want ErrInvalidTimeStep", dt, err)
		}
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*World)
	}{
		{"ERP above one", func(w *World) { w.ERP = 1.5 }},
		{"negative CFM", func(w *World) { w.CFM = -1 }},
		{"negative surface layer", func(w *World) { w.SurfaceLayer = -0.1 }},
		{"zero max correcting velocity", func(w *World) { w.MaxCorrectingVel = 0 }},
		{"zero iterations", func(w *World) { w.Iterations = 0 }},
		{"zero max contacts", func(w *World) { w.MaxContacts = 0 }},
	}

	if err := NewWorld(NewSimpleSpace()).Validate(); err != nil {
		t.Errorf("default world invalid: %v", err)
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			world := NewWorld(NewSimpleSpace())
			tc.mutate(world)
			if err := world.Validate(); !errors.Is(err, ErrInvalidWorld) {
				t.Errorf("Validate() = %v, want ErrInvalidWorld", err)
			}
		})
	}
}

func TestFreeFallMatchesAnalytic(t *testing.T) {
	world := NewWorld(NewSimpleSpace())
	world.Gravity = mgl64.Vec3{0, -9.81, 0}

	body := actor.New(actor.At(mgl64.Vec3{0, 100, 0}))
	world.AddBody(body)

	dt := 0.01
	steps := 100
	for i := 0; i < steps; i++ {
		if err := world.Step(dt); err != nil {
			t.Fatal(err)
		}
	}

	wantV := -9.81 * dt * float64(steps)
	if math.Abs(body.Velocity.Y()-wantV) > 1e-9 {
		t.Errorf("velocity = %v, want %v", body.Velocity.Y(), wantV)
	}

	// Semi-implicit Euler: y = y0 + g dt² (1 + 2 + ... + N)
	n := float64(steps)
	wantY := 100 - 9.81*dt*dt*n*(n+1)/2
	if math.Abs(body.Transform.Position.Y()-wantY) > 1e-9 {
		t.Errorf("position = %v, want %v", body.Transform.Position.Y(), wantY)
	}
}

func TestBoxDropSettlesOnGround(t *testing.T) {
	world := NewWorld(NewSimpleSpace())
	world.Gravity = mgl64.Vec3{0, -1, 0}
	world.CFM = 1e-5
	world.SurfaceLayer = 0.001
	world.MaxCorrectingVel = 0.9

	createGround(t, world)
	body := createBox(t, world, mgl64.Vec3{0, 10, -5}, mgl64.Vec3{1, 1, 1})

	world.Surfaces().Default = constraint.SurfaceParams{
		Mode:      constraint.SurfaceBounce | constraint.SurfaceSoftCFM,
		Mu:        math.Inf(1),
		Bounce:    0.01,
		BounceVel: 0.1,
		SoftCFM:   0.01,
	}

	for i := 0; i < 1000; i++ {
		if err := world.Step(0.01); err != nil {
			t.Fatal(err)
		}
	}

	y := body.Transform.Position.Y()
	if math.Abs(y-1) > 0.01 {
		t.Errorf("resting height = %v, want about 1", y)
	}
	if body.Velocity.Len() > 0.01 {
		t.Errorf("resting speed = %v, want near zero", body.Velocity.Len())
	}

	// No-slip friction: the box never drifts horizontally.
	if math.Abs(body.Transform.Position.X()) > 1e-3 ||
		math.Abs(body.Transform.Position.Z()-(-5)) > 1e-3 {
		t.Errorf("box drifted to (%v, _, %v)", body.Transform.Position.X(), body.Transform.Position.Z())
	}
}

func TestDeadContactInjectsNoEnergy(t *testing.T) {
	world := NewWorld(NewSimpleSpace())
	world.Gravity = mgl64.Vec3{0, -9.81, 0}
	world.SurfaceLayer = 0.001

	createGround(t, world)
	body := createSphere(t, world, mgl64.Vec3{0, 2, 0}, 1)

	world.Surfaces().Default = constraint.SurfaceParams{Mu: 0} // bounce off

	kinetic := func() float64 {
		v := body.Velocity.Len()
		return 0.5 * body.Mass().Value * v * v
	}

	contactThisStep := false
	world.Events().Subscribe(CONTACT_ENTER, func(e Event) { contactThisStep = true })
	world.Events().Subscribe(CONTACT_STAY, func(e Event) { contactThisStep = true })

	touched := false
	previous := math.Inf(1)
	for i := 0; i < 500; i++ {
		contactThisStep = false
		if err := world.Step(0.01); err != nil {
			t.Fatal(err)
		}
		if !contactThisStep {
			previous = math.Inf(1)
			continue
		}
		touched = true

		// In continuous contact the energy must never grow.
		ke := kinetic()
		if ke > previous+1e-9 {
			t.Fatalf("step %d: kinetic energy grew from %v to %v in contact", i, previous, ke)
		}
		previous = ke
	}

	if !touched {
		t.Fatal("sphere never reached the ground")
	}
}

func TestStepIsDeterministic(t *testing.T) {
	run := func() []mgl64.Vec3 {
		world := NewWorld(NewSimpleSpace())
		world.Gravity = mgl64.Vec3{0, -9.81, 0}
		world.SurfaceLayer = 0.001

		createGround(t, world)
		bodies := []*actor.RigidBody{
			createBox(t, world, mgl64.Vec3{0, 3, 0}, mgl64.Vec3{0.5, 0.5, 0.5}),
			createSphere(t, world, mgl64.Vec3{0.3, 5, 0.1}, 0.5),
			createBox(t, world, mgl64.Vec3{-0.2, 7, 0}, mgl64.Vec3{0.5, 0.5, 0.5}),
		}

		for i := 0; i < 500; i++ {
			if err := world.Step(0.01); err != nil {
				t.Fatal(err)
			}
		}

		positions := make([]mgl64.Vec3, len(bodies))
		for i, body := range bodies {
			positions[i] = body.Transform.Position
		}
		return positions
	}

	first := run()
	second := run()

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("body %d: run 1 at %v, run 2 at %v", i, first[i], second[i])
		}
	}
}

func TestStepUnstableLeavesStateIntact(t *testing.T) {
	world := NewWorld(NewSimpleSpace())
	world.Gravity = mgl64.Vec3{0, -9.81, 0}

	body := createSphere(t, world, mgl64.Vec3{0, 5, 0}, 1)
	body.Velocity = mgl64.Vec3{math.NaN(), 0, 0}

	before := body.Transform.Position
	if err := world.Step(0.01); !errors.Is(err, ErrUnstable) {
		t.Fatalf("Step = %v, want ErrUnstable", err)
	}
	if body.Transform.Position != before {
		t.Errorf("failed step moved the body to %v", body.Transform.Position)
	}
}

func TestContactWakesDisabledBody(t *testing.T) {
	world := NewWorld(NewSimpleSpace())

	sleeping := createSphere(t, world, mgl64.Vec3{0, 0, 0}, 1)
	sleeping.Disable()

	mover := createSphere(t, world, mgl64.Vec3{1.5, 0, 0}, 1)
	mover.Velocity = mgl64.Vec3{-1, 0, 0}

	if err := world.Step(0.01); err != nil {
		t.Fatal(err)
	}

	if sleeping.State != actor.Active {
		t.Error("contact with an active body did not wake the sleeping one")
	}
}

func TestDisabledBodyBlocksLikeStatic(t *testing.T) {
	world := NewWorld(NewSimpleSpace())

	obstacle := createSphere(t, world, mgl64.Vec3{0, 0, 0}, 1)
	obstacle.Disable()

	// Wake-on-contact reactivates the obstacle, which then resists through
	// its own inertia; momentum is shared.
	mover := createSphere(t, world, mgl64.Vec3{1.9, 0, 0}, 1)
	mover.Velocity = mgl64.Vec3{-2, 0, 0}

	if err := world.Step(0.01); err != nil {
		t.Fatal(err)
	}

	if mover.Velocity.X() < -2 {
		t.Errorf("mover sped up through the obstacle: %v", mover.Velocity)
	}
}

func TestAutoDisablePutsRestingBodyToSleep(t *testing.T) {
	world := NewWorld(NewSimpleSpace())
	world.Gravity = mgl64.Vec3{0, -1, 0}
	world.CFM = 1e-5
	world.SurfaceLayer = 0.001
	world.MaxCorrectingVel = 0.9
	world.AutoDisable = true

	createGround(t, world)
	body := createBox(t, world, mgl64.Vec3{0, 10, 0}, mgl64.Vec3{1, 1, 1})

	world.Surfaces().Default = constraint.SurfaceParams{
		Mode:      constraint.SurfaceBounce | constraint.SurfaceSoftCFM,
		Mu:        math.Inf(1),
		Bounce:    0.01,
		BounceVel: 0.1,
		SoftCFM:   0.01,
	}

	disabledAt := -1
	for i := 0; i < 2000; i++ {
		if err := world.Step(0.01); err != nil {
			t.Fatal(err)
		}
		if body.State == actor.Disabled {
			disabledAt = i
			break
		}
	}

	if disabledAt < 0 {
		t.Fatal("body never went to sleep")
	}

	// A sleeping body stays exactly where it is.
	rest := body.Transform.Position
	for i := 0; i < 100; i++ {
		if err := world.Step(0.01); err != nil {
			t.Fatal(err)
		}
	}
	if body.Transform.Position != rest {
		t.Errorf("sleeping body drifted from %v to %v", rest, body.Transform.Position)
	}
}

func TestSensorReportsWithoutResponse(t *testing.T) {
	world := NewWorld(NewSimpleSpace())

	sensorGeom, err := geom.New(&geom.Box{HalfExtents: mgl64.Vec3{1, 1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	sensorGeom.Sensor = true
	world.Space().Add(sensorGeom)

	body := createSphere(t, world, mgl64.Vec3{0, 0.5, 0}, 0.5)
	body.Velocity = mgl64.Vec3{0, -1, 0}

	entered := 0
	world.Events().Subscribe(CONTACT_ENTER, func(e Event) {
		entered++
	})

	if err := world.Step(0.01); err != nil {
		t.Fatal(err)
	}

	if entered != 1 {
		t.Errorf("sensor overlap fired %d enter events, want 1", entered)
	}
	// No constraint response: the body keeps falling through.
	if math.Abs(body.Velocity.Y()-(-1)) > 1e-9 {
		t.Errorf("sensor changed the body velocity to %v", body.Velocity.Y())
	}
}

func TestRemoveBody(t *testing.T) {
	world := NewWorld(NewSimpleSpace())
	body := createSphere(t, world, mgl64.Vec3{}, 1)

	world.RemoveBody(body)
	if len(world.Bodies()) != 0 {
		t.Errorf("world still holds %d bodies", len(world.Bodies()))
	}
}
