// A box dropped from 10 units onto a ground plane, with slight bounce and
// no-slip friction. The run is deterministic: the same positions print on
// every execution.
package main

import (
	"fmt"
	"log"
	"math"

	"github.com/akmonengine/anvil"
	"github.com/akmonengine/anvil/actor"
	"github.com/akmonengine/anvil/constraint"
	"github.com/akmonengine/anvil/geom"
	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	world := anvil.NewWorld(anvil.NewSimpleSpace())
	world.Gravity = mgl64.Vec3{0, -1.0, 0}
	world.CFM = 1e-5
	world.SurfaceLayer = 0.001
	world.MaxCorrectingVel = 0.9
	world.AutoDisable = true

	ground, err := geom.New(&geom.Plane{Normal: mgl64.Vec3{0, 1, 0}, Offset: 0})
	if err != nil {
		log.Fatal(err)
	}
	world.Space().Add(ground)

	body := actor.New(actor.At(mgl64.Vec3{0, 10, -5}))
	mass, err := actor.BoxMass(0.5, 2, 2, 2)
	if err != nil {
		log.Fatal(err)
	}
	if err := body.SetMass(mass); err != nil {
		log.Fatal(err)
	}
	world.AddBody(body)

	box, err := geom.New(&geom.Box{HalfExtents: mgl64.Vec3{1, 1, 1}})
	if err != nil {
		log.Fatal(err)
	}
	box.SetBody(body)
	world.Space().Add(box)

	world.Surfaces().Default = constraint.SurfaceParams{
		Mode:      constraint.SurfaceBounce | constraint.SurfaceSoftCFM,
		Mu:        math.Inf(1),
		Bounce:    0.01,
		BounceVel: 0.1,
		SoftCFM:   0.01,
	}

	world.Events().Subscribe(anvil.ON_SLEEP, func(e anvil.Event) {
		fmt.Println("body at rest")
	})

	for step := 0; step < 1000; step++ {
		if err := world.Step(0.01); err != nil {
			log.Fatal(err)
		}

		if step%50 == 0 {
			p := body.Transform.Position
			fmt.Printf("step %4d  pos=(%8.4f %8.4f %8.4f)\n", step, p.X(), p.Y(), p.Z())
		}
	}
}
