package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/akmonengine/anvil/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func TestShapeValidation(t *testing.T) {
	cases := []struct {
		name    string
		shape   Shape
		wantErr bool
	}{
		{"valid box", &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}, false},
		{"zero-extent box", &Box{HalfExtents: mgl64.Vec3{1, 0, 1}}, true},
		{"negative-extent box", &Box{HalfExtents: mgl64.Vec3{-1, 1, 1}}, true},
		{"valid sphere", &Sphere{Radius: 0.5}, false},
		{"zero-radius sphere", &Sphere{Radius: 0}, true},
		{"nan-radius sphere", &Sphere{Radius: math.NaN()}, true},
		{"valid plane", &Plane{Normal: mgl64.Vec3{0, 1, 0}, Offset: 2}, false},
		{"non-unit plane normal", &Plane{Normal: mgl64.Vec3{0, 2, 0}, Offset: 0}, true},
		{"zero plane normal", &Plane{Normal: mgl64.Vec3{}, Offset: 0}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.shape.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidShape) {
				t.Errorf("Validate() = %v, want ErrInvalidShape", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestBoxSupport(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}

	cases := []struct {
		direction mgl64.Vec3
		want      mgl64.Vec3
	}{
		{mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 2, 3}},
		{mgl64.Vec3{-1, 1, -1}, mgl64.Vec3{-1, 2, -3}},
		{mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 2, 3}},
	}

	for _, tc := range cases {
		got := box.Support(tc.direction)
		if got != tc.want {
			t.Errorf("Support(%v) = %v, want %v", tc.direction, got, tc.want)
		}
	}
}

func TestSphereSupport(t *testing.T) {
	sphere := &Sphere{Radius: 2}

	got := sphere.Support(mgl64.Vec3{0, 10, 0})
	want := mgl64.Vec3{0, 2, 0}
	if !got.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("Support = %v, want %v", got, want)
	}
}

func TestBoxAABBRotated(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}

	// 45° around Y widens the box to sqrt(2) along X and Z.
	transform := actor.NewTransform()
	transform.Rotation = mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})

	aabb := box.AABB(transform)
	want := math.Sqrt2
	if math.Abs(aabb.Max.X()-want) > 1e-9 || math.Abs(aabb.Max.Z()-want) > 1e-9 {
		t.Errorf("rotated AABB max = %v, want x and z near %v", aabb.Max, want)
	}
	if math.Abs(aabb.Max.Y()-1) > 1e-9 {
		t.Errorf("rotated AABB max y = %v, want 1", aabb.Max.Y())
	}
}

func TestPlaneAABB(t *testing.T) {
	plane := &Plane{Normal: mgl64.Vec3{0, 1, 0}, Offset: 3}

	aabb := plane.AABB(actor.NewTransform())
	if !math.IsInf(aabb.Min.X(), -1) || !math.IsInf(aabb.Max.X(), 1) {
		t.Errorf("plane AABB should be unbounded along X, got %v", aabb)
	}
	if aabb.Max.Y() != 3 {
		t.Errorf("axis-aligned plane AABB max y = %v, want 3", aabb.Max.Y())
	}
}

func TestBoxContactFeatureSelectsAlignedFace(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}

	face := box.ContactFeature(mgl64.Vec3{0, -1, 0})
	if len(face) != 4 {
		t.Fatalf("face has %d vertices, want 4", len(face))
	}
	for _, v := range face {
		if v.Y() != -1 {
			t.Errorf("vertex %v not on the -Y face", v)
		}
	}
}

func TestTangentBasis(t *testing.T) {
	normals := []mgl64.Vec3{
		{0, 1, 0},
		{1, 0, 0},
		mgl64.Vec3{1, 1, 1}.Normalize(),
	}

	for _, n := range normals {
		t1, t2 := TangentBasis(n)
		if math.Abs(t1.Dot(n)) > 1e-9 || math.Abs(t2.Dot(n)) > 1e-9 {
			t.Errorf("tangents of %v not orthogonal to normal", n)
		}
		if math.Abs(t1.Dot(t2)) > 1e-9 {
			t.Errorf("tangents of %v not orthogonal to each other", n)
		}
		if math.Abs(t1.Len()-1) > 1e-9 || math.Abs(t2.Len()-1) > 1e-9 {
			t.Errorf("tangents of %v not unit length", n)
		}
	}
}
