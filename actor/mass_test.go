package actor

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestBoxMass(t *testing.T) {
	m, err := BoxMass(0.5, 2, 2, 2)
	if err != nil {
		t.Fatalf("BoxMass returned error: %v", err)
	}

	// density 0.5 over a 2x2x2 box
	if math.Abs(m.Value-4.0) > 1e-12 {
		t.Errorf("mass = %v, want 4.0", m.Value)
	}

	// I_xx = m/12 * (ly² + lz²) = 4/12 * 8
	want := 4.0 / 12.0 * 8.0
	if math.Abs(m.Inertia.At(0, 0)-want) > 1e-12 {
		t.Errorf("I_xx = %v, want %v", m.Inertia.At(0, 0), want)
	}

	if err := m.Validate(); err != nil {
		t.Errorf("box mass should validate: %v", err)
	}
}

func TestBoxMassRejectsBadArguments(t *testing.T) {
	cases := []struct {
		name                string
		density, lx, ly, lz float64
	}{
		{"zero density", 0, 1, 1, 1},
		{"negative side", 1, -1, 1, 1},
		{"zero side", 1, 1, 0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := BoxMass(tc.density, tc.lx, tc.ly, tc.lz); !errors.Is(err, ErrInvalidMass) {
				t.Errorf("BoxMass(%v, %v, %v, %v) error = %v, want ErrInvalidMass",
					tc.density, tc.lx, tc.ly, tc.lz, err)
			}
		})
	}
}

func TestSphereMass(t *testing.T) {
	m, err := SphereMass(1.0, 2.0)
	if err != nil {
		t.Fatalf("SphereMass returned error: %v", err)
	}

	wantMass := (4.0 / 3.0) * math.Pi * 8.0
	if math.Abs(m.Value-wantMass) > 1e-9 {
		t.Errorf("mass = %v, want %v", m.Value, wantMass)
	}

	wantInertia := 0.4 * wantMass * 4.0
	for i := 0; i < 3; i++ {
		if math.Abs(m.Inertia.At(i, i)-wantInertia) > 1e-9 {
			t.Errorf("I[%d][%d] = %v, want %v", i, i, m.Inertia.At(i, i), wantInertia)
		}
	}
}

func TestMassValidate(t *testing.T) {
	cases := []struct {
		name    string
		mass    Mass
		wantErr error
	}{
		{"unit mass", UnitMass(), nil},
		{"zero mass", Mass{Value: 0, Inertia: mgl64.Ident3()}, ErrInvalidMass},
		{"negative mass", Mass{Value: -1, Inertia: mgl64.Ident3()}, ErrInvalidMass},
		{"nan mass", Mass{Value: math.NaN(), Inertia: mgl64.Ident3()}, ErrInvalidMass},
		{"infinite mass", Mass{Value: math.Inf(1), Inertia: mgl64.Ident3()}, ErrInvalidMass},
		{
			"asymmetric inertia",
			Mass{Value: 1, Inertia: mgl64.Mat3{1, 0.5, 0, 0, 1, 0, 0, 0, 1}},
			ErrInvalidInertia,
		},
		{
			"non positive-definite inertia",
			Mass{Value: 1, Inertia: mgl64.Mat3{-1, 0, 0, 0, 1, 0, 0, 0, 1}},
			ErrInvalidInertia,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mass.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSetMassRejectsOffsetCenter(t *testing.T) {
	body := New(NewTransform())

	m := UnitMass()
	m.Center = mgl64.Vec3{0.5, 0, 0}
	if err := body.SetMass(m); !errors.Is(err, ErrInvalidMass) {
		t.Errorf("SetMass with offset center = %v, want ErrInvalidMass", err)
	}

	// The body keeps its previous mass on rejection.
	if body.InverseMass() != 1.0 {
		t.Errorf("inverse mass after rejected SetMass = %v, want 1.0", body.InverseMass())
	}
}
