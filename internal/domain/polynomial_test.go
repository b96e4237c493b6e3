package domain

import (
	"math"
	"testing"
)

func TestFromZerosRootsEvaluateToZero(t *testing.T) {
	zeros := []Complex[float64]{
		NewComplex[float64](1, 0),
		NewComplex[float64](-0.5, 0.866),
		NewComplex[float64](-0.5, -0.866),
	}
	p := FromZeros(zeros)

	for _, z := range zeros {
		v := p.Eval(z)
		if math.Abs(float64(v.R)) > 1e-9 || math.Abs(float64(v.I)) > 1e-9 {
			t.Fatalf("p(%v) = %v, want ~0", z, v)
		}
	}
}

func TestDifferentiateConstant(t *testing.T) {
	p := Polynomial[float64]{Coefficients: []Complex[float64]{NewComplex[float64](5, 0)}}
	d := Differentiate(p)
	v := d.Eval(NewComplex[float64](3, 4))
	if v.R != 0 || v.I != 0 {
		t.Fatalf("derivative of a constant = %v, want 0", v)
	}
}

func TestConservativeConvergenceRadius(t *testing.T) {
	zeros := []Complex[float64]{
		NewComplex[float64](0, 0),
		NewComplex[float64](20, 0),
		NewComplex[float64](0, 40),
	}
	// min pairwise distance is 20 (between the first two).
	got := ConservativeConvergenceRadius(zeros)
	want := 1.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("radius = %v, want %v", got, want)
	}
}

func TestClosestZeroIndex(t *testing.T) {
	a := NewAnalyzedPolynomial([]Complex[float64]{
		NewComplex[float64](1, 0),
		NewComplex[float64](-1, 0),
	})
	if got := a.ClosestZeroIndex(NewComplex[float64](0.9, 0)); got != 0 {
		t.Fatalf("closest = %d, want 0", got)
	}
	if got := a.ClosestZeroIndex(NewComplex[float64](-0.9, 0)); got != 1 {
		t.Fatalf("closest = %d, want 1", got)
	}
}

func TestNewtonStepConvergesOnRealAxisRoot(t *testing.T) {
	a := NewAnalyzedPolynomial([]Complex[float64]{
		NewComplex[float64](1, 0),
		NewComplex[float64](-0.5, 0.866),
		NewComplex[float64](-0.5, -0.866),
	})

	z := NewComplex[float64](0.8, 0.1)
	for i := 0; i < 50; i++ {
		z = a.NewtonStep(z)
	}
	if !z.CloseTo(a.Zeros[0], a.ConvergenceRadius, a.SqrConvergenceRadius) {
		t.Fatalf("did not converge to zeros[0], landed at %v", z)
	}
}
