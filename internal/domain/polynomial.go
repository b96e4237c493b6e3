package domain

import "math"

// Polynomial holds coefficients in increasing order of degree:
// coefficients[0] + coefficients[1]*z + coefficients[2]*z^2 + ...
type Polynomial[T Float] struct {
	Coefficients []Complex[T]
}

// FromZeros builds the monic polynomial with the given roots via repeated
// multiplication, starting from p(z) = 1.
func FromZeros[T Float](zeros []Complex[T]) Polynomial[T] {
	result := Polynomial[T]{Coefficients: []Complex[T]{NewComplex[T](1, 0)}}
	for _, zero := range zeros {
		factor := Polynomial[T]{Coefficients: []Complex[T]{zero.Neg(), NewComplex[T](1, 0)}}
		result = result.Mul(factor)
	}
	return result
}

// Mul returns the coefficient convolution of p and o.
func (p Polynomial[T]) Mul(o Polynomial[T]) Polynomial[T] {
	a, b := len(p.Coefficients), len(o.Coefficients)
	if a == 0 || b == 0 {
		return Polynomial[T]{}
	}
	result := make([]Complex[T], a+b-1)
	for i := 0; i < a; i++ {
		for j := 0; j < b; j++ {
			result[i+j] = result[i+j].Add(p.Coefficients[i].Mul(o.Coefficients[j]))
		}
	}
	return Polynomial[T]{Coefficients: result}
}

// Eval evaluates p(z) via Horner's method.
func (p Polynomial[T]) Eval(z Complex[T]) Complex[T] {
	result := p.Coefficients[len(p.Coefficients)-1]
	for i := len(p.Coefficients) - 2; i >= 0; i-- {
		result = result.Mul(z).Add(p.Coefficients[i])
	}
	return result
}

// Differentiate returns p's formal derivative.
func Differentiate[T Float](p Polynomial[T]) Polynomial[T] {
	if len(p.Coefficients) <= 1 {
		return Polynomial[T]{Coefficients: []Complex[T]{NewComplex[T](0, 0)}}
	}
	result := make([]Complex[T], len(p.Coefficients)-1)
	for i := 1; i < len(p.Coefficients); i++ {
		result[i-1] = p.Coefficients[i].Mul(NewComplex[T](T(i), 0))
	}
	return Polynomial[T]{Coefficients: result}
}

// ConservativeConvergenceRadius returns the minimum pairwise distance
// between zeros, divided by 20 — a conservative radius chosen so that
// once a point is inside the disc it cannot migrate to a different
// basin.
func ConservativeConvergenceRadius[T Float](zeros []Complex[T]) T {
	minDistance := T(math.Inf(1))
	for i := range zeros {
		for j := i + 1; j < len(zeros); j++ {
			d := zeros[i].Sub(zeros[j]).Magnitude()
			if d < minDistance {
				minDistance = d
			}
		}
	}
	return minDistance / 20
}

// AnalyzedPolynomial derives, from a zero list, the polynomial, its
// derivative, and a conservative convergence radius. Construction
// requires a non-empty zero list.
type AnalyzedPolynomial[T Float] struct {
	Zeros                []Complex[T]
	Polynomial           Polynomial[T]
	Derivative           Polynomial[T]
	ConvergenceRadius    T
	SqrConvergenceRadius T
}

// NewAnalyzedPolynomial builds an AnalyzedPolynomial from zeros. zeros
// must be non-empty.
func NewAnalyzedPolynomial[T Float](zeros []Complex[T]) AnalyzedPolynomial[T] {
	poly := FromZeros(zeros)
	radius := ConservativeConvergenceRadius(zeros)
	// A single zero has no pairwise distance to measure against; fall
	// back to a radius that still lets Newton converge in practice.
	if len(zeros) == 1 {
		radius = 1e-6
	}
	return AnalyzedPolynomial[T]{
		Zeros:                zeros,
		Polynomial:           poly,
		Derivative:           Differentiate(poly),
		ConvergenceRadius:    radius,
		SqrConvergenceRadius: radius * radius,
	}
}

// ClosestZeroIndex returns the index into Zeros closest to z by squared
// magnitude.
func (a AnalyzedPolynomial[T]) ClosestZeroIndex(z Complex[T]) int {
	closest := 0
	closestSqrMag := z.Sub(a.Zeros[0]).SqrMagnitude()
	for i := 1; i < len(a.Zeros); i++ {
		sqrMag := z.Sub(a.Zeros[i]).SqrMagnitude()
		if sqrMag < closestSqrMag {
			closestSqrMag = sqrMag
			closest = i
		}
	}
	return closest
}

// NewtonStep applies one Newton iteration: z - p(z)/p'(z). Division by a
// near-zero derivative yields Inf/NaN, which deliberately falls outside
// every convergence disc on the next check and is ultimately resolved by
// the closest-zero fallback; this keeps the iteration branch-free on
// numeric edge cases.
func (a AnalyzedPolynomial[T]) NewtonStep(z Complex[T]) Complex[T] {
	return z.Sub(a.Polynomial.Eval(z).Div(a.Derivative.Eval(z)))
}
