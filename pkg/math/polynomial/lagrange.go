package polynomial

import (
	"fmt"

	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
)

// Lagrange returns the Lagrange coefficients at 0 for every point of the interpolation domain.
func Lagrange(group curve.Curve, interpolationDomain []curve.Scalar) ([]curve.Scalar, error) {
	return LagrangeAt(group, interpolationDomain, group.NewScalar())
}

// LagrangeAt returns the coefficients lⱼ(at), in the order of the interpolation domain.
//
// The following formula is taken from
// https://en.wikipedia.org/wiki/Lagrange_polynomial
//
//	         (at - x₀)⋅⋅⋅(at - xⱼ₋₁)⋅(at - xⱼ₊₁)⋅⋅⋅(at - xₖ)
//	lⱼ(at) = ------------------------------------------------
//	         (xⱼ - x₀)⋅⋅⋅(xⱼ - xⱼ₋₁)⋅(xⱼ - xⱼ₊₁)⋅⋅⋅(xⱼ - xₖ)
func LagrangeAt(group curve.Curve, interpolationDomain []curve.Scalar, at curve.Scalar) ([]curve.Scalar, error) {
	if len(interpolationDomain) == 0 {
		return nil, fmt.Errorf("polynomial.LagrangeAt: empty domain: %w", errs.ErrInterpolation)
	}
	tmp := group.NewScalar()
	coefficients := make([]curve.Scalar, len(interpolationDomain))
	for j, xJ := range interpolationDomain {
		numerator := curve.ScalarFromUint64(group, 1)
		denominator := curve.ScalarFromUint64(group, 1)
		for i, xI := range interpolationDomain {
			if i == j {
				continue
			}
			// tmp = xⱼ - xᵢ
			tmp.Set(xJ).Sub(xI)
			if tmp.IsZero() {
				return nil, fmt.Errorf("polynomial.LagrangeAt: duplicate point at positions %d and %d: %w",
					i, j, errs.ErrInterpolation)
			}
			denominator.Mul(tmp)
			// tmp = at - xᵢ
			tmp.Set(at).Sub(xI)
			numerator.Mul(tmp)
		}
		coefficients[j] = numerator.Mul(denominator.Invert())
	}
	return coefficients, nil
}

// Interpolate returns f(at), for the unique polynomial f of degree len(xs)-1 with f(xs[i]) = ys[i].
func Interpolate(group curve.Curve, xs, ys []curve.Scalar, at curve.Scalar) (curve.Scalar, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("polynomial.Interpolate: %d points but %d values: %w",
			len(xs), len(ys), errs.ErrInterpolation)
	}
	coefficients, err := LagrangeAt(group, xs, at)
	if err != nil {
		return nil, err
	}
	result := group.NewScalar()
	tmp := group.NewScalar()
	for i, c := range coefficients {
		result.Add(tmp.Set(c).Mul(ys[i]))
	}
	return result, nil
}
