// Package sss implements Shamir secret sharing over the scalar field of a curve.
//
// Shares below the threshold interpolate to an unrelated value. Recover never
// reports that case; callers must check the result against a commitment.
package sss

import (
	"fmt"
	"io"

	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/math/polynomial"
)

// Share is the evaluation Y = f(X) of the sharing polynomial.
type Share struct {
	X curve.Scalar
	Y curve.Scalar
}

// Split samples a random polynomial of degree threshold-1 with constant term secret,
// and evaluates it at 1, …, parties.
func Split(rand io.Reader, group curve.Curve, secret curve.Scalar, threshold, parties int) ([]Share, error) {
	if threshold < 1 || threshold > parties {
		return nil, fmt.Errorf("sss.Split: threshold %d with %d parties: %w", threshold, parties, errs.ErrInvalidParameters)
	}
	if secret == nil || !curve.SameCurve(group, secret) {
		return nil, fmt.Errorf("sss.Split: secret not in %s: %w", group.Name(), errs.ErrInvalidParameters)
	}
	f, err := polynomial.NewPolynomial(group, threshold-1, secret, rand)
	if err != nil {
		return nil, fmt.Errorf("sss.Split: %w", err)
	}
	shares := make([]Share, parties)
	for i := range shares {
		x := curve.ScalarFromUint64(group, uint64(i+1))
		shares[i] = Share{X: x, Y: f.Evaluate(x)}
	}
	return shares, nil
}

// Recover returns the value at 0 of the polynomial going through shares.
func Recover(group curve.Curve, shares []Share) (curve.Scalar, error) {
	return Interpolate(group, shares, group.NewScalar())
}

// Interpolate returns the value at x of the polynomial going through shares.
//
// Duplicate indices fail with errs.ErrInterpolation.
func Interpolate(group curve.Curve, shares []Share, x curve.Scalar) (curve.Scalar, error) {
	xs := make([]curve.Scalar, len(shares))
	ys := make([]curve.Scalar, len(shares))
	for i, s := range shares {
		if s.X == nil || s.Y == nil {
			return nil, fmt.Errorf("sss.Interpolate: incomplete share %d: %w", i, errs.ErrInterpolation)
		}
		xs[i], ys[i] = s.X, s.Y
	}
	y, err := polynomial.Interpolate(group, xs, ys, x)
	if err != nil {
		return nil, fmt.Errorf("sss.Interpolate: %w", err)
	}
	return y, nil
}
