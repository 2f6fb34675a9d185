package sample

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/zkbricks/bedrock-vault/internal/params"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func readBits(rand io.Reader, buf []byte) error {
	var err error
	for i := 0; i < maxIterations; i++ {
		if _, err = io.ReadFull(rand, buf); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrMaxIterations, err)
}

// Scalar returns a uniformly random scalar of group.
//
// params.SecBytes extra bytes are read before reducing, which keeps the bias negligible.
func Scalar(rand io.Reader, group curve.Curve) (curve.Scalar, error) {
	buf := make([]byte, group.SafeScalarBytes()+params.SecBytes/2)
	if err := readBits(rand, buf); err != nil {
		return nil, err
	}
	return group.NewScalar().SetNat(new(saferith.Nat).SetBytes(buf)), nil
}

// ScalarUnit returns a uniformly random non-zero scalar of group.
func ScalarUnit(rand io.Reader, group curve.Curve) (curve.Scalar, error) {
	for i := 0; i < maxIterations; i++ {
		s, err := Scalar(rand, group)
		if err != nil {
			return nil, err
		}
		if !s.IsZero() {
			return s, nil
		}
	}
	return nil, ErrMaxIterations
}

// Bytes fills a fresh slice of length n with randomness.
func Bytes(rand io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := readBits(rand, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
