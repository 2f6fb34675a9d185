// Package curve defines the prime-order group abstraction used throughout the vault.
//
// Protocol code only ever talks to the Curve, Scalar and Point interfaces, so an
// alternate group can be substituted by providing a new binding.
package curve

import (
	"encoding"

	"github.com/cronokirby/saferith"
)

// Curve represents the capabilities of a prime-order elliptic curve group.
type Curve interface {
	// NewPoint returns the identity element.
	NewPoint() Point
	// NewBasePoint returns the canonical generator.
	NewBasePoint() Point
	// NewScalar returns the zero scalar.
	NewScalar() Scalar
	// Name identifies the curve, and is used to detect values from a different group.
	Name() string
	// ScalarBits is the bit length of the group order.
	ScalarBits() int
	// SafeScalarBytes is the number of uniform bytes needed to derive a scalar.
	SafeScalarBytes() int
	// ScalarBytes is the length of the canonical scalar encoding.
	ScalarBytes() int
	// PointBytes is the length of the canonical (compressed) point encoding.
	PointBytes() int
	// Order returns the order of the group, as a modulus.
	Order() *saferith.Modulus
	// HashToPoint deterministically maps msg to a group element, using dst for domain separation.
	HashToPoint(msg, dst []byte) (Point, error)
}

// Scalar represents an element of the scalar field of a Curve.
//
// Arithmetic methods modify the receiver and return it, allowing calls to be chained.
type Scalar interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	// Curve returns the group this scalar belongs to.
	Curve() Curve
	// Add sets s = s + that, and returns s.
	Add(Scalar) Scalar
	// Sub sets s = s - that, and returns s.
	Sub(Scalar) Scalar
	// Mul sets s = s * that, and returns s.
	Mul(Scalar) Scalar
	// Invert sets s = 1/s, and returns s. The inverse of 0 is 0.
	Invert() Scalar
	// Negate sets s = -s, and returns s.
	Negate() Scalar
	Equal(Scalar) bool
	IsZero() bool
	// Set copies that into s, and returns s.
	Set(Scalar) Scalar
	// SetNat sets s = x mod q, and returns s.
	SetNat(*saferith.Nat) Scalar
	// Act returns s * P.
	Act(Point) Point
	// ActOnBase returns s * G.
	ActOnBase() Point
}

// Point represents an element of a Curve.
//
// Unlike Scalar, the arithmetic methods of Point return new values.
type Point interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	// Curve returns the group this point belongs to.
	Curve() Curve
	Add(Point) Point
	Sub(Point) Point
	Negate() Point
	// Set copies that into p, and returns p.
	Set(Point) Point
	Equal(Point) bool
	IsIdentity() bool
}

// SameCurve reports whether every given value belongs to group.
//
// Values from different groups must never be mixed. Callers decoding untrusted
// input use this before doing any arithmetic.
func SameCurve(group Curve, values ...interface{ Curve() Curve }) bool {
	for _, v := range values {
		if v == nil || v.Curve() == nil || v.Curve().Name() != group.Name() {
			return false
		}
	}
	return true
}

// ScalarFromUint64 returns x as a Scalar of group.
func ScalarFromUint64(group Curve, x uint64) Scalar {
	return group.NewScalar().SetNat(new(saferith.Nat).SetUint64(x))
}
