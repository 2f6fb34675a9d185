package hash

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
)

// Tag separates the different uses of the derivation hash.
//
// The set is closed: any other value is rejected by ToScalar and ToBytes.
type Tag byte

const (
	ServerKeyDerivation Tag = iota
	MaskDerivation
	DataKeyDerivation
	ReconstructionCheckDerivation
)

func (t Tag) String() string {
	switch t {
	case ServerKeyDerivation:
		return "ServerKeyDerivation"
	case MaskDerivation:
		return "MaskDerivation"
	case DataKeyDerivation:
		return "DataKeyDerivation"
	case ReconstructionCheckDerivation:
		return "ReconstructionCheckDerivation"
	default:
		return fmt.Sprintf("Tag(%d)", byte(t))
	}
}

func (t Tag) valid() bool {
	return t <= ReconstructionCheckDerivation
}

// ToBytes hashes the tag followed by the points, the scalars, and finally the byte strings,
// and returns a DigestLengthBytes long digest.
//
// Each group is written in order, and every element carries its own length,
// so the encoding of the input is unambiguous.
func ToBytes(tag Tag, points []curve.Point, scalars []curve.Scalar, data [][]byte) ([]byte, error) {
	if !tag.valid() {
		return nil, fmt.Errorf("hash.ToBytes: unknown %v: %w", tag, errs.ErrInvalidParameters)
	}
	h := New()
	if err := h.WriteAny(tag); err != nil {
		return nil, fmt.Errorf("hash.ToBytes: %w", err)
	}
	for _, p := range points {
		if p == nil {
			return nil, fmt.Errorf("hash.ToBytes: nil point: %w", errs.ErrSerialization)
		}
		if err := h.WriteAny(p); err != nil {
			return nil, fmt.Errorf("hash.ToBytes: %v: %w", err, errs.ErrSerialization)
		}
	}
	for _, s := range scalars {
		if s == nil {
			return nil, fmt.Errorf("hash.ToBytes: nil scalar: %w", errs.ErrSerialization)
		}
		if err := h.WriteAny(s); err != nil {
			return nil, fmt.Errorf("hash.ToBytes: %v: %w", err, errs.ErrSerialization)
		}
	}
	for _, d := range data {
		if err := h.WriteAny(d); err != nil {
			return nil, fmt.Errorf("hash.ToBytes: %w", err)
		}
	}
	return h.Sum(), nil
}

// ToScalar is ToBytes followed by a reduction into the scalar field of group.
func ToScalar(group curve.Curve, tag Tag, points []curve.Point, scalars []curve.Scalar, data [][]byte) (curve.Scalar, error) {
	digest, err := ToBytes(tag, points, scalars, data)
	if err != nil {
		return nil, err
	}
	return Reduce(group, digest)
}

// Reduce interprets digest as a big-endian integer, and reduces it modulo the order of group.
//
// The digest must carry at least group.SafeScalarBytes() bytes.
func Reduce(group curve.Curve, digest []byte) (curve.Scalar, error) {
	if len(digest) < group.SafeScalarBytes() {
		return nil, fmt.Errorf("hash.Reduce: digest of %d bytes, need %d: %w",
			len(digest), group.SafeScalarBytes(), errs.ErrSerialization)
	}
	return group.NewScalar().SetNat(new(saferith.Nat).SetBytes(digest)), nil
}
