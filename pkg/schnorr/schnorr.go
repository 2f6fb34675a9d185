// Package schnorr implements Schnorr signatures with a Fiat-Shamir challenge.
//
// A signature carries the raw 32 byte challenge rather than the commitment,
// and verification recomputes the commitment from it.
package schnorr

import (
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/zkbricks/bedrock-vault/internal/hash"
	"github.com/zkbricks/bedrock-vault/internal/params"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/math/sample"
)

// Challenge is an unreduced Fiat-Shamir challenge.
type Challenge [hash.DigestLengthBytes]byte

// Parameters are the public parameters of the scheme.
type Parameters struct {
	Group     curve.Curve
	Generator curve.Point
	// Salt, when set, is hashed into every challenge.
	Salt *[params.SaltBytes]byte
}

// Setup returns the parameters over group, without a salt.
func Setup(group curve.Curve) *Parameters {
	return &Parameters{Group: group, Generator: group.NewBasePoint()}
}

// WithSalt returns a copy of pp whose challenges include salt.
func (pp *Parameters) WithSalt(salt [params.SaltBytes]byte) *Parameters {
	out := *pp
	out.Salt = &salt
	return &out
}

// Signature is a Schnorr signature (s, e).
type Signature struct {
	Response  curve.Scalar
	Challenge Challenge
}

// KeyGen samples a secret key, and returns it with its public key.
func KeyGen(rand io.Reader, pp *Parameters) (curve.Scalar, curve.Point, error) {
	sk, err := sample.ScalarUnit(rand, pp.Group)
	if err != nil {
		return nil, nil, fmt.Errorf("schnorr.KeyGen: %w", err)
	}
	return sk, sk.Act(pp.Generator), nil
}

// PublicKey returns sk⋅G.
func PublicKey(pp *Parameters, sk curve.Scalar) curve.Point {
	return sk.Act(pp.Generator)
}

func (pp *Parameters) challenge(pk, commitment curve.Point, message []byte) (Challenge, error) {
	var e Challenge
	h := hash.New()
	if pp.Salt != nil {
		if err := h.WriteAny(pp.Salt[:]); err != nil {
			return e, err
		}
	}
	if err := h.WriteAny(pk, commitment, message); err != nil {
		return e, err
	}
	copy(e[:], h.Sum())
	return e, nil
}

// Sign signs message with sk. A fresh nonce is read from rand on every call.
func Sign(rand io.Reader, pp *Parameters, sk curve.Scalar, message []byte) (*Signature, error) {
	if sk == nil || sk.IsZero() || !curve.SameCurve(pp.Group, sk) {
		return nil, fmt.Errorf("schnorr.Sign: invalid secret key: %w", errs.ErrInvalidParameters)
	}
	k, err := sample.ScalarUnit(rand, pp.Group)
	if err != nil {
		return nil, fmt.Errorf("schnorr.Sign: %w", err)
	}
	// R = k⋅G
	commitment := k.Act(pp.Generator)
	e, err := pp.challenge(sk.Act(pp.Generator), commitment, message)
	if err != nil {
		return nil, fmt.Errorf("schnorr.Sign: %w", err)
	}
	eReduced, err := hash.Reduce(pp.Group, e[:])
	if err != nil {
		return nil, fmt.Errorf("schnorr.Sign: %w", err)
	}
	// s = k - e⋅sk
	s := eReduced.Mul(sk).Negate().Add(k)
	k.Set(pp.Group.NewScalar())
	return &Signature{Response: s, Challenge: e}, nil
}

// Verify reports whether sig is a valid signature of message under pk.
func Verify(pp *Parameters, pk curve.Point, message []byte, sig *Signature) bool {
	if sig == nil || sig.Response == nil || pk == nil {
		return false
	}
	if !curve.SameCurve(pp.Group, pk, sig.Response) || pk.IsIdentity() {
		return false
	}
	eReduced, err := hash.Reduce(pp.Group, sig.Challenge[:])
	if err != nil {
		return false
	}
	// R' = s⋅G + e⋅pk
	commitment := sig.Response.Act(pp.Generator).Add(eReduced.Act(pk))
	if commitment.IsIdentity() {
		return false
	}
	e, err := pp.challenge(pk, commitment, message)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(e[:], sig.Challenge[:]) == 1
}

// EmptySignature creates an empty Signature with a specific group, ready for unmarshalling.
func EmptySignature(group curve.Curve) *Signature {
	return &Signature{Response: group.NewScalar()}
}

type signatureMarshal struct {
	_         struct{} `cbor:",toarray"`
	Response  []byte
	Challenge []byte
}

func (sig *Signature) MarshalBinary() ([]byte, error) {
	if sig.Response == nil {
		return nil, fmt.Errorf("schnorr.Signature: nil response: %w", errs.ErrSerialization)
	}
	s, err := sig.Response.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("schnorr.Signature: %v: %w", err, errs.ErrSerialization)
	}
	return cbor.Marshal(&signatureMarshal{Response: s, Challenge: sig.Challenge[:]})
}

func (sig *Signature) UnmarshalBinary(data []byte) error {
	if sig.Response == nil {
		return fmt.Errorf("schnorr.Signature: must be initialized using EmptySignature: %w", errs.ErrSerialization)
	}
	var m signatureMarshal
	if err := cbor.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("schnorr.Signature: %v: %w", err, errs.ErrSerialization)
	}
	if len(m.Challenge) != len(sig.Challenge) {
		return fmt.Errorf("schnorr.Signature: challenge of %d bytes: %w", len(m.Challenge), errs.ErrSerialization)
	}
	s := sig.Response.Curve().NewScalar()
	if err := s.UnmarshalBinary(m.Response); err != nil {
		return fmt.Errorf("schnorr.Signature: %v: %w", err, errs.ErrSerialization)
	}
	sig.Response = s
	copy(sig.Challenge[:], m.Challenge)
	return nil
}
