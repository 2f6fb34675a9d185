package ppss

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/sss"
)

var encMode cbor.EncMode

func init() {
	var err error
	if encMode, err = cbor.CanonicalEncOptions().EncMode(); err != nil {
		panic(err)
	}
}

var errNotInitialized = errors.New("must be initialized using the matching Empty constructor")

func encodePoint(p curve.Point) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("nil point: %w", errs.ErrSerialization)
	}
	data, err := p.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, errs.ErrSerialization)
	}
	return data, nil
}

func encodeScalar(s curve.Scalar) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("nil scalar: %w", errs.ErrSerialization)
	}
	data, err := s.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, errs.ErrSerialization)
	}
	return data, nil
}

func decodePoint(group curve.Curve, data []byte) (curve.Point, error) {
	p := group.NewPoint()
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%v: %w", err, errs.ErrSerialization)
	}
	return p, nil
}

func decodeScalar(group curve.Curve, data []byte) (curve.Scalar, error) {
	s := group.NewScalar()
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%v: %w", err, errs.ErrSerialization)
	}
	return s, nil
}

func unmarshal(data []byte, v interface{}) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%v: %w", err, errs.ErrSerialization)
	}
	return nil
}

// EmptyPrfInput creates an empty PrfInput with a specific group, ready for unmarshalling.
func EmptyPrfInput(group curve.Curve) *PrfInput {
	return &PrfInput{Input: group.NewPoint()}
}

type prfInputMarshal struct {
	_        struct{} `cbor:",toarray"`
	Input    []byte
	ClientID []byte
}

func (in *PrfInput) MarshalBinary() ([]byte, error) {
	input, err := encodePoint(in.Input)
	if err != nil {
		return nil, fmt.Errorf("ppss.PrfInput: %w", err)
	}
	return encMode.Marshal(&prfInputMarshal{Input: input, ClientID: in.ClientID})
}

func (in *PrfInput) UnmarshalBinary(data []byte) error {
	if in.Input == nil {
		return fmt.Errorf("ppss.PrfInput: %w", errNotInitialized)
	}
	var m prfInputMarshal
	if err := unmarshal(data, &m); err != nil {
		return fmt.Errorf("ppss.PrfInput: %w", err)
	}
	p, err := decodePoint(in.Input.Curve(), m.Input)
	if err != nil {
		return fmt.Errorf("ppss.PrfInput: %w", err)
	}
	in.Input, in.ClientID = p, m.ClientID
	return nil
}

// EmptyPrfOutput creates an empty PrfOutput with a specific group, ready for unmarshalling.
func EmptyPrfOutput(group curve.Curve) *PrfOutput {
	return &PrfOutput{Output: group.NewPoint()}
}

func (out *PrfOutput) MarshalBinary() ([]byte, error) {
	data, err := encodePoint(out.Output)
	if err != nil {
		return nil, fmt.Errorf("ppss.PrfOutput: %w", err)
	}
	return encMode.Marshal(data)
}

func (out *PrfOutput) UnmarshalBinary(data []byte) error {
	if out.Output == nil {
		return fmt.Errorf("ppss.PrfOutput: %w", errNotInitialized)
	}
	var raw []byte
	if err := unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ppss.PrfOutput: %w", err)
	}
	p, err := decodePoint(out.Output.Curve(), raw)
	if err != nil {
		return fmt.Errorf("ppss.PrfOutput: %w", err)
	}
	out.Output = p
	return nil
}

// EmptyServerResponse creates an empty ServerResponse with a specific group, ready for unmarshalling.
func EmptyServerResponse(group curve.Curve) *ServerResponse {
	return &ServerResponse{
		PublicKey: group.NewPoint(),
		Output:    EmptyPrfOutput(group),
	}
}

type serverResponseMarshal struct {
	_         struct{} `cbor:",toarray"`
	PublicKey []byte
	Output    []byte
}

func (r *ServerResponse) MarshalBinary() ([]byte, error) {
	pk, err := encodePoint(r.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("ppss.ServerResponse: %w", err)
	}
	if r.Output == nil {
		return nil, fmt.Errorf("ppss.ServerResponse: missing output: %w", errs.ErrSerialization)
	}
	out, err := encodePoint(r.Output.Output)
	if err != nil {
		return nil, fmt.Errorf("ppss.ServerResponse: %w", err)
	}
	return encMode.Marshal(&serverResponseMarshal{PublicKey: pk, Output: out})
}

func (r *ServerResponse) UnmarshalBinary(data []byte) error {
	if r.PublicKey == nil {
		return fmt.Errorf("ppss.ServerResponse: %w", errNotInitialized)
	}
	group := r.PublicKey.Curve()
	var m serverResponseMarshal
	if err := unmarshal(data, &m); err != nil {
		return fmt.Errorf("ppss.ServerResponse: %w", err)
	}
	pk, err := decodePoint(group, m.PublicKey)
	if err != nil {
		return fmt.Errorf("ppss.ServerResponse: public key: %w", err)
	}
	out, err := decodePoint(group, m.Output)
	if err != nil {
		return fmt.Errorf("ppss.ServerResponse: output: %w", err)
	}
	r.PublicKey, r.Output = pk, &PrfOutput{Output: out}
	return nil
}

// EmptyCiphertext creates an empty Ciphertext with a specific group, ready for unmarshalling.
//
// This needs to be called before unmarshalling, instead of just using new(Ciphertext).
func EmptyCiphertext(group curve.Curve) *Ciphertext {
	return &Ciphertext{Hash: group.NewScalar()}
}

type shareMarshal struct {
	_ struct{} `cbor:",toarray"`
	X []byte
	Y []byte
}

type ciphertextMarshal struct {
	_               struct{} `cbor:",toarray"`
	EncryptedShares []shareMarshal
	Hash            []byte
}

func (c *Ciphertext) MarshalBinary() ([]byte, error) {
	shares := make([]shareMarshal, len(c.EncryptedShares))
	for i, s := range c.EncryptedShares {
		x, err := encodeScalar(s.X)
		if err != nil {
			return nil, fmt.Errorf("ppss.Ciphertext: share %d: %w", i, err)
		}
		y, err := encodeScalar(s.Y)
		if err != nil {
			return nil, fmt.Errorf("ppss.Ciphertext: share %d: %w", i, err)
		}
		shares[i] = shareMarshal{X: x, Y: y}
	}
	h, err := encodeScalar(c.Hash)
	if err != nil {
		return nil, fmt.Errorf("ppss.Ciphertext: hash: %w", err)
	}
	return encMode.Marshal(&ciphertextMarshal{EncryptedShares: shares, Hash: h})
}

func (c *Ciphertext) UnmarshalBinary(data []byte) error {
	if c.Hash == nil {
		return fmt.Errorf("ppss.Ciphertext: %w", errNotInitialized)
	}
	group := c.Hash.Curve()
	var m ciphertextMarshal
	if err := unmarshal(data, &m); err != nil {
		return fmt.Errorf("ppss.Ciphertext: %w", err)
	}
	if len(m.EncryptedShares) == 0 {
		return fmt.Errorf("ppss.Ciphertext: no shares: %w", errs.ErrSerialization)
	}
	shares := make([]sss.Share, len(m.EncryptedShares))
	for i, sm := range m.EncryptedShares {
		x, err := decodeScalar(group, sm.X)
		if err != nil {
			return fmt.Errorf("ppss.Ciphertext: share %d: %w", i, err)
		}
		y, err := decodeScalar(group, sm.Y)
		if err != nil {
			return fmt.Errorf("ppss.Ciphertext: share %d: %w", i, err)
		}
		shares[i] = sss.Share{X: x, Y: y}
	}
	h, err := decodeScalar(group, m.Hash)
	if err != nil {
		return fmt.Errorf("ppss.Ciphertext: hash: %w", err)
	}
	c.EncryptedShares, c.Hash = shares, h
	return nil
}
