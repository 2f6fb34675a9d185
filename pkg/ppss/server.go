package ppss

import (
	"fmt"

	"github.com/zkbricks/bedrock-vault/internal/hash"
	"github.com/zkbricks/bedrock-vault/internal/params"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
)

// Seed is the only secret a server holds.
type Seed [params.SeedBytes]byte

// ServerKey derives the PRF key of the server holding seed, for clientID.
func ServerKey(pp *Parameters, seed Seed, clientID []byte) (curve.Scalar, error) {
	if err := pp.validate(); err != nil {
		return nil, err
	}
	if len(clientID) == 0 {
		return nil, fmt.Errorf("ppss.ServerKey: empty client id: %w", errs.ErrInvalidParameters)
	}
	sk, err := hash.ToScalar(pp.Group, hash.ServerKeyDerivation, nil, nil, [][]byte{seed[:], clientID})
	if err != nil {
		return nil, fmt.Errorf("ppss.ServerKey: %w", err)
	}
	if sk.IsZero() {
		return nil, fmt.Errorf("ppss.ServerKey: zero key: %w", errs.ErrInvalidParameters)
	}
	return sk, nil
}

func (in *PrfInput) validate(group curve.Curve) error {
	if in == nil || in.Input == nil {
		return fmt.Errorf("missing input: %w", errs.ErrInvalidParameters)
	}
	if !curve.SameCurve(group, in.Input) || in.Input.IsIdentity() {
		return fmt.Errorf("input is not a valid %s point: %w", group.Name(), errs.ErrInvalidParameters)
	}
	if len(in.ClientID) == 0 {
		return fmt.Errorf("empty client id: %w", errs.ErrInvalidParameters)
	}
	return nil
}

func evaluate(pp *Parameters, seed Seed, input *PrfInput) (curve.Scalar, *PrfOutput, error) {
	if err := pp.validate(); err != nil {
		return nil, nil, err
	}
	if err := input.validate(pp.Group); err != nil {
		return nil, nil, err
	}
	sk, err := ServerKey(pp, seed, input.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return sk, &PrfOutput{Output: sk.Act(input.Input)}, nil
}

// ServerProcessKeygenRequest evaluates the PRF of this server on a registration request,
// and returns it together with the server's public key for that client.
func ServerProcessKeygenRequest(pp *Parameters, seed Seed, input *PrfInput) (*ServerResponse, error) {
	sk, out, err := evaluate(pp, seed, input)
	if err != nil {
		return nil, fmt.Errorf("ppss.ServerProcessKeygenRequest: %w", err)
	}
	return &ServerResponse{
		PublicKey: sk.Act(pp.Generator),
		Output:    out,
	}, nil
}

// ServerProcessReconstructRequest evaluates the PRF of this server on a reconstruction request.
func ServerProcessReconstructRequest(pp *Parameters, seed Seed, input *PrfInput) (*PrfOutput, error) {
	_, out, err := evaluate(pp, seed, input)
	if err != nil {
		return nil, fmt.Errorf("ppss.ServerProcessReconstructRequest: %w", err)
	}
	return out, nil
}
