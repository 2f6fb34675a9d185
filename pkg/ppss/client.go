package ppss

import (
	"fmt"
	"io"

	"github.com/zkbricks/bedrock-vault/internal/hash"
	"github.com/zkbricks/bedrock-vault/internal/params"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/math/sample"
	"github.com/zkbricks/bedrock-vault/pkg/pool"
	"github.com/zkbricks/bedrock-vault/pkg/sss"
)

func clientGenerateRequest(rand io.Reader, pp *Parameters, clientID, password []byte) (*ClientState, *PrfInput, error) {
	if err := pp.validate(); err != nil {
		return nil, nil, err
	}
	if len(clientID) == 0 {
		return nil, nil, fmt.Errorf("empty client id: %w", errs.ErrInvalidParameters)
	}
	blind, err := sample.ScalarUnit(rand, pp.Group)
	if err != nil {
		return nil, nil, err
	}
	pwPoint, err := pp.Group.HashToPoint(password, pp.DST)
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, errs.ErrInvalidParameters)
	}
	state := &ClientState{
		group:    pp.Group,
		blind:    blind,
		clientID: append([]byte(nil), clientID...),
		password: append([]byte(nil), password...),
	}
	return state, &PrfInput{Input: blind.Act(pwPoint), ClientID: state.ClientID()}, nil
}

// ClientGenerateKeygenRequest blinds password, and returns the request to send to every server
// together with the state needed by ClientKeygen.
func ClientGenerateKeygenRequest(rand io.Reader, pp *Parameters, clientID, password []byte) (*ClientState, *PrfInput, error) {
	state, input, err := clientGenerateRequest(rand, pp, clientID, password)
	if err != nil {
		return nil, nil, fmt.Errorf("ppss.ClientGenerateKeygenRequest: %w", err)
	}
	return state, input, nil
}

// ClientGenerateReconstructRequest is ClientGenerateKeygenRequest for ClientReconstruct.
//
// The blind is sampled afresh on every call.
func ClientGenerateReconstructRequest(rand io.Reader, pp *Parameters, clientID, password []byte) (*ClientState, *PrfInput, error) {
	state, input, err := clientGenerateRequest(rand, pp, clientID, password)
	if err != nil {
		return nil, nil, fmt.Errorf("ppss.ClientGenerateReconstructRequest: %w", err)
	}
	return state, input, nil
}

func (s *ClientState) usable(group curve.Curve) error {
	if s == nil || s.consumed || s.blind == nil {
		return fmt.Errorf("client state missing or already used: %w", errs.ErrInvalidParameters)
	}
	if !curve.SameCurve(group, s.blind) {
		return fmt.Errorf("client state from another group: %w", errs.ErrInvalidParameters)
	}
	return nil
}

// masks unblinds every output and derives the mask of its position.
// A nil output yields a nil mask.
func masks(pl *pool.Pool, pp *Parameters, state *ClientState, outputs []*PrfOutput) ([]curve.Scalar, error) {
	unblind := pp.Group.NewScalar().Set(state.blind).Invert()
	return pool.ParallelizeErr(pl, len(outputs), func(i int) (curve.Scalar, error) {
		out := outputs[i]
		if out == nil {
			return nil, nil
		}
		if out.Output == nil || !curve.SameCurve(pp.Group, out.Output) || out.Output.IsIdentity() {
			return nil, fmt.Errorf("output %d is not a valid %s point: %w", i, pp.Group.Name(), errs.ErrInvalidParameters)
		}
		prf := unblind.Act(out.Output)
		mask, err := hash.ToScalar(pp.Group, hash.MaskDerivation, []curve.Point{prf}, nil, [][]byte{state.password})
		if err != nil {
			return nil, fmt.Errorf("mask %d: %w", i, err)
		}
		return mask, nil
	})
}

// deriveKey splits the encoding of H(DataKeyDerivation, s) into the check randomness and the key.
func deriveKey(group curve.Curve, secret curve.Scalar) (r []byte, key SecretKey, err error) {
	d, err := hash.ToScalar(group, hash.DataKeyDerivation, nil, []curve.Scalar{secret}, nil)
	if err != nil {
		return nil, key, err
	}
	data, err := d.MarshalBinary()
	if err != nil {
		return nil, key, fmt.Errorf("%v: %w", err, errs.ErrSerialization)
	}
	if len(data) < 2*params.KeyBytes {
		return nil, key, fmt.Errorf("data key of %d bytes: %w", len(data), errs.ErrSerialization)
	}
	copy(key[:], data[len(data)-params.KeyBytes:])
	return data[:params.KeyBytes], key, nil
}

func checkHash(group curve.Curve, encrypted []sss.Share, raw []curve.Scalar, password, r []byte) (curve.Scalar, error) {
	ys := make([]curve.Scalar, 0, len(encrypted)+len(raw))
	for _, s := range encrypted {
		ys = append(ys, s.Y)
	}
	ys = append(ys, raw...)
	return hash.ToScalar(group, hash.ReconstructionCheckDerivation, nil, ys, [][]byte{password, r})
}

// ClientKeygen finishes a registration.
//
// responses must hold one response per server, in server order, and numServers must
// match their count. A fresh secret is shared among the servers so that any threshold
// of them can later help reconstruct it.
func ClientKeygen(pl *pool.Pool, rand io.Reader, pp *Parameters, state *ClientState,
	responses []*ServerResponse, numServers, threshold int) (SecretKey, *Ciphertext, error) {
	defer state.Erase()
	var key SecretKey
	fail := func(err error) (SecretKey, *Ciphertext, error) {
		return key, nil, fmt.Errorf("ppss.ClientKeygen: %w", err)
	}

	if err := pp.validate(); err != nil {
		return fail(err)
	}
	if err := state.usable(pp.Group); err != nil {
		return fail(err)
	}
	if len(responses) != numServers {
		return fail(fmt.Errorf("%d responses for %d servers: %w", len(responses), numServers, errs.ErrInvalidParameters))
	}
	if threshold < 1 || threshold > numServers {
		return fail(fmt.Errorf("threshold %d with %d servers: %w", threshold, numServers, errs.ErrInvalidParameters))
	}
	outputs := make([]*PrfOutput, numServers)
	for i, r := range responses {
		if r == nil || r.Output == nil {
			return fail(fmt.Errorf("missing response %d: %w", i, errs.ErrInvalidParameters))
		}
		outputs[i] = r.Output
	}

	ms, err := masks(pl, pp, state, outputs)
	if err != nil {
		return fail(err)
	}

	secret, err := sample.Scalar(rand, pp.Group)
	if err != nil {
		return fail(err)
	}
	shares, err := sss.Split(rand, pp.Group, secret, threshold, numServers)
	if err != nil {
		return fail(err)
	}

	encrypted := make([]sss.Share, numServers)
	raw := make([]curve.Scalar, numServers)
	for i, share := range shares {
		raw[i] = share.Y
		encrypted[i] = sss.Share{
			X: share.X,
			Y: pp.Group.NewScalar().Set(share.Y).Add(ms[i]),
		}
	}

	r, key, err := deriveKey(pp.Group, secret)
	if err != nil {
		return fail(err)
	}
	c, err := checkHash(pp.Group, encrypted, raw, state.password, r)
	if err != nil {
		return fail(err)
	}
	return key, &Ciphertext{EncryptedShares: encrypted, Hash: c}, nil
}

// ClientReconstruct recovers the key protected by ciphertext.
//
// outputs holds one slot per server of the ciphertext, in the same order as at registration;
// a nil slot stands for a server that did not answer. Any failure to match the commitment,
// whether from a wrong password, too few or wrong servers, or a modified ciphertext,
// is reported as errs.ErrIntegrityCheckFailed.
func ClientReconstruct(pl *pool.Pool, pp *Parameters, state *ClientState,
	outputs []*PrfOutput, ciphertext *Ciphertext) (SecretKey, error) {
	defer state.Erase()
	var key SecretKey
	fail := func(err error) (SecretKey, error) {
		return key, fmt.Errorf("ppss.ClientReconstruct: %w", err)
	}

	if err := pp.validate(); err != nil {
		return fail(err)
	}
	if err := state.usable(pp.Group); err != nil {
		return fail(err)
	}
	if err := ciphertext.validate(pp.Group); err != nil {
		return fail(err)
	}
	n := len(ciphertext.EncryptedShares)
	if len(outputs) != n {
		return fail(fmt.Errorf("%d responses for %d servers: %w", len(outputs), n, errs.ErrInvalidParameters))
	}

	ms, err := masks(pl, pp, state, outputs)
	if err != nil {
		return fail(err)
	}

	present := make([]sss.Share, 0, n)
	for i, m := range ms {
		if m == nil {
			continue
		}
		enc := ciphertext.EncryptedShares[i]
		present = append(present, sss.Share{
			X: enc.X,
			Y: pp.Group.NewScalar().Set(enc.Y).Sub(m),
		})
	}
	if len(present) == 0 {
		return fail(fmt.Errorf("no server responded: %w", errs.ErrInvalidParameters))
	}

	secret, err := sss.Recover(pp.Group, present)
	if err != nil {
		return fail(errs.ErrIntegrityCheckFailed)
	}

	raw := make([]curve.Scalar, n)
	next := 0
	for i, m := range ms {
		if m != nil {
			raw[i] = present[next].Y
			next++
			continue
		}
		y, err := sss.Interpolate(pp.Group, present, ciphertext.EncryptedShares[i].X)
		if err != nil {
			return fail(errs.ErrIntegrityCheckFailed)
		}
		raw[i] = y
	}

	r, candidate, err := deriveKey(pp.Group, secret)
	if err != nil {
		return fail(err)
	}
	c, err := checkHash(pp.Group, ciphertext.EncryptedShares, raw, state.password, r)
	if err != nil {
		return fail(err)
	}
	if !c.Equal(ciphertext.Hash) {
		return fail(errs.ErrIntegrityCheckFailed)
	}
	return candidate, nil
}

func (c *Ciphertext) validate(group curve.Curve) error {
	if c == nil || c.Hash == nil || len(c.EncryptedShares) == 0 {
		return fmt.Errorf("missing ciphertext: %w", errs.ErrInvalidParameters)
	}
	if !curve.SameCurve(group, c.Hash) {
		return fmt.Errorf("ciphertext from another group: %w", errs.ErrInvalidParameters)
	}
	for i, s := range c.EncryptedShares {
		if s.X == nil || s.Y == nil || !curve.SameCurve(group, s.X, s.Y) {
			return fmt.Errorf("share %d malformed: %w", i, errs.ErrInvalidParameters)
		}
	}
	return nil
}
