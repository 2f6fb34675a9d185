package ppss

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/math/sample"
	"github.com/zkbricks/bedrock-vault/pkg/pool"
)

var clientID = []byte("client-7f3e")

func testSeeds(t *testing.T, n int) []Seed {
	seeds := make([]Seed, n)
	for i := range seeds {
		_, err := rand.Read(seeds[i][:])
		require.NoError(t, err)
	}
	return seeds
}

func register(t *testing.T, pl *pool.Pool, pp *Parameters, seeds []Seed, password string, threshold int) (SecretKey, *Ciphertext) {
	state, input, err := ClientGenerateKeygenRequest(rand.Reader, pp, clientID, []byte(password))
	require.NoError(t, err)
	responses := make([]*ServerResponse, len(seeds))
	for i, seed := range seeds {
		responses[i], err = ServerProcessKeygenRequest(pp, seed, input)
		require.NoError(t, err)
	}
	key, ct, err := ClientKeygen(pl, rand.Reader, pp, state, responses, len(seeds), threshold)
	require.NoError(t, err)
	return key, ct
}

// reconstruct queries every server whose slot in answering is true.
func reconstruct(t *testing.T, pl *pool.Pool, pp *Parameters, seeds []Seed, answering []bool, password string, ct *Ciphertext) (SecretKey, error) {
	state, input, err := ClientGenerateReconstructRequest(rand.Reader, pp, clientID, []byte(password))
	require.NoError(t, err)
	outputs := make([]*PrfOutput, len(seeds))
	for i, seed := range seeds {
		if answering != nil && !answering[i] {
			continue
		}
		outputs[i], err = ServerProcessReconstructRequest(pp, seed, input)
		require.NoError(t, err)
	}
	return ClientReconstruct(pl, pp, state, outputs, ct)
}

func TestRoundTrip(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()
	pp := Setup(curve.Secp256k1{})
	seeds := testSeeds(t, 3)

	key, ct := register(t, pl, pp, seeds, "123456", 2)
	require.Len(t, ct.EncryptedShares, 3)
	assert.Equal(t, 3, ct.Servers())

	recovered, err := reconstruct(t, pl, pp, seeds, nil, "123456", ct)
	require.NoError(t, err)
	assert.Equal(t, key, recovered)

	// a nil pool does the same work serially
	recovered, err = reconstruct(t, nil, pp, seeds, nil, "123456", ct)
	require.NoError(t, err)
	assert.Equal(t, key, recovered)
}

func TestRoundTrip_Thresholds(t *testing.T) {
	pp := Setup(curve.Secp256k1{})
	for n := 1; n <= 5; n++ {
		for threshold := 1; threshold <= n; threshold++ {
			t.Run(fmt.Sprintf("t=%d,n=%d", threshold, n), func(t *testing.T) {
				seeds := testSeeds(t, n)
				key, ct := register(t, nil, pp, seeds, "424242", threshold)
				recovered, err := reconstruct(t, nil, pp, seeds, nil, "424242", ct)
				require.NoError(t, err)
				assert.Equal(t, key, recovered)
			})
		}
	}
}

func TestWrongPassword(t *testing.T) {
	pp := Setup(curve.Secp256k1{})
	seeds := testSeeds(t, 3)
	_, ct := register(t, nil, pp, seeds, "123456", 2)

	_, err := reconstruct(t, nil, pp, seeds, nil, "000000", ct)
	assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed)
}

func TestWrongServers(t *testing.T) {
	pp := Setup(curve.Secp256k1{})
	seeds := testSeeds(t, 3)
	_, ct := register(t, nil, pp, seeds, "123456", 2)

	swapped := []Seed{seeds[1], seeds[0], seeds[2]}
	_, err := reconstruct(t, nil, pp, swapped, nil, "123456", ct)
	assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed)

	other := testSeeds(t, 3)
	_, err = reconstruct(t, nil, pp, other, nil, "123456", ct)
	assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed)
}

func TestTamper(t *testing.T) {
	pp := Setup(curve.Secp256k1{})
	seeds := testSeeds(t, 3)
	_, ct := register(t, nil, pp, seeds, "123456", 2)
	data, err := ct.MarshalBinary()
	require.NoError(t, err)

	clone := func() *Ciphertext {
		c := EmptyCiphertext(pp.Group)
		require.NoError(t, c.UnmarshalBinary(data))
		return c
	}
	flipBit := func(s curve.Scalar, bit int) curve.Scalar {
		b, err := s.MarshalBinary()
		require.NoError(t, err)
		b[len(b)-1-bit/8] ^= 1 << (bit % 8)
		out := pp.Group.NewScalar()
		require.NoError(t, out.UnmarshalBinary(b))
		return out
	}

	for i := 0; i < 3; i++ {
		for _, bit := range []int{0, 7, 100, 200} {
			c := clone()
			c.EncryptedShares[i].Y = flipBit(c.EncryptedShares[i].Y, bit)
			_, err := reconstruct(t, nil, pp, seeds, nil, "123456", c)
			assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed, "share %d bit %d", i, bit)
		}
	}

	c := clone()
	c.Hash = flipBit(c.Hash, 3)
	_, err = reconstruct(t, nil, pp, seeds, nil, "123456", c)
	assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed)

	c = clone()
	c.EncryptedShares[1].X = c.EncryptedShares[0].X
	_, err = reconstruct(t, nil, pp, seeds, nil, "123456", c)
	assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed)
}

func TestMissingServers(t *testing.T) {
	pp := Setup(curve.Secp256k1{})
	seeds := testSeeds(t, 5)
	key, ct := register(t, nil, pp, seeds, "123456", 3)

	recovered, err := reconstruct(t, nil, pp, seeds, []bool{true, false, true, false, true}, "123456", ct)
	require.NoError(t, err)
	assert.Equal(t, key, recovered)

	recovered, err = reconstruct(t, nil, pp, seeds, []bool{false, true, true, true, true}, "123456", ct)
	require.NoError(t, err)
	assert.Equal(t, key, recovered)

	_, err = reconstruct(t, nil, pp, seeds, []bool{true, false, false, false, true}, "123456", ct)
	assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed)

	_, err = reconstruct(t, nil, pp, seeds, []bool{false, false, false, false, false}, "123456", ct)
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
}

func TestBlindingInvariance(t *testing.T) {
	pp := Setup(curve.Secp256k1{})
	seed := testSeeds(t, 1)[0]
	sk, err := ServerKey(pp, seed, clientID)
	require.NoError(t, err)

	pwPoint, err := pp.Group.HashToPoint([]byte("123456"), pp.DST)
	require.NoError(t, err)
	expected := sk.Act(pwPoint)

	for i := 0; i < 5; i++ {
		state, input, err := ClientGenerateReconstructRequest(rand.Reader, pp, clientID, []byte("123456"))
		require.NoError(t, err)
		out, err := ServerProcessReconstructRequest(pp, seed, input)
		require.NoError(t, err)
		unblind := pp.Group.NewScalar().Set(state.blind).Invert()
		assert.True(t, unblind.Act(out.Output).Equal(expected))
		assert.False(t, input.Input.Equal(pwPoint))
	}
}

func TestClientKeygen_InvalidParameters(t *testing.T) {
	pp := Setup(curve.Secp256k1{})
	seeds := testSeeds(t, 3)

	responses := func(input *PrfInput) []*ServerResponse {
		out := make([]*ServerResponse, len(seeds))
		for i, seed := range seeds {
			r, err := ServerProcessKeygenRequest(pp, seed, input)
			require.NoError(t, err)
			out[i] = r
		}
		return out
	}

	cases := []struct {
		name      string
		mutate    func([]*ServerResponse) []*ServerResponse
		servers   int
		threshold int
	}{
		{"count mismatch", func(r []*ServerResponse) []*ServerResponse { return r[:2] }, 3, 2},
		{"zero threshold", func(r []*ServerResponse) []*ServerResponse { return r }, 3, 0},
		{"threshold above servers", func(r []*ServerResponse) []*ServerResponse { return r }, 3, 4},
		{"nil response", func(r []*ServerResponse) []*ServerResponse { r[1] = nil; return r }, 3, 2},
		{"identity output", func(r []*ServerResponse) []*ServerResponse {
			r[2].Output = &PrfOutput{Output: pp.Group.NewPoint()}
			return r
		}, 3, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			state, input, err := ClientGenerateKeygenRequest(rand.Reader, pp, clientID, []byte("123456"))
			require.NoError(t, err)
			_, _, err = ClientKeygen(nil, rand.Reader, pp, state, c.mutate(responses(input)), c.servers, c.threshold)
			assert.ErrorIs(t, err, errs.ErrInvalidParameters)
		})
	}
}

func TestClientReconstruct_CountMismatch(t *testing.T) {
	pp := Setup(curve.Secp256k1{})
	seeds := testSeeds(t, 3)
	_, ct := register(t, nil, pp, seeds, "123456", 2)

	state, input, err := ClientGenerateReconstructRequest(rand.Reader, pp, clientID, []byte("123456"))
	require.NoError(t, err)
	out, err := ServerProcessReconstructRequest(pp, seeds[0], input)
	require.NoError(t, err)
	_, err = ClientReconstruct(nil, pp, state, []*PrfOutput{out, out}, ct)
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
}

func TestClientState_SingleUse(t *testing.T) {
	pp := Setup(curve.Secp256k1{})
	seeds := testSeeds(t, 2)
	state, input, err := ClientGenerateKeygenRequest(rand.Reader, pp, clientID, []byte("123456"))
	require.NoError(t, err)
	responses := make([]*ServerResponse, len(seeds))
	for i, seed := range seeds {
		responses[i], err = ServerProcessKeygenRequest(pp, seed, input)
		require.NoError(t, err)
	}
	_, _, err = ClientKeygen(nil, rand.Reader, pp, state, responses, 2, 2)
	require.NoError(t, err)

	assert.True(t, state.consumed)
	assert.True(t, state.blind.IsZero())
	assert.Nil(t, state.password)

	_, _, err = ClientKeygen(nil, rand.Reader, pp, state, responses, 2, 2)
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
	_, err = ClientReconstruct(nil, pp, nil, nil, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
}

func TestServer_InvalidInput(t *testing.T) {
	pp := Setup(curve.Secp256k1{})
	seed := testSeeds(t, 1)[0]
	s, err := sample.ScalarUnit(rand.Reader, pp.Group)
	require.NoError(t, err)

	inputs := map[string]*PrfInput{
		"nil":          nil,
		"nil point":    {ClientID: clientID},
		"identity":     {Input: pp.Group.NewPoint(), ClientID: clientID},
		"no client id": {Input: s.ActOnBase()},
	}
	for name, input := range inputs {
		_, err := ServerProcessKeygenRequest(pp, seed, input)
		assert.ErrorIs(t, err, errs.ErrInvalidParameters, name)
		_, err = ServerProcessReconstructRequest(pp, seed, input)
		assert.ErrorIs(t, err, errs.ErrInvalidParameters, name)
	}

	_, _, err = ClientGenerateKeygenRequest(rand.Reader, pp, nil, []byte("123456"))
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
}

func TestServerKey_PerClient(t *testing.T) {
	pp := Setup(curve.Secp256k1{})
	seeds := testSeeds(t, 2)
	a, err := ServerKey(pp, seeds[0], []byte("alice"))
	require.NoError(t, err)
	b, err := ServerKey(pp, seeds[0], []byte("bob"))
	require.NoError(t, err)
	c, err := ServerKey(pp, seeds[1], []byte("alice"))
	require.NoError(t, err)
	a2, err := ServerKey(pp, seeds[0], []byte("alice"))
	require.NoError(t, err)
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, a.Equal(a2))

	// keygen reports the public key of the derived secret
	state, input, err := ClientGenerateKeygenRequest(rand.Reader, pp, []byte("alice"), []byte("123456"))
	require.NoError(t, err)
	state.Erase()
	r, err := ServerProcessKeygenRequest(pp, seeds[0], input)
	require.NoError(t, err)
	assert.True(t, r.PublicKey.Equal(a.ActOnBase()))
}
