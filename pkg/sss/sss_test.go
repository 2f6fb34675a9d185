package sss

import (
	"crypto/rand"
	mrand "math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/math/sample"
)

func TestSplitRecover(t *testing.T) {
	group := curve.Secp256k1{}
	for n := 1; n <= 20; n++ {
		for threshold := 1; threshold <= n; threshold++ {
			secret, err := sample.Scalar(rand.Reader, group)
			require.NoError(t, err)
			shares, err := Split(rand.Reader, group, secret, threshold, n)
			require.NoError(t, err)
			require.Len(t, shares, n)

			subset := make([]Share, n)
			copy(subset, shares)
			mrand.Shuffle(len(subset), func(i, j int) { subset[i], subset[j] = subset[j], subset[i] })

			recovered, err := Recover(group, subset[:threshold])
			require.NoError(t, err)
			assert.True(t, recovered.Equal(secret), "t=%d n=%d", threshold, n)

			recovered, err = Recover(group, subset)
			require.NoError(t, err)
			assert.True(t, recovered.Equal(secret), "all shares, t=%d n=%d", threshold, n)
		}
	}
}

func TestRecover_UnderThreshold(t *testing.T) {
	group := curve.Secp256k1{}
	for i := 0; i < 20; i++ {
		secret, err := sample.Scalar(rand.Reader, group)
		require.NoError(t, err)
		threshold := 2 + mrand.Intn(5)
		shares, err := Split(rand.Reader, group, secret, threshold, 8)
		require.NoError(t, err)
		k := 1 + mrand.Intn(threshold-1)
		mrand.Shuffle(len(shares), func(i, j int) { shares[i], shares[j] = shares[j], shares[i] })

		recovered, err := Recover(group, shares[:k])
		require.NoError(t, err)
		assert.False(t, recovered.Equal(secret))
	}
}

func TestInterpolate_Share(t *testing.T) {
	group := curve.Secp256k1{}
	secret, err := sample.Scalar(rand.Reader, group)
	require.NoError(t, err)
	shares, err := Split(rand.Reader, group, secret, 3, 5)
	require.NoError(t, err)

	y, err := Interpolate(group, shares[:3], shares[4].X)
	require.NoError(t, err)
	assert.True(t, y.Equal(shares[4].Y))
}

func TestRecover_Duplicate(t *testing.T) {
	group := curve.Secp256k1{}
	secret := curve.ScalarFromUint64(group, 7)
	shares, err := Split(rand.Reader, group, secret, 2, 3)
	require.NoError(t, err)
	_, err = Recover(group, []Share{shares[0], shares[1], shares[0]})
	assert.ErrorIs(t, err, errs.ErrInterpolation)

	_, err = Recover(group, nil)
	assert.ErrorIs(t, err, errs.ErrInterpolation)
}

func TestSplit_InvalidParameters(t *testing.T) {
	group := curve.Secp256k1{}
	secret := curve.ScalarFromUint64(group, 7)
	for _, c := range []struct{ threshold, parties int }{{0, 3}, {4, 3}, {-1, 0}, {1, 0}} {
		_, err := Split(rand.Reader, group, secret, c.threshold, c.parties)
		assert.ErrorIs(t, err, errs.ErrInvalidParameters, "t=%d n=%d", c.threshold, c.parties)
	}
	_, err := Split(rand.Reader, group, nil, 1, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
}
