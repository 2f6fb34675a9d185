package sample

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("no entropy")
}

func TestScalar(t *testing.T) {
	group := curve.Secp256k1{}
	a, err := Scalar(rand.Reader, group)
	require.NoError(t, err)
	b, err := Scalar(rand.Reader, group)
	require.NoError(t, err)
	assert.False(t, a.Equal(b))

	_, err = Scalar(failingReader{}, group)
	assert.ErrorIs(t, err, ErrMaxIterations)
}

func TestScalarUnit(t *testing.T) {
	group := curve.Secp256k1{}
	for i := 0; i < 10; i++ {
		s, err := ScalarUnit(rand.Reader, group)
		require.NoError(t, err)
		assert.False(t, s.IsZero())
	}

	// an all zero stream only ever produces the zero scalar
	zeros := bytes.NewReader(make([]byte, 1<<16))
	_, err := ScalarUnit(zeros, group)
	assert.Error(t, err)
}

func TestBytes(t *testing.T) {
	buf, err := Bytes(rand.Reader, 24)
	require.NoError(t, err)
	assert.Len(t, buf, 24)

	_, err = Bytes(failingReader{}, 24)
	assert.Error(t, err)
}
