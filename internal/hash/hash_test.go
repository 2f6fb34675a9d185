package hash

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/math/sample"
)

func TestHash_WriteAny(t *testing.T) {
	group := curve.Secp256k1{}
	testFunc := func(vs ...interface{}) error {
		h := New()
		for _, v := range vs {
			if err := h.WriteAny(v); err != nil {
				return err
			}
		}
		return nil
	}

	s, err := sample.Scalar(rand.Reader, group)
	require.NoError(t, err)
	assert.NoError(t, testFunc(s))
	assert.NoError(t, testFunc(s.ActOnBase()))
	assert.NoError(t, testFunc([]byte{1, 4, 6}))
	assert.NoError(t, testFunc(MaskDerivation, []byte{1, 4, 6}))

	assert.Error(t, testFunc(group.NewPoint()), "identity has no encoding")
	assert.Error(t, testFunc(35))
}

func TestHash_Framing(t *testing.T) {
	h1 := New()
	require.NoError(t, h1.WriteAny([]byte("ab"), []byte("c")))
	h2 := New()
	require.NoError(t, h2.WriteAny([]byte("a"), []byte("bc")))
	assert.NotEqual(t, h1.Sum(), h2.Sum())
}

func TestHash_Clone(t *testing.T) {
	h := New()
	require.NoError(t, h.WriteAny([]byte("prefix")))
	c := h.Clone()
	require.NoError(t, c.WriteAny([]byte("suffix")))
	assert.NotEqual(t, h.Sum(), c.Sum())
	assert.Len(t, h.Sum(), DigestLengthBytes)
}

func TestToBytes(t *testing.T) {
	group := curve.Secp256k1{}
	s, err := sample.Scalar(rand.Reader, group)
	require.NoError(t, err)
	p := s.ActOnBase()

	a, err := ToBytes(MaskDerivation, []curve.Point{p}, nil, [][]byte{[]byte("123456")})
	require.NoError(t, err)
	b, err := ToBytes(MaskDerivation, []curve.Point{p}, nil, [][]byte{[]byte("123456")})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	for _, tag := range []Tag{ServerKeyDerivation, DataKeyDerivation, ReconstructionCheckDerivation} {
		c, err := ToBytes(tag, []curve.Point{p}, nil, [][]byte{[]byte("123456")})
		require.NoError(t, err)
		assert.NotEqual(t, a, c, tag.String())
	}

	// a point and a byte string with the same encoding must not collide
	enc, err := p.MarshalBinary()
	require.NoError(t, err)
	d, err := ToBytes(MaskDerivation, nil, nil, [][]byte{enc, []byte("123456")})
	require.NoError(t, err)
	assert.NotEqual(t, a, d)

	_, err = ToBytes(Tag(4), nil, nil, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
	_, err = ToBytes(MaskDerivation, []curve.Point{group.NewPoint()}, nil, nil)
	assert.ErrorIs(t, err, errs.ErrSerialization)
	_, err = ToBytes(MaskDerivation, []curve.Point{nil}, nil, nil)
	assert.ErrorIs(t, err, errs.ErrSerialization)
}

func TestToScalar(t *testing.T) {
	group := curve.Secp256k1{}
	seed := make([]byte, 32)
	a, err := ToScalar(group, ServerKeyDerivation, nil, nil, [][]byte{seed, []byte("alice")})
	require.NoError(t, err)
	b, err := ToScalar(group, ServerKeyDerivation, nil, nil, [][]byte{seed, []byte("bob")})
	require.NoError(t, err)
	assert.False(t, a.Equal(b))
	assert.False(t, a.IsZero())
}

func TestReduce(t *testing.T) {
	group := curve.Secp256k1{}
	_, err := Reduce(group, make([]byte, 31))
	assert.ErrorIs(t, err, errs.ErrSerialization)

	s, err := Reduce(group, group.Order().Bytes())
	require.NoError(t, err)
	assert.True(t, s.IsZero())

	one := make([]byte, 32)
	one[31] = 1
	s, err = Reduce(group, one)
	require.NoError(t, err)
	assert.True(t, s.Equal(curve.ScalarFromUint64(group, 1)))
}

func TestTag_String(t *testing.T) {
	assert.Equal(t, "DataKeyDerivation", DataKeyDerivation.String())
	assert.Equal(t, "Tag(9)", Tag(9).String())
}
