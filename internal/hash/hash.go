package hash

import (
	"fmt"
	"io"

	"github.com/zeebo/blake3"
	"github.com/zkbricks/bedrock-vault/internal/params"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
)

const DigestLengthBytes = params.SecBytes // 32

// Hash is the hash function we use for deriving keys, masks and commitments.
//
// Internally, this is a wrapper around blake3, but any hash function with
// an easily extendable output would work as well.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct with an empty state.
func New() *Hash {
	return &Hash{h: blake3.New()}
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	// blake3's digest is an infinite reader, a short read cannot happen.
	_, _ = io.ReadFull(hash.Digest(), out)
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - Tag
//   - []byte
//   - curve.Point
//   - curve.Scalar
//   - hash.WriterToWithDomain
//
// Every value is written with its own domain and length, so that two
// different sequences of values never produce the same hash input.
func (hash *Hash) WriteAny(data ...interface{}) error {
	for _, d := range data {
		var err error
		switch t := d.(type) {
		case Tag:
			err = writeWithDomain(hash.h, BytesWithDomain{TheDomain: "Tag", Bytes: []byte{byte(t)}})
		case []byte:
			err = writeWithDomain(hash.h, BytesWithDomain{TheDomain: "[]byte", Bytes: t})
		case curve.Point:
			err = writeMarshaller(hash.h, "Point", t)
		case curve.Scalar:
			err = writeMarshaller(hash.h, "Scalar", t)
		case WriterToWithDomain:
			err = writeWithDomain(hash.h, t)
		default:
			err = fmt.Errorf("unsupported type %T", d)
		}
		if err != nil {
			return fmt.Errorf("hash.Hash: %w", err)
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

type binaryMarshaller interface {
	MarshalBinary() ([]byte, error)
}

func writeMarshaller(w io.Writer, domain string, m binaryMarshaller) error {
	if m == nil {
		return fmt.Errorf("write %s: nil", domain)
	}
	data, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("write %s: %w", domain, err)
	}
	return writeWithDomain(w, BytesWithDomain{TheDomain: domain, Bytes: data})
}
