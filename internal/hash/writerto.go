package hash

import (
	"bytes"
	"encoding/binary"
	"io"
)

// WriterToWithDomain represents a type writing itself, and knowing its domain.
//
// Providing a domain string lets us distinguish the output of different types
// implementing this same interface.
type WriterToWithDomain interface {
	io.WriterTo

	// Domain returns a context string, which should be unique for each implementor
	Domain() string
}

// writeWithDomain writes out `<len(domain)><domain><len(data)><data>`.
//
// The object is first buffered so that its length is known before anything
// reaches the hash state.
func writeWithDomain(w io.Writer, object WriterToWithDomain) error {
	var body bytes.Buffer
	if _, err := object.WriteTo(&body); err != nil {
		return err
	}
	if err := writeLengthPrefixed(w, []byte(object.Domain())); err != nil {
		return err
	}
	return writeLengthPrefixed(w, body.Bytes())
}

func writeLengthPrefixed(w io.Writer, data []byte) error {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(data)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// BytesWithDomain is a useful wrapper to annotate some chunk of data with a domain.
type BytesWithDomain struct {
	TheDomain string
	Bytes     []byte
}

// WriteTo implements io.WriterTo.
func (b BytesWithDomain) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes)
	return int64(n), err
}

// Domain implements WriterToWithDomain.
func (b BytesWithDomain) Domain() string {
	return b.TheDomain
}
