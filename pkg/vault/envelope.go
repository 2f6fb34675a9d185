package vault

import (
	"crypto"
	"fmt"
	"io"

	"github.com/bytemare/hash"
	"github.com/fxamacker/cbor/v2"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/ppss"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersion = 1
	demInfo         = "bedrock-vault dem v1"
)

// envelope is the KEM blob: everything needed to rebuild the data key with the servers' help.
type envelope struct {
	Version    int
	ClientID   []byte
	Threshold  int
	Ciphertext []byte
}

func encodeEnvelope(clientID []byte, threshold int, ct *ppss.Ciphertext) ([]byte, error) {
	data, err := ct.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&envelope{
		Version:    envelopeVersion,
		ClientID:   clientID,
		Threshold:  threshold,
		Ciphertext: data,
	})
}

func decodeEnvelope(group curve.Curve, data []byte) (*envelope, *ppss.Ciphertext, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("vault: kem blob: %v: %w", err, errs.ErrSerialization)
	}
	if env.Version != envelopeVersion {
		return nil, nil, fmt.Errorf("vault: kem blob version %d: %w", env.Version, errs.ErrSerialization)
	}
	ct := ppss.EmptyCiphertext(group)
	if err := ct.UnmarshalBinary(env.Ciphertext); err != nil {
		return nil, nil, fmt.Errorf("vault: kem blob: %w", err)
	}
	if len(env.ClientID) == 0 || env.Threshold < 1 || env.Threshold > ct.Servers() {
		return nil, nil, fmt.Errorf("vault: kem blob: inconsistent header: %w", errs.ErrSerialization)
	}
	return &env, ct, nil
}

// demKey expands the PPSS key into a key for the data encapsulation.
func demKey(key ppss.SecretKey, clientID []byte) []byte {
	kdf := hash.FromCrypto(crypto.SHA256).GetHashFunction()
	prk := kdf.HKDFExtract(key[:], clientID)
	return kdf.HKDFExpand(prk, []byte(demInfo), chacha20poly1305.KeySize)
}

// seal returns nonce || XChaCha20-Poly1305(secret), authenticating clientID.
func seal(rand io.Reader, key ppss.SecretKey, clientID, secret []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(demKey(key, clientID))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(secret)+aead.Overhead())
	if _, err := io.ReadFull(rand, nonce); err != nil {
		return nil, fmt.Errorf("vault: nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, secret, clientID), nil
}

func open(key ppss.SecretKey, clientID, blob []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(demKey(key, clientID))
	if err != nil {
		return nil, err
	}
	if len(blob) < chacha20poly1305.NonceSizeX+aead.Overhead() {
		return nil, fmt.Errorf("vault: dem blob of %d bytes: %w", len(blob), errs.ErrSerialization)
	}
	nonce, sealed := blob[:chacha20poly1305.NonceSizeX], blob[chacha20poly1305.NonceSizeX:]
	secret, err := aead.Open(nil, nonce, sealed, clientID)
	if err != nil {
		return nil, fmt.Errorf("vault: dem blob: %w", errs.ErrIntegrityCheckFailed)
	}
	return secret, nil
}
