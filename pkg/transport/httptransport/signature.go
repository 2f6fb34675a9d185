package httptransport

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/schnorr"
)

const SignatureHeader = "X-PPSS-Signature"

// signedMessage binds a response to the route, the client and the request it answers.
func signedMessage(route string, clientID, request, response []byte) []byte {
	parts := [][]byte{[]byte(route), clientID, request, response}
	size := 0
	for _, p := range parts {
		size += 4 + len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range parts {
		out = binary.BigEndian.AppendUint32(out, uint32(len(p)))
		out = append(out, p...)
	}
	return out
}

func encodeSignature(sig *schnorr.Signature) (string, error) {
	data, err := sig.MarshalBinary()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

func verifySignature(pp *schnorr.Parameters, pk curve.Point, header string, message []byte) error {
	if header == "" {
		return fmt.Errorf("missing %s header: %w", SignatureHeader, errs.ErrSignatureInvalid)
	}
	data, err := hex.DecodeString(header)
	if err != nil {
		return fmt.Errorf("malformed %s header: %w", SignatureHeader, errs.ErrSignatureInvalid)
	}
	sig := schnorr.EmptySignature(pp.Group)
	if err := sig.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("malformed signature: %w", errs.ErrSignatureInvalid)
	}
	if !schnorr.Verify(pp, pk, message, sig) {
		return errs.ErrSignatureInvalid
	}
	return nil
}
