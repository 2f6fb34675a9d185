// Package ppss implements password-protected secret sharing from a threshold
// oblivious PRF, following Jarecki, Kiayias, Krawczyk and Xu (JKKX16).
//
// A client registers once with ClientKeygen, and later recovers the same
// SecretKey with ClientReconstruct, provided it presents the same password to
// at least a threshold of the servers it registered with. Servers hold a single
// seed and derive their per-client PRF key from it, so they keep no state.
//
// Responses are bound to servers by position: the i-th response passed to the
// client functions must come from the i-th server used at registration.
package ppss

import (
	"fmt"

	"github.com/zkbricks/bedrock-vault/internal/params"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/sss"
)

// SecretKey is the symmetric key protected by the scheme.
type SecretKey [params.KeyBytes]byte

// Parameters are the public parameters shared by clients and servers.
type Parameters struct {
	Group     curve.Curve
	Generator curve.Point
	// DST separates hashing passwords to the curve from any other use of the same suite.
	DST []byte
}

// Setup returns the parameters of the scheme over group.
func Setup(group curve.Curve) *Parameters {
	return &Parameters{
		Group:     group,
		Generator: group.NewBasePoint(),
		DST:       []byte(params.HashToCurveDST),
	}
}

func (pp *Parameters) validate() error {
	if pp == nil || pp.Group == nil || pp.Generator == nil {
		return fmt.Errorf("ppss: missing parameters: %w", errs.ErrInvalidParameters)
	}
	if !curve.SameCurve(pp.Group, pp.Generator) || pp.Generator.IsIdentity() {
		return fmt.Errorf("ppss: invalid generator: %w", errs.ErrInvalidParameters)
	}
	return nil
}

// ClientState holds the secrets of a single client request.
//
// It is consumed by exactly one call to ClientKeygen or ClientReconstruct,
// which erases it whatever the outcome.
type ClientState struct {
	group    curve.Curve
	blind    curve.Scalar
	clientID []byte
	password []byte
	consumed bool
}

// ClientID returns the identifier the request was made for.
func (s *ClientState) ClientID() []byte {
	return append([]byte(nil), s.clientID...)
}

// Erase zeroes the blind and the password, and marks the state as consumed.
func (s *ClientState) Erase() {
	if s == nil {
		return
	}
	if s.blind != nil {
		s.blind.Set(s.group.NewScalar())
	}
	for i := range s.password {
		s.password[i] = 0
	}
	s.password = nil
	s.consumed = true
}

// PrfInput is a blinded password, sent to every server.
type PrfInput struct {
	Input    curve.Point
	ClientID []byte
}

// PrfOutput is a server's evaluation of its PRF on a blinded input.
type PrfOutput struct {
	Output curve.Point
}

// ServerResponse is what a server returns during registration.
type ServerResponse struct {
	// PublicKey is the server's key for this client. It is informational only,
	// and is not bound into the masks or the reconstruction check.
	PublicKey curve.Point
	Output    *PrfOutput
}

// Ciphertext is what a client persists after registration.
type Ciphertext struct {
	// EncryptedShares holds, in server order, the shares with Y masked by that server's PRF.
	EncryptedShares []sss.Share
	// Hash commits to the shares, the password and the secret.
	Hash curve.Scalar
}

// Servers returns the number of servers c was made for.
func (c *Ciphertext) Servers() int {
	return len(c.EncryptedShares)
}
