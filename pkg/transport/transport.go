// Package transport connects a client to the PRF evaluation servers.
//
// The client side only depends on the Server interface; Local evaluates in
// process, and the httptransport subpackage ships requests to remote servers.
package transport

import (
	"context"

	"github.com/zkbricks/bedrock-vault/pkg/ppss"
)

// Server is one PRF evaluation server, as seen from a client.
type Server interface {
	Keygen(ctx context.Context, input *ppss.PrfInput) (*ppss.ServerResponse, error)
	Reconstruct(ctx context.Context, input *ppss.PrfInput) (*ppss.PrfOutput, error)
}

// Local is a Server evaluating in process, from its own seed.
type Local struct {
	params *ppss.Parameters
	seed   ppss.Seed
}

func NewLocal(pp *ppss.Parameters, seed ppss.Seed) *Local {
	return &Local{params: pp, seed: seed}
}

func (l *Local) Keygen(ctx context.Context, input *ppss.PrfInput) (*ppss.ServerResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ppss.ServerProcessKeygenRequest(l.params, l.seed, input)
}

func (l *Local) Reconstruct(ctx context.Context, input *ppss.PrfInput) (*ppss.PrfOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ppss.ServerProcessReconstructRequest(l.params, l.seed, input)
}
