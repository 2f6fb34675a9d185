package main

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/zkbricks/bedrock-vault/pkg/pool"
	"github.com/zkbricks/bedrock-vault/pkg/ppss"
	"github.com/zkbricks/bedrock-vault/pkg/transport"
)

// Register runs a PPSS registration against every server, directly on top of the ppss package.
func Register(ctx context.Context, pp *ppss.Parameters, servers []transport.Server, clientID, password []byte, threshold int, pl *pool.Pool) (ppss.SecretKey, *ppss.Ciphertext, error) {
	state, input, err := ppss.ClientGenerateKeygenRequest(rand.Reader, pp, clientID, password)
	if err != nil {
		return ppss.SecretKey{}, nil, err
	}
	responses := make([]*ppss.ServerResponse, len(servers))
	for i, server := range servers {
		if responses[i], err = server.Keygen(ctx, input); err != nil {
			state.Erase()
			return ppss.SecretKey{}, nil, fmt.Errorf("server %d: %w", i, err)
		}
	}
	return ppss.ClientKeygen(pl, rand.Reader, pp, state, responses, len(servers), threshold)
}

// Reconstruct recovers the key of ct, skipping servers that fail.
func Reconstruct(ctx context.Context, pp *ppss.Parameters, servers []transport.Server, clientID, password []byte, ct *ppss.Ciphertext, pl *pool.Pool) (ppss.SecretKey, error) {
	state, input, err := ppss.ClientGenerateReconstructRequest(rand.Reader, pp, clientID, password)
	if err != nil {
		return ppss.SecretKey{}, err
	}
	outputs := make([]*ppss.PrfOutput, len(servers))
	for i, server := range servers {
		if out, err := server.Reconstruct(ctx, input); err == nil {
			outputs[i] = out
		}
	}
	return ppss.ClientReconstruct(pl, pp, state, outputs, ct)
}
