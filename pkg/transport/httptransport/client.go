package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/ppss"
	"github.com/zkbricks/bedrock-vault/pkg/schnorr"
)

const maxResponseBytes = 4 << 10

// Client talks to one remote PRF evaluation server. It implements transport.Server.
type Client struct {
	baseURL string
	http    *http.Client
	params  *ppss.Parameters

	schnorrParams *schnorr.Parameters
	publicKey     curve.Point
}

// NewClient returns a client for the server at baseURL.
// When httpClient is nil, http.DefaultClient is used.
func NewClient(baseURL string, pp *ppss.Parameters, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		params:  pp,
	}
}

// WithPublicKey makes c reject any response not signed by pk.
func (c *Client) WithPublicKey(sp *schnorr.Parameters, pk curve.Point) *Client {
	c.schnorrParams, c.publicKey = sp, pk
	return c
}

func (c *Client) String() string {
	return c.baseURL
}

func (c *Client) post(ctx context.Context, route string, input *ppss.PrfInput) ([]byte, error) {
	body, err := input.MarshalBinary()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("server rejected request: %s: %w", strings.TrimSpace(string(data)), errs.ErrInvalidParameters)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if c.publicKey != nil {
		message := signedMessage(route, input.ClientID, body, data)
		if err := verifySignature(c.schnorrParams, c.publicKey, resp.Header.Get(SignatureHeader), message); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (c *Client) Keygen(ctx context.Context, input *ppss.PrfInput) (*ppss.ServerResponse, error) {
	data, err := c.post(ctx, KeygenRoute, input)
	if err != nil {
		return nil, fmt.Errorf("httptransport: keygen at %s: %w", c.baseURL, err)
	}
	out := ppss.EmptyServerResponse(c.params.Group)
	if err := out.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("httptransport: keygen at %s: %w", c.baseURL, err)
	}
	return out, nil
}

func (c *Client) Reconstruct(ctx context.Context, input *ppss.PrfInput) (*ppss.PrfOutput, error) {
	data, err := c.post(ctx, ReconstructRoute, input)
	if err != nil {
		return nil, fmt.Errorf("httptransport: reconstruct at %s: %w", c.baseURL, err)
	}
	out := ppss.EmptyPrfOutput(c.params.Group)
	if err := out.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("httptransport: reconstruct at %s: %w", c.baseURL, err)
	}
	return out, nil
}
