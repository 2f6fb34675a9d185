// Package vault protects a user secret behind a pincode, using a set of PRF servers.
//
// The secret itself is encrypted locally with a key only the servers can help
// rebuild: the key encapsulation is a PPSS ciphertext, the data encapsulation
// is XChaCha20-Poly1305.
package vault

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zkbricks/bedrock-vault/internal/logging"
	"github.com/zkbricks/bedrock-vault/internal/params"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/ppss"
	"github.com/zkbricks/bedrock-vault/pkg/pool"
	"github.com/zkbricks/bedrock-vault/pkg/transport"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotEnoughServers is returned when fewer than the threshold of servers answered.
	ErrNotEnoughServers = errors.New("vault: not enough servers reachable")
	// ErrNoVault is returned when no vault has been initialized in the directory.
	ErrNoVault = errors.New("vault: no vault found")
	// ErrVaultExists is returned by Initialize when a vault is already present.
	ErrVaultExists = errors.New("vault: vault already exists")
	// ErrInvalidPincode is returned for pincodes that are not exactly 6 digits.
	ErrInvalidPincode = errors.New("vault: pincode must be 6 digits")
)

const defaultTimeout = 10 * time.Second

type Config struct {
	Params *ppss.Parameters
	// Servers are addressed by position; the order must not change after Initialize.
	Servers []transport.Server
	// Threshold is only needed by Initialize; Recover reads it from the vault.
	Threshold int
	// Timeout bounds every round trip to the servers.
	Timeout time.Duration
	Store   *FileStore
	Pool    *pool.Pool
	Log     *slog.Logger
	// Rand defaults to crypto/rand.Reader.
	Rand io.Reader
	// Overwrite lets Initialize replace an existing vault.
	Overwrite bool
}

type Client struct {
	cfg     *Config
	log     *slog.Logger
	rand    io.Reader
	timeout time.Duration
}

func NewClient(cfg *Config) (*Client, error) {
	if cfg.Params == nil || cfg.Store == nil || len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("vault: params, store and servers are required: %w", errs.ErrInvalidParameters)
	}
	if cfg.Threshold < 0 || cfg.Threshold > len(cfg.Servers) {
		return nil, fmt.Errorf("vault: threshold %d with %d servers: %w", cfg.Threshold, len(cfg.Servers), errs.ErrInvalidParameters)
	}
	c := &Client{cfg: cfg, log: cfg.Log, rand: cfg.Rand, timeout: cfg.Timeout}
	if c.log == nil {
		c.log = logging.Discard()
	}
	if c.rand == nil {
		c.rand = rand.Reader
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	return c, nil
}

// ValidatePincode checks that pincode is exactly PincodeLength ASCII digits.
func ValidatePincode(pincode string) error {
	if len(pincode) != params.PincodeLength {
		return ErrInvalidPincode
	}
	for i := 0; i < len(pincode); i++ {
		if pincode[i] < '0' || pincode[i] > '9' {
			return ErrInvalidPincode
		}
	}
	return nil
}

// Initialize creates a new vault holding secret, protected by pincode.
//
// Every server must answer: a share is only useful if its server can evaluate it later.
func (c *Client) Initialize(ctx context.Context, pincode string, secret []byte) error {
	if err := ValidatePincode(pincode); err != nil {
		return err
	}
	if c.cfg.Threshold == 0 {
		return fmt.Errorf("vault: no threshold configured: %w", errs.ErrInvalidParameters)
	}
	if !c.cfg.Overwrite {
		exists, err := c.cfg.Store.Exists()
		if err != nil {
			return fmt.Errorf("vault: %w", err)
		}
		if exists {
			return fmt.Errorf("%w in %s", ErrVaultExists, c.cfg.Store.Dir())
		}
	}

	id, err := uuid.NewRandomFromReader(c.rand)
	if err != nil {
		return fmt.Errorf("vault: client id: %w", err)
	}
	clientID := []byte(id.String())
	log := c.log.With("clientID", id.String(), "servers", len(c.cfg.Servers), "threshold", c.cfg.Threshold)

	state, input, err := ppss.ClientGenerateKeygenRequest(c.rand, c.cfg.Params, clientID, []byte(pincode))
	if err != nil {
		return err
	}
	defer state.Erase()

	responses, err := c.keygen(ctx, input)
	if err != nil {
		return err
	}
	key, ct, err := ppss.ClientKeygen(c.cfg.Pool, c.rand, c.cfg.Params, state, responses, len(c.cfg.Servers), c.cfg.Threshold)
	if err != nil {
		return err
	}

	kem, err := encodeEnvelope(clientID, c.cfg.Threshold, ct)
	if err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	dem, err := seal(c.rand, key, clientID, secret)
	if err != nil {
		return err
	}
	if err := c.cfg.Store.Save(kem, dem); err != nil {
		return err
	}
	log.Info("Vault initialized", "dir", c.cfg.Store.Dir())
	return nil
}

// Recover rebuilds the data key with the help of the servers, and decrypts the secret.
//
// Servers that do not answer are skipped, as long as at least the threshold do.
// A wrong pincode fails with errs.ErrIntegrityCheckFailed.
func (c *Client) Recover(ctx context.Context, pincode string) ([]byte, error) {
	if err := ValidatePincode(pincode); err != nil {
		return nil, err
	}
	kem, dem, err := c.cfg.Store.Load()
	if err != nil {
		return nil, err
	}
	env, ct, err := decodeEnvelope(c.cfg.Params.Group, kem)
	if err != nil {
		return nil, err
	}
	if ct.Servers() != len(c.cfg.Servers) {
		return nil, fmt.Errorf("vault: vault was created for %d servers, %d configured: %w",
			ct.Servers(), len(c.cfg.Servers), errs.ErrInvalidParameters)
	}
	log := c.log.With("clientID", string(env.ClientID), "servers", len(c.cfg.Servers), "threshold", env.Threshold)

	state, input, err := ppss.ClientGenerateReconstructRequest(c.rand, c.cfg.Params, env.ClientID, []byte(pincode))
	if err != nil {
		return nil, err
	}
	defer state.Erase()

	outputs, answered := c.reconstruct(ctx, input)
	if answered < env.Threshold {
		return nil, fmt.Errorf("%w: %d of %d answered, need %d", ErrNotEnoughServers, answered, len(outputs), env.Threshold)
	}
	key, err := ppss.ClientReconstruct(c.cfg.Pool, c.cfg.Params, state, outputs, ct)
	if err != nil {
		log.Warn("Reconstruction failed", "answered", answered, "err", err)
		return nil, err
	}
	secret, err := open(key, env.ClientID, dem)
	if err != nil {
		return nil, err
	}
	log.Info("Vault recovered", "answered", answered)
	return secret, nil
}

func (c *Client) keygen(ctx context.Context, input *ppss.PrfInput) ([]*ppss.ServerResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	responses := make([]*ppss.ServerResponse, len(c.cfg.Servers))
	g, ctx := errgroup.WithContext(ctx)
	for i, server := range c.cfg.Servers {
		i, server := i, server
		g.Go(func() error {
			resp, err := server.Keygen(ctx, input)
			if err != nil {
				return fmt.Errorf("vault: server %d: %w", i, err)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// reconstruct queries every server, leaving a nil slot for each one that failed.
func (c *Client) reconstruct(ctx context.Context, input *ppss.PrfInput) ([]*ppss.PrfOutput, int) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	outputs := make([]*ppss.PrfOutput, len(c.cfg.Servers))
	var g errgroup.Group
	for i, server := range c.cfg.Servers {
		i, server := i, server
		g.Go(func() error {
			out, err := server.Reconstruct(ctx, input)
			if err != nil {
				c.log.Warn("Server did not answer", "server", i, "err", err)
				return nil
			}
			outputs[i] = out
			return nil
		})
	}
	_ = g.Wait()

	answered := 0
	for _, out := range outputs {
		if out != nil {
			answered++
		}
	}
	return outputs, answered
}
