package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/zkbricks/bedrock-vault/cmd/flags"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/pool"
	"github.com/zkbricks/bedrock-vault/pkg/ppss"
	"github.com/zkbricks/bedrock-vault/pkg/schnorr"
	"github.com/zkbricks/bedrock-vault/pkg/transport"
	"github.com/zkbricks/bedrock-vault/pkg/transport/httptransport"
	"github.com/zkbricks/bedrock-vault/pkg/vault"
)

const (
	modeInit   = "init"
	modeReload = "reload"
)

var vaultFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "mode",
		Required: true,
		Usage:    "'init' to create a vault, 'reload' to recover its secret",
	},
	&cli.StringFlag{
		Name:     "pincode",
		Required: true,
		Usage:    "6-digit pincode protecting the vault",
		EnvVars:  []string{"VAULT_PINCODE"},
	},
	&cli.StringFlag{
		Name:    "secret",
		Usage:   "secret to store (init only)",
		EnvVars: []string{"VAULT_SECRET"},
	},
	&cli.StringFlag{
		Name:    "vault-dir",
		Usage:   "directory holding the vault (default ~/.bedrock)",
		EnvVars: []string{"VAULT_DIR"},
	},
	&cli.StringSliceFlag{
		Name:     "server",
		Required: true,
		Usage:    "PRF server base URL; repeat in the same order for init and reload",
		EnvVars:  []string{"VAULT_SERVERS"},
	},
	&cli.StringSliceFlag{
		Name:    "server-pubkey",
		Usage:   "hex-encoded Schnorr public key of each --server, in the same order",
		EnvVars: []string{"VAULT_SERVER_PUBKEYS"},
	},
	&cli.StringFlag{
		Name:    "salt",
		Usage:   "hex-encoded 32-byte salt the servers sign with",
		EnvVars: []string{"VAULT_SALT"},
	},
	&cli.IntFlag{
		Name:    "threshold",
		Value:   2,
		Usage:   "number of servers needed to recover the secret (init only)",
		EnvVars: []string{"VAULT_THRESHOLD"},
	},
	&cli.DurationFlag{
		Name:    "timeout",
		Value:   10 * time.Second,
		Usage:   "timeout for each round of server requests",
		EnvVars: []string{"VAULT_TIMEOUT"},
	},
	&cli.BoolFlag{
		Name:  "force",
		Usage: "replace an existing vault on init",
	},
}

func main() {
	app := &cli.App{
		Name:   "vault",
		Usage:  "Protect a secret behind a pincode, using a set of PRF servers",
		Flags:  append(vaultFlags, flags.LogFlags("vault")...),
		Action: runVault,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func servers(cCtx *cli.Context, pp *ppss.Parameters) ([]transport.Server, error) {
	urls := cCtx.StringSlice("server")
	pubkeys := cCtx.StringSlice("server-pubkey")
	if len(pubkeys) != 0 && len(pubkeys) != len(urls) {
		return nil, fmt.Errorf("got %d --server-pubkey for %d --server", len(pubkeys), len(urls))
	}

	sp := schnorr.Setup(pp.Group)
	if s := cCtx.String("salt"); s != "" {
		salt, err := flags.ParseSalt(s)
		if err != nil {
			return nil, err
		}
		sp = sp.WithSalt(salt)
	}

	httpClient := &http.Client{Timeout: cCtx.Duration("timeout")}
	out := make([]transport.Server, len(urls))
	for i, url := range urls {
		client := httptransport.NewClient(url, pp, httpClient)
		if len(pubkeys) != 0 {
			pk, err := flags.ParsePoint(pp.Group, pubkeys[i])
			if err != nil {
				return nil, fmt.Errorf("--server-pubkey %d: %w", i, err)
			}
			client = client.WithPublicKey(sp, pk)
		}
		out[i] = client
	}
	return out, nil
}

func runVault(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	mode := cCtx.String("mode")
	if mode != modeInit && mode != modeReload {
		return fmt.Errorf("invalid --mode %q: must be %q or %q", mode, modeInit, modeReload)
	}
	pincode := cCtx.String("pincode")
	if err := vault.ValidatePincode(pincode); err != nil {
		return err
	}

	dir := cCtx.String("vault-dir")
	if dir == "" {
		var err error
		if dir, err = vault.DefaultDir(); err != nil {
			return fmt.Errorf("locate vault directory: %w", err)
		}
	}

	pp := ppss.Setup(curve.Secp256k1{})
	srvs, err := servers(cCtx, pp)
	if err != nil {
		return err
	}

	threshold := cCtx.Int("threshold")
	if mode == modeReload {
		threshold = 0
	}

	pl := pool.NewPool(0)
	defer pl.TearDown()

	client, err := vault.NewClient(&vault.Config{
		Params:    pp,
		Servers:   srvs,
		Threshold: threshold,
		Timeout:   cCtx.Duration("timeout"),
		Store:     vault.NewFileStore(dir),
		Pool:      pl,
		Log:       logger,
		Overwrite: cCtx.Bool("force"),
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch mode {
	case modeInit:
		secret := cCtx.String("secret")
		if secret == "" {
			return errors.New("--secret is required with --mode init")
		}
		if err := client.Initialize(ctx, pincode, []byte(secret)); err != nil {
			return err
		}
		fmt.Fprintf(cCtx.App.Writer, "vault initialized in %s\n", dir)
	case modeReload:
		secret, err := client.Recover(ctx, pincode)
		if err != nil {
			return err
		}
		fmt.Fprintln(cCtx.App.Writer, string(secret))
	}
	return nil
}
