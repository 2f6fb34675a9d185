package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"log"
	"os"

	"github.com/zkbricks/bedrock-vault/internal/logging"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/pool"
	"github.com/zkbricks/bedrock-vault/pkg/ppss"
	"github.com/zkbricks/bedrock-vault/pkg/schnorr"
	"github.com/zkbricks/bedrock-vault/pkg/vault"
)

const (
	servers   = 5
	threshold = 3
)

func run(ctx context.Context) error {
	logger := logging.Setup(&logging.Options{Service: "example"})
	group := curve.Secp256k1{}
	pp := ppss.Setup(group)

	network, err := NewNetwork(servers, pp, schnorr.Setup(group), logging.Discard())
	if err != nil {
		return err
	}
	defer network.Close()

	pl := pool.NewPool(0)
	defer pl.TearDown()

	clientID := []byte("example-client")
	key, ct, err := Register(ctx, pp, network.Servers(), clientID, []byte("123456"), threshold, pl)
	if err != nil {
		return err
	}
	logger.Info("Registered", "key", hex.EncodeToString(key[:]))

	recovered, err := Reconstruct(ctx, pp, network.Servers(), clientID, []byte("123456"), ct, pl)
	if err != nil {
		return err
	}
	logger.Info("Reconstructed", "key", hex.EncodeToString(recovered[:]))

	if _, err = Reconstruct(ctx, pp, network.Servers(), clientID, []byte("000000"), ct, pl); !errors.Is(err, errs.ErrIntegrityCheckFailed) {
		return errors.New("wrong pincode was not rejected")
	}
	logger.Info("Wrong pincode rejected")

	dir, err := os.MkdirTemp("", "bedrock-example-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	client, err := vault.NewClient(&vault.Config{
		Params:    pp,
		Servers:   network.Servers(),
		Threshold: threshold,
		Store:     vault.NewFileStore(dir),
		Pool:      pl,
		Log:       logger,
	})
	if err != nil {
		return err
	}
	secret := []byte("my seed phrase")
	if err := client.Initialize(ctx, "123456", secret); err != nil {
		return err
	}

	for i := 0; i < servers-threshold; i++ {
		network.Stop(i)
	}
	out, err := client.Recover(ctx, "123456")
	if err != nil {
		return err
	}
	if !bytes.Equal(out, secret) {
		return errors.New("recovered secret differs")
	}
	logger.Info("Recovered vault with servers down", "down", servers-threshold)

	network.Stop(servers - threshold)
	if _, err := client.Recover(ctx, "123456"); !errors.Is(err, vault.ErrNotEnoughServers) {
		return errors.New("recovery below threshold was not rejected")
	}
	logger.Info("Recovery below threshold rejected")
	return nil
}

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
