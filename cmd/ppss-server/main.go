package main

import (
	"encoding/hex"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/zkbricks/bedrock-vault/cmd/flags"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/ppss"
	"github.com/zkbricks/bedrock-vault/pkg/schnorr"
	"github.com/zkbricks/bedrock-vault/pkg/transport/httptransport"
)

var serverFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "listen-addr",
		Value:   "127.0.0.1:8080",
		Usage:   "address to listen on for API",
		EnvVars: []string{"LISTEN_ADDR"},
	},
	&cli.StringFlag{
		Name:    "seed",
		Usage:   "hex-encoded 32-byte seed all per-client PRF keys are derived from",
		EnvVars: []string{"PPSS_SEED"},
	},
	&cli.StringFlag{
		Name:    "signing-key",
		Usage:   "hex-encoded Schnorr secret key; when set, responses are signed",
		EnvVars: []string{"PPSS_SIGNING_KEY"},
	},
	&cli.StringFlag{
		Name:    "salt",
		Usage:   "hex-encoded 32-byte salt hashed into every signature",
		EnvVars: []string{"PPSS_SALT"},
	},
}

func main() {
	app := &cli.App{
		Name:   "ppss-server",
		Usage:  "Serve oblivious PRF evaluations for bedrock vault clients",
		Flags:  append(serverFlags, flags.LogFlags("ppss-server")...),
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	group := curve.Secp256k1{}

	if cCtx.String("seed") == "" {
		return errors.New("--seed is required")
	}
	seed, err := flags.ParseSeed(cCtx.String("seed"))
	if err != nil {
		return err
	}

	sp := schnorr.Setup(group)
	if s := cCtx.String("salt"); s != "" {
		salt, err := flags.ParseSalt(s)
		if err != nil {
			return err
		}
		sp = sp.WithSalt(salt)
	}

	handlerCfg := &httptransport.HandlerConfig{
		Params:        ppss.Setup(group),
		Seed:          seed,
		SchnorrParams: sp,
		Log:           logger,
	}
	if k := cCtx.String("signing-key"); k != "" {
		handlerCfg.SigningKey, err = flags.ParseScalar(group, k)
		if err != nil {
			return err
		}
	}
	handler := httptransport.NewHandler(handlerCfg)
	if pk := handler.PublicKey(); pk != nil {
		data, err := pk.MarshalBinary()
		if err != nil {
			return err
		}
		logger.Info("Signing responses", "publicKey", hex.EncodeToString(data))
	}

	server := httptransport.NewServer(&httptransport.ServerConfig{
		ListenAddr:               cCtx.String("listen-addr"),
		Log:                      logger,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}, handler)
	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("Shutdown signal received")
	server.Shutdown()
	return nil
}
