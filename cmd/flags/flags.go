package flags

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"github.com/zkbricks/bedrock-vault/internal/logging"
	"github.com/zkbricks/bedrock-vault/internal/params"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/ppss"
)

var LogJsonFlag = &cli.BoolFlag{
	Name:    "log-json",
	Value:   false,
	Usage:   "log in JSON format",
	EnvVars: []string{"LOG_JSON"},
}

var LogDebugFlag = &cli.BoolFlag{
	Name:    "log-debug",
	Value:   false,
	Usage:   "log debug messages",
	EnvVars: []string{"LOG_DEBUG"},
}

var LogUidFlag = &cli.BoolFlag{
	Name:    "log-uid",
	Value:   false,
	Usage:   "generate a uuid and add to all log messages",
	EnvVars: []string{"LOG_UID"},
}

func LogServiceFlag(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "log-service",
		Value:   service,
		Usage:   "add 'service' tag to logs",
		EnvVars: []string{"LOG_SERVICE"},
	}
}

// LogFlags returns the logging flags shared by every binary.
func LogFlags(service string) []cli.Flag {
	return []cli.Flag{LogJsonFlag, LogDebugFlag, LogUidFlag, LogServiceFlag(service)}
}

func SetupLogger(cCtx *cli.Context) *slog.Logger {
	return logging.Setup(&logging.Options{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJsonFlag.Name),
		Service: cCtx.String("log-service"),
		Version: logging.Version,
		UID:     cCtx.Bool(LogUidFlag.Name),
	})
}

func decodeFixedHex(name, value string, size int) ([]byte, error) {
	data, err := hex.DecodeString(value)
	if err != nil || len(data) != size {
		return nil, fmt.Errorf("invalid %s: must be %d hex chars (%d bytes)", name, 2*size, size)
	}
	return data, nil
}

// ParseSeed decodes a 64 hex char server seed.
func ParseSeed(value string) (ppss.Seed, error) {
	var seed ppss.Seed
	data, err := decodeFixedHex("seed", value, params.SeedBytes)
	if err != nil {
		return seed, err
	}
	copy(seed[:], data)
	return seed, nil
}

// ParseSalt decodes a 64 hex char Schnorr salt.
func ParseSalt(value string) ([params.SaltBytes]byte, error) {
	var salt [params.SaltBytes]byte
	data, err := decodeFixedHex("salt", value, params.SaltBytes)
	if err != nil {
		return salt, err
	}
	copy(salt[:], data)
	return salt, nil
}

// ParseScalar decodes the canonical hex encoding of a non-zero scalar.
func ParseScalar(group curve.Curve, value string) (curve.Scalar, error) {
	data, err := decodeFixedHex("scalar", value, group.ScalarBytes())
	if err != nil {
		return nil, err
	}
	s := group.NewScalar()
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("invalid scalar: %w", err)
	}
	if s.IsZero() {
		return nil, fmt.Errorf("invalid scalar: zero")
	}
	return s, nil
}

// ParsePoint decodes the hex encoding of a compressed point.
func ParsePoint(group curve.Curve, value string) (curve.Point, error) {
	data, err := decodeFixedHex("public key", value, group.PointBytes())
	if err != nil {
		return nil, err
	}
	p := group.NewPoint()
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	return p, nil
}
