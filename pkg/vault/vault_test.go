package vault

import (
	"context"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/ppss"
	"github.com/zkbricks/bedrock-vault/pkg/transport"
)

// MockServer is a transport.Server whose answers are scripted.
type MockServer struct {
	mock.Mock
}

func (m *MockServer) Keygen(ctx context.Context, input *ppss.PrfInput) (*ppss.ServerResponse, error) {
	args := m.Called(ctx, input)
	resp, _ := args.Get(0).(*ppss.ServerResponse)
	return resp, args.Error(1)
}

func (m *MockServer) Reconstruct(ctx context.Context, input *ppss.PrfInput) (*ppss.PrfOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*ppss.PrfOutput)
	return out, args.Error(1)
}

var errUnreachable = errors.New("connection refused")

func localServers(t *testing.T, pp *ppss.Parameters, n int) []transport.Server {
	servers := make([]transport.Server, n)
	for i := range servers {
		var seed ppss.Seed
		_, err := rand.Read(seed[:])
		require.NoError(t, err)
		servers[i] = transport.NewLocal(pp, seed)
	}
	return servers
}

func newClient(t *testing.T, dir string, servers []transport.Server, threshold int) *Client {
	c, err := NewClient(&Config{
		Params:    ppss.Setup(curve.Secp256k1{}),
		Servers:   servers,
		Threshold: threshold,
		Store:     NewFileStore(dir),
	})
	require.NoError(t, err)
	return c
}

func TestVault_InitializeRecover(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), ".bedrock")
	pp := ppss.Setup(curve.Secp256k1{})
	servers := localServers(t, pp, 3)
	secret := []byte("correct horse battery staple")

	c := newClient(t, dir, servers, 2)
	require.NoError(t, c.Initialize(ctx, "123456", secret))

	for _, name := range []string{KEMFile, DEMFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm(), name)
	}
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(dirPerm), info.Mode().Perm())

	recovered, err := c.Recover(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)

	_, err = c.Recover(ctx, "000000")
	assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed)

	err = c.Initialize(ctx, "123456", secret)
	assert.ErrorIs(t, err, ErrVaultExists)
}

func TestVault_ServerFailures(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pp := ppss.Setup(curve.Secp256k1{})
	servers := localServers(t, pp, 3)
	secret := []byte("s3cr3t")
	require.NoError(t, newClient(t, dir, servers, 2).Initialize(ctx, "123456", secret))

	down := new(MockServer)
	down.On("Reconstruct", mock.Anything, mock.Anything).Return(nil, errUnreachable)

	// one server down, still above the threshold
	partial := []transport.Server{servers[0], down, servers[2]}
	recovered, err := newClient(t, dir, partial, 2).Recover(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)
	down.AssertNumberOfCalls(t, "Reconstruct", 1)

	// two servers down
	_, err = newClient(t, dir, []transport.Server{down, down, servers[2]}, 2).Recover(ctx, "123456")
	assert.ErrorIs(t, err, ErrNotEnoughServers)

	// servers in a different order
	swapped := []transport.Server{servers[1], servers[0], servers[2]}
	_, err = newClient(t, dir, swapped, 2).Recover(ctx, "123456")
	assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed)

	// wrong number of servers
	_, err = newClient(t, dir, servers[:2], 2).Recover(ctx, "123456")
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
}

func TestVault_InitializeNeedsAllServers(t *testing.T) {
	pp := ppss.Setup(curve.Secp256k1{})
	servers := localServers(t, pp, 2)
	down := new(MockServer)
	down.On("Keygen", mock.Anything, mock.Anything).Return(nil, errUnreachable)

	dir := t.TempDir()
	c := newClient(t, dir, []transport.Server{servers[0], down, servers[1]}, 2)
	err := c.Initialize(context.Background(), "123456", []byte("x"))
	assert.ErrorIs(t, err, errUnreachable)

	exists, err := NewFileStore(dir).Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVault_TamperedBlobs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pp := ppss.Setup(curve.Secp256k1{})
	servers := localServers(t, pp, 3)
	c := newClient(t, dir, servers, 2)
	require.NoError(t, c.Initialize(ctx, "123456", []byte("secret")))

	store := NewFileStore(dir)
	kem, dem, err := store.Load()
	require.NoError(t, err)

	badDEM := append([]byte(nil), dem...)
	badDEM[len(badDEM)-1] ^= 1
	require.NoError(t, store.Save(kem, badDEM))
	_, err = c.Recover(ctx, "123456")
	assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed)

	require.NoError(t, store.Save([]byte("not cbor"), dem))
	_, err = c.Recover(ctx, "123456")
	assert.ErrorIs(t, err, errs.ErrSerialization)
}

func TestVault_Errors(t *testing.T) {
	pp := ppss.Setup(curve.Secp256k1{})
	servers := localServers(t, pp, 2)
	c := newClient(t, t.TempDir(), servers, 2)

	_, err := c.Recover(context.Background(), "123456")
	assert.ErrorIs(t, err, ErrNoVault)
	assert.ErrorIs(t, c.Initialize(context.Background(), "12345", nil), ErrInvalidPincode)

	_, err = NewClient(&Config{Params: pp, Servers: servers, Threshold: 3, Store: NewFileStore(t.TempDir())})
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
	_, err = NewClient(&Config{Params: pp, Threshold: 1, Store: NewFileStore(t.TempDir())})
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
}

func TestValidatePincode(t *testing.T) {
	for _, ok := range []string{"123456", "000000", "999999"} {
		assert.NoError(t, ValidatePincode(ok), ok)
	}
	for _, bad := range []string{"", "12345", "1234567", "12345a", "１２３４５６", " 12345"} {
		assert.ErrorIs(t, ValidatePincode(bad), ErrInvalidPincode, bad)
	}
}

func TestEnvelope_SealOpen(t *testing.T) {
	var key ppss.SecretKey
	_, err := rand.Read(key[:])
	require.NoError(t, err)
	id := []byte("client")

	blob, err := seal(rand.Reader, key, id, []byte("payload"))
	require.NoError(t, err)
	out, err := open(key, id, blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), out)

	_, err = open(key, []byte("other"), blob)
	assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed)
	key[0] ^= 1
	_, err = open(key, id, blob)
	assert.ErrorIs(t, err, errs.ErrIntegrityCheckFailed)
	_, err = open(key, id, blob[:10])
	assert.ErrorIs(t, err, errs.ErrSerialization)
}

func TestVault_RecoverWithoutThreshold(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pp := ppss.Setup(curve.Secp256k1{})
	servers := localServers(t, pp, 3)
	require.NoError(t, newClient(t, dir, servers, 3).Initialize(ctx, "123456", []byte("x")))

	c := newClient(t, dir, servers, 0)
	recovered, err := c.Recover(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), recovered)

	// the threshold stored at init applies, not the configured one
	down := new(MockServer)
	down.On("Reconstruct", mock.Anything, mock.Anything).Return(nil, errUnreachable)
	_, err = newClient(t, dir, []transport.Server{servers[0], servers[1], down}, 2).Recover(ctx, "123456")
	assert.ErrorIs(t, err, ErrNotEnoughServers)

	assert.ErrorIs(t, c.Initialize(ctx, "123456", []byte("y")), errs.ErrInvalidParameters)
}
