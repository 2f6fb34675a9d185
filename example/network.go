package main

import (
	"crypto/rand"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/zkbricks/bedrock-vault/pkg/ppss"
	"github.com/zkbricks/bedrock-vault/pkg/schnorr"
	"github.com/zkbricks/bedrock-vault/pkg/transport"
	"github.com/zkbricks/bedrock-vault/pkg/transport/httptransport"
)

// Network is a set of PRF servers listening on loopback.
type Network struct {
	servers   []*http.Server
	listeners []net.Listener
	clients   []transport.Server
}

// NewNetwork starts n signing PRF servers, each with its own seed and key.
func NewNetwork(n int, pp *ppss.Parameters, sp *schnorr.Parameters, logger *slog.Logger) (*Network, error) {
	network := &Network{}
	for i := 0; i < n; i++ {
		var seed ppss.Seed
		if _, err := rand.Read(seed[:]); err != nil {
			return nil, err
		}
		sk, _, err := schnorr.KeyGen(rand.Reader, sp)
		if err != nil {
			return nil, err
		}
		handler := httptransport.NewHandler(&httptransport.HandlerConfig{
			Params:        pp,
			Seed:          seed,
			SigningKey:    sk,
			SchnorrParams: sp,
			Log:           logger.With("server", i),
		})

		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			network.Close()
			return nil, err
		}
		router := httptransport.NewServer(&httptransport.ServerConfig{ListenAddr: l.Addr().String(), Log: logger}, handler).Router()
		srv := &http.Server{Handler: router}
		go func() {
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", "err", err)
			}
		}()

		network.servers = append(network.servers, srv)
		network.listeners = append(network.listeners, l)
		client := httptransport.NewClient("http://"+l.Addr().String(), pp, nil).WithPublicKey(sp, handler.PublicKey())
		network.clients = append(network.clients, client)
	}
	return network, nil
}

// Servers returns a client for every server, in a fixed order.
func (n *Network) Servers() []transport.Server {
	return n.clients
}

// Stop shuts down server i, so that it no longer answers.
func (n *Network) Stop(i int) {
	_ = n.servers[i].Close()
}

func (n *Network) Close() {
	for _, srv := range n.servers {
		_ = srv.Close()
	}
}
