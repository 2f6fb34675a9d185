package httptransport

import (
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/zkbricks/bedrock-vault/pkg/errs"
	"github.com/zkbricks/bedrock-vault/pkg/math/curve"
	"github.com/zkbricks/bedrock-vault/pkg/ppss"
	"github.com/zkbricks/bedrock-vault/pkg/schnorr"
)

const (
	KeygenRoute      = "/api/v1/keygen"
	ReconstructRoute = "/api/v1/reconstruct"

	contentType     = "application/cbor"
	maxRequestBytes = 4 << 10
)

// HandlerConfig holds what a PRF evaluation server needs to answer requests.
type HandlerConfig struct {
	Params *ppss.Parameters
	Seed   ppss.Seed
	// SigningKey is optional. When set, every successful response carries a signature.
	SigningKey    curve.Scalar
	SchnorrParams *schnorr.Parameters
	Log           *slog.Logger
}

// Handler evaluates PRF requests received over HTTP.
type Handler struct {
	cfg *HandlerConfig
	log *slog.Logger
}

func NewHandler(cfg *HandlerConfig) *Handler {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Handler{cfg: cfg, log: log}
}

// PublicKey returns the key responses are signed with, or nil.
func (h *Handler) PublicKey() curve.Point {
	if h.cfg.SigningKey == nil {
		return nil
	}
	return schnorr.PublicKey(h.cfg.SchnorrParams, h.cfg.SigningKey)
}

func (h *Handler) readInput(w http.ResponseWriter, r *http.Request) (*ppss.PrfInput, []byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		h.log.Warn("Failed to read request body", "err", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return nil, nil, false
	}
	input := ppss.EmptyPrfInput(h.cfg.Params.Group)
	if err := input.UnmarshalBinary(body); err != nil {
		h.log.Warn("Malformed request", "err", err)
		http.Error(w, "malformed request", http.StatusBadRequest)
		return nil, nil, false
	}
	return input, body, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errs.ErrInvalidParameters) || errors.Is(err, errs.ErrSerialization) {
		h.log.Warn("Rejected request", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.log.Error("Failed to evaluate request", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (h *Handler) writeResponse(w http.ResponseWriter, route string, input *ppss.PrfInput, request, response []byte) {
	if h.cfg.SigningKey != nil {
		sig, err := schnorr.Sign(rand.Reader, h.cfg.SchnorrParams, h.cfg.SigningKey,
			signedMessage(route, input.ClientID, request, response))
		if err != nil {
			h.writeError(w, err)
			return
		}
		header, err := encodeSignature(sig)
		if err != nil {
			h.writeError(w, err)
			return
		}
		w.Header().Set(SignatureHeader, header)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(response); err != nil {
		h.log.Warn("Failed to write response", "err", err)
	}
}

// HandleKeygen answers a registration request with the server's public key and PRF output.
func (h *Handler) HandleKeygen(w http.ResponseWriter, r *http.Request) {
	input, body, ok := h.readInput(w, r)
	if !ok {
		return
	}
	resp, err := ppss.ServerProcessKeygenRequest(h.cfg.Params, h.cfg.Seed, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	data, err := resp.MarshalBinary()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Debug("Evaluated keygen request", "clientID", string(input.ClientID))
	h.writeResponse(w, KeygenRoute, input, body, data)
}

// HandleReconstruct answers a reconstruction request with the server's PRF output.
func (h *Handler) HandleReconstruct(w http.ResponseWriter, r *http.Request) {
	input, body, ok := h.readInput(w, r)
	if !ok {
		return
	}
	out, err := ppss.ServerProcessReconstructRequest(h.cfg.Params, h.cfg.Seed, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	data, err := out.MarshalBinary()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Debug("Evaluated reconstruct request", "clientID", string(input.ClientID))
	h.writeResponse(w, ReconstructRoute, input, body, data)
}
