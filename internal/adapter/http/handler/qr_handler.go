package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
)

// QRService defines the behavior needed by QRHandler.
type QRService interface {
	Generate(ctx context.Context, principal domain.Principal, endpoint domain.Endpoint) (string, error)
	Decode(ctx context.Context, token string) (domain.Endpoint, error)
}

// QRHandler mints and resolves QR tokens.
type QRHandler struct {
	qrUC QRService
}

// NewQRHandler creates a new QRHandler.
func NewQRHandler(qrUC QRService) *QRHandler {
	return &QRHandler{qrUC: qrUC}
}

// Generate mints a token for ?number and ?type (ACCOUNT or CARD).
func (h *QRHandler) Generate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	kind, err := domain.ParseEndpointKind(q.Get("type"))
	if err != nil {
		writeDomainError(w, r, "invalid endpoint type", err)
		return
	}

	endpoint := domain.Endpoint{Number: strings.TrimSpace(q.Get("number")), Kind: kind}
	token, err := h.qrUC.Generate(r.Context(), p, endpoint)
	if err != nil {
		writeDomainError(w, r, "failed to generate QR", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.QRResponse{Token: token})
}

// Resolve returns the endpoint named by ?token.
func (h *QRHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token", "")
		return
	}

	endpoint, err := h.qrUC.Decode(r.Context(), token)
	if err != nil {
		writeDomainError(w, r, "failed to resolve QR", err)
		return
	}

	writeJSON(w, http.StatusOK, endpoint)
}
