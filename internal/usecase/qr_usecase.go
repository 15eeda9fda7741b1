package usecase

import (
	"context"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// QRUseCase mints QR tokens for endpoints the caller controls.
type QRUseCase struct {
	resolver *EndpointResolver
	codec    QRCodec
	metrics  *metrics.Metrics
}

// NewQRUseCase creates a new QRUseCase.
func NewQRUseCase(resolver *EndpointResolver, codec QRCodec, m *metrics.Metrics) *QRUseCase {
	return &QRUseCase{
		resolver: resolver,
		codec:    codec,
		metrics:  m,
	}
}

// Generate returns a signed, time-bounded token identifying endpoint. Only the
// owner or an admin may mint one.
func (uc *QRUseCase) Generate(ctx context.Context, principal domain.Principal, endpoint domain.Endpoint) (string, error) {
	if err := endpoint.Validate(); err != nil {
		return "", err
	}

	holder, err := uc.resolver.Lookup(ctx, endpoint)
	if err != nil {
		return "", err
	}

	if !principal.CanAccess(holder.UserID) {
		return "", domain.ErrForbidden
	}

	token, err := uc.codec.Encode(endpoint, holder.UserID)
	if err != nil {
		return "", err
	}

	uc.metrics.QRMinted(string(endpoint.Kind))
	return token, nil
}

// Decode verifies a token and returns the endpoint it names.
func (uc *QRUseCase) Decode(ctx context.Context, token string) (domain.Endpoint, error) {
	endpoint, err := uc.codec.Decode(token)
	if err != nil {
		return domain.Endpoint{}, err
	}
	if _, err := uc.resolver.Lookup(ctx, endpoint); err != nil {
		return domain.Endpoint{}, err
	}
	return endpoint, nil
}
