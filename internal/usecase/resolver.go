package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iho/gobank/internal/domain"
)

// EndpointResolver turns raw boundary tokens into endpoints.
type EndpointResolver struct {
	accountRepo AccountRepository
	cardRepo    CardRepository
	userRepo    UserRepository
	qr          QRCodec
}

// NewEndpointResolver creates a new EndpointResolver.
func NewEndpointResolver(
	accountRepo AccountRepository,
	cardRepo CardRepository,
	userRepo UserRepository,
	qr QRCodec,
) *EndpointResolver {
	return &EndpointResolver{
		accountRepo: accountRepo,
		cardRepo:    cardRepo,
		userRepo:    userRepo,
		qr:          qr,
	}
}

// Resolve resolves a destination token. An empty tokenType infers the kind
// from the token's shape: signed tokens are QR, phone-shaped tokens are phone
// numbers, anything else is looked up as an account and then as a card.
func (r *EndpointResolver) Resolve(ctx context.Context, raw string, tokenType domain.TokenType) (domain.Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Endpoint{}, fmt.Errorf("%w: empty token", domain.ErrInvalidEndpointKind)
	}

	switch tokenType {
	case domain.TokenAccount:
		return r.resolveAccount(ctx, raw)
	case domain.TokenCard:
		return r.resolveCard(ctx, raw)
	case domain.TokenPhone:
		return r.resolvePhone(ctx, raw)
	case domain.TokenQRAccount, domain.TokenQRCard:
		return r.resolveQR(ctx, raw, tokenType)
	case "":
		return r.infer(ctx, raw)
	default:
		return domain.Endpoint{}, fmt.Errorf("%w: %q", domain.ErrInvalidEndpointKind, tokenType)
	}
}

// ResolveSource resolves the debit side of a transfer. Phone numbers are rejected.
func (r *EndpointResolver) ResolveSource(ctx context.Context, raw string, tokenType domain.TokenType) (domain.Endpoint, error) {
	if tokenType == domain.TokenPhone || (tokenType == "" && domain.LooksLikePhone(strings.TrimSpace(raw))) {
		return domain.Endpoint{}, domain.ErrPhoneAsSource
	}
	return r.Resolve(ctx, raw, tokenType)
}

// Lookup returns a balance snapshot of an existing endpoint.
func (r *EndpointResolver) Lookup(ctx context.Context, endpoint domain.Endpoint) (*domain.Holder, error) {
	switch endpoint.Kind {
	case domain.EndpointAccount:
		account, err := r.accountRepo.GetByNumber(ctx, endpoint.Number)
		if err != nil {
			return nil, notFound(err, domain.ErrAccountNotFound, endpoint)
		}
		if account.System {
			return nil, fmt.Errorf("%w: %s", domain.ErrEndpointNotFound, endpoint)
		}
		return account.Holder(), nil
	case domain.EndpointCard:
		card, err := r.cardRepo.GetByNumber(ctx, endpoint.Number)
		if err != nil {
			return nil, notFound(err, domain.ErrCardNotFound, endpoint)
		}
		return card.Holder(), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidEndpointKind, endpoint.Kind)
	}
}

func (r *EndpointResolver) resolveAccount(ctx context.Context, number string) (domain.Endpoint, error) {
	endpoint := domain.AccountEndpoint(number)
	if _, err := r.Lookup(ctx, endpoint); err != nil {
		return domain.Endpoint{}, err
	}
	return endpoint, nil
}

func (r *EndpointResolver) resolveCard(ctx context.Context, number string) (domain.Endpoint, error) {
	endpoint := domain.CardEndpoint(number)
	if _, err := r.Lookup(ctx, endpoint); err != nil {
		return domain.Endpoint{}, err
	}
	return endpoint, nil
}

func (r *EndpointResolver) resolvePhone(ctx context.Context, raw string) (domain.Endpoint, error) {
	phone, err := domain.NormalizePhone(raw)
	if err != nil {
		return domain.Endpoint{}, err
	}

	user, err := r.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Endpoint{}, domain.ErrUserNotFoundByPhone
		}
		return domain.Endpoint{}, err
	}

	account, err := r.accountRepo.GetDefaultByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Endpoint{}, domain.ErrDefaultAccountNotFound
		}
		return domain.Endpoint{}, err
	}

	return account.Endpoint(), nil
}

func (r *EndpointResolver) resolveQR(ctx context.Context, raw string, tokenType domain.TokenType) (domain.Endpoint, error) {
	endpoint, err := r.qr.Decode(raw)
	if err != nil {
		return domain.Endpoint{}, err
	}

	if want, ok := tokenType.EndpointKind(); ok && endpoint.Kind != want {
		return domain.Endpoint{}, fmt.Errorf("%w: token encodes %s", domain.ErrInvalidOrExpiredQR, endpoint.Kind)
	}

	if _, err := r.Lookup(ctx, endpoint); err != nil {
		return domain.Endpoint{}, err
	}
	return endpoint, nil
}

func (r *EndpointResolver) infer(ctx context.Context, raw string) (domain.Endpoint, error) {
	switch {
	case domain.LooksLikeToken(raw):
		return r.resolveQR(ctx, raw, "")
	case domain.LooksLikePhone(raw):
		return r.resolvePhone(ctx, raw)
	}

	endpoint, err := r.resolveAccount(ctx, raw)
	if err == nil || !errors.Is(err, domain.ErrEndpointNotFound) {
		return endpoint, err
	}

	return r.resolveCard(ctx, raw)
}

// notFound maps a repository miss to ErrEndpointNotFound while keeping the specific cause.
func notFound(err, miss error, endpoint domain.Endpoint) error {
	if errors.Is(err, miss) {
		return fmt.Errorf("%w: %s: %w", domain.ErrEndpointNotFound, endpoint, miss)
	}
	return err
}
