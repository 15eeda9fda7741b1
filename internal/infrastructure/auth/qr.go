package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iho/gobank/internal/domain"
)

// DefaultQRTTL is how long a minted QR token stays valid.
const DefaultQRTTL = 10 * time.Minute

// QRClaims binds an endpoint to a QR token.
type QRClaims struct {
	Number string              `json:"number"`
	Kind   domain.EndpointKind `json:"kind"`
	Envelope
}

// QRCodec implements usecase.QRCodec on top of the shared signer.
type QRCodec struct {
	signer *Signer
	ttl    time.Duration
}

// NewQRCodec creates a new QRCodec. A non-positive ttl uses DefaultQRTTL.
func NewQRCodec(signer *Signer, ttl time.Duration) *QRCodec {
	if ttl <= 0 {
		ttl = DefaultQRTTL
	}
	return &QRCodec{signer: signer, ttl: ttl}
}

// Encode mints a token naming endpoint on behalf of ownerID.
func (c *QRCodec) Encode(endpoint domain.Endpoint, ownerID string) (string, error) {
	if err := endpoint.Validate(); err != nil {
		return "", err
	}

	claims := &QRClaims{
		Number: endpoint.Number,
		Kind:   endpoint.Kind,
	}
	claims.Subject = ownerID
	claims.ID = uuid.NewString()

	token, err := c.signer.sign(PurposeQR, c.ttl, claims)
	if err != nil {
		return "", fmt.Errorf("sign qr token: %w", err)
	}
	return token, nil
}

// Decode verifies a token and returns the endpoint it names. Every failure,
// including a token minted for another purpose, is ErrInvalidOrExpiredQR.
func (c *QRCodec) Decode(token string) (domain.Endpoint, error) {
	claims := &QRClaims{}
	if err := c.signer.parse(token, PurposeQR, claims); err != nil {
		return domain.Endpoint{}, fmt.Errorf("%w: %v", domain.ErrInvalidOrExpiredQR, err)
	}

	endpoint := domain.Endpoint{Number: claims.Number, Kind: claims.Kind}
	if err := endpoint.Validate(); err != nil {
		return domain.Endpoint{}, fmt.Errorf("%w: %v", domain.ErrInvalidOrExpiredQR, err)
	}
	return endpoint, nil
}
