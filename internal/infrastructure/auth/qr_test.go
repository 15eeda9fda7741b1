package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
)

func TestQRCodecRoundTrip(t *testing.T) {
	t.Parallel()

	codec := auth.NewQRCodec(auth.NewSigner("secret"), time.Minute)

	for _, ep := range []domain.Endpoint{
		domain.AccountEndpoint("1345436382311342"),
		domain.CardEndpoint("4000123412341234"),
	} {
		token, err := codec.Encode(ep, "user-1")
		require.NoError(t, err)

		decoded, err := codec.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, ep, decoded)
	}
}

func TestQRCodecTokensAreUnique(t *testing.T) {
	t.Parallel()

	codec := auth.NewQRCodec(auth.NewSigner("secret"), time.Minute)
	ep := domain.AccountEndpoint("1345436382311342")

	a, err := codec.Encode(ep, "user-1")
	require.NoError(t, err)
	b, err := codec.Encode(ep, "user-1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestQRCodecExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	signer := auth.NewSigner("secret")

	minted := auth.NewQRCodec(signer.WithClock(func() time.Time { return now }), 10*time.Minute)
	later := auth.NewQRCodec(signer.WithClock(func() time.Time { return now.Add(11 * time.Minute) }), 10*time.Minute)
	inside := auth.NewQRCodec(signer.WithClock(func() time.Time { return now.Add(9 * time.Minute) }), 10*time.Minute)

	token, err := minted.Encode(domain.AccountEndpoint("1345436382311342"), "user-1")
	require.NoError(t, err)

	_, err = inside.Decode(token)
	require.NoError(t, err)

	_, err = later.Decode(token)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpiredQR), "got %v", err)
}

func TestQRCodecRejectsOtherPurposes(t *testing.T) {
	t.Parallel()

	signer := auth.NewSigner("secret")
	codec := auth.NewQRCodec(signer, time.Minute)
	sessions := auth.NewJWTManager(signer, time.Minute)

	session, err := sessions.Generate(&domain.User{ID: "user-1", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = codec.Decode(session)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpiredQR), "session token must not decode as QR: %v", err)

	qr, err := codec.Encode(domain.AccountEndpoint("1345436382311342"), "user-1")
	require.NoError(t, err)

	_, err = sessions.Verify(qr)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestQRCodecRejectsTampering(t *testing.T) {
	t.Parallel()

	codec := auth.NewQRCodec(auth.NewSigner("secret"), time.Minute)
	forged := auth.NewQRCodec(auth.NewSigner("forged"), time.Minute)

	token, err := forged.Encode(domain.AccountEndpoint("1345436382311342"), "user-1")
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredQR)

	_, err = codec.Decode(token + "x")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredQR)
}

func TestQRCodecEncodeValidatesEndpoint(t *testing.T) {
	t.Parallel()

	codec := auth.NewQRCodec(auth.NewSigner("secret"), 0)

	_, err := codec.Encode(domain.Endpoint{Number: "123", Kind: "PHONE"}, "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidEndpointKind)
}
