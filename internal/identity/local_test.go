package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newLocalProvider(t *testing.T) *LocalProvider {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	p := NewLocalProvider(db, LocalConfig{
		Secret:          []byte("test-secret"),
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, nil)
	p.cost = bcrypt.MinCost
	require.NoError(t, p.Migrate())
	return p
}

func TestLocalProvider_RegisterAndLogin(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Register(ctx, "Alice@Example.com", "Passw0rd!"))

	tokens, err := p.AuthenticateWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, 3600, tokens.ExpiresIn)
	assert.NotEmpty(t, tokens.RefreshToken)

	id, err := p.VerifyCredential(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), id.ExpiresAt, 5*time.Second)
}

func TestLocalProvider_IssueSessionWithoutPassword(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()

	tokens, err := p.IssueSession(ctx, "Grace@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)

	id, err := p.VerifyCredential(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", id.Email)
	assert.Equal(t, "grace@example.com", id.Subject)

	// No password credential was created.
	_, err = p.AuthenticateWithPassword(ctx, "grace@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLocalProvider_WrongPassword(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()
	require.NoError(t, p.Register(ctx, "bob@example.com", "Passw0rd!"))

	_, err := p.AuthenticateWithPassword(ctx, "bob@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = p.AuthenticateWithPassword(ctx, "nobody@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLocalProvider_DuplicateRegister(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()
	require.NoError(t, p.Register(ctx, "carol@example.com", "Passw0rd!"))

	err := p.Register(ctx, "carol@example.com", "Other1!x")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestLocalProvider_RejectsRefreshAndExpiredTokens(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()
	require.NoError(t, p.Register(ctx, "dave@example.com", "Passw0rd!"))

	tokens, err := p.AuthenticateWithPassword(ctx, "dave@example.com", "Passw0rd!")
	require.NoError(t, err)

	_, err = p.VerifyCredential(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredential, "refresh tokens are not bearer credentials")

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = p.VerifyCredential(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLocalProvider_RejectsForeignSignature(t *testing.T) {
	p := newLocalProvider(t)

	claims := tokenClaims{
		Email:   "eve@example.com",
		Purpose: tokenPurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "learning-platform",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = p.VerifyCredential(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = p.VerifyCredential(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
