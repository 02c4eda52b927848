package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	tokenPurposeAccess  = "access"
	tokenPurposeRefresh = "refresh"
)

// Credential is the password record kept by the local provider. It lives in
// its own table so the account model stays free of secrets.
type Credential struct {
	ID           uint64 `gorm:"primarykey"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Credential) TableName() string {
	return "identity_credentials"
}

type tokenClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// LocalConfig configures LocalProvider.
type LocalConfig struct {
	Secret          []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

// LocalProvider is a self-hosted provider: bcrypt password hashes and HS256 tokens.
type LocalProvider struct {
	db   *gorm.DB
	cfg  LocalConfig
	log  logrus.FieldLogger
	now  func() time.Time
	cost int
}

// NewLocalProvider creates a LocalProvider. Call Migrate before first use.
func NewLocalProvider(db *gorm.DB, cfg LocalConfig, log logrus.FieldLogger) *LocalProvider {
	if log == nil {
		log = logrus.New()
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "learning-platform"
	}
	return &LocalProvider{
		db:   db,
		cfg:  cfg,
		log:  log,
		now:  time.Now,
		cost: bcrypt.DefaultCost,
	}
}

// Migrate creates the credential table.
func (p *LocalProvider) Migrate() error {
	return p.db.AutoMigrate(&Credential{})
}

// VerifyCredential validates an access token issued by this provider.
func (p *LocalProvider) VerifyCredential(ctx context.Context, token string) (*Identity, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.cfg.Secret, nil
	}, jwt.WithTimeFunc(p.now), jwt.WithIssuer(p.cfg.Issuer))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.Purpose != tokenPurposeAccess || claims.Email == "" {
		return nil, ErrInvalidCredential
	}

	ident := &Identity{Email: claims.Email, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		ident.ExpiresAt = claims.ExpiresAt.Time
	}
	return ident, nil
}

// AuthenticateWithPassword checks the password against the stored hash.
func (p *LocalProvider) AuthenticateWithPassword(ctx context.Context, email, password string) (*SessionTokens, error) {
	var cred Credential
	err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	return p.issue(cred.Email, fmt.Sprintf("%d", cred.ID))
}

// IssueSession mints tokens for an email verified by another provider. Such
// accounts may have no password credential here; the email is the subject then.
func (p *LocalProvider) IssueSession(ctx context.Context, email string) (*SessionTokens, error) {
	email = normalizeEmail(email)
	subject := email

	var cred Credential
	err := p.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error
	switch {
	case err == nil:
		subject = fmt.Sprintf("%d", cred.ID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return p.issue(email, subject)
}

// Register stores a bcrypt hash for a new email.
func (p *LocalProvider) Register(ctx context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	cred := Credential{Email: normalizeEmail(email), PasswordHash: string(hash)}
	if err := p.db.WithContext(ctx).Create(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// SendPasswordReset only logs: the local provider has no mail transport.
func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	p.log.WithField("email", normalizeEmail(email)).Info("password reset requested")
	return nil
}

func (p *LocalProvider) issue(email, subject string) (*SessionTokens, error) {
	now := p.now()
	access, err := p.sign(email, subject, tokenPurposeAccess, now, p.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := p.sign(email, subject, tokenPurposeRefresh, now, p.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &SessionTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(p.cfg.AccessTokenTTL / time.Second),
	}, nil
}

func (p *LocalProvider) sign(email, subject, purpose string, now time.Time, ttl time.Duration) (string, error) {
	claims := tokenClaims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    p.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", purpose, err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
