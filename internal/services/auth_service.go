package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/constants"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/identity"
	"github.com/yukikurage/learning-platform-api/internal/metrics"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/ratelimit"
	"github.com/yukikurage/learning-platform-api/internal/repository"
)

// Error codes raised by the auth flows.
const (
	CodePasswordMismatch   = "AUTH_001"
	CodeTermsNotAgreed     = "AUTH_002"
	CodeSignupFailed       = "AUTH_003"
	CodeInvalidCredentials = "AUTH_004"
	CodeProviderRejected   = "AUTH_006"
	CodeProviderNoEmail    = "AUTH_007"
	CodeResetFailed        = "AUTH_008"
	CodeResetRateLimited   = "AUTH_009"
	CodeWeakPassword       = "AUTH_010"
	CodeEmailTaken         = "USER_001"
	CodeNickNameTaken      = "USER_002"
)

var (
	ErrPasswordMismatch   = apierrors.NewValidation(CodePasswordMismatch, "Passwords do not match")
	ErrTermsNotAgreed     = apierrors.NewValidation(CodeTermsNotAgreed, "You must agree to the terms of service")
	ErrWeakPassword       = apierrors.NewValidation(CodeWeakPassword, "Password must be 8 to 32 characters and mix upper case, lower case, digits and symbols")
	ErrInvalidCredentials = apierrors.NewAuthentication(CodeInvalidCredentials, "Email or password is incorrect")
	ErrInvalidToken       = apierrors.NewAuthentication(apierrors.ErrCodeUnauthorized, "Invalid or expired token")
	ErrProviderRejected   = apierrors.NewAuthentication(CodeProviderRejected, "Social login failed")
	ErrProviderNoEmail    = apierrors.NewAuthentication(CodeProviderNoEmail, "The social account has no email address")
	ErrSocialLoginOff     = apierrors.NewUnavailable("Social login is not available")
	ErrEmailTaken         = apierrors.NewConflict(CodeEmailTaken, "Email is already registered")
	ErrNickNameTaken      = apierrors.NewConflict(CodeNickNameTaken, "Nickname is already in use")
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID            uint64
	Email         string
	DisplayName   string
	IsSystemAdmin bool
}

// AuthService handles authentication related business logic.
type AuthService struct {
	users    repository.UserRepository
	provider identity.Provider
	lockout  *LockoutPolicy
	resets   *ratelimit.Limiter
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	now      func() time.Time

	social       identity.CredentialVerifier
	socialIssuer identity.SessionIssuer
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository, provider identity.Provider, resets *ratelimit.Limiter, m *metrics.Metrics, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:    users,
		provider: provider,
		lockout:  NewLockoutPolicy(users, m, log),
		resets:   resets,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// WithSocialLogin enables sign-in with tokens from a social provider such as
// Google. Sessions are minted by issuer; when issuer is nil or cannot mint
// them, the verified social token itself is handed back as the bearer.
func (s *AuthService) WithSocialLogin(verifier identity.CredentialVerifier, issuer identity.SessionIssuer) *AuthService {
	s.social = verifier
	s.socialIssuer = issuer
	return s
}

// setClock pins the clock of the service and its lockout policy.
func (s *AuthService) setClock(now func() time.Time) {
	s.now = now
	s.lockout.now = now
}

// Authenticate resolves a bearer token to the local account it belongs to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}

	ident, err := s.provider.VerifyCredential(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredential) {
			return nil, ErrInvalidToken
		}
		return nil, apierrors.NewUpstream("Identity provider unavailable", err)
	}
	if ident == nil || ident.Email == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByEmail(ctx, ident.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, wrap(err, "find user")
	}

	if err := s.lockout.Check(user); err != nil {
		return nil, err
	}

	return &Principal{
		ID:            user.ID,
		Email:         user.Email,
		DisplayName:   user.NickName,
		IsSystemAdmin: user.IsSystemAdmin,
	}, nil
}

// SignupInput represents the required information to create a new account.
type SignupInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	NickName        string
	RealName        string
	PhoneNumber     string
	TermsAgreed     bool
}

// Signup registers the credential with the identity provider and creates the local account.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	if input.Password != input.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}
	if !input.TermsAgreed {
		return nil, ErrTermsNotAgreed
	}
	if !validPassword(input.Password) {
		return nil, ErrWeakPassword
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	nick := strings.TrimSpace(input.NickName)
	if err := validName("nick_name", nick); err != nil {
		return nil, err
	}
	if err := validName("real_name", strings.TrimSpace(input.RealName)); err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(input.PhoneNumber)
	if err := validPhone(phone); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, email, nick); err != nil {
		return nil, err
	}

	if err := s.provider.Register(ctx, email, input.Password); err != nil {
		if errors.Is(err, identity.ErrAlreadyRegistered) {
			return nil, ErrEmailTaken
		}
		return nil, apierrors.NewUpstream("Failed to register credential", err)
	}

	user := &models.User{
		Email:       email,
		NickName:    nick,
		RealName:    strings.TrimSpace(input.RealName),
		PhoneNumber: phone,
	}
	if err := s.createUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// checkAvailable fails when the email or nickname already belongs to an account.
func (s *AuthService) checkAvailable(ctx context.Context, email, nick string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !isNotFound(err) {
		return wrap(err, "check email")
	}
	if _, err := s.users.FindByNickName(ctx, nick); err == nil {
		return ErrNickNameTaken
	} else if !isNotFound(err) {
		return wrap(err, "check nickname")
	}
	return nil
}

func (s *AuthService) createUser(ctx context.Context, user *models.User) error {
	if err := s.users.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return ErrEmailTaken
		}
		return wrap(err, "create user")
	}
	s.log.WithField("user_id", user.ID).Info("Account created")
	return nil
}

// LoginResult is what a successful password login yields.
type LoginResult struct {
	Tokens *identity.SessionTokens
	User   *models.User
}

// Login verifies an email and password through the identity provider,
// applying the lockout policy around the provider call.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			s.metrics.LoginAttemptsTotal.WithLabelValues("unknown_account").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, wrap(err, "find user")
	}

	if err := s.lockout.Check(user); err != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		return nil, err
	}

	tokens, err := s.provider.AuthenticateWithPassword(ctx, email, password)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidCredential) {
			s.metrics.LoginAttemptsTotal.WithLabelValues("upstream_error").Inc()
			return nil, apierrors.NewUpstream("Identity provider unavailable", err)
		}

		s.metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		remaining, recErr := s.lockout.RecordFailure(ctx, user)
		if recErr != nil {
			return nil, recErr
		}
		return nil, ErrInvalidCredentials.WithDetails(map[string]interface{}{
			"remaining_attempts": remaining,
		})
	}

	if err := s.lockout.Reset(ctx, user); err != nil {
		return nil, err
	}
	user.FailedAttemptCount = 0
	user.LockedUntil = nil

	s.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return &LoginResult{Tokens: tokens, User: user}, nil
}

// ProviderLoginResult is the outcome of a social sign-in. Exactly one of
// Login or NewUser is set.
type ProviderLoginResult struct {
	Login   *LoginResult
	NewUser *ProviderNewUser
}

// ProviderNewUser tells the client to finish sign-up for a verified social
// account that has no local account yet.
type ProviderNewUser struct {
	Email       string
	RedirectURL string
}

// LoginWithProvider signs in with a social provider token. An unknown email
// is not an error: the caller is sent on to complete sign-up.
func (s *AuthService) LoginWithProvider(ctx context.Context, token string) (*ProviderLoginResult, error) {
	ident, err := s.verifySocial(ctx, token)
	if err != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues("provider_rejected").Inc()
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, ident.Email)
	if err != nil {
		if isNotFound(err) {
			s.metrics.LoginAttemptsTotal.WithLabelValues("provider_new_user").Inc()
			return &ProviderLoginResult{NewUser: &ProviderNewUser{
				Email:       ident.Email,
				RedirectURL: constants.ProviderSignupPath,
			}}, nil
		}
		return nil, wrap(err, "find user")
	}

	if err := s.lockout.Check(user); err != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		return nil, err
	}

	tokens, err := s.sessionFor(ctx, token, ident)
	if err != nil {
		return nil, err
	}
	s.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return &ProviderLoginResult{Login: &LoginResult{Tokens: tokens, User: user}}, nil
}

// ProviderSignupInput completes an account for a verified social identity.
// The email always comes from the token.
type ProviderSignupInput struct {
	Token       string
	NickName    string
	RealName    string
	PhoneNumber string
	TermsAgreed bool
}

// CompleteProviderSignup creates the local account for a social identity
// and signs it in.
func (s *AuthService) CompleteProviderSignup(ctx context.Context, input ProviderSignupInput) (*LoginResult, error) {
	ident, err := s.verifySocial(ctx, input.Token)
	if err != nil {
		return nil, err
	}
	if !input.TermsAgreed {
		return nil, ErrTermsNotAgreed
	}

	nick := strings.TrimSpace(input.NickName)
	realName := strings.TrimSpace(input.RealName)
	phone := strings.TrimSpace(input.PhoneNumber)
	if err := validName("nick_name", nick); err != nil {
		return nil, err
	}
	if err := validName("real_name", realName); err != nil {
		return nil, err
	}
	if err := validPhone(phone); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, ident.Email, nick); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:       ident.Email,
		NickName:    nick,
		RealName:    realName,
		PhoneNumber: phone,
	}
	if err := s.createUser(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.sessionFor(ctx, input.Token, ident)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: tokens, User: user}, nil
}

func (s *AuthService) verifySocial(ctx context.Context, token string) (*identity.Identity, error) {
	if s.social == nil {
		return nil, ErrSocialLoginOff
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrProviderRejected
	}

	ident, err := s.social.VerifyCredential(ctx, token)
	switch {
	case errors.Is(err, identity.ErrNoEmail):
		return nil, ErrProviderNoEmail
	case errors.Is(err, identity.ErrInvalidCredential):
		return nil, ErrProviderRejected
	case err != nil:
		return nil, apierrors.NewUpstream("Social login provider unavailable", err)
	}
	if ident == nil || strings.TrimSpace(ident.Email) == "" {
		return nil, ErrProviderNoEmail
	}
	ident.Email = strings.ToLower(strings.TrimSpace(ident.Email))
	return ident, nil
}

func (s *AuthService) sessionFor(ctx context.Context, token string, ident *identity.Identity) (*identity.SessionTokens, error) {
	if s.socialIssuer != nil {
		tokens, err := s.socialIssuer.IssueSession(ctx, ident.Email)
		if err == nil {
			return tokens, nil
		}
		if !errors.Is(err, identity.ErrUnsupported) {
			return nil, apierrors.NewUpstream("Failed to start session", err)
		}
	}

	tokens := &identity.SessionTokens{AccessToken: token, TokenType: "Bearer"}
	if !ident.ExpiresAt.IsZero() {
		if left := ident.ExpiresAt.Sub(s.now()); left > 0 {
			tokens.ExpiresIn = int(left / time.Second)
		}
	}
	return tokens, nil
}

// RequestPasswordReset asks the identity provider to mail a reset link.
// One request per address is admitted per interval.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return wrap(err, "find user")
	}

	ok, wait, err := s.resets.Allow(ctx, "password-reset:"+email)
	if err != nil {
		// the limiter is best effort
		s.log.WithError(err).Warn("Password reset limiter unavailable")
	} else if !ok {
		return apierrors.NewRateLimited(CodeResetRateLimited, "Please wait before requesting another reset email",
			int((wait+time.Second-1)/time.Second))
	}

	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		if errors.Is(err, identity.ErrUnsupported) {
			return apierrors.NewUnavailable("Password reset is not available")
		}
		return apierrors.NewUpstream("Failed to send password reset email", err)
	}
	return nil
}

// GetUser retrieves an account by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "find user")
	}
	return user, nil
}

// validPassword enforces length and the four character classes.
func validPassword(password string) bool {
	n := len([]rune(password))
	if n < constants.MinPasswordLength || n > constants.MaxPasswordLength {
		return false
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}
