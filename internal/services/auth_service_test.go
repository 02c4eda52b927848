package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yukikurage/learning-platform-api/internal/constants"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/identity"
	"github.com/yukikurage/learning-platform-api/internal/metrics"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/ratelimit"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/testutil"
)

type authFixture struct {
	db       *gorm.DB
	svc      *AuthService
	provider *testutil.Provider
	metrics  *metrics.Metrics
}

func newAuthFixture(t *testing.T, limiter *ratelimit.Limiter) *authFixture {
	db := testutil.NewDB(t)
	provider := testutil.NewProvider()
	m := metrics.NewNop()
	svc := NewAuthService(repository.NewUserRepository(db), provider, limiter, m, testutil.NewLogger())
	svc.setClock(testutil.Clock(testutil.Now))
	return &authFixture{db: db, svc: svc, provider: provider, metrics: m}
}

func TestLogin_LocksAfterFiveFailures(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice@example.com")
	f.provider.SetPassword(user.Email, "Correct#123")

	for attempt := 1; attempt <= constants.MaxLoginAttempts; attempt++ {
		_, err := f.svc.Login(ctx, user.Email, "wrong")
		require.Error(t, err)
		assert.Equal(t, CodeInvalidCredentials, apierrors.CodeOf(err), "attempt %d", attempt)

		var apiErr *apierrors.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, constants.MaxLoginAttempts-attempt, apiErr.Details["remaining_attempts"])
	}

	var stored models.User
	require.NoError(t, f.db.First(&stored, user.ID).Error)
	assert.Equal(t, constants.MaxLoginAttempts, stored.FailedAttemptCount)
	require.NotNil(t, stored.LockedUntil)
	assert.WithinDuration(t, testutil.Now.Add(constants.LockDuration), *stored.LockedUntil, time.Millisecond)
	assert.Equal(t, float64(1), promtestutil.ToFloat64(f.metrics.AccountLocksTotal))

	// The sixth attempt is refused before the provider is asked.
	_, err := f.svc.Login(ctx, user.Email, "Correct#123")
	require.Error(t, err)
	assert.Equal(t, apierrors.KindAccountLocked, apierrors.KindOf(err))
	var locked *apierrors.Error
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, int(constants.LockDuration.Seconds()), locked.RetryAfter)
	assert.Equal(t, constants.MaxLoginAttempts, f.provider.PasswordCalls)
}

func TestLogin_SuccessAfterLockExpiresResetsCounter(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "bob@example.com")
	f.provider.SetPassword(user.Email, "Correct#123")

	for i := 0; i < constants.MaxLoginAttempts; i++ {
		_, _ = f.svc.Login(ctx, user.Email, "wrong")
	}

	f.svc.setClock(testutil.Clock(testutil.Now.Add(constants.LockDuration + time.Second)))
	result, err := f.svc.Login(ctx, user.Email, "Correct#123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", result.Tokens.TokenType)
	assert.Equal(t, user.ID, result.User.ID)

	var stored models.User
	require.NoError(t, f.db.First(&stored, user.ID).Error)
	assert.Zero(t, stored.FailedAttemptCount)
	assert.Nil(t, stored.LockedUntil)
}

func TestLogin_UnknownAccountAndUpstreamFailure(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "nobody@example.com", "whatever")
	assert.Equal(t, CodeInvalidCredentials, apierrors.CodeOf(err))
	assert.Zero(t, f.provider.PasswordCalls)

	user := testutil.CreateUser(t, f.db, "carol@example.com")
	f.provider.Err = assert.AnError
	_, err = f.svc.Login(ctx, user.Email, "whatever")
	assert.Equal(t, apierrors.KindUpstream, apierrors.KindOf(err))

	var stored models.User
	require.NoError(t, f.db.First(&stored, user.ID).Error)
	assert.Zero(t, stored.FailedAttemptCount, "upstream failures do not count against the account")
}

func TestSignup(t *testing.T) {
	valid := SignupInput{
		Email:           "New.User@Example.com",
		Password:        "Secret#123",
		PasswordConfirm: "Secret#123",
		NickName:        "newbie",
		RealName:        "New User",
		TermsAgreed:     true,
	}

	tests := []struct {
		name   string
		mutate func(in *SignupInput)
		code   string
	}{
		{"password mismatch", func(in *SignupInput) { in.PasswordConfirm = "Other#123" }, CodePasswordMismatch},
		{"terms not agreed", func(in *SignupInput) { in.TermsAgreed = false }, CodeTermsNotAgreed},
		{"weak password", func(in *SignupInput) { in.Password, in.PasswordConfirm = "password", "password" }, CodeWeakPassword},
		{"email taken", func(in *SignupInput) { in.Email = "taken@example.com" }, CodeEmailTaken},
		{"nick taken", func(in *SignupInput) { in.NickName = "taken" }, CodeNickNameTaken},
		{"short nick", func(in *SignupInput) { in.NickName = "x" }, apierrors.ErrCodeInvalidInput},
		{"long phone", func(in *SignupInput) { in.PhoneNumber = "+81-90-1234-5678-9999" }, apierrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, nil)
			taken := testutil.CreateUser(t, f.db, "taken@example.com")
			require.NoError(t, f.db.Model(taken).Update("nick_name", "taken").Error)

			in := valid
			tt.mutate(&in)
			_, err := f.svc.Signup(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, tt.code, apierrors.CodeOf(err))
		})
	}

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		user, err := f.svc.Signup(context.Background(), valid)
		require.NoError(t, err)
		assert.Equal(t, "new.user@example.com", user.Email)
		assert.NotZero(t, user.ID)
		assert.Empty(t, user.PhoneNumber)

		_, err = f.svc.Login(context.Background(), "new.user@example.com", "Secret#123")
		assert.NoError(t, err)
	})
}

func TestSignup_StoresPhoneNumber(t *testing.T) {
	f := newAuthFixture(t, nil)
	user, err := f.svc.Signup(context.Background(), SignupInput{
		Email:           "phone@example.com",
		Password:        "Secret#123",
		PasswordConfirm: "Secret#123",
		NickName:        "caller",
		RealName:        "Phone User",
		PhoneNumber:     " 090-1234-5678 ",
		TermsAgreed:     true,
	})
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, f.db.First(&stored, user.ID).Error)
	assert.Equal(t, "090-1234-5678", stored.PhoneNumber)
}

func TestRequestPasswordReset_RateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := newAuthFixture(t, ratelimit.NewLimiter(client, "test", constants.PasswordResetInterval))
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "dave@example.com")

	require.NoError(t, f.svc.RequestPasswordReset(ctx, user.Email))
	assert.Equal(t, []string{user.Email}, f.provider.Resets)

	err := f.svc.RequestPasswordReset(ctx, user.Email)
	require.Error(t, err)
	assert.Equal(t, CodeResetRateLimited, apierrors.CodeOf(err))
	assert.Equal(t, apierrors.KindRateLimited, apierrors.KindOf(err))
	assert.Len(t, f.provider.Resets, 1)

	err = f.svc.RequestPasswordReset(ctx, "ghost@example.com")
	assert.Equal(t, CodeUserNotFound, apierrors.CodeOf(err))
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	admin := testutil.CreateAdmin(t, f.db, "admin@example.com")

	principal, err := f.svc.Authenticate(ctx, testutil.TokenFor(admin.Email))
	require.NoError(t, err)
	assert.Equal(t, admin.ID, principal.ID)
	assert.True(t, principal.IsSystemAdmin)

	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.Equal(t, apierrors.KindAuthentication, apierrors.KindOf(err))

	_, err = f.svc.Authenticate(ctx, testutil.TokenFor("stranger@example.com"))
	assert.Equal(t, apierrors.KindAuthentication, apierrors.KindOf(err))

	until := testutil.Now.Add(time.Minute)
	require.NoError(t, f.db.Model(admin).Update("locked_until", until).Error)
	_, err = f.svc.Authenticate(ctx, testutil.TokenFor(admin.Email))
	assert.Equal(t, apierrors.KindAccountLocked, apierrors.KindOf(err))
}

func newSocialFixture(t *testing.T, issuer identity.SessionIssuer) *authFixture {
	f := newAuthFixture(t, nil)
	f.svc.WithSocialLogin(f.provider, issuer)
	return f
}

func TestLoginWithProvider(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		_, err := f.svc.LoginWithProvider(context.Background(), testutil.TokenFor("carol@example.com"))
		assert.Equal(t, apierrors.KindUnavailable, apierrors.KindOf(err))
	})

	t.Run("rejected token", func(t *testing.T) {
		f := newSocialFixture(t, nil)
		_, err := f.svc.LoginWithProvider(context.Background(), "garbage")
		assert.Equal(t, CodeProviderRejected, apierrors.CodeOf(err))
		assert.Equal(t, apierrors.KindAuthentication, apierrors.KindOf(err))
	})

	t.Run("no email", func(t *testing.T) {
		f := newSocialFixture(t, nil)
		f.provider.Err = identity.ErrNoEmail
		_, err := f.svc.LoginWithProvider(context.Background(), testutil.TokenFor("carol@example.com"))
		assert.Equal(t, CodeProviderNoEmail, apierrors.CodeOf(err))
		assert.Equal(t, apierrors.KindAuthentication, apierrors.KindOf(err))
	})

	t.Run("unknown account is sent to sign-up", func(t *testing.T) {
		f := newSocialFixture(t, nil)
		result, err := f.svc.LoginWithProvider(context.Background(), testutil.TokenFor("Carol@Example.com"))
		require.NoError(t, err)
		assert.Nil(t, result.Login)
		require.NotNil(t, result.NewUser)
		assert.Equal(t, "carol@example.com", result.NewUser.Email)
		assert.Equal(t, constants.ProviderSignupPath, result.NewUser.RedirectURL)
	})

	t.Run("known account passes the token through", func(t *testing.T) {
		f := newSocialFixture(t, nil)
		user := testutil.CreateUser(t, f.db, "carol@example.com")
		token := testutil.TokenFor(user.Email)

		result, err := f.svc.LoginWithProvider(context.Background(), token)
		require.NoError(t, err)
		require.NotNil(t, result.Login)
		assert.Equal(t, user.ID, result.Login.User.ID)
		assert.Equal(t, token, result.Login.Tokens.AccessToken)
		assert.Equal(t, "Bearer", result.Login.Tokens.TokenType)

		principal, err := f.svc.Authenticate(context.Background(), result.Login.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, principal.ID)
	})

	t.Run("locked account", func(t *testing.T) {
		f := newSocialFixture(t, nil)
		user := testutil.CreateUser(t, f.db, "carol@example.com")
		require.NoError(t, f.db.Model(user).Update("locked_until", testutil.Now.Add(time.Minute)).Error)

		_, err := f.svc.LoginWithProvider(context.Background(), testutil.TokenFor(user.Email))
		assert.Equal(t, apierrors.KindAccountLocked, apierrors.KindOf(err))
	})
}

func TestLoginWithProvider_IssuesLocalSession(t *testing.T) {
	f := newAuthFixture(t, nil)
	local := identity.NewLocalProvider(f.db, identity.LocalConfig{
		Secret:          []byte("test-secret"),
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, nil)
	require.NoError(t, local.Migrate())
	f.svc.WithSocialLogin(f.provider, local)
	user := testutil.CreateUser(t, f.db, "erin@example.com")

	result, err := f.svc.LoginWithProvider(context.Background(), testutil.TokenFor(user.Email))
	require.NoError(t, err)
	require.NotNil(t, result.Login)
	assert.NotEqual(t, testutil.TokenFor(user.Email), result.Login.Tokens.AccessToken)
	assert.NotEmpty(t, result.Login.Tokens.RefreshToken)

	ident, err := local.VerifyCredential(context.Background(), result.Login.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.Email, ident.Email)
}

func TestCompleteProviderSignup(t *testing.T) {
	valid := ProviderSignupInput{
		Token:       testutil.TokenFor("frank@example.com"),
		NickName:    "frankie",
		RealName:    "Frank Social",
		PhoneNumber: "03-1234-5678",
		TermsAgreed: true,
	}

	tests := []struct {
		name   string
		mutate func(in *ProviderSignupInput)
		code   string
	}{
		{"rejected token", func(in *ProviderSignupInput) { in.Token = "garbage" }, CodeProviderRejected},
		{"terms not agreed", func(in *ProviderSignupInput) { in.TermsAgreed = false }, CodeTermsNotAgreed},
		{"short real name", func(in *ProviderSignupInput) { in.RealName = "F" }, apierrors.ErrCodeInvalidInput},
		{"email taken", func(in *ProviderSignupInput) { in.Token = testutil.TokenFor("taken@example.com") }, CodeEmailTaken},
		{"nick taken", func(in *ProviderSignupInput) { in.NickName = "taken" }, CodeNickNameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSocialFixture(t, nil)
			taken := testutil.CreateUser(t, f.db, "taken@example.com")
			require.NoError(t, f.db.Model(taken).Update("nick_name", "taken").Error)

			in := valid
			tt.mutate(&in)
			_, err := f.svc.CompleteProviderSignup(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, tt.code, apierrors.CodeOf(err))
		})
	}

	t.Run("success", func(t *testing.T) {
		f := newSocialFixture(t, nil)
		result, err := f.svc.CompleteProviderSignup(context.Background(), valid)
		require.NoError(t, err)
		assert.Equal(t, "frank@example.com", result.User.Email)
		assert.Equal(t, "03-1234-5678", result.User.PhoneNumber)
		assert.Equal(t, valid.Token, result.Tokens.AccessToken)

		again, err := f.svc.LoginWithProvider(context.Background(), valid.Token)
		require.NoError(t, err)
		require.NotNil(t, again.Login)
		assert.Equal(t, result.User.ID, again.Login.User.ID)
	})
}
