package handlers

import (
	"net/http"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	"github.com/yukikurage/learning-platform-api/internal/identity"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

func (suite *APITestSuite) signupBody(email, nick string) map[string]interface{} {
	return map[string]interface{}{
		"email":            email,
		"password":         "Secr3t!pass",
		"password_confirm": "Secr3t!pass",
		"nick_name":        nick,
		"real_name":        "Alice Liddell",
		"terms_agreed":     true,
	}
}

func (suite *APITestSuite) TestSignupLoginAndMe() {
	w := suite.request(http.MethodPost, "/api/auth/signup", "", suite.signupBody("alice@example.com", "alice"))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created dto.UserDTO
	suite.decode(w, &created)
	suite.Equal("alice@example.com", created.Email)
	suite.Equal("alice", created.NickName)

	w = suite.request(http.MethodPost, "/api/auth/signup", "", suite.signupBody("alice@example.com", "alice2"))
	suite.requireError(w, http.StatusConflict, services.CodeEmailTaken)

	w = suite.request(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "Secr3t!pass",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var login dto.LoginResponse
	suite.decode(w, &login)
	suite.Equal("Bearer", login.TokenType)
	suite.NotEmpty(login.AccessToken)
	suite.Equal(created.ID, login.User.ID)

	w = suite.request(http.MethodGet, "/api/auth/me", "alice@example.com", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var me dto.UserDTO
	suite.decode(w, &me)
	suite.Equal(created.ID, me.ID)
}

func (suite *APITestSuite) TestSignupValidation() {
	body := suite.signupBody("bob@example.com", "bob")
	body["password_confirm"] = "different"
	suite.requireError(suite.request(http.MethodPost, "/api/auth/signup", "", body), http.StatusBadRequest, services.CodePasswordMismatch)

	body = suite.signupBody("bob@example.com", "bob")
	body["terms_agreed"] = false
	suite.requireError(suite.request(http.MethodPost, "/api/auth/signup", "", body), http.StatusBadRequest, services.CodeTermsNotAgreed)

	body = suite.signupBody("not-an-email", "bob")
	suite.requireError(suite.request(http.MethodPost, "/api/auth/signup", "", body), http.StatusBadRequest, "INVALID_INPUT")
}

func (suite *APITestSuite) TestLoginLockout() {
	w := suite.request(http.MethodPost, "/api/auth/signup", "", suite.signupBody("carol@example.com", "carol"))
	suite.Require().Equal(http.StatusCreated, w.Code)

	wrong := map[string]string{"email": "carol@example.com", "password": "Wrong!pass1"}
	for i := 1; i <= 4; i++ {
		suite.requireError(suite.request(http.MethodPost, "/api/auth/login", "", wrong), http.StatusUnauthorized, services.CodeInvalidCredentials)
	}
	body := suite.requireError(suite.request(http.MethodPost, "/api/auth/login", "", wrong), http.StatusUnauthorized, services.CodeInvalidCredentials)
	suite.Equal(float64(0), body.Details["remaining_attempts"])

	// Locked: even the right password is refused without reaching the provider.
	calls := suite.provider.PasswordCalls
	w = suite.request(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "carol@example.com",
		"password": "Secr3t!pass",
	})
	suite.requireError(w, http.StatusTooManyRequests, "AUTH_005")
	suite.NotEmpty(w.Header().Get("Retry-After"))
	suite.Equal(calls, suite.provider.PasswordCalls)
}

func (suite *APITestSuite) TestGoogleLoginAndSignupComplete() {
	token := "token-grace@example.com"

	w := suite.request(http.MethodPost, "/api/auth/google-login", "", map[string]string{"google_token": token})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var pending dto.GoogleNewUserResponse
	suite.decode(w, &pending)
	suite.True(pending.IsNewUser)
	suite.Equal("grace@example.com", pending.GoogleEmail)
	suite.Equal("/signup/complete", pending.RedirectURL)

	w = suite.request(http.MethodPost, "/api/auth/google-signup-complete", "", map[string]interface{}{
		"google_token": token,
		"nick_name":    "grace",
		"real_name":    "Grace Hopper",
		"phone_number": "090-0000-0000",
		"terms_agreed": true,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.LoginResponse
	suite.decode(w, &created)
	suite.Equal("grace@example.com", created.User.Email)
	suite.Equal("090-0000-0000", created.User.PhoneNumber)
	suite.Equal(token, created.AccessToken)

	w = suite.request(http.MethodPost, "/api/auth/google-login", "", map[string]string{"google_token": token})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var login dto.LoginResponse
	suite.decode(w, &login)
	suite.Equal(created.User.ID, login.User.ID)
	suite.Equal("Bearer", login.TokenType)

	w = suite.request(http.MethodGet, "/api/auth/me", "grace@example.com", nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestGoogleLoginErrors() {
	w := suite.request(http.MethodPost, "/api/auth/google-login", "", map[string]string{"google_token": "not-a-google-token"})
	suite.requireError(w, http.StatusUnauthorized, services.CodeProviderRejected)

	w = suite.request(http.MethodPost, "/api/auth/google-login", "", map[string]string{})
	suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")

	suite.provider.Err = identity.ErrNoEmail
	w = suite.request(http.MethodPost, "/api/auth/google-login", "", map[string]string{"google_token": "token-heidi@example.com"})
	suite.requireError(w, http.StatusUnauthorized, services.CodeProviderNoEmail)
}

func (suite *APITestSuite) TestAuthRequired() {
	suite.requireError(suite.request(http.MethodGet, "/api/auth/me", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	suite.requireError(suite.request(http.MethodGet, "/api/workspaces", "ghost@example.com", nil), http.StatusUnauthorized, "UNAUTHORIZED")
}

func (suite *APITestSuite) TestPasswordReset() {
	w := suite.request(http.MethodPost, "/api/auth/signup", "", suite.signupBody("dave@example.com", "dave"))
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.request(http.MethodPost, "/api/auth/password-reset", "", map[string]string{"email": "dave@example.com"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal([]string{"dave@example.com"}, suite.provider.Resets)

	w = suite.request(http.MethodPost, "/api/auth/password-reset", "", map[string]string{"email": "nobody@example.com"})
	suite.requireError(w, http.StatusNotFound, services.CodeUserNotFound)
}

func (suite *APITestSuite) TestHealthAndMetrics() {
	w := suite.request(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/metrics", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "platform_http_requests_total")
}
