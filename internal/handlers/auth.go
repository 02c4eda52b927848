package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup registers a new account with the identity provider.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), services.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		NickName:        req.NickName,
		RealName:        req.RealName,
		PhoneNumber:     req.PhoneNumber,
		TermsAgreed:     req.TermsAgreed,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login exchanges an email and password for provider session tokens.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLoginResponse(result))
}

// GoogleLogin signs in with a Google ID token. A Google account without a
// local account gets a pointer to sign-up instead of a session.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req dto.GoogleLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.LoginWithProvider(c.Request.Context(), req.GoogleToken)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	if result.NewUser != nil {
		c.JSON(http.StatusOK, dto.GoogleNewUserResponse{
			IsNewUser:   true,
			GoogleEmail: result.NewUser.Email,
			RedirectURL: result.NewUser.RedirectURL,
		})
		return
	}
	c.JSON(http.StatusOK, dto.ToLoginResponse(result.Login))
}

// GoogleSignupComplete creates the account for a verified Google identity.
func (h *AuthHandler) GoogleSignupComplete(c *gin.Context) {
	var req dto.GoogleSignupCompleteRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.CompleteProviderSignup(c.Request.Context(), services.ProviderSignupInput{
		Token:       req.GoogleToken,
		NickName:    req.NickName,
		RealName:    req.RealName,
		PhoneNumber: req.PhoneNumber,
		TermsAgreed: req.TermsAgreed,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToLoginResponse(result))
}

// RequestPasswordReset asks the provider to mail a reset link.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.PasswordResetRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset email sent",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
