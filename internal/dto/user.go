package dto

import (
	"time"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// UserDTO represents the caller's own account in API responses
type UserDTO struct {
	ID            uint64    `json:"id"`
	Email         string    `json:"email"`
	NickName      string    `json:"nick_name"`
	RealName      string    `json:"real_name"`
	ProfileImage  string    `json:"profile_image"`
	PhoneNumber   string    `json:"phone_number"`
	IsSystemAdmin bool      `json:"is_system_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserSummaryDTO represents another user, without private fields
type UserSummaryDTO struct {
	ID           uint64 `json:"id"`
	NickName     string `json:"nick_name"`
	RealName     string `json:"real_name"`
	ProfileImage string `json:"profile_image"`
}

// SignupRequest is the body of POST /auth/signup. Password rules and
// terms agreement are checked by the service so they keep their own codes.
type SignupRequest struct {
	Email           string `json:"email" binding:"required,email,max=255"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	NickName        string `json:"nick_name" binding:"required"`
	RealName        string `json:"real_name" binding:"required"`
	PhoneNumber     string `json:"phone_number" binding:"omitempty,max=20"`
	TermsAgreed     bool   `json:"terms_agreed"`
}

// GoogleLoginRequest is the body of POST /auth/google-login.
type GoogleLoginRequest struct {
	GoogleToken string `json:"google_token" binding:"required"`
}

// GoogleSignupCompleteRequest is the body of POST /auth/google-signup-complete.
// The account email is taken from the verified token.
type GoogleSignupCompleteRequest struct {
	GoogleToken string `json:"google_token" binding:"required"`
	NickName    string `json:"nick_name" binding:"required"`
	RealName    string `json:"real_name" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=20"`
	TermsAgreed bool   `json:"terms_agreed"`
}

// GoogleNewUserResponse sends a verified Google account without a local
// account on to sign-up.
type GoogleNewUserResponse struct {
	IsNewUser   bool   `json:"is_new_user"`
	GoogleEmail string `json:"google_email"`
	RedirectURL string `json:"redirect_url"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// LoginResponse carries the provider session and the signed-in user
type LoginResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    int     `json:"expires_in"`
	User         UserDTO `json:"user"`
}

type UpdateProfileRequest struct {
	NickName    *string `json:"nick_name"`
	RealName    *string `json:"real_name"`
	PhoneNumber *string `json:"phone_number"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:            user.ID,
		Email:         user.Email,
		NickName:      user.NickName,
		RealName:      user.RealName,
		ProfileImage:  user.ProfileImage,
		PhoneNumber:   user.PhoneNumber,
		IsSystemAdmin: user.IsSystemAdmin,
		CreatedAt:     user.CreatedAt,
	}
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:           user.ID,
		NickName:     user.NickName,
		RealName:     user.RealName,
		ProfileImage: user.ProfileImage,
	}
}

// userSummary returns nil unless the relation was preloaded.
func userSummary(user *models.User) *UserSummaryDTO {
	if user == nil || user.ID == 0 {
		return nil
	}
	s := ToUserSummaryDTO(*user)
	return &s
}

// ToLoginResponse converts a login result
func ToLoginResponse(result *services.LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		TokenType:    result.Tokens.TokenType,
		ExpiresIn:    result.Tokens.ExpiresIn,
		User:         ToUserDTO(*result.User),
	}
}
