package constants

import "time"

// Context keys shared between middleware and handlers.
const (
	ContextKeyUserID          = "user_id"
	ContextKeyPrincipal       = "principal"
	ContextKeyLogger          = "logger"
	ContextKeyRequestID       = "request_id"
	ContextKeyWorkspaceAccess = "workspace_access"
	ContextKeyCourseAccess    = "course_access"
	ContextKeyTeamAccess      = "team_access"
	ContextKeyWorkItem        = "work_item"
	ContextKeyActor           = "actor"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Account lockout
const (
	MaxLoginAttempts = 5
	LockDuration     = 5 * time.Minute
)

// Invites
const (
	InviteTTL            = 24 * time.Hour
	DefaultInviteMaxUses = 100
	MaxInviteMaxUses     = 100
)

// Account profile
const (
	MinPasswordLength = 8
	MaxPasswordLength = 32
	MinNameLength        = 2
	MaxNameLength        = 20
	MaxPhoneNumberLength = 20
)

// ProviderSignupPath is where the frontend finishes a social sign-up.
const ProviderSignupPath = "/signup/complete"

// PasswordResetInterval is the minimum gap between two reset mails for one address.
const PasswordResetInterval = time.Minute

// Blob storage layout
const (
	UploadsBucket      = "uploads"
	ProfileImageFolder = "profiles"
	AttachmentFolder   = "attachments"
	MaxUploadSize      = 10 << 20
)
