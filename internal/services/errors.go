package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
)

// Domain error codes shared by several services.
const (
	CodeUserNotFound      = "USER_003"
	CodeWorkspaceNotFound = "WS_009"
	CodeCourseNotFound    = "COURSE_NOT_FOUND"
	CodeModuleNotFound    = "MODULE_NOT_FOUND"
	CodeTaskNotFound      = "TASK_NOT_FOUND"
	CodeTeamNotFound      = "TEAM_NOT_FOUND"
	CodeTeamTaskNotFound  = "TEAM_TASK_NOT_FOUND"
)

var (
	ErrUserNotFound      = apierrors.NewNotFound(CodeUserNotFound, "User not found")
	ErrWorkspaceNotFound = apierrors.NewNotFound(CodeWorkspaceNotFound, "Workspace not found")
	ErrCourseNotFound    = apierrors.NewNotFound(CodeCourseNotFound, "Course not found")
	ErrModuleNotFound    = apierrors.NewNotFound(CodeModuleNotFound, "Module not found")
	ErrTaskNotFound      = apierrors.NewNotFound(CodeTaskNotFound, "Task not found")
	ErrTeamNotFound      = apierrors.NewNotFound(CodeTeamNotFound, "Team not found")
	ErrTeamTaskNotFound  = apierrors.NewNotFound(CodeTeamTaskNotFound, "Team task not found")
	ErrStorageDisabled   = apierrors.NewUnavailable("File storage is not configured")
)

// notFound maps gorm.ErrRecordNotFound onto a typed NotFound and wraps
// anything else with context.
func notFound(err error, typed *apierrors.Error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return typed
	}
	return wrap(err, action)
}

func wrap(err error, action string) error {
	return fmt.Errorf("failed to %s: %w", action, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// invalidField reports a single bad input field.
func invalidField(field, message string) error {
	return apierrors.NewValidation(apierrors.ErrCodeInvalidInput, "Invalid request",
		apierrors.FieldError{Field: field, Message: message})
}
