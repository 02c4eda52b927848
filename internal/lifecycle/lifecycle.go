// Package lifecycle is the Todo -> Doing -> Review -> Done state machine that
// a task's product moves through, and the course roles allowed to drive it.
package lifecycle

import (
	"fmt"

	"github.com/yukikurage/learning-platform-api/internal/authz"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/models"
)

// Action is an operation that moves (or keeps) a product in a status.
type Action string

const (
	ActionStart           Action = "start"
	ActionSave            Action = "save"
	ActionSubmit          Action = "submit"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionRequestRevision Action = "request_revision"
)

// Error codes for precondition failures.
const (
	CodeAlreadyStarted = "PRODUCT_ALREADY_STARTED"
	CodeNotInProgress  = "PRODUCT_NOT_IN_PROGRESS"
	CodeNotInReview    = "PRODUCT_NOT_IN_REVIEW"
	CodeLocked         = "PRODUCT_LOCKED"
	CodeUnknownAction  = "UNKNOWN_ACTION"
)

type edge struct {
	from []models.TaskStatus
	to   models.TaskStatus
	code string
}

// A save from Todo is the first write and starts the work; later saves keep Doing.
var edges = map[Action]edge{
	ActionStart:           {from: []models.TaskStatus{models.TaskStatusTodo}, to: models.TaskStatusDoing, code: CodeAlreadyStarted},
	ActionSave:            {from: []models.TaskStatus{models.TaskStatusTodo, models.TaskStatusDoing}, to: models.TaskStatusDoing, code: CodeLocked},
	ActionSubmit:          {from: []models.TaskStatus{models.TaskStatusDoing}, to: models.TaskStatusReview, code: CodeNotInProgress},
	ActionApprove:         {from: []models.TaskStatus{models.TaskStatusReview}, to: models.TaskStatusDone, code: CodeNotInReview},
	ActionReject:          {from: []models.TaskStatus{models.TaskStatusReview}, to: models.TaskStatusDoing, code: CodeNotInReview},
	ActionRequestRevision: {from: []models.TaskStatus{models.TaskStatusReview}, to: models.TaskStatusDoing, code: CodeNotInReview},
}

// Next returns the status reached by firing action from the given status,
// or an InvalidStateError when the action is not allowed there.
func Next(from models.TaskStatus, action Action) (models.TaskStatus, error) {
	e, ok := edges[action]
	if !ok {
		return "", apierrors.NewValidation(CodeUnknownAction, fmt.Sprintf("Unknown action %q", action))
	}
	for _, f := range e.from {
		if f == from {
			return e.to, nil
		}
	}
	return "", apierrors.NewInvalidState(e.code,
		fmt.Sprintf("Cannot %s a product in status %s", humanize(action), from)).
		WithDetails(map[string]interface{}{"status": string(from), "action": string(action)})
}

// ForReview maps a review verdict onto its lifecycle action.
func ForReview(a models.ReviewAction) (Action, bool) {
	switch a {
	case models.ReviewActionApprove:
		return ActionApprove, true
	case models.ReviewActionReject:
		return ActionReject, true
	case models.ReviewActionRequestRevision:
		return ActionRequestRevision, true
	}
	return "", false
}

// IsReview reports whether the action is one of the review verdicts.
func IsReview(a Action) bool {
	return a == ActionApprove || a == ActionReject || a == ActionRequestRevision
}

// RequiredCourseRoles lists the course roles allowed to fire an action.
// Manager is always allowed through course precedence.
func RequiredCourseRoles(a Action) []models.CourseRole {
	if IsReview(a) {
		return []models.CourseRole{models.CourseRoleExpert}
	}
	return []models.CourseRole{models.CourseRoleParticipant, models.CourseRoleExpert}
}

// Actor is who fires an action: their course role, and whether they act as a
// member of the team owning the product.
type Actor struct {
	UserID     uint64
	CourseRole *models.CourseRole
	TeamMember bool
}

// Authorize decides whether actor may fire action. Team members may work on
// their team's product; reviews always need a course Expert or Manager.
func Authorize(a Action, actor Actor) authz.Decision {
	if actor.TeamMember && !IsReview(a) {
		return authz.Decision{Allowed: true}
	}
	if actor.CourseRole == nil {
		return authz.Decision{Reason: authz.ReasonNotCourseMember}
	}
	return authz.Course(*actor.CourseRole, RequiredCourseRoles(a)...)
}

func humanize(a Action) string {
	if a == ActionRequestRevision {
		return "request revision for"
	}
	return string(a)
}
