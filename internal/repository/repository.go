package repository

import (
	"context"
	"time"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

// UserRepository defines the interface for account data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByNickName finds a user by display handle
	FindByNickName(ctx context.Context, nickName string) (*models.User, error)

	// Update saves profile fields of a user
	Update(ctx context.Context, user *models.User) error

	// RecordLoginFailure atomically increments the failure counter and, when the
	// new count reaches threshold and no lock is active at now, sets locked_until
	// to lockUntil. It returns the updated user.
	RecordLoginFailure(ctx context.Context, userID uint64, threshold int, lockUntil, now time.Time) (*models.User, error)

	// ResetLoginFailures clears the failure counter and any lock
	ResetLoginFailures(ctx context.Context, userID uint64) error
}

// WorkspaceRepository defines the interface for workspace data access
type WorkspaceRepository interface {
	// CreateWithOwner creates a workspace and its owner membership in one transaction
	CreateWithOwner(ctx context.Context, workspace *models.Workspace, owner *models.WorkspaceMember) error

	// FindByID finds a workspace by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Workspace, error)

	// FindByName finds a workspace by its unique name
	FindByName(ctx context.Context, name string) (*models.Workspace, error)

	// Update updates a workspace
	Update(ctx context.Context, workspace *models.Workspace) error

	// Delete deletes a workspace and everything under it, returning the
	// storage paths of removed attachments
	Delete(ctx context.Context, id uint64) ([]string, error)

	// FindMember finds a specific workspace member
	FindMember(ctx context.Context, workspaceID, userID uint64) (*models.WorkspaceMember, error)

	// RemoveMember removes a member from a workspace
	RemoveMember(ctx context.Context, workspaceID, userID uint64) error

	// ListMembers lists members of a workspace, page by page
	ListMembers(ctx context.Context, workspaceID uint64, page utils.PaginationParams) ([]models.WorkspaceMember, int64, error)

	// ListByUser lists the memberships of a user with their workspaces
	ListByUser(ctx context.Context, userID uint64) ([]models.WorkspaceMember, error)

	// CountMembers counts members per workspace
	CountMembers(ctx context.Context, workspaceIDs ...uint64) (map[uint64]int64, error)
}

// CourseRepository defines the interface for course data access
type CourseRepository interface {
	// CreateWithManager creates a course and its creator's Manager membership in one transaction
	CreateWithManager(ctx context.Context, course *models.Course, manager *models.CourseMember) error

	// FindByID finds a course by ID
	FindByID(ctx context.Context, id uint64) (*models.Course, error)

	// Update updates a course
	Update(ctx context.Context, course *models.Course) error

	// Delete deletes a course and everything under it, returning the
	// storage paths of removed attachments
	Delete(ctx context.Context, id uint64) ([]string, error)

	// ListByWorkspace lists courses of a workspace, page by page
	ListByWorkspace(ctx context.Context, workspaceID uint64, page utils.PaginationParams) ([]models.Course, int64, error)

	// FindMember finds a specific course member
	FindMember(ctx context.Context, courseID, userID uint64) (*models.CourseMember, error)

	// ListMembers lists all members of a course with their accounts
	ListMembers(ctx context.Context, courseID uint64) ([]models.CourseMember, error)

	// ListUserRoles returns the caller's role in each of the given courses they belong to
	ListUserRoles(ctx context.Context, userID uint64, courseIDs []uint64) (map[uint64]models.CourseRole, error)

	// CountMembersAmong counts how many of userIDs are members of the course
	CountMembersAmong(ctx context.Context, courseID uint64, userIDs []uint64) (int64, error)
}

// TaskRepository defines the interface for module and task data access
type TaskRepository interface {
	// CreateModule creates a module
	CreateModule(ctx context.Context, module *models.Module) error

	// FindModule finds a module inside a course
	FindModule(ctx context.Context, courseID, moduleID uint64) (*models.Module, error)

	// UpdateModule updates a module
	UpdateModule(ctx context.Context, module *models.Module) error

	// DeleteModule deletes a module with its tasks
	DeleteModule(ctx context.Context, moduleID uint64) ([]string, error)

	// ListModules lists the modules of a course in display order
	ListModules(ctx context.Context, courseID uint64) ([]models.Module, error)

	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task inside a course
	FindByID(ctx context.Context, courseID, taskID uint64) (*models.Task, error)

	// Update updates a task
	Update(ctx context.Context, task *models.Task) error

	// Delete deletes a task with its products, guide, prompts and comments,
	// returning the storage paths of removed attachments
	Delete(ctx context.Context, taskID uint64) ([]string, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ModuleID uint64
	Status   *models.TaskStatus
	Page     utils.PaginationParams
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// CreateWithMembers creates a team and its members in one transaction
	CreateWithMembers(ctx context.Context, team *models.Team, members []models.TeamMember) error

	// FindByID finds a team by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Team, error)

	// Update updates a team
	Update(ctx context.Context, team *models.Team) error

	// Delete deletes a team and its work
	Delete(ctx context.Context, id uint64) error

	// ListByCourse lists the teams of a course with members
	ListByCourse(ctx context.Context, courseID uint64) ([]models.Team, error)

	// FindMember finds a specific team member
	FindMember(ctx context.Context, teamID, userID uint64) (*models.TeamMember, error)

	// UpsertMember adds a member or changes their role
	UpsertMember(ctx context.Context, member *models.TeamMember) error

	// RemoveMember removes a member from a team
	RemoveMember(ctx context.Context, teamID, userID uint64) error

	// ExportTasks creates a team task for every team and task pair that does
	// not have one yet, and returns how many were created
	ExportTasks(ctx context.Context, teamIDs, taskIDs []uint64) (int64, error)

	// FindTeamTask finds a team task belonging to a team
	FindTeamTask(ctx context.Context, teamID, teamTaskID uint64) (*models.TeamTask, error)

	// FindTeamTaskOfTask finds a team task by ID among the copies of taskID
	FindTeamTaskOfTask(ctx context.Context, taskID, teamTaskID uint64) (*models.TeamTask, error)

	// ListTeamTasks lists a team's tasks with the task preloaded
	ListTeamTasks(ctx context.Context, teamID uint64) ([]models.TeamTask, error)
}

// InviteRepository defines the interface for invite token data access
type InviteRepository interface {
	// Create creates an invite token
	Create(ctx context.Context, invite *models.InviteToken) error

	// FindByToken finds an invite by its token string
	FindByToken(ctx context.Context, token string) (*models.InviteToken, error)

	// Redeem consumes one use of the token and grants userID the invite's role
	// in its scope. Both writes happen in one transaction.
	Redeem(ctx context.Context, token string, userID uint64, now time.Time) (*models.InviteToken, error)
}

// WorkItem identifies the owner of a product: a task, or a team's copy of it.
type WorkItem struct {
	TaskID     uint64
	TeamTaskID uint64
}

// ProductChange is one lifecycle step applied to a product.
type ProductChange struct {
	Item        WorkItem
	From        models.TaskStatus
	To          models.TaskStatus
	Updates     map[string]interface{}
	BumpVersion bool
	Snapshot    *models.ProductVersion
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	// Find finds the product of a work item
	Find(ctx context.Context, item WorkItem) (*models.Product, error)

	// Apply performs a status change conditioned on the product still being in
	// change.From. It returns ErrStaleProduct when another request got there first.
	Apply(ctx context.Context, change ProductChange) (*models.Product, error)

	// ListVersions lists saved versions, newest first
	ListVersions(ctx context.Context, productID uint64, page utils.PaginationParams) ([]models.ProductVersion, int64, error)
}

// GuideRepository defines the interface for guide data access
type GuideRepository interface {
	// FindByTask finds the guide of a task with attachments
	FindByTask(ctx context.Context, taskID uint64) (*models.Guide, error)

	// Upsert writes the guide content of a task
	Upsert(ctx context.Context, taskID uint64, content string, editorID uint64) (*models.Guide, error)

	// Ensure returns the guide of a task, creating an empty one if needed
	Ensure(ctx context.Context, taskID uint64) (*models.Guide, error)

	// CreateAttachment creates an attachment record
	CreateAttachment(ctx context.Context, attachment *models.Attachment) error

	// FindAttachment finds an attachment of a guide
	FindAttachment(ctx context.Context, guideID, attachmentID uint64) (*models.Attachment, error)

	// DeleteAttachment deletes an attachment record
	DeleteAttachment(ctx context.Context, attachmentID uint64) error
}

// PromptRepository defines the interface for prompt conversation data access
type PromptRepository interface {
	// Create stores a prompt and its answer
	Create(ctx context.Context, prompt *models.PromptConversation) error

	// FindByID finds a prompt by ID with its feedback
	FindByID(ctx context.Context, id uint64) (*models.PromptConversation, error)

	// List lists a user's prompts for a work item, newest first
	List(ctx context.Context, item WorkItem, userID uint64, page utils.PaginationParams) ([]models.PromptConversation, int64, error)

	// SaveFeedback creates or replaces the feedback of a prompt
	SaveFeedback(ctx context.Context, feedback *models.PromptFeedback) error
}

// CommentFilter holds filtering options for listing comments
type CommentFilter struct {
	Item         WorkItem
	TabType      *models.TabType
	PromptUserID *uint64
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a comment with its mentions in one transaction
	Create(ctx context.Context, comment *models.Comment, mentionIDs []uint64) error

	// FindByID finds a comment by ID
	FindByID(ctx context.Context, id uint64) (*models.Comment, error)

	// List lists the comments of a work item in posting order
	List(ctx context.Context, filter CommentFilter) ([]models.Comment, error)

	// UpdateText replaces the text of a comment and marks it edited
	UpdateText(ctx context.Context, id uint64, text string) error

	// Delete soft deletes a comment
	Delete(ctx context.Context, id uint64) error
}
