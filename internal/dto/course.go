package dto

import (
	"time"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// CourseDTO represents a course in API responses. MyRole is omitted for
// workspace members who have not joined the course.
type CourseDTO struct {
	ID          uint64              `json:"id"`
	WorkspaceID uint64              `json:"workspace_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      models.CourseStatus `json:"status"`
	StartDate   *time.Time          `json:"start_date"`
	EndDate     *time.Time          `json:"end_date"`
	CreatedBy   uint64              `json:"created_by"`
	MyRole      *models.CourseRole  `json:"my_role,omitempty"`
	MemberCount int64               `json:"member_count"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type CourseMemberDTO struct {
	User     UserSummaryDTO    `json:"user"`
	Role     models.CourseRole `json:"role"`
	JoinedAt time.Time         `json:"joined_at"`
}

// CourseRequest is used for both create and update; absent fields are left alone.
type CourseRequest struct {
	Name        *string              `json:"name" binding:"omitempty,max=100"`
	Description *string              `json:"description"`
	Status      *models.CourseStatus `json:"status"`
	StartDate   *time.Time           `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
}

func (r CourseRequest) Input() services.CourseInput {
	return services.CourseInput{
		Name:        r.Name,
		Description: r.Description,
		Status:      r.Status,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
}

// ToCourseDTO converts a course view to CourseDTO
func ToCourseDTO(view services.CourseView) CourseDTO {
	course := view.Course
	return CourseDTO{
		ID:          course.ID,
		WorkspaceID: course.WorkspaceID,
		Name:        course.Name,
		Description: course.Description,
		Status:      course.Status,
		StartDate:   course.StartDate,
		EndDate:     course.EndDate,
		CreatedBy:   course.CreatedBy,
		MyRole:      view.MyRole,
		MemberCount: view.MemberCount,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}

func ToCourseDTOs(views []services.CourseView) []CourseDTO {
	out := make([]CourseDTO, len(views))
	for i, v := range views {
		out[i] = ToCourseDTO(v)
	}
	return out
}

func ToCourseMemberDTOs(members []models.CourseMember) []CourseMemberDTO {
	out := make([]CourseMemberDTO, len(members))
	for i, m := range members {
		out[i] = CourseMemberDTO{
			User:     ToUserSummaryDTO(m.User),
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
	}
	return out
}
