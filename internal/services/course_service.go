package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/storage"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

// CourseService provides business logic for course operations.
type CourseService struct {
	courses repository.CourseRepository
	blobs   storage.BlobStore
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewCourseService creates a new CourseService. blobs may be nil.
func NewCourseService(courses repository.CourseRepository, blobs storage.BlobStore, log logrus.FieldLogger) *CourseService {
	return &CourseService{
		courses: courses,
		blobs:   blobs,
		log:     log,
		now:     time.Now,
	}
}

// CourseView is a course as seen by one caller. MyRole is nil for workspace
// members who have not joined the course.
type CourseView struct {
	Course      *models.Course
	MyRole      *models.CourseRole
	MemberCount int64
}

// CourseInput holds the editable course fields. Nil fields are left unchanged on update.
type CourseInput struct {
	Name        *string
	Description *string
	Status      *models.CourseStatus
	StartDate   *time.Time
	EndDate     *time.Time
}

// CreateCourse creates a course in a workspace; the creator becomes its Manager.
func (s *CourseService) CreateCourse(ctx context.Context, workspaceID, creatorID uint64, input CourseInput) (*CourseView, error) {
	course := &models.Course{
		WorkspaceID: workspaceID,
		Status:      models.CourseStatusDraft,
		CreatedBy:   creatorID,
	}
	if err := applyCourseInput(course, input); err != nil {
		return nil, err
	}

	manager := &models.CourseMember{
		UserID:   creatorID,
		Role:     models.CourseRoleManager,
		JoinedAt: s.now(),
	}
	if err := s.courses.CreateWithManager(ctx, course, manager); err != nil {
		return nil, wrap(err, "create course")
	}

	role := models.CourseRoleManager
	return &CourseView{Course: course, MyRole: &role, MemberCount: 1}, nil
}

// ListCourses returns a page of a workspace's courses with the caller's role in each.
func (s *CourseService) ListCourses(ctx context.Context, workspaceID, userID uint64, page utils.PaginationParams) ([]CourseView, int64, error) {
	courses, total, err := s.courses.ListByWorkspace(ctx, workspaceID, page)
	if err != nil {
		return nil, 0, wrap(err, "list courses")
	}

	ids := make([]uint64, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	roles, err := s.courses.ListUserRoles(ctx, userID, ids)
	if err != nil {
		return nil, 0, wrap(err, "list course roles")
	}

	views := make([]CourseView, len(courses))
	for i := range courses {
		views[i] = CourseView{Course: &courses[i]}
		if role, ok := roles[courses[i].ID]; ok {
			role := role
			views[i].MyRole = &role
		}
	}
	return views, total, nil
}

// GetCourse returns the course detail for a resolved member.
func (s *CourseService) GetCourse(ctx context.Context, access *CourseAccess) (*CourseView, error) {
	members, err := s.courses.ListMembers(ctx, access.Course.ID)
	if err != nil {
		return nil, wrap(err, "list course members")
	}
	role := access.Role
	return &CourseView{Course: access.Course, MyRole: &role, MemberCount: int64(len(members))}, nil
}

// UpdateCourse changes the course fields present in input.
func (s *CourseService) UpdateCourse(ctx context.Context, access *CourseAccess, input CourseInput) (*CourseView, error) {
	if err := applyCourseInput(access.Course, input); err != nil {
		return nil, err
	}
	if err := s.courses.Update(ctx, access.Course); err != nil {
		return nil, wrap(err, "update course")
	}
	return s.GetCourse(ctx, access)
}

// DeleteCourse removes the course with its modules, tasks, teams and work.
func (s *CourseService) DeleteCourse(ctx context.Context, courseID uint64) error {
	paths, err := s.courses.Delete(ctx, courseID)
	if err != nil {
		return wrap(err, "delete course")
	}
	removeBlobs(ctx, s.blobs, s.log, paths)
	return nil
}

// ListMembers returns every member of the course.
func (s *CourseService) ListMembers(ctx context.Context, courseID uint64) ([]models.CourseMember, error) {
	members, err := s.courses.ListMembers(ctx, courseID)
	if err != nil {
		return nil, wrap(err, "list course members")
	}
	return members, nil
}

func applyCourseInput(course *models.Course, input CourseInput) error {
	if input.Name != nil {
		course.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		course.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return invalidField("status", "must be one of [draft active completed]")
		}
		course.Status = *input.Status
	}
	if input.StartDate != nil {
		course.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		course.EndDate = input.EndDate
	}
	if course.Name == "" {
		return invalidField("name", "is required")
	}
	if course.StartDate != nil && course.EndDate != nil && course.EndDate.Before(*course.StartDate) {
		return invalidField("end_date", "must not be before start_date")
	}
	return nil
}
