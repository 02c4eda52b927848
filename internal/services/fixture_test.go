package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/learning-platform-api/internal/metrics"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/testutil"
)

// stack wires every service over one in-memory database.
type stack struct {
	db        *gorm.DB
	metrics   *metrics.Metrics
	blobs     *testutil.BlobStore
	generator *fakeGenerator

	access     *AccessService
	workspaces *WorkspaceService
	courses    *CourseService
	tasks      *TaskService
	teams      *TeamService
	invites    *InviteService
	products   *ProductService
	guides     *GuideService
	prompts    *PromptService
	comments   *CommentService
	users      *UserService
}

func newStack(t *testing.T) *stack {
	db := testutil.NewDB(t)
	log := testutil.NewLogger()
	m := metrics.NewNop()
	blobs := testutil.NewBlobStore()
	gen := &fakeGenerator{}

	workspaceRepo := repository.NewWorkspaceRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	s := &stack{
		db:         db,
		metrics:    m,
		blobs:      blobs,
		generator:  gen,
		access:     NewAccessService(workspaceRepo, courseRepo, teamRepo),
		workspaces: NewWorkspaceService(workspaceRepo, blobs, log),
		courses:    NewCourseService(courseRepo, blobs, log),
		tasks:      NewTaskService(taskRepo, blobs, log),
		teams:      NewTeamService(teamRepo, courseRepo, taskRepo, log),
		products:   NewProductService(repository.NewProductRepository(db), m, log),
		guides:     NewGuideService(repository.NewGuideRepository(db), blobs, log),
		prompts:    NewPromptService(repository.NewPromptRepository(db), gen, m, log),
		comments:   NewCommentService(repository.NewCommentRepository(db), courseRepo),
		users:      NewUserService(repository.NewUserRepository(db), blobs, log),
	}
	s.invites = NewInviteService(repository.NewInviteRepository(db), s.workspaces, s.courses, s.access, m, log, "https://app.test/")
	s.invites.now = testutil.Clock(testutil.Now)
	s.products.now = testutil.Clock(testutil.Now)
	return s
}

// fakeGenerator answers every prompt with a fixed reply.
type fakeGenerator struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	Prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt, model string, _ GenerateOptions) (*Generation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Prompts = append(g.Prompts, prompt)
	if g.Err != nil {
		return nil, g.Err
	}
	if model == "" {
		model = "test-model"
	}
	return &Generation{
		Text:       g.Reply,
		TokensUsed: 42,
		Model:      model,
		Duration:   150 * time.Millisecond,
	}, nil
}
