package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/metrics"
	"github.com/yukikurage/learning-platform-api/internal/middleware"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth       *services.AuthService
	Access     *services.AccessService
	Users      *services.UserService
	Workspaces *services.WorkspaceService
	Invites    *services.InviteService
	Courses    *services.CourseService
	Tasks      *services.TaskService
	Teams      *services.TeamService
	Guides     *services.GuideService
	Prompts    *services.PromptService
	Products   *services.ProductService
	Comments   *services.CommentService
}

// NewRouter wires every route of the API onto a new gin engine.
func NewRouter(svc Services, m *metrics.Metrics, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), m.Middleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Learning Platform API is running",
		})
	})
	r.GET("/metrics", m.Handler())

	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users)
	workspaceHandler := NewWorkspaceHandler(svc.Workspaces)
	inviteHandler := NewInviteHandler(svc.Invites)
	courseHandler := NewCourseHandler(svc.Courses)
	taskHandler := NewTaskHandler(svc.Tasks)
	teamHandler := NewTeamHandler(svc.Teams)
	guideHandler := NewGuideHandler(svc.Guides)
	promptHandler := NewPromptHandler(svc.Prompts)
	productHandler := NewProductHandler(svc.Products)
	commentHandler := NewCommentHandler(svc.Comments)
	items := NewWorkItems(svc.Tasks, svc.Teams)

	requireAuth := middleware.RequireAuth(svc.Auth)
	access := svc.Access

	wsMember := middleware.RequireWorkspaceRole(access)
	wsOwner := middleware.RequireWorkspaceRole(access, models.WorkspaceRoleOwner)
	courseMember := middleware.RequireCourseRole(access)
	courseExpert := middleware.RequireCourseRole(access, models.CourseRoleExpert)
	courseManager := middleware.RequireCourseRole(access, models.CourseRoleManager)
	courseWorker := middleware.RequireCourseRole(access, models.CourseRoleParticipant, models.CourseRoleExpert)
	teamMember := middleware.RequireTeamAccess(access)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/google-login", authHandler.GoogleLogin)
			auth.POST("/google-signup-complete", authHandler.GoogleSignupComplete)
			auth.POST("/password-reset", authHandler.RequestPasswordReset)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		api.GET("/invites/:token", inviteHandler.PreviewInvite)
		api.POST("/invites/:token/redeem", requireAuth, inviteHandler.RedeemInvite)

		users := api.Group("/users/me", requireAuth)
		{
			users.GET("", userHandler.GetProfile)
			users.PUT("", userHandler.UpdateProfile)
			users.POST("/profile-image", userHandler.UploadProfileImage)
		}

		workspaces := api.Group("/workspaces", requireAuth)
		{
			workspaces.POST("", workspaceHandler.CreateWorkspace)
			workspaces.GET("", workspaceHandler.ListWorkspaces)

			ws := workspaces.Group("/:workspace_id")
			ws.GET("", wsMember, workspaceHandler.GetWorkspace)
			ws.PUT("", wsOwner, workspaceHandler.UpdateWorkspace)
			ws.DELETE("", wsOwner, workspaceHandler.DeleteWorkspace)
			ws.GET("/members", wsMember, workspaceHandler.ListMembers)
			ws.DELETE("/members/:user_id", wsOwner, workspaceHandler.RemoveMember)
			ws.POST("/invites", wsOwner, inviteHandler.CreateWorkspaceInvite)
			ws.POST("/courses", wsMember, courseHandler.CreateCourse)
			ws.GET("/courses", wsMember, courseHandler.ListCourses)
		}

		course := api.Group("/courses/:course_id", requireAuth)
		{
			course.GET("", courseMember, courseHandler.GetCourse)
			course.PUT("", courseManager, courseHandler.UpdateCourse)
			course.DELETE("", courseManager, courseHandler.DeleteCourse)
			course.GET("/members", courseMember, courseHandler.ListMembers)
			course.POST("/invites", courseExpert, inviteHandler.CreateCourseInvite)

			// Modules and tasks
			course.POST("/modules", courseExpert, taskHandler.CreateModule)
			course.GET("/modules", courseMember, taskHandler.ListModules)
			course.PUT("/modules/:module_id", courseExpert, taskHandler.UpdateModule)
			course.DELETE("/modules/:module_id", courseManager, taskHandler.DeleteModule)
			course.POST("/modules/:module_id/tasks", courseExpert, taskHandler.CreateTask)
			course.GET("/modules/:module_id/tasks", courseMember, taskHandler.ListTasks)
			course.POST("/modules/:module_id/export", courseExpert, teamHandler.ExportModule)
			course.GET("/tasks/:task_id", courseMember, taskHandler.GetTask)
			course.PUT("/tasks/:task_id", courseExpert, taskHandler.UpdateTask)
			course.DELETE("/tasks/:task_id", courseManager, taskHandler.DeleteTask)

			// Teams
			course.POST("/teams", courseExpert, teamHandler.CreateTeam)
			course.GET("/teams", courseMember, teamHandler.ListTeams)
			course.GET("/teams/:team_id", teamMember, teamHandler.GetTeam)
			course.PUT("/teams/:team_id", courseExpert, teamHandler.UpdateTeam)
			course.DELETE("/teams/:team_id", courseManager, teamHandler.DeleteTeam)
			course.PUT("/teams/:team_id/members", courseExpert, teamHandler.SetMember)
			course.DELETE("/teams/:team_id/members/:user_id", courseExpert, teamHandler.RemoveMember)
			course.GET("/teams/:team_id/tasks", teamMember, teamHandler.ListTeamTasks)

			// Guide
			guide := course.Group("/tasks/:task_id/guide")
			guide.GET("", courseMember, items.Individual(), guideHandler.GetGuide)
			guide.PUT("", courseExpert, items.Individual(), guideHandler.UpdateGuide)
			guide.POST("/attachments", courseExpert, items.Individual(), guideHandler.AddAttachment)
			guide.DELETE("/attachments/:attachment_id", courseExpert, items.Individual(), guideHandler.DeleteAttachment)

			// Comments
			comments := course.Group("/tasks/:task_id/comments", courseMember, items.Commented())
			comments.GET("", commentHandler.ListComments)
			comments.POST("", commentHandler.CreateComment)
			comments.PUT("/:comment_id", commentHandler.UpdateComment)
			comments.DELETE("/:comment_id", commentHandler.DeleteComment)

			// Individual work
			individual := course.Group("/tasks/:task_id")
			registerPrompts(individual.Group("/prompts", courseWorker, items.Individual()), promptHandler)
			registerProduct(individual.Group("/product", courseMember, items.Individual()), productHandler)

			// Team work
			team := course.Group("/teams/:team_id/tasks/:team_task_id", teamMember, items.Team())
			registerPrompts(team.Group("/prompts"), promptHandler)
			registerProduct(team.Group("/product"), productHandler)
		}
	}

	return r
}

func registerPrompts(g *gin.RouterGroup, h *PromptHandler) {
	g.POST("", h.Ask)
	g.GET("", h.ListPrompts)
	g.POST("/:prompt_id/feedback", h.Evaluate)
}

// Who may fire each transition is decided by the lifecycle, not the route.
func registerProduct(g *gin.RouterGroup, h *ProductHandler) {
	g.GET("", h.GetProduct)
	g.PUT("", h.Save)
	g.POST("/start", h.Start)
	g.POST("/submit", h.Submit)
	g.POST("/review", h.Review)
	g.GET("/versions", h.ListVersions)
}
