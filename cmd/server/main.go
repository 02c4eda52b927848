package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/config"
	"github.com/yukikurage/learning-platform-api/internal/constants"
	"github.com/yukikurage/learning-platform-api/internal/database"
	"github.com/yukikurage/learning-platform-api/internal/handlers"
	"github.com/yukikurage/learning-platform-api/internal/identity"
	"github.com/yukikurage/learning-platform-api/internal/metrics"
	"github.com/yukikurage/learning-platform-api/internal/ratelimit"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/services"
	"github.com/yukikurage/learning-platform-api/internal/storage"
)

// Verified identities kept in memory between requests.
const identityCacheSize = 1024

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	configureLogger(log, cfg)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Identity provider
	var provider identity.Provider
	switch cfg.IdentityProvider {
	case "oidc":
		oidcProvider, err := identity.NewOIDCProvider(ctx, identity.OIDCConfig{
			IssuerURL:    cfg.OIDCIssuerURL,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize OIDC provider")
		}
		provider = oidcProvider
	default:
		local := identity.NewLocalProvider(db, identity.LocalConfig{
			Secret:          []byte(cfg.JWTSecret),
			AccessTokenTTL:  cfg.AccessTokenTTL,
			RefreshTokenTTL: cfg.RefreshTokenTTL,
			Issuer:          "learning-platform-api",
		}, log)
		if err := local.Migrate(); err != nil {
			log.WithError(err).Fatal("Failed to migrate credential store")
		}
		provider = local
	}
	cached := identity.NewCachingProvider(provider, identityCacheSize, cfg.IdentityCacheTTL)

	// Redis backs the password reset throttle; without it resets are not throttled.
	var resetLimiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		resetLimiter = ratelimit.NewLimiter(client, "password-reset", constants.PasswordResetInterval)
	} else {
		log.Warn("REDIS_ADDR not set, password reset requests are not throttled")
	}

	// Blob storage
	var blobs storage.BlobStore
	if cfg.S3Endpoint != "" || cfg.S3AccessKey != "" {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize blob storage")
		}
		blobs = store
	} else {
		log.Warn("Blob storage not configured, uploads are disabled")
	}

	// Initialize AI service
	var generator services.TextGenerator
	if cfg.OpenAIAPIKey != "" {
		generator = services.NewAIService(services.AIConfig{
			APIKey:             cfg.OpenAIAPIKey,
			BaseURL:            cfg.OpenAIBaseURL,
			DefaultModel:       cfg.OpenAIDefaultModel,
			DefaultTemperature: cfg.OpenAIDefaultTemperature,
			DefaultMaxTokens:   cfg.OpenAIDefaultMaxTokens,
		}, log)
	} else {
		log.Warn("OPENAI_API_KEY not set, prompt execution is disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Services
	svc := handlers.Services{
		Auth:       services.NewAuthService(userRepo, cached, resetLimiter, m, log),
		Access:     services.NewAccessService(workspaceRepo, courseRepo, teamRepo),
		Users:      services.NewUserService(userRepo, blobs, log),
		Workspaces: services.NewWorkspaceService(workspaceRepo, blobs, log),
		Courses:    services.NewCourseService(courseRepo, blobs, log),
		Tasks:      services.NewTaskService(taskRepo, blobs, log),
		Teams:      services.NewTeamService(teamRepo, courseRepo, taskRepo, log),
		Guides:     services.NewGuideService(repository.NewGuideRepository(db), blobs, log),
		Prompts:    services.NewPromptService(repository.NewPromptRepository(db), generator, m, log),
		Products:   services.NewProductService(repository.NewProductRepository(db), m, log),
		Comments:   services.NewCommentService(repository.NewCommentRepository(db), courseRepo),
	}
	if cfg.GoogleClientID != "" {
		google, err := identity.NewGoogleVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Google sign-in")
		}
		svc.Auth.WithSocialLogin(google, cached)
	} else {
		log.Info("GOOGLE_CLIENT_ID not set, Google sign-in is disabled")
	}
	svc.Invites = services.NewInviteService(repository.NewInviteRepository(db), svc.Workspaces, svc.Courses, svc.Access, m, log, cfg.FrontendURL)

	r := handlers.NewRouter(svc, m, log)

	// Start server
	log.WithField("port", cfg.Port).Info("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

func configureLogger(log *logrus.Logger, cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
