package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/examadmin/internal/app/auth"
	appControllers "github.com/yigit/examadmin/internal/app/controllers"
	appMigrations "github.com/yigit/examadmin/internal/app/migrations"
	appRepos "github.com/yigit/examadmin/internal/app/repositories"
	appRoutes "github.com/yigit/examadmin/internal/app/routes"
	appServices "github.com/yigit/examadmin/internal/app/services"
	"github.com/yigit/examadmin/internal/config"
	"github.com/yigit/examadmin/internal/db"
	appMiddleware "github.com/yigit/examadmin/internal/middleware"
	pkgAuth "github.com/yigit/examadmin/internal/pkg/auth"
	"github.com/yigit/examadmin/internal/pkg/cache"
	"github.com/yigit/examadmin/internal/pkg/email"
	"github.com/yigit/examadmin/internal/pkg/events"
	"github.com/yigit/examadmin/internal/pkg/filestorage"
	"github.com/yigit/examadmin/internal/pkg/helpers"
	"github.com/yigit/examadmin/internal/pkg/logger"
	"github.com/yigit/examadmin/internal/pkg/metrics"
	"github.com/yigit/examadmin/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	DB           *db.PostgresDB
	Repos        appServices.Repos
	Redis        *redis.Client // nil when redis is disabled or unreachable
	Publisher    events.Publisher
	Archive      filestorage.FileStorage
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService

	AuthService         *appServices.AuthService
	UserService         appServices.UserService
	StudentService      *appServices.StudentService
	CourseService       *appServices.CourseService
	StaffService        *appServices.StaffAssignmentService
	ExamService         *appServices.ExamService
	RegistrationService *appServices.RegistrationService
	CSVService          *appServices.CSVExchangeService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Logger         zerolog.Logger
}

// Close releases the broker connection and the redis client
func (d *Dependencies) Close() error {
	var errs []error
	if d.Publisher != nil {
		errs = append(errs, d.Publisher.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	return errors.Join(errs...)
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.GetEnv("CONFIG_PATH", filepath.Join("configs", "config.yaml"))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrations"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	repos := appServices.ReposFrom(appRepos.NewRepositories(database.Pool))
	if err := seed.CreateDefaultData(ctx, database, repos, pkgAuth.NewBcryptHasher(),
		seed.Options{Demo: cfg.Database.SeedDemoData}, logger.Component("seed")); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// SetupPublisher connects to RabbitMQ when enabled. Without a broker, password
// reset mails are sent inline by an InlinePublisher.
func SetupPublisher(cfg *config.Config, lgr zerolog.Logger) events.Publisher {
	if cfg.RabbitMQ.Enabled {
		pub, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger.Component("events"))
		if err == nil {
			lgr.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("Publishing events to RabbitMQ")
			return pub
		}
		lgr.Warn().Err(err).Msg("RabbitMQ unavailable; falling back to inline event handling")
	}

	inline := events.NewInlinePublisher(logger.Component("events"))
	inline.Subscribe(events.TypePasswordResetRequested, events.PasswordResetMailer(NewEmailService(cfg, lgr)))
	return inline
}

// NewEmailService builds the SMTP sender from the smtp config section
func NewEmailService(cfg *config.Config, lgr zerolog.Logger) email.EmailService {
	return email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		BaseURL:   cfg.SMTP.BaseURL,
	}, lgr.With().Str("component", "email").Logger())
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{DB: database, Logger: lgr}

	deps.Repos = appServices.ReposFrom(appRepos.NewRepositories(database.Pool))

	if cfg.Redis.Enabled {
		deps.Redis = cache.NewRedisClient(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, lgr)
	}

	deps.Publisher = SetupPublisher(cfg, lgr)

	deps.Archive = filestorage.NopStorage{}
	if path := cfg.Server.ImportArchivePath; path != "" {
		archive, err := filestorage.NewLocalStorage(path)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to initialize import archive")
			return nil, fmt.Errorf("failed to initialize import archive: %w", err)
		}
		deps.Archive = archive
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})
	hasher := pkgAuth.NewBcryptHasher()

	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.Assignments, deps.Repos.Exams)

	deps.AuthService = appServices.NewAuthService(
		database,
		deps.Repos,
		deps.JWTService,
		hasher,
		deps.Publisher,
		appServices.PasswordResetOptions{
			TTL:         cfg.PasswordReset.TokenTTL,
			ExposeToken: cfg.PasswordReset.ExposeToken,
		},
		logger.Component("auth"),
	)
	deps.UserService = appServices.NewUserService(database, deps.Repos, hasher, logger.Component("users"))
	deps.StudentService = appServices.NewStudentService(database, deps.Repos, logger.Component("students"))
	deps.StaffService = appServices.NewStaffAssignmentService(database, deps.Repos, logger.Component("staff"))
	deps.CourseService = appServices.NewCourseService(database, deps.Repos, deps.StaffService, logger.Component("courses"))
	deps.ExamService = appServices.NewExamService(database, deps.Repos, logger.Component("exams"))
	deps.RegistrationService = appServices.NewRegistrationService(database, deps.Repos, deps.Publisher, logger.Component("registrations"))
	deps.CSVService = appServices.NewCSVExchangeService(database, deps.Repos, hasher, deps.Archive, deps.Publisher, logger.Component("csv"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth:          appControllers.NewAuthController(deps.AuthService, lgr),
		Users:         appControllers.NewUserController(deps.UserService, deps.StaffService, deps.CSVService, lgr),
		Students:      appControllers.NewStudentController(deps.StudentService, deps.RegistrationService),
		Courses:       appControllers.NewCourseController(deps.CourseService, deps.StaffService, deps.CSVService, deps.AuthzService, lgr),
		Exams:         appControllers.NewExamController(deps.ExamService, deps.RegistrationService, deps.CSVService, deps.AuthzService, lgr),
		Registrations: appControllers.NewRegistrationController(deps.RegistrationService),
		Health:        appControllers.NewHealthController(database, deps.Redis),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(lgr))
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	appRoutes.SetupSwagger(router)
	router.GET("/metrics", metrics.Handler())

	var sensitive gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		sensitive = appMiddleware.RateLimit(deps.Redis, appMiddleware.RateLimitConfig{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
			Prefix:   cfg.RateLimit.Prefix,
		})
	}

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, sensitive)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	lgr.Info().Strs("corsOrigins", cfg.Server.CORSAllowedOrigins).Str("mode", strings.ToLower(cfg.Server.Mode)).Msg("Router configured")
	return router
}
