package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/yigit/huddle/internal/app/bot"
	appControllers "github.com/yigit/huddle/internal/app/controllers"
	"github.com/yigit/huddle/internal/app/jobs"
	appMigrations "github.com/yigit/huddle/internal/app/migrations"
	"github.com/yigit/huddle/internal/app/notifications"
	appRepos "github.com/yigit/huddle/internal/app/repositories"
	appRoutes "github.com/yigit/huddle/internal/app/routes"
	"github.com/yigit/huddle/internal/app/scheduler"
	appServices "github.com/yigit/huddle/internal/app/services"
	"github.com/yigit/huddle/internal/config"
	"github.com/yigit/huddle/internal/db"
	appMiddleware "github.com/yigit/huddle/internal/middleware"
	pkgAuth "github.com/yigit/huddle/internal/pkg/auth"
	"github.com/yigit/huddle/internal/pkg/delayqueue"
	"github.com/yigit/huddle/internal/pkg/helpers"
	"github.com/yigit/huddle/internal/pkg/logger"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	WorkspaceService    appServices.WorkspaceService  // Interface type
	EventService        appServices.EventService      // Interface type
	AttendanceService   appServices.AttendanceService // Interface type
	EventController     *appControllers.EventController
	WorkspaceController *appControllers.WorkspaceController
	TelegramController  *appControllers.TelegramController
	AuthMiddleware      *appMiddleware.AuthMiddleware
	Repos               *appRepos.Repositories
	JWTService          *pkgAuth.JWTService
	Queue               *delayqueue.Queue
	Worker              *delayqueue.Worker
	Scheduler           *scheduler.JobScheduler
	Dispatcher          *notifications.Dispatcher
	Bot                 *bot.Bot
	TelegramAPI         *tgbotapi.BotAPI
	Logger              zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.ParseConfig(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", strings.ToLower(cfg.Logging.Level)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
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

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return database, nil
}

// SetupRedis connects the client backing sessions and the job queue.
func SetupRedis(cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to ping redis")
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection successfully established.")
	return rdb, nil
}

// SetupTelegram authenticates against the Bot API.
func SetupTelegram(cfg *config.Config, lgr zerolog.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to authorize Telegram bot")
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	api.Debug = cfg.Telegram.Debug

	lgr.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")
	return api, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, rdb redis.UniversalClient, api *tgbotapi.BotAPI, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr, TelegramAPI: api}
	loc := cfg.Telegram.Location
	if loc == nil {
		loc = helpers.LoadLocation(cfg.Telegram.Timezone)
	}

	deps.Repos = appRepos.NewRepositories(database.Pool)

	deps.Queue = delayqueue.New(rdb, cfg.Scheduler.QueuePrefix)
	deps.Scheduler = scheduler.New(deps.Queue, cfg.Scheduler.ReminderLead, lgr.With().Str("component", "scheduler").Logger())

	deps.Dispatcher = notifications.NewDispatcher(
		api,
		deps.Repos.EventRepository,
		deps.Repos.ParticipantRepository,
		deps.Repos.TelegramGroupRepository,
		loc,
		lgr.With().Str("component", "notifications").Logger(),
	)

	deps.WorkspaceService = appServices.NewWorkspaceService(
		database,
		deps.Repos.UserRepository,
		deps.Repos.WorkspaceRepository,
		deps.Repos.TelegramGroupRepository,
		lgr,
	)
	deps.EventService = appServices.NewEventService(
		database,
		deps.Repos.EventRepository,
		deps.Repos.ParticipantRepository,
		deps.Repos.WorkspaceRepository,
		deps.Dispatcher,
		deps.Scheduler,
		lgr,
	)
	deps.AttendanceService = appServices.NewAttendanceService(
		deps.Repos.EventRepository,
		deps.Repos.ParticipantRepository,
		deps.Repos.AttendanceRepository,
		deps.WorkspaceService,
		deps.Repos.WorkspaceRepository,
		lgr,
	)

	deps.Worker = delayqueue.NewWorker(deps.Queue, delayqueue.WorkerConfig{
		PollInterval: cfg.Scheduler.PollInterval,
		BatchSize:    cfg.Scheduler.BatchSize,
	}, lgr.With().Str("component", "worker").Logger())
	jobs.NewHandlers(
		deps.Repos.EventRepository,
		deps.EventService,
		deps.Dispatcher,
		lgr.With().Str("component", "jobs").Logger(),
	).Register(deps.Worker)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:    cfg.JWT.Secret,
		FormTokenExp: helpers.ParseDuration(cfg.JWT.FormTokenExpiration, 30*time.Minute),
		TokenIssuer:  cfg.JWT.Issuer,
	})

	deps.Bot = bot.New(
		api,
		deps.EventService,
		deps.WorkspaceService,
		deps.AttendanceService,
		bot.NewSessionStore(rdb, cfg.Redis.SessionTTL),
		deps.JWTService,
		bot.Options{
			Username: api.Self.UserName,
			FormURL:  cfg.Telegram.FormURL,
			Location: loc,
		},
		lgr.With().Str("component", "bot").Logger(),
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.WorkspaceService)

	deps.EventController = appControllers.NewEventController(deps.EventService)
	deps.WorkspaceController = appControllers.NewWorkspaceController(deps.WorkspaceService)
	if cfg.Telegram.Mode == config.TelegramModeWebhook {
		deps.TelegramController = appControllers.NewTelegramController(deps.Bot, cfg.Telegram.WebhookSecret, lgr.With().Str("component", "webhook").Logger())
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(lgr))

	appRoutes.SetupSwagger(router)

	appRoutes.SetupRouter(router,
		deps.EventController,
		deps.WorkspaceController,
		deps.TelegramController,
		deps.AuthMiddleware,
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}

// StartTelegram begins receiving updates. In webhook mode it registers the webhook and the
// HTTP route does the rest; in polling mode it long-polls until ctx is done.
func StartTelegram(ctx context.Context, cfg *config.Config, deps *Dependencies) error {
	api := deps.TelegramAPI
	lgr := deps.Logger

	if cfg.Telegram.Mode == config.TelegramModeWebhook {
		params := tgbotapi.Params{"url": cfg.Telegram.WebhookURL}
		params.AddNonEmpty("secret_token", cfg.Telegram.WebhookSecret)
		if err := params.AddInterface("allowed_updates", cfg.Telegram.AllowedUpdates); err != nil {
			return fmt.Errorf("failed to encode allowed updates: %w", err)
		}
		if _, err := api.MakeRequest("setWebhook", params); err != nil {
			return fmt.Errorf("failed to set telegram webhook: %w", err)
		}
		lgr.Info().Str("url", cfg.Telegram.WebhookURL).Msg("Telegram webhook registered")
		return nil
	}

	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		lgr.Warn().Err(err).Msg("Failed to delete telegram webhook before polling")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = cfg.Telegram.AllowedUpdates
	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()
	go deps.Bot.Poll(ctx, updates)

	lgr.Info().Msg("Telegram long polling started")
	return nil
}
