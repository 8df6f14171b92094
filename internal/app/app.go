package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ludilearn_backend/internal/config"
	"ludilearn_backend/internal/controller"
	"ludilearn_backend/internal/lms"
	"ludilearn_backend/internal/middleware"
	"ludilearn_backend/internal/repository"
	"ludilearn_backend/internal/service"
	"ludilearn_backend/pkg/configwatcher"
	"ludilearn_backend/pkg/database"
	"ludilearn_backend/pkg/logger"
	"ludilearn_backend/pkg/monitoring"
	"ludilearn_backend/pkg/security"
	"ludilearn_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	element     *repository.GameElementRepository
	attribution *repository.AttributionRepository
	parameter   *repository.ParameterRepository
	profile     *repository.ProfileRepository
	report      *repository.ReportRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	attribution *service.AttributionService
	element     *service.ElementService
	refresh     *service.RefreshService
	profile     *service.ProfileService
	report      *service.ReportService
}

type controllers struct {
	auth          *controller.AuthController
	element       *controller.ElementController
	settings      *controller.SettingsController
	questionnaire *controller.QuestionnaireController
	report        *controller.ReportController
	event         *controller.EventController
	health        *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		element:     repository.NewGameElementRepository(db),
		attribution: repository.NewAttributionRepository(db),
		parameter:   repository.NewParameterRepository(db),
		profile:     repository.NewProfileRepository(db),
		report:      repository.NewReportRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	provider := lms.NewClient(&cfg.LMS)

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.attribution = service.NewAttributionService(repos.course, repos.element, repos.attribution, repos.parameter, repos.profile, provider)
	s.element = service.NewElementService(repos.course, repos.element, repos.attribution, repos.parameter, s.attribution, provider, rdb)
	s.refresh = service.NewRefreshService(repos.course, repos.element, repos.attribution, repos.parameter, s.attribution, s.element)
	s.profile = service.NewProfileService(repos.profile, repos.course, s.attribution)
	s.report = service.NewReportService(repos.course, repos.report, rdb)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:          controller.NewAuthController(s.auth),
		element:       controller.NewElementController(s.element, s.storage),
		settings:      controller.NewSettingsController(s.attribution, s.refresh),
		questionnaire: controller.NewQuestionnaireController(s.profile),
		report:        controller.NewReportController(s.report),
		event:         controller.NewEventController(s.refresh),
		health:        controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("ludilearn-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/assets", cfg.Storage.LocalPath)
	}

	go configwatcher.WatchConfig(filepath.Join("configs", "config.yaml"), cfg, func(raw interface{}) {
		newCfg, ok := raw.(*config.Config)
		if !ok {
			return
		}
		app.Config = newCfg
		for _, callback := range app.configCallbacks {
			callback(newCfg)
		}
		logger.Log.Info("Configuration reloaded")
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
