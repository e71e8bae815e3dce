package app

import (
	"form95/config"
	"form95/internal/database"
	"form95/internal/document"
	"form95/internal/events"
	"form95/internal/fieldmap"
	"form95/internal/handlers/middleware"
	"form95/internal/logger"
	"form95/internal/repositories"
	"form95/internal/services"
	"form95/internal/websockets"

	adminController "form95/internal/controllers/admin"
	submissionController "form95/internal/controllers/submission"
	userController "form95/internal/controllers/users"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Config     config.Config

	// Documents
	Mapper *fieldmap.Mapper
	Filler document.Filler
	Paths  document.Paths

	// Services
	TransactionService *services.TransactionService
	CacheInvalidation  *services.CacheInvalidationService
	SubmissionSessions *services.SubmissionSessions
	AuthSessions       *services.AuthSessions

	// Repositories
	UserRepo  repositories.UserRepository
	ClaimRepo repositories.ClaimRepository

	// Controllers
	UserController       *userController.UserController
	SubmissionController *submissionController.SubmissionController
	AdminController      *adminController.AdminController
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	return Build(db, config)
}

// Build wires the application around an open database.
func Build(db database.DB, config config.Config) (*App, error) {
	log := logger.New("app").Function("Build")

	eventBus := events.New(db.Cache.Events, config)

	// Initialize services
	transactionService := services.NewTransactionService(db)
	cacheInvalidation := services.NewCacheInvalidationService(eventBus, db.Cache.General)
	submissionSessions := services.NewSubmissionSessions(db.Cache.Session, config.SessionTTL)
	authSessions := services.NewAuthSessions(db.Cache.Session, config.SessionTTL)

	// Initialize repositories
	userRepo := repositories.NewUser(db)
	claimRepo := repositories.NewClaim(db)

	mapper := fieldmap.NewMapper()
	filler := document.NewFromConfig(config)
	paths := document.PathsFromConfig(config)

	// Initialize controllers with repositories and services
	userController := userController.New(userRepo, authSessions)
	submissionController := submissionController.New(
		mapper,
		filler,
		claimRepo,
		userRepo,
		submissionSessions,
		transactionService,
		cacheInvalidation,
		paths,
	)
	adminController := adminController.New(claimRepo, mapper, filler, cacheInvalidation, paths)
	middleware := middleware.New(config, userController)

	websocket, err := websockets.New(db, eventBus, config)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	if err := filler.Ready(); err != nil {
		log.Warn("document tool is not ready, documents will fail until it is installed", "error", err)
	}

	app := &App{
		Database:             db,
		Config:               config,
		Middleware:           middleware,
		Mapper:               mapper,
		Filler:               filler,
		Paths:                paths,
		TransactionService:   transactionService,
		CacheInvalidation:    cacheInvalidation,
		SubmissionSessions:   submissionSessions,
		AuthSessions:         authSessions,
		UserRepo:             userRepo,
		ClaimRepo:            claimRepo,
		UserController:       userController,
		SubmissionController: submissionController,
		AdminController:      adminController,
		Websocket:            websocket,
		EventBus:             eventBus,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.TransactionService,
		a.CacheInvalidation,
		a.SubmissionSessions,
		a.AuthSessions,
		a.UserController,
		a.SubmissionController,
		a.AdminController,
		a.Mapper,
		a.Filler,
		a.UserRepo,
		a.ClaimRepo,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.Websocket != nil {
		a.Websocket.Close()
	}

	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
