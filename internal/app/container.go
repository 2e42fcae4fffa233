// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/infra/config"
	"github.com/fieldlab/fieldops/internal/infra/jsonstore"
	"github.com/fieldlab/fieldops/internal/infra/logging"
	"github.com/fieldlab/fieldops/internal/infra/pgstore"
	"github.com/fieldlab/fieldops/internal/usecase"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// Config holds the application paths.
type Config struct {
	WorkDir string // Directory the CLI was started in
	DataDir string // Data directory (config, JSON store, logs)
}

// Repositories groups the repository ports of one backend.
type Repositories struct {
	Tasks         domain.TaskRepository
	History       domain.HistoryRepository
	Projects      domain.ProjectRepository
	Users         domain.UserRepository
	Notifications domain.NotificationRepository
	WorkPackages  domain.WorkPackageRepository
	Tx            domain.Transactor
	Init          domain.StoreInitializer

	CompressiveStrength domain.ReportRepository[domain.CompressiveStrengthData]
	Density             domain.ReportRepository[domain.DensityData]
	Proctor             domain.ReportRepository[domain.ProctorData]
	Rebar               domain.ReportRepository[domain.RebarData]
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	Repos         Repositories
	Clock         domain.Clock
	Logger        domain.Logger
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager

	// Pointer fields
	Diagnostics *slog.Logger
	AppConfig   *domain.Config
	Location    *time.Location

	dispatcher *shared.Dispatcher
	closers    []func()

	// Configuration
	Config Config
}

// New creates a new Container for the data directory resolved from dir.
func New(ctx context.Context, dir string, stderr io.Writer) (*Container, error) {
	if stderr == nil {
		stderr = os.Stderr
	}
	cfg := Config{WorkDir: dir, DataDir: config.ResolveDataDir(dir)}

	configLoader := config.NewLoader(cfg.DataDir)
	appConfig, err := configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := logging.ParseLevel(appConfig.Log.Level)
	diagnostics := logging.NewDiagnostics(stderr, level)
	for _, w := range appConfig.Warnings {
		diagnostics.Warn("config", "warning", w)
	}

	loc, err := appConfig.Schedule.Location()
	if err != nil {
		diagnostics.Warn("falling back to UTC", "error", err)
	}

	fileLogger := logging.New(cfg.DataDir, level)
	c := &Container{
		Clock:         domain.RealClock{},
		Logger:        fileLogger,
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManager(cfg.DataDir),
		Diagnostics:   diagnostics,
		AppConfig:     appConfig,
		Location:      loc,
		Config:        cfg,
	}
	c.closers = append(c.closers, func() { _ = fileLogger.Close() })

	repos, closeStore, err := openStore(ctx, appConfig.Store)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Repos = repos
	if closeStore != nil {
		c.closers = append(c.closers, closeStore)
	}

	c.dispatcher = shared.NewDispatcher(repos.Notifications, repos.Users, c.Clock, c.Logger, appConfig.Notify.Async)
	return c, nil
}

// openStore builds the repositories of the configured backend.
func openStore(ctx context.Context, sc domain.StoreConfig) (Repositories, func(), error) {
	switch sc.Driver {
	case domain.StoreDriverJSON, "":
		s := jsonstore.New(sc.Path)
		return Repositories{
			Tasks:               s.Tasks(),
			History:             s.History(),
			Projects:            s.Projects(),
			Users:               s.Users(),
			Notifications:       s.Notifications(),
			WorkPackages:        s.WorkPackages(),
			Tx:                  s,
			Init:                s,
			CompressiveStrength: jsonstore.NewReportRepository[domain.CompressiveStrengthData](s),
			Density:             jsonstore.NewReportRepository[domain.DensityData](s),
			Proctor:             jsonstore.NewReportRepository[domain.ProctorData](s),
			Rebar:               jsonstore.NewReportRepository[domain.RebarData](s),
		}, nil, nil
	case domain.StoreDriverPostgres:
		s, err := pgstore.Open(ctx, sc.DSN)
		if err != nil {
			return Repositories{}, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return Repositories{
			Tasks:               s.Tasks(),
			History:             s.History(),
			Projects:            s.Projects(),
			Users:               s.Users(),
			Notifications:       s.Notifications(),
			WorkPackages:        s.WorkPackages(),
			Tx:                  s,
			Init:                s,
			CompressiveStrength: pgstore.NewReportRepository[domain.CompressiveStrengthData](s),
			Density:             pgstore.NewReportRepository[domain.DensityData](s),
			Proctor:             pgstore.NewReportRepository[domain.ProctorData](s),
			Rebar:               pgstore.NewReportRepository[domain.RebarData](s),
		}, s.Close, nil
	default:
		return Repositories{}, nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedStoreDriver, sc.Driver)
	}
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, repos Repositories, appConfig *domain.Config, clock domain.Clock, logger domain.Logger) *Container {
	if appConfig == nil {
		appConfig = domain.NewDefaultConfig()
	}
	if logger == nil {
		logger = domain.NopLogger{}
	}
	loc, _ := appConfig.Schedule.Location()
	return &Container{
		Repos:         repos,
		Clock:         clock,
		Logger:        logger,
		ConfigLoader:  config.NewLoaderWithGlobalDir(cfg.DataDir, ""),
		ConfigManager: config.NewManagerWithGlobalDir(cfg.DataDir, ""),
		Diagnostics:   logging.NewDiagnostics(io.Discard, slog.LevelError),
		AppConfig:     appConfig,
		Location:      loc,
		dispatcher:    shared.NewDispatcher(repos.Notifications, repos.Users, clock, logger, appConfig.Notify.Async),
		Config:        cfg,
	}
}

// Close drains pending notifications and releases the store and log files.
func (c *Container) Close() {
	c.dispatcher.Wait()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Actor resolves the acting user by ID.
func (c *Container) Actor(ctx context.Context, userID string) (domain.Actor, error) {
	if userID == "" {
		return domain.Actor{}, fmt.Errorf("%w: acting user is required (use --as)", domain.ErrValidation)
	}
	user, err := c.Repos.Users.Get(ctx, userID)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return domain.Actor{}, domain.ErrUserNotFound
	}
	return user.Actor(), nil
}

func (c *Container) resolver() *shared.TenantResolver {
	return shared.NewTenantResolver(c.Repos.Tasks, c.Repos.WorkPackages)
}

// UseCase factory methods

// InitStoreUseCase returns a new InitStore use case.
func (c *Container) InitStoreUseCase() *usecase.InitStore {
	return usecase.NewInitStore(c.Repos.Init, c.Repos.Users, c.Logger)
}

// CreateUserUseCase returns a new CreateUser use case.
func (c *Container) CreateUserUseCase() *usecase.CreateUser {
	return usecase.NewCreateUser(c.Repos.Users, c.Logger)
}

// CreateProjectUseCase returns a new CreateProject use case.
func (c *Container) CreateProjectUseCase() *usecase.CreateProject {
	return usecase.NewCreateProject(c.Repos.Projects, c.Clock, c.Logger)
}

// ListProjectsUseCase returns a new ListProjects use case.
func (c *Container) ListProjectsUseCase() *usecase.ListProjects {
	return usecase.NewListProjects(c.Repos.Projects)
}

// NewTaskUseCase returns a new NewTask use case.
func (c *Container) NewTaskUseCase() *usecase.NewTask {
	return usecase.NewNewTask(c.Repos.Tx, c.Repos.Projects, c.Repos.Users, c.dispatcher, c.Clock, c.Logger)
}

// ListTasksUseCase returns a new ListTasks use case.
func (c *Container) ListTasksUseCase() *usecase.ListTasks {
	return usecase.NewListTasks(c.Repos.Tasks)
}

// ShowTaskUseCase returns a new ShowTask use case.
func (c *Container) ShowTaskUseCase() *usecase.ShowTask {
	return usecase.NewShowTask(c.Repos.Tasks, c.Repos.Projects, c.Repos.Users)
}

// EditTaskUseCase returns a new EditTask use case.
func (c *Container) EditTaskUseCase() *usecase.EditTask {
	return usecase.NewEditTask(c.Repos.Tx, c.Clock, c.Logger)
}

// SetStatusUseCase returns a new SetStatus use case.
func (c *Container) SetStatusUseCase() *usecase.SetStatus {
	return usecase.NewSetStatus(c.Repos.Tx, c.Repos.Projects, c.dispatcher, c.Clock, c.Logger)
}

// ReassignTaskUseCase returns a new ReassignTask use case.
func (c *Container) ReassignTaskUseCase() *usecase.ReassignTask {
	return usecase.NewReassignTask(c.Repos.Tx, c.Repos.Projects, c.dispatcher, c.Clock, c.Logger)
}

// MarkFieldCompleteUseCase returns a new MarkFieldComplete use case.
func (c *Container) MarkFieldCompleteUseCase() *usecase.MarkFieldComplete {
	return usecase.NewMarkFieldComplete(c.Repos.Tx, c.Clock, c.Logger)
}

// ReopenTaskUseCase returns a new ReopenTask use case.
func (c *Container) ReopenTaskUseCase() *usecase.ReopenTask {
	return usecase.NewReopenTask(c.Repos.Tx, c.Clock, c.Logger)
}

// GetHistoryUseCase returns a new GetHistory use case.
func (c *Container) GetHistoryUseCase() *usecase.GetHistory {
	return usecase.NewGetHistory(c.Repos.Tasks, c.Repos.History)
}

// ReportServices returns the report services of every kind.
func (c *Container) ReportServices() usecase.ReportServices {
	r := c.resolver()
	return usecase.ReportServices{
		CompressiveStrength: usecase.NewReportService(r, c.Repos.CompressiveStrength, c.Clock, c.Logger),
		Density:             usecase.NewReportService(r, c.Repos.Density, c.Clock, c.Logger),
		Proctor:             usecase.NewReportService(r, c.Repos.Proctor, c.Clock, c.Logger),
		Rebar:               usecase.NewReportService(r, c.Repos.Rebar, c.Clock, c.Logger),
	}
}

// ScheduleUseCase returns a new Schedule use case.
func (c *Container) ScheduleUseCase() *usecase.Schedule {
	return usecase.NewSchedule(c.Repos.Tasks, c.Clock, c.Location, c.AppConfig.Schedule.UpcomingDays)
}

// ListNotificationsUseCase returns a new ListNotifications use case.
func (c *Container) ListNotificationsUseCase() *usecase.ListNotifications {
	return usecase.NewListNotifications(c.Repos.Notifications)
}

// MarkNotificationReadUseCase returns a new MarkNotificationRead use case.
func (c *Container) MarkNotificationReadUseCase() *usecase.MarkNotificationRead {
	return usecase.NewMarkNotificationRead(c.Repos.Notifications)
}

// MigrateWorkPackagesUseCase returns a new MigrateWorkPackages use case.
func (c *Container) MigrateWorkPackagesUseCase() *usecase.MigrateWorkPackages {
	return usecase.NewMigrateWorkPackages(c.resolver(), c.Repos.WorkPackages, c.Repos.Projects, c.Repos.Tx, c.Clock, c.Logger)
}

// AuditHistoryUseCase returns a new AuditHistory use case.
func (c *Container) AuditHistoryUseCase() *usecase.AuditHistory {
	return usecase.NewAuditHistory(c.Repos.Tasks, c.Repos.History, c.Logger)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.AppConfig)
}

// ShowConfigTemplateUseCase returns a new ShowConfigTemplate use case.
func (c *Container) ShowConfigTemplateUseCase() *usecase.ShowConfigTemplate {
	return usecase.NewShowConfigTemplate()
}

// ShowLogsUseCase returns a new ShowLogs use case.
func (c *Container) ShowLogsUseCase() *usecase.ShowLogs {
	return usecase.NewShowLogs(c.Repos.Tasks, c.Config.DataDir)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}
