package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/haierkeys/unified-backup-service/internal/checker"
	"github.com/haierkeys/unified-backup-service/internal/dao"
	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/internal/dump"
	"github.com/haierkeys/unified-backup-service/internal/notify"
	"github.com/haierkeys/unified-backup-service/internal/poller"
	"github.com/haierkeys/unified-backup-service/internal/relay"
	"github.com/haierkeys/unified-backup-service/internal/report"
	"github.com/haierkeys/unified-backup-service/internal/scheduler"
	"github.com/haierkeys/unified-backup-service/internal/task"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the application container holding all wired components.
type App struct {
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// Repository layer
	StorageRepo    domain.StorageRepository
	TaskRepo       domain.TaskRepository
	AgentRepo      domain.AgentRepository
	FolderTaskRepo domain.FolderTaskRepository
	ReportRepo     domain.ReportRepository
	SettingRepo    domain.SettingRepository

	// Core components
	Executor  *dump.Executor
	Scheduler *scheduler.Scheduler
	Poller    *poller.Poller
	Checker   *checker.Checker
	Reports   *report.Scheduler
	Relay     *relay.Relay
	Notifier  *notify.SettingsNotifier

	taskManager *task.Manager

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewApp creates the application container, wiring every dependency.
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		shutdownCh: make(chan struct{}),
	}

	a.Dao = dao.New(db, logger)

	a.StorageRepo = dao.NewStorageRepository(a.Dao)
	a.TaskRepo = dao.NewTaskRepository(a.Dao)
	a.AgentRepo = dao.NewAgentRepository(a.Dao)
	a.FolderTaskRepo = dao.NewFolderTaskRepository(a.Dao)
	a.ReportRepo = dao.NewReportRepository(a.Dao)
	a.SettingRepo = dao.NewSettingRepository(a.Dao)

	a.Notifier = notify.NewSettingsNotifier(a.SettingRepo, cfg.Notify.WebhookURL, logger)

	a.Executor = dump.NewExecutor(dump.Config{
		EncryptionKey: cfg.Security.EncryptionKey,
		TempPath:      cfg.Backup.TempPath,
		Namespace:     cfg.Backup.Namespace,
		DumpTool:      cfg.Backup.DumpTool,
		RestoreTool:   cfg.Backup.RestoreTool,
		SQLTool:       cfg.Backup.SQLTool,
	}, dump.ExecRunner{}, logger)

	retention := scheduler.NewRetention(a.TaskRepo, cfg.Backup.Namespace, logger)
	a.Scheduler = scheduler.New(a.TaskRepo, a.StorageRepo, a.Executor, retention, logger)
	a.Poller = poller.New(a.AgentRepo, a.FolderTaskRepo, a.Notifier, logger)
	a.Checker = checker.New(a.StorageRepo, logger)
	a.Relay = relay.New(a.AgentRepo, a.FolderTaskRepo, a.StorageRepo, logger)

	generator := report.NewGenerator(a.AgentRepo, a.FolderTaskRepo, a.TaskRepo, logger)
	a.Reports = report.NewScheduler(a.ReportRepo, generator, a.Notifier, logger)

	a.taskManager = task.NewManager(logger)
	a.taskManager.RegisterTasks(task.Deps{
		Scheduler: a.Scheduler,
		Poller:    a.Poller,
		Reports:   a.Reports,
		Checker:   a.Checker,
		Relay:     a.Relay,
	}, task.Intervals{
		Resync:     cfg.GetResyncInterval(),
		Poll:       cfg.GetPollInterval(),
		Report:     cfg.GetReportInterval(),
		Check:      cfg.GetCheckInterval(),
		FolderSync: cfg.GetFolderSyncInterval(),
	})

	return a, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *AppConfig {
	return a.config
}

// Start launches the cron scheduler and all background loops.
func (a *App) Start() {
	a.Scheduler.Start()
	a.taskManager.Start()
	a.logger.Info("application started")
}

// Wait blocks until Shutdown is called.
func (a *App) Wait() {
	<-a.shutdownCh
}

// Shutdown stops all loops and closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.shutdownOnce.Do(func() {
		a.logger.Info("application stopping")

		a.taskManager.Stop()
		a.Scheduler.Stop()

		if sqlDB, dbErr := a.DB.DB(); dbErr == nil {
			err = sqlDB.Close()
		}

		close(a.shutdownCh)
		a.logger.Info("application stopped")
	})
	return err
}
