// Package scheduler keeps a live cron job set synchronized with the task
// catalog and executes database backup jobs as they fire.
package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/internal/dump"
	"github.com/haierkeys/unified-backup-service/pkg/logger"
	"github.com/haierkeys/unified-backup-service/pkg/storage"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BackupRunner executes one dump job against a resolved backend.
// *dump.Executor is the production implementation.
type BackupRunner interface {
	Backup(ctx context.Context, task *domain.DatabaseBackupTask, backend storage.Backend) (*dump.Result, error)
}

// BackendFactory builds a storage backend from a persisted configuration.
type BackendFactory func(storageType storage.Type, configData map[string]any) (storage.Backend, error)

// Scheduler owns the live cron job set for database backup tasks.
type Scheduler struct {
	logger     *zap.Logger
	cron       *cron.Cron
	tasks      domain.TaskRepository
	storages   domain.StorageRepository
	runner     BackupRunner
	retention  *Retention
	newBackend BackendFactory

	mu      sync.Mutex
	entries map[int64]cron.EntryID
}

func New(tasks domain.TaskRepository, storages domain.StorageRepository, runner BackupRunner, retention *Retention, log *zap.Logger) *Scheduler {
	return &Scheduler{
		logger:     log,
		cron:       cron.New(),
		tasks:      tasks,
		storages:   storages,
		runner:     runner,
		retention:  retention,
		newBackend: storage.New,
		entries:    make(map[int64]cron.EntryID),
	}
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops firing. Jobs already running continue to completion.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// JobCount reports the size of the live job set.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// normalizeCron degrades a 6-field expression with a seconds field to the
// 5-field form. Sub-minute timing is not a goal.
func normalizeCron(expr string) string {
	fields := strings.Fields(strings.TrimSpace(expr))
	if len(fields) == 6 {
		return strings.Join(fields[1:], " ")
	}
	return strings.Join(fields, " ")
}

// Resync reconciles the live job set against the schedulable tasks in the
// store. Existing triggers are removed and recreated so edited cron strings
// take effect; tasks with unparseable expressions are skipped, not fatal.
func (s *Scheduler) Resync(ctx context.Context) error {
	tasks, err := s.tasks.ListSchedulable(ctx)
	if err != nil {
		return errors.Wrap(err, "scheduler: list tasks")
	}

	active := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		active[t.ID] = true
	}

	s.mu.Lock()
	for taskID, entryID := range s.entries {
		if !active[taskID] {
			s.cron.Remove(entryID)
			delete(s.entries, taskID)
			s.logger.Info("task removed from schedule", zap.Int64(logger.FieldTaskID, taskID))
		}
	}
	s.mu.Unlock()

	for _, t := range tasks {
		taskID := t.ID
		expr := normalizeCron(t.CronExpression)

		s.mu.Lock()
		if entryID, ok := s.entries[taskID]; ok {
			s.cron.Remove(entryID)
			delete(s.entries, taskID)
		}
		s.mu.Unlock()

		entryID, err := s.cron.AddFunc(expr, func() {
			s.RunTask(context.Background(), taskID)
		})
		if err != nil {
			s.logger.Warn("task has unparseable cron expression, skipping",
				zap.Int64(logger.FieldTaskID, taskID),
				zap.String("cron", t.CronExpression),
				zap.Error(err))
			continue
		}

		s.mu.Lock()
		s.entries[taskID] = entryID
		s.mu.Unlock()

		next := s.cron.Entry(entryID).Schedule.Next(time.Now())
		if err := s.tasks.SetNextRun(ctx, taskID, &next); err != nil {
			s.logger.Warn("failed to record next run time",
				zap.Int64(logger.FieldTaskID, taskID),
				zap.Error(err))
		}
	}

	return nil
}

// RunTask executes one task immediately. The task is loaded fresh from the
// store so edits made since the trigger was installed are honored.
func (s *Scheduler) RunTask(ctx context.Context, taskID int64) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		s.logger.Error("task fire: load failed",
			zap.Int64(logger.FieldTaskID, taskID),
			zap.Error(err))
		return
	}

	startedAt := time.Now()
	historyID, err := s.tasks.MarkRunning(ctx, taskID, startedAt)
	if err != nil {
		s.logger.Error("task fire: mark running failed",
			zap.Int64(logger.FieldTaskID, taskID),
			zap.Error(err))
		return
	}

	result, backend := s.execute(ctx, task, startedAt)

	if err := s.tasks.RecordResult(ctx, taskID, historyID, result); err != nil {
		s.logger.Error("task fire: record result failed",
			zap.Int64(logger.FieldTaskID, taskID),
			zap.Error(err))
	}

	// Retention runs after the terminal history row exists, so the
	// history-backed timestamp fallback can see the run that just
	// finished. Retention errors never fail the backup.
	if result.Status == domain.StatusSuccess && task.CleanupEnabled && s.retention != nil && backend != nil {
		if err := s.retention.Apply(ctx, task, backend); err != nil {
			s.logger.Warn("retention pass failed",
				zap.Int64(logger.FieldTaskID, task.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("task finished",
		zap.Int64(logger.FieldTaskID, taskID),
		zap.String(logger.FieldStatus, result.Status),
		zap.Float64(logger.FieldDuration, result.DurationSeconds))
}

func (s *Scheduler) execute(ctx context.Context, task *domain.DatabaseBackupTask, startedAt time.Time) (*domain.ExecutionResult, storage.Backend) {
	backend, err := s.resolveBackend(ctx, task)
	if err != nil {
		return errorResult(startedAt, err), nil
	}

	dumpResult, err := s.runner.Backup(ctx, task, backend)
	if err != nil {
		return errorResult(startedAt, err), backend
	}

	finishedAt := time.Now()
	return &domain.ExecutionResult{
		Status:           domain.StatusSuccess,
		FinishedAt:       finishedAt,
		DurationSeconds:  finishedAt.Sub(startedAt).Seconds(),
		ArtifactSizeMB:   dumpResult.SizeMB,
		StoragePath:      dumpResult.StorageURI,
		ArtifactFilename: dumpResult.Filename,
	}, backend
}

// resolveBackend picks the task's storage destination, preferring the
// generic configuration over the legacy object-storage record.
func (s *Scheduler) resolveBackend(ctx context.Context, task *domain.DatabaseBackupTask) (storage.Backend, error) {
	if task.StorageConfigID != nil {
		conf, err := s.storages.GetByID(ctx, *task.StorageConfigID)
		if err != nil {
			return nil, errors.Wrapf(err, "scheduler: storage config %d", *task.StorageConfigID)
		}
		return s.newBackend(conf.StorageType, conf.ConfigData)
	}

	if task.LegacyObjectID != nil {
		legacy, err := s.storages.GetLegacyByID(ctx, *task.LegacyObjectID)
		if err != nil {
			return nil, errors.Wrapf(err, "scheduler: legacy storage %d", *task.LegacyObjectID)
		}
		return s.newBackend(storage.Object, storage.FromLegacyObjectConfig(
			legacy.Endpoint, legacy.AccessKey, legacy.SecretKey,
			legacy.BucketName, legacy.Region, legacy.UseSSL,
		))
	}

	return nil, errors.Errorf("scheduler: task %d has no storage configuration", task.ID)
}

func errorResult(startedAt time.Time, err error) *domain.ExecutionResult {
	finishedAt := time.Now()
	return &domain.ExecutionResult{
		Status:          domain.StatusError,
		FinishedAt:      finishedAt,
		DurationSeconds: finishedAt.Sub(startedAt).Seconds(),
		ErrorMessage:    err.Error(),
	}
}
