package dao

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/internal/model"

	"gorm.io/gorm"
)

// taskRepository implements domain.TaskRepository.
type taskRepository struct {
	dao *Dao
}

// NewTaskRepository creates a TaskRepository instance.
func NewTaskRepository(dao *Dao) domain.TaskRepository {
	return &taskRepository{dao: dao}
}

func (r *taskRepository) toDomain(m *model.DatabaseBackupTask) *domain.DatabaseBackupTask {
	if m == nil {
		return nil
	}
	return &domain.DatabaseBackupTask{
		ID:                 m.ID,
		Name:               m.Name,
		Host:               m.Host,
		Port:               m.Port,
		Username:           m.Username,
		PasswordEncrypted:  m.PasswordEncrypted,
		DatabaseName:       m.DatabaseName,
		Format:             m.Format,
		CompressionLevel:   m.CompressionLevel,
		IncludeSchema:      m.IncludeSchema,
		IncludeData:        m.IncludeData,
		IncludeRoles:       m.IncludeRoles,
		IncludeTablespaces: m.IncludeTablespaces,
		CronExpression:     m.CronExpression,
		Enabled:            m.Enabled,
		ScheduleEnabled:    m.ScheduleEnabled,
		CleanupEnabled:     m.CleanupEnabled,
		CleanupDays:        m.CleanupDays,
		StorageConfigID:    m.StorageConfigID,
		LegacyObjectID:     m.LegacyObjectID,
		LastRun:            m.LastRun,
		NextRun:            m.NextRun,
		LastStatus:         m.LastStatus,
		LastError:          m.LastError,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func (r *taskRepository) historyToDomain(m *model.DatabaseBackupHistory) *domain.DatabaseBackupHistory {
	if m == nil {
		return nil
	}
	return &domain.DatabaseBackupHistory{
		ID:               m.ID,
		TaskID:           m.TaskID,
		Status:           m.Status,
		StartedAt:        m.StartedAt,
		FinishedAt:       m.FinishedAt,
		DurationSeconds:  m.DurationSeconds,
		ArtifactSizeMB:   m.ArtifactSizeMB,
		StoragePath:      m.StoragePath,
		ArtifactFilename: m.ArtifactFilename,
		ErrorMessage:     m.ErrorMessage,
	}
}

// GetByID gets a task by id.
func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.DatabaseBackupTask, error) {
	var m model.DatabaseBackupTask
	if err := r.dao.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// ListSchedulable gets all tasks with enabled and scheduleEnabled set.
func (r *taskRepository) ListSchedulable(ctx context.Context) ([]*domain.DatabaseBackupTask, error) {
	var modelList []*model.DatabaseBackupTask
	err := r.dao.db.WithContext(ctx).
		Where("enabled = ? AND schedule_enabled = ?", true, true).
		Order("id").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	var list []*domain.DatabaseBackupTask
	for _, m := range modelList {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// MarkRunning creates a running history row and moves the task into the
// running state in one transaction.
func (r *taskRepository) MarkRunning(ctx context.Context, taskID int64, startedAt time.Time) (int64, error) {
	var historyID int64
	err := r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		h := &model.DatabaseBackupHistory{
			TaskID:    taskID,
			Status:    domain.StatusRunning,
			StartedAt: startedAt,
		}
		if err := tx.Create(h).Error; err != nil {
			return err
		}
		historyID = h.ID

		updates := map[string]any{
			"last_run":    startedAt,
			"last_status": domain.StatusRunning,
			"last_error":  "",
		}
		return tx.Model(&model.DatabaseBackupTask{}).Where("id = ?", taskID).Updates(updates).Error
	})
	return historyID, err
}

// RecordResult finalizes the history row and writes the task's terminal
// state in one transaction.
func (r *taskRepository) RecordResult(ctx context.Context, taskID int64, historyID int64, result *domain.ExecutionResult) error {
	return r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		historyUpdates := map[string]any{
			"status":            result.Status,
			"finished_at":       result.FinishedAt,
			"duration_seconds":  result.DurationSeconds,
			"artifact_size_mb":  result.ArtifactSizeMB,
			"storage_path":      result.StoragePath,
			"artifact_filename": result.ArtifactFilename,
			"error_message":     result.ErrorMessage,
		}
		err := tx.Model(&model.DatabaseBackupHistory{}).Where("id = ?", historyID).Updates(historyUpdates).Error
		if err != nil {
			return err
		}

		taskUpdates := map[string]any{
			"last_status": result.Status,
			"last_error":  result.ErrorMessage,
		}
		return tx.Model(&model.DatabaseBackupTask{}).Where("id = ?", taskID).Updates(taskUpdates).Error
	})
}

// SetNextRun updates the task's derived next fire time.
func (r *taskRepository) SetNextRun(ctx context.Context, taskID int64, next *time.Time) error {
	return r.dao.db.WithContext(ctx).Model(&model.DatabaseBackupTask{}).
		Where("id = ?", taskID).
		Update("next_run", next).Error
}

// ListHistory gets history rows for a task, newest first.
func (r *taskRepository) ListHistory(ctx context.Context, taskID int64, limit int) ([]*domain.DatabaseBackupHistory, error) {
	var modelList []*model.DatabaseBackupHistory
	q := r.dao.db.WithContext(ctx).Where("task_id = ?", taskID).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&modelList).Error; err != nil {
		return nil, err
	}
	var list []*domain.DatabaseBackupHistory
	for _, m := range modelList {
		list = append(list, r.historyToDomain(m))
	}
	return list, nil
}

// ListHistorySince gets history rows for a task finished after the given
// instant.
func (r *taskRepository) ListHistorySince(ctx context.Context, taskID int64, since time.Time) ([]*domain.DatabaseBackupHistory, error) {
	var modelList []*model.DatabaseBackupHistory
	err := r.dao.db.WithContext(ctx).
		Where("task_id = ? AND finished_at > ?", taskID, since).
		Order("started_at DESC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	var list []*domain.DatabaseBackupHistory
	for _, m := range modelList {
		list = append(list, r.historyToDomain(m))
	}
	return list, nil
}

var _ domain.TaskRepository = (*taskRepository)(nil)
