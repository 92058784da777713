package dao

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/internal/model"

	"gorm.io/gorm"
)

// folderTaskRepository implements domain.FolderTaskRepository.
type folderTaskRepository struct {
	dao *Dao
}

// NewFolderTaskRepository creates a FolderTaskRepository instance.
func NewFolderTaskRepository(dao *Dao) domain.FolderTaskRepository {
	return &folderTaskRepository{dao: dao}
}

func (r *folderTaskRepository) toDomain(m *model.FolderBackupTask) *domain.FolderBackupTask {
	if m == nil {
		return nil
	}
	return &domain.FolderBackupTask{
		ID:              m.ID,
		AgentID:         m.AgentID,
		Name:            m.Name,
		SourcePath:      m.SourcePath,
		CronExpression:  m.CronExpression,
		Enabled:         m.Enabled,
		ScheduleEnabled: m.ScheduleEnabled,
		CreateArchive:   m.CreateArchive,
		ArchiveFormat:   m.ArchiveFormat,
		CleanupEnabled:  m.CleanupEnabled,
		RetentionDays:   m.RetentionDays,
		IsDockerCompose: m.IsDockerCompose,
		DockerCompose:   m.DockerCompose,
		StorageConfigID: m.StorageConfigID,
		LastRun:         m.LastRun,
		LastStatus:      m.LastStatus,
		LastError:       m.LastError,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// GetByID gets a folder task by id.
func (r *folderTaskRepository) GetByID(ctx context.Context, id int64) (*domain.FolderBackupTask, error) {
	var m model.FolderBackupTask
	if err := r.dao.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// ListByAgent gets all folder tasks configured for an agent.
func (r *folderTaskRepository) ListByAgent(ctx context.Context, agentID int64) ([]*domain.FolderBackupTask, error) {
	var modelList []*model.FolderBackupTask
	err := r.dao.db.WithContext(ctx).Where("agent_id = ?", agentID).Order("id").Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	var list []*domain.FolderBackupTask
	for _, m := range modelList {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// ListSchedulable gets all folder tasks with enabled and scheduleEnabled set.
func (r *folderTaskRepository) ListSchedulable(ctx context.Context) ([]*domain.FolderBackupTask, error) {
	var modelList []*model.FolderBackupTask
	err := r.dao.db.WithContext(ctx).
		Where("enabled = ? AND schedule_enabled = ?", true, true).
		Order("id").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	var list []*domain.FolderBackupTask
	for _, m := range modelList {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// RecordTrigger appends a history row and writes the task's last run state
// in one transaction.
func (r *folderTaskRepository) RecordTrigger(ctx context.Context, taskID int64, history *domain.FolderBackupHistory) error {
	return r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		h := &model.FolderBackupHistory{
			TaskID:       taskID,
			Status:       history.Status,
			StartedAt:    history.StartedAt,
			FinishedAt:   history.FinishedAt,
			ErrorMessage: history.ErrorMessage,
		}
		if err := tx.Create(h).Error; err != nil {
			return err
		}
		updates := map[string]any{
			"last_run":    history.StartedAt,
			"last_status": history.Status,
			"last_error":  history.ErrorMessage,
		}
		return tx.Model(&model.FolderBackupTask{}).Where("id = ?", taskID).Updates(updates).Error
	})
}

// ListHistorySince gets history rows for a task started after the given
// instant.
func (r *folderTaskRepository) ListHistorySince(ctx context.Context, taskID int64, since time.Time) ([]*domain.FolderBackupHistory, error) {
	var modelList []*model.FolderBackupHistory
	err := r.dao.db.WithContext(ctx).
		Where("task_id = ? AND started_at >= ?", taskID, since).
		Order("started_at DESC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	var list []*domain.FolderBackupHistory
	for _, m := range modelList {
		list = append(list, &domain.FolderBackupHistory{
			ID:           m.ID,
			TaskID:       m.TaskID,
			Status:       m.Status,
			StartedAt:    m.StartedAt,
			FinishedAt:   m.FinishedAt,
			ErrorMessage: m.ErrorMessage,
		})
	}
	return list, nil
}

var _ domain.FolderTaskRepository = (*folderTaskRepository)(nil)
