package dao

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// agentRepository implements domain.AgentRepository.
type agentRepository struct {
	dao *Dao
}

// NewAgentRepository creates an AgentRepository instance.
func NewAgentRepository(dao *Dao) domain.AgentRepository {
	return &agentRepository{dao: dao}
}

func (r *agentRepository) toDomain(m *model.Agent) *domain.Agent {
	if m == nil {
		return nil
	}
	return &domain.Agent{
		ID:              m.ID,
		Name:            m.Name,
		IPAddress:       m.IPAddress,
		Port:            m.Port,
		IsActive:        m.IsActive,
		LastSeen:        m.LastSeen,
		StorageConfigID: m.StorageConfigID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func (r *agentRepository) recordToDomain(m *model.AgentBackupRecord) *domain.AgentBackupRecord {
	if m == nil {
		return nil
	}
	return &domain.AgentBackupRecord{
		ID:             m.ID,
		AgentID:        m.AgentID,
		TaskID:         m.TaskID,
		SourcePath:     m.SourcePath,
		ArchiveName:    m.ArchiveName,
		BackupDate:     m.BackupDate,
		UploadDate:     m.UploadDate,
		ArtifactSizeMB: m.ArtifactSizeMB,
		StoragePath:    m.StoragePath,
		Status:         m.Status,
		ErrorMessage:   m.ErrorMessage,
		CreatedAt:      m.CreatedAt,
	}
}

// GetByID gets an agent by id.
func (r *agentRepository) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	var m model.Agent
	if err := r.dao.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// ListActive gets all active agents.
func (r *agentRepository) ListActive(ctx context.Context) ([]*domain.Agent, error) {
	var modelList []*model.Agent
	err := r.dao.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	var list []*domain.Agent
	for _, m := range modelList {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// MarkOffline flips the agent's status row to offline, still bumping
// lastUpdate.
func (r *agentRepository) MarkOffline(ctx context.Context, agentID int64, at time.Time) error {
	return r.dao.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "agent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_online", "last_update"}),
	}).Create(&model.AgentStatus{
		AgentID:    agentID,
		IsOnline:   false,
		LastUpdate: at,
	}).Error
}

// UpsertStatus overwrites the agent's telemetry row and bumps the agent's
// lastSeen in one transaction.
func (r *agentRepository) UpsertStatus(ctx context.Context, status *domain.AgentStatus) error {
	return r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		m := &model.AgentStatus{
			AgentID:        status.AgentID,
			DiskFreeGB:     status.DiskFreeGB,
			DiskTotalGB:    status.DiskTotalGB,
			MemoryFreeMB:   status.MemoryFreeMB,
			MemoryTotalMB:  status.MemoryTotalMB,
			CPULoadPercent: status.CPULoadPercent,
			NetworkRxMB:    status.NetworkRxMB,
			NetworkTxMB:    status.NetworkTxMB,
			IsOnline:       status.IsOnline,
			LastUpdate:     status.LastUpdate,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "agent_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"disk_free_gb", "disk_total_gb",
				"memory_free_mb", "memory_total_mb",
				"cpu_load_percent",
				"network_rx_mb", "network_tx_mb",
				"is_online", "last_update",
			}),
		}).Create(m).Error
		if err != nil {
			return err
		}
		return tx.Model(&model.Agent{}).Where("id = ?", status.AgentID).
			Update("last_seen", status.LastUpdate).Error
	})
}

// GetStatus gets the agent's telemetry row.
func (r *agentRepository) GetStatus(ctx context.Context, agentID int64) (*domain.AgentStatus, error) {
	var m model.AgentStatus
	if err := r.dao.db.WithContext(ctx).Where("agent_id = ?", agentID).First(&m).Error; err != nil {
		return nil, err
	}
	return &domain.AgentStatus{
		AgentID:        m.AgentID,
		DiskFreeGB:     m.DiskFreeGB,
		DiskTotalGB:    m.DiskTotalGB,
		MemoryFreeMB:   m.MemoryFreeMB,
		MemoryTotalMB:  m.MemoryTotalMB,
		CPULoadPercent: m.CPULoadPercent,
		NetworkRxMB:    m.NetworkRxMB,
		NetworkTxMB:    m.NetworkTxMB,
		IsOnline:       m.IsOnline,
		LastUpdate:     m.LastUpdate,
	}, nil
}

// BackupStatuses gets the current backup status per task id for the agent.
func (r *agentRepository) BackupStatuses(ctx context.Context, agentID int64) (map[int64]string, error) {
	var modelList []*model.AgentBackupRecord
	err := r.dao.db.WithContext(ctx).Where("agent_id = ?", agentID).Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	statuses := make(map[int64]string, len(modelList))
	for _, m := range modelList {
		if m.TaskID != nil {
			statuses[*m.TaskID] = m.Status
		}
	}
	return statuses, nil
}

// ReplaceBackupRecords deletes all backup records for the agent and inserts
// the fresh snapshot in one transaction.
func (r *agentRepository) ReplaceBackupRecords(ctx context.Context, agentID int64, records []*domain.AgentBackupRecord) error {
	return r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		err := tx.Where("agent_id = ?", agentID).Delete(&model.AgentBackupRecord{}).Error
		if err != nil {
			return err
		}
		for _, rec := range records {
			m := &model.AgentBackupRecord{
				AgentID:        agentID,
				TaskID:         rec.TaskID,
				SourcePath:     rec.SourcePath,
				ArchiveName:    rec.ArchiveName,
				BackupDate:     rec.BackupDate,
				UploadDate:     rec.UploadDate,
				ArtifactSizeMB: rec.ArtifactSizeMB,
				StoragePath:    rec.StoragePath,
				Status:         rec.Status,
				ErrorMessage:   rec.ErrorMessage,
			}
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListBackupRecords gets the agent's current backup records.
func (r *agentRepository) ListBackupRecords(ctx context.Context, agentID int64) ([]*domain.AgentBackupRecord, error) {
	var modelList []*model.AgentBackupRecord
	err := r.dao.db.WithContext(ctx).Where("agent_id = ?", agentID).Order("source_path").Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	var list []*domain.AgentBackupRecord
	for _, m := range modelList {
		list = append(list, r.recordToDomain(m))
	}
	return list, nil
}

var _ domain.AgentRepository = (*agentRepository)(nil)
