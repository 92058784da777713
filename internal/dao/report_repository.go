package dao

import (
	"context"
	"encoding/json"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/internal/model"

	"gorm.io/gorm"
)

// reportRepository implements domain.ReportRepository.
type reportRepository struct {
	dao *Dao
}

// NewReportRepository creates a ReportRepository instance.
func NewReportRepository(dao *Dao) domain.ReportRepository {
	return &reportRepository{dao: dao}
}

func decodeIDs(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

func (r *reportRepository) toDomain(m *model.ReportDefinition) *domain.ReportDefinition {
	if m == nil {
		return nil
	}
	return &domain.ReportDefinition{
		ID:                      m.ID,
		Name:                    m.Name,
		SelectedAgentIDs:        decodeIDs(m.SelectedAgentIDs),
		SelectedDatabaseTaskIDs: decodeIDs(m.SelectedDatabaseTaskIDs),
		Cadence:                 m.Cadence,
		CadenceHour:             m.CadenceHour,
		CadenceMinute:           m.CadenceMinute,
		CadenceDayOfWeek:        m.CadenceDayOfWeek,
		CadenceHoursInterval:    m.CadenceHoursInterval,
		Enabled:                 m.Enabled,
		SendEnabled:             m.SendEnabled,
		LastSent:                m.LastSent,
		NextSend:                m.NextSend,
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
}

// GetByID gets a report definition by id.
func (r *reportRepository) GetByID(ctx context.Context, id int64) (*domain.ReportDefinition, error) {
	var m model.ReportDefinition
	if err := r.dao.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// ListEnabled gets all reports with enabled and sendEnabled set.
func (r *reportRepository) ListEnabled(ctx context.Context) ([]*domain.ReportDefinition, error) {
	var modelList []*model.ReportDefinition
	err := r.dao.db.WithContext(ctx).
		Where("enabled = ? AND send_enabled = ?", true, true).
		Order("id").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	var list []*domain.ReportDefinition
	for _, m := range modelList {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// MarkSent records a send attempt and updates lastSent plus the derived
// nextSend in one transaction.
func (r *reportRepository) MarkSent(ctx context.Context, reportID int64, history *domain.ReportHistory, next *time.Time) error {
	return r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		h := &model.ReportHistory{
			ReportID:     reportID,
			SentAt:       history.SentAt,
			Status:       history.Status,
			ErrorMessage: history.ErrorMessage,
		}
		if err := tx.Create(h).Error; err != nil {
			return err
		}
		updates := map[string]any{
			"last_sent": history.SentAt,
			"next_send": next,
		}
		return tx.Model(&model.ReportDefinition{}).Where("id = ?", reportID).Updates(updates).Error
	})
}

var _ domain.ReportRepository = (*reportRepository)(nil)
