package dao

import (
	"context"
	"errors"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingRepository implements domain.SettingRepository.
type settingRepository struct {
	dao *Dao
}

// NewSettingRepository creates a SettingRepository instance.
func NewSettingRepository(dao *Dao) domain.SettingRepository {
	return &settingRepository{dao: dao}
}

// Get gets a setting value, empty string when unset.
func (r *settingRepository) Get(ctx context.Context, key string) (string, error) {
	var m model.Setting
	err := r.dao.db.WithContext(ctx).Where("key = ?", key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Value, nil
}

// Set creates or updates a setting value.
func (r *settingRepository) Set(ctx context.Context, key string, value string) error {
	return r.dao.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&model.Setting{Key: key, Value: value}).Error
}

var _ domain.SettingRepository = (*settingRepository)(nil)
