package dao

import (
	"context"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/internal/model"
)

// storageRepository implements domain.StorageRepository.
type storageRepository struct {
	dao *Dao
}

// NewStorageRepository creates a StorageRepository instance.
func NewStorageRepository(dao *Dao) domain.StorageRepository {
	return &storageRepository{dao: dao}
}

func (r *storageRepository) toDomain(m *model.StorageConfig) (*domain.StorageConfig, error) {
	if m == nil {
		return nil, nil
	}
	configData, err := domain.DecodeConfigData(m.ConfigData)
	if err != nil {
		return nil, err
	}
	return &domain.StorageConfig{
		ID:              m.ID,
		Name:            m.Name,
		StorageType:     m.StorageType,
		ConfigData:      configData,
		LastCheck:       m.LastCheck,
		FreeSpaceGB:     m.FreeSpaceGB,
		TotalSpaceGB:    m.TotalSpaceGB,
		UsedSpaceGB:     m.UsedSpaceGB,
		ConnectionError: m.ConnectionError,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

// GetByID gets a storage configuration by id.
func (r *storageRepository) GetByID(ctx context.Context, id int64) (*domain.StorageConfig, error) {
	var m model.StorageConfig
	if err := r.dao.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m)
}

// List gets all storage configurations.
func (r *storageRepository) List(ctx context.Context) ([]*domain.StorageConfig, error) {
	var modelList []*model.StorageConfig
	if err := r.dao.db.WithContext(ctx).Order("id").Find(&modelList).Error; err != nil {
		return nil, err
	}
	var list []*domain.StorageConfig
	for _, m := range modelList {
		s, err := r.toDomain(m)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

// UpdateCheckResult writes the outcome of a connection check pass.
func (r *storageRepository) UpdateCheckResult(ctx context.Context, id int64, result *domain.SpaceCheckResult) error {
	updates := map[string]any{
		"last_check":       result.CheckedAt,
		"used_space_gb":    result.UsedGB,
		"free_space_gb":    result.FreeGB,
		"total_space_gb":   result.TotalGB,
		"connection_error": result.ConnectionError,
	}
	return r.dao.db.WithContext(ctx).Model(&model.StorageConfig{}).Where("id = ?", id).Updates(updates).Error
}

// GetLegacyByID gets a legacy object-storage record by id.
func (r *storageRepository) GetLegacyByID(ctx context.Context, id int64) (*domain.LegacyObjectConfig, error) {
	var m model.LegacyObjectConfig
	if err := r.dao.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &domain.LegacyObjectConfig{
		ID:         m.ID,
		Name:       m.Name,
		Endpoint:   m.Endpoint,
		AccessKey:  m.AccessKey,
		SecretKey:  m.SecretKey,
		BucketName: m.BucketName,
		Region:     m.Region,
		UseSSL:     m.UseSSL,
		CreatedAt:  m.CreatedAt,
	}, nil
}

var _ domain.StorageRepository = (*storageRepository)(nil)
