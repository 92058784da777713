package model

import "time"

const TableNameStorageConfig = "storage_config"

// StorageConfig is a generic storage destination. ConfigData holds the
// per-type connection keys as a JSON object.
type StorageConfig struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name            string     `gorm:"column:name;not null" json:"name"`
	StorageType     string     `gorm:"column:storage_type;not null;index:idx_storage_type" json:"storageType"`
	ConfigData      string     `gorm:"column:config_data;type:text" json:"configData"`
	LastCheck       *time.Time `gorm:"column:last_check" json:"lastCheck"`
	FreeSpaceGB     *float64   `gorm:"column:free_space_gb" json:"freeSpaceGb"`
	TotalSpaceGB    *float64   `gorm:"column:total_space_gb" json:"totalSpaceGb"`
	UsedSpaceGB     float64    `gorm:"column:used_space_gb" json:"usedSpaceGb"`
	ConnectionError *string    `gorm:"column:connection_error" json:"connectionError"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName StorageConfig's table name
func (*StorageConfig) TableName() string {
	return TableNameStorageConfig
}

const TableNameLegacyObjectConfig = "object_storage_config"

// LegacyObjectConfig is the old flat object-storage shape kept for
// backward compatibility with records that predate StorageConfig.
type LegacyObjectConfig struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	Endpoint   string    `gorm:"column:endpoint;not null" json:"endpoint"`
	AccessKey  string    `gorm:"column:access_key;not null" json:"accessKey"`
	SecretKey  string    `gorm:"column:secret_key;not null" json:"secretKey"`
	BucketName string    `gorm:"column:bucket_name;not null" json:"bucketName"`
	Region     string    `gorm:"column:region" json:"region"`
	UseSSL     bool      `gorm:"column:use_ssl;default:false" json:"useSsl"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName LegacyObjectConfig's table name
func (*LegacyObjectConfig) TableName() string {
	return TableNameLegacyObjectConfig
}
