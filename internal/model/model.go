// Package model defines the persisted database entities.
package model

import (
	"gorm.io/gorm"
)

// AutoMigrate creates or updates all tables the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&StorageConfig{},
		&LegacyObjectConfig{},
		&DatabaseBackupTask{},
		&DatabaseBackupHistory{},
		&Agent{},
		&AgentStatus{},
		&AgentBackupRecord{},
		&FolderBackupTask{},
		&FolderBackupHistory{},
		&ReportDefinition{},
		&ReportHistory{},
		&Setting{},
	)
}
