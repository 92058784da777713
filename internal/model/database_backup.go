package model

import "time"

const TableNameDatabaseBackupTask = "database_backup_task"

// DatabaseBackupTask is one scheduled database dump job.
type DatabaseBackupTask struct {
	ID                 int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name               string     `gorm:"column:name;not null" json:"name"`
	Host               string     `gorm:"column:host;not null" json:"host"`
	Port               int        `gorm:"column:port;default:5432" json:"port"`
	Username           string     `gorm:"column:username;not null" json:"username"`
	PasswordEncrypted  string     `gorm:"column:password_encrypted;not null" json:"-"`
	DatabaseName       string     `gorm:"column:database_name;not null" json:"databaseName"`
	Format             string     `gorm:"column:format;default:custom" json:"format"`
	CompressionLevel   int        `gorm:"column:compression_level;default:6" json:"compressionLevel"`
	IncludeSchema      bool       `gorm:"column:include_schema;default:true" json:"includeSchema"`
	IncludeData        bool       `gorm:"column:include_data;default:true" json:"includeData"`
	IncludeRoles       bool       `gorm:"column:include_roles;default:false" json:"includeRoles"`
	IncludeTablespaces bool       `gorm:"column:include_tablespaces;default:false" json:"includeTablespaces"`
	CronExpression     string     `gorm:"column:cron_expression;not null" json:"cronExpression"`
	Enabled            bool       `gorm:"column:enabled;default:true;index:idx_task_enabled" json:"enabled"`
	ScheduleEnabled    bool       `gorm:"column:schedule_enabled;default:true" json:"scheduleEnabled"`
	CleanupEnabled     bool       `gorm:"column:cleanup_enabled;default:false" json:"cleanupEnabled"`
	CleanupDays        int        `gorm:"column:cleanup_days;default:30" json:"cleanupDays"`
	StorageConfigID    *int64     `gorm:"column:storage_config_id;index:idx_task_storage" json:"storageConfigId"`
	LegacyObjectID     *int64     `gorm:"column:legacy_object_id" json:"legacyObjectId"`
	LastRun            *time.Time `gorm:"column:last_run" json:"lastRun"`
	NextRun            *time.Time `gorm:"column:next_run" json:"nextRun"`
	LastStatus         string     `gorm:"column:last_status" json:"lastStatus"`
	LastError          string     `gorm:"column:last_error" json:"lastError"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName DatabaseBackupTask's table name
func (*DatabaseBackupTask) TableName() string {
	return TableNameDatabaseBackupTask
}

const TableNameDatabaseBackupHistory = "database_backup_history"

// DatabaseBackupHistory is one execution attempt. Rows are append-only and
// never mutated after FinishedAt is set.
type DatabaseBackupHistory struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TaskID           int64      `gorm:"column:task_id;not null;index:idx_history_task" json:"taskId"`
	Status           string     `gorm:"column:status;not null" json:"status"`
	StartedAt        time.Time  `gorm:"column:started_at;not null" json:"startedAt"`
	FinishedAt       *time.Time `gorm:"column:finished_at" json:"finishedAt"`
	DurationSeconds  float64    `gorm:"column:duration_seconds" json:"durationSeconds"`
	ArtifactSizeMB   float64    `gorm:"column:artifact_size_mb" json:"artifactSizeMb"`
	StoragePath      string     `gorm:"column:storage_path" json:"storagePath"`
	ArtifactFilename string     `gorm:"column:artifact_filename" json:"artifactFilename"`
	ErrorMessage     string     `gorm:"column:error_message" json:"errorMessage"`
}

// TableName DatabaseBackupHistory's table name
func (*DatabaseBackupHistory) TableName() string {
	return TableNameDatabaseBackupHistory
}
