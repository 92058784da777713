package model

import "time"

const TableNameFolderBackupTask = "folder_backup_task"

// FolderBackupTask is a folder backup performed by an agent on its own
// machine. The service only pushes the configuration and triggers runs.
type FolderBackupTask struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AgentID         int64      `gorm:"column:agent_id;not null;index:idx_folder_agent" json:"agentId"`
	Name            string     `gorm:"column:name;not null" json:"name"`
	SourcePath      string     `gorm:"column:source_path;not null" json:"sourcePath"`
	CronExpression  string     `gorm:"column:cron_expression" json:"cronExpression"`
	Enabled         bool       `gorm:"column:enabled;default:true" json:"enabled"`
	ScheduleEnabled bool       `gorm:"column:schedule_enabled;default:true" json:"scheduleEnabled"`
	CreateArchive   bool       `gorm:"column:create_archive;default:true" json:"createArchive"`
	ArchiveFormat   string     `gorm:"column:archive_format;default:tar.gz" json:"archiveFormat"`
	CleanupEnabled  bool       `gorm:"column:cleanup_enabled;default:false" json:"cleanupEnabled"`
	RetentionDays   int        `gorm:"column:retention_days;default:30" json:"retentionDays"`
	IsDockerCompose bool       `gorm:"column:is_docker_compose;default:false" json:"isDockerCompose"`
	DockerCompose   string     `gorm:"column:docker_compose_path" json:"dockerComposePath"`
	StorageConfigID *int64     `gorm:"column:storage_config_id" json:"storageConfigId"`
	LastRun         *time.Time `gorm:"column:last_run" json:"lastRun"`
	LastStatus      string     `gorm:"column:last_status" json:"lastStatus"`
	LastError       string     `gorm:"column:last_error" json:"lastError"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName FolderBackupTask's table name
func (*FolderBackupTask) TableName() string {
	return TableNameFolderBackupTask
}

const TableNameFolderBackupHistory = "folder_backup_history"

// FolderBackupHistory is one relayed folder backup trigger.
type FolderBackupHistory struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TaskID       int64      `gorm:"column:task_id;not null;index:idx_folder_history_task" json:"taskId"`
	Status       string     `gorm:"column:status;not null" json:"status"`
	StartedAt    time.Time  `gorm:"column:started_at;not null" json:"startedAt"`
	FinishedAt   *time.Time `gorm:"column:finished_at" json:"finishedAt"`
	ErrorMessage string     `gorm:"column:error_message" json:"errorMessage"`
}

// TableName FolderBackupHistory's table name
func (*FolderBackupHistory) TableName() string {
	return TableNameFolderBackupHistory
}
