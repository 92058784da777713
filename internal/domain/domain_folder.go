package domain

import "time"

// FolderBackupTask is a folder backup executed on the agent machine. The
// service pushes configuration to the agent and triggers runs over HTTP.
type FolderBackupTask struct {
	ID              int64
	AgentID         int64
	Name            string
	SourcePath      string
	CronExpression  string
	Enabled         bool
	ScheduleEnabled bool
	CreateArchive   bool
	ArchiveFormat   string
	CleanupEnabled  bool
	RetentionDays   int
	IsDockerCompose bool
	DockerCompose   string
	StorageConfigID *int64
	LastRun         *time.Time
	LastStatus      string
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FolderBackupHistory is one relayed folder backup trigger.
type FolderBackupHistory struct {
	ID           int64
	TaskID       int64
	Status       string
	StartedAt    time.Time
	FinishedAt   *time.Time
	ErrorMessage string
}
