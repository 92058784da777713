package domain

import (
	"context"
	"time"
)

// StorageRepository persists storage configurations.
type StorageRepository interface {
	// GetByID gets a storage configuration by id
	GetByID(ctx context.Context, id int64) (*StorageConfig, error)

	// List gets all storage configurations
	List(ctx context.Context) ([]*StorageConfig, error)

	// UpdateCheckResult writes the outcome of a connection check pass
	UpdateCheckResult(ctx context.Context, id int64, result *SpaceCheckResult) error

	// GetLegacyByID gets a legacy object-storage record by id
	GetLegacyByID(ctx context.Context, id int64) (*LegacyObjectConfig, error)
}

// TaskRepository persists database backup tasks and their history.
type TaskRepository interface {
	// GetByID gets a task by id
	GetByID(ctx context.Context, id int64) (*DatabaseBackupTask, error)

	// ListSchedulable gets all tasks with enabled and scheduleEnabled set
	ListSchedulable(ctx context.Context) ([]*DatabaseBackupTask, error)

	// MarkRunning creates a running history row and moves the task into the
	// running state in one transaction, returning the history row id
	MarkRunning(ctx context.Context, taskID int64, startedAt time.Time) (int64, error)

	// RecordResult finalizes the history row and writes the task's terminal
	// state in one transaction
	RecordResult(ctx context.Context, taskID int64, historyID int64, result *ExecutionResult) error

	// SetNextRun updates the task's derived next fire time
	SetNextRun(ctx context.Context, taskID int64, next *time.Time) error

	// ListHistory gets history rows for a task, newest first, at most limit
	ListHistory(ctx context.Context, taskID int64, limit int) ([]*DatabaseBackupHistory, error)

	// ListHistorySince gets history rows for a task finished after the
	// given instant
	ListHistorySince(ctx context.Context, taskID int64, since time.Time) ([]*DatabaseBackupHistory, error)
}

// AgentRepository persists agents, their telemetry and reported backups.
type AgentRepository interface {
	// GetByID gets an agent by id
	GetByID(ctx context.Context, id int64) (*Agent, error)

	// ListActive gets all active agents
	ListActive(ctx context.Context) ([]*Agent, error)

	// MarkOffline flips the agent's status row to offline, still bumping
	// lastUpdate
	MarkOffline(ctx context.Context, agentID int64, at time.Time) error

	// UpsertStatus overwrites the agent's telemetry row and bumps the
	// agent's lastSeen in one transaction
	UpsertStatus(ctx context.Context, status *AgentStatus) error

	// GetStatus gets the agent's telemetry row
	GetStatus(ctx context.Context, agentID int64) (*AgentStatus, error)

	// BackupStatuses gets the current backup status per task id for the
	// agent, used to capture prior state before a snapshot replace
	BackupStatuses(ctx context.Context, agentID int64) (map[int64]string, error)

	// ReplaceBackupRecords deletes all backup records for the agent and
	// inserts the fresh snapshot in one transaction
	ReplaceBackupRecords(ctx context.Context, agentID int64, records []*AgentBackupRecord) error

	// ListBackupRecords gets the agent's current backup records
	ListBackupRecords(ctx context.Context, agentID int64) ([]*AgentBackupRecord, error)
}

// FolderTaskRepository persists agent-side folder backup tasks.
type FolderTaskRepository interface {
	// GetByID gets a folder task by id
	GetByID(ctx context.Context, id int64) (*FolderBackupTask, error)

	// ListByAgent gets all folder tasks configured for an agent
	ListByAgent(ctx context.Context, agentID int64) ([]*FolderBackupTask, error)

	// ListSchedulable gets all folder tasks with enabled and
	// scheduleEnabled set
	ListSchedulable(ctx context.Context) ([]*FolderBackupTask, error)

	// RecordTrigger appends a history row and writes the task's last run
	// state in one transaction
	RecordTrigger(ctx context.Context, taskID int64, history *FolderBackupHistory) error

	// ListHistorySince gets history rows for a task started after the
	// given instant
	ListHistorySince(ctx context.Context, taskID int64, since time.Time) ([]*FolderBackupHistory, error)
}

// ReportRepository persists report definitions and send history.
type ReportRepository interface {
	// GetByID gets a report definition by id
	GetByID(ctx context.Context, id int64) (*ReportDefinition, error)

	// ListEnabled gets all reports with enabled and sendEnabled set
	ListEnabled(ctx context.Context) ([]*ReportDefinition, error)

	// MarkSent records a send attempt and updates lastSent plus the derived
	// nextSend in one transaction
	MarkSent(ctx context.Context, reportID int64, history *ReportHistory, next *time.Time) error
}

// SettingRepository persists runtime-editable key value settings.
type SettingRepository interface {
	// Get gets a setting value, empty string when unset
	Get(ctx context.Context, key string) (string, error)

	// Set creates or updates a setting value
	Set(ctx context.Context, key string, value string) error
}
