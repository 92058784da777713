package domain

import "time"

// Task execution statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Dump formats.
const (
	FormatCustom = "custom"
	FormatPlain  = "plain"
	FormatTar    = "tar"
)

// DatabaseBackupTask is one scheduled database dump job.
type DatabaseBackupTask struct {
	ID                 int64
	Name               string
	Host               string
	Port               int
	Username           string
	PasswordEncrypted  string
	DatabaseName       string
	Format             string
	CompressionLevel   int
	IncludeSchema      bool
	IncludeData        bool
	IncludeRoles       bool
	IncludeTablespaces bool
	CronExpression     string
	Enabled            bool
	ScheduleEnabled    bool
	CleanupEnabled     bool
	CleanupDays        int
	StorageConfigID    *int64
	LegacyObjectID     *int64
	LastRun            *time.Time
	NextRun            *time.Time
	LastStatus         string
	LastError          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Schedulable reports whether the task belongs in the live job set.
func (t *DatabaseBackupTask) Schedulable() bool {
	return t.Enabled && t.ScheduleEnabled
}

// DatabaseBackupHistory is one execution attempt.
type DatabaseBackupHistory struct {
	ID               int64
	TaskID           int64
	Status           string
	StartedAt        time.Time
	FinishedAt       *time.Time
	DurationSeconds  float64
	ArtifactSizeMB   float64
	StoragePath      string
	ArtifactFilename string
	ErrorMessage     string
}

// ExecutionResult is a terminal task outcome written back to the task row
// and its running history row in one transaction.
type ExecutionResult struct {
	Status           string
	FinishedAt       time.Time
	DurationSeconds  float64
	ArtifactSizeMB   float64
	StoragePath      string
	ArtifactFilename string
	ErrorMessage     string
}
