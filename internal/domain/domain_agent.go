package domain

import "time"

// Agent backup record statuses reported by the agent itself.
const (
	BackupStatusSuccess   = "success"
	BackupStatusError     = "error"
	BackupStatusUploading = "uploading"
)

// Agent is a remote machine running the backup agent.
type Agent struct {
	ID              int64
	Name            string
	IPAddress       string
	Port            int
	IsActive        bool
	LastSeen        *time.Time
	StorageConfigID *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AgentStatus is live agent telemetry, overwritten on every poll cycle.
type AgentStatus struct {
	AgentID        int64
	DiskFreeGB     float64
	DiskTotalGB    float64
	MemoryFreeMB   float64
	MemoryTotalMB  float64
	CPULoadPercent float64
	NetworkRxMB    float64
	NetworkTxMB    float64
	IsOnline       bool
	LastUpdate     time.Time
}

// AgentBackupRecord is one agent-reported backup snapshot per source path.
type AgentBackupRecord struct {
	ID             int64
	AgentID        int64
	TaskID         *int64
	SourcePath     string
	ArchiveName    string
	BackupDate     *time.Time
	UploadDate     *time.Time
	ArtifactSizeMB float64
	StoragePath    string
	Status         string
	ErrorMessage   string
	CreatedAt      time.Time
}
