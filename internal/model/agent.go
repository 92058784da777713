package model

import "time"

const TableNameAgent = "agent"

// Agent is a remote machine running the backup agent.
type Agent struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name            string     `gorm:"column:name;not null" json:"name"`
	IPAddress       string     `gorm:"column:ip_address;not null" json:"ipAddress"`
	Port            int        `gorm:"column:port;default:8080" json:"port"`
	IsActive        bool       `gorm:"column:is_active;default:true;index:idx_agent_active" json:"isActive"`
	LastSeen        *time.Time `gorm:"column:last_seen" json:"lastSeen"`
	StorageConfigID *int64     `gorm:"column:storage_config_id" json:"storageConfigId"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName Agent's table name
func (*Agent) TableName() string {
	return TableNameAgent
}

const TableNameAgentStatus = "agent_status"

// AgentStatus is live telemetry, one row per agent, fully overwritten on
// every poll cycle.
type AgentStatus struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AgentID        int64     `gorm:"column:agent_id;not null;uniqueIndex:idx_status_agent" json:"agentId"`
	DiskFreeGB     float64   `gorm:"column:disk_free_gb" json:"diskFreeGb"`
	DiskTotalGB    float64   `gorm:"column:disk_total_gb" json:"diskTotalGb"`
	MemoryFreeMB   float64   `gorm:"column:memory_free_mb" json:"memoryFreeMb"`
	MemoryTotalMB  float64   `gorm:"column:memory_total_mb" json:"memoryTotalMb"`
	CPULoadPercent float64   `gorm:"column:cpu_load_percent" json:"cpuLoadPercent"`
	NetworkRxMB    float64   `gorm:"column:network_rx_mb" json:"networkRxMb"`
	NetworkTxMB    float64   `gorm:"column:network_tx_mb" json:"networkTxMb"`
	IsOnline       bool      `gorm:"column:is_online;default:false" json:"isOnline"`
	LastUpdate     time.Time `gorm:"column:last_update" json:"lastUpdate"`
}

// TableName AgentStatus's table name
func (*AgentStatus) TableName() string {
	return TableNameAgentStatus
}

const TableNameAgentBackupRecord = "agent_backup_record"

// AgentBackupRecord is one agent-reported backup snapshot per source path,
// replaced wholesale each poll cycle.
type AgentBackupRecord struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AgentID        int64      `gorm:"column:agent_id;not null;index:idx_record_agent" json:"agentId"`
	TaskID         *int64     `gorm:"column:task_id;index:idx_record_task" json:"taskId"`
	SourcePath     string     `gorm:"column:source_path;not null" json:"sourcePath"`
	ArchiveName    string     `gorm:"column:archive_name" json:"archiveName"`
	BackupDate     *time.Time `gorm:"column:backup_date" json:"backupDate"`
	UploadDate     *time.Time `gorm:"column:upload_date" json:"uploadDate"`
	ArtifactSizeMB float64    `gorm:"column:artifact_size_mb" json:"artifactSizeMb"`
	StoragePath    string     `gorm:"column:storage_path" json:"storagePath"`
	Status         string     `gorm:"column:status" json:"status"`
	ErrorMessage   string     `gorm:"column:error_message" json:"errorMessage"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName AgentBackupRecord's table name
func (*AgentBackupRecord) TableName() string {
	return TableNameAgentBackupRecord
}
