package model

import "time"

const TableNameReportDefinition = "report_definition"

// ReportDefinition describes one recurring status report. Agent and task
// selections are stored as JSON arrays of ids.
type ReportDefinition struct {
	ID                      int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name                    string     `gorm:"column:name;not null" json:"name"`
	SelectedAgentIDs        string     `gorm:"column:selected_agent_ids;type:text" json:"selectedAgentIds"`
	SelectedDatabaseTaskIDs string     `gorm:"column:selected_database_task_ids;type:text" json:"selectedDatabaseTaskIds"`
	Cadence                 string     `gorm:"column:cadence;default:daily" json:"cadence"`
	CadenceHour             int        `gorm:"column:cadence_hour;default:8" json:"cadenceHour"`
	CadenceMinute           int        `gorm:"column:cadence_minute;default:0" json:"cadenceMinute"`
	CadenceDayOfWeek        int        `gorm:"column:cadence_day_of_week;default:0" json:"cadenceDayOfWeek"`
	CadenceHoursInterval    int        `gorm:"column:cadence_hours_interval;default:6" json:"cadenceHoursInterval"`
	Enabled                 bool       `gorm:"column:enabled;default:true" json:"enabled"`
	SendEnabled             bool       `gorm:"column:send_enabled;default:true" json:"sendEnabled"`
	LastSent                *time.Time `gorm:"column:last_sent" json:"lastSent"`
	NextSend                *time.Time `gorm:"column:next_send" json:"nextSend"`
	CreatedAt               time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt               time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName ReportDefinition's table name
func (*ReportDefinition) TableName() string {
	return TableNameReportDefinition
}

const TableNameReportHistory = "report_history"

// ReportHistory is one send attempt, append-only.
type ReportHistory struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ReportID     int64     `gorm:"column:report_id;not null;index:idx_report_history" json:"reportId"`
	SentAt       time.Time `gorm:"column:sent_at;not null" json:"sentAt"`
	Status       string    `gorm:"column:status;not null" json:"status"`
	ErrorMessage string    `gorm:"column:error_message" json:"errorMessage"`
}

// TableName ReportHistory's table name
func (*ReportHistory) TableName() string {
	return TableNameReportHistory
}
