package domain

import "time"

// Report cadences.
const (
	CadenceDaily       = "daily"
	CadenceWeekly      = "weekly"
	CadenceHourly      = "hourly"
	CadenceCustomHours = "customHours"
)

// ReportDefinition describes one recurring status report.
type ReportDefinition struct {
	ID                      int64
	Name                    string
	SelectedAgentIDs        []int64
	SelectedDatabaseTaskIDs []int64
	Cadence                 string
	CadenceHour             int
	CadenceMinute           int
	CadenceDayOfWeek        int
	CadenceHoursInterval    int
	Enabled                 bool
	SendEnabled             bool
	LastSent                *time.Time
	NextSend                *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// ReportHistory is one send attempt.
type ReportHistory struct {
	ID           int64
	ReportID     int64
	SentAt       time.Time
	Status       string
	ErrorMessage string
}
