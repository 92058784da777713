package logger

// Shared log field names so that log queries stay consistent across the
// scheduler, poller and report loops.
const (
	// FieldTaskID database backup task id
	FieldTaskID = "taskId"

	// FieldAgentID agent id
	FieldAgentID = "agentId"

	// FieldReportID report definition id
	FieldReportID = "reportId"

	// FieldStorageID storage configuration id
	FieldStorageID = "storageId"

	// FieldDatabase database name
	FieldDatabase = "database"

	// FieldPath storage or filesystem path
	FieldPath = "path"

	// FieldDuration elapsed time
	FieldDuration = "duration"

	// FieldError error message
	FieldError = "error"

	// FieldSize artifact size
	FieldSize = "size"

	// FieldStatus execution status
	FieldStatus = "status"
)
