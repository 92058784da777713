package global

import (
	"go.uber.org/zap"
)

// Logger is the process-wide logger, set once during startup.
var Logger *zap.Logger

func Log() *zap.Logger {
	return Logger
}
