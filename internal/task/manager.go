// Package task runs the service's background loops on independent tickers.
package task

import (
	"time"

	"github.com/haierkeys/unified-backup-service/internal/checker"
	"github.com/haierkeys/unified-backup-service/internal/poller"
	"github.com/haierkeys/unified-backup-service/internal/relay"
	"github.com/haierkeys/unified-backup-service/internal/report"
	"github.com/haierkeys/unified-backup-service/internal/scheduler"

	"go.uber.org/zap"
)

// Intervals holds the loop cadences, zero values fall back to defaults.
type Intervals struct {
	Resync     time.Duration
	Poll       time.Duration
	Report     time.Duration
	Check      time.Duration
	FolderSync time.Duration
}

// Deps are the components the background loops drive.
type Deps struct {
	Scheduler *scheduler.Scheduler
	Poller    *poller.Poller
	Reports   *report.Scheduler
	Checker   *checker.Checker
	Relay     *relay.Relay
}

// Manager creates and owns all background task loops.
type Manager struct {
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewManager creates the task manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		scheduler: NewScheduler(logger),
		logger:    logger,
	}
}

// RegisterTasks wires one loop per component. Components left nil are
// skipped so tests and trimmed deployments can run a subset.
func (m *Manager) RegisterTasks(deps Deps, intervals Intervals) {
	if deps.Scheduler != nil {
		m.scheduler.AddTask(NewResyncTask(deps.Scheduler, intervals.Resync))
	}
	if deps.Poller != nil {
		m.scheduler.AddTask(NewPollTask(deps.Poller, intervals.Poll))
	}
	if deps.Reports != nil {
		m.scheduler.AddTask(NewReportTask(deps.Reports, intervals.Report))
	}
	if deps.Checker != nil {
		m.scheduler.AddTask(NewCheckTask(deps.Checker, intervals.Check))
	}
	if deps.Relay != nil {
		m.scheduler.AddTask(NewFolderSyncTask(deps.Relay, intervals.FolderSync))
	}
}

// Start launches all registered loops.
func (m *Manager) Start() {
	m.scheduler.Start()
}

// Stop signals all loops and waits for them to exit.
func (m *Manager) Stop() {
	m.scheduler.Stop()
}
