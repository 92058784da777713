// Package poller reconciles live agent state into the local records and
// raises alerts on backup status transitions.
package poller

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/agent"
	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AgentClient is the slice of the agent HTTP contract the poller consumes.
// *agent.Client is the production implementation.
type AgentClient interface {
	Ping(ctx context.Context) bool
	SystemInfo(ctx context.Context) (*agent.SystemInfo, error)
	Backups(ctx context.Context) ([]agent.BackupInfo, error)
}

// ClientFactory builds a client for one agent.
type ClientFactory func(a *domain.Agent) AgentClient

// Notifier delivers backup failure alerts.
type Notifier interface {
	Enabled() bool
	SendBackupAlert(ctx context.Context, taskName string, errorMessage string) bool
}

// Poller polls all active agents and merges their reported state.
type Poller struct {
	logger      *zap.Logger
	agents      domain.AgentRepository
	folderTasks domain.FolderTaskRepository
	notifier    Notifier
	newClient   ClientFactory
	now         func() time.Time
}

func New(agents domain.AgentRepository, folderTasks domain.FolderTaskRepository, notifier Notifier, log *zap.Logger) *Poller {
	return &Poller{
		logger:      log,
		agents:      agents,
		folderTasks: folderTasks,
		notifier:    notifier,
		newClient: func(a *domain.Agent) AgentClient {
			return agent.NewClient(a.IPAddress, a.Port)
		},
		now: time.Now,
	}
}

// PollAll runs one reconciliation pass over all active agents. Agents are
// polled sequentially and one agent's failure never aborts the rest.
func (p *Poller) PollAll(ctx context.Context) error {
	agents, err := p.agents.ListActive(ctx)
	if err != nil {
		return errors.Wrap(err, "poller: list agents")
	}

	for _, a := range agents {
		if err := p.PollAgent(ctx, a); err != nil {
			p.logger.Error("agent poll failed",
				zap.Int64(logger.FieldAgentID, a.ID),
				zap.String("address", a.IPAddress),
				zap.Error(err))
		}
	}
	return nil
}

// PollAgent reconciles a single agent.
func (p *Poller) PollAgent(ctx context.Context, a *domain.Agent) error {
	client := p.newClient(a)
	now := p.now().UTC()

	if !client.Ping(ctx) {
		return p.agents.MarkOffline(ctx, a.ID, now)
	}

	status := &domain.AgentStatus{
		AgentID:    a.ID,
		IsOnline:   true,
		LastUpdate: now,
	}
	if info, err := client.SystemInfo(ctx); err != nil {
		p.logger.Warn("agent telemetry unavailable",
			zap.Int64(logger.FieldAgentID, a.ID),
			zap.Error(err))
	} else {
		status.DiskFreeGB = info.DiskFreeGB
		status.DiskTotalGB = info.DiskTotalGB
		status.MemoryFreeMB = info.MemoryFreeMB
		status.MemoryTotalMB = info.MemoryTotalMB
		status.CPULoadPercent = info.CPULoadPercent
		status.NetworkRxMB = info.NetworkRxMB
		status.NetworkTxMB = info.NetworkTxMB
	}
	if err := p.agents.UpsertStatus(ctx, status); err != nil {
		return errors.Wrap(err, "poller: update status")
	}

	backups, err := client.Backups(ctx)
	if err != nil {
		p.logger.Warn("agent backup list unavailable",
			zap.Int64(logger.FieldAgentID, a.ID),
			zap.Error(err))
		return nil
	}

	return p.reconcileBackups(ctx, a, backups)
}

// reconcileBackups replaces the agent's backup records with the reported
// snapshot and fires an alert for every status edge into error.
func (p *Poller) reconcileBackups(ctx context.Context, a *domain.Agent, backups []agent.BackupInfo) error {
	previous, err := p.agents.BackupStatuses(ctx, a.ID)
	if err != nil {
		return errors.Wrap(err, "poller: capture previous statuses")
	}

	tasks, err := p.folderTasks.ListByAgent(ctx, a.ID)
	if err != nil {
		return errors.Wrap(err, "poller: list folder tasks")
	}
	bySourcePath := make(map[string]*domain.FolderBackupTask, len(tasks))
	for _, t := range tasks {
		bySourcePath[t.SourcePath] = t
	}

	type transition struct {
		taskName string
		message  string
	}
	var alerts []transition

	var records []*domain.AgentBackupRecord
	for _, b := range backups {
		task, ok := bySourcePath[b.SourcePath]
		if !ok {
			continue
		}

		records = append(records, &domain.AgentBackupRecord{
			AgentID:        a.ID,
			TaskID:         &task.ID,
			SourcePath:     b.SourcePath,
			ArchiveName:    b.ArchiveName,
			BackupDate:     parseReportedTime(b.BackupDate),
			UploadDate:     parseReportedTime(b.UploadDate),
			ArtifactSizeMB: b.ArchiveSizeMB,
			StoragePath:    b.StoragePath,
			Status:         b.Status,
			ErrorMessage:   b.ErrorMessage,
		})

		if b.Status == domain.BackupStatusError && previous[task.ID] != domain.BackupStatusError {
			message := b.ErrorMessage
			if message == "" {
				message = "Unknown error"
			}
			alerts = append(alerts, transition{taskName: task.Name, message: message})
		}
	}

	if err := p.agents.ReplaceBackupRecords(ctx, a.ID, records); err != nil {
		return errors.Wrap(err, "poller: replace backup records")
	}

	if p.notifier != nil && p.notifier.Enabled() {
		for _, alert := range alerts {
			p.notifier.SendBackupAlert(ctx, alert.taskName, alert.message)
		}
	}
	return nil
}

// parseReportedTime coerces an agent-reported ISO-8601 string. Unparseable
// input yields nil, never a failure.
func parseReportedTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
