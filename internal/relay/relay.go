// Package relay pushes folder backup job definitions to agents and triggers
// runs. The folder copy itself always happens on the agent machine.
package relay

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/agent"
	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/pkg/logger"
	"github.com/haierkeys/unified-backup-service/pkg/storage"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AgentClient is the slice of the agent contract the relay consumes.
type AgentClient interface {
	Ping(ctx context.Context) bool
	SendTaskConfig(ctx context.Context, config *agent.TaskConfig) error
	ExecuteTask(ctx context.Context, config *agent.TaskConfig) (*agent.ExecuteResult, error)
}

// ClientFactory builds a client for one agent.
type ClientFactory func(a *domain.Agent) AgentClient

// Relay converges agent-side job configuration with the stored definitions.
type Relay struct {
	logger      *zap.Logger
	agents      domain.AgentRepository
	folderTasks domain.FolderTaskRepository
	storages    domain.StorageRepository
	newClient   ClientFactory
	now         func() time.Time
}

func New(agents domain.AgentRepository, folderTasks domain.FolderTaskRepository, storages domain.StorageRepository, log *zap.Logger) *Relay {
	return &Relay{
		logger:      log,
		agents:      agents,
		folderTasks: folderTasks,
		storages:    storages,
		newClient: func(a *domain.Agent) AgentClient {
			return agent.NewClient(a.IPAddress, a.Port)
		},
		now: time.Now,
	}
}

// BuildConfig assembles the wire config for a task. Folder backups upload
// straight from the agent to object storage, so the destination must be an
// object-type configuration.
func (r *Relay) BuildConfig(ctx context.Context, task *domain.FolderBackupTask) (*agent.TaskConfig, error) {
	if task.StorageConfigID == nil {
		return nil, errors.New("relay: task has no storage configuration")
	}
	cfg, err := r.storages.GetByID(ctx, *task.StorageConfigID)
	if err != nil {
		return nil, errors.Wrap(err, "relay: load storage config")
	}
	if cfg.StorageType != storage.Object && cfg.StorageType != storage.ObjectLegacy {
		return nil, errors.Errorf("relay: folder backups require object storage, got %q", cfg.StorageType)
	}

	str := func(key string) string {
		v, _ := cfg.ConfigData[key].(string)
		return v
	}
	return &agent.TaskConfig{
		TaskID:            task.ID,
		SourcePath:        task.SourcePath,
		CreateArchive:     task.CreateArchive,
		ArchiveFormat:     task.ArchiveFormat,
		S3Endpoint:        str("endpoint"),
		S3AccessKey:       str("access_key"),
		S3SecretKey:       str("secret_key"),
		S3Bucket:          str("bucket_name"),
		S3Region:          str("region"),
		CleanupEnabled:    task.CleanupEnabled,
		CleanupDays:       task.RetentionDays,
		IsDockerCompose:   task.IsDockerCompose,
		DockerComposePath: task.DockerCompose,
		ScheduleCron:      task.CronExpression,
	}, nil
}

// PushConfig sends the task's current definition to its agent.
func (r *Relay) PushConfig(ctx context.Context, task *domain.FolderBackupTask) error {
	a, err := r.agents.GetByID(ctx, task.AgentID)
	if err != nil {
		return errors.Wrap(err, "relay: load agent")
	}
	config, err := r.BuildConfig(ctx, task)
	if err != nil {
		return err
	}

	client := r.newClient(a)
	if !client.Ping(ctx) {
		return errors.Errorf("relay: agent %s unreachable", a.IPAddress)
	}
	if err := client.SendTaskConfig(ctx, config); err != nil {
		return errors.Wrap(err, "relay: push task config")
	}
	r.logger.Info("folder task config pushed",
		zap.Int64(logger.FieldTaskID, task.ID),
		zap.Int64(logger.FieldAgentID, a.ID))
	return nil
}

// Execute triggers one run on the agent and records the outcome.
func (r *Relay) Execute(ctx context.Context, taskID int64) error {
	task, err := r.folderTasks.GetByID(ctx, taskID)
	if err != nil {
		return errors.Wrap(err, "relay: load task")
	}
	a, err := r.agents.GetByID(ctx, task.AgentID)
	if err != nil {
		return errors.Wrap(err, "relay: load agent")
	}

	startedAt := r.now().UTC()
	history := &domain.FolderBackupHistory{
		TaskID:    task.ID,
		StartedAt: startedAt,
	}
	finish := func(status, errMsg string) error {
		finishedAt := r.now().UTC()
		history.Status = status
		history.FinishedAt = &finishedAt
		history.ErrorMessage = errMsg
		return r.folderTasks.RecordTrigger(ctx, task.ID, history)
	}

	config, err := r.BuildConfig(ctx, task)
	if err != nil {
		if recErr := finish(domain.StatusError, err.Error()); recErr != nil {
			r.logger.Error("folder trigger record failed", zap.Error(recErr))
		}
		return err
	}

	client := r.newClient(a)
	result, err := client.ExecuteTask(ctx, config)
	if err != nil {
		if recErr := finish(domain.StatusError, err.Error()); recErr != nil {
			r.logger.Error("folder trigger record failed", zap.Error(recErr))
		}
		return err
	}
	if !result.Success {
		if recErr := finish(domain.StatusError, result.Error); recErr != nil {
			r.logger.Error("folder trigger record failed", zap.Error(recErr))
		}
		return errors.Errorf("relay: agent rejected execution: %s", result.Error)
	}

	r.logger.Info("folder task triggered",
		zap.Int64(logger.FieldTaskID, task.ID),
		zap.Int64(logger.FieldAgentID, a.ID))
	return finish(domain.StatusSuccess, "")
}

// SyncAll re-pushes every schedulable task definition so restarted or newly
// provisioned agents converge with the stored configuration. One task's
// failure never blocks the rest.
func (r *Relay) SyncAll(ctx context.Context) error {
	tasks, err := r.folderTasks.ListSchedulable(ctx)
	if err != nil {
		return errors.Wrap(err, "relay: list folder tasks")
	}
	for _, task := range tasks {
		if err := r.PushConfig(ctx, task); err != nil {
			r.logger.Warn("folder task config push failed",
				zap.Int64(logger.FieldTaskID, task.ID),
				zap.Error(err))
		}
	}
	return nil
}
