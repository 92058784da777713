package relay

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/agent"
	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/pkg/storage"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAgentRepo struct {
	agent *domain.Agent
}

func (r *fakeAgentRepo) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	if r.agent != nil && r.agent.ID == id {
		return r.agent, nil
	}
	return nil, errors.New("not found")
}
func (r *fakeAgentRepo) ListActive(ctx context.Context) ([]*domain.Agent, error) { return nil, nil }
func (r *fakeAgentRepo) MarkOffline(ctx context.Context, agentID int64, at time.Time) error {
	return nil
}
func (r *fakeAgentRepo) UpsertStatus(ctx context.Context, status *domain.AgentStatus) error {
	return nil
}
func (r *fakeAgentRepo) GetStatus(ctx context.Context, agentID int64) (*domain.AgentStatus, error) {
	return nil, nil
}
func (r *fakeAgentRepo) BackupStatuses(ctx context.Context, agentID int64) (map[int64]string, error) {
	return nil, nil
}
func (r *fakeAgentRepo) ReplaceBackupRecords(ctx context.Context, agentID int64, records []*domain.AgentBackupRecord) error {
	return nil
}
func (r *fakeAgentRepo) ListBackupRecords(ctx context.Context, agentID int64) ([]*domain.AgentBackupRecord, error) {
	return nil, nil
}

type fakeFolderRepo struct {
	tasks    []*domain.FolderBackupTask
	triggers []*domain.FolderBackupHistory
}

func (r *fakeFolderRepo) GetByID(ctx context.Context, id int64) (*domain.FolderBackupTask, error) {
	for _, t := range r.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.New("not found")
}
func (r *fakeFolderRepo) ListByAgent(ctx context.Context, agentID int64) ([]*domain.FolderBackupTask, error) {
	return r.tasks, nil
}
func (r *fakeFolderRepo) ListSchedulable(ctx context.Context) ([]*domain.FolderBackupTask, error) {
	return r.tasks, nil
}
func (r *fakeFolderRepo) RecordTrigger(ctx context.Context, taskID int64, history *domain.FolderBackupHistory) error {
	r.triggers = append(r.triggers, history)
	return nil
}
func (r *fakeFolderRepo) ListHistorySince(ctx context.Context, taskID int64, since time.Time) ([]*domain.FolderBackupHistory, error) {
	return nil, nil
}

type fakeStorageRepo struct {
	config *domain.StorageConfig
}

func (r *fakeStorageRepo) GetByID(ctx context.Context, id int64) (*domain.StorageConfig, error) {
	if r.config != nil && r.config.ID == id {
		return r.config, nil
	}
	return nil, errors.New("not found")
}
func (r *fakeStorageRepo) List(ctx context.Context) ([]*domain.StorageConfig, error) {
	return nil, nil
}
func (r *fakeStorageRepo) UpdateCheckResult(ctx context.Context, id int64, result *domain.SpaceCheckResult) error {
	return nil
}
func (r *fakeStorageRepo) GetLegacyByID(ctx context.Context, id int64) (*domain.LegacyObjectConfig, error) {
	return nil, errors.New("not found")
}

type fakeClient struct {
	online   bool
	pushed   []*agent.TaskConfig
	executed []*agent.TaskConfig
	result   *agent.ExecuteResult
}

func (c *fakeClient) Ping(ctx context.Context) bool { return c.online }
func (c *fakeClient) SendTaskConfig(ctx context.Context, config *agent.TaskConfig) error {
	c.pushed = append(c.pushed, config)
	return nil
}
func (c *fakeClient) ExecuteTask(ctx context.Context, config *agent.TaskConfig) (*agent.ExecuteResult, error) {
	c.executed = append(c.executed, config)
	if c.result != nil {
		return c.result, nil
	}
	return &agent.ExecuteResult{Success: true}, nil
}

func int64Ptr(v int64) *int64 { return &v }

func testTask() *domain.FolderBackupTask {
	return &domain.FolderBackupTask{
		ID:              7,
		AgentID:         1,
		Name:            "etc backup",
		SourcePath:      "/etc",
		CronExpression:  "0 3 * * *",
		Enabled:         true,
		ScheduleEnabled: true,
		CreateArchive:   true,
		ArchiveFormat:   "tar.gz",
		CleanupEnabled:  true,
		RetentionDays:   14,
		StorageConfigID: int64Ptr(2),
	}
}

func newTestRelay(client *fakeClient) (*Relay, *fakeFolderRepo) {
	folders := &fakeFolderRepo{tasks: []*domain.FolderBackupTask{testTask()}}
	r := New(
		&fakeAgentRepo{agent: &domain.Agent{ID: 1, IPAddress: "10.0.0.5", Port: 8000}},
		folders,
		&fakeStorageRepo{config: &domain.StorageConfig{
			ID:          2,
			StorageType: storage.Object,
			ConfigData: map[string]any{
				"endpoint":    "minio.internal:9000",
				"access_key":  "ak",
				"secret_key":  "sk",
				"bucket_name": "backups",
				"region":      "us-east-1",
			},
		}},
		zap.NewNop(),
	)
	r.newClient = func(a *domain.Agent) AgentClient { return client }
	return r, folders
}

func TestBuildConfig(t *testing.T) {
	r, _ := newTestRelay(&fakeClient{online: true})

	config, err := r.BuildConfig(context.Background(), testTask())
	require.NoError(t, err)
	assert.Equal(t, int64(7), config.TaskID)
	assert.Equal(t, "/etc", config.SourcePath)
	assert.Equal(t, "minio.internal:9000", config.S3Endpoint)
	assert.Equal(t, "backups", config.S3Bucket)
	assert.Equal(t, 14, config.CleanupDays)
	assert.Equal(t, "0 3 * * *", config.ScheduleCron)
}

func TestBuildConfigRejectsNonObjectStorage(t *testing.T) {
	r, _ := newTestRelay(&fakeClient{online: true})
	r.storages = &fakeStorageRepo{config: &domain.StorageConfig{
		ID:          2,
		StorageType: storage.SFTP,
		ConfigData:  map[string]any{},
	}}

	_, err := r.BuildConfig(context.Background(), testTask())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object storage")
}

func TestPushConfigUnreachableAgent(t *testing.T) {
	client := &fakeClient{online: false}
	r, _ := newTestRelay(client)

	err := r.PushConfig(context.Background(), testTask())
	require.Error(t, err)
	assert.Empty(t, client.pushed)
}

func TestExecuteRecordsTrigger(t *testing.T) {
	client := &fakeClient{online: true}
	r, folders := newTestRelay(client)
	r.now = func() time.Time { return time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC) }

	require.NoError(t, r.Execute(context.Background(), 7))
	require.Len(t, client.executed, 1)
	require.Len(t, folders.triggers, 1)
	assert.Equal(t, domain.StatusSuccess, folders.triggers[0].Status)
}

func TestExecuteAgentRejection(t *testing.T) {
	client := &fakeClient{online: true, result: &agent.ExecuteResult{Success: false, Error: "disk full"}}
	r, folders := newTestRelay(client)

	err := r.Execute(context.Background(), 7)
	require.Error(t, err)
	require.Len(t, folders.triggers, 1)
	assert.Equal(t, domain.StatusError, folders.triggers[0].Status)
	assert.Equal(t, "disk full", folders.triggers[0].ErrorMessage)
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	client := &fakeClient{online: true}
	r, folders := newTestRelay(client)
	broken := testTask()
	broken.ID = 8
	broken.StorageConfigID = nil
	folders.tasks = append([]*domain.FolderBackupTask{broken}, folders.tasks...)

	require.NoError(t, r.SyncAll(context.Background()))
	assert.Len(t, client.pushed, 1, "the valid task is still pushed")
}
