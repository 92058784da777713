package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/agent"
	"github.com/haierkeys/unified-backup-service/internal/domain"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAgentRepo struct {
	mu       sync.Mutex
	agents   []*domain.Agent
	statuses map[int64]*domain.AgentStatus
	records  map[int64][]*domain.AgentBackupRecord
	offline  []int64
}

func newFakeAgentRepo(agents ...*domain.Agent) *fakeAgentRepo {
	return &fakeAgentRepo{
		agents:   agents,
		statuses: make(map[int64]*domain.AgentStatus),
		records:  make(map[int64][]*domain.AgentBackupRecord),
	}
}

func (r *fakeAgentRepo) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	for _, a := range r.agents {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *fakeAgentRepo) ListActive(ctx context.Context) ([]*domain.Agent, error) {
	return r.agents, nil
}

func (r *fakeAgentRepo) MarkOffline(ctx context.Context, agentID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offline = append(r.offline, agentID)
	r.statuses[agentID] = &domain.AgentStatus{AgentID: agentID, IsOnline: false, LastUpdate: at}
	return nil
}

func (r *fakeAgentRepo) UpsertStatus(ctx context.Context, status *domain.AgentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[status.AgentID] = status
	return nil
}

func (r *fakeAgentRepo) GetStatus(ctx context.Context, agentID int64) (*domain.AgentStatus, error) {
	return r.statuses[agentID], nil
}

func (r *fakeAgentRepo) BackupStatuses(ctx context.Context, agentID int64) (map[int64]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]string)
	for _, rec := range r.records[agentID] {
		if rec.TaskID != nil {
			out[*rec.TaskID] = rec.Status
		}
	}
	return out, nil
}

func (r *fakeAgentRepo) ReplaceBackupRecords(ctx context.Context, agentID int64, records []*domain.AgentBackupRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[agentID] = records
	return nil
}

func (r *fakeAgentRepo) ListBackupRecords(ctx context.Context, agentID int64) ([]*domain.AgentBackupRecord, error) {
	return r.records[agentID], nil
}

type fakeFolderRepo struct {
	tasks []*domain.FolderBackupTask
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
	var out []*domain.FolderBackupTask
	for _, t := range r.tasks {
		if t.AgentID == agentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeFolderRepo) ListSchedulable(ctx context.Context) ([]*domain.FolderBackupTask, error) {
	return r.tasks, nil
}

func (r *fakeFolderRepo) RecordTrigger(ctx context.Context, taskID int64, history *domain.FolderBackupHistory) error {
	return nil
}

func (r *fakeFolderRepo) ListHistorySince(ctx context.Context, taskID int64, since time.Time) ([]*domain.FolderBackupHistory, error) {
	return nil, nil
}

type fakeClient struct {
	online  bool
	info    *agent.SystemInfo
	infoErr error
	backups []agent.BackupInfo
}

func (c *fakeClient) Ping(ctx context.Context) bool { return c.online }

func (c *fakeClient) SystemInfo(ctx context.Context) (*agent.SystemInfo, error) {
	if c.infoErr != nil {
		return nil, c.infoErr
	}
	return c.info, nil
}

func (c *fakeClient) Backups(ctx context.Context) ([]agent.BackupInfo, error) {
	return c.backups, nil
}

type fakeNotifier struct {
	alerts []string
}

func (n *fakeNotifier) Enabled() bool { return true }

func (n *fakeNotifier) SendBackupAlert(ctx context.Context, taskName string, errorMessage string) bool {
	n.alerts = append(n.alerts, taskName+": "+errorMessage)
	return true
}

func newTestPoller(repo *fakeAgentRepo, folders *fakeFolderRepo, notifier Notifier, client AgentClient) *Poller {
	p := New(repo, folders, notifier, zap.NewNop())
	p.newClient = func(a *domain.Agent) AgentClient { return client }
	return p
}

func TestPollAgentOffline(t *testing.T) {
	a := &domain.Agent{ID: 1, IPAddress: "10.0.0.5", Port: 8000, IsActive: true}
	repo := newFakeAgentRepo(a)
	p := newTestPoller(repo, &fakeFolderRepo{}, &fakeNotifier{}, &fakeClient{online: false})

	require.NoError(t, p.PollAll(context.Background()))

	assert.Equal(t, []int64{1}, repo.offline)
	require.NotNil(t, repo.statuses[1])
	assert.False(t, repo.statuses[1].IsOnline)
	assert.False(t, repo.statuses[1].LastUpdate.IsZero())
}

func TestPollAgentTelemetry(t *testing.T) {
	a := &domain.Agent{ID: 1, IPAddress: "10.0.0.5", Port: 8000, IsActive: true}
	repo := newFakeAgentRepo(a)
	client := &fakeClient{
		online: true,
		info: &agent.SystemInfo{
			DiskFreeGB:     120.5,
			DiskTotalGB:    500,
			MemoryFreeMB:   2048,
			MemoryTotalMB:  8192,
			CPULoadPercent: 17.3,
		},
	}
	p := newTestPoller(repo, &fakeFolderRepo{}, &fakeNotifier{}, client)

	require.NoError(t, p.PollAgent(context.Background(), a))

	status := repo.statuses[1]
	require.NotNil(t, status)
	assert.True(t, status.IsOnline)
	assert.Equal(t, 120.5, status.DiskFreeGB)
	assert.Equal(t, 8192.0, status.MemoryTotalMB)
	assert.Empty(t, repo.offline)
}

func TestPollAgentAlertOnErrorEdge(t *testing.T) {
	a := &domain.Agent{ID: 1, IPAddress: "10.0.0.5", Port: 8000, IsActive: true}
	repo := newFakeAgentRepo(a)
	folders := &fakeFolderRepo{tasks: []*domain.FolderBackupTask{
		{ID: 7, AgentID: 1, Name: "etc backup", SourcePath: "/etc"},
	}}
	notifier := &fakeNotifier{}
	client := &fakeClient{
		online: true,
		info:   &agent.SystemInfo{},
		backups: []agent.BackupInfo{
			{SourcePath: "/etc", Status: domain.BackupStatusSuccess},
		},
	}
	p := newTestPoller(repo, folders, notifier, client)
	ctx := context.Background()

	// success, then two consecutive error reports: the alert fires once,
	// on the transition only.
	require.NoError(t, p.PollAgent(ctx, a))
	assert.Empty(t, notifier.alerts)

	client.backups = []agent.BackupInfo{
		{SourcePath: "/etc", Status: domain.BackupStatusError, ErrorMessage: "tar failed"},
	}
	require.NoError(t, p.PollAgent(ctx, a))
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, "etc backup: tar failed", notifier.alerts[0])

	require.NoError(t, p.PollAgent(ctx, a))
	assert.Len(t, notifier.alerts, 1)
}

func TestPollAgentSnapshotReplace(t *testing.T) {
	a := &domain.Agent{ID: 1, IPAddress: "10.0.0.5", Port: 8000, IsActive: true}
	repo := newFakeAgentRepo(a)
	folders := &fakeFolderRepo{tasks: []*domain.FolderBackupTask{
		{ID: 7, AgentID: 1, Name: "etc backup", SourcePath: "/etc"},
		{ID: 8, AgentID: 1, Name: "var backup", SourcePath: "/var/lib"},
	}}
	client := &fakeClient{
		online: true,
		info:   &agent.SystemInfo{},
		backups: []agent.BackupInfo{
			{SourcePath: "/etc", ArchiveName: "etc_20260830.tar.gz", BackupDate: "2026-08-30T02:00:00Z", Status: domain.BackupStatusSuccess},
			{SourcePath: "/opt/unknown", Status: domain.BackupStatusSuccess},
			{SourcePath: "/var/lib", BackupDate: "not-a-date", Status: domain.BackupStatusUploading},
		},
	}
	p := newTestPoller(repo, folders, &fakeNotifier{}, client)

	require.NoError(t, p.PollAgent(context.Background(), a))

	records := repo.records[1]
	require.Len(t, records, 2, "backups without a matching task are dropped")

	require.NotNil(t, records[0].BackupDate)
	assert.Equal(t, 2026, records[0].BackupDate.Year())
	require.NotNil(t, records[0].TaskID)
	assert.Equal(t, int64(7), *records[0].TaskID)

	assert.Nil(t, records[1].BackupDate, "unparseable dates become nil")
	assert.Equal(t, domain.BackupStatusUploading, records[1].Status)
}

func TestParseReportedTime(t *testing.T) {
	assert.Nil(t, parseReportedTime(""))
	assert.Nil(t, parseReportedTime("yesterday"))
	require.NotNil(t, parseReportedTime("2026-08-30T02:00:00Z"))
	require.NotNil(t, parseReportedTime("2026-08-30T02:00:00"))
}
