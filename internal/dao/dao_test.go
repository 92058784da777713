package dao

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDao(t *testing.T) *Dao {
	t.Helper()
	db, err := NewDBEngine(&DatabaseConfig{
		Type:        "sqlite",
		Path:        filepath.Join(t.TempDir(), "db.sqlite3"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	return New(db, zap.NewNop())
}

func TestTaskRepositoryLifecycle(t *testing.T) {
	d := newTestDao(t)
	repo := NewTaskRepository(d)
	ctx := context.Background()

	seed := &model.DatabaseBackupTask{
		Name:            "nightly",
		Host:            "db.local",
		Port:            5432,
		Username:        "backup",
		DatabaseName:    "app",
		CronExpression:  "0 3 * * *",
		Enabled:         true,
		ScheduleEnabled: true,
	}
	require.NoError(t, d.DB().Create(seed).Error)
	paused := &model.DatabaseBackupTask{
		Name:           "paused",
		Host:           "db.local",
		Username:       "backup",
		DatabaseName:   "app",
		CronExpression: "0 3 * * *",
	}
	require.NoError(t, d.DB().Create(paused).Error)
	// Boolean columns with defaults cannot be created false directly.
	require.NoError(t, d.DB().Model(paused).Update("enabled", false).Error)

	list, err := repo.ListSchedulable(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "nightly", list[0].Name)

	started := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	historyID, err := repo.MarkRunning(ctx, seed.ID, started)
	require.NoError(t, err)
	require.NotZero(t, historyID)

	got, err := repo.GetByID(ctx, seed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, got.LastStatus)

	finished := started.Add(42 * time.Second)
	err = repo.RecordResult(ctx, seed.ID, historyID, &domain.ExecutionResult{
		Status:           domain.StatusSuccess,
		FinishedAt:       finished,
		DurationSeconds:  42,
		ArtifactSizeMB:   128.5,
		StoragePath:      "backups/app/2026-08-31",
		ArtifactFilename: "app_20260831.dump",
	})
	require.NoError(t, err)

	got, err = repo.GetByID(ctx, seed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, got.LastStatus)
	assert.Empty(t, got.LastError)

	history, err := repo.ListHistory(ctx, seed.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusSuccess, history[0].Status)
	assert.Equal(t, "app_20260831.dump", history[0].ArtifactFilename)
	require.NotNil(t, history[0].FinishedAt)

	recent, err := repo.ListHistorySince(ctx, seed.ID, finished.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, recent, 1)
	old, err := repo.ListHistorySince(ctx, seed.ID, finished.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, old)

	next := started.Add(24 * time.Hour)
	require.NoError(t, repo.SetNextRun(ctx, seed.ID, &next))
	got, err = repo.GetByID(ctx, seed.ID)
	require.NoError(t, err)
	require.NotNil(t, got.NextRun)
	assert.Equal(t, next.Unix(), got.NextRun.Unix())
}

func TestStorageRepositoryCheckResult(t *testing.T) {
	d := newTestDao(t)
	repo := NewStorageRepository(d)
	ctx := context.Background()

	require.NoError(t, d.DB().Create(&model.StorageConfig{
		Name:        "minio",
		StorageType: "object",
		ConfigData:  `{"endpoint":"minio.local:9000","bucket_name":"backups"}`,
	}).Error)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "minio.local:9000", list[0].ConfigData["endpoint"])

	detail := "connect: connection refused"
	err = repo.UpdateCheckResult(ctx, list[0].ID, &domain.SpaceCheckResult{
		ConnectionError: &detail,
		CheckedAt:       time.Now(),
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, list[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got.ConnectionError)
	assert.Equal(t, detail, *got.ConnectionError)

	free, total := 80.0, 100.0
	err = repo.UpdateCheckResult(ctx, list[0].ID, &domain.SpaceCheckResult{
		UsedGB:    20,
		FreeGB:    &free,
		TotalGB:   &total,
		CheckedAt: time.Now(),
	})
	require.NoError(t, err)

	got, err = repo.GetByID(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got.ConnectionError)
	assert.Equal(t, 20.0, got.UsedSpaceGB)
	require.NotNil(t, got.FreeSpaceGB)
	assert.Equal(t, 80.0, *got.FreeSpaceGB)
}

func TestAgentRepositoryStatusAndRecords(t *testing.T) {
	d := newTestDao(t)
	repo := NewAgentRepository(d)
	ctx := context.Background()

	agent := &model.Agent{Name: "web-01", IPAddress: "10.0.0.4", Port: 8081, IsActive: true}
	require.NoError(t, d.DB().Create(agent).Error)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	err := repo.UpsertStatus(ctx, &domain.AgentStatus{
		AgentID:     agent.ID,
		DiskFreeGB:  80,
		DiskTotalGB: 100,
		IsOnline:    true,
		LastUpdate:  now,
	})
	require.NoError(t, err)

	status, err := repo.GetStatus(ctx, agent.ID)
	require.NoError(t, err)
	assert.True(t, status.IsOnline)
	assert.Equal(t, 80.0, status.DiskFreeGB)

	require.NoError(t, repo.MarkOffline(ctx, agent.ID, now.Add(time.Minute)))
	status, err = repo.GetStatus(ctx, agent.ID)
	require.NoError(t, err)
	assert.False(t, status.IsOnline)

	taskID := int64(7)
	err = repo.ReplaceBackupRecords(ctx, agent.ID, []*domain.AgentBackupRecord{
		{AgentID: agent.ID, TaskID: &taskID, SourcePath: "/etc", Status: domain.BackupStatusSuccess},
		{AgentID: agent.ID, SourcePath: "/var/www", Status: domain.BackupStatusError, ErrorMessage: "tar failed"},
	})
	require.NoError(t, err)

	statuses, err := repo.BackupStatuses(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{taskID: domain.BackupStatusSuccess}, statuses)

	// A fresh snapshot fully replaces the previous one.
	err = repo.ReplaceBackupRecords(ctx, agent.ID, []*domain.AgentBackupRecord{
		{AgentID: agent.ID, TaskID: &taskID, SourcePath: "/etc", Status: domain.BackupStatusError},
	})
	require.NoError(t, err)
	records, err := repo.ListBackupRecords(ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.BackupStatusError, records[0].Status)
}

func TestReportRepositoryMarkSent(t *testing.T) {
	d := newTestDao(t)
	repo := NewReportRepository(d)
	ctx := context.Background()

	require.NoError(t, d.DB().Create(&model.ReportDefinition{
		Name:             "morning",
		SelectedAgentIDs: "[1,2]",
		Cadence:          domain.CadenceDaily,
		CadenceHour:      9,
		Enabled:          true,
		SendEnabled:      true,
	}).Error)

	list, err := repo.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []int64{1, 2}, list[0].SelectedAgentIDs)

	sent := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	next := sent.Add(24 * time.Hour)
	err = repo.MarkSent(ctx, list[0].ID, &domain.ReportHistory{
		ReportID: list[0].ID,
		SentAt:   sent,
		Status:   domain.StatusSuccess,
	}, &next)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, list[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastSent)
	assert.Equal(t, sent.Unix(), got.LastSent.Unix())
	require.NotNil(t, got.NextSend)
	assert.Equal(t, next.Unix(), got.NextSend.Unix())
}

func TestSettingRepositoryUpsert(t *testing.T) {
	d := newTestDao(t)
	repo := NewSettingRepository(d)
	ctx := context.Background()

	v, err := repo.Get(ctx, "mattermost_webhook_url")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, repo.Set(ctx, "mattermost_webhook_url", "https://chat.local/hooks/a"))
	require.NoError(t, repo.Set(ctx, "mattermost_webhook_url", "https://chat.local/hooks/b"))

	v, err = repo.Get(ctx, "mattermost_webhook_url")
	require.NoError(t, err)
	assert.Equal(t, "https://chat.local/hooks/b", v)
}
