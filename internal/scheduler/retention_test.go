package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/pkg/storage/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func retentionTask(cleanupDays int) *domain.DatabaseBackupTask {
	return &domain.DatabaseBackupTask{
		ID:             1,
		DatabaseName:   "orders",
		CleanupEnabled: true,
		CleanupDays:    cleanupDays,
	}
}

func daysAgo(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

func TestRetentionDeletesAgedArtifacts(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	be := &fakeBackend{entries: []backend.Entry{
		{Path: "backups/orders/orders_a.dump", ModTime: daysAgo(now, 10)},
		{Path: "backups/orders/orders_b.dump", ModTime: daysAgo(now, 40)},
		{Path: "backups/orders/orders_c.dump", ModTime: daysAgo(now, 100)},
	}}

	r := NewRetention(newFakeTaskRepo(), "backups", zap.NewNop())
	r.now = func() time.Time { return now }

	require.NoError(t, r.Apply(context.Background(), retentionTask(30), be))
	assert.ElementsMatch(t, []string{
		"backups/orders/orders_b.dump",
		"backups/orders/orders_c.dump",
	}, be.deleted)
}

func TestRetentionFallsBackToHistoryTimes(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	// Listing carries no modification times, as some object stores do for
	// certain prefixes.
	be := &fakeBackend{entries: []backend.Entry{
		{Path: "backups/orders/orders_old.dump"},
		{Path: "backups/orders/orders_new.dump"},
		{Path: "backups/orders/orders_unknown.dump"},
	}}

	repo := newFakeTaskRepo()
	oldFinished := daysAgo(now, 45)
	newFinished := daysAgo(now, 5)
	repo.history[1] = &domain.DatabaseBackupHistory{
		ID: 1, TaskID: 1, Status: domain.StatusSuccess,
		ArtifactFilename: "orders_old.dump", FinishedAt: &oldFinished,
	}
	repo.history[2] = &domain.DatabaseBackupHistory{
		ID: 2, TaskID: 1, Status: domain.StatusSuccess,
		ArtifactFilename: "orders_new.dump", FinishedAt: &newFinished,
	}

	r := NewRetention(repo, "backups", zap.NewNop())
	r.now = func() time.Time { return now }

	require.NoError(t, r.Apply(context.Background(), retentionTask(30), be))

	// Only the artifact with a known, aged upload time is deleted. The one
	// with no history row at all is preserved.
	assert.Equal(t, []string{"backups/orders/orders_old.dump"}, be.deleted)
}

func TestRetentionDisabledWindow(t *testing.T) {
	be := &fakeBackend{entries: []backend.Entry{
		{Path: "backups/orders/orders_a.dump", ModTime: time.Now().AddDate(0, 0, -400)},
	}}
	r := NewRetention(newFakeTaskRepo(), "backups", zap.NewNop())

	require.NoError(t, r.Apply(context.Background(), retentionTask(0), be))
	assert.Empty(t, be.deleted)
}
