package scheduler

import (
	"context"
	"path"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/internal/dump"
	"github.com/haierkeys/unified-backup-service/pkg/logger"
	"github.com/haierkeys/unified-backup-service/pkg/storage"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Retention deletes stored artifacts older than a task's cleanup window.
type Retention struct {
	logger    *zap.Logger
	tasks     domain.TaskRepository
	namespace string
	now       func() time.Time
}

func NewRetention(tasks domain.TaskRepository, namespace string, log *zap.Logger) *Retention {
	if namespace == "" {
		namespace = "backups"
	}
	return &Retention{
		logger:    log,
		tasks:     tasks,
		namespace: namespace,
		now:       time.Now,
	}
}

// Apply lists the task's namespace prefix and deletes every artifact older
// than now minus cleanupDays. When the backend listing carries no
// modification time, the artifact's own history row decides; an artifact
// with neither is left alone rather than guessed at.
func (r *Retention) Apply(ctx context.Context, task *domain.DatabaseBackupTask, backend storage.Backend) error {
	if task.CleanupDays <= 0 {
		return nil
	}

	prefix := r.namespace + "/" + dump.SanitizeName(task.DatabaseName)
	entries, err := backend.ListWithInfo(ctx, prefix)
	if err != nil {
		return errors.Wrapf(err, "retention: list %s", prefix)
	}

	cutoff := r.now().AddDate(0, 0, -task.CleanupDays)

	var historyTimes map[string]time.Time
	deleted := 0
	for _, entry := range entries {
		modTime := entry.ModTime
		if modTime.IsZero() {
			if historyTimes == nil {
				historyTimes, err = r.uploadTimes(ctx, task.ID)
				if err != nil {
					return err
				}
			}
			modTime = historyTimes[path.Base(entry.Path)]
		}
		if modTime.IsZero() || !modTime.Before(cutoff) {
			continue
		}

		if err := backend.Delete(ctx, entry.Path); err != nil {
			r.logger.Warn("retention delete failed",
				zap.Int64(logger.FieldTaskID, task.ID),
				zap.String(logger.FieldPath, entry.Path),
				zap.Error(err))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		r.logger.Info("retention pass removed artifacts",
			zap.Int64(logger.FieldTaskID, task.ID),
			zap.Int("deleted", deleted),
			zap.Int("cleanupDays", task.CleanupDays))
	}
	return nil
}

// uploadTimes maps artifact filenames to their recorded finish time.
func (r *Retention) uploadTimes(ctx context.Context, taskID int64) (map[string]time.Time, error) {
	rows, err := r.tasks.ListHistory(ctx, taskID, 0)
	if err != nil {
		return nil, errors.Wrap(err, "retention: load history")
	}
	times := make(map[string]time.Time, len(rows))
	for _, h := range rows {
		if h.Status == domain.StatusSuccess && h.ArtifactFilename != "" && h.FinishedAt != nil {
			times[h.ArtifactFilename] = *h.FinishedAt
		}
	}
	return times, nil
}
