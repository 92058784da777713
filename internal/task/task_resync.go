package task

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/scheduler"
)

// ResyncTask reloads the live cron job set from the task table.
type ResyncTask struct {
	scheduler *scheduler.Scheduler
	interval  time.Duration
}

func (t *ResyncTask) Name() string {
	return "SchedulerResync"
}

func (t *ResyncTask) LoopInterval() time.Duration {
	return t.interval
}

func (t *ResyncTask) IsStartupRun() bool {
	return true
}

func (t *ResyncTask) Run(ctx context.Context) error {
	return t.scheduler.Resync(ctx)
}

func NewResyncTask(s *scheduler.Scheduler, interval time.Duration) Task {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ResyncTask{scheduler: s, interval: interval}
}
