package task

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/checker"
)

// CheckTask probes every storage destination.
type CheckTask struct {
	checker  *checker.Checker
	interval time.Duration
}

func (t *CheckTask) Name() string {
	return "StorageCheck"
}

func (t *CheckTask) LoopInterval() time.Duration {
	return t.interval
}

func (t *CheckTask) IsStartupRun() bool {
	return true
}

func (t *CheckTask) Run(ctx context.Context) error {
	return t.checker.CheckAll(ctx)
}

func NewCheckTask(c *checker.Checker, interval time.Duration) Task {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &CheckTask{checker: c, interval: interval}
}
