package task

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/report"
)

// ReportTask runs the per-minute report should-fire evaluation.
type ReportTask struct {
	scheduler *report.Scheduler
	interval  time.Duration
}

func (t *ReportTask) Name() string {
	return "ReportEvaluate"
}

func (t *ReportTask) LoopInterval() time.Duration {
	return t.interval
}

func (t *ReportTask) IsStartupRun() bool {
	return false
}

func (t *ReportTask) Run(ctx context.Context) error {
	return t.scheduler.Evaluate(ctx)
}

func NewReportTask(s *report.Scheduler, interval time.Duration) Task {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReportTask{scheduler: s, interval: interval}
}
