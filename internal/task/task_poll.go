package task

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/poller"
)

// PollTask runs the agent reconciliation pass.
type PollTask struct {
	poller   *poller.Poller
	interval time.Duration
}

func (t *PollTask) Name() string {
	return "AgentPoll"
}

func (t *PollTask) LoopInterval() time.Duration {
	return t.interval
}

func (t *PollTask) IsStartupRun() bool {
	return true
}

func (t *PollTask) Run(ctx context.Context) error {
	return t.poller.PollAll(ctx)
}

func NewPollTask(p *poller.Poller, interval time.Duration) Task {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PollTask{poller: p, interval: interval}
}
