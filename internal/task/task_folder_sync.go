package task

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/relay"
)

// FolderSyncTask re-pushes folder backup definitions so agents converge
// with the stored configuration after restarts or edits.
type FolderSyncTask struct {
	relay    *relay.Relay
	interval time.Duration
}

func (t *FolderSyncTask) Name() string {
	return "FolderConfigSync"
}

func (t *FolderSyncTask) LoopInterval() time.Duration {
	return t.interval
}

func (t *FolderSyncTask) IsStartupRun() bool {
	return true
}

func (t *FolderSyncTask) Run(ctx context.Context) error {
	return t.relay.SyncAll(ctx)
}

func NewFolderSyncTask(r *relay.Relay, interval time.Duration) Task {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &FolderSyncTask{relay: r, interval: interval}
}
