package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingTask struct {
	name       string
	interval   time.Duration
	startupRun bool
	runs       atomic.Int64
	panics     bool
}

func (t *countingTask) Name() string                { return t.name }
func (t *countingTask) LoopInterval() time.Duration { return t.interval }
func (t *countingTask) IsStartupRun() bool          { return t.startupRun }

func (t *countingTask) Run(ctx context.Context) error {
	t.runs.Add(1)
	if t.panics {
		panic("boom")
	}
	return nil
}

func TestSchedulerRunsStartupAndLoop(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	ct := &countingTask{name: "counter", interval: 10 * time.Millisecond, startupRun: true}
	s.AddTask(ct)

	s.Start()
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, ct.runs.Load(), int64(3), "startup run plus ticks")
}

func TestSchedulerStartupOnly(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	ct := &countingTask{name: "once", interval: 0, startupRun: true}
	s.AddTask(ct)

	s.Start()
	s.Stop()

	assert.Equal(t, int64(1), ct.runs.Load())
}

func TestSchedulerSurvivesPanic(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	ct := &countingTask{name: "panicky", interval: 10 * time.Millisecond, startupRun: false, panics: true}
	s.AddTask(ct)

	s.Start()
	time.Sleep(45 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, ct.runs.Load(), int64(2), "the loop keeps ticking after a panic")
}
