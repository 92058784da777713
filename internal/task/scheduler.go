package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one periodic background loop.
type Task interface {
	Name() string
	Run(ctx context.Context) error
	LoopInterval() time.Duration
	IsStartupRun() bool
}

// Scheduler runs registered tasks on their own tickers.
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates a task scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make([]Task, 0),
		stop:   make(chan struct{}),
	}
}

// AddTask registers a task.
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start launches all registered tasks.
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		s.startTask(task)
	}
}

// Stop signals all tasks and waits for their loops to exit.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

// startTask launches a single task loop.
func (s *Scheduler) startTask(task Task) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if task.IsStartupRun() {
			s.logger.Info("task running", zap.String("name", task.Name()), zap.Bool("startupRun", true))
			s.runOnce(task, true)
		}

		if task.LoopInterval() <= 0 {
			return
		}

		ticker := time.NewTicker(task.LoopInterval())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.logger.Debug("task running", zap.String("name", task.Name()), zap.Bool("loopRun", true))
				s.runOnce(task, false)
			case <-s.stop:
				s.logger.Info("task stopped", zap.String("name", task.Name()))
				return
			}
		}
	}()
}

// runOnce executes a task with panic isolation.
func (s *Scheduler) runOnce(task Task, startup bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				zap.String("name", task.Name()),
				zap.Bool("startupRun", startup),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	if err := task.Run(context.Background()); err != nil {
		s.logger.Error("task running error",
			zap.String("name", task.Name()),
			zap.Bool("startupRun", startup),
			zap.Error(err))
	}
}
