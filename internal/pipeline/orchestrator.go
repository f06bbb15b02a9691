package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Task is one long-running job. Run must return when ctx is cancelled.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Orchestrator runs tasks concurrently. The first task to fail cancels the
// rest; a task returning after cancellation counts as a clean stop.
type Orchestrator struct {
	tasks  []Task
	logger *slog.Logger
}

func NewOrchestrator(logger *slog.Logger, tasks ...Task) *Orchestrator {
	return &Orchestrator{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "orchestrator")),
	}
}

// Add appends a task; call before Run.
func (o *Orchestrator) Add(name string, run func(ctx context.Context) error) {
	o.tasks = append(o.tasks, Task{Name: name, Run: run})
}

// Run blocks until every task has returned.
func (o *Orchestrator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range o.tasks {
		g.Go(func() error {
			o.logger.Info("task starting", slog.String("task", t.Name))
			err := t.Run(gctx)
			if gctx.Err() != nil {
				o.logger.Info("task stopped", slog.String("task", t.Name))
				return nil
			}
			if err == nil {
				o.logger.Info("task finished", slog.String("task", t.Name))
				return nil
			}
			return fmt.Errorf("%s: %w", t.Name, err)
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Error("stopped with error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
