package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seoscout/seoscout/internal/seo"
)

const progressCeiling = 85

// Handle lets callers wait for a background run to finish. Primarily used
// by tests; the HTTP surface polls the registry instead.
type Handle struct {
	done chan struct{}
}

// Done returns a channel closed when the run has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run has finished.
func (h *Handle) Wait() {
	<-h.done
}

// Run executes the analysis function in a goroutine, advancing the task's
// progress on a ticker while it works. A panic in the function fails the
// task instead of crashing the process. The task always ends terminal.
func (r *Registry) Run(ctx context.Context, taskID string, run func(ctx context.Context) (seo.AnalysisResult, error)) *Handle {
	handle := &Handle{done: make(chan struct{})}

	go func() {
		defer close(handle.done)
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("analysis run panicked",
					zap.String("task_id", taskID),
					zap.Any("panic", rec),
				)
				r.FailTask(taskID, fmt.Errorf("internal error: %v", rec))
			}
		}()

		r.UpdateProgress(taskID, 10, "initializing data collection")

		tickCtx, stopTicking := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.tickProgress(tickCtx, taskID)
		}()
		defer func() {
			stopTicking()
			wg.Wait()
		}()

		result, err := run(ctx)
		stopTicking()
		wg.Wait()

		if err != nil {
			r.FailTask(taskID, err)
			return
		}
		r.CompleteTask(taskID, result)
	}()

	return handle
}

// tickProgress bumps the task by ten points per interval, topping out below
// completion so only a real result reaches 100.
func (r *Registry) tickProgress(ctx context.Context, taskID string) {
	ticker := time.NewTicker(r.cfg.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task, ok := r.GetTask(taskID)
			if !ok || task.Status.IsTerminal() {
				return
			}
			next := task.Progress + 10
			if next > progressCeiling {
				return
			}
			r.UpdateProgress(taskID, next, fmt.Sprintf("analysis in progress... %d%%", next))
		}
	}
}
