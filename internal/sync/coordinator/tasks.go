package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stacklok/keysync/internal/detection"
	"github.com/stacklok/keysync/internal/tasks"
)

// registerTasks binds both background tasks to the scheduler
func (c *defaultCoordinator) registerTasks() error {
	for _, task := range []tasks.Task{
		{
			Name:     DetectionTaskName,
			Interval: c.config.GetDetectionTaskInterval(),
			Cron:     c.config.Tasks.DetectionCron,
			Handler:  c.handleDetectionTask,
		},
		{
			Name:     TestResultsTaskName,
			Interval: c.config.GetTestResultsInterval(),
			Cron:     c.config.Tasks.TestResultsCron,
			Handler:  c.handleTestResultsTask,
		},
	} {
		if err := c.scheduler.RegisterTask(task); err != nil {
			return fmt.Errorf("failed to register task %s: %w", task.Name, err)
		}
	}
	return nil
}

// handleDetectionTask runs detection when due. In manual mode it only keeps the archive in sync.
func (c *defaultCoordinator) handleDetectionTask(ctx context.Context, deadline time.Time, complete func(bool)) {
	slog.Debug("Detection task fired", "deadline", deadline)

	if c.policy.Mode == detection.ModeManual {
		complete(c.logTaskResult(DetectionTaskName, c.RunSync(ctx)))
		return
	}

	_, err := c.RunDetection(ctx, false)
	if errors.Is(err, ErrNotDue) {
		slog.Debug("Exposure detection not due, skipping", "task", DetectionTaskName)
		complete(true)
		return
	}
	complete(c.logTaskResult(DetectionTaskName, err))
}

// handleTestResultsTask runs a sync-only pass
func (c *defaultCoordinator) handleTestResultsTask(ctx context.Context, deadline time.Time, complete func(bool)) {
	slog.Debug("Sync task fired", "deadline", deadline)
	complete(c.logTaskResult(TestResultsTaskName, c.RunSync(ctx)))
}

func (*defaultCoordinator) logTaskResult(task string, err error) bool {
	if err != nil {
		slog.Warn("Task run failed", "task", task, "error", err)
		return false
	}
	return true
}
