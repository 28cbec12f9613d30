package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultStuckCheckInterval = 5 * time.Minute

// TaskRunnerConfig sizes the worker pool and queue and tunes stuck-task
// detection.
type TaskRunnerConfig struct {
	// WorkerCount is the number of goroutines executing tasks.
	WorkerCount int

	// QueueSize bounds the in-memory task queue.
	QueueSize int

	// StuckTaskAge is how long a task may sit in the processing state
	// before the monitor resets it to pending.
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval is how often the monitor runs. Zero means
	// every five minutes.
	StuckTaskCheckInterval time.Duration
}

// TaskRunner executes background tasks on a worker pool. Every task is
// persisted before it is queued, so work submitted shortly before a crash
// can be recovered on the next start.
type TaskRunner struct {
	store    TaskStore
	resolver TaskResolver
	queue    chan Task
	config   TaskRunnerConfig
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = defaultStuckCheckInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &TaskRunner{
		store:  store,
		queue:  make(chan Task, config.QueueSize),
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetResolver installs the resolver used to rebuild executable tasks from
// their stored records during recovery. Without one, recovered tasks fail
// when they run.
func (r *TaskRunner) SetResolver(resolver TaskResolver) {
	r.resolver = resolver
}

// Submit persists the task and queues it for execution. The save happens
// first; a task that made it to the database is never lost, even if the
// queue rejects it on a later restart.
func (r *TaskRunner) Submit(ctx context.Context, t Task) error {
	if err := r.store.SaveTask(ctx, t); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	select {
	case r.queue <- t:
		return nil
	default:
		return fmt.Errorf("task queue is full, try again later")
	}
}

// Start recovers unfinished tasks from the store, then launches the worker
// pool and the stuck-task monitor.
func (r *TaskRunner) Start() error {
	if err := r.recoverTasks(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop cancels all workers and waits for in-flight tasks to finish.
func (r *TaskRunner) Stop() {
	r.cancel()
	r.wg.Wait()
	close(r.queue)
}

// recoverTasks requeues tasks left pending by a previous run and resets tasks
// that were mid-processing when the process died.
func (r *TaskRunner) recoverTasks() error {
	ctx := context.Background()

	pending, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Age zero: any task still marked processing at startup was interrupted.
	interrupted, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	if len(pending)+len(interrupted) > 0 {
		r.logger.Info("recovering unfinished tasks",
			"pending_count", len(pending),
			"processing_count", len(interrupted))
	}

	for _, t := range pending {
		r.requeue(t)
	}

	for _, t := range interrupted {
		if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset interrupted task",
				"task_id", t.ID(),
				"task_type", t.Type(),
				"error", err)
			continue
		}
		r.requeue(t)
	}

	return nil
}

// requeue resolves a stored task into its executable form and puts it back
// on the queue. When resolution fails the raw record is queued anyway so the
// failure surfaces through the normal task-failed path instead of the work
// silently disappearing.
func (r *TaskRunner) requeue(t Task) {
	if r.resolver != nil {
		resolved, err := r.resolver.Resolve(t.ID(), t.Type(), t.Payload())
		if err != nil {
			r.logger.Error("failed to resolve recovered task",
				"task_id", t.ID(),
				"task_type", t.Type(),
				"error", err)
		} else {
			t = resolved
		}
	}

	select {
	case r.queue <- t:
	default:
		r.logger.Error("task queue full during requeue",
			"task_id", t.ID(),
			"task_type", t.Type())
	}
}

func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case t, ok := <-r.queue:
			if !ok {
				return
			}
			r.runTask(t, id)
		}
	}
}

// runTask executes one task and records its outcome. Status-write failures
// are logged but never mask the task's own result.
func (r *TaskRunner) runTask(t Task, workerID int) {
	ctx := context.Background()
	log := r.logger.With(
		"task_id", t.ID(),
		"task_type", t.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusProcessing, ""); err != nil {
		log.Error("failed to mark task processing", "error", err)
		return
	}

	log.Info("processing task")

	if err := t.Execute(ctx); err != nil {
		log.Error("task execution failed", "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to mark task failed", "error", updateErr)
		}
		return
	}

	log.Info("task completed")
	if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusCompleted, ""); err != nil {
		log.Error("failed to mark task completed", "error", err)
	}
}

// stuckTaskMonitor periodically resets tasks that have sat in the
// processing state longer than StuckTaskAge, which catches workers that
// died without updating their task.
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			ctx := context.Background()

			stuck, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}
			if len(stuck) == 0 {
				continue
			}

			r.logger.Info("resetting stuck tasks", "count", len(stuck))
			for _, t := range stuck {
				if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusPending,
					"Reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck task",
						"task_id", t.ID(),
						"task_type", t.Type(),
						"error", err)
					continue
				}
				r.requeue(t)
			}
		}
	}
}
