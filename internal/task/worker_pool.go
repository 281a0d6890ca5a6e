package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/kanji-api/internal/platform/logger"
)

// WorkerPoolConfig contains configuration for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount is the number of concurrent workers. Values below 1 mean 1.
	WorkerCount int
}

// PoolStats counts finished tasks.
type PoolStats struct {
	Completed int64
	Failed    int64
}

// WorkerPool runs tasks from a queue on a fixed number of goroutines.
// A task that fails or panics is logged and handed to the error handler;
// the worker keeps going.
type WorkerPool struct {
	taskQueue   TaskQueueReader
	workerCount int
	logger      *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	completed atomic.Int64
	failed    atomic.Int64

	// errorHandler is set before Start and read by workers.
	errorHandler func(task Task, err error)
}

// NewWorkerPool creates a stopped pool reading from taskQueue.
func NewWorkerPool(taskQueue TaskQueueReader, config WorkerPoolConfig, log *slog.Logger) *WorkerPool {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "worker_pool"))

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		log.Warn("invalid worker count, using 1", slog.Int("specified_count", config.WorkerCount))
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetErrorHandler registers a callback for failed tasks. It must be called
// before Start.
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Start launches the workers.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", slog.Int("worker_count", p.workerCount))
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels running tasks and waits for every worker to return.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	stats := p.Stats()
	p.logger.Info("worker pool stopped",
		slog.Int64("completed", stats.Completed),
		slog.Int64("failed", stats.Failed))
}

// Run starts the pool, blocks until ctx is done, then stops it.
func (p *WorkerPool) Run(ctx context.Context) error {
	p.Start()
	<-ctx.Done()
	p.Stop()
	return nil
}

// Stats returns the number of tasks finished so far.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	tasks := p.taskQueue.GetChannel()
	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-tasks:
			if !ok {
				p.logger.Debug("task channel closed, stopping worker", slog.Int("worker_id", id))
				return
			}
			p.process(t, id)
		}
	}
}

func (p *WorkerPool) process(t Task, workerID int) {
	log := p.logger.With(
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()),
		slog.Int("worker_id", workerID),
	)
	// Tasks log through the context so their lines carry the task id.
	ctx := logger.WithLogger(p.ctx, log)

	start := time.Now()
	err := p.execute(ctx, t)
	elapsed := slog.Duration("duration", time.Since(start))

	if err != nil {
		p.failed.Add(1)
		log.Error("task failed", slog.String("error", err.Error()), elapsed)
		if p.errorHandler != nil {
			p.errorHandler(t, err)
		}
		return
	}
	p.completed.Add(1)
	log.Info("task completed", elapsed)
}

func (p *WorkerPool) execute(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContextOrDefault(ctx, p.logger).Error("task panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return t.Execute(ctx)
}
