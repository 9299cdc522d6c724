package modal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull    = errors.New("modal load queue full")
	ErrPoolShutdown = errors.New("modal load pool shut down")
)

// Job is one asynchronous modal load.
type Job func()

type worker struct {
	id         int
	workerPool chan chan Job
	jobChannel chan Job
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan Job, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan Job),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.workerPool <- w.jobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.jobChannel:
				w.run(job)
			case <-ctx.Done():
				w.logger.Debug("modal worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

func (w *worker) run(job Job) {
	defer func() {
		if rec := recover(); rec != nil {
			w.logger.Error("modal load panicked", "worker_id", w.id, "panic", rec)
		}
	}()
	job()
}

// Pool bounds the number of concurrent modal loads.
type Pool struct {
	logger *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewPool(maxWorkers, queueSize int, logger *slog.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	p := &Pool{
		logger:     logger,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, queueSize),
		workerPool: make(chan chan Job, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			newWorker(i, p.workerPool, p.logger).start(p.ctx, &p.wg)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("modal load pool started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

func (p *Pool) dispatch() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			select {
			case jobChannel := <-p.workerPool:
				select {
				case jobChannel <- job:
				case <-p.ctx.Done():
					return
				}
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// Submit queues job without blocking.
func (p *Pool) Submit(job Job) error {
	if p.ctx.Err() != nil {
		return ErrPoolShutdown
	}
	select {
	case p.jobQueue <- job:
		return nil
	default:
		p.logger.Warn("modal load queue full", "queue_capacity", cap(p.jobQueue))
		return ErrQueueFull
	}
}

func (p *Pool) Shutdown() {
	p.logger.Info("shutting down modal load pool")
	p.cancel()
	p.wg.Wait()
}
