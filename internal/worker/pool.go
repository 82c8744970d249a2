// Package worker runs background document generation off the postgres
// queue.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bootlang/services/agent-api/internal/domain/agent"
	"bootlang/services/agent-api/internal/infrastructure/queue"
	"bootlang/services/agent-api/internal/webhook"
)

// Pool manages a set of generation workers.
type Pool struct {
	workers     []*Worker
	queue       queue.TaskQueue
	service     *agent.Service
	webhook     *webhook.HTTPService
	workerCount int
	taskTimeout time.Duration
	log         zerolog.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// Config holds worker pool configuration.
type Config struct {
	WorkerCount int
	TaskTimeout time.Duration
}

// NewPool creates a new worker pool.
func NewPool(cfg Config, q queue.TaskQueue, service *agent.Service, wh *webhook.HTTPService, log zerolog.Logger) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 5 * time.Minute
	}

	return &Pool{
		queue:       q,
		service:     service,
		webhook:     wh,
		workerCount: cfg.WorkerCount,
		taskTimeout: cfg.TaskTimeout,
		log:         log.With().Str("component", "worker-pool").Logger(),
		stopChan:    make(chan struct{}),
	}
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	p.log.Info().Int("worker_count", p.workerCount).Msg("starting worker pool")

	for i := 0; i < p.workerCount; i++ {
		w := NewWorker(i, p.queue, p.service, p.webhook, p.taskTimeout, p.log)
		p.workers = append(p.workers, w)

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run(ctx, p.stopChan)
		}()
	}
}

// Stop signals all workers to finish and waits up to 30 seconds.
func (p *Pool) Stop() {
	p.log.Info().Msg("stopping worker pool")
	close(p.stopChan)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("worker pool stopped")
	case <-time.After(30 * time.Second):
		p.log.Warn().Msg("worker pool stop timed out")
	}
}
