package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bootlang/services/agent-api/internal/domain/agent"
	"bootlang/services/agent-api/internal/infrastructure/metrics"
	"bootlang/services/agent-api/internal/infrastructure/observability"
	"bootlang/services/agent-api/internal/infrastructure/queue"
	"bootlang/services/agent-api/internal/webhook"
)

const pollInterval = 2 * time.Second

// Worker polls the queue and runs document generations.
type Worker struct {
	id          int
	queue       queue.TaskQueue
	service     *agent.Service
	webhook     *webhook.HTTPService
	taskTimeout time.Duration
	log         zerolog.Logger
}

// NewWorker creates a queue worker.
func NewWorker(id int, q queue.TaskQueue, service *agent.Service, wh *webhook.HTTPService, taskTimeout time.Duration, log zerolog.Logger) *Worker {
	return &Worker{
		id:          id,
		queue:       q,
		service:     service,
		webhook:     wh,
		taskTimeout: taskTimeout,
		log:         log.With().Int("worker_id", id).Logger(),
	}
}

// Run polls until the context is cancelled or stop is closed.
func (w *Worker) Run(ctx context.Context, stop <-chan struct{}) {
	w.log.Info().Msg("worker started")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopping on context cancellation")
			return
		case <-stop:
			w.log.Info().Msg("worker stopping")
			return
		case <-ticker.C:
			w.processNextTask(ctx)
		}
	}
}

func (w *Worker) processNextTask(ctx context.Context) {
	task, err := w.queue.Dequeue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to dequeue task")
		return
	}
	if task == nil {
		return
	}

	log := w.log.With().
		Str("task_id", task.PublicID).
		Str("conversation_id", task.ConversationID).
		Logger()
	log.Info().Int("attempts", task.Attempts).Msg("processing generation task")

	if err := w.queue.MarkProcessing(ctx, task.PublicID); err != nil {
		log.Error().Err(err).Msg("failed to mark task processing")
		return
	}

	started := time.Now()
	taskCtx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	taskCtx, span := observability.StartGenerationSpan(taskCtx, task.ConversationID, "queue")
	set, genErr := w.service.Generate(taskCtx, task.UserID, task.ConversationID)
	observability.RecordError(span, genErr)
	span.End()
	cancel()

	if genErr != nil {
		log.Error().Err(genErr).Msg("generation failed")
		metrics.RecordGeneration("queue", "failed", time.Since(started))

		if err := w.queue.MarkFailed(ctx, task.PublicID, genErr); err != nil {
			log.Error().Err(err).Msg("failed to mark task failed")
		}
		if err := w.webhook.NotifyFailed(ctx, task.ConversationID, task.UserID, genErr.Error()); err != nil {
			log.Warn().Err(err).Msg("failure webhook not delivered")
		}
		w.updateQueueDepth(ctx)
		return
	}

	if err := w.queue.MarkCompleted(ctx, task.PublicID); err != nil {
		log.Error().Err(err).Msg("failed to mark task completed")
	}
	metrics.RecordGeneration("queue", "completed", time.Since(started))

	if err := w.webhook.NotifyCompleted(ctx, task.ConversationID, task.UserID, set.PublicID); err != nil {
		log.Warn().Err(err).Msg("completion webhook not delivered")
	}

	log.Info().
		Str("artifact_set_id", set.PublicID).
		Dur("duration", time.Since(started)).
		Msg("generation task completed")
	w.updateQueueDepth(ctx)
}

func (w *Worker) updateQueueDepth(ctx context.Context) {
	depth, err := w.queue.GetQueueDepth(ctx)
	if err != nil {
		return
	}
	metrics.SetQueueDepth(depth)
}
