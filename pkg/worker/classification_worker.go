package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/smart-sdlc/pkg/logger"
	"github.com/feichai0017/smart-sdlc/pkg/queue"
)

// JobHandler runs a single classification job.
type JobHandler interface {
	HandleJob(ctx context.Context, task *queue.Task) error
}

type ClassificationWorker struct {
	BaseWorker
	handler JobHandler
}

func NewClassificationWorker(cfg *Config, handler JobHandler, log logger.Logger) *ClassificationWorker {
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{queue.QueueName: 1}
	}
	server := asynq.NewServer(cfg.Redis, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      queues,
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return time.Duration(n) * 10 * time.Second
		},
	})

	w := &ClassificationWorker{
		BaseWorker: BaseWorker{
			server: server,
			mux:    asynq.NewServeMux(),
			logger: log.Named("worker"),
		},
		handler: handler,
	}
	w.mux.HandleFunc(queue.TaskTypeClassify, w.handleClassify)
	return w
}

func (w *ClassificationWorker) handleClassify(ctx context.Context, t *asynq.Task) error {
	task, err := decodeTask(t.Payload())
	if err != nil {
		w.logger.Error("Dropping malformed task", logger.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	ctx = logger.WithRequestID(ctx, task.JobID)
	w.logger.Info("Processing classification job",
		logger.String("jobId", task.JobID),
		logger.String("filename", task.Filename),
	)
	return w.handler.HandleJob(ctx, task)
}

func decodeTask(payload []byte) (*queue.Task, error) {
	var task queue.Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	if task.JobID == "" || task.ObjectKey == "" {
		return nil, fmt.Errorf("invalid task: missing job id or object key")
	}
	return &task, nil
}

// Start runs the asynq server until ctx is cancelled.
func (w *ClassificationWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}
