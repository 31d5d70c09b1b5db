package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"estatehub/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	TaskDeliverEvent = "notify:deliver"
	QueueNotify      = "notifications"
)

// QueuePublisher enqueues events on asynq so delivery survives restarts of
// the API process and can be retried.
type QueuePublisher struct {
	client *asynq.Client
	log    *logger.Logger
}

func NewQueuePublisher(client *asynq.Client) *QueuePublisher {
	return &QueuePublisher{client: client, log: logger.New("NOTIFY_QUEUE")}
}

func (p *QueuePublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	task := asynq.NewTask(TaskDeliverEvent, payload,
		asynq.Queue(QueueNotify),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Second),
	)
	info, err := p.client.EnqueueContext(ctx, task)
	if err != nil {
		return p.log.Error("failed to enqueue event %s", err, e.Type)
	}
	p.log.Debug("enqueued %s as %s", e.Type, info.ID)
	return nil
}

// Worker consumes queued events and hands them to a local publisher.
type Worker struct {
	server *asynq.Server
	target Publisher
	log    *logger.Logger
}

func NewWorker(opt asynq.RedisClientOpt, concurrency int, target Publisher) *Worker {
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueNotify: 1},
	})
	return &Worker{server: server, target: target, log: logger.New("NOTIFY_WORKER")}
}

// HandleDeliver is the asynq handler for TaskDeliverEvent.
func (w *Worker) HandleDeliver(ctx context.Context, t *asynq.Task) error {
	var e Event
	if err := json.Unmarshal(t.Payload(), &e); err != nil {
		return fmt.Errorf("decode event: %v: %w", err, asynq.SkipRetry)
	}
	return w.target.Publish(ctx, e)
}

func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskDeliverEvent, w.HandleDeliver)

	w.log.Info("starting notification worker")
	if err := w.server.Start(mux); err != nil {
		return fmt.Errorf("failed to start notification worker: %w", err)
	}
	return nil
}

func (w *Worker) Shutdown() {
	w.log.Info("shutting down notification worker")
	w.server.Shutdown()
}
