package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/codegraph/graphrag/internal/logging"
)

// ProcessProjectJob is the payload carried from upload to the worker that runs it, whether
// dispatched over AMQP or handed directly to the in-process pool.
type ProcessProjectJob struct {
	SessionID   string             `json:"session_id"`
	ProjectID   string             `json:"project_id"`
	ProjectName string             `json:"project_name"`
	OwnerID     string             `json:"owner_id"`
	CreatedAt   time.Time          `json:"created_at"`
	Files       []ingestSourceFile `json:"files"`
}

// ingestSourceFile mirrors models.SourceFile with exported fields, for JSON transport over AMQP
// (models.SourceFile's fields are already exported, but keeping a local alias here means a wire
// format change to the job payload never has to touch models).
type ingestSourceFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// dispatcher enqueues a ProcessProjectJob for eventual execution by runJob.
type dispatcher interface {
	enqueue(ctx context.Context, job ProcessProjectJob) error
	close()
}

const (
	ingestQueueName   = "codegraph.ingest.process_project"
	brokerPingTimeout = 2 * time.Second
)

// newDispatcher pings brokerURL; if it's reachable, jobs are published to AMQP and drained by a
// consumer goroutine pool driving the same runJob path a local worker would. Otherwise it falls
// back to a bounded in-process worker pool (buffered job channel + fixed goroutine count).
func newDispatcher(brokerURL string, workers int, logger *logging.Logger, run func(context.Context, ProcessProjectJob)) dispatcher {
	if conn, err := amqp.DialConfig(brokerURL, amqp.Config{Dial: amqp.DefaultDial(brokerPingTimeout)}); err == nil {
		d, derr := newBrokerDispatcher(conn, workers, logger, run)
		if derr == nil {
			logger.Info("ingestion dispatcher using AMQP broker")
			return d
		}
		conn.Close()
		logger.WithError(derr).Warn("broker reachable but dispatcher setup failed, falling back to in-process")
	}
	logger.Info("ingestion dispatcher using in-process worker pool")
	return newInProcessDispatcher(workers, run)
}

// inProcessDispatcher is a bounded worker pool over a buffered job channel.
type inProcessDispatcher struct {
	jobs chan ProcessProjectJob
	done chan struct{}
}

func newInProcessDispatcher(workers int, run func(context.Context, ProcessProjectJob)) *inProcessDispatcher {
	if workers <= 0 {
		workers = 4
	}
	d := &inProcessDispatcher{jobs: make(chan ProcessProjectJob, 64), done: make(chan struct{})}
	for w := 0; w < workers; w++ {
		go func() {
			for {
				select {
				case job, ok := <-d.jobs:
					if !ok {
						return
					}
					run(context.Background(), job)
				case <-d.done:
					return
				}
			}
		}()
	}
	return d
}

func (d *inProcessDispatcher) enqueue(ctx context.Context, job ProcessProjectJob) error {
	select {
	case d.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *inProcessDispatcher) close() {
	close(d.done)
	close(d.jobs)
}

// brokerDispatcher publishes jobs to an AMQP queue and drives a consumer goroutine pool that
// decodes each delivery and calls run, acking on completion.
type brokerDispatcher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	done    chan struct{}
}

func newBrokerDispatcher(conn *amqp.Connection, workers int, logger *logging.Logger, run func(context.Context, ProcessProjectJob)) (*brokerDispatcher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(ingestQueueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare amqp queue: %w", err)
	}
	if err := ch.Qos(workers, 0, false); err != nil {
		return nil, fmt.Errorf("set amqp prefetch: %w", err)
	}

	deliveries, err := ch.Consume(ingestQueueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume amqp queue: %w", err)
	}

	d := &brokerDispatcher{conn: conn, channel: ch, done: make(chan struct{})}
	if workers <= 0 {
		workers = 4
	}
	for w := 0; w < workers; w++ {
		go func() {
			for {
				select {
				case delivery, ok := <-deliveries:
					if !ok {
						return
					}
					var job ProcessProjectJob
					if err := json.Unmarshal(delivery.Body, &job); err != nil {
						logger.WithError(err).Error("discarding malformed ingestion job")
						delivery.Nack(false, false)
						continue
					}
					run(context.Background(), job)
					delivery.Ack(false)
				case <-d.done:
					return
				}
			}
		}()
	}
	return d, nil
}

func (d *brokerDispatcher) enqueue(ctx context.Context, job ProcessProjectJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode ingestion job: %w", err)
	}
	return d.channel.PublishWithContext(ctx, "", ingestQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (d *brokerDispatcher) close() {
	close(d.done)
	d.channel.Close()
	d.conn.Close()
}
