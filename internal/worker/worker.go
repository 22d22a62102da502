package worker

import (
	"context"
	"fmt"
	"time"

	"emosante/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type Worker struct {
	id        int
	conn      *amqp.Connection
	queueName string
	analyzer  Analyzer
}

func NewWorker(id int, conn *amqp.Connection, queueName string, analyzer Analyzer) *Worker {
	return &Worker{
		id:        id,
		conn:      conn,
		queueName: queueName,
		analyzer:  analyzer,
	}
}

func republishWithRetry(ch *amqp.Channel, msg *amqp.Delivery, retryCount int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[RetryHeader] = retryCount

	return ch.PublishWithContext(
		ctx,
		"",             // exchange
		msg.RoutingKey, // routing key (queue name)
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         msg.Body,
			Headers:      headers,
		},
	)
}

// Run consumes analysis jobs until ctx is cancelled or the delivery
// channel closes.
func (w *Worker) Run(ctx context.Context) error {
	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("worker %d open channel: %w", w.id, err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("worker %d set QoS: %w", w.id, err)
	}

	consumerTag := fmt.Sprintf("emosante-worker-%d", w.id)
	msgs, err := ch.Consume(
		w.queueName,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("worker %d consume: %w", w.id, err)
	}

	logrus.Infof("Worker %d started", w.id)

	for {
		select {
		case <-ctx.Done():
			if err := ch.Cancel(consumerTag, false); err != nil {
				logrus.WithError(err).Warnf("Worker %d failed to cancel consumer", w.id)
			}
			logrus.Infof("Worker %d stopped", w.id)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("worker %d: delivery channel closed", w.id)
			}
			w.handle(ctx, ch, &msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, ch *amqp.Channel, msg *amqp.Delivery) {
	observability.GlobalMetrics.QueueMessagesConsumed.WithLabelValues(w.queueName).Inc()

	retries := retryCount(msg.Headers)
	switch process(ctx, w.analyzer, msg.Body, retries, w.id) {
	case outcomeAck:
		msg.Ack(false)
	case outcomeDrop:
		observability.GlobalMetrics.AnalysisFailedTotal.WithLabelValues("dropped").Inc()
		msg.Nack(false, false)
	case outcomeRetry:
		logrus.Infof("Worker %d: analysis failed, requeuing (retry %d/%d)", w.id, retries+1, MaxRetries)
		if err := republishWithRetry(ch, msg, retries+1); err != nil {
			logrus.WithError(err).Error("Failed to republish message")
			observability.GlobalMetrics.AnalysisFailedTotal.WithLabelValues("republish_error").Inc()
			msg.Nack(false, false)
			return
		}
		observability.GlobalMetrics.QueueMessagesPublished.WithLabelValues(w.queueName).Inc()
		msg.Ack(false)
	}
}
