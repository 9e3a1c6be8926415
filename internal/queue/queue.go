package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
)

type TransferPublisher interface {
	SendTransfer(ctx context.Context, msg *TransferMessage) error
	Ping(ctx context.Context) error
	Shutdown()
}

// QueueManager publishes transfer instructions to a durable queue with
// publisher confirms, reconnecting when the broker drops the connection.
type QueueManager struct {
	cfg    *config.QueueConfig
	logger *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

var _ TransferPublisher = (*QueueManager)(nil)

func NewQueueManager(cfg *config.QueueConfig, logger *zap.Logger) (*QueueManager, error) {
	qm := &QueueManager{
		cfg:    cfg,
		logger: logger.With(zap.String("queue", cfg.TransferQueue)),
	}

	qm.mu.Lock()
	defer qm.mu.Unlock()
	if err := qm.connect(); err != nil {
		return nil, err
	}
	return qm, nil
}

// connect must be called with mu held.
func (qm *QueueManager) connect() error {
	conn, err := amqp.Dial(qm.cfg.AmqpURL())
	if err != nil {
		return fmt.Errorf("failed to connect to queue: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open queue channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		qm.cfg.TransferQueue,
		true,  // durable
		false, // auto delete
		false, // exclusive
		false, // no wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare queue %s: %w", qm.cfg.TransferQueue, err)
	}

	if err := channel.Confirm(false); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	qm.conn = conn
	qm.channel = channel
	qm.logger.Info("connected to queue")
	return nil
}

func (qm *QueueManager) ensureChannel() (*amqp.Channel, error) {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	if qm.conn != nil && !qm.conn.IsClosed() && qm.channel != nil && !qm.channel.IsClosed() {
		return qm.channel, nil
	}
	if qm.conn != nil && !qm.conn.IsClosed() {
		_ = qm.conn.Close()
	}

	qm.logger.Warn("queue connection lost, reconnecting")
	if err := qm.connect(); err != nil {
		return nil, err
	}
	return qm.channel, nil
}

// SendTransfer publishes msg and waits for the broker to confirm it.
func (qm *QueueManager) SendTransfer(ctx context.Context, msg *TransferMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode transfer %s: %w", msg.ID, err)
	}

	err = retry.Do(
		func() error {
			return qm.publish(ctx, msg.ID, body)
		},
		retry.Context(ctx),
		retry.Attempts(qm.cfg.MsgMaxRetryAttempts),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			qm.logger.Warn("failed to publish transfer",
				zap.String("transfer_id", msg.ID),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		metrics.RecordQueueSendError()
		return err
	}

	qm.logger.Debug("transfer published",
		zap.String("transfer_id", msg.ID),
		zap.Uint64("seq", msg.Seq),
	)
	return nil
}

func (qm *QueueManager) publish(ctx context.Context, id string, body []byte) error {
	channel, err := qm.ensureChannel()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, qm.cfg.QueueProcessingTimeout)
	defer cancel()

	confirmation, err := channel.PublishWithDeferredConfirmWithContext(
		ctx,
		"", // default exchange routes by queue name
		qm.cfg.TransferQueue,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    id,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return err
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return errors.New("transfer was nacked by the broker")
	}
	return nil
}

func (qm *QueueManager) Ping(_ context.Context) error {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	if qm.conn == nil || qm.conn.IsClosed() {
		return errors.New("queue connection is closed")
	}
	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	qm.logger.Info("shutting down queue manager")
	if qm.channel != nil {
		if err := qm.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			qm.logger.Error("failed to close queue channel", zap.Error(err))
		}
	}
	if qm.conn != nil && !qm.conn.IsClosed() {
		if err := qm.conn.Close(); err != nil {
			qm.logger.Error("failed to close queue connection", zap.Error(err))
		}
	}
}
