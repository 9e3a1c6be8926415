package config

import (
	"errors"
	"fmt"
	"time"
)

const defaultTransferQueueName = "staking_ledger_transfers"

type QueueConfig struct {
	QueueUser     string `mapstructure:"queue_user"`
	QueuePassword string `mapstructure:"queue_password"`
	Url           string `mapstructure:"url"`
	// TransferQueue is the durable queue receiving transfer instructions.
	TransferQueue          string        `mapstructure:"transfer_queue"`
	QueueProcessingTimeout time.Duration `mapstructure:"processing_timeout"`
	MsgMaxRetryAttempts    uint          `mapstructure:"msg_max_retry_attempts"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.QueueUser == "" {
		return errors.New("missing queue user")
	}

	if cfg.QueuePassword == "" {
		return errors.New("missing queue password")
	}

	if cfg.Url == "" {
		return errors.New("missing queue url")
	}

	if cfg.TransferQueue == "" {
		cfg.TransferQueue = defaultTransferQueueName
	}

	if cfg.QueueProcessingTimeout <= 0 {
		return errors.New("invalid queue processing timeout")
	}

	if cfg.MsgMaxRetryAttempts <= 0 {
		return errors.New("invalid queue message max retry attempts")
	}

	return nil
}

// AmqpURL builds the connection url including credentials.
func (cfg *QueueConfig) AmqpURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s", cfg.QueueUser, cfg.QueuePassword, cfg.Url)
}
