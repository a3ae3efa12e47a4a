package config

import (
	"fmt"
	"time"
)

const (
	defaultQueueName           = "custody_events"
	defaultQueuePublishTimeout = 5 * time.Second
)

type QueueConfig struct {
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	URL            string        `mapstructure:"url"`
	QueueName      string        `mapstructure:"queue-name"`
	PublishTimeout time.Duration `mapstructure:"publish-timeout"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.URL == "" {
		return fmt.Errorf("queue url must be set")
	}

	if cfg.User == "" || cfg.Password == "" {
		return fmt.Errorf("queue user and password must be set")
	}

	if cfg.QueueName == "" {
		cfg.QueueName = defaultQueueName
	}

	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultQueuePublishTimeout
	}

	return nil
}

// DSN returns the amqp connection string.
func (cfg *QueueConfig) DSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s", cfg.User, cfg.Password, cfg.URL)
}
