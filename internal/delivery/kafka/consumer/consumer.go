package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/realm-lfg/internal/delivery/kafka"
	"github.com/vogiaan1904/realm-lfg/internal/service"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
)

const (
	defaultRetryAttempts = 5
	defaultRetryDelay    = 500 * time.Millisecond
)

type Consumer struct {
	consGr sarama.ConsumerGroup
	svc    service.LfgService
	l      logger.Logger
	wg     sync.WaitGroup

	retryAttempts int
	retryDelay    time.Duration
}

type Option func(*Consumer)

// WithRetry sets how often a failing message is retried in place and the
// base delay between attempts. The delay grows linearly per attempt.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Consumer) {
		if attempts > 0 {
			c.retryAttempts = attempts
		}
		c.retryDelay = delay
	}
}

func NewConsumer(
	consGr sarama.ConsumerGroup,
	svc service.LfgService,
	l logger.Logger,
	opts ...Option,
) *Consumer {
	c := &Consumer{
		consGr:        consGr,
		svc:           svc,
		l:             l,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	switch msg.Topic {
	case kafka.TopicPartyMemberChanged:
		return c.HandlePartyMemberChanged(ctx, msg)
	case kafka.TopicDungeonCompleted:
		return c.HandleDungeonCompleted(ctx, msg)
	default:
		c.l.Warnw(ctx, "Unknown topic", "topic", msg.Topic)
		return nil
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	topics := []string{kafka.TopicPartyMemberChanged, kafka.TopicDungeonCompleted}

	c.wg.Go(func() {
		for err := range c.consGr.Errors() {
			c.l.Errorf(ctx, "delivery.kafka.consumer.Run: %v", err)
		}
	})

	c.l.Infof(ctx, "Consumer is consuming topics: %v", topics)

	for {
		if err := c.consGr.Consume(ctx, topics, c); err != nil {
			c.l.Errorf(ctx, "delivery.kafka.consumer.Run: %v", err)
		}

		if ctx.Err() != nil {
			c.l.Infof(ctx, "delivery.kafka.consumer.Run: %v", ctx.Err())
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	if err := c.consGr.Close(); err != nil {
		return err
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session started")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session ended")
	return nil
}

// ConsumeClaim marks a message once it is handled or can never be handled.
// A message that still fails after its retries ends the claim unmarked:
// offsets are cumulative, so marking a later message would skip it. The
// group session ends with the claim and the next one resumes at the
// failed message.
func (c *Consumer) ConsumeClaim(ss sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := ss.Context()
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}

			msgCtx := logger.WithFields(ctx, c.l,
				"topic", message.Topic,
				"partition", message.Partition,
				"offset", message.Offset,
			)
			if err := c.processWithRetry(msgCtx, message); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if !permanent(err) {
					return fmt.Errorf("delivery.kafka.consumer.ConsumeClaim: %s/%d offset %d: %w",
						message.Topic, message.Partition, message.Offset, err)
				}
				c.l.Errorw(msgCtx, "delivery.kafka.consumer.ConsumeClaim: dropping message that cannot be processed",
					"error", err,
				)
			}

			ss.MarkMessage(message, "")

		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Consumer) processWithRetry(ctx context.Context, message *sarama.ConsumerMessage) error {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		err := c.processMessage(ctx, message)
		if err == nil {
			return nil
		}
		lastErr = err
		if permanent(err) {
			return err
		}

		c.l.Warnw(ctx, "Message not processed, retrying",
			"attempt", attempt+1,
			"max_attempts", c.retryAttempts,
			"error", err,
		)
	}

	return lastErr
}
