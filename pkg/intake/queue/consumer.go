// Package queue provides a Redis-backed intake channel that feeds queued
// proposals into the orchestration pipeline.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/vetflow/vetflow/pkg/orchestrator"
)

// queueMessage is the wire format pushed onto the intake list.
type queueMessage struct {
	ProposalID   string         `json:"id"`
	UserID       string         `json:"user_id"`
	ProposalData map[string]any `json:"proposal_data"`
}

type Consumer struct {
	Addr     string
	Password string
	DB       int
	Queue    string

	client  redis.UniversalClient
	manager *orchestrator.Manager
	logger  *slog.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewConsumer(manager *orchestrator.Manager, logger *slog.Logger, addr, password string, db int, queue string) (*Consumer, error) {
	consumer := &Consumer{
		Addr:     addr,
		Password: password,
		DB:       db,
		Queue:    queue,
		manager:  manager,
		stopCh:   make(chan struct{}),
		logger: logger.With(
			"module", "queue_intake",
			"queue", queue,
		),
	}

	if err := consumer.Validate(); err != nil {
		return nil, err
	}

	return consumer, nil
}

func (c *Consumer) Validate() error {
	if c.Queue == "" {
		return errors.New("intake queue name is required")
	}

	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Starting queue intake")

	if err := c.initializeClient(ctx); err != nil {
		return fmt.Errorf("failed to initialize queue client: %w", err)
	}

	c.wg.Add(1)

	go c.consume(ctx)

	return nil
}

func (c *Consumer) initializeClient(ctx context.Context) error {
	addr := c.Addr
	if addr == "" {
		addr = "localhost:6379"
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: c.Password,
		DB:       c.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.logger.InfoContext(ctx, "Connected to Redis", "addr", addr, "db", c.DB)

	return nil
}

func (c *Consumer) consume(ctx context.Context) {
	defer c.wg.Done()

	c.logger.InfoContext(ctx, "Starting intake consumer", "queue", c.Queue)

	for {
		select {
		case <-c.stopCh:
			c.logger.InfoContext(ctx, "Intake consumer stopped")

			return
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Context cancelled, stopping intake consumer")

			return
		default:
			err := c.processMessage(ctx)
			if err != nil {
				c.logger.ErrorContext(ctx, "Error processing intake message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context) error {
	result, err := c.client.BLPop(ctx, 1*time.Second, c.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	message, err := parseMessage(result[1])
	if err != nil {
		c.logger.ErrorContext(ctx, "Discarding malformed intake message", "error", err)

		return nil
	}

	c.logger.InfoContext(ctx, "Received proposal from queue", "proposal_id", message.ProposalID)

	if err := c.manager.RunWorkflowAsync(ctx, message.ProposalID, message.UserID, message.ProposalData); err != nil {
		c.logger.ErrorContext(ctx, "Error starting workflow for queued proposal",
			"proposal_id", message.ProposalID, "error", err)
	}

	return nil
}

func parseMessage(raw string) (*queueMessage, error) {
	var message queueMessage
	if err := json.Unmarshal([]byte(raw), &message); err != nil {
		return nil, fmt.Errorf("invalid intake payload: %w", err)
	}

	if message.ProposalID == "" {
		return nil, errors.New("intake payload is missing proposal id")
	}

	if message.UserID == "" {
		return nil, errors.New("intake payload is missing user id")
	}

	if message.ProposalData == nil {
		return nil, errors.New("intake payload is missing proposal data")
	}

	return &message, nil
}

func (c *Consumer) Stop(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Stopping queue intake")

	close(c.stopCh)
	c.wg.Wait()

	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}
