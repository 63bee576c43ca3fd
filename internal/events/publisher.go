package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/webdriftlab/ecom-scraper/internal/models"
)

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

const (
	TypeSessionStarted   = "session.started"
	TypeProductExtracted = "product.extracted"
	TypeSessionCompleted = "session.completed"
)

// Publisher emits extraction lifecycle events to a Redis stream so other
// services can follow session progress. Publishing is best effort: a Redis
// failure is logged and never fails the extraction that triggered it. A nil
// Publisher is valid and publishes nothing.
type Publisher struct {
	redis  RedisClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string) *Publisher {
	return &Publisher{
		redis:  client,
		stream: stream,
		logger: slog.Default().With("component", "events"),
	}
}

func (p *Publisher) PublishSessionStarted(ctx context.Context, sessionID string, target models.Target) {
	if p == nil {
		return
	}
	p.publish(ctx, TypeSessionStarted, sessionID, map[string]interface{}{
		"url":      target.RawURL,
		"platform": target.Platform,
		"kind":     string(target.Kind),
	})
}

func (p *Publisher) PublishProductExtracted(ctx context.Context, sessionID string, product *models.Product) {
	if p == nil {
		return
	}
	p.publish(ctx, TypeProductExtracted, sessionID, map[string]interface{}{
		"product_url":    product.URL,
		"title":          product.Title,
		"price":          product.Price,
		"is_whitelisted": product.Whitelisted,
	})
}

func (p *Publisher) PublishSessionCompleted(ctx context.Context, report *models.Report) {
	if p == nil {
		return
	}
	p.publish(ctx, TypeSessionCompleted, report.SessionID, map[string]interface{}{
		"products":     report.Products,
		"variants":     report.Variants,
		"incomplete":   report.Incomplete,
		"skipped":      report.Skipped,
		"pages":        report.Pages,
		"output_path":  report.OutputPath,
		"abort_reason": report.AbortReason,
	})
}

func (p *Publisher) Close() error {
	if p == nil || p.redis == nil {
		return nil
	}
	return p.redis.Close()
}

func (p *Publisher) publish(ctx context.Context, eventType, sessionID string, payload map[string]interface{}) {
	if p.redis == nil {
		return
	}

	streamData := map[string]interface{}{
		"id":         uuid.New().String(),
		"type":       eventType,
		"session_id": sessionID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"payload":    payload,
		"metadata": map[string]interface{}{
			"source": "ecom-scraper",
		},
	}

	dataJSON, err := json.Marshal(streamData)
	if err != nil {
		p.logger.Error("failed to marshal event", "type", eventType, "error", err)
		return
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data": string(dataJSON),
		},
	}

	if err := p.redis.XAdd(ctx, args).Err(); err != nil {
		p.logger.Error("failed to publish event",
			"type", eventType,
			"session_id", sessionID,
			"stream", p.stream,
			"error", err)
		return
	}

	p.logger.Debug("event published", "type", eventType, "session_id", sessionID)
}

// Connect dials Redis and returns a publisher, or an error when the server
// is unreachable.
func Connect(ctx context.Context, addr, password string, db int, stream string) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPublisher(client, stream), nil
}
