package store

import (
	"context"
	"errors"
	"time"

	"routesolver/internal/model"
)

var ErrNotFound = errors.New("not found")

// WebhookDelivery is one queued outbound notification.
type WebhookDelivery struct {
	ID             string
	SubscriptionID string
	EventType      string
	URL            string
	Secret         string
	Payload        []byte
	Attempts       int
	Status         string // pending, delivered, failed
}

// Store is the persistence interface used by the API server.
type Store interface {
	// Solves
	CreateSolve(ctx context.Context, rec model.SolveRecord) error
	UpdateSolve(ctx context.Context, rec model.SolveRecord) error
	GetSolve(ctx context.Context, id string) (model.SolveRecord, error)
	ListSolves(ctx context.Context, cursor string, limit int) (items []model.SolveRecord, nextCursor string, err error)

	// Subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Webhook delivery queue
	EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttempt *time.Time, lastErr string, code, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastErr string, code, latencyMs int) error
}
