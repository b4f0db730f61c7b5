package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"routesolver/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu         sync.Mutex
	solves     map[string]model.SolveRecord
	solveOrder []string
	subs       []model.Subscription
	deliveries map[string]*memDelivery
	delivOrder []string
}

func NewMemory() *Memory {
	return &Memory{
		solves:     map[string]model.SolveRecord{},
		deliveries: map[string]*memDelivery{},
	}
}

type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
}

func (m *Memory) CreateSolve(_ context.Context, rec model.SolveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.solves[rec.ID] = rec
	m.solveOrder = append(m.solveOrder, rec.ID)
	return nil
}

func (m *Memory) UpdateSolve(_ context.Context, rec model.SolveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.solves[rec.ID]; !ok {
		return ErrNotFound
	}
	m.solves[rec.ID] = rec
	return nil
}

func (m *Memory) GetSolve(_ context.Context, id string) (model.SolveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.solves[id]
	if !ok {
		return model.SolveRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) ListSolves(_ context.Context, cursor string, limit int) ([]model.SolveRecord, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := 0
	if cursor != "" {
		for i, id := range m.solveOrder {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []model.SolveRecord{}
	var next string
	for i := start; i < len(m.solveOrder) && len(out) < limit; i++ {
		out = append(out, m.solves[m.solveOrder[i]])
		next = m.solveOrder[i]
	}
	if start+len(out) >= len(m.solveOrder) {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) CreateSubscription(_ context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := model.Subscription{ID: uuid.New().String(), URL: req.URL, Events: req.Events, Secret: req.Secret}
	m.subs = append(m.subs, sub)
	return sub, nil
}

func (m *Memory) GetSubscriptionsForEvent(_ context.Context, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Subscription{}
	for _, s := range m.subs {
		for _, e := range s.Events {
			if e == eventType {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(_ context.Context, cursor string, limit int) ([]model.Subscription, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := 0
	if cursor != "" {
		for i, s := range m.subs {
			if s.ID == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []model.Subscription{}
	var next string
	for i := start; i < len(m.subs) && len(out) < limit; i++ {
		out = append(out, m.subs[i])
		next = m.subs[i].ID
	}
	if start+len(out) >= len(m.subs) {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) DeleteSubscription(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subs {
		if s.ID == id {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) EnqueueWebhook(_ context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.deliveries[id] = &memDelivery{
		WebhookDelivery: WebhookDelivery{
			ID: id, SubscriptionID: subscriptionID, EventType: eventType,
			URL: url, Secret: secret, Payload: payload, Status: "pending",
		},
	}
	m.delivOrder = append(m.delivOrder, id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(_ context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	for _, id := range m.delivOrder {
		d := m.deliveries[id]
		if d.Status != "pending" || d.NextAttemptAt.After(now) {
			continue
		}
		out = append(out, d.WebhookDelivery)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(_ context.Context, id string, success bool, nextAttempt *time.Time, lastErr string, code, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.LastError = lastErr
	d.ResponseCode = code
	d.LatencyMs = latencyMs
	if success {
		d.Status = "delivered"
	} else if nextAttempt != nil {
		d.NextAttemptAt = *nextAttempt
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(_ context.Context, id string, lastErr string, code, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.Status = "failed"
	d.LastError = lastErr
	d.ResponseCode = code
	d.LatencyMs = latencyMs
	return nil
}
