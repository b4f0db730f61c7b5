package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"routesolver/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the schema when missing (dev helper).
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS solves (
			id UUID PRIMARY KEY,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			record JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY,
			url TEXT NOT NULL,
			events TEXT[] NOT NULL,
			secret TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id UUID PRIMARY KEY,
			subscription_id UUID NOT NULL,
			event_type TEXT NOT NULL,
			url TEXT NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			payload BYTEA NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_error TEXT,
			response_code INT,
			latency_ms INT
		)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) CreateSolve(ctx context.Context, rec model.SolveRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO solves (id, status, record) VALUES ($1,$2,$3)`,
		rec.ID, rec.Status, body)
	return err
}

func (p *Postgres) UpdateSolve(ctx context.Context, rec model.SolveRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE solves SET status=$2, record=$3 WHERE id=$1`,
		rec.ID, rec.Status, body)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetSolve(ctx context.Context, id string) (model.SolveRecord, error) {
	var body []byte
	err := p.db.QueryRowContext(ctx, `SELECT record FROM solves WHERE id=$1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SolveRecord{}, ErrNotFound
	}
	if err != nil {
		return model.SolveRecord{}, err
	}
	var rec model.SolveRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return model.SolveRecord{}, err
	}
	return rec, nil
}

func (p *Postgres) ListSolves(ctx context.Context, cursor string, limit int) ([]model.SolveRecord, string, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT id::text, record FROM solves`
	args := []any{}
	if cursor != "" {
		q += ` WHERE created_at > (SELECT created_at FROM solves WHERE id=$1)`
		args = append(args, cursor)
	}
	q += ` ORDER BY created_at ASC LIMIT ` + strconv.Itoa(limit+1)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.SolveRecord{}
	ids := []string{}
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, "", err
		}
		var rec model.SolveRecord
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, "", err
		}
		out = append(out, rec)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = ids[limit-1]
	}
	return out, next, nil
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	id := uuid.New()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, url, events, secret) VALUES ($1,$2,$3,$4)`,
		id, req.URL, pqStringArray(req.Events), req.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return model.Subscription{ID: id.String(), URL: req.URL, Events: req.Events, Secret: req.Secret}, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, url, secret FROM subscriptions WHERE $1 = ANY(events)`, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.ID, &s.URL, &s.Secret); err != nil {
			return nil, err
		}
		s.Events = []string{eventType}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, url FROM subscriptions WHERE id::text > $1 ORDER BY id LIMIT $2`,
		cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.ID, &s.URL); err != nil {
			return nil, "", err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[limit-1].ID
	}
	return out, next, nil
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload) VALUES ($1,$2,$3,$4,$5,$6)`,
		id, subscriptionID, eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, subscription_id::text, event_type, url, secret, payload, attempts
		 FROM webhook_deliveries
		 WHERE status='pending' AND next_attempt_at <= now()
		 ORDER BY next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Attempts); err != nil {
			return nil, err
		}
		d.Status = "pending"
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttempt *time.Time, lastErr string, code, latencyMs int) error {
	status := "pending"
	if success {
		status = "delivered"
	}
	var next any
	if nextAttempt != nil {
		next = *nextAttempt
	}
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries
		 SET attempts=attempts+1, status=$2, next_attempt_at=COALESCE($3, next_attempt_at),
		     last_error=NULLIF($4,''), response_code=$5, latency_ms=$6
		 WHERE id=$1`,
		id, status, next, lastErr, code, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastErr string, code, latencyMs int) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries
		 SET attempts=attempts+1, status='failed', last_error=NULLIF($2,''), response_code=$3, latency_ms=$4
		 WHERE id=$1`,
		id, lastErr, code, latencyMs)
	return err
}

// pqStringArray renders a Postgres text[] literal.
func pqStringArray(items []string) string {
	out := "{"
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += `"` + s + `"`
	}
	return out + "}"
}
