package api

import (
	"context"

	"golang.org/x/time/rate"

	"routesolver/internal/config"
	"routesolver/internal/store"
	"routesolver/internal/webhooks"
)

type Server struct {
	Store   store.Store
	Broker  EventBroker
	Pub     *webhooks.Publisher
	Cfg     config.Config
	limiter *rate.Limiter
}

// NewServer wires the store and broker from configuration: in-memory
// defaults, Postgres when DatabaseURL is set, Redis broker when
// RedisURL is set.
func NewServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewServerWithConfig(cfg)
}

func NewServerWithConfig(cfg config.Config) (*Server, error) {
	var s store.Store
	if cfg.DatabaseURL == "" {
		s = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(context.Background()); err != nil {
			return nil, err
		}
		s = pg
	}
	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	return &Server{
		Store:   s,
		Broker:  broker,
		Pub:     webhooks.NewPublisher(s),
		Cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.SolveRate), cfg.SolveBurst),
	}, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}
