package api

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"
)

// RedisBroker implements EventBroker over Redis Pub/Sub so progress
// streams work across replicas.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisBroker{rdb: redis.NewClient(opt)}, nil
}

func (b *RedisBroker) chanName(solveID string) string {
	return "solve:" + solveID + ":events"
}

func (b *RedisBroker) Subscribe(solveID string) chan Event {
	ch := make(chan Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(solveID))
	// initial consume to ensure subscription
	_, _ = ps.Receive(ctx)
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(solveID string, ch chan Event) {
	// The subscription goroutine owns and closes the channel; dropping
	// the Redis subscription happens when the client connection closes.
	go func() {
		for range ch {
		}
	}()
}

func (b *RedisBroker) Publish(solveID string, evt Event) {
	body, err := json.Marshal(evt)
	if err != nil {
		return
	}
	b.rdb.Publish(context.Background(), b.chanName(solveID), body)
}
