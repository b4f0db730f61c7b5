package store

import (
	"context"
	"testing"
	"time"

	"routesolver/internal/model"
)

func TestMemorySolvesCRUD(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rec := model.SolveRecord{ID: "s1", Status: "running", CreatedAt: "2024-01-01T00:00:00Z"}
	if err := m.CreateSolve(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec.Status = "done"
	if err := m.UpdateSolve(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := m.GetSolve(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "done" {
		t.Fatalf("status: got %s", got.Status)
	}
	if _, err := m.GetSolve(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := m.UpdateSolve(ctx, model.SolveRecord{ID: "missing"}); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryListSolvesPagination(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := m.CreateSolve(ctx, model.SolveRecord{ID: id}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	page1, next, err := m.ListSolves(ctx, "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page1) != 2 || next == "" {
		t.Fatalf("page1: %d items, cursor %q", len(page1), next)
	}
	page2, next2, err := m.ListSolves(ctx, next, 2)
	if err != nil {
		t.Fatalf("list page2: %v", err)
	}
	if len(page2) != 1 || next2 != "" {
		t.Fatalf("page2: %d items, cursor %q", len(page2), next2)
	}
	if page2[0].ID != "c" {
		t.Fatalf("page2: got %s", page2[0].ID)
	}
}

func TestMemorySubscriptionsAndQueue(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sub, err := m.CreateSubscription(ctx, model.SubscriptionRequest{
		URL: "https://example.invalid/hook", Events: []string{"solve.completed"}, Secret: "s",
	})
	if err != nil {
		t.Fatalf("create sub: %v", err)
	}
	subs, err := m.GetSubscriptionsForEvent(ctx, "solve.completed")
	if err != nil || len(subs) != 1 {
		t.Fatalf("for event: %v, %d", err, len(subs))
	}
	if subs, _ := m.GetSubscriptionsForEvent(ctx, "other.event"); len(subs) != 0 {
		t.Fatalf("unexpected match: %d", len(subs))
	}

	id, err := m.EnqueueWebhook(ctx, sub.ID, "solve.completed", sub.URL, "s", []byte(`{}`))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	if err != nil || len(due) != 1 {
		t.Fatalf("due: %v, %d", err, len(due))
	}

	// A failed attempt with backoff leaves the queue empty until the
	// retry time arrives.
	next := time.Now().Add(time.Hour)
	if err := m.MarkWebhookDelivery(ctx, id, false, &next, "boom", 500, 12); err != nil {
		t.Fatalf("mark: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("due after backoff: %d", len(due))
	}

	if err := m.FailWebhookDelivery(ctx, id, "gave up", 500, 10); err != nil {
		t.Fatalf("fail: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("failed delivery must not be due: %d", len(due))
	}

	if err := m.DeleteSubscription(ctx, sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.DeleteSubscription(ctx, sub.ID); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
