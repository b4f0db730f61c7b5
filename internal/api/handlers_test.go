package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"routesolver/internal/config"
	"routesolver/internal/model"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.SolveRate = 1000
	cfg.SolveBurst = 1000
	s, err := NewServerWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewServerWithConfig: %v", err)
	}
	return s
}

// clusteredRequest is a two-vehicle instance whose optimum separates
// the two location clusters.
func clusteredRequest() model.SolveRequest {
	far := int64(100)
	m := make([][]int64, 6)
	for i := range m {
		m[i] = make([]int64, 6)
		for j := range m[i] {
			if i != j {
				m[i][j] = far
			}
		}
	}
	set := func(a, b int, c int64) { m[a][b], m[b][a] = c, c }
	set(0, 2, 2)
	set(0, 3, 2)
	set(2, 3, 1)
	set(1, 4, 2)
	set(1, 5, 2)
	set(4, 5, 1)

	loc := func(i int) *int { return &i }
	return model.SolveRequest{
		Matrix: m,
		Jobs: []model.JobIn{
			{ID: "j1", Location: loc(2), Amount: []int64{1}},
			{ID: "j2", Location: loc(3), Amount: []int64{1}},
			{ID: "j3", Location: loc(4), Amount: []int64{1}},
			{ID: "j4", Location: loc(5), Amount: []int64{1}},
		},
		Vehicles: []model.VehicleIn{
			{ID: "A", Start: loc(0), End: loc(0), Capacity: []int64{10}},
			{ID: "B", Start: loc(1), End: loc(1), Capacity: []int64{10}},
		},
	}
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestSolveEndToEnd(t *testing.T) {
	s := newTestServer(t)
	b, _ := json.Marshal(clusteredRequest())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/solves", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	s.SolvesHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("solve: got %d body %s", rr.Code, rr.Body.String())
	}
	var rec model.SolveRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Status != "done" {
		t.Fatalf("status: got %s", rec.Status)
	}
	if rec.Indicators.Unassigned != 0 {
		t.Fatalf("unassigned: got %d", rec.Indicators.Unassigned)
	}
	if rec.Indicators.UsedVehicles != 2 {
		t.Fatalf("used vehicles: got %d", rec.Indicators.UsedVehicles)
	}
	// Optimal clustered routes: 2 + 1 + 2 per vehicle.
	if rec.Indicators.Cost != 10 {
		t.Fatalf("cost: got %d, want 10", rec.Indicators.Cost)
	}
	if len(rec.Solution.Routes) != 2 {
		t.Fatalf("routes: got %d", len(rec.Solution.Routes))
	}

	// GET /v1/solves/{id}
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/solves/"+rec.ID, nil)
	s.SolveByIDHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("get solve: got %d", rr.Code)
	}

	// GET /v1/solves
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/solves?limit=5", nil)
	s.SolvesHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("list solves: got %d", rr.Code)
	}
	var idx struct {
		Items []model.SolveRecord `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &idx); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(idx.Items) != 1 {
		t.Fatalf("items: got %d", len(idx.Items))
	}
}

func TestSolveValidation(t *testing.T) {
	s := newTestServer(t)
	cases := []string{
		`{}`,
		`{"jobs":[{"id":"a"}],"vehicles":[]}`,
		`{"jobs":[{"id":"a","location":0}],"vehicles":[{"id":"v","capacity":[1]}]}`,
		`not json`,
	}
	for i, body := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/solves", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		s.SolvesHandler(rr, req)
		if rr.Code != 400 {
			t.Fatalf("case %d: got %d, want 400", i, rr.Code)
		}
	}
}

func TestSolveNotFound(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/solves/nope", nil)
	s.SolveByIDHandler(rr, req)
	if rr.Code != 404 {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestSubscriptionsCreateListDelete(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"url":"https://example.invalid/hook","events":["solve.completed"],"secret":"shh"}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.SubscriptionsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create sub: got %d", rr.Code)
	}
	var sub model.Subscription
	if err := json.Unmarshal(rr.Body.Bytes(), &sub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sub.Secret != "" {
		t.Fatal("secret must not be echoed")
	}

	rr = httptest.NewRecorder()
	s.SubscriptionsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil))
	if rr.Code != 200 {
		t.Fatalf("list subs: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil)
	s.SubscriptionByIDHandler(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete sub: got %d", rr.Code)
	}
}

func TestSolveCompletionEnqueuesWebhook(t *testing.T) {
	s := newTestServer(t)
	subBody := []byte(`{"url":"https://example.invalid/hook","events":["solve.completed"],"secret":"shh"}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(subBody))
	req.Header.Set("Content-Type", "application/json")
	s.SubscriptionsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create sub: got %d", rr.Code)
	}

	b, _ := json.Marshal(clusteredRequest())
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/solves", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	s.SolvesHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("solve: got %d", rr.Code)
	}

	due, err := s.Store.FetchDueWebhookDeliveries(req.Context(), 10)
	if err != nil {
		t.Fatalf("fetch due: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("deliveries: got %d, want 1", len(due))
	}
	if due[0].EventType != "solve.completed" {
		t.Fatalf("event type: got %s", due[0].EventType)
	}
}
