package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"routesolver/internal/buildinfo"
	"routesolver/internal/metrics"
	"routesolver/internal/model"
	"routesolver/internal/solver"
	"routesolver/internal/store"
)

// SolvesHandler serves POST /v1/solves and GET /v1/solves.
func (s *Server) SolvesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createSolve(w, r)
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, next, err := s.Store.ListSolves(r.Context(), r.URL.Query().Get("cursor"), limit)
		if err != nil {
			writeProblem(w, 500, "List failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
	default:
		writeProblem(w, http.StatusMethodNotAllowed, "Method not allowed", "", r.URL.Path)
	}
}

func (s *Server) createSolve(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeProblem(w, http.StatusTooManyRequests, "Rate limited", "solve submissions exceed the configured rate", r.URL.Path)
		return
	}
	var req model.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, 400, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSolveRequest(&req); err != nil {
		writeProblem(w, 400, "Invalid solve request", err.Error(), r.URL.Path)
		return
	}
	in, err := buildInput(&req)
	if err != nil {
		writeProblem(w, 400, "Invalid problem", err.Error(), r.URL.Path)
		return
	}

	rec := model.SolveRecord{
		ID:        uuid.New().String(),
		Status:    "running",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Store.CreateSolve(r.Context(), rec); err != nil {
		writeProblem(w, 500, "Persist failed", err.Error(), r.URL.Path)
		return
	}

	if req.Options.Async {
		go s.runSolve(context.Background(), rec, in, req.Options)
		writeJSON(w, http.StatusAccepted, rec)
		return
	}
	rec = s.runSolve(r.Context(), rec, in, req.Options)
	writeJSON(w, 200, rec)
}

// runSolve executes the engine, streaming progress through the broker
// and finishing with a persisted record plus a solve.completed webhook.
func (s *Server) runSolve(ctx context.Context, rec model.SolveRecord, in *solver.Input, opts model.SolveOptions) model.SolveRecord {
	start := time.Now()
	rounds := 0

	defer func() {
		if p := recover(); p != nil {
			// Engine invariants are enforced by assertion; surface the
			// violation instead of crashing the server.
			rec.Status = "failed"
			rec.Error = fmt.Sprint(p)
			metrics.SolveRuns.WithLabelValues("failed").Inc()
			if err := s.Store.UpdateSolve(ctx, rec); err != nil {
				log.Printf("solve %s: persist failure state: %v", rec.ID, err)
			}
			s.Broker.Publish(rec.ID, Event{Type: "solve.failed", Data: map[string]any{"error": rec.Error}})
		}
	}()

	sol := solver.InitialSolution(in)
	eng := solver.NewEngine(in, sol)
	eng.Log = opts.Debug || s.Cfg.SnapshotLogs
	eng.OnRound = func(p solver.Progress) {
		rounds = p.Round
		metrics.SolverMoves.WithLabelValues(p.Operator).Inc()
		s.Broker.Publish(rec.ID, Event{Type: "solve.progress", Data: map[string]any{
			"round":      p.Round,
			"operator":   p.Operator,
			"gain":       p.Gain,
			"cost":       p.Cost,
			"unassigned": p.Unassigned,
		}})
	}
	eng.Run()

	rec.Status = "done"
	rec.Indicators = eng.Indicators()
	rec.Solution = solver.Report(in, eng.Solution(), eng.State())
	metrics.SolveRuns.WithLabelValues("done").Inc()
	metrics.SolveRounds.Observe(float64(rounds))
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	metrics.UnassignedJobs.Observe(float64(rec.Indicators.Unassigned))

	if err := s.Store.UpdateSolve(ctx, rec); err != nil {
		log.Printf("solve %s: persist result: %v", rec.ID, err)
	}
	s.Broker.Publish(rec.ID, Event{Type: "solve.completed", Data: map[string]any{
		"cost":       rec.Indicators.Cost,
		"unassigned": rec.Indicators.Unassigned,
	}})
	s.Pub.Emit(ctx, "solve.completed", rec)
	return rec
}

// SolveByIDHandler serves GET /v1/solves/{id} and the progress socket
// at /v1/solves/{id}/progress.
func (s *Server) SolveByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/solves/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		writeProblem(w, 404, "Not found", "", r.URL.Path)
		return
	}
	if len(parts) > 1 && parts[1] == "progress" {
		s.ProgressSocketHandler(w, r, id)
		return
	}
	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "Method not allowed", "", r.URL.Path)
		return
	}
	rec, err := s.Store.GetSolve(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, 404, "Not found", "", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, 500, "Get failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, 200, rec)
}

// SubscriptionsHandler serves POST and GET /v1/subscriptions.
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, 400, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.URL == "" || len(req.Events) == 0 {
			writeProblem(w, 400, "Invalid subscription", "url and events required", r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, 500, "Create failed", err.Error(), r.URL.Path)
			return
		}
		sub.Secret = ""
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, next, err := s.Store.ListSubscriptions(r.Context(), r.URL.Query().Get("cursor"), limit)
		if err != nil {
			writeProblem(w, 500, "List failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
	default:
		writeProblem(w, http.StatusMethodNotAllowed, "Method not allowed", "", r.URL.Path)
	}
}

// SubscriptionByIDHandler serves DELETE /v1/subscriptions/{id}.
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if r.Method != http.MethodDelete || id == "" {
		writeProblem(w, http.StatusMethodNotAllowed, "Method not allowed", "", r.URL.Path)
		return
	}
	if err := s.Store.DeleteSubscription(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, 404, "Not found", "", r.URL.Path)
			return
		}
		writeProblem(w, 500, "Delete failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ready"})
}

func (s *Server) VersionHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, 200, buildinfo.Info())
}
