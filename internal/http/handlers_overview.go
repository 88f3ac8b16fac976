package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"bankroll/internal/analytics"
	"bankroll/internal/chart"
	"bankroll/internal/core"
	"bankroll/internal/log"
)

const readyTimeout = 5 * time.Second

// handleOverview shows the headline cards of both tables. The two
// aggregations load concurrently and fail independently.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	page := overviewPage{Title: "Overview", Section: "overview"}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		page.Bets = s.records.BetAnalytics(ctx)
		return nil
	})
	g.Go(func() error {
		page.Trades = s.records.TradeAnalytics(ctx)
		return nil
	})
	_ = g.Wait()

	s.render(w, r, "overview", page, nil)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks the templates and that the storage gateway answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok", "storage": "ok"}
	if s.templates == nil {
		checks["templates"] = "not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if err := s.records.Ping(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
		log.FromContextOr(r.Context(), s.logger).WarnContext(r.Context(), "Readiness check failed",
			log.FieldComponent, log.ComponentStorage, log.FieldError, err)
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

func (s *Server) handleAPIBets(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.records.FetchBets(r.Context()))
}

func (s *Server) handleAPITrades(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.records.FetchTrades(r.Context()))
}

func (s *Server) handleAPIBetAnalytics(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.records.BetAnalytics(r.Context()))
}

func (s *Server) handleAPITradeAnalytics(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.records.TradeAnalytics(r.Context()))
}

// writeChart serves a growth series as a PNG with Cache-Control: no-store.
// Rendered images are reused server-side while the series is unchanged.
func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, series analytics.Series, title string) {
	img, err := s.charts.GetOrCreate(chart.Key(series, title), func() ([]byte, error) {
		return chart.Render(series, title, chart.DefaultStyle())
	})
	if err != nil {
		log.FromContextOr(r.Context(), s.logger).ErrorContext(r.Context(), "Chart rendering failed",
			log.FieldOperation, log.OpRender, log.FieldError, err, "chart", title)
		InternalServerError("Failed to render chart").Write(w)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

func writeResult[T any](w http.ResponseWriter, res core.Result[T]) {
	if res.IsFailed() {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": res.Reason()})
		return
	}
	writeJSON(w, http.StatusOK, res.Data())
}

// writeJSON encodes v before writing the status so an encoding failure
// still reaches the client as a 500.
func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		code = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
}
