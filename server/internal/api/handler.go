package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/localrank/localrank/pkg/score"
	"github.com/localrank/localrank/server/internal/alerts"
	"github.com/localrank/localrank/server/internal/metrics"
	"github.com/localrank/localrank/server/internal/session"
	"github.com/localrank/localrank/server/internal/store"
)

// SessionHeader carries the scoring session id on requests and responses.
const SessionHeader = "X-Session-ID"

const maxScoreBody = 64 << 10

// AlertSource exposes the alert engine's current state. *alerts.Engine
// satisfies it.
type AlertSource interface {
	Active() []*alerts.Alert
	FiringCount() int
}

// Handler serves all /api/v1/* endpoints.
type Handler struct {
	store    *store.Store
	alerts   AlertSource
	sessions *session.Manager
	limiter  *IPRateLimiter
	router   *mux.Router
}

// New creates a Handler and registers all routes. limiter may be nil, in
// which case POST /api/v1/score is not rate limited.
func New(st *store.Store, al AlertSource, sm *session.Manager, limiter *IPRateLimiter) *Handler {
	h := &Handler{store: st, alerts: al, sessions: sm, limiter: limiter, router: mux.NewRouter()}

	r := h.router.PathPrefix("/api/v1").Subrouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/businesses", h.listBusinesses).Methods(http.MethodGet)
	r.HandleFunc("/businesses/{id}", h.getBusiness).Methods(http.MethodGet)
	r.HandleFunc("/businesses/{id}/insights", h.insights).Methods(http.MethodGet)
	r.Handle("/score", h.rateLimited(http.HandlerFunc(h.score))).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", h.getSession).Methods(http.MethodGet)
	r.HandleFunc("/alerts", h.listAlerts).Methods(http.MethodGet)
	r.HandleFunc("/snapshot", h.snapshot).Methods(http.MethodGet)

	h.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	h.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) rateLimited(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return h.limiter.Middleware(next)
}

// health returns GET /api/v1/health: average total and rating counts.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	entries := h.store.List()
	resp := HealthResponse{
		BusinessCount: len(entries),
		AlertCount:    h.alertCount(),
		Rating:        "UNKNOWN",
	}

	var sum, scored int
	for _, e := range entries {
		snap := e.Snapshot
		if snap.ErrorMessage != "" {
			resp.FailingCount++
		}
		if snap.Score == nil {
			resp.UnscoredCount++
			continue
		}
		scored++
		sum += snap.Score.Total
		switch score.Classify(snap.Score.Total).Label {
		case score.LabelGood:
			resp.GoodCount++
		case score.LabelFair:
			resp.FairCount++
		default:
			resp.PoorCount++
		}
	}

	if scored > 0 {
		resp.AverageScore = float64(sum) / float64(scored)
		resp.Rating = score.Classify(int(math.Round(resp.AverageScore))).Label
	}
	jsonResp(w, http.StatusOK, resp)
}

func (h *Handler) listBusinesses(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.businesses())
}

func (h *Handler) getBusiness(w http.ResponseWriter, r *http.Request) {
	e, ok := h.store.Get(mux.Vars(r)["id"])
	if !ok {
		jsonErr(w, http.StatusNotFound, "business not found")
		return
	}
	jsonResp(w, http.StatusOK, toBusinessResponse(e))
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	e, ok := h.store.Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "business not found")
		return
	}
	jsonResp(w, http.StatusOK, InsightsResponse{BusinessID: id, Insights: computeInsights(e.Snapshot)})
}

// score runs an on-demand calculation in the caller's session.
func (h *Handler) score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScoreBody)).Decode(&req); err != nil {
		metrics.ScoreRequests.WithLabelValues(metrics.OutcomeInvalid).Inc()
		jsonErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := score.ValidateInput(req.Name, req.Address); err != nil {
		metrics.ScoreRequests.WithLabelValues(metrics.OutcomeInvalid).Inc()
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	sid := r.Header.Get(SessionHeader)
	if sid == "" {
		sid = uuid.NewString()
	}
	w.Header().Set(SessionHeader, sid)

	timer := prometheus.NewTimer(metrics.ScoreDuration)
	rep, err := h.sessions.Calculate(r.Context(), sid, req.Name, req.Address)
	timer.ObserveDuration()

	switch {
	case err == nil:
		metrics.ScoreRequests.WithLabelValues(metrics.OutcomeOK).Inc()
		jsonResp(w, http.StatusOK, ScoreResponse{SessionID: sid, Report: rep})
	case errors.Is(err, session.ErrSuperseded):
		metrics.ScoreRequests.WithLabelValues(metrics.OutcomeSuperseded).Inc()
		jsonErr(w, http.StatusConflict, "superseded by a newer request")
	case errors.Is(err, score.ErrDataFetch):
		metrics.ScoreRequests.WithLabelValues(metrics.OutcomeFetchError).Inc()
		slog.Warn("api: score calculation failed", "session", sid, "err", err)
		jsonErr(w, http.StatusBadGateway, score.UserMessage)
	default:
		metrics.ScoreRequests.WithLabelValues(metrics.OutcomeFetchError).Inc()
		slog.Error("api: score calculation failed", "session", sid, "err", err)
		jsonErr(w, http.StatusInternalServerError, score.UserMessage)
	}
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	st, ok := h.sessions.Get(mux.Vars(r)["id"])
	if !ok {
		jsonErr(w, http.StatusNotFound, "session not found")
		return
	}
	jsonResp(w, http.StatusOK, st)
}

func (h *Handler) listAlerts(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.activeAlerts())
}

// snapshot returns GET /api/v1/snapshot: every live business plus alerts.
func (h *Handler) snapshot(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.Board())
}

// Board returns the document served by GET /api/v1/snapshot. The WebSocket
// hub streams the same document.
func (h *Handler) Board() SnapshotResponse {
	return SnapshotResponse{
		Businesses:  h.businesses(),
		Alerts:      h.activeAlerts(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// --- helpers ----------------------------------------------------------------

func (h *Handler) businesses() []BusinessResponse {
	entries := h.store.List()
	out := make([]BusinessResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toBusinessResponse(e))
	}
	return out
}

func (h *Handler) activeAlerts() []*alerts.Alert {
	if h.alerts == nil {
		return []*alerts.Alert{}
	}
	return h.alerts.Active()
}

func (h *Handler) alertCount() int {
	if h.alerts == nil {
		return 0
	}
	return h.alerts.FiringCount()
}

func toBusinessResponse(e *store.Entry) BusinessResponse {
	return BusinessResponse{
		ScoreSnapshot: e.Snapshot,
		LastSeen:      e.UpdatedAt.UTC().Format(time.RFC3339),
		FirstSeen:     e.FirstSeen.UTC().Format(time.RFC3339),
		Updates:       e.Updates,
	}
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
