package dashboard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"trades-export-go/internal/github"
	"trades-export-go/internal/models"
)

const (
	recentRunsLimit = 20
	systemTimeout   = 15 * time.Second
)

// RunLister lists archived export runs and their trades.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]models.ExportRun, error)
	RunTrades(ctx context.Context, runID uint) ([]models.Trade, error)
}

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log    *zap.Logger
	trades *TradeCache
	runs   RunLister              // optional
	gh     github.ClientInterface // optional
	repos  []string
	now    func() time.Time
}

// NewAPIHandler creates a new APIHandler. runs and gh may be nil.
func NewAPIHandler(log *zap.Logger, trades *TradeCache, runs RunLister, gh github.ClientInterface, repos []string) *APIHandler {
	return &APIHandler{log: log, trades: trades, runs: runs, gh: gh, repos: repos, now: time.Now}
}

// Register adds the API endpoints to mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.StatusHandler)
	mux.HandleFunc("/api/trades", h.TradesHandler)
	mux.HandleFunc("/api/statistics", h.StatisticsHandler)
	mux.HandleFunc("/api/runs", h.RunsHandler)
	mux.HandleFunc("GET /api/runs/{id}/trades", h.RunTradesHandler)
	mux.HandleFunc("/api/system", h.SystemHandler)
}

// TradesResponse is the structure for the /api/trades endpoint.
type TradesResponse struct {
	Trades []models.Trade `json:"trades"`
	Total  int            `json:"total"`
	Source string         `json:"source,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// StatusHandler reports that the server is up.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TradesHandler returns the exported trades, most recent first.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	trades, source, err := h.trades.Trades()
	switch {
	case err != nil && source == SourceCacheStale:
		h.log.Warn("Serving stale trades", zap.Error(err))
		h.writeJSON(w, http.StatusOK, TradesResponse{
			Trades: trades,
			Total:  len(trades),
			Source: source,
			Error:  "Using cached data due to read error",
		})
	case err != nil:
		h.log.Error("Failed to read exported trades", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, TradesResponse{
			Trades: []models.Trade{},
			Error:  "Failed to read trading data",
		})
	case len(trades) == 0:
		h.writeJSON(w, http.StatusNotFound, TradesResponse{
			Trades: []models.Trade{},
			Error:  "No trades found",
		})
	default:
		h.writeJSON(w, http.StatusOK, TradesResponse{Trades: trades, Total: len(trades), Source: source})
	}
}

// StatisticsHandler calculates and returns trading statistics.
func (h *APIHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	trades, _, err := h.trades.Trades()
	if err != nil && trades == nil {
		h.log.Error("Failed to get trades for statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, Statistics(trades))
}

// RunsHandler returns the most recent export runs.
func (h *APIHandler) RunsHandler(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		http.Error(w, "Export history is disabled", http.StatusNotFound)
		return
	}
	runs, err := h.runs.RecentRuns(r.Context(), recentRunsLimit)
	if err != nil {
		h.log.Error("Failed to list export runs", zap.Error(err))
		http.Error(w, "Failed to list export runs", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, runs)
}

// RunTradesHandler returns the trades archived by one export run, in export order.
func (h *APIHandler) RunTradesHandler(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		http.Error(w, "Export history is disabled", http.StatusNotFound)
		return
	}
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 0)
	if err != nil || id == 0 {
		http.Error(w, "Invalid run id", http.StatusBadRequest)
		return
	}
	trades, err := h.runs.RunTrades(r.Context(), uint(id))
	if err != nil {
		h.log.Error("Failed to load run trades", zap.Uint64("run_id", id), zap.Error(err))
		http.Error(w, "Failed to load run trades", http.StatusInternalServerError)
		return
	}
	if len(trades) == 0 {
		h.writeJSON(w, http.StatusNotFound, TradesResponse{
			Trades: []models.Trade{},
			Error:  "No trades found",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, TradesResponse{Trades: trades, Total: len(trades), Source: "history"})
}

// RepoHealth is one repository's entry in the /api/system response.
type RepoHealth struct {
	github.RepoStatus
	Ago string `json:"ago"`
}

// SystemResponse is the structure for the /api/system endpoint.
type SystemResponse struct {
	Repos         []RepoHealth   `json:"repos"`
	TradingStats  map[string]any `json:"trading_stats"`
	DataCollector map[string]any `json:"data_collector"`
}

// SystemHandler reports the latest commit of each configured repository.
// A repository that cannot be reached is reported with placeholder values.
func (h *APIHandler) SystemHandler(w http.ResponseWriter, r *http.Request) {
	resp := SystemResponse{Repos: []RepoHealth{}}
	if h.gh == nil {
		h.writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), systemTimeout)
	defer cancel()

	now := h.now()
	for _, repo := range h.repos {
		status, err := h.gh.RepoStatus(ctx, repo)
		if err != nil {
			h.log.Warn("Failed to fetch repository status", zap.String("repo", repo), zap.Error(err))
			status = &github.RepoStatus{Repo: repo, LastCommit: "Error fetching data", SHA: "error"}
		}
		resp.Repos = append(resp.Repos, RepoHealth{RepoStatus: *status, Ago: github.TimeAgo(status.LastUpdate, now)})
	}

	stats, err := h.gh.TradingStats(ctx)
	if err != nil {
		h.log.Warn("Failed to fetch trading stats", zap.Error(err))
	}
	resp.TradingStats = stats

	collected, err := h.gh.DataCollectorStats(ctx)
	if err != nil {
		h.log.Warn("Failed to fetch data collector stats", zap.Error(err))
	}
	resp.DataCollector = collected

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to write response", zap.Error(err))
	}
}
