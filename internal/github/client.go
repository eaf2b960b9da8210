package github

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trades-export-go/internal/config"
)

const (
	acceptHeader = "application/vnd.github.v3+json"
	maxRetries   = 3
)

// ClientInterface defines the interface for the repository status client.
type ClientInterface interface {
	RepoStatus(ctx context.Context, repo string) (*RepoStatus, error)
	TradingStats(ctx context.Context) (map[string]any, error)
	DataCollectorStats(ctx context.Context) (map[string]any, error)
}

// Client is a rate limited client for the GitHub REST API and raw content host.
type Client struct {
	client     *resty.Client
	user       string
	rawBaseURL string
	statsRepo  string
	dataRepo   string
	logger     *zap.Logger
	limiter    *rate.Limiter
	backoff    func(attempt int) time.Duration
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new GitHub client.
func NewClient(cfg *config.GitHub, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", acceptHeader)

	return &Client{
		client:     client,
		user:       cfg.User,
		rawBaseURL: strings.TrimRight(cfg.RawBaseURL, "/"),
		statsRepo:  cfg.StatsRepo,
		dataRepo:   cfg.DataRepo,
		logger:     logger.Named("github"),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		backoff:    exponentialBackoff,
	}
}

// exponentialBackoff waits 1s, 2s, 4s between attempts.
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// RepoStatus summarizes the latest commit of a repository.
type RepoStatus struct {
	Repo       string     `json:"repo"`
	LastCommit string     `json:"last_commit"`
	LastUpdate *time.Time `json:"last_update"`
	SHA        string     `json:"sha"`
}

type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message   string `json:"message"`
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// RepoStatus fetches the most recent commit of repo.
func (c *Client) RepoStatus(ctx context.Context, repo string) (*RepoStatus, error) {
	var commits []commitResponse
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("per_page", "1").
		SetResult(&commits)

	path := fmt.Sprintf("/repos/%s/%s/commits", c.user, repo)
	if _, err := c.doRequest(ctx, http.MethodGet, path, req); err != nil {
		return nil, fmt.Errorf("failed to get status of %s: %w", repo, err)
	}

	status := &RepoStatus{Repo: repo, LastCommit: "No commits", SHA: "unknown"}
	if len(commits) > 0 {
		latest := commits[0]
		status.LastCommit = latest.Commit.Message
		if d := latest.Commit.Committer.Date; !d.IsZero() {
			status.LastUpdate = &d
		}
		if latest.SHA != "" {
			status.SHA = latest.SHA[:min(7, len(latest.SHA))]
		}
	}
	return status, nil
}

// TradingStats fetches trading_stats.json from the stats repository's master branch.
func (c *Client) TradingStats(ctx context.Context) (map[string]any, error) {
	stats, err := c.rawJSON(ctx, c.statsRepo, "trading_stats.json")
	if err != nil {
		return nil, fmt.Errorf("failed to get trading stats: %w", err)
	}
	return stats, nil
}

// DataCollectorStats fetches the latest high-frequency snapshot published by
// the data collector repository.
func (c *Client) DataCollectorStats(ctx context.Context) (map[string]any, error) {
	stats, err := c.rawJSON(ctx, c.dataRepo, "data/raw/btc_hf_latest.json")
	if err != nil {
		return nil, fmt.Errorf("failed to get data collector stats: %w", err)
	}
	return stats, nil
}

// rawJSON decodes a JSON file from the master branch of repo on the raw
// content host. An unconfigured repo yields nil.
func (c *Client) rawJSON(ctx context.Context, repo, file string) (map[string]any, error) {
	if repo == "" {
		return nil, nil
	}
	var out map[string]any
	req := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		ForceContentType("application/json")

	url := fmt.Sprintf("%s/%s/%s/master/%s", c.rawBaseURL, c.user, repo, file)
	if _, err := c.doRequest(ctx, http.MethodGet, url, req); err != nil {
		return nil, err
	}
	return out, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			switch {
			case statusCode == http.StatusTooManyRequests,
				statusCode == http.StatusForbidden && resp.Header().Get("X-RateLimit-Remaining") == "0":
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			case statusCode >= 500:
				shouldRetry = true
			}
		} else if ctx.Err() == nil { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			if err != nil {
				return nil, fmt.Errorf("request failed: %w", err)
			}
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			retryAfter = c.backoff(i)
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err == nil {
		err = fmt.Errorf("status %s", resp.Status())
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
