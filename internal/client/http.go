package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrUnsuccessful is returned when the backend answers {"success": false}.
var ErrUnsuccessful = errors.New("backend reported no data")

// Query defaults used by the console.
const (
	DefaultMinutes       = 10
	DefaultTimelineHours = 2
	DefaultTrendHours    = 24
	DefaultRecentLimit   = 10
)

// HTTPClient makes REST calls to the SynTwin backend.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://localhost:8000").
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend base URL.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// StreamURL derives the WebSocket stream URL from the base URL.
func (c *HTTPClient) StreamURL() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return "ws://localhost:8000/api/stream/ws"
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s%s/api/stream/ws", scheme, u.Host, strings.TrimRight(u.Path, "/"))
}

// Health checks /api/health. Any 2xx means online.
func (c *HTTPClient) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Suggestions fetches /api/nlp/suggestions.
func (c *HTTPClient) Suggestions(ctx context.Context, minutes int) (*SuggestionSnapshot, error) {
	var env envelope[*SuggestionSnapshot]
	if err := c.get(ctx, "/api/nlp/suggestions?minutes="+strconv.Itoa(minutes), &env); err != nil {
		return nil, err
	}
	if !env.Success || env.Data == nil {
		return nil, unsuccessful(env.Message)
	}
	return env.Data, nil
}

// State fetches /api/nlp/state.
func (c *HTTPClient) State(ctx context.Context, minutes int) (*StateSnapshot, error) {
	var env envelope[*StateSnapshot]
	if err := c.get(ctx, "/api/nlp/state?minutes="+strconv.Itoa(minutes), &env); err != nil {
		return nil, err
	}
	if !env.Success || env.Data == nil {
		return nil, unsuccessful(env.Message)
	}
	return env.Data, nil
}

// DetectionStats fetches /api/detection/stats.
func (c *HTTPClient) DetectionStats(ctx context.Context) (*DetectionStats, error) {
	var env envelope[*DetectionStats]
	if err := c.get(ctx, "/api/detection/stats", &env); err != nil {
		return nil, err
	}
	if !env.Success || env.Data == nil {
		return nil, unsuccessful(env.Message)
	}
	return env.Data, nil
}

// DetectionTimeline fetches /api/detection/timeline.
func (c *HTTPClient) DetectionTimeline(ctx context.Context, hours int) ([]TimelinePoint, error) {
	var env envelope[[]TimelinePoint]
	if err := c.get(ctx, "/api/detection/timeline?hours="+strconv.Itoa(hours), &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, unsuccessful(env.Message)
	}
	return env.Data, nil
}

// EmotionTrends fetches /api/analytics/emotion-trends.
func (c *HTTPClient) EmotionTrends(ctx context.Context, hours int) ([]HourlyTrend, error) {
	var env envelope[[]HourlyTrend]
	if err := c.get(ctx, "/api/analytics/emotion-trends?hours="+strconv.Itoa(hours), &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, unsuccessful(env.Message)
	}
	return env.Data, nil
}

// Analytics fetches stats, timeline and hourly trends in parallel and bundles
// them. It never fails as a whole; per-dataset errors are recorded on the
// snapshot.
func (c *HTTPClient) Analytics(ctx context.Context, timelineHours, trendHours int) *AnalyticsSnapshot {
	snap := &AnalyticsSnapshot{}
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		stats, err := c.DetectionStats(ctx)
		if err != nil {
			snap.StatsErr = err
			return
		}
		snap.EmotionDistribution = stats.EmotionDistribution
		snap.PostureDistribution = stats.PostureDistribution
	}()
	go func() {
		defer wg.Done()
		snap.SentimentTimeline, snap.TimelineErr = c.DetectionTimeline(ctx, timelineHours)
	}()
	go func() {
		defer wg.Done()
		snap.HourlyTrend, snap.TrendsErr = c.EmotionTrends(ctx, trendHours)
	}()
	wg.Wait()
	return snap
}

// Summary fetches /api/analytics/summary as raw JSON.
func (c *HTTPClient) Summary(ctx context.Context) (json.RawMessage, error) {
	var env envelope[json.RawMessage]
	if err := c.get(ctx, "/api/analytics/summary", &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, unsuccessful(env.Message)
	}
	return env.Data, nil
}

// Recent fetches /api/detection/recent.
func (c *HTTPClient) Recent(ctx context.Context, limit int) ([]Detection, error) {
	var env envelope[[]Detection]
	if err := c.get(ctx, "/api/detection/recent?limit="+strconv.Itoa(limit), &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, unsuccessful(env.Message)
	}
	return env.Data, nil
}

// ClearDetections sends DELETE /api/detection/clear and returns the backend message.
func (c *HTTPClient) ClearDetections(ctx context.Context) (string, error) {
	return c.delete(ctx, "/api/detection/clear")
}

// ClearLogs sends DELETE /api/analytics/clear-logs.
func (c *HTTPClient) ClearLogs(ctx context.Context) (string, error) {
	return c.delete(ctx, "/api/analytics/clear-logs")
}

// ExportExcel streams /api/analytics/export-excel into w and returns the
// number of bytes written.
func (c *HTTPClient) ExportExcel(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/analytics/export-excel")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(w, resp.Body)
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) delete(ctx context.Context, path string) (string, error) {
	resp, err := c.do(ctx, http.MethodDelete, path)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var env envelope[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("DELETE %s: decode: %w", path, err)
	}
	if !env.Success {
		return "", unsuccessful(env.Message)
	}
	return env.Message, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func unsuccessful(msg string) error {
	if msg == "" {
		return ErrUnsuccessful
	}
	return fmt.Errorf("%w: %s", ErrUnsuccessful, msg)
}
