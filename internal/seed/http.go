package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/okian/xptrack/internal/domain/model"
	"github.com/okian/xptrack/internal/domain/tracker"
	"github.com/okian/xptrack/pkg/logger"
)

// client wraps http.Client with the service base URL.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

func (c *client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.http.Do(req)
}

func (c *client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// checkHealth verifies the service answers /healthz.
func (c *client) checkHealth(ctx context.Context) error {
	resp, err := c.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("connect to service: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

type submission struct {
	Account  string         `json:"account"`
	Snapshot map[string]any `json:"snapshot"`
}

// submit posts every snapshot using cfg.Workers goroutines. 429 responses are
// retried with backoff.
func (c *client) submit(ctx context.Context, cfg *Config, histories []History, stats *Stats) error {
	log := logger.Get().Named("seed")
	work := make(chan model.Snapshot, cfg.Workers*2)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range work {
				c.submitOne(ctx, s, stats, log, cfg.Verbose)
			}
		}()
	}

	go func() {
		defer close(work)
		for _, h := range histories {
			for _, s := range h.Snapshots {
				select {
				case work <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submission interrupted: %w", err)
	}
	if n := stats.Failed.Load(); n > 0 {
		return fmt.Errorf("%d snapshots failed to submit", n)
	}
	return nil
}

func (c *client) submitOne(ctx context.Context, s model.Snapshot, stats *Stats, log logger.Logger, verbose bool) {
	body := submission{Account: s.Account, Snapshot: Record(s)}
	backoff := retryBackoff
	for attempt := 0; attempt <= submitRetries; attempt++ {
		resp, err := c.postJSON(ctx, "/snapshots", body)
		if err != nil {
			stats.Failed.Add(1)
			log.Warn(ctx, "submit failed", logger.String("account", s.Account), logger.Error(err))
			return
		}
		status := resp.StatusCode
		drain(resp)

		switch status {
		case http.StatusAccepted:
			stats.Accepted.Add(1)
			if verbose {
				log.Debug(ctx, "snapshot accepted", logger.String("account", s.Account), logger.Time("date", s.Date))
			}
			return
		case http.StatusOK:
			stats.Duplicate.Add(1)
			return
		case http.StatusTooManyRequests:
			stats.Throttled.Add(1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				stats.Failed.Add(1)
				return
			}
			backoff *= 2
		default:
			stats.Failed.Add(1)
			log.Warn(ctx, "snapshot rejected", logger.String("account", s.Account), logger.Int("status", status))
			return
		}
	}
	stats.Failed.Add(1)
}

// track fetches the tracker view for account over [start, end].
func (c *client) track(ctx context.Context, account string, start, end time.Time) (tracker.View, int, error) {
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))
	resp, err := c.get(ctx, "/tracker/"+url.PathEscape(account)+"?"+q.Encode())
	if err != nil {
		return tracker.View{}, 0, err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return tracker.View{}, resp.StatusCode, nil
	}
	var v tracker.View
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return tracker.View{}, resp.StatusCode, fmt.Errorf("decode tracker view: %w", err)
	}
	return v, resp.StatusCode, nil
}
