package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/perfectcircle/pkg/logger"
)

// Client talks to the scoring API.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a Client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{base: baseURL, client: &http.Client{Timeout: timeout}}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	return err
}

type scoreReply struct {
	Score    float64 `json:"score"`
	Valid    bool    `json:"valid"`
	Eligible bool    `json:"eligible"`
}

// Score posts a gesture to POST /score.
func (c *Client) Score(ctx context.Context, g Gesture) (Scored, error) {
	var rep scoreReply
	req := map[string]any{"width": g.Width, "points": g.Points}
	if _, err := c.do(ctx, http.MethodPost, "/score", req, &rep); err != nil {
		return Scored{}, err
	}
	return Scored{Gesture: g, Score: rep.Score, Valid: rep.Valid, Eligible: rep.Eligible}, nil
}

// Submit posts a gesture with its points to POST /scores.
func (c *Client) Submit(ctx context.Context, g Gesture) (AckResponse, error) {
	var ack AckResponse
	if _, err := c.do(ctx, http.MethodPost, "/scores", g, &ack); err != nil {
		return AckResponse{}, err
	}
	return ack, nil
}

// Top fetches GET /scores?limit=n.
func (c *Client) Top(ctx context.Context, n int) ([]Entry, error) {
	var entries []Entry
	if _, err := c.do(ctx, http.MethodGet, "/scores?limit="+strconv.Itoa(n), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// scoreAll scores gestures concurrently and returns them in input order.
func scoreAll(ctx context.Context, cfg *Config, c *Client, gestures []Gesture, stats *Stats) []Scored {
	logger.Get().Info(ctx, "scoring gestures",
		logger.Int("count", len(gestures)),
		logger.Int("workers", cfg.Workers),
	)

	out := make([]Scored, len(gestures))
	ok := make([]bool, len(gestures))
	var failed int64

	fanOut(ctx, cfg.Workers, len(gestures), func(i int) {
		s, err := c.Score(ctx, gestures[i])
		if err != nil {
			atomic.AddInt64(&failed, 1)
			logger.Get().Warn(ctx, "score failed", logger.String("id", gestures[i].ID), logger.Error(err))
			return
		}
		out[i], ok[i] = s, true
		if cfg.Verbose {
			logger.Get().Debug(ctx, "scored",
				logger.String("kind", string(s.Kind)),
				logger.Float64("score", s.Score),
				logger.Bool("eligible", s.Eligible),
			)
		}
	})

	scored := make([]Scored, 0, len(out))
	for i, s := range out {
		if ok[i] {
			scored = append(scored, s)
		}
	}
	stats.Scored = len(scored)
	stats.ScoreFailed = int(failed)
	return scored
}

// submitAll submits every eligible gesture concurrently.
func submitAll(ctx context.Context, cfg *Config, c *Client, scored []Scored, stats *Stats) []Scored {
	var eligible []Scored
	for _, s := range scored {
		if s.Eligible {
			eligible = append(eligible, s)
		}
	}
	stats.Eligible = len(eligible)
	logger.Get().Info(ctx, "submitting eligible gestures", logger.Int("count", len(eligible)))

	var (
		mu        sync.Mutex
		accepted  []Scored
		duplicate int64
		failed    int64
	)
	fanOut(ctx, cfg.Workers, len(eligible), func(i int) {
		ack, err := c.Submit(ctx, eligible[i].Gesture)
		switch {
		case err != nil:
			atomic.AddInt64(&failed, 1)
			logger.Get().Warn(ctx, "submit failed", logger.String("id", eligible[i].ID), logger.Error(err))
		case ack.Duplicate:
			atomic.AddInt64(&duplicate, 1)
		default:
			mu.Lock()
			accepted = append(accepted, eligible[i])
			mu.Unlock()
		}
	})

	stats.Submitted = len(accepted)
	stats.Duplicate = int(duplicate)
	stats.SubmitFailed = int(failed)
	return accepted
}

// fanOut runs fn for every index in [0, n) on up to workers goroutines.
func fanOut(ctx context.Context, workers, n int, fn func(i int)) {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				fn(i)
			}
		}()
	}
feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}
