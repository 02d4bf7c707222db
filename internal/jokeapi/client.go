package jokeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jokes-web/internal/config"
	"jokes-web/internal/metrics"
	"jokes-web/internal/models"
	"jokes-web/pkg/logger"

	"github.com/go-resty/resty/v2"
)

const maxJokes = 10

var ErrNoJokes = errors.New("joke api returned no jokes")

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("joke api %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

type Client struct {
	cfg  config.JokeAPIConfig
	http *resty.Client
}

type Option func(*Client)

func WithRestyClient(rc *resty.Client) Option {
	return func(c *Client) {
		c.http = rc
	}
}

func New(cfg config.JokeAPIConfig, opts ...Option) *Client {
	if cfg.Category == "" {
		cfg.Category = "programming"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		cfg: cfg,
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "jokes-web/1.0").
			SetTimeout(cfg.Timeout),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchProgrammingJokes returns up to ten jokes from the "ten" endpoint.
func (c *Client) FetchProgrammingJokes(ctx context.Context) ([]models.Joke, error) {
	jokes, err := c.fetch(ctx, "ten")
	if err != nil {
		return nil, err
	}
	if len(jokes) > maxJokes {
		jokes = jokes[:maxJokes]
	}
	return jokes, nil
}

func (c *Client) FetchRandomProgrammingJoke(ctx context.Context) (*models.Joke, error) {
	jokes, err := c.fetch(ctx, "random")
	if err != nil {
		return nil, err
	}
	return &jokes[0], nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]models.Joke, error) {
	path := fmt.Sprintf("/jokes/%s/%s", c.cfg.Category, endpoint)
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		Get(path)
	metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		logger.ErrorContext(ctx, "Failed to fetch jokes",
			logger.String("endpoint", endpoint),
			logger.Err(err),
		)
		return nil, fmt.Errorf("joke api %s request failed: %w", endpoint, err)
	}

	if resp.IsError() {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "bad_status").Inc()
		statusErr := &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode(),
			Body:       truncate(resp.String(), 200),
		}
		logger.WarnContext(ctx, "Non-OK status from joke api",
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode()),
		)
		return nil, statusErr
	}

	jokes, err := decodeJokes(resp.Body())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "decode_error").Inc()
		logger.ErrorContext(ctx, "Failed to decode joke api response",
			logger.String("endpoint", endpoint),
			logger.Err(err),
		)
		return nil, err
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	logger.InfoContext(ctx, "Fetched jokes",
		logger.String("endpoint", endpoint),
		logger.Int("count", len(jokes)),
	)
	return jokes, nil
}

// decodeJokes accepts either a JSON array of jokes or a single joke object.
func decodeJokes(body []byte) ([]models.Joke, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrNoJokes
	}

	var jokes []models.Joke
	if body[0] == '{' {
		var joke models.Joke
		if err := json.Unmarshal(body, &joke); err != nil {
			return nil, fmt.Errorf("failed to decode joke: %w", err)
		}
		jokes = []models.Joke{joke}
	} else if err := json.Unmarshal(body, &jokes); err != nil {
		return nil, fmt.Errorf("failed to decode jokes: %w", err)
	}

	if len(jokes) == 0 {
		return nil, ErrNoJokes
	}
	return jokes, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
