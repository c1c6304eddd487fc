// Package replicate is a minimal client for the Replicate predictions API.
// The API is poll-only: a submitted prediction moves through starting and
// processing before reaching a terminal state, and callers have to fetch it
// repeatedly to observe progress.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"emojimaker/api/internal/apperr"
	"emojimaker/api/internal/config"
)

const promptPrefix = "A TOK emoji of "

type Status string

const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

type Prediction struct {
	ID     string   `json:"id"`
	Status Status   `json:"status"`
	Output []string `json:"output"`
	Error  string   `json:"error"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	version    string

	pollInterval time.Duration
	maxAttempts  int
}

func NewClient(cfg config.ReplicateConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, apperr.New(apperr.KindConfiguration, "replicate.NewClient", "api token is not set")
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 30
	}

	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      cfg.BaseURL,
		token:        cfg.Token,
		version:      cfg.ModelVersion,
		pollInterval: interval,
		maxAttempts:  attempts,
	}, nil
}

type submitRequest struct {
	Version string      `json:"version"`
	Input   submitInput `json:"input"`
}

type submitInput struct {
	Prompt string `json:"prompt"`
}

// Submit creates a prediction for the prompt and returns its id. The style
// token prefix is applied here so every caller produces emoji-styled output.
func (c *Client) Submit(ctx context.Context, prompt string) (string, error) {
	const op = "replicate.Submit"

	body, err := json.Marshal(submitRequest{
		Version: c.version,
		Input:   submitInput{Prompt: promptPrefix + prompt},
	})
	if err != nil {
		return "", fmt.Errorf("%s: marshal: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	var prediction Prediction
	if err := c.do(op, req, &prediction); err != nil {
		return "", err
	}
	return prediction.ID, nil
}

// Get fetches the current state of a prediction.
func (c *Client) Get(ctx context.Context, id string) (Prediction, error) {
	const op = "replicate.Get"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/predictions/"+id, nil)
	if err != nil {
		return Prediction{}, fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	var prediction Prediction
	if err := c.do(op, req, &prediction); err != nil {
		return Prediction{}, err
	}
	return prediction, nil
}

// Await polls the prediction at the configured cadence until it reaches a
// terminal state. It performs at most maxAttempts polls; exhausting them
// yields a timeout error distinct from upstream failure so the caller can
// suggest a retry. Cancelling ctx aborts the wait between polls.
func (c *Client) Await(ctx context.Context, id string) (Prediction, error) {
	const op = "replicate.Await"

	for attempt := 1; ; attempt++ {
		prediction, err := c.Get(ctx, id)
		if err != nil {
			return Prediction{}, err
		}
		if prediction.Status.Terminal() {
			return prediction, nil
		}
		if attempt >= c.maxAttempts {
			return Prediction{}, apperr.New(apperr.KindTimeout, op,
				fmt.Sprintf("prediction %s not finished after %d polls", id, c.maxAttempts))
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Prediction{}, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindUpstream, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperr.Wrap(apperr.KindUpstream, op,
			fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindUpstream, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
