package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parkscope/analysis-api/internal/core/domain/analysis"
)

// Config holds the inference client settings.
type Config struct {
	URL string
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// BackoffBase doubles per retry.
	BackoffBase time.Duration
}

// Client calls the external object-detection service over HTTP. Attempts
// are retried with doubling backoff on transport errors and 5xx responses,
// bounded by MaxRetries and the caller's context deadline. Client errors
// (4xx) and unparseable payloads are terminal immediately.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *logrus.Logger
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// apiResponse mirrors the upstream analysis schema.
type apiResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Analysis struct {
		Elements []analysis.Detection `json:"elements"`
	} `json:"analysis"`
}

// Detect sends the raw image bytes and returns the unnormalized detections.
func (c *Client) Detect(ctx context.Context, data []byte) ([]analysis.Detection, error) {
	var lastErr error
	backoff := c.cfg.BackoffBase
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("inference deadline exceeded: %w", ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
			if c.logger != nil {
				c.logger.WithFields(logrus.Fields{"attempt": attempt + 1}).Debug("retrying inference call")
			}
		}
		detections, retryable, err := c.attempt(ctx, data)
		if err == nil {
			return detections, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("inference failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) attempt(ctx context.Context, data []byte) ([]analysis.Detection, bool, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "upload")
	if err != nil {
		return nil, false, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, false, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, false, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, body)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("inference returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("inference returned status %d", resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}
	if !parsed.Success {
		return nil, false, fmt.Errorf("inference rejected request: %s", parsed.Error)
	}
	return parsed.Analysis.Elements, false, nil
}

// CheckHealth probes the detection service for the health surface.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
