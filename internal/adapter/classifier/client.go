// Package classifier talks to the transaction-classifier sidecar that
// suggests a category for a free-text transaction description.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/infrastructure/metrics"
)

// Client implements usecase.CategorySuggester against the sidecar's HTTP
// API. Calls run through a circuit breaker so a dead sidecar does not slow
// every transaction form down.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// New creates a classifier client for the given base URL.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "classifier",
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
		}),
		logger:  logger,
		metrics: m,
	}
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	Data      struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	} `json:"data"`
}

// Suggest asks the sidecar to classify the description.
func (c *Client) Suggest(ctx context.Context, text string) (*domain.CategorySuggestion, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.predict(ctx, text)
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.ClassifierRequests.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.ClassifierRequests.WithLabelValues("ok").Inc()
	}
	return result.(*domain.CategorySuggestion), nil
}

func (c *Client) predict(ctx context.Context, text string) (*domain.CategorySuggestion, error) {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned %d", resp.StatusCode)
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	if parsed.Status != "success" || parsed.Data.Category == "" {
		return nil, fmt.Errorf("classifier returned status %q", parsed.Status)
	}

	c.logger.Debug().
		Str("request_id", parsed.RequestID).
		Str("category", parsed.Data.Category).
		Float64("confidence", parsed.Data.Confidence).
		Msg("category suggested")

	return &domain.CategorySuggestion{
		Category:   parsed.Data.Category,
		Confidence: parsed.Data.Confidence,
	}, nil
}
