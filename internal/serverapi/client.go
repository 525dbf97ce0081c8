// Package serverapi is the HTTP client for the remote HealthBridge
// server. It covers the sync push, the nutrition collaborator
// endpoints, and the summary readers the report tool renders from.
package serverapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/constants"
	"github.com/healthbridge/healthbridge/internal/types"
)

// requestTimeout is the fixed wall-clock budget per call. A timeout is
// reported the same way as any other transport failure.
const requestTimeout = 30 * time.Second

// ErrNotConfigured is returned before any network call when the
// endpoint or API key is missing.
var ErrNotConfigured = errors.New("server API endpoint or key not configured")

// ServerError is a non-2xx response from the server.
type ServerError struct {
	Code int
	Body string
}

func (e *ServerError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("server returned HTTP %d: %s", e.Code, body)
}

// DecodingError is a 2xx response whose body could not be decoded.
type DecodingError struct {
	Endpoint string
	Err      error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding response from %s: %v", e.Endpoint, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// NormalizeEndpoint trims the configured endpoint and prefixes http://
// when no scheme was given, so bare host:port values work.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ""
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}
	return strings.TrimRight(endpoint, "/")
}

// Client talks to one HealthBridge server. Safe for concurrent use.
type Client struct {
	http       *resty.Client
	logger     *zap.SugaredLogger
	configured bool
}

// NewClient builds a client for the given endpoint and API key. An
// empty endpoint or key yields a client whose every call fails fast
// with ErrNotConfigured.
func NewClient(endpoint, apiKey string, logger *zap.SugaredLogger) *Client {
	httpClient := resty.New().
		SetBaseURL(NormalizeEndpoint(endpoint)).
		SetTimeout(requestTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "healthbridge-agent/"+constants.Version).
		SetHeader("X-API-Key", apiKey)

	return &Client{
		http:       httpClient,
		logger:     logger,
		configured: strings.TrimSpace(endpoint) != "" && strings.TrimSpace(apiKey) != "",
	}
}

// Configured reports whether both endpoint and API key are set.
func (c *Client) Configured() bool {
	return c.configured
}

// PushSync POSTs a sync payload. Success is exactly HTTP 200; any other
// status or a transport failure is an error.
func (c *Client) PushSync(ctx context.Context, payload *types.SyncPayload) error {
	if !c.configured {
		return ErrNotConfigured
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/api/health/sync")
	if err != nil {
		return fmt.Errorf("push sync: %w", err)
	}
	if resp.StatusCode() != 200 {
		return &ServerError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}

	c.logger.Debugf("Pushed sync payload for device %s covering %s to %s",
		payload.DeviceID, payload.PeriodFrom.Format(time.RFC3339), payload.PeriodTo.Format(time.RFC3339))
	return nil
}

// Ping checks server reachability. The ping endpoint is the one
// unauthenticated route, so this succeeds even with a wrong key.
func (c *Client) Ping(ctx context.Context) error {
	if !c.configured {
		return ErrNotConfigured
	}

	resp, err := c.http.R().SetContext(ctx).Get("/api/health/ping")
	if err != nil {
		return fmt.Errorf("ping server: %w", err)
	}
	if !resp.IsSuccess() {
		return &ServerError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}

type analyzeRequest struct {
	Text          string `json:"text"`
	ImageBase64   string `json:"image_base64,omitempty"`
	ImageMimeType string `json:"image_mime_type,omitempty"`
}

// AnalyzeMeal submits a free-text meal description (plus an optional
// base64 image) for analysis and returns the resulting record, totals
// computed server-side.
func (c *Client) AnalyzeMeal(ctx context.Context, text, imageBase64, imageMimeType string) (*types.MealRecord, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var meal types.MealRecord
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(analyzeRequest{Text: text, ImageBase64: imageBase64, ImageMimeType: imageMimeType}).
		SetResult(&meal).
		Post("/api/nutrition/analyze")
	if err != nil {
		return nil, fmt.Errorf("analyze meal: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &ServerError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	if meal.MealID == 0 && meal.Description == "" {
		return nil, &DecodingError{Endpoint: "/api/nutrition/analyze", Err: errors.New("response missing meal fields")}
	}

	c.logger.Debugf("Analyzed meal %d: %s (%.0f kcal)", meal.MealID, meal.Description, meal.Totals.Calories)
	return &meal, nil
}

// MealHistory returns the logged meals from the last N days,
// newest first.
func (c *Client) MealHistory(ctx context.Context, days int) ([]types.MealRecord, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var meals []types.MealRecord
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("days", fmt.Sprintf("%d", days)).
		SetResult(&meals).
		Get("/api/nutrition/history")
	if err != nil {
		return nil, fmt.Errorf("fetch meal history: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &ServerError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return meals, nil
}

// DailyNutrition is the server's nutrition rollup for one day.
type DailyNutrition struct {
	Date      string               `json:"date"`
	MealCount int                  `json:"meal_count"`
	Totals    types.NutrientTotals `json:"totals"`
}

// DailyNutritionSummary returns the nutrient totals for one day,
// date formatted YYYY-MM-DD.
func (c *Client) DailyNutritionSummary(ctx context.Context, date string) (*DailyNutrition, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var summary DailyNutrition
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("date", date).
		SetResult(&summary).
		Get("/api/nutrition/summary")
	if err != nil {
		return nil, fmt.Errorf("fetch nutrition summary: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &ServerError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return &summary, nil
}
