package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"crmdash/internal/config"
	"crmdash/internal/model"
	"crmdash/internal/normalize"
)

const maxResponseBytes = 10 << 20

// StatusError is a non-2xx webhook response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error [%d]: %s", e.Status, e.Body)
}

// Client calls the n8n CRM webhooks. Every call is a POST carrying an
// action envelope.
type Client struct {
	baseURL    string
	token      string
	endpoints  config.Endpoints
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a webhook client.
func NewClient(cfg config.APIConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		endpoints:  cfg.Endpoints,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type actionPayload struct {
	Action    string         `json:"action"`
	RequestID string         `json:"request_id"`
	Data      map[string]any `json:"data"`
}

func (c *Client) route(res model.Resource) (endpoint, action string, err error) {
	switch res {
	case model.ResourceCustomers:
		return c.endpoints.Customers, "get_customers", nil
	case model.ResourceLeads:
		return c.endpoints.Leads, "get_leads", nil
	case model.ResourceEscalations:
		return c.endpoints.Escalations, "get_escalations", nil
	case model.ResourceCampaigns:
		return c.endpoints.Campaigns, "get_campaign_performance", nil
	case model.ResourceStats:
		return c.endpoints.Stats, "get_quick_stats", nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrUnknownResource, res)
}

// Fetch implements Source.
func (c *Client) Fetch(ctx context.Context, res model.Resource) (any, error) {
	endpoint, action, err := c.route(res)
	if err != nil {
		return nil, err
	}
	payload, err := c.call(ctx, endpoint, action)
	if err != nil || res == model.ResourceStats {
		return payload, err
	}
	// The tables page locally, so a server-side page means missing rows.
	if list := normalize.NormalizeList(payload); list.Total > len(list.Items) {
		c.logger.Warn().
			Str("resource", string(res)).
			Int("items", len(list.Items)).
			Int("total", list.Total).
			Int("page", list.Page).
			Msg("webhook returned a partial list")
	}
	return payload, nil
}

// Health checks connectivity with a quick-stats call.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.call(ctx, c.endpoints.Stats, "get_quick_stats")
	return err
}

// Close implements Source.
func (c *Client) Close() error { return nil }

func (c *Client) call(ctx context.Context, endpoint, action string) (any, error) {
	requestID := "req_" + uuid.NewString()
	body, err := json.Marshal(actionPayload{Action: action, RequestID: requestID, Data: map[string]any{}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug().Str("action", action).Str("request_id", requestID).Msg("calling webhook")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	reader := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(reader, 512))
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	var payload any
	if err := json.NewDecoder(reader).Decode(&payload); err != nil {
		return nil, fmt.Errorf("JSON decode error: %w", err)
	}
	switch payload.(type) {
	case map[string]any, []any:
		return payload, nil
	}
	return nil, fmt.Errorf("invalid response format from %s", endpoint)
}
