package geocall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fieldcrew/dispatch/core/model"
)

// Client talks to the external dispatch system over HTTP. Every call is
// bounded by the configured timeout so a slow remote cannot stall the
// engine.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewClient creates a Client from the configuration.
func NewClient(cfg Config) *Client {
	cfg.SetDefaults()
	return &Client{
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// FetchNewOrders retrieves orders not yet imported.
func (c *Client) FetchNewOrders(ctx context.Context) ([]ExternalOrder, error) {
	var out []ExternalOrder
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders/new", nil, &out); err != nil {
		return nil, &SyncError{Op: "fetch", Err: err}
	}
	return out, nil
}

// SendStatusUpdate pushes a lifecycle transition to the external system.
func (c *Client) SendStatusUpdate(ctx context.Context, externalID string, status model.WorkOrderStatus) error {
	payload := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPut, "/api/v1/orders/"+externalID+"/status", payload, nil); err != nil {
		return &SyncError{Op: "status update", Err: err}
	}
	return nil
}

// SendCompletionReport pushes the closing report for a completed order.
func (c *Client) SendCompletionReport(ctx context.Context, externalID string) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders/"+externalID+"/completion", nil, nil); err != nil {
		return &SyncError{Op: "completion report", Err: err}
	}
	return nil
}
