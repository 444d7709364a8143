// Package geocall integrates the external dispatch system that originates
// work orders and receives status and completion updates.
package geocall

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldcrew/dispatch/core/model"
)

// ExternalOrder is one work order as exposed by the external system.
type ExternalOrder struct {
	ExternalID  string                  `json:"external_id"`
	Priority    model.Priority          `json:"priority"`
	Type        model.InterventionType  `json:"type"`
	Lon         float64                 `json:"lon"`
	Lat         float64                 `json:"lat"`
	Competences []model.CompetenceType  `json:"competences,omitempty"`
	Materials   []string                `json:"materials,omitempty"`
	Notes       string                  `json:"notes,omitempty"`
	ReceivedAt  time.Time               `json:"received_at"`
}

// Connector is the narrow surface of the external dispatch system consumed
// by the engine.
type Connector interface {
	FetchNewOrders(ctx context.Context) ([]ExternalOrder, error)
	SendStatusUpdate(ctx context.Context, externalID string, status model.WorkOrderStatus) error
	SendCompletionReport(ctx context.Context, externalID string) error
}

// SyncError wraps any failure of the external system. Call sites log it and
// move on; it never propagates to the triggering operation's caller.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string { return fmt.Sprintf("geocall %s: %v", e.Op, e.Err) }
func (e *SyncError) Unwrap() error { return e.Err }

// Config defines the connection to the external system.
type Config struct {
	Mode           string `json:"mode"` // "client" or "mock"
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// PollIntervalSeconds drives the intake polling schedule.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "client"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = 60
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Mode == "client" && c.BaseURL == "" {
		return fmt.Errorf("base_url is required in client mode")
	}
	return nil
}

// NewConnector creates a connector depending on cfg.Mode.
func NewConnector(cfg Config) Connector {
	if cfg.Mode == "mock" {
		return NewMockConnector()
	}
	return NewClient(cfg)
}
