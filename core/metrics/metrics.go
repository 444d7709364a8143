// Package metrics defines the observability sinks fed by the dispatch
// services. Prometheus counters live next to the code that increments them;
// this package covers the record-oriented export of assignment outcomes.
package metrics

// AssignmentRecord is one completed assignment, exported for analysis.
type AssignmentRecord struct {
	OrderID    string
	OrderCode  string
	TeamID     string
	TeamCode   string
	Mode       string
	Score      float64
	ETAMinutes float64
	Timestamp  int64
}

// Sink records assignment outcomes for observability purposes.
type Sink interface {
	RecordAssignment(recs []AssignmentRecord) error
}

// NopSink discards all records.
type NopSink struct{}

// RecordAssignment does nothing.
func (NopSink) RecordAssignment([]AssignmentRecord) error { return nil }

// InfluxConfig defines the optional InfluxDB export.
type InfluxConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Org     string `json:"org"`
	Bucket  string `json:"bucket"`
}

// Config defines settings for the observability surface.
type Config struct {
	// PrometheusPort is the listen address of the /metrics endpoint,
	// e.g. ":9090". Empty disables the HTTP exposition.
	PrometheusPort string       `json:"prometheus_port"`
	Influx         InfluxConfig `json:"influx"`
}
