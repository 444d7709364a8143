package model

import "time"

// AlertType classifies a GPS-derived anomaly.
type AlertType string

const (
	AlertSpeeding AlertType = "velocita_eccessiva"
	AlertOffHours AlertType = "uso_fuori_orario"
)

// AlertSeverity grades an anomaly alert.
type AlertSeverity string

const (
	AlertSeverityLow    AlertSeverity = "low"
	AlertSeverityMedium AlertSeverity = "medium"
	AlertSeverityHigh   AlertSeverity = "high"
)

// Alert is an anomaly raised for a vehicle from GPS telemetry.
type Alert struct {
	ID        string        `json:"id"`
	VehicleID string        `json:"vehicle_id"`
	Type      AlertType     `json:"type"`
	Severity  AlertSeverity `json:"severity"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
	Resolved  bool          `json:"resolved"`
}

// GPSFix is one position report from a vehicle tracker.
type GPSFix struct {
	VehicleID string    `json:"vehicle_id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	SpeedKmh  float64   `json:"speed_kmh"`
	Heading   float64   `json:"heading"`
	Timestamp time.Time `json:"timestamp"`
}
