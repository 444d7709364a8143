// Package notify defines the outbound notification surface. Domain events
// are serialized and published to per-audience topics consumed by the field
// dashboard and the crews' mobile devices.
package notify

import "fmt"

// Publisher delivers a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Close()
}

// TopicDashboard receives every event, for the operations dashboard.
const TopicDashboard = "fieldops/dashboard"

// TopicTeam is the per-crew channel.
func TopicTeam(teamCode string) string {
	return fmt.Sprintf("fieldops/team/%s", teamCode)
}

// TopicEmergency is the per-incident channel.
func TopicEmergency(emergencyCode string) string {
	return fmt.Sprintf("fieldops/emergency/%s", emergencyCode)
}
