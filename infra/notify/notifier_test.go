package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcrew/dispatch/core/events"
	"github.com/fieldcrew/dispatch/core/model"
	corenotify "github.com/fieldcrew/dispatch/core/notify"
	"github.com/fieldcrew/dispatch/infra/logger"
	"github.com/fieldcrew/dispatch/internal/eventbus"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestNotifierRoutesAssignmentToTeamAndDashboard(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	pub := NewMockPublisher()
	n := NewNotifier(pub, bus, logger.NopLogger{})
	n.Start()
	defer n.Close()

	bus.Publish(events.OrderAssigned{
		OrderCode: "ODL-202608-0001",
		TeamCode:  "SQ-01",
		Mode:      model.AssignManual,
		Score:     87.5,
	})

	waitFor(t, func() bool { return pub.Count(corenotify.TopicDashboard) == 1 })
	require.Equal(t, 1, pub.Count(corenotify.TopicTeam("SQ-01")))

	var env struct {
		Event string `json:"event"`
	}
	require.NoError(t, json.Unmarshal(pub.Messages[corenotify.TopicDashboard][0], &env))
	assert.Equal(t, "order_assigned", env.Event)
}

func TestNotifierRoutesMobilizationToBothChannels(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	pub := NewMockPublisher()
	n := NewNotifier(pub, bus, logger.NopLogger{})
	n.Start()
	defer n.Close()

	bus.Publish(events.TeamMobilized{
		EmergencyCode: "EMG-202608-001",
		TeamCode:      "SQ-02",
	})

	waitFor(t, func() bool { return pub.Count(corenotify.TopicDashboard) == 1 })
	assert.Equal(t, 1, pub.Count(corenotify.TopicTeam("SQ-02")))
	assert.Equal(t, 1, pub.Count(corenotify.TopicEmergency("EMG-202608-001")))
}

func TestNotifierAnomalyGoesToDashboardOnly(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	pub := NewMockPublisher()
	n := NewNotifier(pub, bus, logger.NopLogger{})
	n.Start()
	defer n.Close()

	bus.Publish(events.AnomalyAlert{
		VehicleID: "VH-9",
		Type:      model.AlertSpeeding,
		Severity:  model.AlertSeverityMedium,
	})

	waitFor(t, func() bool { return pub.Count(corenotify.TopicDashboard) == 1 })
	assert.Len(t, pub.Messages, 1)
}

type unroutedEvent struct{}

func (unroutedEvent) Name() string { return "unrouted" }

func TestNotifierIgnoresUnknownEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	pub := NewMockPublisher()
	n := NewNotifier(pub, bus, logger.NopLogger{})
	n.Start()

	bus.Publish(unroutedEvent{})
	bus.Publish(events.EmergencyDeactivated{Code: "EMG-202608-002"})

	waitFor(t, func() bool { return pub.Count(corenotify.TopicDashboard) == 1 })
	n.Close()
	assert.Equal(t, 1, pub.Count(corenotify.TopicEmergency("EMG-202608-002")))
}
