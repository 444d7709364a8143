package notify

import (
	"encoding/json"
	"sync"

	"github.com/fieldcrew/dispatch/core/events"
	"github.com/fieldcrew/dispatch/core/logger"
	corenotify "github.com/fieldcrew/dispatch/core/notify"
	"github.com/fieldcrew/dispatch/internal/eventbus"
)

// envelope is the wire shape of every notification.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Notifier bridges the internal event bus onto the notification topics.
// Every event reaches the dashboard topic; events tied to a crew or an
// incident are also routed to the matching channel.
type Notifier struct {
	pub  corenotify.Publisher
	bus  eventbus.EventBus
	log  logger.Logger
	sub  <-chan eventbus.Event
	done chan struct{}
	once sync.Once
}

// NewNotifier creates the bridge. Call Start to begin forwarding.
func NewNotifier(pub corenotify.Publisher, bus eventbus.EventBus, log logger.Logger) *Notifier {
	return &Notifier{pub: pub, bus: bus, log: log, done: make(chan struct{})}
}

// Start subscribes to the bus and forwards events until Close is called or
// the bus shuts down.
func (n *Notifier) Start() {
	n.sub = n.bus.Subscribe()
	go func() {
		defer close(n.done)
		for e := range n.sub {
			n.dispatch(e)
		}
	}()
}

// Close detaches from the bus and waits for the forwarding goroutine.
func (n *Notifier) Close() {
	n.once.Do(func() {
		n.bus.Unsubscribe(n.sub)
		<-n.done
	})
}

func (n *Notifier) dispatch(e eventbus.Event) {
	name := e.Name()
	var topics []string
	switch ev := e.(type) {
	case events.OrderAssigned:
		if ev.TeamCode != "" {
			topics = append(topics, corenotify.TopicTeam(ev.TeamCode))
		}
	case events.StatusChanged:
		if ev.TeamCode != "" {
			topics = append(topics, corenotify.TopicTeam(ev.TeamCode))
		}
	case events.OrderSuspended:
		if ev.EmergencyCode != "" {
			topics = append(topics, corenotify.TopicEmergency(ev.EmergencyCode))
		}
	case events.EmergencyActivated:
		topics = append(topics, corenotify.TopicEmergency(ev.Code))
	case events.TeamMobilized:
		topics = append(topics,
			corenotify.TopicTeam(ev.TeamCode),
			corenotify.TopicEmergency(ev.EmergencyCode))
	case events.EmergencyDeactivated:
		topics = append(topics, corenotify.TopicEmergency(ev.Code))
	case events.AnomalyAlert, events.OrderOverdue:
		// dashboard only
	default:
		return
	}

	payload, err := json.Marshal(envelope{Event: name, Data: e})
	if err != nil {
		n.log.Errorf("encode %s: %v", name, err)
		return
	}
	for _, topic := range append(topics, corenotify.TopicDashboard) {
		if err := n.pub.Publish(topic, payload); err != nil {
			n.log.Warnf("notify %s on %s: %v", name, topic, err)
		}
	}
}
