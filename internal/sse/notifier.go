package sse

import (
	"time"

	"github.com/GTDGit/carniceria_api/internal/notify"
	"github.com/GTDGit/carniceria_api/internal/store"
)

// StateEvent is the store snapshot pushed to admin clients after every
// transition.
type StateEvent struct {
	Action    string      `json:"action"`
	ProductID string      `json:"productId,omitempty"`
	State     store.State `json:"state"`
	Timestamp time.Time   `json:"timestamp"`
}

// HubNotifier forwards notifications and store transitions to the Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// Send implements notify.Sink.
func (n *HubNotifier) Send(msg notify.Notification) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(EventNotification, msg)
}

// Attach subscribes to s and returns the unsubscribe function.
func (n *HubNotifier) Attach(s *store.Store) func() {
	return s.Subscribe(n.listen)
}

func (n *HubNotifier) listen(_, next store.State, a store.Action) {
	if n.hub.ClientCount() == 0 || a.Phase == store.PhaseRejected {
		return
	}
	n.hub.Broadcast(EventState, &StateEvent{
		Action:    a.Type(),
		ProductID: a.ProductID,
		State:     next,
		Timestamp: time.Now(),
	})
}
