package realtime

import "time"

// EventType names a board change pushed to websocket clients.
type EventType string

const (
	RequestCreated       EventType = "REQUEST_CREATED"
	RequestUpdated       EventType = "REQUEST_UPDATED"
	RequestStatusChanged EventType = "REQUEST_STATUS_CHANGED"
	RequestDeleted       EventType = "REQUEST_DELETED"
	EquipmentScrapped    EventType = "EQUIPMENT_SCRAPPED"
)

// Event is the envelope written to every client.
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher accepts board events. Implementations must not block callers.
type Publisher interface {
	Publish(Event)
}

// Discard drops every event. It stands in when realtime is disabled.
type Discard struct{}

func (Discard) Publish(Event) {}
