package models

// EventType names a committed mutation relayed to live viewers.
type EventType string

const (
	EventMessageCreated EventType = "messageCreated"
	EventMessageEdited  EventType = "messageEdited"
	EventMessageDeleted EventType = "messageDeleted"
)

// Event is the wire shape pushed to subscribed sessions. Events are emitted
// only after the corresponding store mutation has committed, so a receiver
// can always re-fetch consistent history.
type Event struct {
	Type EventType `json:"type"`
	// Message carries the full record for created/edited events.
	Message *Message `json:"message,omitempty"`
	// ID identifies the removed record for deleted events.
	ID string `json:"id,omitempty"`
}
