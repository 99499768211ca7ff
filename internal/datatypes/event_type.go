// Package datatypes holds the event vocabulary of the in-process feedback bus.
package datatypes

// EventType names an event on the feedback bus. The zero value is not a valid event.
type EventType uint8

const (
	_ EventType = iota
	// FeedbackCreated fires once a record has been classified and persisted.
	FeedbackCreated
)

var eventNames = [...]string{
	FeedbackCreated: "feedback.created",
}

// String returns the wire label used in logs and metric attributes, or "" for unknown values.
func (et EventType) String() string {
	if int(et) < len(eventNames) {
		return eventNames[et]
	}

	return ""
}

// ParseEventType is the inverse of String.
func ParseEventType(s string) (EventType, bool) {
	if s == "" {
		return 0, false
	}

	for i, name := range eventNames {
		if name == s {
			return EventType(i), true
		}
	}

	return 0, false
}

// IsValidEventType reports whether s names a known event type.
func IsValidEventType(s string) bool {
	_, ok := ParseEventType(s)

	return ok
}
