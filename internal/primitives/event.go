// Event provides the identity-bearing event primitive delivered through a processor's queue.
//
// An Event exposes a stable EventID. Two events are the same event iff their IDs
// are equal, regardless of payload. Payload-carrying events embed BaseEvent and are
// discriminated at the consumer by ID, then type-asserted.
//
// Example:
//
//	type Temperature struct {
//		primitives.BaseEvent
//		Celsius float64
//	}
//
//	ev := Temperature{BaseEvent: primitives.NewEvent(EvTemperature), Celsius: 21.5}
package primitives

import "strconv"

// EventID identifies an event kind.
type EventID uint32

// String implements fmt.Stringer.
func (id EventID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Event is anything that carries an EventID.
type Event interface {
	ID() EventID
}

// BaseEvent is the payload-free Event. Embed it to build payload events.
type BaseEvent struct {
	EventID EventID
}

// NewEvent returns a payload-free event with the given identity.
func NewEvent(id EventID) BaseEvent {
	return BaseEvent{EventID: id}
}

// ID implements Event.
func (e BaseEvent) ID() EventID { return e.EventID }

// SameEvent reports whether a and b share an identity. Payloads are not compared.
// A nil event is only the same as another nil event.
func SameEvent(a, b Event) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}
