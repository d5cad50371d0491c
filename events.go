package anvil

import (
	"unsafe"

	"github.com/akmonengine/anvil/actor"
	"github.com/akmonengine/anvil/geom"
)

// EventType identifies an event kind.
type EventType uint8

const (
	CONTACT_ENTER EventType = iota
	CONTACT_STAY
	CONTACT_EXIT
	ON_SLEEP
	ON_WAKE
)

// Event is implemented by all event payloads.
type Event interface {
	Type() EventType
}

// ContactEnterEvent fires when two geometries start touching.
type ContactEnterEvent struct {
	GeomA *geom.Geometry
	GeomB *geom.Geometry
}

func (e ContactEnterEvent) Type() EventType { return CONTACT_ENTER }

// ContactStayEvent fires for every step two geometries stay in contact.
type ContactStayEvent struct {
	GeomA *geom.Geometry
	GeomB *geom.Geometry
}

func (e ContactStayEvent) Type() EventType { return CONTACT_STAY }

// ContactExitEvent fires when two geometries separate.
type ContactExitEvent struct {
	GeomA *geom.Geometry
	GeomB *geom.Geometry
}

func (e ContactExitEvent) Type() EventType { return CONTACT_EXIT }

// SleepEvent fires when auto-disable freezes a body.
type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

// WakeEvent fires when a body is woken again.
type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener is a callback for events.
type EventListener func(event Event)

type contactKey struct {
	a *geom.Geometry
	b *geom.Geometry
}

// makeContactKey normalizes a geometry pair so both orders map to the same
// key.
func makeContactKey(a, b *geom.Geometry) contactKey {
	if uintptr(unsafe.Pointer(b)) < uintptr(unsafe.Pointer(a)) {
		a, b = b, a
	}
	return contactKey{a: a, b: b}
}

// Events buffers contact and activity transitions during a step and
// dispatches them to subscribers once the step has fully committed.
type Events struct {
	listeners map[EventType][]EventListener
	buffer    []Event

	// Pair order follows the broad phase's deterministic order, so listeners
	// see events in the same order on every run.
	previousPairs map[contactKey]bool
	previousOrder []contactKey
	currentPairs  map[contactKey]bool
	currentOrder  []contactKey

	disabledStates map[*actor.RigidBody]bool
}

func newEvents() Events {
	return Events{
		listeners:      make(map[EventType][]EventListener),
		buffer:         make([]Event, 0, 64),
		previousPairs:  make(map[contactKey]bool),
		currentPairs:   make(map[contactKey]bool),
		disabledStates: make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type.
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContact marks a geometry pair as touching during the current step.
func (e *Events) recordContact(a, b *geom.Geometry) {
	key := makeContactKey(a, b)
	if !e.currentPairs[key] {
		e.currentPairs[key] = true
		e.currentOrder = append(e.currentOrder, key)
	}
}

// forget drops tracked state for a removed body.
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.disabledStates, body)

	kept := e.previousOrder[:0]
	for _, pair := range e.previousOrder {
		if pair.a.Body() == body || pair.b.Body() == body {
			delete(e.previousPairs, pair)
			continue
		}
		kept = append(kept, pair)
	}
	e.previousOrder = kept
}

// processContacts compares current and previous pairs to emit
// Enter/Stay/Exit transitions.
func (e *Events) processContacts() {
	for _, pair := range e.currentOrder {
		if e.previousPairs[pair] {
			e.buffer = append(e.buffer, ContactStayEvent{GeomA: pair.a, GeomB: pair.b})
		} else {
			e.buffer = append(e.buffer, ContactEnterEvent{GeomA: pair.a, GeomB: pair.b})
		}
	}

	for _, pair := range e.previousOrder {
		if !e.currentPairs[pair] {
			e.buffer = append(e.buffer, ContactExitEvent{GeomA: pair.a, GeomB: pair.b})
		}
	}

	e.previousPairs, e.currentPairs = e.currentPairs, e.previousPairs
	e.previousOrder, e.currentOrder = e.currentOrder, e.previousOrder[:0]
	clear(e.currentPairs)
}

// processActivity emits sleep/wake events for bodies whose state changed
// since the last step.
func (e *Events) processActivity(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		disabled := body.State == actor.Disabled

		tracked, exists := e.disabledStates[body]
		if !exists {
			e.disabledStates[body] = disabled
			continue
		}

		if !tracked && disabled {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
			e.disabledStates[body] = true
		} else if tracked && !disabled {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.disabledStates[body] = false
		}
	}
}

// flush sends all buffered events and clears the buffer.
func (e *Events) flush() {
	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}

// step runs the end-of-step event pipeline.
func (e *Events) step(bodies []*actor.RigidBody) {
	e.processContacts()
	e.processActivity(bodies)
	e.flush()
}
