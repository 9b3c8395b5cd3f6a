package websocket

import (
	"sync"
)

// Listener is a callback registered for an event; see the Event* constants
// for what payload each event carries.
type Listener func(payload interface{})

// ListenerID identifies a registered listener, so that it can be removed.
type ListenerID uint64

type listenerEntry struct {
	id   ListenerID
	cb   Listener
	once bool
}

// emitter is a registry of listeners per event name. Listeners of the same
// event are called in registration order. Emission works on a snapshot of
// the registry, so listeners may add or remove listeners (themselves
// included) while being called.
type emitter struct {
	mtx       sync.Mutex
	lastID    ListenerID
	listeners map[string][]listenerEntry

	// names keeps event names in the order of first registration.
	names []string
}

func newEmitter() *emitter {
	return &emitter{
		listeners: make(map[string][]listenerEntry),
	}
}

func (e *emitter) on(event string, cb Listener, once bool) ListenerID {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	e.lastID++
	id := e.lastID

	if len(e.listeners[event]) == 0 {
		e.names = append(e.names, event)
	}
	e.listeners[event] = append(e.listeners[event], listenerEntry{id: id, cb: cb, once: once})

	return id
}

func (e *emitter) remove(event string, id ListenerID) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	entries := e.listeners[event]
	for i, le := range entries {
		if le.id != id {
			continue
		}

		// Copy, since emit may be iterating over the old slice.
		rest := make([]listenerEntry, 0, len(entries)-1)
		rest = append(rest, entries[:i]...)
		rest = append(rest, entries[i+1:]...)
		e.setLocked(event, rest)

		return true
	}

	return false
}

// removeAll removes listeners of the given events, or of all events if none
// is given.
func (e *emitter) removeAll(events ...string) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if len(events) == 0 {
		e.listeners = make(map[string][]listenerEntry)
		e.names = nil
		return
	}

	for _, event := range events {
		e.setLocked(event, nil)
	}
}

func (e *emitter) setLocked(event string, entries []listenerEntry) {
	if len(entries) > 0 {
		e.listeners[event] = entries
		return
	}

	delete(e.listeners, event)
	for i, name := range e.names {
		if name == event {
			e.names = append(e.names[:i:i], e.names[i+1:]...)
			break
		}
	}
}

func (e *emitter) eventNames() []string {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	names := make([]string, len(e.names))
	copy(names, e.names)
	return names
}

func (e *emitter) listenersOf(event string) []Listener {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	entries := e.listeners[event]
	cbs := make([]Listener, len(entries))
	for i, le := range entries {
		cbs[i] = le.cb
	}
	return cbs
}

func (e *emitter) count(event string) int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return len(e.listeners[event])
}

// emit calls all listeners of the event with the payload, and returns whether
// there were any. One-off listeners are removed before any listener is
// called.
func (e *emitter) emit(event string, payload interface{}) bool {
	e.mtx.Lock()
	entries := e.listeners[event]

	hasOnce := false
	for _, le := range entries {
		if le.once {
			hasOnce = true
			break
		}
	}

	if hasOnce {
		rest := make([]listenerEntry, 0, len(entries))
		for _, le := range entries {
			if !le.once {
				rest = append(rest, le)
			}
		}
		e.setLocked(event, rest)
	}
	e.mtx.Unlock()

	for _, le := range entries {
		le.cb(payload)
	}

	return len(entries) > 0
}
