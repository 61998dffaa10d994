package internal

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// Bus publishes user-interface events to whatever transport the embedding
// host subscribes to. Implementations must be safe for concurrent use.
type Bus interface {
	Publish(eventName string, payload interface{}) error
	Close() error
}

// BusEvent is one published event as recorded by the in-memory bus.
type BusEvent struct {
	Name    string
	Payload []byte
}

// InMemoryBus records published events in memory. Hosts running in the same
// process consume them directly, tests inspect them.
type InMemoryBus struct {
	events []BusEvent
	mutex  sync.RWMutex
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{}
}

// Publish marshals the payload immediately, so the recorded bytes cannot
// alias memory the caller mutates afterwards.
func (b *InMemoryBus) Publish(eventName string, payload interface{}) error {
	data, err := jsoniter.Marshal(payload)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	b.events = append(b.events, BusEvent{Name: eventName, Payload: data})
	b.mutex.Unlock()
	return nil
}

// Events returns a copy of everything published so far, in publish order.
func (b *InMemoryBus) Events() []BusEvent {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	events := make([]BusEvent, len(b.events))
	copy(events, b.events)
	return events
}

// EventsNamed returns the published events carrying the given name, in
// publish order.
func (b *InMemoryBus) EventsNamed(name string) (events []BusEvent) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	for _, event := range b.events {
		if event.Name == name {
			events = append(events, event)
		}
	}
	return events
}

func (b *InMemoryBus) Close() error {
	return nil
}
