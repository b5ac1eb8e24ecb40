package store

import (
	"petcache/internal/models"
	"petcache/internal/providers"
	"sync"
)

type EventName string

const (
	EventRecordUpdated EventName = "record-updated"
	EventRecordDeleted EventName = "record-deleted"
	EventAllCleared    EventName = "all-cleared"
	// EventExternalChange fires when another context rewrote the document
	// key. OldValue and NewValue carry the raw serialized documents; nothing
	// is reloaded on the subscriber's behalf.
	EventExternalChange EventName = "external-change"
)

type Event struct {
	Name     EventName
	Slot     int
	Record   *models.PetRecord
	OldValue *string
	NewValue *string
}

type Callback func(Event)

type eventBus struct {
	mu     sync.RWMutex
	subs   map[EventName]map[int]Callback
	nextID int
	logger providers.Logger
}

func newEventBus(logger providers.Logger) *eventBus {
	return &eventBus{
		subs:   make(map[EventName]map[int]Callback),
		logger: logger,
	}
}

func (b *eventBus) subscribe(name EventName, cb Callback) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[name] == nil {
		b.subs[name] = make(map[int]Callback)
	}
	b.subs[name][id] = cb
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[name], id)
			b.mu.Unlock()
		})
	}
}

func (b *eventBus) notify(ev Event) {
	b.mu.RLock()
	callbacks := make([]Callback, 0, len(b.subs[ev.Name]))
	for _, cb := range b.subs[ev.Name] {
		callbacks = append(callbacks, cb)
	}
	b.mu.RUnlock()

	for _, cb := range callbacks {
		b.call(cb, ev)
	}
}

func (b *eventBus) call(cb Callback, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf(providers.TypeStore, "Subscriber for %s panicked: %v", ev.Name, r)
		}
	}()
	cb(ev)
}
