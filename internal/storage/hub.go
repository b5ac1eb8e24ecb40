package storage

import (
	"sync"

	"github.com/rs/zerolog/log"
)

const contextQueueSize = 1024

// Hub shares one durable medium among several contexts, the way every tab
// of an origin sees the same local storage. A write through one context is
// signalled to every other open context whose view of the key changed.
// Delivery is asynchronous and in order per context; nothing is merged.
type Hub struct {
	mu       sync.Mutex
	medium   Medium
	contexts map[*Context]struct{}
	closed   bool
	onPanic  func(ev ChangeEvent, recovered any)
}

type HubOption func(*Hub)

// WithPanicHandler reports change listeners that panic. Without it they are
// logged through the global zerolog logger.
func WithPanicHandler(fn func(ev ChangeEvent, recovered any)) HubOption {
	return func(h *Hub) {
		h.onPanic = fn
	}
}

func NewHub(medium Medium, opts ...HubOption) *Hub {
	h := &Hub{
		medium:   medium,
		contexts: make(map[*Context]struct{}),
		onPanic:  logListenerPanic,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.onPanic == nil {
		h.onPanic = logListenerPanic
	}
	return h
}

func logListenerPanic(ev ChangeEvent, recovered any) {
	log.Error().Str("key", ev.Key).Interface("panic", recovered).Msg("change listener panicked")
}

// Open attaches a new context to the hub.
func (h *Hub) Open() *Context {
	c := &Context{
		hub:       h,
		queue:     make(chan ChangeEvent, contextQueueSize),
		done:      make(chan struct{}),
		listeners: make(map[int]func(ChangeEvent)),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.closed = true
		close(c.done)
		return c
	}
	h.contexts[c] = struct{}{}
	h.mu.Unlock()

	go c.run()
	return c
}

// Medium returns the shared medium without change signalling.
func (h *Hub) Medium() Medium {
	return h.medium
}

// Close detaches every context and closes the shared medium if it holds
// resources.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	contexts := make([]*Context, 0, len(h.contexts))
	for c := range h.contexts {
		contexts = append(contexts, c)
	}
	h.mu.Unlock()

	for _, c := range contexts {
		c.Close()
	}
	if closer, ok := h.medium.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (h *Hub) write(from *Context, key string, value *string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}

	prev, had, err := h.medium.GetItem(key)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	if value == nil {
		err = h.medium.RemoveItem(key)
	} else {
		err = h.medium.SetItem(key, *value)
	}
	if err != nil {
		h.mu.Unlock()
		return err
	}

	changed := had != (value != nil) || (value != nil && prev != *value)
	var targets []*Context
	if changed {
		for c := range h.contexts {
			if c != from {
				targets = append(targets, c)
			}
		}
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return nil
	}
	ev := ChangeEvent{Key: key, NewValue: value}
	if had {
		ev.OldValue = &prev
	}
	for _, c := range targets {
		c.deliver(ev)
	}
	return nil
}

func (h *Hub) detach(c *Context) {
	h.mu.Lock()
	delete(h.contexts, c)
	h.mu.Unlock()
}

// Context is one participant of a Hub. It implements Medium and Notifier.
type Context struct {
	hub *Hub

	mu        sync.Mutex
	listeners map[int]func(ChangeEvent)
	nextID    int
	closed    bool

	queue chan ChangeEvent
	done  chan struct{}
}

func (c *Context) GetItem(key string) (string, bool, error) {
	if c.isClosed() {
		return "", false, ErrClosed
	}
	return c.hub.medium.GetItem(key)
}

func (c *Context) SetItem(key, value string) error {
	if c.isClosed() {
		return ErrClosed
	}
	return c.hub.write(c, key, &value)
}

func (c *Context) RemoveItem(key string) error {
	if c.isClosed() {
		return ErrClosed
	}
	return c.hub.write(c, key, nil)
}

func (c *Context) Keys() ([]string, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	return c.hub.medium.Keys()
}

// Subscribe registers listener for writes made by other contexts.
func (c *Context) Subscribe(listener func(ChangeEvent)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// Close detaches the context; pending signals are dropped.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.hub.detach(c)
	close(c.done)
}

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Context) deliver(ev ChangeEvent) {
	select {
	case c.queue <- ev:
	case <-c.done:
	}
}

func (c *Context) run() {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.queue:
			c.mu.Lock()
			listeners := make([]func(ChangeEvent), 0, len(c.listeners))
			for _, l := range c.listeners {
				listeners = append(listeners, l)
			}
			c.mu.Unlock()
			for _, l := range listeners {
				c.hub.dispatch(l, ev)
			}
		}
	}
}

// dispatch keeps a panicking listener from stopping the delivery loop.
func (h *Hub) dispatch(listener func(ChangeEvent), ev ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			h.onPanic(ev, r)
		}
	}()
	listener(ev)
}
