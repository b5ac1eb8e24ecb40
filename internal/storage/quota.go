package storage

import (
	"fmt"
	"sync"
)

// QuotaMedium enforces a byte capacity on top of another medium. Usage is
// the sum of key and value lengths of every stored item.
type QuotaMedium struct {
	mu       sync.Mutex
	inner    Medium
	capacity int
	usage    int
}

func NewQuotaMedium(inner Medium, capacity int) (*QuotaMedium, error) {
	q := &QuotaMedium{inner: inner, capacity: capacity}
	keys, err := inner.Keys()
	if err != nil {
		return nil, fmt.Errorf("scan medium: %w", err)
	}
	for _, k := range keys {
		v, ok, err := inner.GetItem(k)
		if err != nil {
			return nil, fmt.Errorf("scan medium: %w", err)
		}
		if ok {
			q.usage += itemSize(k, v)
		}
	}
	return q, nil
}

func (q *QuotaMedium) GetItem(key string) (string, bool, error) {
	return q.inner.GetItem(key)
}

func (q *QuotaMedium) SetItem(key, value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	old, ok, err := q.inner.GetItem(key)
	if err != nil {
		return err
	}
	next := q.usage + itemSize(key, value)
	if ok {
		next -= itemSize(key, old)
	}
	if next > q.capacity {
		return fmt.Errorf("%w: %d bytes needed, capacity %d", ErrQuotaExceeded, next, q.capacity)
	}
	if err := q.inner.SetItem(key, value); err != nil {
		return err
	}
	q.usage = next
	return nil
}

func (q *QuotaMedium) RemoveItem(key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	old, ok, err := q.inner.GetItem(key)
	if err != nil {
		return err
	}
	if err := q.inner.RemoveItem(key); err != nil {
		return err
	}
	if ok {
		q.usage -= itemSize(key, old)
	}
	return nil
}

func (q *QuotaMedium) Keys() ([]string, error) {
	return q.inner.Keys()
}

func (q *QuotaMedium) Usage() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.usage
}

func (q *QuotaMedium) Capacity() int {
	return q.capacity
}

// Close closes the wrapped medium when it holds resources.
func (q *QuotaMedium) Close() error {
	if c, ok := q.inner.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
