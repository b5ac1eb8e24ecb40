package storage

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (l *eventLog) add(ev ChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) snapshot() []ChangeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ChangeEvent(nil), l.events...)
}

func TestContext_Behaves(t *testing.T) {
	hub := NewHub(NewMemoryMedium())
	defer hub.Close()
	exerciseMedium(t, hub.Open())
}

func TestHub_SignalsOtherContexts(t *testing.T) {
	hub := NewHub(NewMemoryMedium())
	defer hub.Close()
	a := hub.Open()
	b := hub.Open()

	var fromA, fromB eventLog
	a.Subscribe(fromA.add)
	b.Subscribe(fromB.add)

	require.NoError(t, a.SetItem("doc", "v1"))
	require.NoError(t, a.SetItem("doc", "v2"))

	assert.Eventually(t, func() bool { return len(fromB.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	events := fromB.snapshot()
	assert.Equal(t, "doc", events[0].Key)
	assert.Nil(t, events[0].OldValue)
	assert.Equal(t, "v1", *events[0].NewValue)
	assert.Equal(t, "v1", *events[1].OldValue)
	assert.Equal(t, "v2", *events[1].NewValue)

	// the writer never hears about its own writes
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, fromA.snapshot())
}

func TestHub_NoSignalWhenUnchanged(t *testing.T) {
	hub := NewHub(NewMemoryMedium())
	defer hub.Close()
	a := hub.Open()
	b := hub.Open()

	var log eventLog
	b.Subscribe(log.add)

	require.NoError(t, a.SetItem("doc", "same"))
	require.NoError(t, a.SetItem("doc", "same"))
	require.NoError(t, a.RemoveItem("absent"))
	require.NoError(t, a.RemoveItem("doc"))

	assert.Eventually(t, func() bool { return len(log.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	events := log.snapshot()
	require.Len(t, events, 2)
	assert.Nil(t, events[1].NewValue)
	assert.Equal(t, "same", *events[1].OldValue)
}

func TestHub_ListenerPanicDoesNotStopDelivery(t *testing.T) {
	hub := NewHub(NewMemoryMedium())
	defer hub.Close()
	a := hub.Open()
	b := hub.Open()

	var log eventLog
	b.Subscribe(func(ChangeEvent) { panic("boom") })
	b.Subscribe(log.add)

	require.NoError(t, a.SetItem("k", "1"))
	require.NoError(t, a.SetItem("k", "2"))

	assert.Eventually(t, func() bool { return len(log.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestHub_ListenerPanicIsReported(t *testing.T) {
	type report struct {
		key       string
		recovered any
	}
	reports := make(chan report, 1)
	hub := NewHub(NewMemoryMedium(), WithPanicHandler(func(ev ChangeEvent, recovered any) {
		reports <- report{key: ev.Key, recovered: recovered}
	}))
	defer hub.Close()
	a := hub.Open()
	b := hub.Open()
	b.Subscribe(func(ChangeEvent) { panic("boom") })

	require.NoError(t, a.SetItem("pet_records", "1"))

	select {
	case r := <-reports:
		assert.Equal(t, "pet_records", r.key)
		assert.Equal(t, "boom", r.recovered)
	case <-time.After(time.Second):
		t.Fatal("panic was not reported")
	}
}

func TestHub_UnsubscribeAndClose(t *testing.T) {
	hub := NewHub(NewMemoryMedium())
	a := hub.Open()
	b := hub.Open()

	var log eventLog
	unsubscribe := b.Subscribe(log.add)
	unsubscribe()
	unsubscribe()

	require.NoError(t, a.SetItem("k", "1"))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, log.snapshot())

	b.Close()
	assert.ErrorIs(t, b.SetItem("k", "2"), ErrClosed)
	require.NoError(t, a.SetItem("k", "3"))

	require.NoError(t, hub.Close())
	assert.ErrorIs(t, a.SetItem("k", "4"), ErrClosed)
	_, _, err := hub.Open().GetItem("k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHub_SharesMedium(t *testing.T) {
	inner := NewMemoryMedium()
	hub := NewHub(inner)
	defer hub.Close()

	require.NoError(t, hub.Open().SetItem("k", "v"))
	v, ok, err := hub.Open().GetItem("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Same(t, inner, hub.Medium())
}
