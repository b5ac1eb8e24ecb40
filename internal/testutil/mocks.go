package testutil

import (
	"petcache/internal/providers"
	"strings"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// HasEntry reports whether a log line at level contains substr in its format.
func (m *MockLogger) HasEntry(level, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level && strings.Contains(e.Format, substr) {
			return true
		}
	}
	return false
}

// MockMetrics implements providers.MetricsProviderInterface and counts the
// store-related calls.
type MockMetrics struct {
	mu             sync.Mutex
	Saves          map[string]int
	Evicted        int
	QuotaRetries   int
	DataLoss       int
	DocumentBytes  int
	BridgeConsumes map[string]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Saves:          make(map[string]int),
		BridgeConsumes: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}
func (m *MockMetrics) IncCacheInvalidations()                           {}
func (m *MockMetrics) IncCacheStaleSets()                               {}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration)       {}

func (m *MockMetrics) IncSaves(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves[result]++
}

func (m *MockMetrics) AddEvictedValues(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Evicted += count
}

func (m *MockMetrics) IncQuotaRetries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QuotaRetries++
}

func (m *MockMetrics) IncDataLoss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DataLoss++
}

func (m *MockMetrics) SetDocumentBytes(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DocumentBytes = size
}

func (m *MockMetrics) IncBridgeConsumes(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BridgeConsumes[result]++
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu        sync.Mutex
	Data      map[string][]byte
	Clears    int
	StaleSets int
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data = make(map[string][]byte)
	m.Clears++
}

// Generation is the number of Clear calls so far.
func (m *MockCache) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(m.Clears)
}

func (m *MockCache) SetIfGeneration(key string, value []byte, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uint64(m.Clears) != gen {
		m.StaleSets++
		return false
	}
	m.Data[key] = value
	return true
}
