package controllers

import (
	"petcache/internal/providers"
	"petcache/internal/storage"
	"petcache/internal/store"
	"petcache/internal/structures"
	"petcache/internal/testutil"
	"testing"
	"time"
)

// --- helpers shared by the controller tests ---

type mockLogger struct{}

func (m *mockLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Close()                                                  {}

type testStack struct {
	medium   storage.Medium
	manager  *store.RecordManager
	bridges  *store.BridgeFactory
	cache    *testutil.MockCache
	records  *RecordController
	legacy   *LegacyController
	sessions *storage.SessionStore
}

func newTestStackOn(t *testing.T, medium storage.Medium) *testStack {
	t.Helper()
	conf := &structures.Config{
		Quota:   structures.QuotaConfig{Budget: store.DefaultBudget},
		Records: structures.RecordsConfig{MaxSlots: 3},
		Bridge:  structures.BridgeConfig{TTL: time.Minute},
	}
	logger := &mockLogger{}
	metrics := testutil.NewMockMetrics()

	manager := store.NewRecordManager(store.NewPersistentStore(medium, conf, logger, metrics), logger)
	sessions := storage.NewSessionStore(4, time.Hour)
	bridges := store.NewBridgeFactory(sessions, conf, logger, metrics)
	cache := testutil.NewMockCache()

	return &testStack{
		medium:   medium,
		manager:  manager,
		bridges:  bridges,
		cache:    cache,
		records:  NewRecordController(logger, manager, bridges, cache),
		legacy:   NewLegacyController(logger, store.NewLegacyFacade(manager)),
		sessions: sessions,
	}
}

func newTestStack(t *testing.T) *testStack {
	return newTestStackOn(t, storage.NewMemoryMedium())
}
