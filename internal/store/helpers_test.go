package store

import (
	"errors"
	"petcache/internal/storage"
	"petcache/internal/structures"
	"petcache/internal/testutil"
	"testing"
)

func testConfig(budget int) *structures.Config {
	return &structures.Config{
		Quota:   structures.QuotaConfig{Budget: budget},
		Records: structures.RecordsConfig{MaxSlots: 3},
	}
}

type storeFixture struct {
	store   *PersistentStore
	medium  storage.Medium
	logger  *testutil.MockLogger
	metrics *testutil.MockMetrics
}

func newFixture(t *testing.T, medium storage.Medium, budget int) *storeFixture {
	t.Helper()
	logger := &testutil.MockLogger{}
	metrics := testutil.NewMockMetrics()
	return &storeFixture{
		store:   NewPersistentStore(medium, testConfig(budget), logger, metrics),
		medium:  medium,
		logger:  logger,
		metrics: metrics,
	}
}

func (f *storeFixture) manager() *RecordManager {
	return NewRecordManager(f.store, f.logger)
}

// brokenMedium fails every write with err.
type brokenMedium struct {
	storage.Medium
	err error
}

func (b *brokenMedium) SetItem(_, _ string) error {
	return b.err
}

var errDiskGone = errors.New("disk gone")
