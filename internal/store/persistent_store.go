package store

import (
	"errors"
	"fmt"
	json "github.com/goccy/go-json"
	"petcache/internal/models"
	"petcache/internal/providers"
	"petcache/internal/storage"
	"petcache/internal/structures"
	"strconv"
	"time"
)

// DocumentKey is the single durable key holding the record document. The
// suffix tracks models.CurrentSchemaVersion.
const DocumentKey = "pet_records_v2"

const DefaultBudget = 4 * 1024 * 1024

var (
	// ErrNotPersisted means the document could not be written even after
	// eviction and one retry.
	ErrNotPersisted = errors.New("store: document not persisted")
	// ErrStorageReset accompanies ErrNotPersisted when all records were
	// discarded to free the medium.
	ErrStorageReset = errors.New("store: records discarded after quota exhaustion")

	errUnknownVersion = errors.New("unrecognized schema version")
	errNoRecords      = errors.New("records missing")
)

// PersistentStore serializes the document under DocumentKey and absorbs
// every failure of the medium. It holds no document state itself.
type PersistentStore struct {
	medium   storage.Medium
	budget   int
	maxSlots int
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	now      func() time.Time
}

// NewPersistentStore runs the registered migrations before returning, so
// the first Load already sees the current schema.
func NewPersistentStore(medium storage.Medium, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *PersistentStore {
	s := &PersistentStore{
		medium:   medium,
		budget:   conf.Quota.Budget,
		maxSlots: conf.Records.MaxSlots,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
	if s.budget <= 0 {
		s.budget = DefaultBudget
	}
	if s.maxSlots <= 0 {
		s.maxSlots = models.DefaultMaxSlots
	}

	if err := DefaultMigrations().Run(s); err != nil {
		logger.Errorf(providers.TypeMigration, "Migration failed, will retry on next start: %s", err)
	}
	return s
}

func (s *PersistentStore) MaxSlots() int {
	return s.maxSlots
}

func (s *PersistentStore) Medium() storage.Medium {
	return s.medium
}

// Load returns the stored document, or a fresh default one when the key is
// absent or its value cannot be trusted.
func (s *PersistentStore) Load() *models.Document {
	raw, ok, err := s.medium.GetItem(DocumentKey)
	if err != nil {
		s.logger.Errorf(providers.TypeStore, "Reading document failed, using defaults: %s", err)
		return models.NewDocument()
	}
	if !ok {
		return models.NewDocument()
	}

	doc, err := s.decode([]byte(raw))
	if err != nil {
		s.logger.Warnf(providers.TypeStore, "Stored document discarded: %s", err)
		return models.NewDocument()
	}
	return doc
}

func (s *PersistentStore) decode(raw []byte) (*models.Document, error) {
	var envelope struct {
		SchemaVersion  *int                       `json:"schemaVersion"`
		Records        map[string]json.RawMessage `json:"records"`
		LastModifiedAt time.Time                  `json:"lastModifiedAt"`
		SessionID      string                     `json:"sessionId"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if envelope.SchemaVersion == nil || *envelope.SchemaVersion != models.CurrentSchemaVersion {
		return nil, errUnknownVersion
	}
	if envelope.Records == nil {
		return nil, errNoRecords
	}

	doc := &models.Document{
		SchemaVersion:  models.CurrentSchemaVersion,
		Records:        make(map[int]*models.PetRecord, len(envelope.Records)),
		LastModifiedAt: envelope.LastModifiedAt,
		SessionID:      envelope.SessionID,
	}
	for key, rawRecord := range envelope.Records {
		slot, err := strconv.Atoi(key)
		if err != nil || !models.ValidSlot(slot, s.maxSlots) {
			s.logger.Warnf(providers.TypeStore, "Dropping record under invalid slot key %q", key)
			continue
		}
		rec := models.NewPetRecord()
		if err := json.Unmarshal(rawRecord, rec); err != nil {
			s.logger.Warnf(providers.TypeStore, "Dropping unreadable record in slot %d: %s", slot, err)
			continue
		}
		doc.Records[slot] = rec.Normalize()
	}
	if doc.SessionID == "" {
		doc.SessionID = models.NewDocument().SessionID
	}
	return doc, nil
}

// Save writes doc, evicting redundant inline data when the serialized size
// is over budget or the medium reports its quota exhausted. Eviction works on
// a copy; doc keeps its full data. When the retry fails too, the stored
// document is reset and the returned error wraps both ErrNotPersisted and
// ErrStorageReset.
func (s *PersistentStore) Save(doc *models.Document) error {
	start := s.now()
	defer func() {
		s.metrics.ObservePersistenceDuration(time.Since(start))
	}()

	doc.SchemaVersion = models.CurrentSchemaVersion
	doc.LastModifiedAt = start.UTC()

	payload, err := json.Marshal(doc)
	if err != nil {
		s.metrics.IncSaves("failed")
		return fmt.Errorf("%w: encode: %w", ErrNotPersisted, err)
	}

	evicted := false
	if len(payload) > s.budget {
		s.logger.Infof(providers.TypeStore, "Document is %d bytes, over budget of %d, evicting inline data", len(payload), s.budget)
		if payload, err = s.evictAndEncode(doc); err != nil {
			s.metrics.IncSaves("failed")
			return fmt.Errorf("%w: encode: %w", ErrNotPersisted, err)
		}
		evicted = true
		if len(payload) > s.budget {
			s.logger.Warnf(providers.TypeStore, "Document still %d bytes after eviction, writing anyway", len(payload))
		}
	}

	err = s.medium.SetItem(DocumentKey, string(payload))
	if err == nil {
		s.saved(len(payload), evicted)
		return nil
	}
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		s.logger.Errorf(providers.TypeStore, "Writing document failed: %s", err)
		s.metrics.IncSaves("failed")
		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}

	s.logger.Warnf(providers.TypeStore, "Quota exceeded writing %d bytes, evicting and retrying once", len(payload))
	s.metrics.IncQuotaRetries()
	if payload, err = s.evictAndEncode(doc); err != nil {
		s.metrics.IncSaves("failed")
		return fmt.Errorf("%w: encode: %w", ErrNotPersisted, err)
	}
	err = s.medium.SetItem(DocumentKey, string(payload))
	if err == nil {
		s.saved(len(payload), true)
		return nil
	}

	s.logger.Errorf(providers.TypeStore, "Quota still exceeded after eviction, discarding all records of session %s: %s", doc.SessionID, err)
	s.metrics.IncDataLoss()
	s.metrics.IncSaves("reset")
	s.reset()
	return fmt.Errorf("%w: %w: %w", ErrNotPersisted, ErrStorageReset, err)
}

func (s *PersistentStore) evictAndEncode(doc *models.Document) ([]byte, error) {
	reduced, dropped := Evict(doc)
	s.metrics.AddEvictedValues(dropped)
	return json.Marshal(reduced)
}

func (s *PersistentStore) saved(size int, evicted bool) {
	s.metrics.SetDocumentBytes(size)
	if evicted {
		s.metrics.IncSaves("evicted")
		return
	}
	s.metrics.IncSaves("ok")
}

// reset replaces the stored document with an empty one, or removes the key
// when even that cannot be written.
func (s *PersistentStore) reset() {
	fresh := models.NewDocument()
	fresh.LastModifiedAt = s.now().UTC()
	payload, err := json.Marshal(fresh)
	if err == nil {
		err = s.medium.SetItem(DocumentKey, string(payload))
	}
	if err != nil {
		s.logger.Errorf(providers.TypeStore, "Writing empty document failed, removing key: %s", err)
		if err := s.medium.RemoveItem(DocumentKey); err != nil {
			s.logger.Errorf(providers.TypeStore, "Removing document failed: %s", err)
		}
	}
}
