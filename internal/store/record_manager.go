package store

import (
	"errors"
	"fmt"
	"petcache/internal/models"
	"petcache/internal/providers"
	"petcache/internal/storage"
	"sync"
)

var ErrInvalidSlot = errors.New("store: slot out of range")

// RecordManager is the only writer of the document. Every mutation loads the
// stored document, changes it and writes it back with a single medium call.
// Subscribers run after the mutation returns its lock, so they may call back
// into the manager.
type RecordManager struct {
	mu      sync.Mutex
	store   *PersistentStore
	events  *eventBus
	logger  providers.Logger
	unwatch func()
}

func NewRecordManager(store *PersistentStore, logger providers.Logger) *RecordManager {
	m := &RecordManager{
		store:  store,
		events: newEventBus(logger),
		logger: logger,
	}
	if notifier, ok := store.Medium().(storage.Notifier); ok {
		m.unwatch = notifier.Subscribe(m.onStorageChange)
	}
	return m
}

func (m *RecordManager) onStorageChange(ev storage.ChangeEvent) {
	if ev.Key != DocumentKey {
		return
	}
	m.logger.Debugf(providers.TypeStore, "Document changed by another context")
	m.events.notify(Event{
		Name:     EventExternalChange,
		OldValue: ev.OldValue,
		NewValue: ev.NewValue,
	})
}

func (m *RecordManager) MaxSlots() int {
	return m.store.MaxSlots()
}

func (m *RecordManager) ValidSlot(slot int) bool {
	return models.ValidSlot(slot, m.store.MaxSlots())
}

// Get returns a copy of the record in slot, or a default record when the
// slot is empty or out of range. It never returns nil.
func (m *RecordManager) Get(slot int) *models.PetRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return recordOrDefault(m.store.Load(), slot)
}

func recordOrDefault(doc *models.Document, slot int) *models.PetRecord {
	if rec, ok := doc.Records[slot]; ok && rec != nil {
		return rec
	}
	return models.NewPetRecord()
}

// GetAll returns every stored record keyed by slot.
func (m *RecordManager) GetAll() map[int]*models.PetRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Load().Records
}

// Document returns the stored document.
func (m *RecordManager) Document() *models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Load()
}

// Update merges patch into the record in slot and persists the document.
// Subscribers of EventRecordUpdated are told only when the write succeeded.
func (m *RecordManager) Update(slot int, patch models.Patch) error {
	merged, err := m.update(slot, patch)
	if err != nil {
		m.afterFailedSave(err)
		return err
	}
	m.events.notify(Event{Name: EventRecordUpdated, Slot: slot, Record: merged.Clone()})
	return nil
}

func (m *RecordManager) update(slot int, patch models.Patch) (*models.PetRecord, error) {
	if !m.ValidSlot(slot) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.store.Load()
	merged, err := models.DeepMerge(recordOrDefault(doc, slot), patch)
	if err != nil {
		return nil, err
	}
	doc.Records[slot] = merged
	if err := m.store.Save(doc); err != nil {
		m.logger.Warnf(providers.TypeStore, "Update of slot %d not persisted: %s", slot, err)
		return nil, err
	}
	return merged, nil
}

// UpdateRecord replaces every field of the record in slot with rec.
func (m *RecordManager) UpdateRecord(slot int, rec *models.PetRecord) error {
	patch, err := models.PatchFromRecord(rec)
	if err != nil {
		return err
	}
	return m.Update(slot, patch)
}

// Delete removes the record in slot. Deleting an empty slot does nothing and
// notifies nobody.
func (m *RecordManager) Delete(slot int) error {
	deleted, err := m.delete(slot)
	if err != nil {
		m.afterFailedSave(err)
		return err
	}
	if deleted {
		m.events.notify(Event{Name: EventRecordDeleted, Slot: slot})
	}
	return nil
}

func (m *RecordManager) delete(slot int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.store.Load()
	if _, ok := doc.Records[slot]; !ok {
		return false, nil
	}
	delete(doc.Records, slot)
	if err := m.store.Save(doc); err != nil {
		m.logger.Warnf(providers.TypeStore, "Delete of slot %d not persisted: %s", slot, err)
		return false, err
	}
	return true, nil
}

// ClearAll replaces the document with a fresh one under a new session id.
func (m *RecordManager) ClearAll() error {
	m.mu.Lock()
	err := m.store.Save(models.NewDocument())
	m.mu.Unlock()

	if err != nil {
		m.afterFailedSave(err)
		return err
	}
	m.logger.Infof(providers.TypeStore, "All records cleared")
	m.events.notify(Event{Name: EventAllCleared})
	return nil
}

// afterFailedSave tells subscribers when a failed save ended in the
// store discarding every record.
func (m *RecordManager) afterFailedSave(err error) {
	if errors.Is(err, ErrStorageReset) {
		m.events.notify(Event{Name: EventAllCleared})
	}
}

// Subscribe registers cb for events named name and returns a function that
// removes it.
func (m *RecordManager) Subscribe(name EventName, cb Callback) func() {
	return m.events.subscribe(name, cb)
}

// Close stops listening for changes made by other contexts.
func (m *RecordManager) Close() {
	if m.unwatch != nil {
		m.unwatch()
	}
}
