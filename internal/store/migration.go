package store

import (
	"fmt"
	json "github.com/goccy/go-json"
	"petcache/internal/models"
	"petcache/internal/providers"
	"sort"
	"strings"
)

// LegacyKeyPrefix prefixes every per-record key of schema version 1. The rest
// of the key is the record's opaque session key.
const LegacyKeyPrefix = "petdata_"

// Migration upgrades storage from schema version From to From+1.
type Migration struct {
	From  int
	Name  string
	Apply func(s *PersistentStore) error
}

// MigrationRegistry holds one migration step per source schema version.
type MigrationRegistry struct {
	steps map[int]Migration
}

func NewMigrationRegistry(steps ...Migration) *MigrationRegistry {
	r := &MigrationRegistry{steps: make(map[int]Migration, len(steps))}
	for _, step := range steps {
		r.steps[step.From] = step
	}
	return r
}

func DefaultMigrations() *MigrationRegistry {
	return NewMigrationRegistry(Migration{
		From:  models.LegacySchemaVersion,
		Name:  "per-record keys to single document",
		Apply: migrateLegacyKeys,
	})
}

// Run applies every step between the stored version and the current one.
// Storage already at the current version is left untouched, so Run can be
// called any number of times.
func (r *MigrationRegistry) Run(s *PersistentStore) error {
	version, err := storedVersion(s)
	if err != nil {
		return err
	}
	if version > models.CurrentSchemaVersion {
		s.logger.Warnf(providers.TypeMigration, "Stored schema version %d is newer than %d, not migrating", version, models.CurrentSchemaVersion)
		return nil
	}

	for v := version; v < models.CurrentSchemaVersion; v++ {
		step, ok := r.steps[v]
		if !ok {
			return fmt.Errorf("no migration registered from schema version %d", v)
		}
		s.logger.Infof(providers.TypeMigration, "Applying migration %d -> %d: %s", v, v+1, step.Name)
		if err := step.Apply(s); err != nil {
			return fmt.Errorf("migration %d -> %d: %w", v, v+1, err)
		}
	}
	return nil
}

// storedVersion reports LegacySchemaVersion while any legacy key remains,
// otherwise the version of the stored document. An absent or unreadable
// document counts as current: Load replaces it with defaults.
func storedVersion(s *PersistentStore) (int, error) {
	legacy, err := legacyKeys(s)
	if err != nil {
		return 0, fmt.Errorf("scan keys: %w", err)
	}
	if len(legacy) > 0 {
		return models.LegacySchemaVersion, nil
	}

	raw, ok, err := s.medium.GetItem(DocumentKey)
	if err != nil {
		return 0, fmt.Errorf("read document: %w", err)
	}
	if !ok {
		return models.CurrentSchemaVersion, nil
	}
	var envelope struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil || envelope.SchemaVersion < models.LegacySchemaVersion {
		return models.CurrentSchemaVersion, nil
	}
	return envelope.SchemaVersion, nil
}

func legacyKeys(s *PersistentStore) ([]string, error) {
	keys, err := s.medium.Keys()
	if err != nil {
		return nil, err
	}
	var legacy []string
	for _, k := range keys {
		if strings.HasPrefix(k, LegacyKeyPrefix) {
			legacy = append(legacy, k)
		}
	}
	sort.Strings(legacy)
	return legacy, nil
}

// migrateLegacyKeys folds every legacy key into the document. Records already
// in the document win over legacy ones for the same slot. Legacy keys are
// deleted only after the document is saved; unreadable ones are deleted
// right away.
func migrateLegacyKeys(s *PersistentStore) error {
	keys, err := legacyKeys(s)
	if err != nil {
		return fmt.Errorf("scan keys: %w", err)
	}

	doc := s.Load()
	var migrated []string
	for _, key := range keys {
		raw, ok, err := s.medium.GetItem(key)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		if !ok {
			continue
		}

		var legacy models.LegacyPetData
		if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
			s.logger.Warnf(providers.TypeMigration, "Deleting unreadable legacy entry %s: %s", key, err)
			s.removeLegacy(key)
			continue
		}

		sessionKey := strings.TrimPrefix(key, LegacyKeyPrefix)
		if legacy.SessionKey == "" {
			legacy.SessionKey = sessionKey
		}
		slot, ok := models.SlotFromSessionKey(sessionKey)
		if !ok {
			slot = 1
		}
		if !models.ValidSlot(slot, s.maxSlots) {
			s.logger.Warnf(providers.TypeMigration, "Deleting legacy entry %s: slot %d out of range", key, slot)
			s.removeLegacy(key)
			continue
		}
		if _, exists := doc.Records[slot]; exists {
			s.logger.Warnf(providers.TypeMigration, "Slot %d already holds a record, dropping legacy entry %s", slot, key)
			migrated = append(migrated, key)
			continue
		}

		rec, err := models.DeepMerge(models.NewPetRecord(), legacy.ToPatch())
		if err != nil {
			s.logger.Warnf(providers.TypeMigration, "Deleting legacy entry %s: %s", key, err)
			s.removeLegacy(key)
			continue
		}
		doc.Records[slot] = rec
		migrated = append(migrated, key)
	}

	if len(migrated) == 0 {
		return nil
	}
	if err := s.Save(doc); err != nil {
		return err
	}
	for _, key := range migrated {
		s.removeLegacy(key)
	}
	s.logger.Infof(providers.TypeMigration, "Migrated %d legacy entries", len(migrated))
	return nil
}

func (s *PersistentStore) removeLegacy(key string) {
	if err := s.medium.RemoveItem(key); err != nil {
		s.logger.Errorf(providers.TypeMigration, "Removing legacy key %s failed: %s", key, err)
	}
}
