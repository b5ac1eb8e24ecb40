package store

import (
	"petcache/internal/models"
	"strconv"
)

// LegacyFacade serves callers that still address records by opaque session
// key and use the flat legacy field layout.
type LegacyFacade struct {
	manager *RecordManager
}

func NewLegacyFacade(manager *RecordManager) *LegacyFacade {
	return &LegacyFacade{manager: manager}
}

// SlotFor resolves the slot of sessionKey, defaulting to slot 1.
func (f *LegacyFacade) SlotFor(sessionKey string) int {
	if slot, ok := models.SlotFromSessionKey(sessionKey); ok {
		return slot
	}
	return 1
}

func (f *LegacyFacade) Save(sessionKey string, data *models.LegacyPetData) error {
	patch := data.ToPatch()
	meta, _ := patch["metadata"].(map[string]any)
	if meta == nil {
		meta = map[string]any{}
	}
	meta["sessionKey"] = sessionKey
	patch["metadata"] = meta
	return f.manager.Update(f.SlotFor(sessionKey), patch)
}

func (f *LegacyFacade) Get(sessionKey string) *models.LegacyPetData {
	return models.LegacyFromRecord(f.manager.Get(f.SlotFor(sessionKey)))
}

// GetAll returns every record keyed by its session key, or by slot number
// for records created without one.
func (f *LegacyFacade) GetAll() map[string]*models.LegacyPetData {
	all := f.manager.GetAll()
	out := make(map[string]*models.LegacyPetData, len(all))
	for slot, rec := range all {
		key := rec.Metadata.SessionKey
		if key == "" {
			key = strconv.Itoa(slot)
		}
		out[key] = models.LegacyFromRecord(rec)
	}
	return out
}

func (f *LegacyFacade) Delete(sessionKey string) error {
	return f.manager.Delete(f.SlotFor(sessionKey))
}

func (f *LegacyFacade) Clear() error {
	return f.manager.ClearAll()
}
