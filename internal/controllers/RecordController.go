package controllers

import (
	"errors"
	json "github.com/goccy/go-json"
	"net/http"
	"petcache/internal/models"
	"petcache/internal/providers"
	"petcache/internal/store"
	"strconv"
	"time"
)

const maxRequestBodySize = 8 << 20 // 8 MB, inline images included

const sessionHeader = "X-Session-ID"

type RecordStore interface {
	Get(slot int) *models.PetRecord
	GetAll() map[int]*models.PetRecord
	Update(slot int, patch models.Patch) error
	Delete(slot int) error
	ClearAll() error
	ValidSlot(slot int) bool
	Subscribe(name store.EventName, cb store.Callback) func()
}

type BridgeProvider interface {
	ForSession(sessionID string) *store.TransferBridge
}

type RecordController struct {
	logger  providers.Logger
	records RecordStore
	bridges BridgeProvider
	cache   providers.CacheProviderInterface
}

type updateResponse struct {
	Persisted bool              `json:"persisted"`
	Record    *models.PetRecord `json:"record,omitempty"`
}

type bridgeRequest struct {
	Slots []int `json:"slots"`
	TTLMs int64 `json:"ttlMs"`
}

type bridgeResponse struct {
	Records map[int]*models.PetRecord `json:"records"`
}

func NewRecordController(logger providers.Logger, records RecordStore, bridges BridgeProvider, cache providers.CacheProviderInterface) *RecordController {
	rc := &RecordController{
		logger:  logger,
		records: records,
		bridges: bridges,
		cache:   cache,
	}
	invalidate := func(store.Event) { rc.cache.Clear() }
	for _, name := range []store.EventName{store.EventRecordUpdated, store.EventRecordDeleted, store.EventAllCleared, store.EventExternalChange} {
		records.Subscribe(name, invalidate)
	}
	return rc
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (rc *RecordController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := rc.cache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, data)
		return
	}

	// Read before compute: a change landing in between bumps the generation
	// and the stale response is not cached.
	gen := rc.cache.Generation()
	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !rc.cache.SetIfGeneration(cacheKey, gson, gen) {
		rc.logger.Debugf(providers.TypeGet, "Records changed while building %s, response not cached", cacheKey)
	}
	writeJSON(w, http.StatusOK, gson)
}

func (rc *RecordController) slot(w http.ResponseWriter, r *http.Request) (int, bool) {
	slot, err := strconv.Atoi(r.URL.Query().Get("slot"))
	if err != nil || !rc.records.ValidSlot(slot) {
		http.Error(w, "Bad Request: invalid slot", http.StatusBadRequest)
		return 0, false
	}
	return slot, true
}

func (rc *RecordController) GetRecords(w http.ResponseWriter, r *http.Request) {
	rc.serveFromCacheOrCompute(w, "records", func() (any, error) {
		return rc.records.GetAll(), nil
	})
}

func (rc *RecordController) GetRecord(w http.ResponseWriter, r *http.Request) {
	slot, ok := rc.slot(w, r)
	if !ok {
		return
	}
	rc.serveFromCacheOrCompute(w, "record:"+strconv.Itoa(slot), func() (any, error) {
		return rc.records.Get(slot), nil
	})
}

func (rc *RecordController) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	slot, ok := rc.slot(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var patch models.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil || patch == nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := rc.records.Update(slot, patch); err != nil {
		rc.writeMutationError(w, err)
		return
	}
	rc.logger.Debugf(providers.TypePost, "Slot %d updated", slot)

	gson, err := json.Marshal(updateResponse{Persisted: true, Record: rc.records.Get(slot)})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

func (rc *RecordController) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	slot, ok := rc.slot(w, r)
	if !ok {
		return
	}
	if err := rc.records.Delete(slot); err != nil {
		rc.writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rc *RecordController) ClearRecords(w http.ResponseWriter, r *http.Request) {
	if err := rc.records.ClearAll(); err != nil {
		rc.writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rc *RecordController) writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidSlot):
		http.Error(w, "Bad Request: invalid slot", http.StatusBadRequest)
	case errors.Is(err, store.ErrNotPersisted):
		rc.logger.Warnf(providers.TypePost, "Mutation not persisted: %s", err)
		gson, _ := json.Marshal(updateResponse{Persisted: false})
		writeJSON(w, http.StatusInsufficientStorage, gson)
	default:
		http.Error(w, "Unprocessable Entity: "+err.Error(), http.StatusUnprocessableEntity)
	}
}

func (rc *RecordController) bridge(r *http.Request) *store.TransferBridge {
	return rc.bridges.ForSession(r.Header.Get(sessionHeader))
}

// CreateBridge snapshots the requested slots, or every stored record when
// none are named.
func (rc *RecordController) CreateBridge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req bridgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	all := rc.records.GetAll()
	selected := all
	if len(req.Slots) > 0 {
		selected = make(map[int]*models.PetRecord, len(req.Slots))
		for _, slot := range req.Slots {
			if rec, ok := all[slot]; ok {
				selected[slot] = rec
			}
		}
	}

	ttl := time.Duration(req.TTLMs) * time.Millisecond
	if err := rc.bridge(r).Create(selected, ttl); err != nil {
		rc.logger.Errorf(providers.TypeBridge, "Bridge not created: %s", err)
		http.Error(w, "Insufficient Storage", http.StatusInsufficientStorage)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (rc *RecordController) ConsumeBridge(w http.ResponseWriter, r *http.Request) {
	records := rc.bridge(r).Consume()
	if records == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	gson, err := json.Marshal(bridgeResponse{Records: records})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

func (rc *RecordController) DeleteBridge(w http.ResponseWriter, r *http.Request) {
	if err := rc.bridge(r).Delete(); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
