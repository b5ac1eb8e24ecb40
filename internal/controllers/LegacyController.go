package controllers

import (
	"errors"
	json "github.com/goccy/go-json"
	"net/http"
	"petcache/internal/models"
	"petcache/internal/providers"
	"petcache/internal/store"
)

type LegacyStore interface {
	Save(sessionKey string, data *models.LegacyPetData) error
	Get(sessionKey string) *models.LegacyPetData
	GetAll() map[string]*models.LegacyPetData
	Delete(sessionKey string) error
	Clear() error
}

// LegacyController exposes the flat, session-key addressed API older
// storefront scripts still call.
type LegacyController struct {
	logger providers.Logger
	facade LegacyStore
}

func NewLegacyController(logger providers.Logger, facade LegacyStore) *LegacyController {
	return &LegacyController{logger: logger, facade: facade}
}

func sessionKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Bad Request: key is required", http.StatusBadRequest)
		return "", false
	}
	return key, true
}

func (lc *LegacyController) respond(w http.ResponseWriter, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

func (lc *LegacyController) GetPet(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	lc.respond(w, lc.facade.Get(key))
}

func (lc *LegacyController) GetPets(w http.ResponseWriter, r *http.Request) {
	lc.respond(w, lc.facade.GetAll())
}

func (lc *LegacyController) SavePet(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var data models.LegacyPetData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := lc.facade.Save(key, &data); err != nil {
		if errors.Is(err, store.ErrInvalidSlot) {
			http.Error(w, "Bad Request: key maps to no slot", http.StatusBadRequest)
			return
		}
		lc.logger.Warnf(providers.TypePost, "Legacy save for %s failed: %s", key, err)
		http.Error(w, "Insufficient Storage", http.StatusInsufficientStorage)
		return
	}
	lc.respond(w, lc.facade.Get(key))
}

func (lc *LegacyController) DeletePet(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	if err := lc.facade.Delete(key); err != nil {
		http.Error(w, "Insufficient Storage", http.StatusInsufficientStorage)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (lc *LegacyController) ClearPets(w http.ResponseWriter, r *http.Request) {
	if err := lc.facade.Clear(); err != nil {
		http.Error(w, "Insufficient Storage", http.StatusInsufficientStorage)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
