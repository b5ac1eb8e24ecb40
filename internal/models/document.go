package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// LegacySchemaVersion marks storage that still uses one key per record.
	LegacySchemaVersion  = 1
	CurrentSchemaVersion = 2

	DefaultMaxSlots = 3
)

// Document is the single persisted collection of records.
type Document struct {
	SchemaVersion  int                `json:"schemaVersion"`
	Records        map[int]*PetRecord `json:"records"`
	LastModifiedAt time.Time          `json:"lastModifiedAt"`
	SessionID      string             `json:"sessionId"`
}

// NewDocument returns an empty document at the current schema version with a
// fresh session id.
func NewDocument() *Document {
	return &Document{
		SchemaVersion: CurrentSchemaVersion,
		Records:       make(map[int]*PetRecord),
		SessionID:     uuid.NewString(),
	}
}

func (d *Document) Clone() *Document {
	c := &Document{
		SchemaVersion:  d.SchemaVersion,
		Records:        make(map[int]*PetRecord, len(d.Records)),
		LastModifiedAt: d.LastModifiedAt,
		SessionID:      d.SessionID,
	}
	for slot, rec := range d.Records {
		c.Records[slot] = rec.Clone()
	}
	return c
}

// ValidSlot reports whether slot is inside 1..maxSlots.
func ValidSlot(slot, maxSlots int) bool {
	return slot >= 1 && slot <= maxSlots
}

// BridgePayload is the short-lived snapshot handed from one page context to
// another.
type BridgePayload struct {
	Records   map[int]*PetRecord `json:"records"`
	CreatedAt time.Time          `json:"createdAt"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

func (b *BridgePayload) Expired(now time.Time) bool {
	return now.After(b.ExpiresAt)
}
