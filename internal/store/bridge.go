package store

import (
	"fmt"
	json "github.com/goccy/go-json"
	"petcache/internal/models"
	"petcache/internal/providers"
	"petcache/internal/storage"
	"petcache/internal/structures"
	"time"
)

// BridgeKey is the fixed session-scoped key of the transfer bridge.
const BridgeKey = "pet_records_bridge"

const DefaultBridgeTTL = 30 * time.Minute

// TransferBridge hands a snapshot of records from one page context to the
// next through session-scoped storage. It never touches the document.
type TransferBridge struct {
	medium     storage.Medium
	defaultTTL time.Duration
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	now        func() time.Time
}

func NewTransferBridge(medium storage.Medium, defaultTTL time.Duration, logger providers.Logger, metrics providers.MetricsProviderInterface) *TransferBridge {
	if defaultTTL <= 0 {
		defaultTTL = DefaultBridgeTTL
	}
	return &TransferBridge{
		medium:     medium,
		defaultTTL: defaultTTL,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Create overwrites any previous bridge. A non-positive ttl uses the
// default.
func (b *TransferBridge) Create(records map[int]*models.PetRecord, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = b.defaultTTL
	}
	now := b.now().UTC()
	payload := models.BridgePayload{
		Records:   make(map[int]*models.PetRecord, len(records)),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	for slot, rec := range records {
		if rec == nil {
			continue
		}
		payload.Records[slot] = rec.Clone()
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode bridge: %w", err)
	}
	if err := b.medium.SetItem(BridgeKey, string(raw)); err != nil {
		return fmt.Errorf("write bridge: %w", err)
	}
	b.logger.Debugf(providers.TypeBridge, "Bridge created with %d records, expires %s", len(payload.Records), payload.ExpiresAt.Format(time.RFC3339))
	return nil
}

// Consume returns the bridged records, or nil when there is no bridge or it
// has expired. Expired and unreadable bridges are deleted. A live bridge is
// left in place: the caller deletes it once the records are applied.
func (b *TransferBridge) Consume() map[int]*models.PetRecord {
	raw, ok, err := b.medium.GetItem(BridgeKey)
	if err != nil {
		b.logger.Errorf(providers.TypeBridge, "Reading bridge failed: %s", err)
		b.metrics.IncBridgeConsumes("miss")
		return nil
	}
	if !ok {
		b.metrics.IncBridgeConsumes("miss")
		return nil
	}

	var payload models.BridgePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		b.logger.Warnf(providers.TypeBridge, "Discarding unreadable bridge: %s", err)
		b.metrics.IncBridgeConsumes("corrupt")
		b.remove()
		return nil
	}
	if payload.Expired(b.now()) {
		b.logger.Debugf(providers.TypeBridge, "Bridge expired at %s", payload.ExpiresAt.Format(time.RFC3339))
		b.metrics.IncBridgeConsumes("expired")
		b.remove()
		return nil
	}

	b.metrics.IncBridgeConsumes("hit")
	if payload.Records == nil {
		payload.Records = make(map[int]*models.PetRecord)
	}
	for slot, rec := range payload.Records {
		if rec == nil {
			delete(payload.Records, slot)
			continue
		}
		rec.Normalize()
	}
	return payload.Records
}

func (b *TransferBridge) Delete() error {
	if err := b.medium.RemoveItem(BridgeKey); err != nil {
		return fmt.Errorf("delete bridge: %w", err)
	}
	return nil
}

func (b *TransferBridge) remove() {
	if err := b.Delete(); err != nil {
		b.logger.Errorf(providers.TypeBridge, "%s", err)
	}
}

// BridgeFactory hands out the bridge of one client session.
type BridgeFactory struct {
	sessions   *storage.SessionStore
	defaultTTL time.Duration
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewBridgeFactory(sessions *storage.SessionStore, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *BridgeFactory {
	return &BridgeFactory{
		sessions:   sessions,
		defaultTTL: conf.Bridge.TTL,
		logger:     logger,
		metrics:    metrics,
	}
}

func (f *BridgeFactory) ForSession(sessionID string) *TransferBridge {
	return NewTransferBridge(f.sessions.Session(sessionID), f.defaultTTL, f.logger, f.metrics)
}
