package providers

import (
	"fmt"
	"petcache/internal/storage"
	"petcache/internal/structures"
)

// NewDurableMedium builds the configured durable backend, caps it at the
// configured capacity and shares it through a hub.
func NewDurableMedium(conf *structures.Config, logger Logger) (*storage.Hub, func(), error) {
	var base storage.Medium
	switch conf.Storage.Driver {
	case "memory":
		base = storage.NewMemoryMedium()
	case "file":
		compressor, err := storage.NewZstdCompressor()
		if err != nil {
			return nil, nil, err
		}
		fm, err := storage.OpenFileMedium(conf.Storage.Path, compressor)
		if err != nil {
			compressor.Close()
			return nil, nil, err
		}
		base = fm
	case "sqlite":
		sm, err := storage.OpenSQLiteMedium(conf.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		base = sm
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}

	quota, err := storage.NewQuotaMedium(base, conf.Storage.Capacity)
	if err != nil {
		if closer, ok := base.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		return nil, nil, err
	}
	logger.Infof(TypeStore, "Durable medium %q opened, %d/%d bytes used", conf.Storage.Driver, quota.Usage(), quota.Capacity())

	hub := storage.NewHub(quota, storage.WithPanicHandler(func(ev storage.ChangeEvent, recovered any) {
		logger.Errorf(TypeStore, "Change listener for %q panicked: %v", ev.Key, recovered)
	}))
	cleanup := func() {
		if err := hub.Close(); err != nil {
			logger.Errorf(TypeStore, "Closing durable medium: %s", err)
		}
	}
	return hub, cleanup, nil
}

// NewDocumentMedium opens the context the server's record manager writes
// through.
func NewDocumentMedium(hub *storage.Hub) storage.Medium {
	return hub.Open()
}

func NewSessionStore(conf *structures.Config) *storage.SessionStore {
	return storage.NewSessionStore(conf.Bridge.SessionCacheSize, conf.Bridge.SessionTTL)
}
