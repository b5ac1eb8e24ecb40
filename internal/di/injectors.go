//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"petcache/internal"
	"petcache/internal/controllers"
	"petcache/internal/providers"
	"petcache/internal/store"
	"petcache/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewDurableMedium,
		providers.NewDocumentMedium,
		providers.NewSessionStore,

		store.NewPersistentStore,
		store.NewRecordManager,
		store.NewBridgeFactory,
		store.NewLegacyFacade,
		wire.Bind(new(controllers.RecordStore), new(*store.RecordManager)),
		wire.Bind(new(controllers.BridgeProvider), new(*store.BridgeFactory)),
		wire.Bind(new(controllers.LegacyStore), new(*store.LegacyFacade)),
		wire.Bind(new(controllers.DocumentSource), new(*store.RecordManager)),
		controllers.NewRecordController,
		controllers.NewLegacyController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}
