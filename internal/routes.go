package internal

import (
	"net/http"
	"petcache/internal/controllers"
	"petcache/internal/providers"
)

func InitRoutes(recordController *controllers.RecordController, legacyController *controllers.LegacyController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/records", http.HandlerFunc(recordController.GetRecords))
	routers.Post("/records/clear", http.HandlerFunc(recordController.ClearRecords))
	routers.Get("/record", http.HandlerFunc(recordController.GetRecord))
	routers.Post("/record", http.HandlerFunc(recordController.UpdateRecord))
	routers.Delete("/record", http.HandlerFunc(recordController.DeleteRecord))

	routers.Post("/bridge", http.HandlerFunc(recordController.CreateBridge))
	routers.Get("/bridge", http.HandlerFunc(recordController.ConsumeBridge))
	routers.Delete("/bridge", http.HandlerFunc(recordController.DeleteBridge))

	routers.Get("/legacy/pets", http.HandlerFunc(legacyController.GetPets))
	routers.Post("/legacy/clear", http.HandlerFunc(legacyController.ClearPets))
	routers.Get("/legacy/pet", http.HandlerFunc(legacyController.GetPet))
	routers.Post("/legacy/pet", http.HandlerFunc(legacyController.SavePet))
	routers.Delete("/legacy/pet", http.HandlerFunc(legacyController.DeletePet))
	return routers
}
