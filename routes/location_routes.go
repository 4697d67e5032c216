package routes

import (
	"github.com/city-guide/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupLocationRoutes(public *gin.RouterGroup, locationController *controllers.LocationController) {
	public.GET("/categories", locationController.GetCategories)

	locations := public.Group("/locations")
	{
		locations.GET("", locationController.GetLocations)
		locations.GET("/search", locationController.SearchLocations)
		locations.GET("/nearby", locationController.GetNearbyLocations)
		locations.GET("/slug/:slug", locationController.GetLocationBySlug)
		locations.GET("/:id", locationController.GetLocation)
		locations.GET("/:id/place-info", locationController.GetPlaceInfo)
	}
}

func SetupAdminLocationRoutes(admin *gin.RouterGroup, adminController *controllers.AdminLocationController) {
	locations := admin.Group("/locations")
	{
		locations.POST("", adminController.CreateLocation)
		locations.PUT("/:id", adminController.UpdateLocation)
		locations.DELETE("/:id", adminController.DeleteLocation)
		locations.GET("/slug-check/:slug", adminController.CheckSlug)
		locations.PUT("/:id/place-info", adminController.UpsertPlaceInfo)
	}
	admin.DELETE("/place-info/:infoId", adminController.DeletePlaceInfo)
}
