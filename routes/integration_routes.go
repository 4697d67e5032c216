package routes

import (
	"github.com/city-guide/api-go/controllers"
	"github.com/city-guide/api-go/middleware"
	"github.com/gin-gonic/gin"
)

func SetupMapsRoutes(admin *gin.RouterGroup, mapsController *controllers.MapsController) {
	admin.POST("/maps", mapsController.Proxy)
	admin.POST("/maps/import", mapsController.ImportPlace)
}

func SetupScrapeRoutes(admin *gin.RouterGroup, scrapeController *controllers.ScrapeController) {
	scrape := admin.Group("/scrape")
	{
		scrape.POST("", scrapeController.StartScrape)
		scrape.GET("/runs", scrapeController.ListRuns)
		scrape.GET("/runs/:runId", scrapeController.GetRun)
		scrape.DELETE("/runs/:runId", scrapeController.CancelRun)
	}
}

// SetupIngestRoutes mounts the ingestion webhook. An empty key leaves it open.
func SetupIngestRoutes(public *gin.RouterGroup, ingestController *controllers.IngestController, key string) {
	public.POST("/ingest/locations", middleware.IngestKey(key), ingestController.IngestLocation)
}
