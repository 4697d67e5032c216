package routes

import (
	"github.com/city-guide/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupFavoriteRoutes(protected *gin.RouterGroup, favoriteController *controllers.FavoriteController) {
	favorites := protected.Group("/favorites")
	{
		favorites.GET("", favoriteController.GetFavorites)
		favorites.GET("/:locationId", favoriteController.GetFavoriteStatus)
		favorites.POST("/:locationId", favoriteController.ToggleFavorite)
	}
}
