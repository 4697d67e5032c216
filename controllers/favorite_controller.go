package controllers

import (
	"net/http"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type FavoriteController struct {
	Favorites *store.Favorites
	logger    zerolog.Logger
}

func NewFavoriteController(favorites *store.Favorites) *FavoriteController {
	return &FavoriteController{Favorites: favorites, logger: logging.NewPackageLogger("favorites")}
}

// ToggleFavorite godoc
// @Summary Add or remove a listing from the caller's favorites
// @Description Toggles the favorite and returns the new state
// @Tags favorites
// @Produce json
// @Param locationId path integer true "Location ID"
// @Router /api/favorites/{locationId} [post]
func (fc *FavoriteController) ToggleFavorite(c *gin.Context) {
	locationID, ok := parseID(c, "locationId")
	if !ok {
		return
	}
	user := utils.GetUser(c)

	favorite, err := fc.Favorites.Toggle(c.Request.Context(), user.UserID, locationID)
	if err != nil {
		storeError(c, fc.logger, err, "update favorite")
		return
	}

	message := "Location removed from favorites"
	if favorite {
		message = "Location added to favorites"
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"locationId": locationID, "isFavorite": favorite},
		Message: message,
	})
}

// @Router /api/favorites [get]
func (fc *FavoriteController) GetFavorites(c *gin.Context) {
	user := utils.GetUser(c)
	favorites, err := fc.Favorites.List(c.Request.Context(), user.UserID)
	if err != nil {
		storeError(c, fc.logger, err, "fetch favorites")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: favorites})
}

// @Router /api/favorites/{locationId} [get]
func (fc *FavoriteController) GetFavoriteStatus(c *gin.Context) {
	locationID, ok := parseID(c, "locationId")
	if !ok {
		return
	}
	user := utils.GetUser(c)
	favorite, err := fc.Favorites.IsFavorite(c.Request.Context(), user.UserID, locationID)
	if err != nil {
		storeError(c, fc.logger, err, "fetch favorite")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: gin.H{"locationId": locationID, "isFavorite": favorite}})
}
