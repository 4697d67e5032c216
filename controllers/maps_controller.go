package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/maps"
	"github.com/city-guide/api-go/search"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/types"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type MapsController struct {
	Client    *maps.Client
	Locations *store.CachedLocations
	Index     search.Index
	logger    zerolog.Logger
}

func NewMapsController(client *maps.Client, locations *store.CachedLocations, index search.Index) *MapsController {
	return &MapsController{
		Client:    client,
		Locations: locations,
		Index:     index,
		logger:    logging.NewPackageLogger("maps"),
	}
}

// Proxy godoc
// @Summary Google Maps proxy
// @Description Accepts {action, params} with action geocode, searchNearby or getPlaceDetails
// @Tags admin
// @Accept json
// @Produce json
// @Router /api/admin/maps [post]
func (mc *MapsController) Proxy(c *gin.Context) {
	var req maps.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	result, err := maps.Dispatch(c.Request.Context(), mc.Client, req)
	if err != nil {
		mc.serviceError(c, err, req.Action)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: result})
}

// ImportPlace fetches a place's details and stores it as a listing, keyed
// by its Google place id.
// @Router /api/admin/maps/import [post]
func (mc *MapsController) ImportPlace(c *gin.Context) {
	var input struct {
		PlaceID string `json:"placeId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}
	placeID := strings.TrimSpace(input.PlaceID)
	ctx := c.Request.Context()

	details, err := mc.Client.PlaceDetails(ctx, placeID)
	if err != nil {
		mc.serviceError(c, err, maps.ActionGetPlaceDetails)
		return
	}
	if details.Result.PlaceID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Place not found", "success": false})
		return
	}

	loc := maps.ToLocation(details.Result)
	previous, err := mc.Locations.UpsertByPlaceID(ctx, loc)
	if err != nil {
		storeError(c, mc.logger, err, "import place")
		return
	}
	indexLocation(ctx, mc.Index, mc.logger, loc)

	status, message := http.StatusCreated, "Place imported successfully"
	if previous != nil {
		status, message = http.StatusOK, "Place updated successfully"
	}
	mc.logger.Info().Uint(logging.LOCATION, loc.ID).Str("place_id", loc.PlaceID).Bool("created", previous == nil).Msg("place imported")
	c.JSON(status, StandardResponse{Success: true, Data: loc, Message: message})
}

func (mc *MapsController) serviceError(c *gin.Context, err error, action string) {
	var verr *types.ValidationError
	var serr *maps.ServiceError
	switch {
	case errors.As(err, &verr), errors.Is(err, maps.ErrUnknownAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
	case errors.Is(err, maps.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Maps API key not configured", "success": false})
	case errors.As(err, &serr) && serr.Status == "NOT_FOUND":
		c.JSON(http.StatusNotFound, gin.H{"error": "Place not found", "success": false})
	case errors.As(err, &serr):
		mc.logger.Error().Err(err).Str("action", action).Int(logging.STATUS, serr.HTTPStatus).Msg("maps api error")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "success": false})
	default:
		mc.logger.Error().Err(err).Str("action", action).Msg("maps request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Maps service unavailable", "success": false})
	}
}
