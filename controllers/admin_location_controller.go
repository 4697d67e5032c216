package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/search"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/types"
	"github.com/city-guide/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminLocationController handles listing writes. Every write goes through
// CachedLocations so the cached reads are invalidated.
type AdminLocationController struct {
	Locations  *store.CachedLocations
	PlaceInfos *store.PlaceInfos
	Index      search.Index
	logger     zerolog.Logger
}

func NewAdminLocationController(locations *store.CachedLocations, placeInfos *store.PlaceInfos, index search.Index) *AdminLocationController {
	return &AdminLocationController{
		Locations:  locations,
		PlaceInfos: placeInfos,
		Index:      index,
		logger:     logging.NewPackageLogger("admin"),
	}
}

// CreateLocation godoc
// @Summary Create a listing
// @Description Slug and place id are generated when omitted
// @Tags admin
// @Accept json
// @Produce json
// @Router /api/admin/locations [post]
func (ac *AdminLocationController) CreateLocation(c *gin.Context) {
	var input types.LocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}
	if field := input.Missing(); field != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " is required", "success": false})
		return
	}

	loc := &models.Location{}
	input.Apply(loc)
	if err := ac.Locations.Create(c.Request.Context(), loc); err != nil {
		storeError(c, ac.logger, err, "create location")
		return
	}
	ac.index(c.Request.Context(), loc)

	ac.logger.Info().Uint(logging.LOCATION, loc.ID).Uint(logging.USER, utils.GetUser(c).UserID).Str("slug", loc.Slug).Msg("location created")
	c.JSON(http.StatusCreated, StandardResponse{Success: true, Data: loc, Message: "Location created successfully"})
}

// @Router /api/admin/locations/{id} [put]
func (ac *AdminLocationController) UpdateLocation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input types.LocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}
	if field := input.Missing(); field != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " is required", "success": false})
		return
	}

	ctx := c.Request.Context()
	loc, err := ac.Locations.GetByID(ctx, id)
	if err != nil {
		storeError(c, ac.logger, err, "update location")
		return
	}
	input.Apply(loc)
	if err := ac.Locations.Update(ctx, loc); err != nil {
		storeError(c, ac.logger, err, "update location")
		return
	}
	ac.index(ctx, loc)

	ac.logger.Info().Uint(logging.LOCATION, loc.ID).Uint(logging.USER, utils.GetUser(c).UserID).Msg("location updated")
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: loc, Message: "Location updated successfully"})
}

// @Router /api/admin/locations/{id} [delete]
func (ac *AdminLocationController) DeleteLocation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	loc, err := ac.Locations.Delete(ctx, id)
	if err != nil {
		storeError(c, ac.logger, err, "delete location")
		return
	}
	if ac.Index != nil {
		if err := ac.Index.DeleteLocation(ctx, loc.ID); err != nil {
			ac.logger.Warn().Err(err).Uint(logging.LOCATION, loc.ID).Msg("failed to remove location from search index")
		}
	}

	ac.logger.Info().Uint(logging.LOCATION, loc.ID).Uint(logging.USER, utils.GetUser(c).UserID).Msg("location deleted")
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Location deleted successfully"})
}

// CheckSlug reports whether a slug is free. excludeId skips the listing
// being edited.
// @Router /api/admin/locations/slug-check/{slug} [get]
func (ac *AdminLocationController) CheckSlug(c *gin.Context) {
	slug := utils.GenerateSlug(c.Param("slug"))
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slug", "success": false})
		return
	}
	exclude := uint(queryInt(c, "excludeId", 0))

	available, err := ac.Locations.SlugAvailable(c.Request.Context(), slug, exclude)
	if err != nil {
		storeError(c, ac.logger, err, "check slug")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: gin.H{"slug": slug, "available": available}})
}

// UpsertPlaceInfo godoc
// @Summary Insert or update one external source for a listing
// @Description The listing's composite score is recomputed
// @Tags admin
// @Router /api/admin/locations/{id}/place-info [put]
func (ac *AdminLocationController) UpsertPlaceInfo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input types.PlaceInfoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	info := &models.PlaceInfo{
		LocationID:   id,
		Source:       input.Source,
		Rating:       input.Rating,
		ReviewCount:  input.ReviewCount,
		PriceLevel:   input.PriceLevel,
		Amenities:    input.Amenities,
		CheckInTime:  input.CheckInTime,
		CheckOutTime: input.CheckOutTime,
		Neighborhood: input.Neighborhood,
	}
	if err := ac.PlaceInfos.Upsert(c.Request.Context(), info); err != nil {
		storeError(c, ac.logger, err, "save place info")
		return
	}
	ac.Locations.InvalidateID(c.Request.Context(), id)

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: info, Message: "Place info saved successfully"})
}

// @Router /api/admin/place-info/{infoId} [delete]
func (ac *AdminLocationController) DeletePlaceInfo(c *gin.Context) {
	id, ok := parseID(c, "infoId")
	if !ok {
		return
	}
	locationID, err := ac.PlaceInfos.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Place info not found", "success": false})
		return
	}
	if err != nil {
		storeError(c, ac.logger, err, "delete place info")
		return
	}
	ac.Locations.InvalidateID(c.Request.Context(), locationID)

	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Place info deleted successfully"})
}

func (ac *AdminLocationController) index(ctx context.Context, loc *models.Location) {
	indexLocation(ctx, ac.Index, ac.logger, loc)
}
