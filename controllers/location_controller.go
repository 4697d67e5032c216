package controllers

import (
	"math"
	"net/http"
	"strings"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/search"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/types"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const defaultSearchLimit = 20

type LocationController struct {
	Locations  *store.CachedLocations
	PlaceInfos *store.PlaceInfos
	// Index is nil when Elasticsearch is not configured.
	Index  search.Index
	logger zerolog.Logger
}

func NewLocationController(locations *store.CachedLocations, placeInfos *store.PlaceInfos, index search.Index) *LocationController {
	return &LocationController{
		Locations:  locations,
		PlaceInfos: placeInfos,
		Index:      index,
		logger:     logging.NewPackageLogger("locations"),
	}
}

// GetCategories godoc
// @Summary List listing categories in display order
// @Tags locations
// @Produce json
// @Router /api/categories [get]
func (lc *LocationController) GetCategories(c *gin.Context) {
	categories, err := lc.Locations.Categories(c.Request.Context())
	if err != nil {
		storeError(c, lc.logger, err, "fetch categories")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: categories})
}

// GetLocations godoc
// @Summary List listings, optionally by category
// @Tags locations
// @Produce json
// @Param category query string false "Category id"
// @Param page query integer false "Page number, enables pagination"
// @Param pageSize query integer false "Page size (default 20)"
// @Router /api/locations [get]
func (lc *LocationController) GetLocations(c *gin.Context) {
	ctx := c.Request.Context()

	var locations []models.Location
	var err error
	if category := c.Query("category"); category != "" {
		locations, err = lc.Locations.ListByCategory(ctx, models.LocationCategory(category))
	} else {
		locations, err = lc.Locations.List(ctx)
	}
	if err != nil {
		storeError(c, lc.logger, err, "fetch locations")
		return
	}

	if c.Query("page") == "" {
		c.JSON(http.StatusOK, StandardResponse{Success: true, Data: locations})
		return
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 20)
	if pageSize > 100 {
		pageSize = 100
	}
	total := len(locations)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    locations[start:end],
		Pagination: &PaginationMeta{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  int64(total),
			TotalPages:  int(math.Ceil(float64(total) / float64(pageSize))),
		},
	})
}

// SearchLocations godoc
// @Summary Full-text listing search
// @Tags locations
// @Produce json
// @Param q query string true "Search text"
// @Param category query string false "Category id"
// @Param limit query integer false "Maximum results (default 20)"
// @Router /api/locations/search [get]
func (lc *LocationController) SearchLocations(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required", "success": false})
		return
	}
	category := models.LocationCategory(c.Query("category"))
	if category != "" && !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category", "success": false})
		return
	}
	limit := queryInt(c, "limit", defaultSearchLimit)
	ctx := c.Request.Context()

	if lc.Index != nil {
		ids, err := lc.Index.Search(ctx, query, category, limit)
		if err == nil {
			locations, err := lc.Locations.ListByIDs(ctx, ids)
			if err != nil {
				storeError(c, lc.logger, err, "search locations")
				return
			}
			c.JSON(http.StatusOK, StandardResponse{Success: true, Data: locations, Meta: gin.H{"engine": "elasticsearch"}})
			return
		}
		lc.logger.Warn().Err(err).Msg("search index unavailable, falling back to database")
	}

	locations, err := lc.Locations.Search(ctx, query, category, limit)
	if err != nil {
		storeError(c, lc.logger, err, "search locations")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: locations, Meta: gin.H{"engine": "database"}})
}

// GetNearbyLocations godoc
// @Summary Listings closest to a point
// @Tags locations
// @Produce json
// @Param latitude query number true "Latitude"
// @Param longitude query number true "Longitude"
// @Param limit query integer false "Maximum results (default 5)"
// @Router /api/locations/nearby [get]
func (lc *LocationController) GetNearbyLocations(c *gin.Context) {
	var query types.NearbyLocationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required", "success": false})
		return
	}
	if *query.Latitude < -90 || *query.Latitude > 90 || *query.Longitude < -180 || *query.Longitude > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range", "success": false})
		return
	}

	nearby, err := lc.Locations.Nearby(c.Request.Context(), *query.Latitude, *query.Longitude, query.Limit)
	if err != nil {
		storeError(c, lc.logger, err, "fetch nearby locations")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: nearby})
}

// @Router /api/locations/slug/{slug} [get]
func (lc *LocationController) GetLocationBySlug(c *gin.Context) {
	loc, err := lc.Locations.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		storeError(c, lc.logger, err, "fetch location")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: loc})
}

// @Router /api/locations/{id} [get]
func (lc *LocationController) GetLocation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	loc, err := lc.Locations.GetByID(c.Request.Context(), id)
	if err != nil {
		storeError(c, lc.logger, err, "fetch location")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: loc})
}

// GetPlaceInfo godoc
// @Summary Aggregated external source info for a listing
// @Description Returns every source row, the composite score and the union of amenities
// @Tags locations
// @Produce json
// @Router /api/locations/{id}/place-info [get]
func (lc *LocationController) GetPlaceInfo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	summary, err := lc.PlaceInfos.Summary(c.Request.Context(), id)
	if err != nil {
		storeError(c, lc.logger, err, "fetch place info")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: summary})
}
