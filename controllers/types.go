package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/search"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/types"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type StandardResponse struct {
	Success    bool            `json:"success"`
	Data       interface{}     `json:"data,omitempty"`
	Meta       interface{}     `json:"meta,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
	Message    string          `json:"message,omitempty"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

// storeError writes the response for an error returned by the store layer.
func storeError(c *gin.Context, logger zerolog.Logger, err error, op string) {
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "success": false})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found", "success": false})
	case errors.Is(err, store.ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "success": false})
	default:
		logger.Error().Err(err).Str("op", op).Msg("store operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op, "success": false})
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "success": false})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// indexLocation pushes loc to the search index when one is configured.
// Failures are logged only; the database stays the source of truth.
func indexLocation(ctx context.Context, idx search.Index, logger zerolog.Logger, loc *models.Location) {
	if idx == nil || loc == nil {
		return
	}
	if err := idx.IndexLocation(ctx, loc); err != nil {
		logger.Warn().Err(err).Uint(logging.LOCATION, loc.ID).Msg("failed to index location")
	}
}
