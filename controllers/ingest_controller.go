package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/search"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/types"
	"github.com/city-guide/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ingestDetails    = "Please make sure your payload includes all required fields"
	maxLoggedPayload = 4096
)

// IngestObserver counts ingestion requests by result.
type IngestObserver interface {
	Ingest(result string)
}

// IngestController accepts flat listing records from external automation.
type IngestController struct {
	Locations *store.CachedLocations
	Index     search.Index
	Observer  IngestObserver
	logger    zerolog.Logger
}

func NewIngestController(locations *store.CachedLocations, index search.Index, observer IngestObserver) *IngestController {
	return &IngestController{
		Locations: locations,
		Index:     index,
		Observer:  observer,
		logger:    logging.NewPackageLogger("ingest"),
	}
}

// IngestLocation godoc
// @Summary Insert one listing from an external workflow
// @Description {"test": true} only checks connectivity. slug and place_id are generated when absent.
// @Tags ingest
// @Accept json
// @Produce json
// @Router /api/ingest/locations [post]
func (ic *IngestController) IngestLocation(c *gin.Context) {
	if body, truncated, err := utils.PeekBody(c.Request, maxLoggedPayload); err == nil {
		ic.logger.Debug().Str("payload", body).Bool("truncated", truncated).Msg("received location data")
	}

	var record types.IngestRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		ic.reject(c, http.StatusBadRequest, err.Error())
		return
	}

	if record.Test {
		ic.logger.Info().Msg("test request received")
		ic.observe("test")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Test successful"})
		return
	}

	if field := record.Missing(); field != "" {
		ic.reject(c, http.StatusBadRequest, "Missing required field: "+field)
		return
	}

	input := record.ToInput()
	if strings.TrimSpace(input.PlaceID) == "" {
		input.PlaceID = fmt.Sprintf("auto-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	}
	loc := &models.Location{}
	input.Apply(loc)

	ctx := c.Request.Context()
	if err := ic.Locations.Create(ctx, loc); err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) || errors.Is(err, store.ErrSlugTaken) {
			ic.reject(c, http.StatusBadRequest, err.Error())
			return
		}
		ic.logger.Error().Err(err).Str("name", loc.Name).Msg("failed to insert location")
		ic.observe("error")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to insert location", "details": ingestDetails})
		return
	}
	indexLocation(ctx, ic.Index, ic.logger, loc)

	ic.logger.Info().Uint(logging.LOCATION, loc.ID).Str("slug", loc.Slug).Msg("location ingested")
	ic.observe("created")
	c.JSON(http.StatusOK, gin.H{"success": true, "data": []*models.Location{loc}})
}

func (ic *IngestController) reject(c *gin.Context, status int, msg string) {
	ic.logger.Warn().Str("reason", msg).Msg("ingest request rejected")
	ic.observe("invalid")
	c.JSON(status, gin.H{"success": false, "error": msg, "details": ingestDetails})
}

func (ic *IngestController) observe(result string) {
	if ic.Observer != nil {
		ic.Observer.Ingest(result)
	}
}
