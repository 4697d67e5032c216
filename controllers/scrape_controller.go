package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/scraper"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/types"
	"github.com/city-guide/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ScrapePoller is the part of *scraper.Poller the handlers use.
type ScrapePoller interface {
	Submit(ctx context.Context, req scraper.SubmitRequest) (*types.ActorRun, error)
	Cancel(runID string) error
	Running(runID string) bool
}

type ScrapeController struct {
	Poller ScrapePoller
	Runs   *store.ScrapeRuns
	logger zerolog.Logger
}

func NewScrapeController(poller ScrapePoller, runs *store.ScrapeRuns) *ScrapeController {
	return &ScrapeController{Poller: poller, Runs: runs, logger: logging.NewPackageLogger("scrape")}
}

// StartScrape godoc
// @Summary Start a places scraping run
// @Description Returns 202 as soon as the run is accepted; results are imported in the background
// @Tags admin
// @Accept json
// @Produce json
// @Router /api/admin/scrape [post]
func (sc *ScrapeController) StartScrape(c *gin.Context) {
	var req types.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Apify token is required", "success": false})
		return
	}

	// the poller outlives this request
	run, err := sc.Poller.Submit(context.WithoutCancel(c.Request.Context()), scraper.SubmitRequest{
		Token:     strings.TrimSpace(req.Token),
		ActorID:   req.ActorID,
		Input:     req.SearchParams,
		StartedBy: utils.GetUser(c).UserID,
	})
	if err != nil {
		var apiErr *scraper.APIError
		switch {
		case errors.Is(err, scraper.ErrTokenRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Apify token is required", "success": false})
		case errors.As(err, &apiErr):
			sc.logger.Error().Err(err).Int(logging.STATUS, apiErr.StatusCode).Msg("failed to start scrape run")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to start Apify run: " + apiErr.Body, "success": false})
		default:
			sc.logger.Error().Err(err).Msg("failed to start scrape run")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "success": false})
		}
		return
	}

	c.JSON(http.StatusAccepted, types.ScrapeAccepted{
		Success: true,
		Message: "Apify job started successfully",
		RunID:   run.ID,
		Status:  models.RunStatusPending,
	})
}

// @Router /api/admin/scrape/runs [get]
func (sc *ScrapeController) ListRuns(c *gin.Context) {
	runs, err := sc.Runs.List(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		storeError(c, sc.logger, err, "fetch scrape runs")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: runs})
}

// @Router /api/admin/scrape/runs/{runId} [get]
func (sc *ScrapeController) GetRun(c *gin.Context) {
	runID := c.Param("runId")
	run, err := sc.Runs.Get(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Scrape run not found", "success": false})
			return
		}
		storeError(c, sc.logger, err, "fetch scrape run")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    run,
		Meta:    gin.H{"polling": sc.Poller.Running(runID)},
	})
}

// CancelRun stops polling a run. Listings already imported are kept.
// @Router /api/admin/scrape/runs/{runId} [delete]
func (sc *ScrapeController) CancelRun(c *gin.Context) {
	runID := c.Param("runId")
	if err := sc.Poller.Cancel(runID); err != nil {
		if errors.Is(err, scraper.ErrUnknownRun) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Scrape run not found", "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "success": false})
		return
	}

	sc.logger.Info().Str(logging.RUN, runID).Uint(logging.USER, utils.GetUser(c).UserID).Msg("scrape run cancelled")
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Scrape run cancelled"})
}
