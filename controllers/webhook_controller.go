package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/types"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const webhookTestMessage = "This is a test from the location management system"

// WebhookController checks that an automation webhook is reachable. The URL
// is not stored; the client keeps it.
type WebhookController struct {
	HTTPClient *http.Client
	logger     zerolog.Logger
}

func NewWebhookController() *WebhookController {
	return &WebhookController{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewPackageLogger("webhook"),
	}
}

// TestWebhook godoc
// @Summary Send a test message to a webhook URL
// @Tags admin
// @Accept json
// @Produce json
// @Router /api/admin/webhooks/test [post]
func (wc *WebhookController) TestWebhook(c *gin.Context) {
	var req types.WebhookTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}
	webhookURL := strings.TrimSpace(req.WebhookURL)
	if err := store.ValidateURL(webhookURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook URL: " + err.Error(), "success": false})
		return
	}

	payload, _ := json.Marshal(gin.H{"test": true, "message": webhookTestMessage})
	httpReq, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook URL", "success": false})
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := wc.HTTPClient.Do(httpReq)
	if err != nil {
		wc.logger.Warn().Err(err).Str("url", webhookURL).Msg("webhook test failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send test message to the webhook URL", "success": false})
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		wc.logger.Warn().Int(logging.STATUS, resp.StatusCode).Str("url", webhookURL).Msg("webhook answered with an error")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   fmt.Sprintf("Webhook responded with status %d", resp.StatusCode),
			"success": false,
		})
		return
	}

	wc.logger.Info().Str("url", webhookURL).Msg("webhook test sent")
	c.JSON(http.StatusOK, gin.H{"success": true, "webhookUrl": webhookURL, "message": "A test message was sent to your webhook."})
}
