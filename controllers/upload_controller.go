package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/city-guide/api-go/config"
	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	maxPhotoSize   = 10 * 1024 * 1024
	presignExpires = time.Hour
)

var photoContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// UploadController manages listing photos stored in R2. R2Client is nil
// when object storage is not configured; photos can then only be added by
// reference.
type UploadController struct {
	Locations *store.CachedLocations
	R2Client  *s3.Client
	R2Config  *config.R2Config
	logger    zerolog.Logger
}

type PresignedURLRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required"`
}

type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// PhotoConfirmRequest either names an uploaded object (Key) or an external
// photo reference such as a Google photo reference or an absolute URL.
type PhotoConfirmRequest struct {
	Key            string `json:"key"`
	PhotoReference string `json:"photoReference"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Attribution    string `json:"attribution"`
}

func NewUploadController(locations *store.CachedLocations, r2Config *config.R2Config) *UploadController {
	uc := &UploadController{
		Locations: locations,
		R2Config:  r2Config,
		logger:    logging.NewPackageLogger("upload"),
	}
	if r2Config.Enabled() {
		uc.R2Client = s3.New(s3.Options{
			BaseEndpoint: aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2Config.AccountID)),
			Credentials: credentials.NewStaticCredentialsProvider(
				r2Config.AccessKeyID,
				r2Config.SecretAccessKey,
				"",
			),
			Region: r2Config.Region,
		})
	}
	return uc
}

// GetPhotoUploadURL godoc
// @Summary Presigned PUT URL for a listing photo
// @Tags admin
// @Accept json
// @Produce json
// @Param id path integer true "Location ID"
// @Router /api/admin/locations/{id}/photos/upload-url [post]
func (uc *UploadController) GetPhotoUploadURL(c *gin.Context) {
	if uc.R2Client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Object storage is not configured", "success": false})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req PresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}
	if !photoContentTypes[req.ContentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type", "success": false})
		return
	}
	if req.FileSize > maxPhotoSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large", "success": false})
		return
	}

	ctx := c.Request.Context()
	if _, err := uc.Locations.GetByID(ctx, id); err != nil {
		storeError(c, uc.logger, err, "create upload URL")
		return
	}

	key := generatePhotoKey(id, req.FileName)
	presignedURL, err := uc.createPresignedURL(ctx, key, req.ContentType)
	if err != nil {
		uc.logger.Error().Err(err).Str(logging.KEY, key).Msg("failed to presign upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create upload URL", "success": false})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: PresignedURLResponse{
			UploadURL: presignedURL,
			FileURL:   uc.publicURL(key),
			Key:       key,
			ExpiresIn: int(presignExpires.Seconds()),
		},
		Message: "Presigned URL generated successfully",
	})
}

// ConfirmPhoto attaches a photo to a listing. An uploaded key is checked
// against the bucket first.
// @Router /api/admin/locations/{id}/photos [post]
func (uc *UploadController) ConfirmPhoto(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req PhotoConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	ctx := c.Request.Context()
	reference := strings.TrimSpace(req.PhotoReference)
	switch {
	case req.Key != "":
		if uc.R2Client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Object storage is not configured", "success": false})
			return
		}
		if !strings.HasPrefix(req.Key, fmt.Sprintf("locations/%d/", id)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Key does not belong to this location", "success": false})
			return
		}
		if !uc.verifyFileExists(ctx, req.Key) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found in storage", "success": false})
			return
		}
		reference = uc.publicURL(req.Key)
	case reference == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "key or photoReference is required", "success": false})
		return
	}

	photo := &models.LocationPhoto{
		LocationID:     id,
		PhotoReference: reference,
		Width:          req.Width,
		Height:         req.Height,
		Attribution:    req.Attribution,
	}
	if err := uc.Locations.AddPhoto(ctx, photo); err != nil {
		storeError(c, uc.logger, err, "add photo")
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{Success: true, Data: photo, Message: "Upload confirmed successfully"})
}

// DeletePhoto removes the photo row and, for photos stored in our bucket,
// the object as well.
// @Router /api/admin/photos/{photoId} [delete]
func (uc *UploadController) DeletePhoto(c *gin.Context) {
	id, ok := parseID(c, "photoId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	photo, err := uc.Locations.DeletePhoto(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found", "success": false})
		return
	}
	if err != nil {
		storeError(c, uc.logger, err, "delete photo")
		return
	}

	if key, stored := uc.objectKey(photo.PhotoReference); stored {
		if err := uc.deleteFile(ctx, key); err != nil {
			uc.logger.Warn().Err(err).Str(logging.KEY, key).Msg("failed to delete photo object")
		}
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "File deleted successfully"})
}

func generatePhotoKey(locationID uint, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("locations/%d/%d_%s%s", locationID, time.Now().Unix(), uuid.NewString(), ext)
}

func (uc *UploadController) publicURL(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(uc.R2Config.PublicURL, "/"), key)
}

// objectKey maps a public URL back to its bucket key.
func (uc *UploadController) objectKey(reference string) (string, bool) {
	if uc.R2Client == nil || uc.R2Config.PublicURL == "" {
		return "", false
	}
	prefix := strings.TrimRight(uc.R2Config.PublicURL, "/") + "/"
	if !strings.HasPrefix(reference, prefix) {
		return "", false
	}
	return strings.TrimPrefix(reference, prefix), true
}

func (uc *UploadController) createPresignedURL(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(uc.R2Config.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}

	presigner := s3.NewPresignClient(uc.R2Client)
	req, err := presigner.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpires
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (uc *UploadController) verifyFileExists(ctx context.Context, key string) bool {
	_, err := uc.R2Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(uc.R2Config.BucketName),
		Key:    aws.String(key),
	})
	return err == nil
}

func (uc *UploadController) deleteFile(ctx context.Context, key string) error {
	_, err := uc.R2Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(uc.R2Config.BucketName),
		Key:    aws.String(key),
	})
	return err
}
