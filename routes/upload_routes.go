package routes

import (
	"github.com/city-guide/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupUploadRoutes(admin *gin.RouterGroup, uploadController *controllers.UploadController) {
	// Presigned PUT URL, then confirm once the object is in the bucket
	admin.POST("/locations/:id/photos/upload-url", uploadController.GetPhotoUploadURL)
	admin.POST("/locations/:id/photos", uploadController.ConfirmPhoto)

	admin.DELETE("/photos/:photoId", uploadController.DeletePhoto)
}
