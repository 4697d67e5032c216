package routes

import (
	"github.com/city-guide/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupUserRoutes(admin *gin.RouterGroup, userController *controllers.UserController) {
	users := admin.Group("/users")
	{
		users.GET("/:id", userController.GetUserProfile)
		users.PUT("/:id/admin", userController.SetAdmin)
	}
}
