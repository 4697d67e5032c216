package controllers

import (
	"errors"
	"net/http"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type UserController struct {
	Profiles  *store.Profiles
	Favorites *store.Favorites
	logger    zerolog.Logger
}

func NewUserController(profiles *store.Profiles, favorites *store.Favorites) *UserController {
	return &UserController{Profiles: profiles, Favorites: favorites, logger: logging.NewPackageLogger("users")}
}

// GetUserProfile is the admin view of a profile.
// @Router /api/admin/users/{id} [get]
func (uc *UserController) GetUserProfile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	profile, err := uc.Profiles.GetByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "success": false})
		return
	}
	favorites, err := uc.Favorites.List(ctx, id)
	if err != nil {
		storeError(c, uc.logger, err, "fetch favorites")
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    profile,
		Meta:    gin.H{"favoritesCount": len(favorites)},
	})
}

// SetAdmin grants or revokes the privilege flag of another profile.
// @Router /api/admin/users/{id}/admin [put]
func (uc *UserController) SetAdmin(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input struct {
		IsAdmin *bool `json:"isAdmin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isAdmin is required", "success": false})
		return
	}

	profile, err := uc.Profiles.SetAdmin(c.Request.Context(), id, *input.IsAdmin)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "success": false})
			return
		}
		uc.logger.Error().Err(err).Uint(logging.USER, id).Msg("failed to update admin flag")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user", "success": false})
		return
	}

	uc.logger.Info().
		Uint(logging.USER, id).
		Uint("by", utils.GetUser(c).UserID).
		Bool("is_admin", profile.IsAdmin).
		Msg("admin flag changed")
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: profile, Message: "User updated successfully"})
}

// ValidateEmail reports whether an email is already registered.
// @Router /api/validation/email/{email} [get]
func (uc *UserController) ValidateEmail(c *gin.Context) {
	_, err := uc.Profiles.GetByEmail(c.Request.Context(), c.Param("email"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"exists": true})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusOK, gin.H{"exists": false})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check email"})
	}
}
