package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/city-guide/api-go/config"
	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type AuthController struct {
	Profiles     *store.Profiles
	GoogleConfig *config.GoogleConfig
	Auth         config.AuthConfig
	logger       zerolog.Logger
}

func NewAuthController(profiles *store.Profiles, google *config.GoogleConfig, auth config.AuthConfig) *AuthController {
	return &AuthController{
		Profiles:     profiles,
		GoogleConfig: google,
		Auth:         auth,
		logger:       logging.NewPackageLogger("auth"),
	}
}

// Register creates an email/password profile.
// @Router /api/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Username string `json:"username"`
		FullName string `json:"fullName"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password", "success": false})
		return
	}
	hashed := string(hashedPassword)

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = strings.SplitN(input.Email, "@", 2)[0]
	}

	profile := &models.Profile{
		Email:    input.Email,
		Username: username,
		FullName: strings.TrimSpace(input.FullName),
		Password: &hashed,
		Provider: "email",
	}
	if err := ac.Profiles.Create(c.Request.Context(), profile); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered", "success": false})
			return
		}
		ac.logger.Error().Err(err).Msg("failed to create profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create profile", "success": false})
		return
	}

	ac.logger.Info().Uint(logging.USER, profile.ID).Msg("profile registered")
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    profile,
	})
}

// @Router /api/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	profile, err := ac.Profiles.GetByEmail(c.Request.Context(), input.Email)
	if err != nil || profile.Password == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "success": false})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*profile.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "success": false})
		return
	}

	ac.respondWithTokens(c, profile)
}

// GoogleLogin accepts an authorization code, an ID token or an access token.
// @Router /api/google-login [post]
func (ac *AuthController) GoogleLogin(c *gin.Context) {
	if ac.GoogleConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured", "success": false})
		return
	}

	var input struct {
		IDToken     string `json:"id_token"`
		AccessToken string `json:"access_token"`
		Code        string `json:"code"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	ctx := c.Request.Context()
	var userInfo *config.GoogleUserInfo
	var err error

	switch {
	case input.Code != "":
		token, exchangeErr := ac.GoogleConfig.ExchangeCode(ctx, input.Code)
		if exchangeErr != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to exchange code for token", "success": false})
			return
		}
		userInfo, err = ac.GoogleConfig.GetUserInfo(ctx, token.AccessToken)
	case input.IDToken != "":
		userInfo, err = ac.GoogleConfig.VerifyIDToken(ctx, input.IDToken)
	case input.AccessToken != "":
		userInfo, err = ac.GoogleConfig.GetUserInfo(ctx, input.AccessToken)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either code, id_token, or access_token is required", "success": false})
		return
	}
	if err != nil || userInfo.Email == "" {
		ac.logger.Warn().Err(err).Msg("google token rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Google token", "success": false})
		return
	}

	profile, err := ac.Profiles.FindOrCreateGoogle(ctx, userInfo.UserID(), userInfo.Email, userInfo.Name, userInfo.Picture)
	if err != nil {
		ac.logger.Error().Err(err).Msg("failed to resolve google profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "success": false})
		return
	}

	ac.respondWithTokens(c, profile)
}

// @Router /api/refresh-token [post]
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	ctx := c.Request.Context()
	next := uuid.NewString()
	rt, err := ac.Profiles.RotateRefreshToken(ctx, input.RefreshToken, next, time.Now().Add(ac.Auth.RefreshTokenTTL))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token", "success": false})
		return
	}

	profile, err := ac.Profiles.GetByID(ctx, rt.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found", "success": false})
		return
	}

	accessToken, _, err := utils.GenerateToken(ac.Auth.JWTSecret, profile.ID, profile.Email, ac.Auth.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token_type":    "Bearer",
		"access_token":  accessToken,
		"refresh_token": rt.Token,
		"success":       true,
	})
}

// Logout drops the refresh token. The session snapshot for the rest of this
// request is anonymous.
// @Router /api/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	if err := ac.Profiles.DeleteRefreshToken(c.Request.Context(), input.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not log out", "success": false})
		return
	}

	ac.logger.Info().Uint(logging.USER, utils.GetUser(c).UserID).Msg("signed out")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Successfully logged out"})
}

// Session reports the resolved session snapshot for the caller.
// @Router /api/session [get]
func (ac *AuthController) Session(c *gin.Context) {
	snap, ok := utils.GetSession(c)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session is still loading", "success": false})
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: snap})
}

// @Router /api/profile [get]
func (ac *AuthController) GetProfile(c *gin.Context) {
	user := utils.GetUser(c)
	profile, err := ac.Profiles.GetByID(c.Request.Context(), user.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "success": false})
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: profile})
}

// @Router /api/profile [put]
func (ac *AuthController) UpdateProfile(c *gin.Context) {
	user := utils.GetUser(c)
	var input struct {
		Username  string `json:"username"`
		FullName  string `json:"fullName"`
		AvatarURL string `json:"avatarUrl"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	profile, err := ac.Profiles.UpdateProfile(c.Request.Context(), user.UserID, input.Username, input.FullName, input.AvatarURL)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "success": false})
			return
		}
		ac.logger.Error().Err(err).Uint(logging.USER, user.UserID).Msg("failed to update profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile", "success": false})
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: profile, Message: "Profile updated successfully"})
}

// ToggleAdmin flips the caller's own privilege flag. Only mounted when
// self-service admin toggling is enabled.
// @Router /api/profile/admin-toggle [post]
func (ac *AuthController) ToggleAdmin(c *gin.Context) {
	if !ac.Auth.AllowSelfAdminToggle {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied", "success": false})
		return
	}

	user := utils.GetUser(c)
	ctx := c.Request.Context()
	isAdmin, err := ac.Profiles.IsAdmin(ctx, user.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile", "success": false})
		return
	}
	profile, err := ac.Profiles.SetAdmin(ctx, user.UserID, !isAdmin)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "success": false})
		return
	}

	ac.logger.Info().Uint(logging.USER, user.UserID).Bool("is_admin", profile.IsAdmin).Msg("admin flag toggled")
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: profile, Message: "Admin status updated"})
}

func (ac *AuthController) respondWithTokens(c *gin.Context, profile *models.Profile) {
	accessToken, expires, err := utils.GenerateToken(ac.Auth.JWTSecret, profile.ID, profile.Email, ac.Auth.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token", "success": false})
		return
	}

	refreshToken := uuid.NewString()
	if err := ac.Profiles.SaveRefreshToken(c.Request.Context(), profile.ID, refreshToken, time.Now().Add(ac.Auth.RefreshTokenTTL)); err != nil {
		ac.logger.Error().Err(err).Uint(logging.USER, profile.ID).Msg("failed to store refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate refresh token", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token_type":    "Bearer",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_at":    expires,
		"user":          profile,
		"success":       true,
	})
}
