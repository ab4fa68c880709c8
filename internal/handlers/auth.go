package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/studentmart/backend/internal/events"
	"github.com/studentmart/backend/internal/hash"
	"github.com/studentmart/backend/internal/models"
	"github.com/studentmart/backend/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer events.Publisher
}

type userPayload struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func publicUser(u *models.User) userPayload {
	return userPayload{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// issueSession signs an access/refresh pair, persists the refresh token
// and sets it as an HttpOnly cookie. The refresh token is never part of
// the JSON body.
func (h *AuthHandler) issueSession(c echo.Context, user *models.User) (string, error) {
	accessToken, err := h.Tokens.SignAccessToken(user.ID, user.Role)
	if err != nil {
		return "", err
	}
	refreshToken, err := h.Tokens.SignRefreshToken(user.ID, user.Role)
	if err != nil {
		return "", err
	}
	if err := h.Tokens.SaveRefreshToken(refreshToken, user.ID); err != nil {
		return "", err
	}
	c.SetCookie(token.RefreshCookie(refreshToken, time.Now().Add(token.RefreshTTL)))
	return accessToken, nil
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any, key string) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicUserEvents, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password required")
	}
	if req.Name == "" {
		req.Name = "New User"
	}

	var existing models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash password")
	}

	// Registration never grants admin; elevation happens through the
	// admin user-management surface only.
	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleStudent,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	accessToken, err := h.issueSession(c, &user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create session")
	}

	h.publish(c, map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	}, fmt.Sprint(user.ID))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    publicUser(&user),
		"token":   accessToken,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password required")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	accessToken, err := h.issueSession(c, &user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create session")
	}

	h.publish(c, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	}, fmt.Sprint(user.ID))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    publicUser(&user),
		"token":   accessToken,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(token.RefreshCookieName)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "No refresh token")
	}

	newAccess, newRefresh, err := h.Tokens.RotateToken(cookie.Value)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	c.SetCookie(token.RefreshCookie(newRefresh, time.Now().Add(token.RefreshTTL)))
	return c.JSON(http.StatusOK, echo.Map{"token": newAccess})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(token.RefreshCookieName); err == nil {
		if err := h.Tokens.RevokeRefresh(cookie.Value); err != nil {
			c.Logger().Errorf("revoke refresh error: %v", err)
		}
	}
	c.SetCookie(token.RefreshCookie("", time.Now().Add(-time.Hour)))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
