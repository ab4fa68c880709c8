package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/studentmart/backend/internal/models"
	"github.com/studentmart/backend/internal/service/token"
)

type UserHandler struct {
	DB *gorm.DB
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// UpdateProfile merges the submitted fields. Email is immutable after
// creation and role can only change through the admin surface.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		College string `json:"college"`
		Branch  string `json:"branch"`
		Avatar  string `json:"avatar"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.College != "" {
		user.College = req.College
	}
	if req.Branch != "" {
		if !models.ValidBranch(req.Branch) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown branch")
		}
		user.Branch = req.Branch
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}

	if err := h.DB.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}

func (h *UserHandler) UploadAvatar(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Avatar string `json:"avatar"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Avatar != "" {
		if err := h.DB.Model(&models.User{}).
			Where("id = ?", userID).
			Update("avatar", req.Avatar).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
