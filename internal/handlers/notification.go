package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/studentmart/backend/internal/models"
	"github.com/studentmart/backend/internal/service/token"
)

type NotificationHandler struct {
	DB *gorm.DB
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var notifications []models.Notification
	if err := h.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": notifications})
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var count int64
	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// MarkRead is idempotent: marking an already-read notification again is
// a no-op, not an error.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Update("read", true)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if res.RowsAffected == 0 {
		var n models.Notification
		if err := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&n).Error; err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "Not found")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
