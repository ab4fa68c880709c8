package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/studentmart/backend/internal/models"
)

type AdminHandler struct {
	DB *gorm.DB
}

// Stats feeds the operational dashboard with live counts instead of the
// fixed figures the mock served.
func (h *AdminHandler) Stats(c echo.Context) error {
	var (
		totalUsers    int64
		totalProjects int64
		totalOrders   int64
		totalRevenue  float64
		activeUsers   int64
	)

	if err := h.DB.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := h.DB.Model(&models.Project{}).Count(&totalProjects).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := h.DB.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := h.DB.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	monthAgo := time.Now().Add(-30 * 24 * time.Hour).Unix()
	if err := h.DB.Model(&models.Order{}).
		Where("created_at > ?", monthAgo).
		Distinct("user_id").
		Count(&activeUsers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"totalUsers":    totalUsers,
		"totalProjects": totalProjects,
		"totalOrders":   totalOrders,
		"totalRevenue":  totalRevenue,
		"activeUsers":   activeUsers,
	})
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	var users []models.User
	if err := h.DB.Order("id ASC").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if users == nil {
		users = []models.User{}
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

func (h *AdminHandler) GetUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser is the only path that changes a role. Email stays
// immutable here too.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Role != "" {
		if req.Role != models.RoleStudent && req.Role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
		}
		user.Role = req.Role
	}

	if err := h.DB.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.DB.Delete(&models.User{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AdminHandler) ListProjects(c echo.Context) error {
	var projects []models.Project
	if err := h.DB.Order("id ASC").Find(&projects).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return c.JSON(http.StatusOK, echo.Map{"projects": projects})
}
