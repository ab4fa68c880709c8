package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studentmart/backend/internal/events"
	"github.com/studentmart/backend/internal/models"
	"github.com/studentmart/backend/internal/service/token"
)

type RequestHandler struct {
	DB       *gorm.DB
	Producer events.Publisher
}

func (h *RequestHandler) publish(c echo.Context, event map[string]any, key string) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicRequestEvents, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *RequestHandler) notify(c echo.Context, userID uint, typ, title, message string) {
	n := models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().Unix(),
	}
	if err := h.DB.Create(&n).Error; err != nil {
		c.Logger().Errorf("notification create error: %v", err)
	}
}

func (h *RequestHandler) Submit(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Title        string            `json:"title"`
		Description  string            `json:"description"`
		Branch       string            `json:"branch"`
		Budget       float64           `json:"budget"`
		Deadline     string            `json:"deadline"`
		Requirements models.StringList `json:"requirements"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title required")
	}

	now := time.Now().Unix()
	entry := models.ProjectRequest{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        req.Title,
		Description:  req.Description,
		Branch:       req.Branch,
		Budget:       req.Budget,
		Deadline:     req.Deadline,
		Requirements: req.Requirements,
		Status:       models.RequestStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.DB.Create(&entry).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	h.publish(c, map[string]any{
		"type":      "request_submitted",
		"requestID": entry.ID,
		"userID":    userID,
	}, entry.ID)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "request": entry})
}

func (h *RequestHandler) ListRequests(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	q := h.DB.Model(&models.ProjectRequest{})
	if role, _ := c.Get("role").(string); role != models.RoleAdmin {
		q = q.Where("user_id = ?", userID)
	}

	var requests []models.ProjectRequest
	if err := q.Order("created_at DESC").Find(&requests).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if requests == nil {
		requests = []models.ProjectRequest{}
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}

func (h *RequestHandler) getOwned(c echo.Context) (*models.ProjectRequest, error) {
	userID, err := token.UserID(c)
	if err != nil {
		return nil, err
	}

	var entry models.ProjectRequest
	if err := h.DB.Where("id = ?", c.Param("id")).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if role, _ := c.Get("role").(string); role != models.RoleAdmin && entry.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return &entry, nil
}

func (h *RequestHandler) GetRequest(c echo.Context) error {
	entry, err := h.getOwned(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"request": entry})
}

// Respond attaches the response payload once. It does not advance the
// request status; see DESIGN.md for why that stays a product decision.
func (h *RequestHandler) Respond(c echo.Context) error {
	var entry models.ProjectRequest
	if err := h.DB.Where("id = ?", c.Param("id")).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if len(entry.Response) > 0 {
		return echo.NewHTTPError(http.StatusConflict, "request already has a response")
	}

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil || len(payload) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "response payload required")
	}
	if !json.Valid(payload) {
		return echo.NewHTTPError(http.StatusBadRequest, "response payload must be JSON")
	}

	res := h.DB.Model(&models.ProjectRequest{}).
		Where("id = ? AND response IS NULL", entry.ID).
		Updates(map[string]any{
			"response":   datatypes.JSON(payload),
			"updated_at": time.Now().Unix(),
		})
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusConflict, "request already has a response")
	}

	h.notify(c, entry.UserID, "request_response", "Request answered", "Your project request received a response")
	h.publish(c, map[string]any{
		"type":      "request_responded",
		"requestID": entry.ID,
	}, entry.ID)

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *RequestHandler) UpdateStatus(c echo.Context) error {
	var entry models.ProjectRequest
	if err := h.DB.Where("id = ?", c.Param("id")).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !models.ValidRequestStatus(req.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	// Requests only transition out of pending, and accepting one that
	// was never answered is forbidden.
	if entry.Status != models.RequestStatusPending && req.Status != entry.Status {
		return echo.NewHTTPError(http.StatusConflict, "request status already set")
	}
	if req.Status == models.RequestStatusAccepted && len(entry.Response) == 0 {
		return echo.NewHTTPError(http.StatusConflict, "cannot accept a request without a response")
	}

	res := h.DB.Model(&models.ProjectRequest{}).
		Where("id = ? AND status = ?", entry.ID, entry.Status).
		Updates(map[string]any{
			"status":     req.Status,
			"updated_at": time.Now().Unix(),
		})
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusConflict, "request status changed concurrently")
	}

	h.notify(c, entry.UserID, "request_update", "Request "+req.Status, "Your project request is now "+req.Status)
	h.publish(c, map[string]any{
		"type":      "request_status_changed",
		"requestID": entry.ID,
		"status":    req.Status,
	}, entry.ID)

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
