package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/studentmart/backend/internal/events"
	"github.com/studentmart/backend/internal/models"
	"github.com/studentmart/backend/internal/service/token"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer events.Publisher
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any, key string) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicOrderEvents, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *OrderHandler) notify(c echo.Context, userID uint, typ, title, message string) {
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

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProjectID     int     `json:"projectId"`
		Amount        float64 `json:"amount"`
		PaymentMethod string  `json:"paymentMethod"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ProjectID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "projectId required")
	}
	if req.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be > 0")
	}

	var project models.Project
	if err := h.DB.First(&project, req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Project not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	now := time.Now().Unix()
	order := models.Order{
		ID:            uuid.NewString(),
		ProjectID:     req.ProjectID,
		UserID:        userID,
		Amount:        req.Amount,
		Status:        models.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.DB.Create(&order).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  userID,
		"amount":  order.Amount,
	}, order.ID)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": order})
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	q := h.DB.Model(&models.Order{})
	if role, _ := c.Get("role").(string); role != models.RoleAdmin {
		q = q.Where("user_id = ?", userID)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

func (h *OrderHandler) getOwned(c echo.Context) (*models.Order, error) {
	userID, err := token.UserID(c)
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := h.DB.Where("id = ?", c.Param("id")).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if role, _ := c.Get("role").(string); role != models.RoleAdmin && order.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return &order, nil
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.getOwned(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order})
}

// transition applies a status change with a compare-and-swap on the
// current status, so two concurrent transitions cannot both win.
func (h *OrderHandler) transition(c echo.Context, order *models.Order, newStatus string, extra map[string]any) error {
	if order.Terminal() {
		return echo.NewHTTPError(http.StatusConflict, "order is cancelled")
	}

	updates := map[string]any{
		"status":     newStatus,
		"updated_at": time.Now().Unix(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := h.DB.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusConflict, "order status changed concurrently")
	}
	return nil
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	order, err := h.getOwned(c)
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !models.ValidOrderStatus(req.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	if err := h.transition(c, order, req.Status, nil); err != nil {
		return err
	}
	order.Status = req.Status
	order.UpdatedAt = time.Now().Unix()

	h.notify(c, order.UserID, "order_update", "Order updated", "Your order is now "+req.Status)
	h.publish(c, map[string]any{
		"type":    "order_status_changed",
		"orderID": order.ID,
		"status":  req.Status,
	}, order.ID)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": order})
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	order, err := h.getOwned(c)
	if err != nil {
		return err
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.transition(c, order, models.OrderStatusCancelled, map[string]any{
		"cancel_reason": req.Reason,
	}); err != nil {
		return err
	}
	order.Status = models.OrderStatusCancelled
	order.CancelReason = req.Reason
	order.UpdatedAt = time.Now().Unix()

	h.notify(c, order.UserID, "order_update", "Order cancelled", "Your order was cancelled")
	h.publish(c, map[string]any{
		"type":    "order_cancelled",
		"orderID": order.ID,
		"reason":  req.Reason,
	}, order.ID)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": order})
}
