package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/studentmart/backend/internal/events"
	"github.com/studentmart/backend/internal/models"
	"github.com/studentmart/backend/internal/payments"
	"github.com/studentmart/backend/internal/service/token"
)

type PaymentHandler struct {
	DB       *gorm.DB
	Razorpay payments.RazorpayClient
	Stripe   payments.StripeClient
	Producer events.Publisher
}

func (h *PaymentHandler) publish(c echo.Context, event map[string]any, key string) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicOrderEvents, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *PaymentHandler) record(c echo.Context, userID uint, orderID, gateway string, amount float64, currency, status string) {
	p := models.Payment{
		ID:        uuid.NewString(),
		UserID:    userID,
		OrderID:   orderID,
		Gateway:   gateway,
		Amount:    amount,
		Currency:  currency,
		Status:    status,
		CreatedAt: time.Now().Unix(),
	}
	if err := h.DB.Create(&p).Error; err != nil {
		c.Logger().Errorf("payment record error: %v", err)
	}
}

func (h *PaymentHandler) CreateRazorpayOrder(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		OrderID  string  `json:"orderId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be > 0")
	}

	order, err := h.Razorpay.CreateOrder(c.Request().Context(), req.Amount, req.Currency)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "payment gateway error")
	}

	h.record(c, userID, req.OrderID, "razorpay", req.Amount, order.Currency, "created")
	return c.JSON(http.StatusOK, order)
}

func (h *PaymentHandler) VerifyRazorpay(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpaySignature string `json:"razorpay_signature"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ok, err := h.Razorpay.VerifyPayment(c.Request().Context(), req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "payment gateway error")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "signature mismatch")
	}

	h.publish(c, map[string]any{
		"type":    "payment_verified",
		"userID":  userID,
		"gateway": "razorpay",
	}, req.RazorpayOrderID)

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *PaymentHandler) CreateStripeSession(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		SuccessURL string  `json:"successUrl"`
		CancelURL  string  `json:"cancelUrl"`
		Amount     float64 `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	session, err := h.Stripe.CreateSession(c.Request().Context(), req.SuccessURL, req.CancelURL)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "payment gateway error")
	}

	h.record(c, userID, "", "stripe", req.Amount, "USD", "created")
	return c.JSON(http.StatusOK, session)
}

func (h *PaymentHandler) History(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var history []models.Payment
	if err := h.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&history).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if history == nil {
		history = []models.Payment{}
	}
	return c.JSON(http.StatusOK, echo.Map{"history": history})
}
