package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

func paise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

type RazorpayHTTP struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	client    *http.Client
}

func NewRazorpayHTTP(keyID, keySecret string) *RazorpayHTTP {
	return &RazorpayHTTP{
		BaseURL:   "https://api.razorpay.com/v1",
		KeyID:     keyID,
		KeySecret: keySecret,
		client:    newHTTPClient(),
	}
}

func (r *RazorpayHTTP) CreateOrder(ctx context.Context, amount float64, currency string) (*RazorpayOrder, error) {
	if currency == "" {
		currency = "INR"
	}
	// Razorpay amounts are in the smallest currency unit. Round, don't
	// truncate: 1.15 * 100 is 114.999... as a float64.
	payload, err := json.Marshal(map[string]any{
		"amount":   paise(amount),
		"currency": currency,
	})
	if err != nil {
		return nil, err
	}

	resp, err := doWithRetry(r.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/orders", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(r.KeyID, r.KeySecret)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("razorpay create order: status %d", resp.StatusCode)
	}

	var order RazorpayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("razorpay decode: %w", err)
	}
	order.Key = r.KeyID
	return &order, nil
}

// VerifyPayment checks the checkout callback signature:
// HMAC-SHA256(orderID|paymentID, key secret).
func (r *RazorpayHTTP) VerifyPayment(_ context.Context, orderID, paymentID, signature string) (bool, error) {
	mac := hmac.New(sha256.New, []byte(r.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}

// RazorpayMock reproduces the gateway's response shapes with
// deterministic test credentials.
type RazorpayMock struct{}

func (RazorpayMock) CreateOrder(_ context.Context, amount float64, currency string) (*RazorpayOrder, error) {
	if currency == "" {
		currency = "INR"
	}
	return &RazorpayOrder{
		ID:       "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:   paise(amount),
		Currency: currency,
		Key:      "rzp_test_1234567890",
	}, nil
}

func (RazorpayMock) VerifyPayment(context.Context, string, string, string) (bool, error) {
	return true, nil
}
