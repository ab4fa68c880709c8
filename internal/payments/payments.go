// Package payments models the external payment gateways as injected
// client interfaces. The gateways are black boxes: handlers only see
// these contracts, so mocks and real HTTP clients are interchangeable.
package payments

import (
	"context"
	"net/http"
	"time"
)

type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

type RazorpayClient interface {
	CreateOrder(ctx context.Context, amount float64, currency string) (*RazorpayOrder, error)
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (bool, error)
}

type StripeSession struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type StripeClient interface {
	CreateSession(ctx context.Context, successURL, cancelURL string) (*StripeSession, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// doWithRetry retries once on transport errors and 5xx responses.
// Gateway calls are best-effort; anything past one retry surfaces to
// the caller.
func doWithRetry(client *http.Client, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = &statusError{code: resp.StatusCode}
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}
