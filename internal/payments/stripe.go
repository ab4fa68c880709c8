package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

type StripeHTTP struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
}

func NewStripeHTTP(secretKey string) *StripeHTTP {
	return &StripeHTTP{
		BaseURL:   "https://api.stripe.com/v1",
		SecretKey: secretKey,
		client:    newHTTPClient(),
	}
}

func (s *StripeHTTP) CreateSession(ctx context.Context, successURL, cancelURL string) (*StripeSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	body := form.Encode()

	resp, err := doWithRetry(s.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/checkout/sessions", strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+s.SecretKey)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stripe create session: status %d", resp.StatusCode)
	}

	var session StripeSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("stripe decode: %w", err)
	}
	return &session, nil
}

type StripeMock struct{}

func (StripeMock) CreateSession(_ context.Context, successURL, cancelURL string) (*StripeSession, error) {
	return &StripeSession{
		ID:         "cs_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		URL:        "https://checkout.stripe.com/mock-session",
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	}, nil
}
