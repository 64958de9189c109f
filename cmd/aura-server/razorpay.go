package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	aurauth "github.com/aura-labs/aurauth"
)

// razorpayGateway is a minimal client for the Razorpay Orders REST API:
// create an order, fetch its status. Amounts are rupees on our side and
// paise on the wire.
type razorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

// newGatewayFromEnv returns nil when no keys are configured; the engine
// treats a nil gateway as online payments disabled.
func newGatewayFromEnv() aurauth.PaymentGateway {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	if keyID == "" || keySecret == "" {
		return nil
	}

	return &razorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   "https://api.razorpay.com/v1",
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type razorpayOrder struct {
	ID      string `json:"id"`
	Amount  int64  `json:"amount"`
	Receipt string `json:"receipt"`
	Status  string `json:"status"`
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"amount":   amount * 100,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	var created razorpayOrder
	if err := g.do(req, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (g *razorpayGateway) FetchOrder(ctx context.Context, gatewayOrderID string) (aurauth.GatewayOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/orders/"+gatewayOrderID, nil)
	if err != nil {
		return aurauth.GatewayOrder{}, err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)

	var fetched razorpayOrder
	if err := g.do(req, &fetched); err != nil {
		return aurauth.GatewayOrder{}, err
	}

	return aurauth.GatewayOrder{
		ID:      fetched.ID,
		Receipt: fetched.Receipt,
		Status:  fetched.Status,
	}, nil
}

func (g *razorpayGateway) do(req *http.Request, dst any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("razorpay: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
