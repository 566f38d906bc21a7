package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleWebhook verifies Paddle webhook deliveries and normalizes them into
// SubscriptionEvent values the grant processor consumes. The API client is
// optional: webhook processing only needs the signing secret.
type PaddleWebhook struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	config   PaddleConfig
}

// NewPaddleWebhook creates the Paddle webhook processor.
func NewPaddleWebhook(config PaddleConfig) (*PaddleWebhook, error) {
	if config.WebhookSecret == "" {
		return nil, errors.New("paddle webhook secret is required")
	}

	var client *paddle.SDK
	if config.APIKey != "" {
		var err error
		switch strings.ToLower(config.Environment) {
		case "sandbox":
			client, err = paddle.NewSandbox(config.APIKey)
		case "production", "":
			client, err = paddle.New(config.APIKey)
		default:
			return nil, fmt.Errorf("invalid paddle environment: %s", config.Environment)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create paddle client: %w", err)
		}
	}

	return &PaddleWebhook{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
		config:   config,
	}, nil
}

// ParseWebhook verifies the delivery signature and normalizes the payload.
func (p *PaddleWebhook) ParseWebhook(ctx context.Context, payload []byte, signature string) (*SubscriptionEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	var raw struct {
		EventID   string         `json:"event_id"`
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Join(ErrMalformedWebhookPayload, err)
	}

	event := &SubscriptionEvent{
		ID:            raw.EventID,
		Type:          mapPaddleEventType(raw.EventType),
		ProviderEvent: raw.EventType,
	}

	data := raw.Data

	if id, ok := data["id"].(string); ok {
		event.SubscriptionID = id
	}
	// Transactions carry the subscription they belong to separately.
	if subID, ok := data["subscription_id"].(string); ok && subID != "" {
		event.SubscriptionID = subID
	}
	if customerID, ok := data["customer_id"].(string); ok {
		event.CustomerID = customerID
	}
	if status, ok := data["status"].(string); ok {
		event.Status = status
	}

	if period, ok := data["current_billing_period"].(map[string]any); ok {
		if endsAt, ok := period["ends_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, endsAt); err == nil {
				event.CurrentPeriodEnd = &t
			}
		}
	}
	if scheduled, ok := data["scheduled_change"].(map[string]any); ok {
		if action, ok := scheduled["action"].(string); ok && action == "cancel" {
			event.CancelAtPeriodEnd = true
		}
	}

	if items, ok := data["items"].([]any); ok && len(items) > 0 {
		if item, ok := items[0].(map[string]any); ok {
			if priceID, ok := item["price_id"].(string); ok {
				event.PriceID = priceID
			}
			if price, ok := item["price"].(map[string]any); ok {
				if priceID, ok := price["id"].(string); ok {
					event.PriceID = priceID
				}
			}
		}
	}

	if customData, ok := data["custom_data"].(map[string]any); ok {
		event.Metadata = make(map[string]string, len(customData))
		for k, v := range customData {
			if s, ok := v.(string); ok {
				event.Metadata[k] = s
			}
		}
		event.WalletID = firstMetadata(event.Metadata, "wallet_id", "walletId")
		event.PlanCode = firstMetadata(event.Metadata, "plan_code", "planCode")
	}

	return event, nil
}

// ParseWebhookRequest accepts the raw HTTP request when the caller has not
// already drained the body.
func (p *PaddleWebhook) ParseWebhookRequest(req *http.Request) (*SubscriptionEvent, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	return p.ParseWebhook(req.Context(), body, req.Header.Get("Paddle-Signature"))
}

// firstMetadata returns the first non-empty value among the given keys.
// Providers are inconsistent about snake_case vs camelCase in custom data.
func firstMetadata(md map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := md[k]; v != "" {
			return v
		}
	}
	return ""
}

// mapPaddleEventType maps Paddle event types to the normalized EventType.
func mapPaddleEventType(paddleEvent string) EventType {
	switch paddleEvent {
	case "transaction.completed":
		return EventCheckoutCompleted
	case "subscription.created":
		return EventSubscriptionCreated
	case "subscription.updated", "subscription.resumed":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionDeleted
	case "transaction.payment_succeeded":
		return EventInvoicePaid
	default:
		return EventType(paddleEvent)
	}
}
