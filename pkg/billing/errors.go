package billing

import "errors"

var (
	ErrPlanNotFound         = errors.New("billing plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrStorageUnavailable wraps infrastructure failures from the durable
	// store, distinct from entitlement and attribution problems.
	ErrStorageUnavailable = errors.New("billing storage unavailable")

	// Webhook normalization errors.
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrMalformedWebhookPayload   = errors.New("malformed webhook payload")
)
