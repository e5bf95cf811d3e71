package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// reminderTTLSeconds is how long the push service may hold an undelivered
// reminder before dropping it.
const reminderTTLSeconds = 86400

var reminderPayload = []byte(`{"type":"reminder"}`)

var (
	errMissingVAPIDKeys  = errors.New("vapid key pair is required")
	errMissingSubscriber = errors.New("subscriber contact is required")
	// ErrBadSubscription indicates the stored subscription JSON is unusable.
	ErrBadSubscription = errors.New("reminder: malformed push subscription")
)

// WebPushConfig carries the VAPID credentials for the Web Push protocol.
type WebPushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

// WebPush dispatches reminders over the Web Push protocol.
type WebPush struct {
	config WebPushConfig
}

// NewWebPush constructs the production pusher.
func NewWebPush(cfg WebPushConfig) (*WebPush, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("reminder: %w", errMissingVAPIDKeys)
	}
	if cfg.Subscriber == "" {
		return nil, fmt.Errorf("reminder: %w", errMissingSubscriber)
	}
	return &WebPush{config: cfg}, nil
}

// Push sends one reminder to the subscription stored for a user.
func (p *WebPush) Push(ctx context.Context, subscriptionJSON string) error {
	var subscription webpush.Subscription
	if err := json.Unmarshal([]byte(subscriptionJSON), &subscription); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSubscription, err)
	}
	if subscription.Endpoint == "" {
		return fmt.Errorf("%w: missing endpoint", ErrBadSubscription)
	}

	response, err := webpush.SendNotificationWithContext(ctx, reminderPayload, &subscription, &webpush.Options{
		Subscriber:      p.config.Subscriber,
		VAPIDPublicKey:  p.config.VAPIDPublicKey,
		VAPIDPrivateKey: p.config.VAPIDPrivateKey,
		TTL:             reminderTTLSeconds,
	})
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("reminder: push service returned %d", response.StatusCode)
	}
	return nil
}
