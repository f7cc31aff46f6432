package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/SherClockHolmes/webpush-go"
)

// WebPushClient defines the interface for sending a web push notification.
type WebPushClient interface {
	Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

type libWebPushClient struct{}

func (libWebPushClient) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotificationWithContext(ctx, payload, sub, options)
}

// WebPushSender delivers to browser push subscriptions.
type WebPushSender struct {
	options *webpush.Options
	client  WebPushClient
}

// NewWebPushSender creates a sender signing requests with the given VAPID options.
func NewWebPushSender(options *webpush.Options) *WebPushSender {
	return &WebPushSender{options: options, client: libWebPushClient{}}
}

// NewWebPushSenderWithClient is NewWebPushSender with a custom transport.
func NewWebPushSenderWithClient(options *webpush.Options, client WebPushClient) *WebPushSender {
	return &WebPushSender{options: options, client: client}
}

type webPushPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Badge int               `json:"badge"`
	Data  map[string]string `json:"data"`
}

// Send delivers msg to the subscription encoded in token.
func (s *WebPushSender) Send(ctx context.Context, token string, msg Message) (string, error) {
	sub, ok := ParseWebPushToken(token)
	if !ok {
		return "", fmt.Errorf("token is not a web push subscription")
	}

	payload, err := json.Marshal(webPushPayload{
		Title: msg.Title,
		Body:  msg.Body,
		Badge: msg.Badge,
		Data:  msg.Data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal web push payload: %w", err)
	}

	resp, err := s.client.Send(ctx, payload, sub, s.options)
	if err != nil {
		return "", fmt.Errorf("web push send failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("web push subscription %s has expired (status %d)", sub.Endpoint, resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("web push service rejected notification (status %d)", resp.StatusCode)
	}
	return resp.Header.Get("Location"), nil
}

// ParseWebPushToken decodes a token holding a browser PushSubscription JSON.
func ParseWebPushToken(token string) (*webpush.Subscription, bool) {
	if !strings.HasPrefix(strings.TrimSpace(token), "{") {
		return nil, false
	}
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(token), &sub); err != nil {
		return nil, false
	}
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return nil, false
	}
	return &sub, true
}
