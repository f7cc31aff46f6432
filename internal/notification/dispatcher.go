package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"golang.org/x/time/rate"

	"quakealert-backend/config"
	"quakealert-backend/internal/apperr"
	"quakealert-backend/internal/model"
)

// Channel names the delivery path chosen for a token.
type Channel string

const (
	ChannelFCM     Channel = "fcm"
	ChannelWebPush Channel = "webpush"
)

// Sender delivers a rendered message to one device token.
type Sender interface {
	Send(ctx context.Context, token string, msg Message) (string, error)
}

// Delivery describes a successful send.
type Delivery struct {
	Channel   Channel
	MessageID string
}

// Dispatcher routes alerts to the push channel matching each token.
// Sends are throttled by a shared token bucket.
type Dispatcher struct {
	title   string
	fcm     Sender
	webPush Sender
	limiter *rate.Limiter
}

// NewDispatcher builds the channels enabled in cfg.
func NewDispatcher(ctx context.Context, cfg *config.PushConfig) (*Dispatcher, error) {
	var fcm, wp Sender

	if cfg.FCM.Enabled {
		s, err := NewFCMSender(ctx, &cfg.FCM)
		if err != nil {
			return nil, err
		}
		fcm = s
		log.Println("FCM delivery enabled.")
	}

	if cfg.WebPush.Enabled() {
		wp = NewWebPushSender(&webpush.Options{
			Subscriber:      cfg.WebPush.Subject,
			VAPIDPublicKey:  cfg.WebPush.PublicKey,
			VAPIDPrivateKey: cfg.WebPush.PrivateKey,
			TTL:             cfg.WebPush.TTL,
		})
		log.Println("Web push delivery enabled.")
	}

	if fcm == nil && wp == nil {
		log.Println("No push channel is configured; matched alerts will only reach the inbox.")
	}

	return NewDispatcherWithSenders(cfg, fcm, wp), nil
}

// NewDispatcherWithSenders creates a dispatcher over existing senders.
// A nil sender leaves that channel disabled.
func NewDispatcherWithSenders(cfg *config.PushConfig, fcm, webPush Sender) *Dispatcher {
	title := cfg.Title
	if title == "" {
		title = "Earthquake Alert"
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Dispatcher{
		title:   title,
		fcm:     fcm,
		webPush: webPush,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// ChannelFor picks the delivery channel for token.
func ChannelFor(token string) Channel {
	if _, ok := ParseWebPushToken(token); ok {
		return ChannelWebPush
	}
	return ChannelFCM
}

// Send pushes an alert for event to token.
// Failures are returned as dispatch errors and never retried.
func (d *Dispatcher) Send(ctx context.Context, token string, event model.Event) (Delivery, error) {
	channel := ChannelFor(token)
	sender := d.fcm
	if channel == ChannelWebPush {
		sender = d.webPush
	}
	if sender == nil {
		return Delivery{Channel: channel}, apperr.Dispatch("send "+string(channel), errors.New("channel is not configured"))
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return Delivery{Channel: channel}, apperr.Dispatch("send "+string(channel), fmt.Errorf("rate limiter: %w", err))
	}

	id, err := sender.Send(ctx, token, BuildMessage(d.title, event))
	if err != nil {
		return Delivery{Channel: channel}, apperr.Dispatch("send "+string(channel), err)
	}
	return Delivery{Channel: channel, MessageID: id}, nil
}

// String is used in log lines.
func (d Delivery) String() string {
	if d.MessageID == "" {
		return string(d.Channel)
	}
	return string(d.Channel) + " " + strconv.Quote(d.MessageID)
}
