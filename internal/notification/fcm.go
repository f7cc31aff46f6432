package notification

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"quakealert-backend/config"
)

// FCMClient is the subset of the Firebase messaging client we use.
type FCMClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender delivers to FCM registration tokens, including iOS devices via APNs.
type FCMSender struct {
	client FCMClient
}

// NewFCMSender initializes a Firebase app from the configured credentials.
// Without a credentials file, application default credentials are used.
func NewFCMSender(ctx context.Context, cfg *config.FCMConfig) (*FCMSender, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	return &FCMSender{client: client}, nil
}

// NewFCMSenderWithClient wraps an existing messaging client.
func NewFCMSenderWithClient(client FCMClient) *FCMSender {
	return &FCMSender{client: client}
}

// Send delivers msg to token and returns the provider message id.
func (s *FCMSender) Send(ctx context.Context, token string, msg Message) (string, error) {
	id, err := s.client.Send(ctx, toFCMMessage(token, msg))
	if err != nil {
		if messaging.IsUnregistered(err) {
			return "", fmt.Errorf("fcm token is no longer registered: %w", err)
		}
		return "", fmt.Errorf("fcm send failed: %w", err)
	}
	return id, nil
}

func toFCMMessage(token string, msg Message) *messaging.Message {
	badge := msg.Badge
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound:            msg.Sound,
					Badge:            &badge,
					ContentAvailable: msg.ContentAvailable,
				},
			},
		},
		Data: msg.Data,
	}
}
