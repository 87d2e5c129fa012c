package notification

import (
	"context"
	"errors"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned when no messaging credentials were supplied.
// Callers treat this like any other delivery failure: log it and fall back.
var ErrNotConfigured = errors.New("fcm: messaging client not configured")

// FCMSender sends push notifications through Firebase Cloud Messaging
type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender creates an FCM sender from a service account credentials
// file. Missing or broken credentials do not block server startup; the
// sender is returned in a disabled state and every Send reports
// ErrNotConfigured.
func NewFCMSender(credentialsFile string) *FCMSender {
	if credentialsFile == "" {
		log.Println("[fcm] credentials not provided, push channel disabled")
		return &FCMSender{}
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("[fcm] failed to initialize Firebase app: %v (push channel disabled)", err)
		return &FCMSender{}
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("[fcm] failed to get messaging client: %v (push channel disabled)", err)
		return &FCMSender{}
	}

	log.Println("[fcm] Firebase messaging initialized")
	return &FCMSender{client: client}
}

// Enabled reports whether the push channel can actually deliver
func (s *FCMSender) Enabled() bool {
	return s != nil && s.client != nil
}

// Send delivers one notification to one device token and returns the FCM
// message ID
func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "close_notifications",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
		Webpush: &messaging.WebpushConfig{
			FCMOptions: &messaging.WebpushFCMOptions{
				Link: data["url"],
			},
		},
	}

	messageID, err := s.client.Send(ctx, message)
	if err != nil {
		return "", fmt.Errorf("fcm send failed: %w", err)
	}
	return messageID, nil
}
