package notification

import (
	"context"
	"fmt"

	userRepo "healthpulse/database/repository/user"
	"healthpulse/models"

	"firebase.google.com/go/v4/messaging"
)

// MessageSender is the part of the FCM client the pusher needs.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMPusher sends a mobile push to owners with no live connection.
type FCMPusher struct {
	users  userRepo.UserRepository
	sender MessageSender
}

func NewFCMPusher(users userRepo.UserRepository, sender MessageSender) *FCMPusher {
	return &FCMPusher{users: users, sender: sender}
}

// PushOffline looks up the owner's FCM token and sends the notification.
func (p *FCMPusher) PushOffline(ctx context.Context, n models.Notification) error {
	r, err := p.users.GetRecipient(ctx, n.OwnerID)
	if err != nil {
		return fmt.Errorf("PushOffline: could not find user %s: %w", n.OwnerID, err)
	}
	if r.FCMToken == "" {
		return fmt.Errorf("PushOffline: user %s has no FCM token", n.OwnerID)
	}

	msg := &messaging.Message{
		Token: r.FCMToken,
		Notification: &messaging.Notification{
			Title: "HealthPulse",
			Body:  n.Message,
		},
		Data: map[string]string{
			"type":           "notification",
			"notificationId": n.ID,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	if _, err := p.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("PushOffline: failed to send FCM message: %w", err)
	}
	return nil
}
