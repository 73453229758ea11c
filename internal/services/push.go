package services

import (
	"context"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// Pusher sends a push notification to a device
type Pusher interface {
	Push(ctx context.Context, deviceToken string, event Event) error
}

// APNsPusher delivers events through Apple Push Notification service
type APNsPusher struct {
	client *apns2.Client
	topic  string
}

// NewAPNsPusher creates a pusher using token-based (.p8 key) authentication
func NewAPNsPusher(keyPath, keyID, teamID, topic string, production bool) (*APNsPusher, error) {
	authKey, err := token.AuthKeyFromFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	})
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsPusher{client: client, topic: topic}, nil
}

// Push sends event as an alert to the device
func (p *APNsPusher) Push(ctx context.Context, deviceToken string, event Event) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     buildPushPayload(event),
	}

	res, err := p.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("apns rejected notification: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}

func buildPushPayload(event Event) *payload.Payload {
	return payload.NewPayload().
		AlertTitle(event.Title).
		AlertBody(event.Body).
		Sound("default").
		Custom("type", event.Type)
}
