// Package notify pushes realtime messages about events to PubNub channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"meetup-api/models"

	pubnub "github.com/pubnub/go"
	"github.com/sony/gobreaker"
)

// Publisher sends a message to a channel.
type Publisher interface {
	Publish(channel string, message map[string]any) error
}

type pubnubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) Publisher {
	return &pubnubPublisher{pn: pn}
}

func (p *pubnubPublisher) Publish(channel string, message map[string]any) error {
	_, status, err := p.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		return err
	}
	if status.Error != nil {
		return status.Error
	}
	return nil
}

type Notifier struct {
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker
}

// NewNotifier returns a Notifier; a nil publisher disables notifications.
func NewNotifier(publisher Publisher, breaker *gobreaker.CircuitBreaker) *Notifier {
	return &Notifier{publisher: publisher, breaker: breaker}
}

func UserChannel(userID string) string {
	return fmt.Sprintf("user-%s", userID)
}

func EventChannel(eventID string) string {
	return fmt.Sprintf("event-%s", eventID)
}

func (n *Notifier) SessionStatusChanged(ctx context.Context, event *models.Event, session *models.Session) {
	n.send(ctx, UserChannel(session.ProposerID), map[string]any{
		"type":         "session_status",
		"event_slug":   event.Slug,
		"session_slug": session.Slug,
		"status":       string(session.Status),
	})
}

func (n *Notifier) AttendeeJoined(ctx context.Context, event *models.Event, username string, availablePlace int) {
	n.send(ctx, EventChannel(event.ID), map[string]any{
		"type":            "attendee_joined",
		"event_slug":      event.Slug,
		"username":        username,
		"available_place": availablePlace,
	})
}

func (n *Notifier) OrganizersChanged(ctx context.Context, event *models.Event, userID, action string) {
	n.send(ctx, UserChannel(userID), map[string]any{
		"type":       "organizer_" + action,
		"event_slug": event.Slug,
	})
}

func (n *Notifier) send(ctx context.Context, channel string, message map[string]any) {
	if n == nil || n.publisher == nil {
		return
	}
	if ctx.Err() != nil {
		return
	}

	if n.breaker == nil {
		if err := n.publisher.Publish(channel, message); err != nil {
			slog.Warn("Failed to publish notification", "channel", channel, "type", message["type"], "error", err)
		}
		return
	}

	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.publisher.Publish(channel, message)
	})
	if err != nil {
		slog.Warn("Failed to publish notification",
			"breaker", n.breaker.Name(), "channel", channel, "type", message["type"], "error", err)
	}
}
