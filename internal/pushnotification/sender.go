package pushnotification

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/kazz187/volunteerdesk/internal/config"
	"github.com/kazz187/volunteerdesk/internal/pushsubscription"
)

type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type pushFunc func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

type Sender struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	push     pushFunc
}

func NewSender(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository) *Sender {
	return &Sender{
		vapidEnv: vapidEnv,
		repo:     repo,
		push:     webpush.SendNotificationWithContext,
	}
}

// SendToVolunteer delivers payload to every subscription of volunteerID and
// returns how many deliveries were accepted by the push service.
func (s *Sender) SendToVolunteer(ctx context.Context, volunteerID string, payload *NotificationPayload) int {
	if !s.vapidEnv.Enabled() {
		slog.DebugContext(ctx, "push notification: VAPID keys not configured, skipping")
		return 0
	}

	subs, err := s.repo.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to list subscriptions", "volunteer_id", volunteerID, "error", err)
		return 0
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to marshal payload", "error", err)
		return 0
	}

	delivered := 0
	for _, sub := range subs {
		if s.sendToSubscription(ctx, sub, data) {
			delivered++
		}
	}
	return delivered
}

func (s *Sender) sendToSubscription(ctx context.Context, sub *pushsubscription.Subscription, data []byte) bool {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}

	resp, err := s.push(ctx, data, wpSub, &webpush.Options{
		VAPIDPublicKey:  s.vapidEnv.PublicKey,
		VAPIDPrivateKey: s.vapidEnv.PrivateKey,
		Subscriber:      s.vapidEnv.Subject,
		TTL:             86400,
	})
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to send", "endpoint", sub.Endpoint, "error", err)
		return false
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		slog.InfoContext(ctx, "push notification: subscription expired, removing", "endpoint", sub.Endpoint)
		if err := s.repo.Delete(ctx, sub.ID); err != nil {
			slog.ErrorContext(ctx, "push notification: failed to delete expired subscription", "id", sub.ID, "error", err)
		}
		return false
	case resp.StatusCode >= 400:
		slog.WarnContext(ctx, "push notification: unexpected status", "endpoint", sub.Endpoint, "status", resp.StatusCode)
		return false
	}
	return true
}
