package push

import (
	"errors"
	"log/slog"

	"github.com/dukerupert/keepsake/internal/model"
	"github.com/dukerupert/keepsake/internal/store"
)

type sender interface {
	Send(sub *model.PushSubscription, payload Payload) error
}

// Notifier fans a notification out to all of a user's registered devices.
// Expired subscriptions are pruned as they are discovered.
type Notifier struct {
	sender sender
	subs   *store.PushStore
	logger *slog.Logger
}

func NewNotifier(svc *Service, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{
		sender: svc,
		subs:   subs,
		logger: logger,
	}
}

// NotifyUser sends payload to every subscription the user has. Delivery is
// best-effort: failures are logged and do not stop the remaining sends.
func (n *Notifier) NotifyUser(userID int64, payload Payload) {
	subs, err := n.subs.ListByUser(userID)
	if err != nil {
		n.logger.Error("list push subscriptions", "user_id", userID, "error", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		err := n.sender.Send(sub, payload)
		switch {
		case errors.Is(err, ErrExpired):
			if derr := n.subs.DeleteByEndpoint(sub.Endpoint); derr != nil {
				n.logger.Error("prune expired subscription", "endpoint", sub.Endpoint, "error", derr)
			} else {
				n.logger.Info("pruned expired subscription", "user_id", userID, "device", sub.DeviceName)
			}
		case err != nil:
			n.logger.Warn("push delivery failed", "user_id", userID, "device", sub.DeviceName, "error", err)
		}
	}
}
