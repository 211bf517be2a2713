package notify

import (
	"context"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// EventOpportunity is the event type under which opportunity alerts are
// dispatched; operators can filter on it in the notifier config.
const EventOpportunity = "opportunity"

// AlertNotifier adapts the multi-channel Notifier to the scan driver's
// per-opportunity hook.
type AlertNotifier struct {
	notifier *Notifier
}

// NewAlertNotifier creates an AlertNotifier over the given Notifier.
func NewAlertNotifier(n *Notifier) *AlertNotifier {
	return &AlertNotifier{notifier: n}
}

// NotifyOpportunity formats the opportunity and dispatches it to every
// configured channel.
func (a *AlertNotifier) NotifyOpportunity(ctx context.Context, opp domain.Opportunity) error {
	title, message := FormatOpportunity(opp)
	return a.notifier.Notify(ctx, EventOpportunity, title, message)
}
