package monitor

import (
	"fmt"
	"time"

	"github.com/hamed0406/sitenotifier/internal/domain"
	"github.com/hamed0406/sitenotifier/internal/status"
)

// Kind says why a notification is sent.
type Kind string

const (
	KindAlert    Kind = "alert"
	KindRecovery Kind = "recovery"
)

// Notification is one chat message produced by a transition.
type Notification struct {
	Kind     Kind
	Endpoint string
	Text     string
}

// Decision is the outcome of evaluating one probe against a site.
type Decision struct {
	Previous     domain.Status
	Status       domain.Status
	Reason       string
	Notification *Notification
	// Site is the updated record. It never shares memory with the input.
	Site domain.Site
}

// Engine decides notifications and state updates. It has no clock and does
// no I/O, so the same inputs always give the same Decision.
type Engine struct {
	DefaultWebhook string
}

// Evaluate applies one probe result, observed at now, to site.
//
// A failed site only notifies when it comes back; any other site only
// notifies when it goes down. failed_timestamp is set on the transition into
// failure, left as it is while the site stays down and cleared once it is
// active.
func (e Engine) Evaluate(site domain.Site, code int, now time.Time) Decision {
	previous := site.CurrentStatus
	current, reason := status.Classify(code)
	ts := now.Unix()

	d := Decision{Previous: previous, Status: current, Reason: reason}

	if previous.IsFailed() {
		if current == domain.StatusActive {
			failedAt := ts
			if site.FailedTimestamp != nil {
				failedAt = *site.FailedTimestamp
			}
			d.Notification = &Notification{
				Kind:     KindRecovery,
				Endpoint: e.endpoint(site),
				Text: fmt.Sprintf("*ONLINE - <%s|%s>* is now back online. Your site may have been down for %s",
					site.URL, site.Name, status.FormatDowntime(failedAt, ts)),
			}
		}
	} else if current != domain.StatusActive {
		d.Notification = &Notification{
			Kind:     KindAlert,
			Endpoint: e.endpoint(site),
			Text:     fmt.Sprintf("*ALERT - <%s|%s>* %s", site.URL, site.Name, reason),
		}
	}

	updated := site.Clone()
	updated.CurrentStatus = current
	switch {
	case current != domain.StatusFailed:
		updated.FailedTimestamp = nil
	case previous != current:
		updated.FailedTimestamp = &ts
	}
	d.Site = updated
	return d
}

func (e Engine) endpoint(site domain.Site) string {
	if hook, ok := site.Webhook(); ok {
		return hook
	}
	return e.DefaultWebhook
}
