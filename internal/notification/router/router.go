// Package router implements ordered channel fallback with preference and
// quiet-hours filtering, and the immutable delivery log.
package router

import (
	"context"
	"time"

	"leadhub/internal/notification/channel"
	"leadhub/internal/notification/repository"
	"leadhub/platform/logger"

	"github.com/google/uuid"
)

// Alert types routed through the notification system.
const (
	AlertAssignmentDelivered = "assignment_delivered"
	AlertCancellationDecided = "cancellation_decided"
	AlertExtensionDecided    = "extension_decided"
	AlertDailyDigest         = "daily_digest"
	AlertActionReminder      = "action_reminder"
)

// critical alerts ignore quiet hours; non-critical ones are skipped
// entirely inside the window.
var critical = map[string]bool{
	AlertAssignmentDelivered: true,
	AlertCancellationDecided: true,
	AlertExtensionDecided:    true,
	AlertDailyDigest:         false,
	AlertActionReminder:      false,
}

// Delivery log outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	// OutcomeNone is logged once when every channel was disabled or
	// unprovisioned.
	OutcomeNone = "none"
)

// EventLog is the append-only delivery log.
type EventLog interface {
	InsertEvent(ctx context.Context, e repository.Event) error
}

type Router struct {
	// merchantChannels in fallback order: messaging, webpush, sms.
	merchantChannels []channel.Channel
	// customerSMS is the only customer channel. No fallback.
	customerSMS channel.Channel
	events      EventLog
	log         *logger.Logger
	loc         *time.Location
	now         func() time.Time
}

func New(events EventLog, log *logger.Logger, loc *time.Location, merchantChannels []channel.Channel, customerSMS channel.Channel) *Router {
	return &Router{
		merchantChannels: merchantChannels,
		customerSMS:      customerSMS,
		events:           events,
		log:              log,
		loc:              loc,
		now:              time.Now,
	}
}

// DispatchToMerchantUser walks the fallback order for one merchant user.
// The first enabled, provisioned channel that delivers wins. Disabled and
// unprovisioned channels are skipped without an attempt record; every real
// attempt logs exactly one event. Dispatch never returns a delivery error;
// an undeliverable alert is a logged outcome, not a caller failure.
func (r *Router) DispatchToMerchantUser(ctx context.Context, profile repository.Profile, msg channel.Message) {
	if profile.OptedOut(msg.AlertType) {
		return
	}
	if !critical[msg.AlertType] && r.inQuietHours(profile) {
		return
	}

	target := channel.Target{
		UserID:     profile.UserID,
		MerchantID: profile.MerchantID,
		Phone:      profile.Phone,
	}

	attempted := false
	for _, ch := range r.merchantChannels {
		if !enabledInProfile(profile, ch.Name()) {
			continue
		}
		provisioned, err := ch.Provisioned(ctx, target)
		if err != nil {
			r.log.DatabaseError("channel provisioning check", err)
			continue
		}
		if !provisioned {
			continue
		}

		attempted = true
		address, sendErr := ch.Send(ctx, target, msg)
		r.logAttempt(ctx, ch.Name(), &profile.UserID, address, &profile.MerchantID, msg, sendErr)
		if sendErr == nil {
			return
		}
		r.log.IntegrationError(ch.Name(), "notification send", sendErr)
	}

	if !attempted {
		r.logAttempt(ctx, channel.NameNone, &profile.UserID, "", &profile.MerchantID, msg, nil)
		return
	}
	// Attempts were made and all failed; each already has its log row.
}

// DispatchToCustomer sends over SMS only. Customers have no profile, no
// quiet hours and no fallback.
func (r *Router) DispatchToCustomer(ctx context.Context, phoneNumber string, msg channel.Message) {
	target := channel.Target{Phone: phoneNumber}

	if r.customerSMS == nil {
		r.logAttempt(ctx, channel.NameNone, nil, phoneNumber, nil, msg, nil)
		return
	}
	provisioned, err := r.customerSMS.Provisioned(ctx, target)
	if err == nil && !provisioned {
		r.logAttempt(ctx, channel.NameNone, nil, phoneNumber, nil, msg, nil)
		return
	}

	address, sendErr := r.customerSMS.Send(ctx, target, msg)
	r.logAttempt(ctx, r.customerSMS.Name(), nil, address, nil, msg, sendErr)
	if sendErr != nil {
		r.log.IntegrationError(r.customerSMS.Name(), "customer notification send", sendErr)
	}
}

func (r *Router) logAttempt(ctx context.Context, channelName string, userID *uuid.UUID, address string, merchantID *uuid.UUID, msg channel.Message, sendErr error) {
	e := repository.Event{
		Channel:       channelName,
		TargetUserID:  userID,
		TargetAddress: address,
		MerchantID:    merchantID,
		LeadID:        msg.LeadID,
		AlertType:     msg.AlertType,
		Outcome:       OutcomeSuccess,
	}
	if channelName == channel.NameNone {
		e.Outcome = OutcomeNone
	} else if sendErr != nil {
		e.Outcome = OutcomeFailure
		e.FailureReason = sendErr.Error()
	}

	if err := r.events.InsertEvent(ctx, e); err != nil {
		r.log.DatabaseError("insert notification event", err)
	}
}

// inQuietHours evaluates the profile's quiet window against local wall
// time. The window may wrap midnight; an unset or empty window never
// matches.
func (r *Router) inQuietHours(p repository.Profile) bool {
	if p.QuietStartMinutes == nil || p.QuietEndMinutes == nil {
		return false
	}
	start, end := *p.QuietStartMinutes, *p.QuietEndMinutes
	if start == end {
		return false
	}

	now := r.now().In(r.loc)
	minutes := now.Hour()*60 + now.Minute()

	if start < end {
		return minutes >= start && minutes < end
	}
	// Wraps midnight, e.g. 22:00 to 07:00.
	return minutes >= start || minutes < end
}

func enabledInProfile(p repository.Profile, channelName string) bool {
	switch channelName {
	case channel.NameMessaging:
		return p.MessagingEnabled
	case channel.NameWebPush:
		return p.PushEnabled
	case channel.NameSMS:
		return p.SMSEnabled
	}
	return false
}
