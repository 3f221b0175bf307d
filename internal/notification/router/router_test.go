package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadhub/internal/notification/channel"
	"leadhub/internal/notification/repository"
	"leadhub/platform/logger"

	"github.com/google/uuid"
)

type fakeLog struct {
	events []repository.Event
}

func (f *fakeLog) InsertEvent(_ context.Context, e repository.Event) error {
	f.events = append(f.events, e)
	return nil
}

type fakeChannel struct {
	name        string
	provisioned bool
	sendErr     error
	sends       int
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Provisioned(context.Context, channel.Target) (bool, error) {
	return f.provisioned, nil
}

func (f *fakeChannel) Send(context.Context, channel.Target, channel.Message) (string, error) {
	f.sends++
	return "addr:" + f.name, f.sendErr
}

func newTestRouter(sink *fakeLog, channels ...channel.Channel) *Router {
	loc, _ := time.LoadLocation("Asia/Tokyo")
	var sms channel.Channel
	for _, ch := range channels {
		if ch.Name() == channel.NameSMS {
			sms = ch
		}
	}
	return New(sink, logger.New("development"), loc, channels, sms)
}

func fullProfile() repository.Profile {
	return repository.DefaultProfile(uuid.New(), uuid.New())
}

func TestDispatchFirstProvisionedChannelWins(t *testing.T) {
	sink := &fakeLog{}
	messaging := &fakeChannel{name: channel.NameMessaging, provisioned: true}
	push := &fakeChannel{name: channel.NameWebPush, provisioned: true}
	r := newTestRouter(sink, messaging, push)

	r.DispatchToMerchantUser(context.Background(), fullProfile(), channel.Message{AlertType: AlertAssignmentDelivered})

	if messaging.sends != 1 || push.sends != 0 {
		t.Errorf("sends = (%d, %d), want (1, 0)", messaging.sends, push.sends)
	}
	if len(sink.events) != 1 || sink.events[0].Outcome != OutcomeSuccess {
		t.Fatalf("events = %+v, want one success", sink.events)
	}
}

func TestDispatchFallsBackOnFailure(t *testing.T) {
	sink := &fakeLog{}
	messaging := &fakeChannel{name: channel.NameMessaging, provisioned: true, sendErr: errors.New("down")}
	push := &fakeChannel{name: channel.NameWebPush, provisioned: true}
	sms := &fakeChannel{name: channel.NameSMS, provisioned: true}
	r := newTestRouter(sink, messaging, push, sms)

	r.DispatchToMerchantUser(context.Background(), fullProfile(), channel.Message{AlertType: AlertAssignmentDelivered})

	if messaging.sends != 1 || push.sends != 1 || sms.sends != 0 {
		t.Errorf("sends = (%d, %d, %d), want (1, 1, 0)", messaging.sends, push.sends, sms.sends)
	}
	if len(sink.events) != 2 {
		t.Fatalf("got %d events, want 2 (one failure, one success)", len(sink.events))
	}
	if sink.events[0].Outcome != OutcomeFailure || sink.events[1].Outcome != OutcomeSuccess {
		t.Errorf("outcomes = %s, %s", sink.events[0].Outcome, sink.events[1].Outcome)
	}
}

func TestDispatchSkipsDisabledAndUnprovisionedSilently(t *testing.T) {
	sink := &fakeLog{}
	messaging := &fakeChannel{name: channel.NameMessaging, provisioned: true}
	push := &fakeChannel{name: channel.NameWebPush, provisioned: false}
	sms := &fakeChannel{name: channel.NameSMS, provisioned: true}
	r := newTestRouter(sink, messaging, push, sms)

	profile := fullProfile()
	profile.MessagingEnabled = false

	r.DispatchToMerchantUser(context.Background(), profile, channel.Message{AlertType: AlertAssignmentDelivered})

	if messaging.sends != 0 {
		t.Error("disabled channel must not be attempted")
	}
	if push.sends != 0 {
		t.Error("unprovisioned channel must not be attempted")
	}
	if sms.sends != 1 {
		t.Error("fallback should reach sms")
	}
	// Skips leave no attempt record.
	if len(sink.events) != 1 {
		t.Fatalf("got %d events, want 1", len(sink.events))
	}
}

func TestDispatchNoChannelAvailableLogsOneNoneEvent(t *testing.T) {
	sink := &fakeLog{}
	push := &fakeChannel{name: channel.NameWebPush, provisioned: false}
	r := newTestRouter(sink, push)

	r.DispatchToMerchantUser(context.Background(), fullProfile(), channel.Message{AlertType: AlertAssignmentDelivered})

	if len(sink.events) != 1 {
		t.Fatalf("got %d events, want 1", len(sink.events))
	}
	if sink.events[0].Channel != channel.NameNone || sink.events[0].Outcome != OutcomeNone {
		t.Errorf("event = %+v, want channel none", sink.events[0])
	}
}

func TestDispatchQuietHours(t *testing.T) {
	quietStart := 22 * 60
	quietEnd := 7 * 60

	cases := []struct {
		name      string
		clock     string
		alertType string
		wantSends int
	}{
		{"non-critical inside window", "23:30", AlertActionReminder, 0},
		{"non-critical inside wrapped morning", "06:15", AlertDailyDigest, 0},
		{"non-critical outside window", "12:00", AlertActionReminder, 1},
		{"critical inside window", "23:30", AlertAssignmentDelivered, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &fakeLog{}
			messaging := &fakeChannel{name: channel.NameMessaging, provisioned: true}
			r := newTestRouter(sink, messaging)

			clock, err := time.ParseInLocation("2006-01-02 15:04", "2025-06-10 "+tc.clock, r.loc)
			if err != nil {
				t.Fatal(err)
			}
			r.now = func() time.Time { return clock }

			profile := fullProfile()
			profile.QuietStartMinutes = &quietStart
			profile.QuietEndMinutes = &quietEnd

			r.DispatchToMerchantUser(context.Background(), profile, channel.Message{AlertType: tc.alertType})

			if messaging.sends != tc.wantSends {
				t.Errorf("sends = %d, want %d", messaging.sends, tc.wantSends)
			}
			// A quiet-hours skip leaves zero events, not a none row.
			if tc.wantSends == 0 && len(sink.events) != 0 {
				t.Errorf("quiet-hours skip logged %d events", len(sink.events))
			}
		})
	}
}

func TestDispatchOptOut(t *testing.T) {
	sink := &fakeLog{}
	messaging := &fakeChannel{name: channel.NameMessaging, provisioned: true}
	r := newTestRouter(sink, messaging)

	profile := fullProfile()
	profile.AlertOptouts = []string{AlertDailyDigest}

	r.DispatchToMerchantUser(context.Background(), profile, channel.Message{AlertType: AlertDailyDigest})

	if messaging.sends != 0 || len(sink.events) != 0 {
		t.Errorf("opted-out alert dispatched: sends=%d events=%d", messaging.sends, len(sink.events))
	}
}

func TestDispatchToCustomerSMSOnly(t *testing.T) {
	sink := &fakeLog{}
	sms := &fakeChannel{name: channel.NameSMS, provisioned: true}
	r := newTestRouter(sink, sms)

	r.DispatchToCustomer(context.Background(), "+819012345678", channel.Message{AlertType: AlertCancellationDecided})

	if sms.sends != 1 {
		t.Errorf("sms sends = %d, want 1", sms.sends)
	}
	if len(sink.events) != 1 || sink.events[0].Channel != channel.NameSMS {
		t.Fatalf("events = %+v", sink.events)
	}
}

func TestDispatchToCustomerNoGateway(t *testing.T) {
	sink := &fakeLog{}
	loc, _ := time.LoadLocation("Asia/Tokyo")
	r := New(sink, logger.New("development"), loc, nil, nil)

	r.DispatchToCustomer(context.Background(), "+819012345678", channel.Message{AlertType: AlertCancellationDecided})

	if len(sink.events) != 1 || sink.events[0].Outcome != OutcomeNone {
		t.Fatalf("events = %+v, want one none event", sink.events)
	}
}
