package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/internal/touchpoint"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

type fakeEmail struct {
	sent []string
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, toEmail, _, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, toEmail)
	return nil
}

type fakeSMS struct {
	sent []string
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, toNumber, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, toNumber)
	return nil
}

type messagingConfig struct {
	whitelist []string
}

func (c messagingConfig) GetChatBaseURL() string      { return "https://chat.tintworld.com" }
func (c messagingConfig) GetEmailWhitelist() []string { return c.whitelist }

func strPtr(s string) *string { return &s }

func action(email, phoneNum *string) touchpoint.Action {
	return touchpoint.Action{
		TenantID:      uuid.New(),
		LeadID:        uuid.New(),
		TouchPoint:    1,
		CustomerName:  strPtr("Ada Lovelace"),
		CustomerEmail: email,
		CustomerPhone: phoneNum,
	}
}

func TestDeliverySucceedsWhenAllChannelsDeliver(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	svc := NewService(email, sms, messagingConfig{whitelist: []string{"ada@example.com"}}, logger.New("test"))

	sent := svc.DeliverTouchPoint(context.Background(), action(strPtr("ada@example.com"), strPtr("+15550001")))

	if !sent {
		t.Fatal("expected delivery to succeed")
	}
	if len(email.sent) != 1 || len(sms.sent) != 1 {
		t.Fatalf("expected both channels used, email=%d sms=%d", len(email.sent), len(sms.sent))
	}
}

func TestDeliverySucceedsWhenOneChannelDelivers(t *testing.T) {
	email := &fakeEmail{err: errors.New("smtp down")}
	sms := &fakeSMS{}
	svc := NewService(email, sms, messagingConfig{whitelist: []string{"*"}}, logger.New("test"))

	sent := svc.DeliverTouchPoint(context.Background(), action(strPtr("ada@example.com"), strPtr("+15550001")))

	if !sent {
		t.Fatal("one working channel should count as delivered")
	}
}

func TestDeliveryFailsWhenAllChannelsFail(t *testing.T) {
	email := &fakeEmail{err: errors.New("smtp down")}
	sms := &fakeSMS{err: errors.New("twilio down")}
	svc := NewService(email, sms, messagingConfig{whitelist: []string{"*"}}, logger.New("test"))

	sent := svc.DeliverTouchPoint(context.Background(), action(strPtr("ada@example.com"), strPtr("+15550001")))

	if sent {
		t.Fatal("all channels failing must report failure so the sweep retries")
	}
}

func TestNoContactInfoCountsAsSentWithoutSending(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	svc := NewService(email, sms, messagingConfig{whitelist: []string{"*"}}, logger.New("test"))

	sent := svc.DeliverTouchPoint(context.Background(), action(nil, nil))

	if !sent {
		t.Fatal("unreachable lead must advance the schedule, not retry forever")
	}
	if len(email.sent) != 0 || len(sms.sent) != 0 {
		t.Fatal("no messages should go out for an unreachable lead")
	}
}

func TestWhitelistFailsClosed(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	svc := NewService(email, sms, messagingConfig{whitelist: nil}, logger.New("test"))

	sent := svc.DeliverTouchPoint(context.Background(), action(strPtr("real@example.com"), strPtr("+15550001")))

	if !sent {
		t.Fatal("skipped lead must still advance the schedule")
	}
	if len(email.sent) != 0 || len(sms.sent) != 0 {
		t.Fatal("empty whitelist must block all outbound, sms included")
	}
}

func TestWhitelistIsCaseInsensitive(t *testing.T) {
	email := &fakeEmail{}
	svc := NewService(email, nil, messagingConfig{whitelist: []string{"ada@example.com"}}, logger.New("test"))

	sent := svc.DeliverTouchPoint(context.Background(), action(strPtr("Ada@Example.COM"), nil))

	if !sent || len(email.sent) != 1 {
		t.Fatalf("expected case-insensitive whitelist match, sent=%v emails=%d", sent, len(email.sent))
	}
}

func TestContentVariesByTouchPoint(t *testing.T) {
	seen := make(map[string]bool)
	for _, tp := range []int{1, 2, 3, 4, 13} {
		subject := EmailSubject(tp)
		if subject == "" {
			t.Fatalf("empty subject for touch point %d", tp)
		}
		seen[subject] = true
	}

	if len(seen) != 4 {
		t.Fatalf("expected 3 distinct subjects plus the fallback, got %d", len(seen))
	}

	body := SMSBody(2, strPtr("Ada Lovelace"), "https://chat.tintworld.com/x")
	if !strings.Contains(body, "Ada") {
		t.Fatalf("sms body should greet by first name, got %q", body)
	}
	if !strings.Contains(body, "https://chat.tintworld.com/x") {
		t.Fatal("sms body should carry the chat link")
	}
}
