// Package messaging delivers touch points to customers over email and SMS,
// behind an outbound whitelist that fails closed.
package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/sarmadashoor/LeadManager/internal/touchpoint"
	"github.com/sarmadashoor/LeadManager/platform/config"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

// EmailChannel sends one email.
type EmailChannel interface {
	SendEmail(ctx context.Context, toEmail, subject, text, html string) error
}

// SMSChannel sends one text message.
type SMSChannel interface {
	SendSMS(ctx context.Context, toNumber, body string) error
}

// Service is the touch point delivery handler. It gates every outbound
// message on the email whitelist and considers a touch point sent when at
// least one channel delivered.
type Service struct {
	email       EmailChannel
	sms         SMSChannel
	chatBaseURL string
	whitelist   []string
	log         *logger.Logger
}

// NewService creates the delivery service. Either channel may be nil, which
// disables it.
func NewService(email EmailChannel, sms SMSChannel, cfg config.MessagingConfig, log *logger.Logger) *Service {
	return &Service{
		email:       email,
		sms:         sms,
		chatBaseURL: strings.TrimRight(cfg.GetChatBaseURL(), "/"),
		whitelist:   cfg.GetEmailWhitelist(),
		log:         log,
	}
}

// isWhitelisted reports whether outbound messaging is allowed for the email.
// An empty whitelist allows nothing; "*" allows everything.
func (s *Service) isWhitelisted(email string) bool {
	if email == "" {
		return false
	}

	lowered := strings.ToLower(email)
	for _, allowed := range s.whitelist {
		if allowed == "*" || allowed == lowered {
			return true
		}
	}

	return false
}

// DeliverTouchPoint implements touchpoint.Handler. Returning true advances
// the lead's schedule, so the skip paths deliberately return true: a lead we
// will never message must not stay due forever.
func (s *Service) DeliverTouchPoint(ctx context.Context, action touchpoint.Action) bool {
	log := s.log.WithTenantID(action.TenantID.String())

	if action.CustomerEmail == nil && action.CustomerPhone == nil {
		log.Warn("abandoned outreach: lead has no contact info", "lead_id", action.LeadID, "touch_point", action.TouchPoint)
		return true
	}

	email := ""
	if action.CustomerEmail != nil {
		email = *action.CustomerEmail
	}

	if !s.isWhitelisted(email) {
		log.Info("email not whitelisted, skipping all outbound", "lead_id", action.LeadID, "touch_point", action.TouchPoint)
		return true
	}

	chatLink := fmt.Sprintf("%s/%s", s.chatBaseURL, action.LeadID)

	emailSent := false
	if s.email != nil && email != "" {
		subject := EmailSubject(action.TouchPoint)
		text, html := EmailBody(action.CustomerName, chatLink)
		if err := s.email.SendEmail(ctx, email, subject, text, html); err != nil {
			log.Error("touch point email failed", "lead_id", action.LeadID, "touch_point", action.TouchPoint, "error", err)
		} else {
			emailSent = true
		}
	}

	smsSent := false
	if s.sms != nil && action.CustomerPhone != nil && *action.CustomerPhone != "" {
		body := SMSBody(action.TouchPoint, action.CustomerName, chatLink)
		if err := s.sms.SendSMS(ctx, *action.CustomerPhone, body); err != nil {
			log.Error("touch point sms failed", "lead_id", action.LeadID, "touch_point", action.TouchPoint, "error", err)
		} else {
			smsSent = true
		}
	}

	sent := emailSent || smsSent
	if sent {
		log.Info("touch point delivered", "lead_id", action.LeadID, "touch_point", action.TouchPoint, "email", emailSent, "sms", smsSent)
	}

	return sent
}
