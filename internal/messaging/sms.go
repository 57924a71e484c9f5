package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sarmadashoor/LeadManager/platform/config"
	"github.com/sarmadashoor/LeadManager/platform/logger"
	"github.com/sarmadashoor/LeadManager/platform/phone"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSMSChannel delivers touch point texts through the Twilio REST API.
type TwilioSMSChannel struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	client     *http.Client
	log        *logger.Logger
}

// NewTwilioSMSChannel creates an SMS channel from configuration.
func NewTwilioSMSChannel(cfg config.SMSConfig, log *logger.Logger) *TwilioSMSChannel {
	return &TwilioSMSChannel{
		accountSID: cfg.GetTwilioAccountSID(),
		authToken:  cfg.GetTwilioAuthToken(),
		fromNumber: cfg.GetTwilioFromNumber(),
		baseURL:    twilioAPIBase,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type twilioMessageResponse struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message"`
}

// SendSMS delivers one text message. The destination is normalized to E.164
// before hitting Twilio.
func (t *TwilioSMSChannel) SendSMS(ctx context.Context, toNumber, body string) error {
	normalized := phone.NormalizeE164(toNumber)

	form := url.Values{}
	form.Set("To", normalized)
	form.Set("From", t.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, t.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}

	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("twilio api error: %d", resp.StatusCode)
	}

	var msg twilioMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return fmt.Errorf("decode twilio response: %w", err)
	}

	if msg.Status == "failed" || msg.Status == "undelivered" {
		if msg.ErrorMessage != nil {
			return fmt.Errorf("twilio delivery failed: %s", *msg.ErrorMessage)
		}
		return fmt.Errorf("twilio delivery failed: status %s", msg.Status)
	}

	t.log.Debug("sms queued", "sid", msg.SID, "status", msg.Status)

	return nil
}
