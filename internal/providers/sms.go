package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notification-orchestrator/internal/config"
	"notification-orchestrator/internal/models"
)

var (
	twilioBaseURL = "https://api.twilio.com"
	smsClient     = &http.Client{Timeout: 10 * time.Second}
)

// SendSMS texts a short escalation summary through the Twilio REST API.
func SendSMS(ctx context.Context, notif models.Notification, cfg config.Config) error {
	accountSID := cfg.SMS.AccountSID
	authToken := cfg.SMS.AuthToken
	fromNumber := cfg.SMS.FromNumber
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return fmt.Errorf("missing SMS configuration: AccountSID, AuthToken, or FromNumber is empty")
	}
	if cfg.SMS.To == "" {
		return fmt.Errorf("missing escalation phone number")
	}

	urlStr := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", twilioBaseURL, accountSID)
	msgData := url.Values{}
	msgData.Set("To", cfg.SMS.To)
	msgData.Set("From", fromNumber)
	msgData.Set("Body", SMSText(notif))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, strings.NewReader(msgData.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create SMS request for %s: %w", cfg.SMS.To, err)
	}
	req.SetBasicAuth(accountSID, authToken)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := smsClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", cfg.SMS.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("twilio API returned status %d for %s", resp.StatusCode, cfg.SMS.To)
	}
	return nil
}
