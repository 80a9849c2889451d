package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chatbot-service/pkg/config"
)

// Sender delivers outbound messages through the configured provider.
// It is built once at startup from the process-default credentials;
// tenant credentials passed to Send override the defaults per call.
type Sender struct {
	defaultProvider Provider
	defaultTwilio   TwilioCredentials
	defaultMeta     MetaCredentials

	httpClient *http.Client

	twilioBaseURL string
	metaBaseURL   string
}

// NewSender creates a sender with the process-default credentials from
// configuration.
func NewSender(cfg *config.WhatsAppConfig) *Sender {
	return &Sender{
		defaultProvider: Provider(cfg.Provider),
		defaultTwilio: TwilioCredentials{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			FromNumber: cfg.Twilio.WhatsAppNumber,
		},
		defaultMeta: MetaCredentials{
			AccessToken:   cfg.Meta.AccessToken,
			PhoneNumberID: cfg.Meta.PhoneNumberID,
			APIVersion:    cfg.Meta.APIVersion,
		},
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		twilioBaseURL: "https://api.twilio.com",
		metaBaseURL:   "https://graph.facebook.com",
	}
}

// DefaultCredentials returns the process-default credentials for the
// configured provider.
func (s *Sender) DefaultCredentials() Credentials {
	if s.defaultProvider == ProviderMeta {
		return s.defaultMeta
	}
	return s.defaultTwilio
}

// Send delivers a message to the destination address and returns the
// provider's message ID. When creds is nil the process defaults are
// used. Incomplete credentials fail with ErrNotConfigured before any
// network I/O; transport and API failures are wrapped in ProviderError.
func (s *Sender) Send(ctx context.Context, creds Credentials, to, body string) (string, error) {
	if creds == nil {
		creds = s.DefaultCredentials()
	}

	if !creds.Configured() {
		return "", ErrNotConfigured
	}

	switch c := creds.(type) {
	case TwilioCredentials:
		return s.sendTwilio(ctx, c, to, body)
	case MetaCredentials:
		return s.sendMeta(ctx, c, to, body)
	default:
		return "", fmt.Errorf("unknown provider: %s", creds.Provider())
	}
}

// sendTwilio posts to the Twilio Messages endpoint with basic auth.
func (s *Sender) sendTwilio(ctx context.Context, creds TwilioCredentials, to, body string) (string, error) {
	if !strings.HasPrefix(to, "whatsapp:") {
		to = "whatsapp:" + to
	}

	data := url.Values{}
	data.Set("From", creds.FromNumber)
	data.Set("To", to)
	data.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.twilioBaseURL, creds.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", &ProviderError{Provider: ProviderTwilio, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(creds.AccountSID, creds.AuthToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: ProviderTwilio, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: ProviderTwilio, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{
			Provider: ProviderTwilio,
			Err:      fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var message struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(respBody, &message); err != nil {
		return "", &ProviderError{Provider: ProviderTwilio, Err: err}
	}

	return message.SID, nil
}

// sendMeta posts to the Cloud API messages endpoint with a bearer token.
func (s *Sender) sendMeta(ctx context.Context, creds MetaCredentials, to, body string) (string, error) {
	to = strings.NewReplacer("whatsapp:", "", "+", "", "-", "").Replace(to)

	apiVersion := creds.APIVersion
	if apiVersion == "" {
		apiVersion = "v21.0"
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text": map[string]string{
			"body": body,
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", &ProviderError{Provider: ProviderMeta, Err: err}
	}

	endpoint := fmt.Sprintf("%s/%s/%s/messages", s.metaBaseURL, apiVersion, creds.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", &ProviderError{Provider: ProviderMeta, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: ProviderMeta, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: ProviderMeta, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{
			Provider: ProviderMeta,
			Err:      fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var result struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &ProviderError{Provider: ProviderMeta, Err: err}
	}

	if len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}
