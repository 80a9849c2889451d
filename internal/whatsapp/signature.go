package whatsapp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// ValidateTwilioSignature checks the X-Twilio-Signature header of an
// inbound webhook call. The expected value is HMAC-SHA1 over the full
// request URL followed by the POST parameters sorted by name, keyed
// with the account's auth token.
//
// When no auth token is configured validation passes unconditionally.
// That mirrors a development setup without credentials; it is a
// documented risk, not an oversight.
func ValidateTwilioSignature(authToken, requestURL string, form url.Values, signature string) bool {
	if authToken == "" {
		return true
	}

	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(requestURL)
	for _, k := range keys {
		for _, v := range form[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// ValidateMetaSignature checks the X-Hub-Signature-256 header of an
// inbound Cloud API webhook call against HMAC-SHA256 over the raw
// request body. A missing app secret or a missing header rejects the
// request.
func ValidateMetaSignature(appSecret string, body []byte, signature string) bool {
	if signature == "" || appSecret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
