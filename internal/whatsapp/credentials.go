package whatsapp

// Provider identifies a WhatsApp transport provider.
type Provider string

const (
	ProviderTwilio Provider = "twilio"
	ProviderMeta   Provider = "meta"
)

// Credentials is the per-provider credential set used for an outbound
// send. A tenant's stored credentials or the process defaults both
// satisfy this interface.
type Credentials interface {
	Provider() Provider
	// Configured reports whether the credential set is complete enough
	// to attempt a send.
	Configured() bool
}

// TwilioCredentials authenticates against the Twilio messaging API.
type TwilioCredentials struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func (TwilioCredentials) Provider() Provider { return ProviderTwilio }

func (c TwilioCredentials) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

// MetaCredentials authenticates against the Meta WhatsApp Cloud API.
type MetaCredentials struct {
	AccessToken   string
	PhoneNumberID string
	APIVersion    string
}

func (MetaCredentials) Provider() Provider { return ProviderMeta }

func (c MetaCredentials) Configured() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}
