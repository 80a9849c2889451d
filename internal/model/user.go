package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"chatbot-service/internal/whatsapp"
	"chatbot-service/pkg/crypto"
)

// User represents a tenant account. Provider credentials are stored
// encrypted; the plaintext only exists in memory around an outbound
// send.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(80);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(200);not null"`
	PhoneNumber  string    `json:"phone_number,omitempty" gorm:"type:varchar(20);index"`
	CreatedAt    time.Time `json:"created_at"`

	WhatsAppProvider string `json:"whatsapp_provider" gorm:"type:varchar(20);default:meta"`

	MetaAccessTokenEncrypted   string `json:"-" gorm:"type:text"`
	MetaPhoneNumberIDEncrypted string `json:"-" gorm:"type:text"`
	MetaAPIVersion             string `json:"-" gorm:"type:varchar(10);default:v21.0"`

	TwilioAccountSIDEncrypted string `json:"-" gorm:"type:text"`
	TwilioAuthTokenEncrypted  string `json:"-" gorm:"type:text"`
	TwilioWhatsAppNumber      string `json:"-" gorm:"type:varchar(30)"`

	Bots []Bot `json:"bots,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// SetPassword hashes and stores the password
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetMetaCredentials encrypts and stores Cloud API credentials.
func (u *User) SetMetaCredentials(cipher *crypto.Cipher, accessToken, phoneNumberID, apiVersion string) error {
	encryptedToken, err := cipher.Encrypt(accessToken)
	if err != nil {
		return err
	}
	encryptedID, err := cipher.Encrypt(phoneNumberID)
	if err != nil {
		return err
	}

	u.MetaAccessTokenEncrypted = encryptedToken
	u.MetaPhoneNumberIDEncrypted = encryptedID
	if apiVersion == "" {
		apiVersion = "v21.0"
	}
	u.MetaAPIVersion = apiVersion
	return nil
}

// MetaCredentials decrypts the stored Cloud API credentials. A value
// that fails to decrypt comes back empty, which the caller sees as an
// unconfigured credential set.
func (u *User) MetaCredentials(cipher *crypto.Cipher) whatsapp.MetaCredentials {
	apiVersion := u.MetaAPIVersion
	if apiVersion == "" {
		apiVersion = "v21.0"
	}
	return whatsapp.MetaCredentials{
		AccessToken:   cipher.Decrypt(u.MetaAccessTokenEncrypted),
		PhoneNumberID: cipher.Decrypt(u.MetaPhoneNumberIDEncrypted),
		APIVersion:    apiVersion,
	}
}

// SetTwilioCredentials encrypts and stores Twilio credentials.
func (u *User) SetTwilioCredentials(cipher *crypto.Cipher, accountSID, authToken, whatsappNumber string) error {
	encryptedSID, err := cipher.Encrypt(accountSID)
	if err != nil {
		return err
	}
	encryptedToken, err := cipher.Encrypt(authToken)
	if err != nil {
		return err
	}

	u.TwilioAccountSIDEncrypted = encryptedSID
	u.TwilioAuthTokenEncrypted = encryptedToken
	u.TwilioWhatsAppNumber = whatsappNumber
	return nil
}

// TwilioCredentials decrypts the stored Twilio credentials.
func (u *User) TwilioCredentials(cipher *crypto.Cipher) whatsapp.TwilioCredentials {
	return whatsapp.TwilioCredentials{
		AccountSID: cipher.Decrypt(u.TwilioAccountSIDEncrypted),
		AuthToken:  cipher.Decrypt(u.TwilioAuthTokenEncrypted),
		FromNumber: u.TwilioWhatsAppNumber,
	}
}

// Credentials returns the tenant's credentials for its selected
// provider, or nil when the stored set is incomplete so that the
// caller falls back to the process defaults.
func (u *User) Credentials(cipher *crypto.Cipher) whatsapp.Credentials {
	switch u.WhatsAppProvider {
	case string(whatsapp.ProviderMeta):
		if creds := u.MetaCredentials(cipher); creds.Configured() {
			return creds
		}
	case string(whatsapp.ProviderTwilio):
		if creds := u.TwilioCredentials(cipher); creds.Configured() {
			return creds
		}
	}
	return nil
}
