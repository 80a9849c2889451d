package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot-service/internal/model"
	"chatbot-service/internal/whatsapp"
	"chatbot-service/pkg/jwtutil"
)

func authedRequest(method, path, body string, userID uint, username string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", &jwtutil.UserClaims{Username: username, UserID: userID})
	return c, rec
}

func TestUpdateCredentialsStoredEncrypted(t *testing.T) {
	db := openTestDB(t)
	cipher := testCipher(t)
	h := NewSettingsHandler(db, cipher)

	user := seedTenant(t, db, "alice", "")

	c, rec := authedRequest(http.MethodPut, "/settings/credentials",
		`{"provider":"meta","meta_access_token":"EAAtoken","meta_phone_number_id":"1055512345","meta_api_version":"v21.0"}`,
		user.ID, user.Username)
	require.NoError(t, h.UpdateCredentials(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)

	// The columns hold ciphertext, not the submitted values.
	assert.NotEmpty(t, stored.MetaAccessTokenEncrypted)
	assert.NotContains(t, stored.MetaAccessTokenEncrypted, "EAAtoken")
	assert.NotContains(t, stored.MetaPhoneNumberIDEncrypted, "1055512345")

	creds := stored.MetaCredentials(cipher)
	assert.Equal(t, "EAAtoken", creds.AccessToken)
	assert.Equal(t, "1055512345", creds.PhoneNumberID)
	assert.Equal(t, "v21.0", creds.APIVersion)
	assert.True(t, creds.Configured())
	assert.Equal(t, string(whatsapp.ProviderMeta), stored.WhatsAppProvider)
}

func TestUpdateCredentialsSwitchesProvider(t *testing.T) {
	db := openTestDB(t)
	cipher := testCipher(t)
	h := NewSettingsHandler(db, cipher)

	user := seedTenant(t, db, "alice", "")

	c, rec := authedRequest(http.MethodPut, "/settings/credentials",
		`{"provider":"twilio","twilio_account_sid":"AC1","twilio_auth_token":"tok","twilio_whatsapp_number":"whatsapp:+14155238886"}`,
		user.ID, user.Username)
	require.NoError(t, h.UpdateCredentials(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, string(whatsapp.ProviderTwilio), stored.WhatsAppProvider)

	creds := stored.TwilioCredentials(cipher)
	assert.Equal(t, "AC1", creds.AccountSID)
	assert.Equal(t, "tok", creds.AuthToken)
	assert.Equal(t, "whatsapp:+14155238886", creds.FromNumber)
}

func TestUpdateCredentialsRejectsUnknownProvider(t *testing.T) {
	db := openTestDB(t)
	h := NewSettingsHandler(db, testCipher(t))

	user := seedTenant(t, db, "alice", "")

	c, rec := authedRequest(http.MethodPut, "/settings/credentials", `{"provider":"smoke-signals"}`, user.ID, user.Username)
	require.NoError(t, h.UpdateCredentials(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSettingsNeverReturnsPlaintext(t *testing.T) {
	db := openTestDB(t)
	cipher := testCipher(t)
	h := NewSettingsHandler(db, cipher)

	user := seedTenant(t, db, "alice", "whatsapp:+15550001111")
	require.NoError(t, user.SetMetaCredentials(cipher, "EAAtoken", "1055512345", "v21.0"))
	require.NoError(t, db.Save(user).Error)

	c, rec := authedRequest(http.MethodGet, "/settings", "", user.ID, user.Username)
	require.NoError(t, h.GetSettings(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"meta_configured":true`)
	assert.Contains(t, body, `"twilio_configured":false`)
	assert.NotContains(t, body, "EAAtoken")
	assert.NotContains(t, body, "1055512345")
}

func TestUpdateProfile(t *testing.T) {
	db := openTestDB(t)
	h := NewSettingsHandler(db, testCipher(t))

	user := seedTenant(t, db, "alice", "")

	c, rec := authedRequest(http.MethodPut, "/profile", `{"phone_number":"whatsapp:+15550001111"}`, user.ID, user.Username)
	require.NoError(t, h.UpdateProfile(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, "whatsapp:+15550001111", stored.PhoneNumber)
}
