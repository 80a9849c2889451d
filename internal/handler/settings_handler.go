package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chatbot-service/internal/model"
	"chatbot-service/internal/whatsapp"
	"chatbot-service/pkg/crypto"
	"chatbot-service/pkg/logger"
)

// SettingsHandler handles tenant profile and provider credential
// management.
type SettingsHandler struct {
	db     *gorm.DB
	cipher *crypto.Cipher
}

// NewSettingsHandler creates the settings handler.
func NewSettingsHandler(db *gorm.DB, cipher *crypto.Cipher) *SettingsHandler {
	return &SettingsHandler{db: db, cipher: cipher}
}

func (h *SettingsHandler) currentUser(c echo.Context) (*model.User, error) {
	userClaims, ok := claims(c)
	if !ok {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var user model.User
	if err := h.db.First(&user, userClaims.UserID).Error; err != nil {
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return &user, nil
}

// GetSettings reports the tenant's provider selection and which
// credential sets are configured. Plaintext credentials are never
// returned.
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	user, errResp := h.currentUser(c)
	if user == nil {
		return errResp
	}

	return c.JSON(http.StatusOK, echo.Map{
		"username":          user.Username,
		"phone_number":      user.PhoneNumber,
		"whatsapp_provider": user.WhatsAppProvider,
		"meta_configured":   user.MetaCredentials(h.cipher).Configured(),
		"twilio_configured": user.TwilioCredentials(h.cipher).Configured(),
	})
}

// UpdateProfile updates the tenant's registered phone number, which
// the cloud webhook uses to recognize the tenant's conversations.
func (h *SettingsHandler) UpdateProfile(c echo.Context) error {
	log := logger.FromEcho(c)

	user, errResp := h.currentUser(c)
	if user == nil {
		return errResp
	}

	var req struct {
		PhoneNumber string `json:"phone_number"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	user.PhoneNumber = req.PhoneNumber
	if err := h.db.Save(user).Error; err != nil {
		log.Error("Failed to update profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile update failed"})
	}

	log.Info("Profile updated", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully"})
}

// UpdateCredentials stores provider credentials encrypted at rest and
// selects the tenant's active provider.
func (h *SettingsHandler) UpdateCredentials(c echo.Context) error {
	log := logger.FromEcho(c)

	user, errResp := h.currentUser(c)
	if user == nil {
		return errResp
	}

	var req struct {
		Provider string `json:"provider"`

		MetaAccessToken   string `json:"meta_access_token"`
		MetaPhoneNumberID string `json:"meta_phone_number_id"`
		MetaAPIVersion    string `json:"meta_api_version"`

		TwilioAccountSID     string `json:"twilio_account_sid"`
		TwilioAuthToken      string `json:"twilio_auth_token"`
		TwilioWhatsAppNumber string `json:"twilio_whatsapp_number"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	switch req.Provider {
	case string(whatsapp.ProviderMeta):
		if err := user.SetMetaCredentials(h.cipher, req.MetaAccessToken, req.MetaPhoneNumberID, req.MetaAPIVersion); err != nil {
			log.Error("Failed to encrypt credentials", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "credential update failed"})
		}
	case string(whatsapp.ProviderTwilio):
		if err := user.SetTwilioCredentials(h.cipher, req.TwilioAccountSID, req.TwilioAuthToken, req.TwilioWhatsAppNumber); err != nil {
			log.Error("Failed to encrypt credentials", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "credential update failed"})
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provider must be meta or twilio"})
	}

	user.WhatsAppProvider = req.Provider
	if err := h.db.Save(user).Error; err != nil {
		log.Error("Failed to store credentials", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "credential update failed"})
	}

	log.Info("Provider credentials updated",
		zap.Uint("user_id", user.ID),
		zap.String("provider", req.Provider))
	return c.JSON(http.StatusOK, echo.Map{"message": "Credentials updated successfully"})
}
