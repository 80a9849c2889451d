package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chatbot-service/internal/model"
	"chatbot-service/internal/whatsapp"
	"chatbot-service/pkg/crypto"
	"chatbot-service/pkg/logger"
	"chatbot-service/prometheus"
)

// SendHandler serves the operator-triggered manual send endpoint.
type SendHandler struct {
	db     *gorm.DB
	sender MessageSender
	cipher *crypto.Cipher
}

// NewSendHandler creates the manual send handler.
func NewSendHandler(db *gorm.DB, sender MessageSender, cipher *crypto.Cipher) *SendHandler {
	return &SendHandler{db: db, sender: sender, cipher: cipher}
}

// Send delivers a one-off message. An optional user_id selects that
// tenant's stored credentials; otherwise the process defaults apply.
// Unlike the webhook paths, a provider failure here surfaces as a JSON
// error so the operator sees it.
func (h *SendHandler) Send(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		To      string `json:"to"`
		Message string `json:"message"`
		UserID  *uint  `json:"user_id,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.To == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing to or message"})
	}

	var creds whatsapp.Credentials
	if req.UserID != nil {
		var user model.User
		if err := h.db.First(&user, *req.UserID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Error("Failed to look up user", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			log.Warn("User not found for manual send, using default credentials",
				zap.Uint("user_id", *req.UserID))
		} else {
			creds = user.Credentials(h.cipher)
		}
	}

	messageID, err := h.sender.Send(c.Request().Context(), creds, req.To, req.Message)
	if err != nil {
		log.Error("Manual send failed", zap.String("to", req.To), zap.Error(err))
		var providerErr *whatsapp.ProviderError
		if errors.As(err, &providerErr) {
			prometheus.RecordSendError(string(providerErr.Provider))
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	log.Info("Manual send delivered", zap.String("to", req.To), zap.String("message_id", messageID))
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "message_id": messageID})
}
