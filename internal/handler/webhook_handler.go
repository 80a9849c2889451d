package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chatbot-service/internal/bot"
	"chatbot-service/internal/model"
	"chatbot-service/internal/whatsapp"
	"chatbot-service/pkg/config"
	"chatbot-service/pkg/crypto"
	"chatbot-service/pkg/logger"
	"chatbot-service/prometheus"
)

// Onboarding texts for senders the cloud webhook cannot route.
const (
	onboardingMessage  = "Welcome! Please register on our platform to use this bot service."
	noActiveBotMessage = "You don't have an active bot. Please create and activate a bot on the dashboard."
)

// MessageSender delivers an outbound message and returns the
// provider's message ID.
type MessageSender interface {
	Send(ctx context.Context, creds whatsapp.Credentials, to, body string) (string, error)
}

// WebhookHandler handles inbound provider webhooks: it verifies the
// request signature, resolves the owning tenant and bot, records the
// exchange and replies through the outbound provider.
type WebhookHandler struct {
	db       *gorm.DB
	cfg      *config.WhatsAppConfig
	sender   MessageSender
	cipher   *crypto.Cipher
	resolver *bot.Resolver
}

// NewWebhookHandler wires the webhook orchestrator.
func NewWebhookHandler(db *gorm.DB, cfg *config.WhatsAppConfig, sender MessageSender, cipher *crypto.Cipher) *WebhookHandler {
	return &WebhookHandler{
		db:       db,
		cfg:      cfg,
		sender:   sender,
		cipher:   cipher,
		resolver: bot.NewResolver(db, cfg.RoutingMode),
	}
}

// TelephonyWebhook handles an inbound Twilio message. The reply goes
// back synchronously in the TwiML response body.
func (h *WebhookHandler) TelephonyWebhook(c echo.Context) error {
	log := logger.FromEcho(c)

	if err := c.Request().ParseForm(); err != nil {
		prometheus.RecordWebhook("twilio", "rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed payload"})
	}
	form := c.Request().PostForm

	requestURL := c.Scheme() + "://" + c.Request().Host + c.Request().RequestURI
	signature := c.Request().Header.Get("X-Twilio-Signature")
	if !whatsapp.ValidateTwilioSignature(h.cfg.Twilio.AuthToken, requestURL, form, signature) {
		log.Warn("Twilio signature validation failed", zap.String("url", requestURL))
		prometheus.RecordSignatureFailure("twilio")
		prometheus.RecordWebhook("twilio", "rejected")
		return c.String(http.StatusForbidden, "Unauthorized")
	}

	incoming := strings.TrimSpace(c.FormValue("Body"))
	from := c.FormValue("From")

	resolved, err := h.resolver.Resolve(from)
	if err != nil {
		if errors.Is(err, bot.ErrNoActiveBot) || errors.Is(err, bot.ErrNoTenant) {
			log.Warn("No bot available for inbound Twilio message", zap.String("from", from))
			prometheus.RecordWebhook("twilio", "no_bot")
			return h.twiml(c, "No active bot found. Please contact administrator.")
		}
		log.Error("Bot resolution failed", zap.Error(err))
		prometheus.RecordWebhook("twilio", "error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	reply, err := bot.Exchange(h.db, &resolved.Bot, from, incoming)
	if err != nil {
		log.Error("Failed to record message exchange", zap.Error(err))
		prometheus.RecordWebhook("twilio", "error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	log.Info("Handled inbound Twilio message",
		zap.Uint("bot_id", resolved.Bot.ID),
		zap.String("from", from))
	prometheus.RecordMessage(model.DirectionIncoming, "twilio")
	prometheus.RecordMessage(model.DirectionOutgoing, "twilio")
	prometheus.RecordWebhook("twilio", "handled")

	return h.twiml(c, reply)
}

// CloudWebhookVerify handles the Cloud API subscription handshake.
func (h *WebhookHandler) CloudWebhookVerify(c echo.Context) error {
	log := logger.FromEcho(c)

	if h.cfg.Meta.VerifyToken == "" {
		log.Error("META_VERIFY_TOKEN not configured")
		return c.String(http.StatusInternalServerError, "Server configuration error")
	}

	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == h.cfg.Meta.VerifyToken {
		return c.String(http.StatusOK, challenge)
	}
	return c.String(http.StatusForbidden, "Forbidden")
}

// cloudPayload is the subset of the Cloud API webhook event the bot
// cares about.
type cloudPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// CloudWebhook handles an inbound Cloud API message. After the
// signature and payload checks pass, every outcome is acknowledged
// with 200 so the platform does not retry and duplicate the inbound
// log rows; internal failures come back as a 200 with an error body.
func (h *WebhookHandler) CloudWebhook(c echo.Context) error {
	log := logger.FromEcho(c)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		prometheus.RecordWebhook("meta", "rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}

	signature := c.Request().Header.Get("X-Hub-Signature-256")
	if !whatsapp.ValidateMetaSignature(h.cfg.Meta.AppSecret, body, signature) {
		log.Warn("Meta signature validation failed")
		prometheus.RecordSignatureFailure("meta")
		prometheus.RecordWebhook("meta", "rejected")
		return c.String(http.StatusForbidden, "Unauthorized")
	}

	var payload cloudPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		prometheus.RecordWebhook("meta", "rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed payload"})
	}

	message, ok := firstMessage(&payload)
	if !ok {
		// Status callbacks and other event types are acknowledged
		// without processing.
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}

	from := message.from
	text := strings.TrimSpace(message.body)

	resolved, err := h.resolver.ResolvePerTenant(from)
	switch {
	case errors.Is(err, bot.ErrNoTenant):
		// Unregistered sender: onboard with the process-default
		// credentials and write no log rows.
		h.notify(c, nil, from, onboardingMessage)
		prometheus.RecordWebhook("meta", "no_bot")
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})

	case errors.Is(err, bot.ErrNoActiveBot):
		var creds whatsapp.Credentials
		if resolved != nil {
			creds = resolved.Tenant.Credentials(h.cipher)
		}
		h.notify(c, creds, from, noActiveBotMessage)
		prometheus.RecordWebhook("meta", "no_bot")
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})

	case err != nil:
		log.Error("Bot resolution failed", zap.Error(err))
		prometheus.RecordWebhook("meta", "error")
		return c.JSON(http.StatusOK, echo.Map{"status": "error"})
	}

	reply, err := bot.Exchange(h.db, &resolved.Bot, from, text)
	if err != nil {
		log.Error("Failed to record message exchange", zap.Error(err))
		prometheus.RecordWebhook("meta", "error")
		return c.JSON(http.StatusOK, echo.Map{"status": "error"})
	}

	prometheus.RecordMessage(model.DirectionIncoming, "meta")
	prometheus.RecordMessage(model.DirectionOutgoing, "meta")

	// Best-effort delivery: the log rows stay committed even when the
	// send fails.
	h.notify(c, resolved.Tenant.Credentials(h.cipher), from, reply)

	log.Info("Handled inbound Cloud API message",
		zap.Uint("bot_id", resolved.Bot.ID),
		zap.Uint("tenant_id", resolved.Tenant.ID))
	prometheus.RecordWebhook("meta", "handled")

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// notify sends a message and swallows delivery failures. Nil
// credentials fall back to the process defaults.
func (h *WebhookHandler) notify(c echo.Context, creds whatsapp.Credentials, to, text string) {
	log := logger.FromEcho(c)

	provider := h.cfg.Provider
	if creds != nil {
		provider = string(creds.Provider())
	}

	done := prometheus.TrackSend(provider)
	_, err := h.sender.Send(c.Request().Context(), creds, to, text)
	done()
	if err != nil {
		log.Error("Outbound send failed", zap.String("to", to), zap.Error(err))
		prometheus.RecordSendError(provider)
	}
}

func (h *WebhookHandler) twiml(c echo.Context, reply string) error {
	doc, err := whatsapp.TwiML(reply)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, doc)
}

type inboundMessage struct {
	from string
	body string
}

func firstMessage(payload *cloudPayload) (inboundMessage, bool) {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				return inboundMessage{from: msg.From, body: msg.Text.Body}, true
			}
		}
	}
	return inboundMessage{}, false
}
