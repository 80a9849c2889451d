package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chatbot-service/internal/bot"
	"chatbot-service/internal/model"
	"chatbot-service/pkg/logger"
	"chatbot-service/prometheus"
)

// APIHandler serves the non-webhook inbound simulator.
type APIHandler struct {
	db *gorm.DB
}

// NewAPIHandler creates the simulator handler.
func NewAPIHandler(db *gorm.DB) *APIHandler {
	return &APIHandler{db: db}
}

// GetResponse simulates an inbound message against a specific bot or
// the first active one. The exchange is logged exactly like a real
// webhook message.
func (h *APIHandler) GetResponse(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Sender  string `json:"sender"`
		Message string `json:"message"`
		BotID   *uint  `json:"bot_id,omitempty"`
	}

	if err := c.Bind(&req); err != nil || req.Sender == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var activeBot model.Bot
	query := h.db.Where("active = ?", true).Order("id ASC")
	if req.BotID != nil {
		query = h.db.Where("id = ? AND active = ?", *req.BotID, true)
	}
	if err := query.First(&activeBot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"response": "No active bot found"})
		}
		log.Error("Failed to look up bot", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	reply, err := bot.Exchange(h.db, &activeBot, req.Sender, req.Message)
	if err != nil {
		log.Error("Failed to record message exchange", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	prometheus.RecordMessage(model.DirectionIncoming, "api")
	prometheus.RecordMessage(model.DirectionOutgoing, "api")

	return c.JSON(http.StatusOK, echo.Map{"response": reply})
}
