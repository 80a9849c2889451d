package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chatbot-service/internal/model"
	"chatbot-service/pkg/jwtutil"
	"chatbot-service/pkg/logger"
)

// BotHandler handles bot and rule management for the dashboard API.
type BotHandler struct {
	db *gorm.DB
}

// NewBotHandler creates the bot management handler.
func NewBotHandler(db *gorm.DB) *BotHandler {
	return &BotHandler{db: db}
}

// claims extracts the authenticated user from the context.
func claims(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get("user").(*jwtutil.UserClaims)
	return claims, ok
}

// ownedBot loads a bot and checks the caller owns it.
func (h *BotHandler) ownedBot(c echo.Context, botID uint) (*model.Bot, error) {
	log := logger.FromEcho(c)

	user, ok := claims(c)
	if !ok {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var b model.Bot
	if err := h.db.First(&b, botID).Error; err != nil {
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "bot not found"})
	}

	if b.UserID != user.UserID {
		log.Warn("Unauthorized bot access attempt",
			zap.Uint("requesting_user_id", user.UserID),
			zap.Uint("bot_owner_id", b.UserID))
		return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	return &b, nil
}

// CreateBot handles bot creation
func (h *BotHandler) CreateBot(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := claims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Name            string `json:"name"`
		FallbackMessage string `json:"fallback_message"`
	}

	if err := c.Bind(&req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	if req.FallbackMessage == "" {
		req.FallbackMessage = "Sorry, I did not understand that."
	}

	b := model.Bot{
		UserID:          user.UserID,
		Name:            req.Name,
		FallbackMessage: req.FallbackMessage,
		Active:          true,
	}

	if err := h.db.Create(&b).Error; err != nil {
		log.Error("Failed to create bot", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bot creation failed"})
	}

	log.Info("Bot created", zap.String("name", b.Name), zap.Uint("id", b.ID), zap.Uint("owner_id", b.UserID))
	return c.JSON(http.StatusCreated, echo.Map{"message": "Bot created successfully", "bot": b})
}

// ListBots retrieves the caller's bots
func (h *BotHandler) ListBots(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := claims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var bots []model.Bot
	if err := h.db.Where("user_id = ?", user.UserID).Order("id ASC").Find(&bots).Error; err != nil {
		log.Error("Failed to retrieve bots", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve bots"})
	}

	return c.JSON(http.StatusOK, bots)
}

// GetBot retrieves one bot with its rules in creation order
func (h *BotHandler) GetBot(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bot ID"})
	}

	b, errResp := h.ownedBot(c, uint(id))
	if b == nil {
		return errResp
	}

	var rules []model.Rule
	if err := h.db.Where("bot_id = ?", b.ID).Order("id ASC").Find(&rules).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve rules"})
	}
	b.Rules = rules

	return c.JSON(http.StatusOK, b)
}

// UpdateBot updates a bot's name, fallback message and active flag
func (h *BotHandler) UpdateBot(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bot ID"})
	}

	b, errResp := h.ownedBot(c, uint(id))
	if b == nil {
		return errResp
	}

	var req struct {
		Name            *string `json:"name"`
		FallbackMessage *string `json:"fallback_message"`
		Active          *bool   `json:"active"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.FallbackMessage != nil {
		b.FallbackMessage = *req.FallbackMessage
	}
	if req.Active != nil {
		b.Active = *req.Active
	}

	if err := h.db.Save(b).Error; err != nil {
		log.Error("Failed to update bot", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bot update failed"})
	}

	log.Info("Bot updated", zap.Uint("id", b.ID), zap.Bool("active", b.Active))
	return c.JSON(http.StatusOK, echo.Map{"message": "Bot updated successfully", "bot": b})
}

// DeleteBot removes a bot; rules and message logs cascade with it
func (h *BotHandler) DeleteBot(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bot ID"})
	}

	b, errResp := h.ownedBot(c, uint(id))
	if b == nil {
		return errResp
	}

	if err := h.db.Select("Rules", "MessageLogs").Delete(b).Error; err != nil {
		log.Error("Failed to delete bot", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bot deletion failed"})
	}

	log.Info("Bot deleted", zap.Uint("id", b.ID), zap.String("name", b.Name))
	return c.JSON(http.StatusOK, echo.Map{"message": "Bot deleted successfully"})
}

// AddRule appends a rule to a bot. Rule evaluation order is creation
// order, so there is no position parameter.
func (h *BotHandler) AddRule(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bot ID"})
	}

	b, errResp := h.ownedBot(c, uint(id))
	if b == nil {
		return errResp
	}

	var req struct {
		Keyword  string `json:"keyword"`
		Response string `json:"response"`
	}

	if err := c.Bind(&req); err != nil || req.Keyword == "" || req.Response == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "keyword and response are required"})
	}

	rule := model.Rule{BotID: b.ID, Keyword: req.Keyword, Response: req.Response}
	if err := h.db.Create(&rule).Error; err != nil {
		log.Error("Failed to create rule", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rule creation failed"})
	}

	log.Info("Rule added", zap.Uint("bot_id", b.ID), zap.String("keyword", rule.Keyword))
	return c.JSON(http.StatusCreated, echo.Map{"message": "Rule added successfully", "rule": rule})
}

// DeleteRule removes a rule
func (h *BotHandler) DeleteRule(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rule ID"})
	}

	var rule model.Rule
	if err := h.db.First(&rule, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "rule not found"})
	}

	b, errResp := h.ownedBot(c, rule.BotID)
	if b == nil {
		return errResp
	}

	if err := h.db.Delete(&rule).Error; err != nil {
		log.Error("Failed to delete rule", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rule deletion failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Rule deleted successfully"})
}

// ListLogs retrieves a bot's message logs, newest first
func (h *BotHandler) ListLogs(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bot ID"})
	}

	b, errResp := h.ownedBot(c, uint(id))
	if b == nil {
		return errResp
	}

	var logs []model.MessageLog
	if err := h.db.Where("bot_id = ?", b.ID).Order("id DESC").Limit(200).Find(&logs).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve logs"})
	}

	return c.JSON(http.StatusOK, logs)
}

// Analytics aggregates per-bot message statistics for the caller
func (h *BotHandler) Analytics(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := claims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var bots []model.Bot
	if err := h.db.Where("user_id = ?", user.UserID).Order("id ASC").Find(&bots).Error; err != nil {
		log.Error("Failed to retrieve bots", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve bots"})
	}

	type botStats struct {
		Bot           model.Bot `json:"bot"`
		TotalMessages int64     `json:"total_messages"`
		Incoming      int64     `json:"incoming"`
		Outgoing      int64     `json:"outgoing"`
		UniqueSenders int64     `json:"unique_senders"`
	}

	stats := make([]botStats, 0, len(bots))
	for _, b := range bots {
		var s botStats
		s.Bot = b

		h.db.Model(&model.MessageLog{}).Where("bot_id = ?", b.ID).Count(&s.TotalMessages)
		h.db.Model(&model.MessageLog{}).Where("bot_id = ? AND direction = ?", b.ID, model.DirectionIncoming).Count(&s.Incoming)
		h.db.Model(&model.MessageLog{}).Where("bot_id = ? AND direction = ?", b.ID, model.DirectionOutgoing).Count(&s.Outgoing)
		h.db.Model(&model.MessageLog{}).Where("bot_id = ?", b.ID).Distinct("sender").Count(&s.UniqueSenders)

		stats = append(stats, s)
	}

	return c.JSON(http.StatusOK, echo.Map{"bot_stats": stats})
}
