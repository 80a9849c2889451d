package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot-service/internal/bot"
	"chatbot-service/internal/model"
)

func TestCreateBotDefaultsFallback(t *testing.T) {
	db := openTestDB(t)
	h := NewBotHandler(db)

	user := seedTenant(t, db, "alice", "")

	c, rec := authedRequest(http.MethodPost, "/bots", `{"name":"Support Bot"}`, user.ID, user.Username)
	require.NoError(t, h.CreateBot(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Bot
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&created).Error)
	assert.Equal(t, "Support Bot", created.Name)
	assert.Equal(t, "Sorry, I did not understand that.", created.FallbackMessage)
	assert.True(t, created.Active)
}

func TestGetBotDeniedForOtherTenant(t *testing.T) {
	db := openTestDB(t)
	h := NewBotHandler(db)

	owner := seedTenant(t, db, "alice", "")
	intruder := seedTenant(t, db, "mallory", "")
	b := seedBot(t, db, owner.ID, "Support Bot", true)

	c, rec := authedRequest(http.MethodGet, "/bots/1", "", intruder.ID, intruder.Username)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(b.ID))

	require.NoError(t, h.GetBot(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateBotPartial(t *testing.T) {
	db := openTestDB(t)
	h := NewBotHandler(db)

	user := seedTenant(t, db, "alice", "")
	b := seedBot(t, db, user.ID, "Support Bot", true)

	c, rec := authedRequest(http.MethodPut, "/bots/1", `{"active":false}`, user.ID, user.Username)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(b.ID))

	require.NoError(t, h.UpdateBot(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored model.Bot
	require.NoError(t, db.First(&stored, b.ID).Error)
	assert.False(t, stored.Active)
	assert.Equal(t, "Support Bot", stored.Name, "unset fields keep their value")
}

func TestDeleteBotCascades(t *testing.T) {
	db := openTestDB(t)
	h := NewBotHandler(db)

	user := seedTenant(t, db, "alice", "")
	b := seedBot(t, db, user.ID, "Support Bot", true)
	seedRule(t, db, b.ID, "price", "$10")

	_, err := bot.Exchange(db, b, "whatsapp:+15550001111", "price")
	require.NoError(t, err)
	require.EqualValues(t, 2, countLogs(t, db, b.ID))

	c, rec := authedRequest(http.MethodDelete, "/bots/1", "", user.ID, user.Username)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(b.ID))

	require.NoError(t, h.DeleteBot(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var rules, logs int64
	require.NoError(t, db.Model(&model.Rule{}).Where("bot_id = ?", b.ID).Count(&rules).Error)
	require.NoError(t, db.Model(&model.MessageLog{}).Where("bot_id = ?", b.ID).Count(&logs).Error)
	assert.Zero(t, rules)
	assert.Zero(t, logs)
}

func TestAddAndDeleteRule(t *testing.T) {
	db := openTestDB(t)
	h := NewBotHandler(db)

	user := seedTenant(t, db, "alice", "")
	b := seedBot(t, db, user.ID, "Support Bot", true)

	c, rec := authedRequest(http.MethodPost, "/bots/1/rules", `{"keyword":"hours","response":"9-5"}`, user.ID, user.Username)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(b.ID))
	require.NoError(t, h.AddRule(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var rule model.Rule
	require.NoError(t, db.Where("bot_id = ?", b.ID).First(&rule).Error)
	assert.Equal(t, "hours", rule.Keyword)

	c, rec = authedRequest(http.MethodDelete, "/rules/1", "", user.ID, user.Username)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(rule.ID))
	require.NoError(t, h.DeleteRule(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, db.Model(&model.Rule{}).Where("bot_id = ?", b.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAnalyticsCounts(t *testing.T) {
	db := openTestDB(t)
	h := NewBotHandler(db)

	user := seedTenant(t, db, "alice", "")
	b := seedBot(t, db, user.ID, "Support Bot", true)
	seedRule(t, db, b.ID, "price", "$10")

	for _, sender := range []string{"whatsapp:+15550001111", "whatsapp:+15550002222", "whatsapp:+15550001111"} {
		_, err := bot.Exchange(db, b, sender, "price")
		require.NoError(t, err)
	}

	c, rec := authedRequest(http.MethodGet, "/analytics", "", user.ID, user.Username)
	require.NoError(t, h.Analytics(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		BotStats []struct {
			TotalMessages int64 `json:"total_messages"`
			Incoming      int64 `json:"incoming"`
			Outgoing      int64 `json:"outgoing"`
			UniqueSenders int64 `json:"unique_senders"`
		} `json:"bot_stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.BotStats, 1)

	stats := resp.BotStats[0]
	assert.EqualValues(t, 6, stats.TotalMessages)
	assert.EqualValues(t, 3, stats.Incoming)
	assert.EqualValues(t, 3, stats.Outgoing)
	assert.EqualValues(t, 2, stats.UniqueSenders)
}
