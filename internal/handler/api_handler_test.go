package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postGetResponse(h *APIHandler, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/get_response", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h.GetResponse(e.NewContext(req, rec))
	return rec
}

func TestGetResponseMatchesRule(t *testing.T) {
	db := openTestDB(t)
	h := NewAPIHandler(db)

	owner := seedTenant(t, db, "alice", "")
	b := seedBot(t, db, owner.ID, "Support Bot", true)
	seedRule(t, db, b.ID, "price", "$10")

	rec := postGetResponse(h, `{"sender":"tester","message":"what is the price?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"$10"}`, rec.Body.String())
	assert.EqualValues(t, 2, countLogs(t, db, b.ID))
}

func TestGetResponseFallback(t *testing.T) {
	db := openTestDB(t)
	h := NewAPIHandler(db)

	owner := seedTenant(t, db, "alice", "")
	b := seedBot(t, db, owner.ID, "Support Bot", true)
	seedRule(t, db, b.ID, "price", "$10")

	rec := postGetResponse(h, `{"sender":"tester","message":"xyz"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"Sorry"}`, rec.Body.String())
}

func TestGetResponseSpecificBot(t *testing.T) {
	db := openTestDB(t)
	h := NewAPIHandler(db)

	owner := seedTenant(t, db, "alice", "")
	first := seedBot(t, db, owner.ID, "first", true)
	second := seedBot(t, db, owner.ID, "second", true)
	seedRule(t, db, first.ID, "ping", "pong-first")
	seedRule(t, db, second.ID, "ping", "pong-second")

	rec := postGetResponse(h, fmt.Sprintf(`{"sender":"tester","message":"ping","bot_id":%d}`, second.ID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"pong-second"}`, rec.Body.String())
	assert.EqualValues(t, 0, countLogs(t, db, first.ID))
	assert.EqualValues(t, 2, countLogs(t, db, second.ID))
}

func TestGetResponseInactiveSpecificBot(t *testing.T) {
	db := openTestDB(t)
	h := NewAPIHandler(db)

	owner := seedTenant(t, db, "alice", "")
	b := seedBot(t, db, owner.ID, "inactive", false)

	rec := postGetResponse(h, fmt.Sprintf(`{"sender":"tester","message":"hi","bot_id":%d}`, b.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetResponseNoActiveBot(t *testing.T) {
	db := openTestDB(t)
	h := NewAPIHandler(db)

	rec := postGetResponse(h, `{"sender":"tester","message":"hi"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"response":"No active bot found"}`, rec.Body.String())
}

func TestGetResponseInvalidBody(t *testing.T) {
	db := openTestDB(t)
	h := NewAPIHandler(db)

	owner := seedTenant(t, db, "alice", "")
	b := seedBot(t, db, owner.ID, "Support Bot", true)

	for _, body := range []string{`{}`, `{"sender":"tester"}`, `{"message":"hi"}`, `not json`} {
		rec := postGetResponse(h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}

	require.EqualValues(t, 0, countLogs(t, db, b.ID))
}
