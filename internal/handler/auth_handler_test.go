package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"chatbot-service/pkg/jwtutil"
)

func newAuthHandler(db *gorm.DB) (*AuthHandler, *jwtutil.JWTUtil) {
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 24})
	return NewAuthHandler(db, jwt), jwt
}

func postAuth(handler echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = handler(e.NewContext(req, rec))
	return rec
}

func TestRegisterIssuesToken(t *testing.T) {
	db := openTestDB(t)
	h, jwt := newAuthHandler(db)

	rec := postAuth(h.Register, "/auth/register", `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token  string `json:"token"`
		UserID uint   `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	claims, err := jwt.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, resp.UserID, claims.UserID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := openTestDB(t)
	h, _ := newAuthHandler(db)

	rec := postAuth(h.Register, "/auth/register", `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postAuth(h.Register, "/auth/register", `{"username":"alice","password":"other456"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	db := openTestDB(t)
	h, _ := newAuthHandler(db)

	for _, body := range []string{`{}`, `{"username":"alice"}`, `{"password":"secret123"}`} {
		rec := postAuth(h.Register, "/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestLogin(t *testing.T) {
	db := openTestDB(t)
	h, jwt := newAuthHandler(db)

	user := seedTenant(t, db, "alice", "")

	rec := postAuth(h.Login, "/auth/login", `{"username":"alice","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	claims, err := jwt.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	db := openTestDB(t)
	h, _ := newAuthHandler(db)

	seedTenant(t, db, "alice", "")

	rec := postAuth(h.Login, "/auth/login", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postAuth(h.Login, "/auth/login", `{"username":"nobody","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
