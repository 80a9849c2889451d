package handler

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"chatbot-service/internal/model"
	"chatbot-service/internal/whatsapp"
	"chatbot-service/pkg/crypto"
	"chatbot-service/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       "error",
		Environment: "production",
		ServiceName: "chatbot-test",
	}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Bot{}, &model.Rule{}, &model.MessageLog{}))
	return db
}

func testCipher(t *testing.T) *crypto.Cipher {
	t.Helper()

	cipher, err := crypto.NewCipher("test-secret")
	require.NoError(t, err)
	return cipher
}

// sentMessage records one fakeSender delivery.
type sentMessage struct {
	Creds whatsapp.Credentials
	To    string
	Body  string
}

// fakeSender satisfies MessageSender without network I/O.
type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, creds whatsapp.Credentials, to, body string) (string, error) {
	f.sent = append(f.sent, sentMessage{Creds: creds, To: to, Body: body})
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

func seedTenant(t *testing.T, db *gorm.DB, username, phone string) *model.User {
	t.Helper()

	user := model.User{Username: username, PhoneNumber: phone, WhatsAppProvider: "meta"}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedBot(t *testing.T, db *gorm.DB, userID uint, name string, active bool) *model.Bot {
	t.Helper()

	b := model.Bot{UserID: userID, Name: name, FallbackMessage: "Sorry", Active: active}
	require.NoError(t, db.Create(&b).Error)
	return &b
}

func seedRule(t *testing.T, db *gorm.DB, botID uint, keyword, response string) {
	t.Helper()
	require.NoError(t, db.Create(&model.Rule{BotID: botID, Keyword: keyword, Response: response}).Error)
}

func countLogs(t *testing.T, db *gorm.DB, botID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.MessageLog{}).Where("bot_id = ?", botID).Count(&count).Error)
	return count
}
