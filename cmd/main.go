package main

import (
	"fmt"
	"os"

	"github.com/labstack/echo/v4"

	"chatbot-service/internal/handler"
	"chatbot-service/internal/middleware"
	"chatbot-service/internal/model"
	"chatbot-service/internal/whatsapp"
	"chatbot-service/pkg/config"
	"chatbot-service/pkg/crypto"
	"chatbot-service/pkg/database"
	"chatbot-service/pkg/jwtutil"
	"chatbot-service/pkg/logger"
	"chatbot-service/prometheus"
)

func main() {
	// Load configuration
	conf, err := config.Load("chatbot")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.Info("Configuration loaded", conf.LogConfig()...)

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations
	if err := database.MigrateModels(&model.User{}, &model.Bot{}, &model.Rule{}, &model.MessageLog{}); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// Credential cipher for stored provider credentials
	cipher, err := crypto.NewCipher(conf.Encryption.Secret)
	if err != nil {
		log.Fatal("Failed to initialize credential cipher")
	}

	// JWT utility for the management API
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})

	// Outbound provider dispatcher with process-default credentials
	sender := whatsapp.NewSender(&conf.WhatsApp)

	// Handlers
	authHandler := handler.NewAuthHandler(db, jwt)
	botHandler := handler.NewBotHandler(db)
	settingsHandler := handler.NewSettingsHandler(db, cipher)
	webhookHandler := handler.NewWebhookHandler(db, &conf.WhatsApp, sender, cipher)
	sendHandler := handler.NewSendHandler(db, sender, cipher)
	apiHandler := handler.NewAPIHandler(db)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply middleware
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public endpoints
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// Provider webhooks
	e.POST("/webhook/telephony", webhookHandler.TelephonyWebhook)
	e.GET("/webhook/cloud", webhookHandler.CloudWebhookVerify)
	e.POST("/webhook/cloud", webhookHandler.CloudWebhook)

	// Operator endpoints
	e.POST("/send", sendHandler.Send)
	e.POST("/api/get_response", apiHandler.GetResponse)

	// Secured management API
	bots := e.Group("/bots")
	bots.Use(middleware.JWTAuthMiddleware(jwt))
	bots.POST("", botHandler.CreateBot)
	bots.GET("", botHandler.ListBots)
	bots.GET("/:id", botHandler.GetBot)
	bots.PUT("/:id", botHandler.UpdateBot)
	bots.DELETE("/:id", botHandler.DeleteBot)
	bots.POST("/:id/rules", botHandler.AddRule)
	bots.GET("/:id/logs", botHandler.ListLogs)

	secured := e.Group("")
	secured.Use(middleware.JWTAuthMiddleware(jwt))
	secured.DELETE("/rules/:id", botHandler.DeleteRule)
	secured.GET("/analytics", botHandler.Analytics)
	secured.GET("/settings", settingsHandler.GetSettings)
	secured.PUT("/settings/credentials", settingsHandler.UpdateCredentials)
	secured.PUT("/profile", settingsHandler.UpdateProfile)

	// Start server
	log.Info("Starting chatbot-service on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
