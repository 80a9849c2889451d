package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// RoutingMode selects how an inbound message is mapped to a bot.
type RoutingMode string

const (
	// RoutingSingleTenant routes every inbound message to the first
	// active bot in the system, regardless of sender.
	RoutingSingleTenant RoutingMode = "single_tenant"
	// RoutingPerTenant resolves the owning tenant by the sender's
	// registered phone number.
	RoutingPerTenant RoutingMode = "per_tenant"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// TwilioConfig holds the process-default Twilio credentials. AuthToken
// doubles as the webhook signature validation secret; when empty,
// inbound Twilio requests are accepted without validation.
type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	WhatsAppNumber string
}

// MetaConfig holds the process-default Meta WhatsApp Cloud API
// credentials and webhook secrets.
type MetaConfig struct {
	AccessToken   string
	PhoneNumberID string
	APIVersion    string
	VerifyToken   string
	AppSecret     string
}

// WhatsAppConfig selects the default outbound provider and routing mode.
type WhatsAppConfig struct {
	Provider    string
	RoutingMode RoutingMode
	Twilio      TwilioConfig
	Meta        MetaConfig
}

// EncryptionConfig holds the secret protecting stored tenant credentials.
type EncryptionConfig struct {
	Secret string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	WhatsApp    WhatsAppConfig
	Encryption  EncryptionConfig
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", serviceName),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		WhatsApp: WhatsAppConfig{
			Provider:    getEnv("WHATSAPP_PROVIDER", "twilio"),
			RoutingMode: getEnvAsRoutingMode("ROUTING_MODE", RoutingSingleTenant),
			Twilio: TwilioConfig{
				AccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
				AuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
				WhatsAppNumber: getEnv("TWILIO_WHATSAPP_NUMBER", "whatsapp:+14155238886"),
			},
			Meta: MetaConfig{
				AccessToken:   getEnv("META_WHATSAPP_TOKEN", ""),
				PhoneNumberID: getEnv("META_PHONE_NUMBER_ID", ""),
				APIVersion:    getEnv("META_API_VERSION", "v21.0"),
				VerifyToken:   getEnv("META_VERIFY_TOKEN", ""),
				AppSecret:     getEnv("META_APP_SECRET", ""),
			},
		},
		Encryption: EncryptionConfig{
			Secret: getEnv("ENCRYPTION_SECRET", "dev-encryption-key-change-in-production"),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("whatsapp_provider", c.WhatsApp.Provider),
		zap.String("routing_mode", string(c.WhatsApp.RoutingMode)),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	switch getEnv(key, "") {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}

// Helper function to get environment variables as routing modes
func getEnvAsRoutingMode(key string, defaultValue RoutingMode) RoutingMode {
	switch getEnv(key, "") {
	case string(RoutingSingleTenant):
		return RoutingSingleTenant
	case string(RoutingPerTenant):
		return RoutingPerTenant
	default:
		return defaultValue
	}
}
