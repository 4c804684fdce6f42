package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	SMTP      SMTPConfig
	CoreSSO   CoreSSOConfig
	App       AppConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret              string
	AccessExpiryMinutes int
	RefreshExpiryHours  int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// CoreSSOConfig holds the integration parameters of the external SME
// identity/HR provider.
type CoreSSOConfig struct {
	BaseURL string
	APIKey  string
	// SystemCode is the authorization-profile code that must appear in the
	// authenticated user's profile list for access to be granted.
	SystemCode string
	// TimeoutSeconds bounds authentication and credential-change calls;
	// ProfileTimeoutSeconds bounds the profile lookup used as an email source.
	TimeoutSeconds        int
	ProfileTimeoutSeconds int
}

type AppConfig struct {
	// PublicURL is the public-facing base used to build confirmation links.
	PublicURL string
	// EmailDomain is the institutional suffix required for new addresses.
	EmailDomain string
	// EmailChangeTokenTTLMinutes bounds email-change confirmation tokens.
	EmailChangeTokenTTLMinutes int
	// ResetTokenTTLHours bounds password-reset tokens.
	ResetTokenTTLHours int
}

type RateLimitConfig struct {
	GeneralRPS   float64
	GeneralBurst int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		JWT: JWTConfig{
			Secret:              viper.GetString("JWT_SECRET"),
			AccessExpiryMinutes: viper.GetInt("JWT_ACCESS_EXPIRY_MINUTES"),
			RefreshExpiryHours:  viper.GetInt("JWT_REFRESH_EXPIRY_HOURS"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
		},
		CoreSSO: CoreSSOConfig{
			BaseURL:               viper.GetString("SME_INTEGRACAO_URL"),
			APIKey:                viper.GetString("SME_INTEGRACAO_TOKEN"),
			SystemCode:            viper.GetString("CODIGO_SISTEMA_SIGNA"),
			TimeoutSeconds:        viper.GetInt("SME_INTEGRACAO_TIMEOUT_SECONDS"),
			ProfileTimeoutSeconds: viper.GetInt("SME_INTEGRACAO_PROFILE_TIMEOUT_SECONDS"),
		},
		App: AppConfig{
			PublicURL:                  viper.GetString("AMBIENTE_URL"),
			EmailDomain:                viper.GetString("EMAIL_DOMINIO_INSTITUCIONAL"),
			EmailChangeTokenTTLMinutes: viper.GetInt("ALTERACAO_EMAIL_TOKEN_TTL_MINUTES"),
			ResetTokenTTLHours:         viper.GetInt("RESET_SENHA_TOKEN_TTL_HOURS"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
	}

	applyDefaults(config)

	return config, nil
}

func applyDefaults(c *Config) {
	if c.JWT.AccessExpiryMinutes == 0 {
		c.JWT.AccessExpiryMinutes = 60
	}
	if c.JWT.RefreshExpiryHours == 0 {
		c.JWT.RefreshExpiryHours = 7 * 24
	}
	if c.CoreSSO.TimeoutSeconds == 0 {
		c.CoreSSO.TimeoutSeconds = 30
	}
	if c.CoreSSO.ProfileTimeoutSeconds == 0 {
		c.CoreSSO.ProfileTimeoutSeconds = 10
	}
	if c.App.EmailDomain == "" {
		c.App.EmailDomain = "@sme.prefeitura.sp.gov.br"
	}
	if c.App.EmailChangeTokenTTLMinutes == 0 {
		c.App.EmailChangeTokenTTLMinutes = 30
	}
	if c.App.ResetTokenTTLHours == 0 {
		c.App.ResetTokenTTLHours = 24
	}
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
