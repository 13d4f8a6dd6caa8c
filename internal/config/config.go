package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort      int    `mapstructure:"HTTP_PORT"`
	ServerHost    string `mapstructure:"SERVER_HOST"`
	FrontendURL   string `mapstructure:"FRONTEND_URL"`
	CORSOrigins   string `mapstructure:"CORS_ORIGINS"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	NATSURL       string `mapstructure:"NATS_URL"`

	JWTSecret              string `mapstructure:"JWT_SECRET"`
	AccessTokenTTLSeconds  int    `mapstructure:"ACCESS_TOKEN_TTL_SECONDS"`
	RefreshTokenTTLSeconds int    `mapstructure:"REFRESH_TOKEN_TTL_SECONDS"`

	PasswordMinLength int `mapstructure:"PASSWORD_MIN_LENGTH"`
	PasswordMaxLength int `mapstructure:"PASSWORD_MAX_LENGTH"`
	BcryptCost        int `mapstructure:"BCRYPT_COST"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	EmailsFrom   string `mapstructure:"EMAILS_FROM_EMAIL"`
	EmailsName   string `mapstructure:"EMAILS_FROM_NAME"`
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLSeconds) * time.Second
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLSeconds) * time.Second
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("HTTP_PORT", 8000)
	viper.SetDefault("SERVER_HOST", "http://localhost:8000")
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.SetDefault("CORS_ORIGINS", "")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "propfeed")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("NATS_URL", "")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("ACCESS_TOKEN_TTL_SECONDS", 60*60*24)    // one day
	viper.SetDefault("REFRESH_TOKEN_TTL_SECONDS", 60*60*24*7) // one week
	viper.SetDefault("PASSWORD_MIN_LENGTH", 6)
	viper.SetDefault("PASSWORD_MAX_LENGTH", 32)
	viper.SetDefault("BCRYPT_COST", 10)
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USER", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("EMAILS_FROM_EMAIL", "noreply@propfeed.local")
	viper.SetDefault("EMAILS_FROM_NAME", "propfeed")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return &cfg, nil
}
