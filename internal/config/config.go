package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	TokenTTL string `yaml:"token_ttl"`
}

type AuthConfig struct {
	MaxLoginAttempts int    `yaml:"max_login_attempts"`
	LockWindow       string `yaml:"lock_window"`
	IdleTimeout      string `yaml:"idle_timeout"`
	PendingTwoFATTL  string `yaml:"pending_2fa_ttl"`
	TOTPIssuer       string `yaml:"totp_issuer"`
}

type RateLimitConfig struct {
	RegisterMax    int    `yaml:"register_max"`
	RegisterWindow string `yaml:"register_window"`
	LoginMax       int    `yaml:"login_max"`
	LoginWindow    string `yaml:"login_window"`
	APIMax         int    `yaml:"api_max"`
	APIWindow      string `yaml:"api_window"`
}

type ConfigFile struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type Config struct {
	Port             string
	GinMode          string
	DSN              string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	JWTSecret        string
	JWTIssuer        string
	TokenTTL         time.Duration
	MaxLoginAttempts int
	LockWindow       time.Duration
	IdleTimeout      time.Duration
	PendingTwoFATTL  time.Duration
	TOTPIssuer       string
	RegisterMax      int
	RegisterWindow   time.Duration
	LoginMax         int
	LoginWindow      time.Duration
	APIMax           int
	APIWindow        time.Duration
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() (*Config, error) {
	return LoadFrom(env("CONFIG_PATH", "config/config.yml"))
}

func LoadFrom(path string) (*Config, error) {
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	tokenTTL, err := parseDuration(configFile.JWT.TokenTTL, 30*time.Minute, "jwt token TTL")
	if err != nil {
		return nil, err
	}
	lockWindow, err := parseDuration(configFile.Auth.LockWindow, 2*time.Hour, "auth lock window")
	if err != nil {
		return nil, err
	}
	idleTimeout, err := parseDuration(configFile.Auth.IdleTimeout, 30*time.Minute, "auth idle timeout")
	if err != nil {
		return nil, err
	}
	pendingTTL, err := parseDuration(configFile.Auth.PendingTwoFATTL, 10*time.Minute, "pending 2fa TTL")
	if err != nil {
		return nil, err
	}
	registerWindow, err := parseDuration(configFile.RateLimit.RegisterWindow, time.Hour, "register rate window")
	if err != nil {
		return nil, err
	}
	loginWindow, err := parseDuration(configFile.RateLimit.LoginWindow, 15*time.Minute, "login rate window")
	if err != nil {
		return nil, err
	}
	apiWindow, err := parseDuration(configFile.RateLimit.APIWindow, 15*time.Minute, "api rate window")
	if err != nil {
		return nil, err
	}

	maxAttempts := configFile.Auth.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	return &Config{
		Port:             env("PORT", fmt.Sprintf("%d", configFile.App.Port)),
		GinMode:          env("GIN_MODE", configFile.App.GinMode),
		DSN:              env("DATABASE_DSN", configFile.Database.DSN),
		RedisAddr:        env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword:    env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:          configFile.Redis.DB,
		JWTSecret:        env("JWT_SECRET", configFile.JWT.Secret),
		JWTIssuer:        configFile.JWT.Issuer,
		TokenTTL:         tokenTTL,
		MaxLoginAttempts: maxAttempts,
		LockWindow:       lockWindow,
		IdleTimeout:      idleTimeout,
		PendingTwoFATTL:  pendingTTL,
		TOTPIssuer:       configFile.Auth.TOTPIssuer,
		RegisterMax:      configFile.RateLimit.RegisterMax,
		RegisterWindow:   registerWindow,
		LoginMax:         configFile.RateLimit.LoginMax,
		LoginWindow:      loginWindow,
		APIMax:           configFile.RateLimit.APIMax,
		APIWindow:        apiWindow,
	}, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}

func parseDuration(raw string, def time.Duration, what string) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", what, err)
	}
	return d, nil
}
