package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      string `yaml:"port"`
	GinMode   string `yaml:"gin_mode"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	DBDriver   string `yaml:"db_driver"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`
	DBLogLevel string `yaml:"db_log_level"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	IdentityProvider string        `yaml:"identity_provider"`
	JWTSecret        string        `yaml:"jwt_secret"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl"`
	OIDCIssuerURL    string        `yaml:"oidc_issuer_url"`
	OIDCClientID     string        `yaml:"oidc_client_id"`
	OIDCClientSecret string        `yaml:"oidc_client_secret"`
	GoogleClientID   string        `yaml:"google_client_id"`
	IdentityCacheTTL time.Duration `yaml:"identity_cache_ttl"`

	OpenAIAPIKey             string  `yaml:"openai_api_key"`
	OpenAIBaseURL            string  `yaml:"openai_base_url"`
	OpenAIDefaultModel       string  `yaml:"openai_default_model"`
	OpenAIDefaultTemperature float32 `yaml:"openai_default_temperature"`
	OpenAIDefaultMaxTokens   int     `yaml:"openai_default_max_tokens"`

	S3Region        string `yaml:"s3_region"`
	S3Endpoint      string `yaml:"s3_endpoint"`
	S3AccessKey     string `yaml:"s3_access_key"`
	S3SecretKey     string `yaml:"s3_secret_key"`
	S3PublicBaseURL string `yaml:"s3_public_base_url"`
	S3UsePathStyle  bool   `yaml:"s3_use_path_style"`

	FrontendURL string `yaml:"frontend_url"`
}

func defaults() *Config {
	return &Config{
		Port:                     "8080",
		GinMode:                  "debug",
		LogLevel:                 "info",
		LogFormat:                "text",
		DBDriver:                 "postgres",
		DBHost:                   "localhost",
		DBPort:                   "5432",
		DBUser:                   "platform",
		DBPassword:               "platform",
		DBName:                   "learning_platform",
		DBSSLMode:                "disable",
		DBLogLevel:               "warn",
		IdentityProvider:         "local",
		JWTSecret:                "default-secret-key-change-me",
		AccessTokenTTL:           time.Hour,
		RefreshTokenTTL:          30 * 24 * time.Hour,
		IdentityCacheTTL:         time.Minute,
		OpenAIDefaultModel:       "gpt-4o",
		OpenAIDefaultTemperature: 0.7,
		OpenAIDefaultMaxTokens:   2048,
		S3Region:                 "us-east-1",
		FrontendURL:              "http://localhost:3000",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBSSLMode = getEnv("DB_SSLMODE", cfg.DBSSLMode)
	cfg.DBLogLevel = getEnv("DB_LOG_LEVEL", cfg.DBLogLevel)

	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)

	cfg.IdentityProvider = getEnv("IDENTITY_PROVIDER", cfg.IdentityProvider)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.OIDCIssuerURL = getEnv("OIDC_ISSUER_URL", cfg.OIDCIssuerURL)
	cfg.OIDCClientID = getEnv("OIDC_CLIENT_ID", cfg.OIDCClientID)
	cfg.OIDCClientSecret = getEnv("OIDC_CLIENT_SECRET", cfg.OIDCClientSecret)
	cfg.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", cfg.GoogleClientID)

	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OpenAIDefaultModel = getEnv("OPENAI_DEFAULT_MODEL", cfg.OpenAIDefaultModel)

	cfg.S3Region = getEnv("S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKey = getEnv("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getEnv("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3PublicBaseURL = getEnv("S3_PUBLIC_BASE_URL", cfg.S3PublicBaseURL)

	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL)

	var err error
	if cfg.AccessTokenTTL, err = getDurationEnv("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getDurationEnv("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL); err != nil {
		return nil, err
	}
	if cfg.IdentityCacheTTL, err = getDurationEnv("IDENTITY_CACHE_TTL", cfg.IdentityCacheTTL); err != nil {
		return nil, err
	}
	if v := os.Getenv("OPENAI_DEFAULT_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid OPENAI_DEFAULT_TEMPERATURE: %w", err)
		}
		cfg.OpenAIDefaultTemperature = float32(f)
	}
	if v := os.Getenv("OPENAI_DEFAULT_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OPENAI_DEFAULT_MAX_TOKENS: %w", err)
		}
		cfg.OpenAIDefaultMaxTokens = n
	}
	if v := os.Getenv("S3_USE_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid S3_USE_PATH_STYLE: %w", err)
		}
		cfg.S3UsePathStyle = b
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected drivers have what they need.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql":
		if c.DBHost == "" || c.DBName == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for driver %s", c.DBDriver)
		}
	case "sqlite":
		if c.DBName == "" {
			return fmt.Errorf("DB_NAME is required for driver sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.IdentityProvider {
	case "local":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for the local identity provider")
		}
	case "oidc":
		if c.OIDCIssuerURL == "" || c.OIDCClientID == "" {
			return fmt.Errorf("OIDC_ISSUER_URL and OIDC_CLIENT_ID are required for the oidc identity provider")
		}
	default:
		return fmt.Errorf("unsupported IDENTITY_PROVIDER %q", c.IdentityProvider)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
