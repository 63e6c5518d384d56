package configs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost string
	AppPort int

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBNameTest string
	DBSSLMode  string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	JWTSecret      string
	AccessTokenTTL time.Duration
	EncryptionKey  string

	UploadDir string
	LogDir    string

	AllowOrigins       string
	RateLimitPerMinute int

	AdminUsername string
	AdminPassword string
}

// Addr returns the host:port the HTTP server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.AppHost, c.AppPort)
}

// RedisAddr is empty when the cache is disabled.
func (c Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func LoadConfig() (Config, error) {
	// Muat file .env
	if err := godotenv.Load(); err != nil {
		// Hanya log jika tidak dalam mode test
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using environment variables")
		}
	}

	cfg := Config{
		AppHost: getEnv("APP_HOST", "0.0.0.0"),
		AppPort: getEnvAsInt("APP_PORT", 3004),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvAsInt("DB_PORT", 5432),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBNameTest: os.Getenv("DB_NAME_TEST"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvAsInt("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvAsInt("CACHE_TTL_MINUTES", 60)) * time.Minute,

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 4320)) * time.Minute,
		EncryptionKey:  os.Getenv("ENCRYPTION_KEY"),

		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		LogDir:    getEnv("LOG_DIR", "logs"),

		AllowOrigins:       getEnv("CORS_ALLOW_ORIGINS", "*"),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []string
	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET must not be empty")
	}
	if c.EncryptionKey == "" {
		errs = append(errs, "ENCRYPTION_KEY must not be empty")
	}
	if c.DBName == "" {
		errs = append(errs, "DB_NAME must not be empty")
	}
	if c.AppPort <= 0 {
		errs = append(errs, "APP_PORT must be greater than 0")
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, "ACCESS_TOKEN_EXPIRE_MINUTES must be greater than 0")
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, "ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	if len(errs) > 0 {
		return errors.New("invalid config: " + strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid integer value for %s, using %d", key, defaultVal)
		return defaultVal
	}
	return i
}
