package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port           string
	MongoURI       string
	MongoDatabase  string
	JWTSecret      string
	JWTExpiryHours int

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	RedisAddr     string
	RedisPassword string

	RabbitURI      string
	RabbitExchange string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AllowedOrigins string
}

func New() *Config {
	expiry, err := strconv.Atoi(getEnv("TOKEN_EXPIRY_HOURS", "1"))
	if err != nil || expiry <= 0 {
		expiry = 1
	}

	return &Config{
		Port:           getEnv("PORT", "5000"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DB", "quizhub"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTExpiryHours: expiry,

		SMTPHost: getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("SMTP_EMAIL", ""),
		SMTPPass: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom: getEnv("SMTP_FROM", getEnv("SMTP_EMAIL", "")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		RabbitURI:      getEnv("RABBITMQ_URI", ""),
		RabbitExchange: getEnv("RABBITMQ_EXCHANGE", ""),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "quiz-images"),
		MinioUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// MustJWTSecret fails fast when the signing secret is missing; tokens signed
// with an empty secret would be trivially forgeable.
func (c *Config) MustJWTSecret() string {
	if c.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	return c.JWTSecret
}
