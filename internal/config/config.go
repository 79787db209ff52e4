package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dmarkin/bookstore/internal/models"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	HTTP_ADDR       string
	LOG_LEVEL       string
	DB_HOST         string
	DB_PORT         string
	DB_USER         string
	DB_PASSWORD     string
	DB_NAME         string
	SESSION_SECRET  string
	ADMIN_ALLOWLIST string
	ES_URL          string
	ES_USER         string
	ES_PASSWORD     string
	KAFKA_ADDRESS   string
	S3_ENDPOINT     string
	S3_REGION       string
	S3_BUCKET       string
	S3_ACCESS_KEY   string
	S3_SECRET_KEY   string
	S3_PUBLIC_URL   string
	SMTP_ADDR       string
	SMTP_FROM       string
	CONTACT_EMAIL   string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_ADDR:       getenvDefault("HTTP_ADDR", ":8080"),
		LOG_LEVEL:       os.Getenv("LOG_LEVEL"),
		DB_HOST:         os.Getenv("DB_HOST"),
		DB_PORT:         os.Getenv("DB_PORT"),
		DB_USER:         os.Getenv("DB_USER"),
		DB_PASSWORD:     os.Getenv("DB_PASSWORD"),
		DB_NAME:         os.Getenv("DB_NAME"),
		SESSION_SECRET:  os.Getenv("SESSION_SECRET"),
		ADMIN_ALLOWLIST: os.Getenv("ADMIN_ALLOWLIST"),
		ES_URL:          os.Getenv("ES_URL"),
		ES_USER:         os.Getenv("ES_USER"),
		ES_PASSWORD:     os.Getenv("ES_PASSWORD"),
		KAFKA_ADDRESS:   os.Getenv("KAFKA_ADDRESS"),
		S3_ENDPOINT:     os.Getenv("S3_ENDPOINT"),
		S3_REGION:       os.Getenv("S3_REGION"),
		S3_BUCKET:       os.Getenv("S3_BUCKET"),
		S3_ACCESS_KEY:   os.Getenv("S3_ACCESS_KEY"),
		S3_SECRET_KEY:   os.Getenv("S3_SECRET_KEY"),
		S3_PUBLIC_URL:   os.Getenv("S3_PUBLIC_URL"),
		SMTP_ADDR:       os.Getenv("SMTP_ADDR"),
		SMTP_FROM:       os.Getenv("SMTP_FROM"),
		CONTACT_EMAIL:   os.Getenv("CONTACT_EMAIL"),
	}

	return config, nil
}

// AdminAllowlist splits ADMIN_ALLOWLIST into trimmed entries. Each entry is
// matched against the username or email of a registering account.
func (c *Config) AdminAllowlist() []string {
	if c.ADMIN_ALLOWLIST == "" {
		return nil
	}
	parts := strings.Split(c.ADMIN_ALLOWLIST, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func InitDB(configuration *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER,
		configuration.DB_PASSWORD,
		configuration.DB_HOST,
		configuration.DB_PORT,
		configuration.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Session{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}
