package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Server
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Database
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Import / listing
	ImportMaxUploadMB      int
	ListingDefaultPageSize int
}

// Load loads configuration from .env, an optional YAML file named by
// GASTOS_CONFIG, and environment variables (highest precedence).
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("GASTOS_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	v.AutomaticEnv()

	config := &Config{
		// Server
		Port:               v.GetString("PORT"),
		Env:                v.GetString("ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		// Database
		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBPath:     v.GetString("DB_PATH"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		ImportMaxUploadMB:      v.GetInt("IMPORT_MAX_UPLOAD_MB"),
		ListingDefaultPageSize: v.GetInt("LISTING_DEFAULT_PAGE_SIZE"),
	}

	if config.ImportMaxUploadMB <= 0 {
		log.Printf("Warning: invalid IMPORT_MAX_UPLOAD_MB value '%d', falling back to 10\n", config.ImportMaxUploadMB)
		config.ImportMaxUploadMB = 10
	}
	if config.ListingDefaultPageSize < 1 || config.ListingDefaultPageSize > 200 {
		log.Printf("Warning: invalid LISTING_DEFAULT_PAGE_SIZE value '%d', falling back to 50\n", config.ListingDefaultPageSize)
		config.ListingDefaultPageSize = 50
	}

	return config, nil
}

// MaxUploadBytes returns the upload ceiling for CSV imports.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.ImportMaxUploadMB) << 20
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "gastos.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "gastos")
	v.SetDefault("DB_PASSWORD", "gastos")
	v.SetDefault("DB_NAME", "gastos")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("IMPORT_MAX_UPLOAD_MB", 10)
	v.SetDefault("LISTING_DEFAULT_PAGE_SIZE", 50)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
