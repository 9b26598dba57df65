package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting list values

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort        string   // Application port
	DBDriver       string   // Database driver: mysql, postgres or sqlite
	DBUser         string   // Database user
	DBPassword     string   // Database password
	DBHost         string   // Database host
	DBPort         string   // Database port
	DBName         string   // Database name
	DBPath         string   // SQLite database file
	JWTSecret      string   // JWT secret key
	RedisAddr      string   // Redis server address
	RedisPass      string   // Redis password
	RedisDB        int      // Redis database number
	AllowedOrigins []string // CORS allow list, "*" allows any origin
	UploadDir      string   // Directory holding attachment objects
	PublicBaseURL  string   // Base URL attachment links are built from
	IsProd         bool     // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	appPort := getEnv("APP_PORT", "5000")
	return &Config{
		AppPort:        appPort,                                                // Application port
		DBDriver:       getEnv("DB_DRIVER", "mysql"),                           // Database driver
		DBUser:         os.Getenv("DB_USER"),                                   // Database user
		DBPassword:     os.Getenv("DB_PASSWORD"),                               // Database password
		DBHost:         os.Getenv("DB_HOST"),                                   // Database host
		DBPort:         os.Getenv("DB_PORT"),                                   // Database port
		DBName:         os.Getenv("DB_NAME"),                                   // Database name
		DBPath:         getEnv("DB_PATH", "bug_tracker.db"),                    // SQLite file
		JWTSecret:      os.Getenv("JWT_SECRET"),                                // JWT secret key
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),                 // Redis server address
		RedisPass:      os.Getenv("REDIS_PASS"),                                // Redis password
		RedisDB:        redisDB,                                                // Redis database number
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),              // CORS allow list
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),                        // Attachment directory
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:"+appPort), // Attachment link base
		IsProd:         os.Getenv("IS_PROD") == "true",                         // Is production environment
	}
}

// getEnv returns the variable's value or def when unset or empty
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitList splits a comma separated value, dropping blanks
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
