// Package config loads server settings from the environment and an
// optional .env file, and builds the process logger.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port           int
	DatabasePath   string
	LogLevel       string
	LogFormat      string // text | json
	DefaultLocale  string
	CORSOrigins    []string
	UploadDir      string
	LeaveTypesFile string

	// BootstrapHRID seeds an HR account on an empty roster. Empty disables it.
	BootstrapHRID   string
	BootstrapHRName string
}

// Load reads .env from the working directory if present, then the
// environment. A missing .env is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		Port:           getEnvAsInt("PORT", 8080),
		DatabasePath:   getEnv("DATABASE_PATH", "leave.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "es"),
		CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		LeaveTypesFile: getEnv("LEAVE_TYPES_FILE", ""),

		BootstrapHRID:   getEnv("BOOTSTRAP_HR_ID", "hr-admin"),
		BootstrapHRName: getEnv("BOOTSTRAP_HR_NAME", "HR Admin"),
	}
}

// NewLogger builds a logrus logger from LogLevel and LogFormat. An
// unknown level falls back to info.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	valStr := getEnv(name, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsList(name string, defaultVal []string) []string {
	valStr := strings.TrimSpace(getEnv(name, ""))
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, v := range strings.Split(valStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
