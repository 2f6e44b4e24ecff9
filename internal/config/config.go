package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

type Config struct {
	GeminiAPIKey string
	GeminiModel  string
	AppID        string
	SessionKey   string

	StoreBackend       string
	DatabaseURL        string
	FirestoreProjectID string
	FirestoreCredsFile string

	HTTPPort string
	LogLevel string
	LogFile  string

	AdminUserID          string
	GuestQueryLimit      int
	RegisteredQueryLimit int

	OIDC OIDCConfig

	TelemetryEnabled bool
}

// OIDCConfig is only usable when every field is set.
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (o OIDCConfig) Enabled() bool {
	return o.IssuerURL != "" && o.ClientID != "" && o.ClientSecret != "" && o.RedirectURL != ""
}

// MissingKeysError lists every required key that was absent at load time.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

// Load reads the environment (and a .env file when present). The returned
// Config is always usable for logging and serving; a non-nil error is a
// *MissingKeysError and means the service must run degraded.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}
	return fromEnv()
}

func fromEnv() (Config, error) {
	cfg := Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AppID:        getEnv("XLERION_APP_ID", ""),
		SessionKey:   getEnv("SESSION_SECRET", ""),

		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		DatabaseURL:        getEnv("DATABASE_URL", "xlerion.db"),
		FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreCredsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		HTTPPort: getEnv("HTTP_PORT", "8080"),
		LogLevel: strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		LogFile:  getEnv("LOG_FILE", "logs/xlerion.log"),

		AdminUserID:          getEnv("ADMIN_USER_ID", ""),
		GuestQueryLimit:      getEnvAsInt("GUEST_QUERY_LIMIT", 5),
		RegisteredQueryLimit: getEnvAsInt("REGISTERED_QUERY_LIMIT", 100),

		OIDC: OIDCConfig{
			IssuerURL:    getEnv("OIDC_ISSUER_URL", ""),
			ClientID:     getEnv("OIDC_CLIENT_ID", ""),
			ClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("OIDC_REDIRECT_URL", ""),
		},

		TelemetryEnabled: getEnvAsBool("TELEMETRY_ENABLED", false),
	}

	var missing []string
	if cfg.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if cfg.AppID == "" {
		missing = append(missing, "XLERION_APP_ID")
	}
	if cfg.SessionKey == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	switch cfg.StoreBackend {
	case BackendSQLite:
	case BackendFirestore:
		if cfg.FirestoreProjectID == "" {
			missing = append(missing, "FIRESTORE_PROJECT_ID")
		}
	default:
		slog.Warn("unknown STORE_BACKEND, falling back to sqlite", "backend", cfg.StoreBackend)
		cfg.StoreBackend = BackendSQLite
	}

	if len(missing) > 0 {
		return cfg, &MissingKeysError{Keys: missing}
	}
	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
