package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Uploads  UploadsConfig
	Enhance  EnhanceConfig
	S3       S3Config
	AI       AIConfig
	Mail     MailConfig
	App      AppConfig
}

type ServerConfig struct {
	Port            string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver   string // "mongo" or "postgres"
	MongoURI string
	MongoDB  string
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FirebaseConfig struct {
	CredentialsPath string
	// DevHeader enables the X-User-Id identity header. Never set in production.
	DevHeader bool
}

type UploadsConfig struct {
	PublicDir    string
	TemplatesDir string
	URLPrefix    string
	FetchTimeout time.Duration
	MaxUploadMB  int
}

type EnhanceConfig struct {
	Python        string
	Script        string
	WorkDir       string
	Timeout       time.Duration
	MaxConcurrent int
	DPI           int
	RatePerMinute int
}

type S3Config struct {
	Bucket string
	Region string
	Prefix string
}

type AIConfig struct {
	Provider     string
	OpenAIKey    string
	OpenAIModel  string
	GeminiKey    string
	GeminiModel  string
	GeminiAPIURL string
}

type MailConfig struct {
	Provider             string
	From                 string
	ResendAPIKey         string
	ResendAPIURL         string
	GmailCredentialsPath string
	GmailSender          string
	AdminApproverEmail   string
	PublicBaseURL        string
	// VerifyRatePerMinute caps verification calls per client IP.
	VerifyRatePerMinute int
}

type AppConfig struct {
	Environment   string
	LogLevel      string
	Version       string
	SweepSchedule string
	SweepMaxAge   time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			CORSOrigins:     getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Driver:   strings.ToLower(getEnv("STORE_DRIVER", "mongo")),
			MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:  getEnv("MONGO_DB", "buildwise"),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "buildwise"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			DevHeader:       getEnvAsBool("AUTH_DEV_HEADER", false),
		},
		Uploads: UploadsConfig{
			PublicDir:    getEnv("PUBLIC_DIR", "public"),
			TemplatesDir: getEnv("TEMPLATES_DIR", ""),
			URLPrefix:    getEnv("PUBLIC_URL_PREFIX", "/uploads"),
			FetchTimeout: getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
			MaxUploadMB:  getEnvAsInt("MAX_UPLOAD_MB", 20),
		},
		Enhance: EnhanceConfig{
			Python:        getEnv("ENHANCE_PYTHON", "python3"),
			Script:        getEnv("ENHANCE_SCRIPT", "scripts/process_floor_plan.py"),
			WorkDir:       getEnv("ENHANCE_WORK_DIR", os.TempDir()),
			Timeout:       getEnvAsDuration("ENHANCE_TIMEOUT", 120*time.Second),
			MaxConcurrent: getEnvAsInt("ENHANCE_MAX_CONCURRENT", 4),
			DPI:           getEnvAsInt("ENHANCE_DPI", 300),
			RatePerMinute: getEnvAsInt("ENHANCE_RATE_PER_MIN", 6),
		},
		S3: S3Config{
			Bucket: getEnv("S3_BUCKET", ""),
			Region: getEnv("S3_REGION", "us-east-1"),
			Prefix: getEnv("S3_PREFIX", ""),
		},
		AI: AIConfig{
			Provider:     strings.ToLower(getEnv("AI_PROVIDER", "none")),
			OpenAIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
			GeminiKey:    getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash-preview-image-generation"),
			GeminiAPIURL: getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		},
		Mail: MailConfig{
			Provider:             strings.ToLower(getEnv("MAIL_PROVIDER", "log")),
			From:                 getEnv("MAIL_FROM", "BuildWise <no-reply@buildwise.ai>"),
			ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
			ResendAPIURL:         getEnv("RESEND_API_URL", "https://api.resend.com"),
			GmailCredentialsPath: getEnv("GMAIL_CREDENTIALS_PATH", ""),
			GmailSender:          getEnv("GMAIL_SENDER", ""),
			AdminApproverEmail:   getEnv("ADMIN_APPROVER_EMAIL", ""),
			PublicBaseURL:        getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
			VerifyRatePerMinute:  getEnvAsInt("VERIFY_RATE_PER_MIN", 10),
		},
		App: AppConfig{
			Environment:   getEnv("APP_ENV", "development"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			Version:       getEnv("APP_VERSION", "1.0.0"),
			SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 */15 * * * *"),
			SweepMaxAge:   getEnvAsDuration("SWEEP_MAX_AGE", time.Hour),
		},
	}

	if cfg.Uploads.TemplatesDir == "" {
		cfg.Uploads.TemplatesDir = cfg.Uploads.PublicDir + "/uploads/floor-plans"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Driver {
	case "mongo":
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=mongo")
		}
		if c.Store.MongoDB == "" {
			return fmt.Errorf("MONGO_DB is required when STORE_DRIVER=mongo")
		}
	case "postgres":
		if c.Database.DSN == "" && c.Database.Host == "" {
			return fmt.Errorf("DB_DSN or DB_HOST is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be mongo or postgres, got %q", c.Store.Driver)
	}

	if c.Enhance.Timeout <= 0 {
		return fmt.Errorf("ENHANCE_TIMEOUT must be positive")
	}

	switch c.AI.Provider {
	case "none", "":
	case "openai":
		if c.AI.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=openai")
		}
	case "gemini":
		if c.AI.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("AI_PROVIDER must be openai, gemini or none, got %q", c.AI.Provider)
	}

	switch c.Mail.Provider {
	case "log":
	case "resend":
		if c.Mail.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when MAIL_PROVIDER=resend")
		}
	case "gmail":
		if c.Mail.GmailCredentialsPath == "" || c.Mail.GmailSender == "" {
			return fmt.Errorf("GMAIL_CREDENTIALS_PATH and GMAIL_SENDER are required when MAIL_PROVIDER=gmail")
		}
	default:
		return fmt.Errorf("MAIL_PROVIDER must be resend, gmail or log, got %q", c.Mail.Provider)
	}

	if c.App.Environment == "production" && c.Firebase.DevHeader {
		return fmt.Errorf("AUTH_DEV_HEADER must not be enabled in production")
	}

	return nil
}

// PostgresDSN returns DB_DSN when set, otherwise builds one from the DB_* parts.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid bool for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
