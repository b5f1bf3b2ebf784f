package common

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Canvas   CanvasConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Quota    QuotaConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// CanvasConfig holds page normalization settings
type CanvasConfig struct {
	Size        int
	PDFScale    float64
	MaxPages    int
	PageWorkers int
	Pdftoppm    string
	Pdfinfo     string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine        string // "exec" | "gosseract" | "none"
	Tesseract     string
	Lang          string
	TessdataDir   string
	PSM           int
	RefineTimeout time.Duration
	RefinePadding float64
}

// LLMConfig holds vision-model configuration
type LLMConfig struct {
	Provider    string // "gemini" | "openai"
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	MaxAttempts int
}

// QuotaConfig holds per-user analysis limits
type QuotaConfig struct {
	DailyLimit int
	Timezone   string
}

// LoadConfig loads configuration from environment variables, after merging
// any .env file found in the working directory.
func LoadConfig() *Config {
	// .env is optional; variables already in the environment win
	_ = godotenv.Load()

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "gemini"))
	apiKey := getEnv("GEMINI_API_KEY", "")
	model := getEnv("GEMINI_MODEL", "gemini-2.0-flash")
	if provider == "openai" {
		apiKey = getEnv("OPENAI_API_KEY", "")
		model = getEnv("OPENAI_MODEL", "gpt-4o-mini")
	}

	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Canvas: CanvasConfig{
			Size:        getEnvAsInt("CANVAS_SIZE", 1000),
			PDFScale:    getEnvAsFloat64("PDF_SCALE", 2.0),
			MaxPages:    getEnvAsInt("MAX_PAGES", 10),
			PageWorkers: getEnvAsInt("PAGE_WORKERS", 4),
			Pdftoppm:    getEnv("PDFTOPPM", "pdftoppm"),
			Pdfinfo:     getEnv("PDFINFO", "pdfinfo"),
		},
		OCR: OCRConfig{
			Engine:        strings.ToLower(getEnv("OCR_ENGINE", "exec")),
			Tesseract:     getEnv("TESSERACT", "tesseract"),
			Lang:          getEnv("TESSERACT_LANG", "jpn+eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			PSM:           getEnvAsInt("TESSERACT_PSM", 6),
			RefineTimeout: getEnvAsDuration("REFINE_TIMEOUT", 5*time.Second),
			RefinePadding: getEnvAsFloat64("REFINE_PADDING", 15),
		},
		LLM: LLMConfig{
			Provider:    provider,
			Model:       model,
			APIKey:      apiKey,
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			MaxAttempts: getEnvAsInt("LLM_MAX_ATTEMPTS", 3),
		},
		Quota: QuotaConfig{
			DailyLimit: getEnvAsInt("DAILY_ANALYSIS_LIMIT", 3),
			Timezone:   getEnv("QUOTA_TIMEZONE", "Asia/Tokyo"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the settings every binary depends on.
func (c *Config) Validate() error {
	if c.Canvas.Size <= 0 {
		return NewAppError(CodeConfig, "CANVAS_SIZE must be positive", ErrInvalidInput)
	}
	if c.Canvas.PDFScale <= 0 {
		return NewAppError(CodeConfig, "PDF_SCALE must be positive", ErrInvalidInput)
	}
	switch c.OCR.Engine {
	case "exec", "gosseract", "none":
	default:
		return NewAppError(CodeConfig, "OCR_ENGINE must be exec, gosseract or none", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return NewAppError(CodeConfig, "LLM_PROVIDER must be gemini or openai", ErrInvalidInput)
	}
	if c.Quota.DailyLimit < 0 {
		return NewAppError(CodeConfig, "DAILY_ANALYSIS_LIMIT must not be negative", ErrInvalidInput)
	}
	if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
		return NewAppError(CodeConfig, "QUOTA_TIMEZONE is not a known location", err)
	}
	return nil
}

// ValidateServer additionally requires what the daemon needs to serve analyses.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.LLM.APIKey == "" {
		return NewAppError(CodeConfig, "vision model API key is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
