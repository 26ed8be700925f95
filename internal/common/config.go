package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	LLM     LLMConfig
	Convert ConvertConfig
	Prompt  PromptConfig
}

// LLMConfig holds model-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// ConvertConfig holds DOCX-to-PDF conversion configuration
type ConvertConfig struct {
	Soffice string // binary name or absolute path of the LibreOffice launcher
	Timeout time.Duration
}

// PromptConfig bounds the assembled request size
type PromptConfig struct {
	MaxTextChars int
	MaxImageDim  int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.35),
			MaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 1800),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 90*time.Second),
		},
		Convert: ConvertConfig{
			Soffice: getEnv("SOFFICE_BIN", "soffice"),
			Timeout: getEnvAsDuration("CONVERT_TIMEOUT", 2*time.Minute),
		},
		Prompt: PromptConfig{
			MaxTextChars: getEnvAsInt("PROMPT_MAX_TEXT_CHARS", 15000),
			MaxImageDim:  getEnvAsInt("PROMPT_MAX_IMAGE_DIM", 1024),
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

// Validate refuses to start without credentials: a missing API key would
// only fail later on every model request.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrCredentialMissing)
	}
	if c.LLM.Model == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_MODEL must not be empty", ErrInvalidInput)
	}
	return nil
}
