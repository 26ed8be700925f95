package common

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"OPENAI_MODEL", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_TEMPERATURE",
		"OPENAI_MAX_TOKENS", "OPENAI_TIMEOUT", "SOFFICE_BIN", "CONVERT_TIMEOUT",
		"PROMPT_MAX_TEXT_CHARS", "PROMPT_MAX_IMAGE_DIM",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.35 {
		t.Errorf("temperature = %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 1800 {
		t.Errorf("max tokens = %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Timeout != 90*time.Second {
		t.Errorf("timeout = %s", cfg.LLM.Timeout)
	}
	if cfg.Convert.Soffice != "soffice" {
		t.Errorf("soffice = %q", cfg.Convert.Soffice)
	}
	if cfg.Prompt.MaxTextChars != 15000 || cfg.Prompt.MaxImageDim != 1024 {
		t.Errorf("prompt limits = %+v", cfg.Prompt)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("OPENAI_TEMPERATURE", "0.7")
	t.Setenv("OPENAI_TIMEOUT", "30s")
	t.Setenv("PROMPT_MAX_TEXT_CHARS", "500")

	cfg := LoadConfig()
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("temperature = %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("timeout = %s", cfg.LLM.Timeout)
	}
	if cfg.Prompt.MaxTextChars != 500 {
		t.Errorf("max text chars = %d", cfg.Prompt.MaxTextChars)
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Model: "gpt-4o-mini"}}
	err := cfg.Validate()
	if !errors.Is(err, ErrCredentialMissing) {
		t.Errorf("error = %v, want ErrCredentialMissing", err)
	}

	cfg.LLM.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
