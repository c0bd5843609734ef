package config

import (
	"strings"
	"testing"
)

func TestValidatorRequireNonEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{
			name:      "non-empty value",
			value:     "valid",
			wantError: false,
		},
		{
			name:      "empty value",
			value:     "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequireNonEmpty("test_field", tt.value)
			hasError := v.HasErrors()
			if hasError != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", hasError, tt.wantError)
			}
		})
	}
}

func TestValidatorRanges(t *testing.T) {
	v := NewValidator()
	v.ValidateRange("count", 5, 1, 10)
	v.ValidateFloatRange("overlap", 0.55, 0, 1)
	if v.HasErrors() {
		t.Fatalf("expected no errors, got %v", v.Errors())
	}

	v = NewValidator()
	v.ValidateRange("count", 11, 1, 10)
	v.ValidateFloatRange("overlap", 1.2, 0, 1)
	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(v.Errors()))
	}
}

func TestValidateEvidenceOptions(t *testing.T) {
	if err := ValidateEvidenceOptions(1, 12, 6, 0.55); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
	err := ValidateEvidenceOptions(0, 12, 6, 1.5)
	if err == nil {
		t.Fatalf("expected error for invalid options")
	}
	if !strings.Contains(err.Error(), "minQuotes") {
		t.Errorf("error should name minQuotes, got %v", err)
	}
}

func TestValidateChunkingConfig(t *testing.T) {
	if err := ValidateChunkingConfig(800, 120); err != nil {
		t.Fatalf("expected valid chunking config, got %v", err)
	}
	if err := ValidateChunkingConfig(800, 800); err == nil {
		t.Fatalf("overlap equal to chunk size must be rejected")
	}
}

func TestValidateLLMConfig(t *testing.T) {
	if err := ValidateLLMConfig("sk-test", "gpt-4o-mini", 0.2, 800); err != nil {
		t.Fatalf("expected valid LLM config, got %v", err)
	}
	if err := ValidateLLMConfig("", "", 3.0, 0); err == nil {
		t.Fatalf("expected error for invalid LLM config")
	}
}
