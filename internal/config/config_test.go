package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Save original env vars
	origPort := os.Getenv("PROPOSAL_SERVER__PORT")
	defer func() {
		if origPort != "" {
			os.Setenv("PROPOSAL_SERVER__PORT", origPort)
		} else {
			os.Unsetenv("PROPOSAL_SERVER__PORT")
		}
	}()

	t.Run("defaults", func(t *testing.T) {
		os.Unsetenv("PROPOSAL_SERVER__PORT")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 8080 {
			t.Errorf("Load() port = %v, want 8080", cfg.Server.Port)
		}
		if cfg.RateLimit.MaxRequests != 10 {
			t.Errorf("Load() rate limit max = %v, want 10", cfg.RateLimit.MaxRequests)
		}
		if cfg.RateLimit.WindowSeconds != 60 {
			t.Errorf("Load() rate limit window = %v, want 60", cfg.RateLimit.WindowSeconds)
		}
		if cfg.Webhooks.TimeoutSeconds != 30 {
			t.Errorf("Load() webhook timeout = %v, want 30", cfg.Webhooks.TimeoutSeconds)
		}
	})

	t.Run("env var port override", func(t *testing.T) {
		os.Setenv("PROPOSAL_SERVER__PORT", "9000")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 9000 {
			t.Errorf("Load() port = %v, want 9000", cfg.Server.Port)
		}
	})

	t.Run("webhook url from env", func(t *testing.T) {
		os.Setenv("PROPOSAL_WEBHOOKS__PROPOSAL_URL", "https://hooks.example.com/proposal")
		defer os.Unsetenv("PROPOSAL_WEBHOOKS__PROPOSAL_URL")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Webhooks.ProposalURL != "https://hooks.example.com/proposal" {
			t.Errorf("Load() proposal url = %q", cfg.Webhooks.ProposalURL)
		}
	})
}

func TestSubstituteEnvVars(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple substitution",
			input: "${TEST_VAR}",
			want:  "test-value",
		},
		{
			name:  "substitution in string",
			input: "prefix-${TEST_VAR}-suffix",
			want:  "prefix-test-value-suffix",
		},
		{
			name:  "no substitution",
			input: "plain-string",
			want:  "plain-string",
		},
		{
			name:  "undefined var",
			input: "${UNDEFINED_VAR}",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substituteEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("substituteEnvVars() = %v, want %v", got, tt.want)
			}
		})
	}
}
