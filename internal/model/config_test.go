package model

import (
	"errors"
	"strings"
	"testing"
)

func validTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "azure"
	cfg.LLM.Endpoint = "https://example.openai.azure.com"
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.Deployment = "gpt-4o"
	return cfg
}

func TestConfig_Validate_Defaults(t *testing.T) {
	if err := validTestConfig().Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}
}

func TestConfig_Validate_MissingAzureCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "azure"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected error for azure without credentials")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %T", err)
	}
	if len(cfgErr.Problems) != 3 {
		t.Errorf("Expected 3 problems (endpoint, key, deployment), got %d: %v", len(cfgErr.Problems), cfgErr.Problems)
	}
}

func TestConfig_Validate_UnknownProvider(t *testing.T) {
	cfg := validTestConfig()
	cfg.LLM.Provider = "watson"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "watson") {
		t.Errorf("Expected error to name the provider, got %v", err)
	}
}

func TestConfig_Validate_OllamaNeedsNoKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "ollama"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected ollama to validate without credentials, got %v", err)
	}
}

func TestConfig_Validate_CollectsAllProblems(t *testing.T) {
	cfg := validTestConfig()
	cfg.Host.Institution = "  "
	cfg.PubMed.MaxResults = 0
	cfg.Output.CSVPath = ""
	cfg.Watchlist.Countries = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected error")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %T", err)
	}
	if len(cfgErr.Problems) != 4 {
		t.Errorf("Expected 4 problems, got %d: %v", len(cfgErr.Problems), cfgErr.Problems)
	}
}

func TestDefaultWatchlist_Order(t *testing.T) {
	wl := DefaultWatchlist()
	want := []string{"Russia", "North Korea", "Iran", "China"}

	if len(wl.Countries) != len(want) {
		t.Fatalf("Expected %d countries, got %d", len(want), len(wl.Countries))
	}
	for i, name := range want {
		if wl.Countries[i].Name != name {
			t.Errorf("Expected country %d to be %s, got %s", i, name, wl.Countries[i].Name)
		}
	}
}

func TestResearcher_Key_CaseInsensitive(t *testing.T) {
	a := Researcher{LastName: "Smith", FirstName: "Jane"}
	b := Researcher{LastName: "SMITH", FirstName: " jane "}

	if a.Key() != b.Key() {
		t.Errorf("Expected identical keys, got %q and %q", a.Key(), b.Key())
	}
	if a.DisplayName() != "Jane Smith" {
		t.Errorf("Expected display name 'Jane Smith', got %q", a.DisplayName())
	}
}
