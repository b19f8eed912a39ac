package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/clinsights/pubscreen/internal/model"
)

func TestApplyEnv_AzureCredentials(t *testing.T) {
	t.Setenv("AZURE_OPENAI_API_ENDPOINT", "https://unit.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_KEY", "unit-key")
	t.Setenv("AZURE_OPENAI_API_VERSION", "2024-06-01")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT", "gpt-4o-screen")
	t.Setenv("NCBI_API_KEY", "ncbi-unit")
	t.Setenv("NCBI_EMAIL", "ops@example.org")

	cfg := model.DefaultConfig()
	applyEnv(cfg)

	if cfg.LLM.Endpoint != "https://unit.openai.azure.com" {
		t.Errorf("Expected endpoint from environment, got %q", cfg.LLM.Endpoint)
	}
	if cfg.LLM.APIKey != "unit-key" {
		t.Errorf("Expected API key from environment, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.APIVersion != "2024-06-01" {
		t.Errorf("Expected API version from environment, got %q", cfg.LLM.APIVersion)
	}
	if cfg.LLM.Deployment != "gpt-4o-screen" {
		t.Errorf("Expected deployment from environment, got %q", cfg.LLM.Deployment)
	}
	if cfg.PubMed.APIKey != "ncbi-unit" {
		t.Errorf("Expected NCBI key from environment, got %q", cfg.PubMed.APIKey)
	}
	if cfg.PubMed.Email != "ops@example.org" {
		t.Errorf("Expected NCBI email from environment, got %q", cfg.PubMed.Email)
	}
}

func TestApplyEnv_EmptyEnvKeepsExisting(t *testing.T) {
	t.Setenv("AZURE_OPENAI_API_KEY", "")
	t.Setenv("AZURE_OPENAI_API_ENDPOINT", "")

	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "from-config-file"
	cfg.LLM.Endpoint = "https://file.openai.azure.com"
	applyEnv(cfg)

	if cfg.LLM.APIKey != "from-config-file" {
		t.Errorf("Expected config file key to survive empty environment, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Endpoint != "https://file.openai.azure.com" {
		t.Errorf("Expected config file endpoint to survive empty environment, got %q", cfg.LLM.Endpoint)
	}
}

func TestApplyEnv_ReadsOnlySelectedProviderFamily(t *testing.T) {
	t.Setenv("AZURE_OPENAI_API_KEY", "azure-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "openai"
	applyEnv(cfg)

	if cfg.LLM.APIKey != "openai-key" {
		t.Errorf("Expected the openai key for provider openai, got %q", cfg.LLM.APIKey)
	}
}

func TestBuildConfig_FlagsAndEnvLayering(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-unit")
	t.Setenv("AZURE_OPENAI_API_KEY", "azure-should-not-apply")

	flags := analyzeCmd.Flags()
	for name, value := range map[string]string{
		"provider": "openai",
		"workers":  "2",
		"csv":      "custom.csv",
		"model":    "gpt-4.1-mini",
	} {
		if err := flags.Set(name, value); err != nil {
			t.Fatalf("Set %s: %v", name, err)
		}
	}

	cfg, err := buildConfig(analyzeCmd)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.LLM.Provider != "openai" {
		t.Errorf("Expected provider openai, got %q", cfg.LLM.Provider)
	}
	// The provider flag must steer which credential family applyEnv reads
	if cfg.LLM.APIKey != "sk-unit" {
		t.Errorf("Expected the openai key, got %q", cfg.LLM.APIKey)
	}
	if cfg.Concurrency.Workers != 2 {
		t.Errorf("Expected 2 workers, got %d", cfg.Concurrency.Workers)
	}
	if cfg.Output.CSVPath != "custom.csv" {
		t.Errorf("Expected custom CSV path, got %q", cfg.Output.CSVPath)
	}
	if cfg.LLM.Model != "gpt-4.1-mini" {
		t.Errorf("Expected model override, got %q", cfg.LLM.Model)
	}
}

func TestRunAnalyze_MissingCredentialsProduceNoOutput(t *testing.T) {
	for _, key := range []string{
		"AZURE_OPENAI_API_ENDPOINT",
		"AZURE_OPENAI_API_KEY",
		"AZURE_OPENAI_API_VERSION",
		"AZURE_OPENAI_DEPLOYMENT",
	} {
		t.Setenv(key, "")
	}

	flags := analyzeCmd.Flags()
	if err := flags.Set("provider", "azure"); err != nil {
		t.Fatalf("Set provider: %v", err)
	}
	outPath := filepath.Join(t.TempDir(), "records.csv")
	if err := flags.Set("csv", outPath); err != nil {
		t.Fatalf("Set csv: %v", err)
	}

	rosterPath := filepath.Join(t.TempDir(), "roster.csv")
	if err := os.WriteFile(rosterPath, []byte("Last Name,First Name\nZhang,Wei\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	err := runAnalyze(analyzeCmd, []string{rosterPath})
	if err == nil {
		t.Fatal("Expected a configuration error")
	}
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *model.ConfigError, got %T: %v", err, err)
	}

	// The gate fires before any researcher runs, so no artifact appears
	if _, statErr := os.Stat(outPath); !os.IsNotExist(statErr) {
		t.Errorf("Expected no output artifact, stat err = %v", statErr)
	}
}
