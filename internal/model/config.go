package model

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete runtime configuration, assembled once at startup
// from defaults, config file, environment and flags. It is never mutated
// after validation.
type Config struct {
	Host        HostConfig        `yaml:"host"`
	PubMed      PubMedConfig      `yaml:"pubmed"`
	LLM         LLMConfig         `yaml:"llm"`
	Watchlist   WatchlistConfig   `yaml:"watchlist"`
	HTTP        HTTPConfig        `yaml:"http"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Output      OutputConfig      `yaml:"output"`
}

// HostConfig identifies the institution whose researchers are screened
type HostConfig struct {
	Institution string `yaml:"institution"` // Used in the search query and in every output record
}

// PubMedConfig controls the publication search provider
type PubMedConfig struct {
	BaseURL    string `yaml:"base_url"`          // NCBI E-utilities base URL
	APIKey     string `yaml:"api_key,omitempty"` // Optional; raises the NCBI rate allowance
	Tool       string `yaml:"tool"`              // E-utilities etiquette parameter
	Email      string `yaml:"email,omitempty"`   // E-utilities etiquette parameter
	MaxResults int    `yaml:"max_results"`       // Cap on publications fetched per researcher
	Sort       string `yaml:"sort"`              // esearch sort order
}

// LLMConfig controls the text-analysis provider
type LLMConfig struct {
	Provider    string  `yaml:"provider"`              // "azure", "openai", "anthropic", "ollama"
	Model       string  `yaml:"model"`                 // Model name (ignored by azure when deployment set)
	Deployment  string  `yaml:"deployment,omitempty"`  // Azure deployment name
	APIKey      string  `yaml:"api_key,omitempty"`     // Prefer environment variables
	Endpoint    string  `yaml:"endpoint,omitempty"`    // Azure resource endpoint
	APIVersion  string  `yaml:"api_version,omitempty"` // Azure API version
	BaseURL     string  `yaml:"base_url,omitempty"`    // OpenAI-compatible or Ollama base URL
	Timeout     int     `yaml:"timeout"`               // Per-request timeout in seconds
	MaxTokens   int     `yaml:"max_tokens"`            // Completion token cap
	Temperature float32 `yaml:"temperature"`
}

// WatchCountry is one watch-list entry: a canonical country name plus the
// variants that must map to it
type WatchCountry struct {
	Name    string   `yaml:"name" json:"name"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// WatchlistConfig is the ordered list of countries of concern. Order is
// significant: flagged countries in output records follow it.
type WatchlistConfig struct {
	Countries []WatchCountry `yaml:"countries" json:"countries"`
}

// HTTPConfig controls outbound HTTP behavior
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`       // Per-request timeout
	UserAgent    string        `yaml:"user_agent"`    // Sent on every request
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls"`          // Skip TLS verification (self-signed endpoints)
	HTTPProxy    string        `yaml:"http_proxy,omitempty"`  // Empty = standard proxy env vars
	HTTPSProxy   string        `yaml:"https_proxy,omitempty"`
	NoProxy      string        `yaml:"no_proxy,omitempty"`
}

// CacheConfig controls provider-response caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir,omitempty"` // Empty = <user cache dir>/pubscreen
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ConcurrencyConfig bounds researcher-level parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"` // 1 = sequential
}

// RateLimitConfig throttles outbound providers (requests/second per host)
type RateLimitConfig struct {
	PubMedRPS   float64 `yaml:"pubmed_rps"`   // NCBI allows 3/s, 10/s with an API key
	PubMedBurst int     `yaml:"pubmed_burst"`
	LLMRPS      float64 `yaml:"llm_rps"`
	LLMBurst    int     `yaml:"llm_burst"`
}

// OutputConfig controls run artifacts
type OutputConfig struct {
	CSVPath     string `yaml:"csv_path"`               // Disclosure records CSV
	SummaryPath string `yaml:"summary_path,omitempty"` // Optional JSON run summary
	Verbose     bool   `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults. Callers overlay config file,
// environment and flags on top.
func DefaultConfig() *Config {
	return &Config{
		Host: HostConfig{
			Institution: "Boston Children's Hospital",
		},
		PubMed: PubMedConfig{
			BaseURL:    "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			Tool:       "pubscreen",
			MaxResults: 25,
			Sort:       "pub_date",
		},
		LLM: LLMConfig{
			Provider:    "azure",
			Model:       "gpt-4o",
			Timeout:     60,
			MaxTokens:   1000,
			Temperature: 0.2,
		},
		Watchlist: DefaultWatchlist(),
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "pubscreen/0.1 (+https://github.com/clinsights/pubscreen)",
			MaxBodyBytes: 8_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimit: RateLimitConfig{
			PubMedRPS:   3,
			PubMedBurst: 3,
			LLMRPS:      2,
			LLMBurst:    2,
		},
		Output: OutputConfig{
			CSVPath: "foreign_disclosure_analysis.csv",
		},
	}
}

// DefaultWatchlist returns the built-in countries of concern with their
// common variants
func DefaultWatchlist() WatchlistConfig {
	return WatchlistConfig{
		Countries: []WatchCountry{
			{Name: "Russia", Aliases: []string{"Russian Federation"}},
			{Name: "North Korea", Aliases: []string{"DPRK", "Democratic People's Republic of Korea", "Korea, North"}},
			{Name: "Iran", Aliases: []string{"Islamic Republic of Iran", "Iran, Islamic Republic of"}},
			{Name: "China", Aliases: []string{"PRC", "People's Republic of China", "Mainland China"}},
		},
	}
}

// ConfigError reports fatal configuration problems. A run never starts and
// no output artifact is produced while one is outstanding.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "config: " + strings.Join(e.Problems, "; ")
}

// Validate checks the assembled configuration before any work begins
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Host.Institution) == "" {
		problems = append(problems, "host.institution must not be empty")
	}
	if c.PubMed.BaseURL == "" {
		problems = append(problems, "pubmed.base_url must not be empty")
	}
	if c.PubMed.MaxResults < 1 {
		problems = append(problems, fmt.Sprintf("pubmed.max_results must be >= 1, got %d", c.PubMed.MaxResults))
	}
	if c.Concurrency.Workers < 1 {
		problems = append(problems, fmt.Sprintf("concurrency.workers must be >= 1, got %d", c.Concurrency.Workers))
	}
	if c.Output.CSVPath == "" {
		problems = append(problems, "output.csv_path must not be empty")
	}
	if len(c.Watchlist.Countries) == 0 {
		problems = append(problems, "watchlist must name at least one country")
	}
	for i, wc := range c.Watchlist.Countries {
		if strings.TrimSpace(wc.Name) == "" {
			problems = append(problems, fmt.Sprintf("watchlist country %d has an empty name", i))
		}
	}

	switch c.LLM.Provider {
	case "":
		problems = append(problems, "llm.provider must be set (azure, openai, anthropic, ollama)")
	case "azure":
		if c.LLM.Endpoint == "" {
			problems = append(problems, "llm.endpoint required for azure (AZURE_OPENAI_API_ENDPOINT)")
		}
		if c.LLM.APIKey == "" {
			problems = append(problems, "llm.api_key required for azure (AZURE_OPENAI_API_KEY)")
		}
		if c.LLM.Deployment == "" {
			problems = append(problems, "llm.deployment required for azure (AZURE_OPENAI_DEPLOYMENT)")
		}
	case "openai":
		if c.LLM.APIKey == "" {
			problems = append(problems, "llm.api_key required for openai (OPENAI_API_KEY)")
		}
	case "anthropic", "claude":
		if c.LLM.APIKey == "" {
			problems = append(problems, "llm.api_key required for anthropic (ANTHROPIC_API_KEY)")
		}
	case "ollama":
		// Local provider, no credentials
	default:
		problems = append(problems, fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider))
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}
