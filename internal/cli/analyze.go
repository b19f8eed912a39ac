package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/clinsights/pubscreen/internal/cache"
	"github.com/clinsights/pubscreen/internal/extract"
	"github.com/clinsights/pubscreen/internal/llm"
	"github.com/clinsights/pubscreen/internal/model"
	"github.com/clinsights/pubscreen/internal/pipeline"
	"github.com/clinsights/pubscreen/internal/pubmed"
	"github.com/clinsights/pubscreen/internal/report"
	"github.com/clinsights/pubscreen/internal/roster"
	"github.com/clinsights/pubscreen/internal/watchlist"
	"github.com/clinsights/pubscreen/internal/worker"
)

var (
	outCSV        string
	outSummary    string
	runTimeout    time.Duration
	workers       int
	noCache       bool
	insecureTLS   bool
	llmProvider   string
	llmModel      string
	llmDeployment string
	watchlistPath string
	hostName      string
	maxPubs       int
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <roster.csv>",
	Short: "Analyze a researcher roster for foreign disclosures",
	Long: `Analyze reads a roster CSV (last name, first name), searches PubMed
for each researcher's publications at the host institution, extracts
countries, institutions and funding sources from each publication via
the configured text-analysis provider, matches countries against the
watch-list, and writes one scored disclosure record per publication.

Failures are isolated: a publication that cannot be analyzed is logged
and skipped, a researcher whose search fails is skipped, and the run
continues. Missing provider credentials abort the run before any
researcher is processed.

Example:
  pubscreen analyze researchers.csv
  pubscreen analyze researchers.csv --provider openai --workers 1
  pubscreen analyze researchers.csv --csv out.csv --summary run.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outCSV, "csv", "foreign_disclosure_analysis.csv", "output CSV path")
	analyzeCmd.Flags().StringVar(&outSummary, "summary", "", "output JSON run summary path (optional)")

	// Run flags
	analyzeCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout")
	analyzeCmd.Flags().IntVar(&workers, "workers", 4, "concurrent researchers (1 = sequential)")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable provider response cache")
	analyzeCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed endpoints)")

	// Provider flags
	analyzeCmd.Flags().StringVar(&llmProvider, "provider", "azure", "text-analysis provider (azure, openai, anthropic, ollama)")
	analyzeCmd.Flags().StringVar(&llmModel, "model", "", "text-analysis model (default: provider default)")
	analyzeCmd.Flags().StringVar(&llmDeployment, "deployment", "", "Azure OpenAI deployment (default: AZURE_OPENAI_DEPLOYMENT)")

	// Analysis flags
	analyzeCmd.Flags().StringVar(&watchlistPath, "watchlist", "", "watch-list YAML path (default: built-in list)")
	analyzeCmd.Flags().StringVar(&hostName, "host", "", "host institution for search and records (default: built-in)")
	analyzeCmd.Flags().IntVar(&maxPubs, "max-publications", 25, "publications fetched per researcher")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	rosterPath := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	logger := newLogger()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// The gate runs before any work: a run must never start with
	// missing credentials and fail halfway through the roster.
	if err := cfg.Validate(); err != nil {
		return err
	}

	researchers, rejected, err := roster.Load(rosterPath)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	for _, rowErr := range rejected {
		logger.Warn("roster row rejected",
			slog.Int("line", rowErr.Line),
			slog.String("reason", rowErr.Reason))
	}
	if len(researchers) == 0 {
		return fmt.Errorf("roster %s has no usable researchers", rosterPath)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Roster: %d researchers (%d rows rejected)\n", len(researchers), len(rejected))
		fmt.Fprintf(os.Stderr, "Host: %s\n", cfg.Host.Institution)
		fmt.Fprintf(os.Stderr, "Provider: %s\n", cfg.LLM.Provider)
		fmt.Fprintln(os.Stderr)
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	rep, err := p.Run(ctx, researchers)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := report.WriteCSV(rep.Records, cfg.Output.CSVPath); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote records: %s\n", cfg.Output.CSVPath)
	}

	if cfg.Output.SummaryPath != "" {
		if err := report.WriteJSON(rep, cfg.Output.SummaryPath); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote summary: %s\n", cfg.Output.SummaryPath)
		}
	}

	report.PrintSummary(os.Stderr, rep)
	return nil
}

// buildConfig assembles the run configuration: defaults, then config
// file, then environment, then flags
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()

	if err := loadConfigFile(cfg); err != nil {
		return nil, err
	}

	// Provider selection must precede applyEnv: the environment is read
	// for the credential family of the selected provider.
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.LLM.Provider = llmProvider
	}
	applyEnv(cfg)

	if flags.Changed("csv") {
		cfg.Output.CSVPath = outCSV
	}
	if flags.Changed("summary") {
		cfg.Output.SummaryPath = outSummary
	}
	if flags.Changed("workers") {
		cfg.Concurrency.Workers = workers
	}
	if flags.Changed("max-publications") {
		cfg.PubMed.MaxResults = maxPubs
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if llmDeployment != "" {
		cfg.LLM.Deployment = llmDeployment
	}
	if hostName != "" {
		cfg.Host.Institution = hostName
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	cfg.Output.Verbose = verbose

	if watchlistPath != "" {
		wl, err := watchlist.Load(watchlistPath)
		if err != nil {
			return nil, fmt.Errorf("load watchlist: %w", err)
		}
		cfg.Watchlist = *wl
	}

	return cfg, nil
}

// loadConfigFile overlays the viper-located YAML config, when present
func loadConfigFile(cfg *model.Config) error {
	path := viper.ConfigFileUsed()
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv reads provider credentials from the environment. Keys belong
// in the environment or .env, never in config files.
func applyEnv(cfg *model.Config) {
	switch cfg.LLM.Provider {
	case "azure":
		if v := os.Getenv("AZURE_OPENAI_API_ENDPOINT"); v != "" {
			cfg.LLM.Endpoint = v
		}
		if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" {
			cfg.LLM.APIKey = v
		}
		if v := os.Getenv("AZURE_OPENAI_API_VERSION"); v != "" {
			cfg.LLM.APIVersion = v
		}
		if v := os.Getenv("AZURE_OPENAI_DEPLOYMENT"); v != "" {
			cfg.LLM.Deployment = v
		}
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.LLM.APIKey = v
		}
	case "anthropic", "claude":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.LLM.APIKey = v
		}
	case "ollama":
		// Ollama doesn't need an API key
		if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
			cfg.LLM.BaseURL = v
		}
	}

	if v := os.Getenv("NCBI_API_KEY"); v != "" {
		cfg.PubMed.APIKey = v
	}
	if v := os.Getenv("NCBI_EMAIL"); v != "" {
		cfg.PubMed.Email = v
	}
}

// buildPipeline wires the shared cache, rate limits and both external
// providers into a ready-to-run pipeline
func buildPipeline(cfg *model.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	var store cache.Cache
	if cfg.Cache.Enabled {
		if dir, err := cacheDir(cfg.Cache.Dir); err == nil {
			store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
		} else {
			logger.Warn("disk cache unavailable, using memory only", slog.String("error", err.Error()))
			store = cache.NewMemoryCache(cfg.Cache.MemoryTTL, cfg.Cache.MemoryTTL)
		}
	}

	limiter := worker.NewLimiter(cfg.RateLimit.PubMedRPS, cfg.RateLimit.PubMedBurst)
	if base, err := url.Parse(cfg.PubMed.BaseURL); err == nil && base.Host != "" && cfg.PubMed.APIKey != "" {
		// NCBI raises the allowance to 10 rps for keyed requests
		limiter.SetHostRate(base.Host, 10, 10)
	}

	searcher := pubmed.NewClient(cfg.PubMed, cfg.HTTP, cfg.Host.Institution, store, limiter, logger)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("text-analysis provider: %w", err)
	}
	provider = llm.NewRateLimitedProvider(provider, cfg.RateLimit.LLMRPS, cfg.RateLimit.LLMBurst)

	matcher := watchlist.NewMatcher(&cfg.Watchlist)
	extractor := extract.NewExtractor(provider, cfg.Host.Institution, matcher.Canonical())

	return pipeline.New(searcher, extractor, cfg, logger), nil
}

// cacheDir resolves the disk cache location
func cacheDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "pubscreen"), nil
}
