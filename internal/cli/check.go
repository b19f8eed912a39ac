package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinsights/pubscreen/internal/llm"
	"github.com/clinsights/pubscreen/internal/pubmed"
	"github.com/clinsights/pubscreen/internal/worker"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify configuration and provider connectivity",
	Long: `Check validates the effective configuration and probes both external
dependencies: the publication search endpoint and the text-analysis
provider. Run it before a long roster analysis to catch missing
credentials and unreachable endpoints early.

Example:
  pubscreen check
  pubscreen check --provider openai`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&llmProvider, "provider", "azure", "text-analysis provider (azure, openai, anthropic, ollama)")
	checkCmd.Flags().StringVar(&llmDeployment, "deployment", "", "Azure OpenAI deployment (default: AZURE_OPENAI_DEPLOYMENT)")
	checkCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed endpoints)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := newLogger()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Println("Pubscreen preflight")
	fmt.Println("═══════════════════")
	fmt.Println()

	failures := 0

	if err := cfg.Validate(); err != nil {
		fmt.Printf("✗ Configuration: %v\n", err)
		failures++
	} else {
		fmt.Printf("✓ Configuration valid (provider: %s)\n", cfg.LLM.Provider)
	}

	limiter := worker.NewLimiter(cfg.RateLimit.PubMedRPS, cfg.RateLimit.PubMedBurst)
	client := pubmed.NewClient(cfg.PubMed, cfg.HTTP, cfg.Host.Institution, nil, limiter, logger)
	if err := client.Ping(ctx); err != nil {
		fmt.Printf("✗ Publication search: %v\n", err)
		failures++
	} else {
		fmt.Println("✓ Publication search reachable")
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		fmt.Printf("✗ Text-analysis provider: %v\n", err)
		failures++
	} else if !provider.IsAvailable(ctx) {
		fmt.Printf("✗ Text-analysis provider %s not reachable, check credentials and endpoint\n", provider.Name())
		failures++
	} else {
		fmt.Printf("✓ Text-analysis provider %s ready\n", provider.Name())
	}

	fmt.Println()
	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	fmt.Println("All checks passed")
	return nil
}
