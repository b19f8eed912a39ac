package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/clinsights/pubscreen/internal/model"
)

// WriteJSON saves the full run report beside the CSV so a reviewer can
// audit skips and failures after the fact
func WriteJSON(rep *model.RunReport, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// PrintSummary renders the end-of-run banner
func PrintSummary(w io.Writer, rep *model.RunReport) {
	skipped := 0
	for _, res := range rep.Researchers {
		if res.SkipReason != "" {
			skipped++
		}
	}

	line := strings.Repeat("═", 59)
	fmt.Fprintf(w, "\n%s\n", line)
	fmt.Fprintf(w, "  Analysis Complete\n")
	fmt.Fprintf(w, "%s\n", line)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Run:          %s\n", rep.RunID)
	fmt.Fprintf(w, "  Researchers:  %d\n", len(rep.Researchers))
	fmt.Fprintf(w, "  Skipped:      %d\n", skipped)
	fmt.Fprintf(w, "  Records:      %d\n", len(rep.Records))
	fmt.Fprintf(w, "  Flagged:      %d\n", rep.FlaggedRecords())
	fmt.Fprintf(w, "  Failures:     %d\n", rep.TotalFailures())
	fmt.Fprintf(w, "  Duration:     %s\n", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
}
