package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/clinsights/pubscreen/internal/llm"
	"github.com/clinsights/pubscreen/internal/model"
)

// systemPrompt frames every analysis call
const systemPrompt = "You are an expert in analyzing scientific publications for foreign affiliations and collaborations."

// ErrMalformedReply means the provider answered but no JSON object could
// be recovered from the reply
var ErrMalformedReply = errors.New("no JSON object in provider reply")

// Extractor turns one publication into an ExtractionResult by prompting
// the text-analysis provider and strictly parsing its reply. It keeps no
// state between calls: extracting the same publication twice is safe and
// yields the same prompt.
type Extractor struct {
	provider llm.Provider
	host     string   // host institution, excluded from reported institutions
	watch    []string // canonical watch-list names, named in the prompt
}

// NewExtractor creates an extractor bound to a provider
func NewExtractor(provider llm.Provider, host string, watchCountries []string) *Extractor {
	return &Extractor{
		provider: provider,
		host:     host,
		watch:    watchCountries,
	}
}

// Extract analyzes one publication. Provider failures and unparseable
// replies surface as errors; the caller decides what a failed publication
// means for the run.
func (e *Extractor) Extract(ctx context.Context, pub model.Publication) (model.ExtractionResult, error) {
	resp, err := e.provider.Analyze(ctx, llm.AnalysisRequest{
		System:   systemPrompt,
		Prompt:   e.buildPrompt(pub),
		WantJSON: true,
	})
	if err != nil {
		return model.ExtractionResult{}, fmt.Errorf("analyze publication: %w", err)
	}

	result, err := parseReply(resp.Content)
	if err != nil {
		return model.ExtractionResult{}, fmt.Errorf("parse reply: %w", err)
	}
	return result, nil
}

// buildPrompt inlines the publication metadata and the reply contract
func (e *Extractor) buildPrompt(pub model.Publication) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following publication for foreign affiliations, collaborations and funding, with particular attention to %s.\n\n", humanJoin(e.watch))
	fmt.Fprintf(&b, "Title: %s\n", pub.Title)
	if pub.Journal != "" {
		fmt.Fprintf(&b, "Journal: %s\n", pub.Journal)
	}
	if len(pub.Authors) > 0 {
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(pub.Authors, "; "))
	}
	if len(pub.Affiliations) > 0 {
		fmt.Fprintf(&b, "Author affiliations: %s\n", strings.Join(pub.Affiliations, "; "))
	}
	if len(pub.Funding) > 0 {
		fmt.Fprintf(&b, "Funding: %s\n", strings.Join(pub.Funding, "; "))
	}
	if pub.Abstract != "" {
		fmt.Fprintf(&b, "\nAbstract:\n%s\n", pub.Abstract)
	}

	b.WriteString("\nRespond with only a JSON object in this exact shape:\n")
	b.WriteString(`{"countries": [], "institutions": [], "funding_sources": [], "international_collaboration": false}`)
	b.WriteString("\n\n")
	b.WriteString("countries: every country connected to the work through author affiliations, collaborations or funding.\n")
	fmt.Fprintf(&b, "institutions: research institutions involved other than %s.\n", e.host)
	b.WriteString("funding_sources: funding bodies, agencies and grant programs named in the metadata.\n")
	b.WriteString("international_collaboration: true when the authors span more than one country.\n")

	return b.String()
}

// parseReply recovers an ExtractionResult from the provider's reply.
// Fence markers and surrounding prose are tolerated; inside the object,
// absent or wrongly-shaped fields default to empty/false rather than
// failing the whole extraction.
func parseReply(content string) (model.ExtractionResult, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return model.ExtractionResult{}, ErrMalformedReply
	}

	var reply struct {
		Countries                  json.RawMessage `json:"countries"`
		Institutions               json.RawMessage `json:"institutions"`
		FundingSources             json.RawMessage `json:"funding_sources"`
		InternationalCollaboration json.RawMessage `json:"international_collaboration"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return model.ExtractionResult{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	return model.ExtractionResult{
		Countries:                  stringList(reply.Countries),
		Institutions:               stringList(reply.Institutions),
		FundingSources:             stringList(reply.FundingSources),
		InternationalCollaboration: boolValue(reply.InternationalCollaboration),
	}, nil
}

// extractJSONObject isolates the JSON object in a reply that may carry
// markdown fences or prose around it
func extractJSONObject(content string) string {
	s := strings.TrimSpace(content)

	// Strip a fenced block: ```json ... ``` or ``` ... ```
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:] // drop the info string line
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// stringList accepts a JSON array of strings, tolerating a bare string
// and skipping non-string elements. Anything else yields nil.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var items []interface{}
	if err := json.Unmarshal(raw, &items); err == nil {
		var out []string
		seen := make(map[string]bool)
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
		return out
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if s := strings.TrimSpace(single); s != "" {
			return []string{s}
		}
	}

	return nil
}

// boolValue accepts a JSON bool; anything else is false
func boolValue(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

// humanJoin renders a list as "a, b and c"
func humanJoin(items []string) string {
	switch len(items) {
	case 0:
		return "foreign countries"
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
