package report

import (
	"strings"

	"github.com/clinsights/pubscreen/internal/model"
)

// Builder assembles disclosure records. The host institution is fixed
// per run: the roster belongs to one organization, so the affiliation
// column is a constant, not derived from publication data.
type Builder struct {
	host string
}

// NewBuilder creates a record builder for the given host institution
func NewBuilder(host string) *Builder {
	return &Builder{host: host}
}

// Build assembles the output record for one (researcher, publication)
// pair. Pure assembly: no I/O, never fails; missing optional fields
// render empty. The funding column carries only the first funding body
// in extraction order.
func (b *Builder) Build(r model.Researcher, pub model.Publication, extraction model.ExtractionResult, flagged []string, confidence int) model.DisclosureRecord {
	rec := model.DisclosureRecord{
		PublicationName:         strings.TrimSpace(pub.Journal),
		ResearchTitle:           strings.TrimSpace(pub.Title),
		AuthorName:              r.DisplayName(),
		OrganizationAffiliation: b.host,
		CountriesOfOrigin:       dedupCountries(extraction.Countries),
		Flagged:                 len(flagged) > 0,
		FlaggedCountries:        append([]string(nil), flagged...),
		ConfidenceScore:         confidence,
	}
	if len(extraction.FundingSources) > 0 {
		rec.FundingSource = extraction.FundingSources[0]
	}
	return rec
}

// dedupCountries keeps the first occurrence of each country,
// case-insensitively, in extraction order
func dedupCountries(countries []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range countries {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
