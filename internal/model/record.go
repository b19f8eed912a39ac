package model

import "time"

// DisclosureRecord is one row of the analysis output: a single
// (researcher, publication) pair with its extracted entities, watch-list
// matches and confidence score. Field names mirror the CSV columns.
type DisclosureRecord struct {
	PublicationName         string   `json:"publication_name"`         // Journal name as reported by the provider
	ResearchTitle           string   `json:"research_title"`           // Publication title
	AuthorName              string   `json:"author_name"`              // "First Last" of the roster researcher
	OrganizationAffiliation string   `json:"organization_affiliation"` // Host institution (constant per run)
	CountriesOfOrigin       []string `json:"countries_of_origin"`      // Extractor countries, deduplicated, first-seen order
	Flagged                 bool     `json:"flagged"`                  // True when any watch-list country matched
	FlaggedCountries        []string `json:"flagged_countries"`        // Watch-list matches, watch-list order
	ConfidenceScore         int      `json:"confidence_score"`         // 1-10, deterministic
	FundingSource           string   `json:"funding_source"`           // First funding body from the extraction, empty when none
}

// ResearcherStatus tracks a researcher through the pipeline
type ResearcherStatus string

const (
	ResearcherPending      ResearcherStatus = "pending"                 // Not started
	ResearcherFetching     ResearcherStatus = "fetching_publications"   // Publication search in flight
	ResearcherProcessing   ResearcherStatus = "processing"              // Publications being analyzed
	ResearcherSkippedNoPub ResearcherStatus = "skipped_no_publications" // Fetch failed or returned nothing
	ResearcherDone         ResearcherStatus = "done"                    // Terminal
)

// PublicationStatus tracks one publication of one researcher
type PublicationStatus string

const (
	PublicationExtracting PublicationStatus = "extracting" // Entity extraction in flight
	PublicationScoring    PublicationStatus = "scoring"    // Matching and scoring
	PublicationRecorded   PublicationStatus = "recorded"   // Record produced
	PublicationFailed     PublicationStatus = "failed"     // Extraction failed; no record
)

// PublicationFailure captures one publication that produced no record
type PublicationFailure struct {
	PublicationID string `json:"publication_id,omitempty"` // Provider ID when known
	Title         string `json:"title"`                    // Publication title
	Error         string `json:"error"`                    // Why extraction failed
}

// ResearcherOutcome summarizes one researcher after the run
type ResearcherOutcome struct {
	Researcher   Researcher           `json:"researcher"`
	Status       ResearcherStatus     `json:"status"`                // Final disposition: done or skipped_no_publications
	Publications int                  `json:"publications"`          // Publications fetched
	Records      int                  `json:"records"`               // Disclosure records produced
	Failures     []PublicationFailure `json:"failures,omitempty"`    // Publications that yielded no record
	SkipReason   string               `json:"skip_reason,omitempty"` // Set when no publications were processed
}

// RunReport is the complete result of one pipeline run
type RunReport struct {
	RunID           string              `json:"run_id"`           // ULID, unique per run
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      time.Time           `json:"finished_at"`
	HostInstitution string              `json:"host_institution"` // Organization the roster belongs to
	Researchers     []ResearcherOutcome `json:"researchers"`      // Roster order
	Records         []DisclosureRecord  `json:"records"`          // Roster order, then publication order
}

// TotalFailures counts publications that produced no record across the run
func (r *RunReport) TotalFailures() int {
	n := 0
	for _, res := range r.Researchers {
		n += len(res.Failures)
	}
	return n
}

// FlaggedRecords counts records with at least one watch-list match
func (r *RunReport) FlaggedRecords() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Flagged {
			n++
		}
	}
	return n
}
