package model

// ExtractionResult holds the entities pulled out of one publication by the
// text-analysis provider. Absent or malformed reply fields default to
// empty/false rather than failing the extraction.
type ExtractionResult struct {
	Countries                  []string `json:"countries"`                   // Country names mentioned via affiliations/collaborations
	Institutions               []string `json:"institutions"`                // Non-host institutions involved
	FundingSources             []string `json:"funding_sources"`             // Funding bodies and grant programs
	InternationalCollaboration bool     `json:"international_collaboration"` // Authors span more than one country
}

// Empty reports whether the extraction found no signals at all
func (e ExtractionResult) Empty() bool {
	return len(e.Countries) == 0 && len(e.Institutions) == 0 &&
		len(e.FundingSources) == 0 && !e.InternationalCollaboration
}
