package model

// Publication is one publication attributed to a researcher, as returned
// by the publication search provider
type Publication struct {
	ID           string   `json:"id,omitempty"`           // Provider identifier (PMID)
	Title        string   `json:"title"`                  // Article title
	Journal      string   `json:"journal,omitempty"`      // Journal or venue name
	Authors      []string `json:"authors,omitempty"`      // Author display names, provider order
	Affiliations []string `json:"affiliations,omitempty"` // Author affiliation strings
	Abstract     string   `json:"abstract,omitempty"`     // Abstract text, sections joined
	Funding      []string `json:"funding,omitempty"`      // Grant/funding statements
	PubDate      string   `json:"pub_date,omitempty"`     // Publication date as reported (not parsed)
}

// HasContent reports whether the publication carries any text worth analyzing
// beyond its title
func (p Publication) HasContent() bool {
	return p.Abstract != "" || len(p.Affiliations) > 0 || len(p.Funding) > 0
}
