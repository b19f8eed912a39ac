package model

import "strings"

// Researcher identifies one person from the input roster
type Researcher struct {
	LastName  string `json:"last_name"`  // Family name as given in the roster
	FirstName string `json:"first_name"` // Given name as given in the roster
}

// Key returns the case-insensitive identity key used for de-duplication.
// Display always uses the names as given.
func (r Researcher) Key() string {
	return strings.ToLower(strings.TrimSpace(r.LastName)) + "|" + strings.ToLower(strings.TrimSpace(r.FirstName))
}

// DisplayName returns the "First Last" form used in output records
func (r Researcher) DisplayName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}
