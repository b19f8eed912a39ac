package score

import "github.com/clinsights/pubscreen/internal/model"

// Signal weights. The total starts at baseScore, each present signal adds
// its weight, and the result never exceeds maxScore.
const (
	baseScore           = 1
	countriesWeight     = 3
	flaggedWeight       = 2
	institutionsWeight  = 1
	fundingWeight       = 1
	collaborationWeight = 1
	maxScore            = 10
)

// Scorer computes the confidence score for one publication's extraction.
// Scoring is pure arithmetic over its arguments: same inputs, same score.
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score combines the extraction and its watch-list matches into a score
// in [1, 10]. The flagged bonus only applies on top of the countries
// signal: flagged countries are always a subset of the extracted
// countries.
func (s *Scorer) Score(extraction model.ExtractionResult, flagged []string) int {
	total := baseScore

	if len(extraction.Countries) > 0 {
		total += countriesWeight
		if len(flagged) > 0 {
			total += flaggedWeight
		}
	}
	if len(extraction.Institutions) > 0 {
		total += institutionsWeight
	}
	if len(extraction.FundingSources) > 0 {
		total += fundingWeight
	}
	if extraction.InternationalCollaboration {
		total += collaborationWeight
	}

	return clamp(total)
}

// clamp caps a raw total at maxScore
func clamp(total int) int {
	if total > maxScore {
		return maxScore
	}
	return total
}
