package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/clinsights/pubscreen/internal/model"
)

// csvColumns is the fixed column order of the output artifact.
// Downstream review tooling selects columns by name and position.
var csvColumns = []string{
	"publication_name",
	"research_title",
	"author_name",
	"organization_affiliation",
	"countries_of_origin",
	"flagged",
	"flagged_countries",
	"confidence_score",
	"funding_source",
}

// listSeparator joins multi-value cells
const listSeparator = ", "

// WriteCSV materializes the disclosure records at path. Records are
// written in the order given; an empty run still produces the header.
func WriteCSV(records []model.DisclosureRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := renderCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func renderCSV(w io.Writer, records []model.DisclosureRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.PublicationName,
			rec.ResearchTitle,
			rec.AuthorName,
			rec.OrganizationAffiliation,
			strings.Join(rec.CountriesOfOrigin, listSeparator),
			flaggedLabel(rec.Flagged),
			strings.Join(rec.FlaggedCountries, listSeparator),
			strconv.Itoa(rec.ConfidenceScore),
			rec.FundingSource,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func flaggedLabel(flagged bool) string {
	if flagged {
		return "Yes"
	}
	return "No"
}
