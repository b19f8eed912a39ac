package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/clinsights/pubscreen/internal/model"
)

// ErrEmpty reports a roster file with no rows at all, not even a header.
// A wrong path that opens fine (empty temp file, truncated download)
// should fail loudly rather than yield a zero-researcher run.
var ErrEmpty = errors.New("roster file is empty")

// RowError describes one rejected roster row. Rejected rows never abort
// the load; callers log them and continue with the valid rows.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("roster row %d: %s", e.Line, e.Reason)
}

// Load reads the researcher roster from a CSV file
func Load(path string) ([]model.Researcher, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

// Parse reads roster rows from r. The first column is the last name,
// the second the first name; the first row is always treated as the
// header. Rows missing either name are returned as RowErrors, and
// duplicate researchers keep their first occurrence.
func Parse(r io.Reader) ([]model.Researcher, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		researchers []model.Researcher
		rejected    []RowError
		seen        = make(map[string]bool)
		headerSeen  bool
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rejected = append(rejected, RowError{Line: parseErr.Line, Reason: parseErr.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("read roster: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if !headerSeen {
			headerSeen = true
			continue
		}

		if len(record) < 2 {
			rejected = append(rejected, RowError{Line: line, Reason: fmt.Sprintf("want last and first name columns, got %d field(s)", len(record))})
			continue
		}

		last := strings.TrimSpace(record[0])
		first := strings.TrimSpace(record[1])
		switch {
		case last == "" && first == "":
			rejected = append(rejected, RowError{Line: line, Reason: "blank last and first name"})
			continue
		case last == "":
			rejected = append(rejected, RowError{Line: line, Reason: "blank last name"})
			continue
		case first == "":
			rejected = append(rejected, RowError{Line: line, Reason: "blank first name"})
			continue
		}

		res := model.Researcher{LastName: last, FirstName: first}
		if seen[res.Key()] {
			continue
		}
		seen[res.Key()] = true
		researchers = append(researchers, res)
	}

	if !headerSeen {
		return nil, nil, ErrEmpty
	}
	return researchers, rejected, nil
}
