// Package export writes mapping results to output files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// WriteCSVFile exports results to a CSV file at path.
func WriteCSVFile(path string, results []model.MatchResult, srcCols model.SourceColumns, refCols model.ReferenceColumns) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := WriteCSV(f, results, srcCols, refCols); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteCSV exports results as CSV. The layout carries the source make and
// model, any extra source output columns, the matched reference identity
// and codes, then the match diagnostics.
func WriteCSV(w io.Writer, results []model.MatchResult, srcCols model.SourceColumns, refCols model.ReferenceColumns) error {
	writer := csv.NewWriter(w)

	extraCols := make([]string, 0, len(srcCols.OutputColumns))
	for _, c := range srcCols.OutputColumns {
		if c != srcCols.Make && c != srcCols.Model {
			extraCols = append(extraCols, c)
		}
	}

	headers := []string{
		"Source " + srcCols.Make,
		"Source " + srcCols.Model,
	}
	headers = append(headers, extraCols...)
	headers = append(headers, "Matched Make", "Matched Model")
	for _, c := range refCols.Codes {
		headers = append(headers, "Matched "+c)
	}
	headers = append(headers,
		"Match Status",
		"Match Confidence (%)",
		"Actual Fuzzy Score (%)",
		"Match Reason",
		"Candidate Models",
		"Sources",
	)

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range results {
		r := &results[i]

		row := []string{r.Source.Make, r.Source.Model}
		for _, c := range extraCols {
			row = append(row, r.Source.Row[c])
		}
		row = append(row, r.MatchedMake, r.MatchedModel)
		for _, c := range refCols.Codes {
			row = append(row, r.MatchedCodes[c])
		}

		confidence := ""
		if r.HasConfidence {
			confidence = fmt.Sprintf("%.0f%%", r.Confidence*100)
		}
		fuzzyScore := "-"
		if r.HasActualFuzzyScore {
			fuzzyScore = fmt.Sprintf("%.0f%%", r.ActualFuzzyScore*100)
		}

		sources := make([]string, 0, len(r.ExternalSources))
		for _, s := range r.ExternalSources {
			sources = append(sources, s.URI)
		}

		row = append(row,
			string(r.Status),
			confidence,
			fuzzyScore,
			r.Reason,
			strings.Join(r.CandidateModels, ", "),
			strings.Join(sources, ", "),
		)

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
