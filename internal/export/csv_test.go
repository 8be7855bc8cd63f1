package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

func TestWriteCSV(t *testing.T) {
	srcCols := model.SourceColumns{
		Make:          "Make",
		Model:         "Model",
		OutputColumns: []string{"Make", "Model", "Year"},
	}
	refCols := model.ReferenceColumns{
		Make:  "IC Make",
		Model: "IC Model",
		Codes: []string{"Code"},
	}

	results := []model.MatchResult{
		{
			Source: model.SourceRecord{
				Row:   model.Row{"Make": "Toyota", "Model": "Camry LE", "Year": "2020"},
				Make:  "Toyota",
				Model: "Camry LE",
			},
			Status:              model.StatusMatchedFuzzy,
			MatchedMake:         "TOYOTA",
			MatchedModel:        "CAMRY 4D SDN LE",
			MatchedCodes:        map[string]string{"Code": "TC-01"},
			Confidence:          0.93,
			HasConfidence:       true,
			ActualFuzzyScore:    0.93,
			HasActualFuzzyScore: true,
			Reason:              "fuzzy match",
		},
		{
			Source: model.SourceRecord{
				Row:   model.Row{"Make": "BYD", "Model": "Unknown", "Year": "2021"},
				Make:  "BYD",
				Model: "Unknown",
			},
			Status: model.StatusNoMatch,
			Reason: "no layer produced a match",
			ExternalSources: []model.Source{
				{URI: "https://example.com/a", Title: "a"},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results, srcCols, refCols))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"Source Make", "Source Model", "Year",
		"Matched Make", "Matched Model", "Matched Code",
		"Match Status", "Match Confidence (%)", "Actual Fuzzy Score (%)",
		"Match Reason", "Candidate Models", "Sources",
	}, records[0])

	matched := records[1]
	assert.Equal(t, "Toyota", matched[0])
	assert.Equal(t, "2020", matched[2])
	assert.Equal(t, "CAMRY 4D SDN LE", matched[4])
	assert.Equal(t, "TC-01", matched[5])
	assert.Equal(t, "MATCHED_FUZZY", matched[6])
	assert.Equal(t, "93%", matched[7])

	unmatched := records[2]
	assert.Equal(t, "NO_MATCH", unmatched[6])
	assert.Equal(t, "", unmatched[7])
	assert.Equal(t, "-", unmatched[8])
	assert.Equal(t, "https://example.com/a", unmatched[11])
}

func TestWriteCSVEmptyResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, model.SourceColumns{Make: "Make", Model: "Model"}, model.ReferenceColumns{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
