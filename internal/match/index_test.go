package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

func refRecord(id, make, mdl, normMake, baseModel string) *model.ReferenceRecord {
	return &model.ReferenceRecord{
		ID:                  id,
		Make:                make,
		Model:               mdl,
		NormalizedMake:      normMake,
		NormalizedModel:     baseModel,
		NormalizedBaseModel: baseModel,
	}
}

func testIndex() *Index {
	return NewIndex([]*model.ReferenceRecord{
		refRecord("r1", "Toyota", "Camry", "toyota", "camry"),
		refRecord("r2", "Toyota", "Corolla", "toyota", "corolla"),
		refRecord("r3", "Toyota", "Land Cruiser", "toyota", "land cruiser"),
		refRecord("r4", "Nissan", "Patrol", "nissan", "patrol"),
		refRecord("r5", "Nissan", "Sunny", "nissan", "sunny"),
		refRecord("r6", "Mercedes-Benz", "C-Class", "mercedes-benz", "c-class"),
	})
}

func TestTopNCandidatesRanksWithinMake(t *testing.T) {
	idx := testIndex()
	src := &model.SourceRecord{
		NormalizedMake:      "toyota",
		NormalizedBaseModel: "camryy",
	}

	candidates := idx.TopNCandidates(src, 2)
	require.Len(t, candidates, 2)
	assert.Equal(t, "r1", candidates[0].Record.ID)
	assert.Greater(t, candidates[0].Score, candidates[1].Score)
	for _, c := range candidates {
		assert.Equal(t, "toyota", c.Record.NormalizedMake)
	}
}

func TestTopNCandidatesUnknownMake(t *testing.T) {
	idx := testIndex()
	src := &model.SourceRecord{
		NormalizedMake:      "toyotaa",
		NormalizedBaseModel: "camry",
	}
	assert.Empty(t, idx.TopNCandidates(src, 5))
}

func TestTopNCandidatesEmptyFields(t *testing.T) {
	idx := testIndex()
	assert.Empty(t, idx.TopNCandidates(&model.SourceRecord{NormalizedMake: "toyota"}, 5))
	assert.Empty(t, idx.TopNCandidates(&model.SourceRecord{NormalizedBaseModel: "camry"}, 5))
}

func TestTopNCandidatesDeduplicatesByID(t *testing.T) {
	dup := refRecord("r1", "Toyota", "Camry", "toyota", "camry")
	idx := NewIndex([]*model.ReferenceRecord{
		refRecord("r1", "Toyota", "Camry", "toyota", "camry"),
		dup,
	})
	candidates := idx.TopNCandidates(&model.SourceRecord{
		NormalizedMake:      "toyota",
		NormalizedBaseModel: "camry",
	}, 5)
	assert.Len(t, candidates, 1)
}

func TestFuzzyMakeLookup(t *testing.T) {
	idx := testIndex()

	tests := []struct {
		name     string
		input    string
		expected string
		found    bool
	}{
		{
			name:     "single typo recovers",
			input:    "toyotta",
			expected: "toyota",
			found:    true,
		},
		{
			name:     "exact make",
			input:    "nissan",
			expected: "nissan",
			found:    true,
		},
		{
			name:  "too distant",
			input: "volkswagen",
			found: false,
		},
		{
			name:  "empty make",
			input: "",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, score := idx.FuzzyMakeLookup(tt.input)
			if tt.found {
				assert.Equal(t, tt.expected, got)
				assert.GreaterOrEqual(t, score, DefaultMakeThreshold)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestByIdentityAndNormalizedBase(t *testing.T) {
	idx := testIndex()

	r := idx.ByIdentity("Toyota", "Land Cruiser")
	require.NotNil(t, r)
	assert.Equal(t, "r3", r.ID)
	assert.Nil(t, idx.ByIdentity("Toyota", "Supra"))

	r = idx.ByNormalizedBase("nissan", "patrol")
	require.NotNil(t, r)
	assert.Equal(t, "r4", r.ID)
	assert.Nil(t, idx.ByNormalizedBase("nissan", "navara"))
}

func TestWithMakeThreshold(t *testing.T) {
	idx := NewIndex([]*model.ReferenceRecord{
		refRecord("r1", "Toyota", "Camry", "toyota", "camry"),
	}, WithMakeThreshold(0.5))

	got, _ := idx.FuzzyMakeLookup("toyoda")
	assert.Equal(t, "toyota", got)
}
