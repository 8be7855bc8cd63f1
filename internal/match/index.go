package match

import (
	"sort"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// DefaultMakeThreshold is the minimum similarity for fuzzy make recovery.
const DefaultMakeThreshold = 0.9

// Candidate is a reference record with the base-model similarity it scored
// against a source record.
type Candidate struct {
	Record *model.ReferenceRecord
	Score  float64
}

// Index is a read-only fuzzy-searchable view over the reference dataset,
// built once per run. All lookups are side-effect-free.
type Index struct {
	similarity    Similarity
	byMake        map[string][]*model.ReferenceRecord
	byIdentity    map[string]*model.ReferenceRecord // "make|model" on original values
	byBase        map[string]*model.ReferenceRecord // "make|baseModel" normalized
	records       []*model.ReferenceRecord
	makes         []string
	makeThreshold float64
}

// Option configures an Index.
type Option func(*Index)

// WithSimilarity swaps the similarity metric.
func WithSimilarity(s Similarity) Option {
	return func(i *Index) { i.similarity = s }
}

// WithMakeThreshold sets the minimum similarity for FuzzyMakeLookup.
func WithMakeThreshold(t float64) Option {
	return func(i *Index) { i.makeThreshold = t }
}

// NewIndex builds the candidate index over normalized reference records.
func NewIndex(records []*model.ReferenceRecord, opts ...Option) *Index {
	idx := &Index{
		similarity:    Levenshtein,
		makeThreshold: DefaultMakeThreshold,
		byMake:        make(map[string][]*model.ReferenceRecord),
		byIdentity:    make(map[string]*model.ReferenceRecord),
		byBase:        make(map[string]*model.ReferenceRecord),
		records:       records,
	}
	for _, opt := range opts {
		opt(idx)
	}

	for _, r := range records {
		if _, seen := idx.byMake[r.NormalizedMake]; !seen && r.NormalizedMake != "" {
			idx.makes = append(idx.makes, r.NormalizedMake)
		}
		idx.byMake[r.NormalizedMake] = append(idx.byMake[r.NormalizedMake], r)
		idx.byIdentity[r.Make+"|"+r.Model] = r
		key := model.KnowledgeKey(r.NormalizedMake, r.NormalizedBaseModel)
		if _, exists := idx.byBase[key]; !exists {
			idx.byBase[key] = r
		}
	}
	sort.Strings(idx.makes)
	return idx
}

// Records returns all indexed reference records.
func (i *Index) Records() []*model.ReferenceRecord {
	return i.records
}

// SameMake returns the reference records whose normalized make equals make.
func (i *Index) SameMake(make string) []*model.ReferenceRecord {
	return i.byMake[make]
}

// ByIdentity resolves a reference record by its original make and model
// column values, as stored by rule actions.
func (i *Index) ByIdentity(make, mdl string) *model.ReferenceRecord {
	return i.byIdentity[make+"|"+mdl]
}

// ByNormalizedBase resolves a reference record by normalized make and base
// model, as stored in knowledge entries.
func (i *Index) ByNormalizedBase(make, baseModel string) *model.ReferenceRecord {
	return i.byBase[model.KnowledgeKey(make, baseModel)]
}

// TopNCandidates ranks same-make reference records by base-model similarity
// against src and returns up to n unique candidates, best first.
func (i *Index) TopNCandidates(src *model.SourceRecord, n int) []Candidate {
	if src.NormalizedMake == "" || src.NormalizedBaseModel == "" {
		return nil
	}
	return i.rank(src.NormalizedBaseModel, i.byMake[src.NormalizedMake], n)
}

// TopNCandidatesForMake is TopNCandidates against an explicit make, used
// after fuzzy make recovery.
func (i *Index) TopNCandidatesForMake(baseModel, make string, n int) []Candidate {
	if make == "" || baseModel == "" {
		return nil
	}
	return i.rank(baseModel, i.byMake[make], n)
}

func (i *Index) rank(baseModel string, pool []*model.ReferenceRecord, n int) []Candidate {
	seen := make(map[string]bool, len(pool))
	candidates := make([]Candidate, 0, len(pool))
	for _, r := range pool {
		if r.NormalizedBaseModel == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		candidates = append(candidates, Candidate{
			Record: r,
			Score:  i.similarity(baseModel, r.NormalizedBaseModel),
		})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
	if n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// FuzzyMakeLookup recovers from make typos: when no reference record shares
// the exact make, it returns the closest known make at or above the
// configured threshold, or "" when none qualifies.
func (i *Index) FuzzyMakeLookup(make string) (string, float64) {
	if make == "" {
		return "", 0
	}
	bestMake := ""
	bestScore := 0.0
	for _, m := range i.makes {
		if s := i.similarity(make, m); s > bestScore {
			bestMake, bestScore = m, s
		}
	}
	if bestScore < i.makeThreshold {
		return "", bestScore
	}
	return bestMake, bestScore
}
