package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7610venki/vehicle-data-mapper/internal/common"
	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

func testSession(id string, createdAt time.Time) *model.Session {
	return &model.Session{
		ID:        id,
		Name:      "nightly import",
		CreatedAt: createdAt,
		Params: model.SessionParams{
			SourceFile:     "fleet.csv",
			ReferenceFile:  "reference.csv",
			Layers:         []string{"knowledge", "rule", "fuzzy", "ai"},
			FuzzyThreshold: 0.8,
		},
		Results: []model.MatchResult{
			{
				Source:        model.SourceRecord{ID: "r1", Make: "Toyota", Model: "Camry LE"},
				Status:        model.StatusMatchedFuzzy,
				MatchedMake:   "TOYOTA",
				MatchedModel:  "CAMRY 4D SDN LE",
				Confidence:    0.93,
				HasConfidence: true,
			},
		},
	}
}

func TestSaveAndGetSession(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	session := testSession("s1", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, store.SaveSession(ctx, session))

	loaded, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session.Name, loaded.Name)
	assert.Equal(t, session.Params.FuzzyThreshold, loaded.Params.FuzzyThreshold)
	require.Len(t, loaded.Results, 1)
	assert.Equal(t, model.StatusMatchedFuzzy, loaded.Results[0].Status)
	assert.Equal(t, "CAMRY 4D SDN LE", loaded.Results[0].MatchedModel)
}

func TestSaveSessionOverwritesExisting(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	session := testSession("s1", time.Now().UTC())
	require.NoError(t, store.SaveSession(ctx, session))

	session.Name = "renamed"
	require.NoError(t, store.SaveSession(ctx, session))

	loaded, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", loaded.Name)
}

func TestListSessionsNewestFirst(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	older := testSession("s1", time.Now().UTC().Add(-time.Hour))
	newer := testSession("s2", time.Now().UTC())
	require.NoError(t, store.SaveSession(ctx, older))
	require.NoError(t, store.SaveSession(ctx, newer))

	summaries, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "s2", summaries[0].ID)
	assert.Equal(t, 1, summaries[0].ResultCount)
}

func TestDeleteSession(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, testSession("s1", time.Now().UTC())))
	require.NoError(t, store.DeleteSession(ctx, "s1"))

	_, err := store.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = store.DeleteSession(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
