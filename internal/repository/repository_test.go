package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencouncil/councilsearch/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestResultSaveAndLoad(t *testing.T) {
	repo := NewResultRepository(newTestDB(t))

	id, err := repo.Save(&domain.CachedResult{
		Query:  "What did council decide about housing?",
		Answer: "Council approved the affordable housing strategy.",
		Sources: []domain.Source{
			{Type: domain.DocTypeMotion, ID: "m-1", Title: "Housing Strategy"},
		},
		SuggestedFollowups: []string{"What is the strategy's budget?"},
		SourceCount:        1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	loaded, err := repo.Load(id)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Council approved the affordable housing strategy.", loaded.Answer)
	assert.Equal(t, "What did council decide about housing?", loaded.Query)
	assert.Len(t, loaded.Sources, 1)
	assert.Equal(t, []string{"What is the strategy's budget?"}, loaded.SuggestedFollowups)

	// Reads are idempotent.
	again, err := repo.Load(id)
	require.NoError(t, err)
	assert.Equal(t, loaded.Answer, again.Answer)
	assert.Equal(t, loaded.ID, again.ID)
}

func TestResultLoadUnknownID(t *testing.T) {
	repo := NewResultRepository(newTestDB(t))

	for i := 0; i < 2; i++ {
		loaded, err := repo.Load("no-such-id")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	}
}

func seedDocuments(t *testing.T, repo *IndexRepository) {
	t.Helper()
	err := repo.Upsert(context.Background(), []*domain.Document{
		{Type: domain.DocTypeBylaw, Title: "Bylaw 1234", Body: "Zoning amendments for downtown parcels.", MeetingDate: "2026-01-10"},
		{Type: domain.DocTypeMotion, Title: "Housing Strategy Motion", Body: "Motion to adopt the affordable housing strategy.", MeetingID: "2026-02", MeetingDate: "2026-02-14"},
		{Type: domain.DocTypeTranscript, Title: "Council Meeting Feb 14", Body: "Councillor Reyes spoke about housing affordability at length.", MeetingID: "2026-02", MeetingDate: "2026-02-14", SpeakerName: "Councillor Reyes"},
	})
	require.NoError(t, err)
}

func TestIndexSearch(t *testing.T) {
	repo := NewIndexRepository(newTestDB(t))
	seedDocuments(t, repo)

	results, err := repo.Search(context.Background(), "housing", nil, 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	for _, item := range results {
		assert.NotEmpty(t, item.Snippet)
	}

	results, err = repo.Search(context.Background(), "housing", []string{domain.DocTypeMotion}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Housing Strategy Motion", results[0].Title)

	results, err = repo.Search(context.Background(), "nothing matches this", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndexDeleteAndStats(t *testing.T) {
	repo := NewIndexRepository(newTestDB(t))
	seedDocuments(t, repo)

	counts, err := repo.CountByType(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.DocTypeBylaw])
	assert.Equal(t, 1, counts[domain.DocTypeMotion])

	results, err := repo.Search(context.Background(), "Bylaw 1234", nil, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, repo.Delete(context.Background(), results[0].ID))
	assert.ErrorIs(t, repo.Delete(context.Background(), results[0].ID), domain.ErrNotFound)
}
