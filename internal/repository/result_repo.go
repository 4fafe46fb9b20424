package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/opencouncil/councilsearch/internal/domain"
)

// ResultRepository persists completed answer payloads under opaque shareable
// ids. Recently saved or loaded results are additionally held in an
// in-process hot tier so shared links don't hit the database on every view.
type ResultRepository struct {
	db  *DB
	hot *cache.Cache
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{
		db:  db,
		hot: cache.New(15*time.Minute, 5*time.Minute),
	}
}

// Save persists a completed result and returns its shareable id.
func (r *ResultRepository) Save(result *domain.CachedResult) (string, error) {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	result.CreatedAt = time.Now()

	sourcesJSON, _ := json.Marshal(result.Sources)
	followupsJSON, _ := json.Marshal(result.SuggestedFollowups)

	_, err := r.db.Exec(`
		INSERT INTO cached_results (id, query, answer, sources, followups, source_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.ID, result.Query, result.Answer, string(sourcesJSON),
		string(followupsJSON), result.SourceCount, result.CreatedAt)
	if err != nil {
		return "", err
	}

	r.hot.Set(result.ID, result, cache.DefaultExpiration)
	return result.ID, nil
}

// Load retrieves a cached result by id. Unknown ids yield (nil, nil).
func (r *ResultRepository) Load(id string) (*domain.CachedResult, error) {
	if x, found := r.hot.Get(id); found {
		return x.(*domain.CachedResult), nil
	}

	result := &domain.CachedResult{}
	var sourcesJSON, followupsJSON sql.NullString

	err := r.db.QueryRow(`
		SELECT id, query, answer, sources, followups, source_count, created_at
		FROM cached_results WHERE id = ?
	`, id).Scan(&result.ID, &result.Query, &result.Answer, &sourcesJSON,
		&followupsJSON, &result.SourceCount, &result.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if sourcesJSON.Valid && sourcesJSON.String != "" {
		json.Unmarshal([]byte(sourcesJSON.String), &result.Sources)
	}
	if followupsJSON.Valid && followupsJSON.String != "" {
		json.Unmarshal([]byte(followupsJSON.String), &result.SuggestedFollowups)
	}

	r.hot.Set(result.ID, result, cache.DefaultExpiration)
	return result, nil
}

// Count returns the total number of cached results
func (r *ResultRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM cached_results`).Scan(&count)
	return count, err
}
