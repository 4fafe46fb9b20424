package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opencouncil/councilsearch/internal/domain"
)

const defaultSearchLimit = 20

// IndexRepository is the keyword corpus index: council transcripts, motions,
// bylaws and documents, matched by substring against title and body.
type IndexRepository struct {
	db *DB
}

// NewIndexRepository creates a new index repository
func NewIndexRepository(db *DB) *IndexRepository {
	return &IndexRepository{db: db}
}

// Search finds documents whose title or body match the query, optionally
// restricted to the given content types, newest meetings first.
func (r *IndexRepository) Search(ctx context.Context, text string, types []string, limit int) ([]domain.ResultItem, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	pattern := "%" + text + "%"
	where := []string{"(title LIKE ? OR body LIKE ?)"}
	args := []interface{}{pattern, pattern}

	if len(types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(types)), ",")
		where = append(where, fmt.Sprintf("type IN (%s)", placeholders))
		for _, t := range types {
			args = append(args, t)
		}
	}

	query := fmt.Sprintf(`
		SELECT id, type, title, body, meeting_id, meeting_date, speaker_name
		FROM documents
		WHERE %s
		ORDER BY meeting_date DESC, created_at DESC
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ResultItem
	for rows.Next() {
		var item domain.ResultItem
		var body string
		if err := rows.Scan(&item.ID, &item.Type, &item.Title, &body,
			&item.MeetingID, &item.MeetingDate, &item.SpeakerName); err != nil {
			return nil, err
		}
		item.Snippet = snippet(body, text)
		results = append(results, item)
	}

	return results, rows.Err()
}

// Upsert inserts or replaces corpus documents, assigning ids where missing.
func (r *IndexRepository) Upsert(ctx context.Context, docs []*domain.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		doc.CreatedAt = time.Now()

		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO documents (id, type, title, body, meeting_id, meeting_date, speaker_name, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, doc.ID, doc.Type, doc.Title, doc.Body, doc.MeetingID,
			doc.MeetingDate, doc.SpeakerName, doc.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes a document from the index
func (r *IndexRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountByType returns document counts grouped by content type
func (r *IndexRepository) CountByType(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM documents GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// snippet extracts a short excerpt around the first match of the query,
// falling back to the start of the body.
func snippet(body, query string) string {
	const width = 160
	idx := strings.Index(strings.ToLower(body), strings.ToLower(query))
	if idx < 0 {
		idx = 0
	}
	start := idx - width/4
	if start < 0 {
		start = 0
	}
	end := start + width
	if end > len(body) {
		end = len(body)
	}
	s := strings.TrimSpace(body[start:end])
	if start > 0 {
		s = "…" + s
	}
	if end < len(body) {
		s += "…"
	}
	return s
}
