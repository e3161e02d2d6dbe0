package data

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
)

const schema = `
CREATE TABLE IF NOT EXISTS titles (
	mal_id       INTEGER PRIMARY KEY,
	mangapill_id INTEGER NOT NULL,
	name         VARCHAR,
	status       VARCHAR
);
CREATE TABLE IF NOT EXISTS chapters (
	mal_id     INTEGER NOT NULL,
	idx        INTEGER NOT NULL,
	name       VARCHAR,
	page_count INTEGER NOT NULL
);`

// InitDuckDB opens the library index at path, creating parent directories
// and tables as needed.
func InitDuckDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create library dir: %v", ErrLocalIO, err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Repository is the library index. It mirrors what the chapter documents on
// disk say so `list` does not need to walk every title root; the documents
// stay authoritative.
type Repository struct {
	db *sql.DB
}

// NewDuckDBRepository opens the library index stored at path.
func NewDuckDBRepository(path string) (*Repository, error) {
	db, err := InitDuckDB(path)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveTitle inserts or updates a title.
func (r *Repository) SaveTitle(title *Title) error {
	_, err := r.db.Exec(`
		INSERT INTO titles (mal_id, mangapill_id, name, status) VALUES (?, ?, ?, ?)
		ON CONFLICT (mal_id) DO UPDATE SET
			mangapill_id = excluded.mangapill_id,
			name = excluded.name,
			status = excluded.status`,
		title.MalID, title.SourceID, title.Name, title.Status)
	if err != nil {
		return fmt.Errorf("failed to save title %d: %w", title.MalID, err)
	}
	return nil
}

// GetTitle returns nil without error when the title is unknown.
func (r *Repository) GetTitle(malID int) (*Title, error) {
	var t Title
	var name, status sql.NullString
	err := r.db.QueryRow(`SELECT mal_id, mangapill_id, name, status FROM titles WHERE mal_id = ?`, malID).
		Scan(&t.MalID, &t.SourceID, &name, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get title %d: %w", malID, err)
	}
	t.Name = name.String
	t.Status = status.String
	return &t, nil
}

// ReplaceChapters swaps the stored chapter records of a title for records,
// matching the whole-document rewrite of chapters.json.
func (r *Repository) ReplaceChapters(malID int, records []ChapterRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chapters WHERE mal_id = ?`, malID); err != nil {
		return fmt.Errorf("failed to clear chapters of %d: %w", malID, err)
	}
	for _, rec := range records {
		if _, err := tx.Exec(`INSERT INTO chapters (mal_id, idx, name, page_count) VALUES (?, ?, ?, ?)`,
			malID, rec.Index, rec.Name, rec.PageCount); err != nil {
			return fmt.Errorf("failed to save chapter %d of %d: %w", rec.Index, malID, err)
		}
	}
	return tx.Commit()
}

// GetChapters returns the stored records of a title ordered by index.
func (r *Repository) GetChapters(malID int) ([]ChapterRecord, error) {
	rows, err := r.db.Query(`SELECT idx, name, page_count FROM chapters WHERE mal_id = ? ORDER BY idx`, malID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChapterRecord
	for rows.Next() {
		var rec ChapterRecord
		var name sql.NullString
		if err := rows.Scan(&rec.Index, &name, &rec.PageCount); err != nil {
			return nil, err
		}
		rec.Name = name.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTitles returns every title with its chapter and page totals.
func (r *Repository) ListTitles() ([]TitleStats, error) {
	rows, err := r.db.Query(`
		SELECT t.mal_id, t.mangapill_id, t.name, t.status,
		       COUNT(c.idx), CAST(COALESCE(SUM(c.page_count), 0) AS BIGINT)
		FROM titles t
		LEFT JOIN chapters c ON c.mal_id = t.mal_id
		GROUP BY t.mal_id, t.mangapill_id, t.name, t.status
		ORDER BY t.mal_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TitleStats
	for rows.Next() {
		var s TitleStats
		var name, status sql.NullString
		if err := rows.Scan(&s.Title.MalID, &s.Title.SourceID, &name, &status, &s.Chapters, &s.Pages); err != nil {
			return nil, err
		}
		s.Title.Name = name.String
		s.Title.Status = status.String
		out = append(out, s)
	}
	return out, rows.Err()
}
