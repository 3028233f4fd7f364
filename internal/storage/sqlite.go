package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/photostory/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chapters (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		image_url TEXT NOT NULL,
		narrative TEXT NOT NULL,
		connections TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		chapter_number INTEGER NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateChapter inserts a chapter. A taken chapter number yields ErrDuplicateChapterNumber.
func (s *SQLiteStorage) CreateChapter(ctx context.Context, input *models.ChapterInput) (*models.Chapter, error) {
	if input.ChapterNumber < 1 {
		return nil, ErrInvalidChapterNumber
	}
	c := newChapter(uuid.New().String(), input)
	c.CreatedAt = time.Now().UTC()

	connectionsJSON, err := json.Marshal(c.Connections)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal connections: %w", err)
	}
	tagsJSON, err := json.Marshal(c.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	var userID sql.NullString
	if c.UserID != nil {
		userID = sql.NullString{String: *c.UserID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chapters (id, user_id, image_url, narrative, connections, tags, chapter_number, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, userID, c.ImageURL, c.Narrative, string(connectionsJSON), string(tagsJSON), c.ChapterNumber, c.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateChapterNumber, c.ChapterNumber)
		}
		return nil, fmt.Errorf("failed to insert chapter: %w", err)
	}
	return c, nil
}

// ListChapters returns all chapters ordered by chapter_number.
func (s *SQLiteStorage) ListChapters(ctx context.Context) ([]*models.Chapter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, image_url, narrative, connections, tags, chapter_number, created_at
		 FROM chapters ORDER BY chapter_number`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chapters := []*models.Chapter{}
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

// GetChapter returns a chapter by ID.
func (s *SQLiteStorage) GetChapter(ctx context.Context, id string) (*models.Chapter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, image_url, narrative, connections, tags, chapter_number, created_at
		 FROM chapters WHERE id = ?`, id,
	)
	c, err := scanChapter(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteAllChapters removes every chapter.
func (s *SQLiteStorage) DeleteAllChapters(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chapters`)
	return err
}

// CountChapters returns the number of chapters.
func (s *SQLiteStorage) CountChapters(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chapters`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChapter(row rowScanner) (*models.Chapter, error) {
	var c models.Chapter
	var userID sql.NullString
	var connectionsJSON, tagsJSON string
	if err := row.Scan(&c.ID, &userID, &c.ImageURL, &c.Narrative, &connectionsJSON, &tagsJSON, &c.ChapterNumber, &c.CreatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		uid := userID.String
		c.UserID = &uid
	}
	if err := json.Unmarshal([]byte(connectionsJSON), &c.Connections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &c.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if c.Connections == nil {
		c.Connections = []string{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}
