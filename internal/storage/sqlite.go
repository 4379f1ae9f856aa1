package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"ideaspark/internal/apperr"
	"ideaspark/internal/model"
	"ideaspark/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreatePainPoint inserts a new pain point and populates its CollectedAt.
func (s *SQLite) CreatePainPoint(ctx context.Context, p *model.PainPoint) error {
	if p.CollectedAt.IsZero() {
		p.CollectedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pain_points
		   (id, title, content, source, source_url, sentiment_score, trend_score,
		    keywords, category, collected_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Content, p.Source, p.SourceURL,
		p.SentimentScore, p.TrendScore, marshalStrings(p.Keywords), p.Category,
		p.CollectedAt.UTC().Format(timeLayout), formatTimePtr(p.ProcessedAt),
	)
	if err != nil {
		return dbErr("insert pain point", err)
	}
	return nil
}

// GetPainPoint returns a single pain point by its ID.
func (s *SQLite) GetPainPoint(ctx context.Context, id string) (*model.PainPoint, error) {
	row := s.db.QueryRowContext(ctx, painPointSelect+` WHERE id = ?`, id)
	p, err := scanPainPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "pain point %s not found", id)
	}
	return p, err
}

// ListPainPoints returns pain points ordered by collection time, newest first.
func (s *SQLite) ListPainPoints(ctx context.Context, limit int) ([]model.PainPoint, error) {
	return s.queryPainPoints(ctx,
		painPointSelect+` ORDER BY collected_at DESC LIMIT ?`, limit)
}

// ListPainPointsBySource returns pain points from a single source.
func (s *SQLite) ListPainPointsBySource(ctx context.Context, source string, limit int) ([]model.PainPoint, error) {
	return s.queryPainPoints(ctx,
		painPointSelect+` WHERE source = ? ORDER BY collected_at DESC LIMIT ?`, source, limit)
}

// ListTrendingPainPoints returns pain points ordered by trend then sentiment.
func (s *SQLite) ListTrendingPainPoints(ctx context.Context, limit int) ([]model.PainPoint, error) {
	return s.queryPainPoints(ctx,
		painPointSelect+` ORDER BY trend_score DESC, sentiment_score DESC LIMIT ?`, limit)
}

// ListUnprocessedPainPoints returns pain points not yet used for idea generation.
func (s *SQLite) ListUnprocessedPainPoints(ctx context.Context, limit int) ([]model.PainPoint, error) {
	return s.queryPainPoints(ctx,
		painPointSelect+` WHERE processed_at IS NULL ORDER BY collected_at DESC LIMIT ?`, limit)
}

// SearchPainPoints returns pain points whose keyword list contains keyword.
func (s *SQLite) SearchPainPoints(ctx context.Context, keyword string, limit int) ([]model.PainPoint, error) {
	// Keywords are stored as a JSON array, so an exact element match is a
	// quoted substring match.
	return s.queryPainPoints(ctx,
		painPointSelect+` WHERE keywords LIKE ? ORDER BY trend_score DESC LIMIT ?`,
		`%"`+keyword+`"%`, limit)
}

// MarkPainPointProcessed stamps processed_at on a pain point.
func (s *SQLite) MarkPainPointProcessed(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE pain_points SET processed_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return dbErr("mark pain point processed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "pain point %s not found", id)
	}
	return nil
}

const painPointSelect = `SELECT id, title, content, source, source_url,
	sentiment_score, trend_score, keywords, category, collected_at, processed_at
	FROM pain_points`

func (s *SQLite) queryPainPoints(ctx context.Context, query string, args ...any) ([]model.PainPoint, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("query pain points", err)
	}
	defer func() { _ = rows.Close() }()

	var points []model.PainPoint
	for rows.Next() {
		p, err := scanPainPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, *p)
	}
	return points, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPainPoint(row scannable) (*model.PainPoint, error) {
	var p model.PainPoint
	var keywords string
	var collected string
	var processed sql.NullString
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Source, &p.SourceURL,
		&p.SentimentScore, &p.TrendScore, &keywords, &p.Category, &collected, &processed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, dbErr("scan pain point", err)
	}
	p.Keywords = unmarshalStrings(keywords)
	p.CollectedAt, _ = time.Parse(timeLayout, collected)
	if processed.Valid {
		t, _ := time.Parse(timeLayout, processed.String)
		p.ProcessedAt = &t
	}
	return &p, nil
}

func dbErr(op string, err error) error {
	return apperr.New(apperr.Database, fmt.Errorf("%s: %w", op, err))
}

func marshalStrings(ss []string) string {
	if ss == nil {
		ss = []string{}
	}
	b, _ := json.Marshal(ss)
	return string(b)
}

// unmarshalStrings is the inverse of marshalStrings; an empty array reads
// back as nil so round-tripping a zero-value slice is lossless.
func unmarshalStrings(raw string) []string {
	var ss []string
	if err := json.Unmarshal([]byte(raw), &ss); err != nil || len(ss) == 0 {
		return nil
	}
	return ss
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(timeLayout)
	return &v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
