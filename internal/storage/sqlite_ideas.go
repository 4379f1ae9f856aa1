package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ideaspark/internal/apperr"
	"ideaspark/internal/model"
)

// CreateIdea inserts a new business idea and populates its GeneratedAt.
func (s *SQLite) CreateIdea(ctx context.Context, idea *model.BusinessIdea) error {
	if idea.GeneratedAt.IsZero() {
		idea.GeneratedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO business_ideas
		   (id, title, description, target_market, business_model, key_features,
		    market_size, competitive_advantage, confidence_score, tags,
		    estimated_cost, time_to_market, pain_points_addressed,
		    implementation_steps, model, based_on_real_data, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idea.ID, idea.Title, idea.Description, idea.TargetMarket, idea.BusinessModel,
		marshalStrings(idea.KeyFeatures), idea.MarketSize, idea.CompetitiveAdvantage,
		idea.ConfidenceScore, marshalStrings(idea.Tags), idea.EstimatedCost,
		idea.TimeToMarket, marshalStrings(idea.PainPointsAddressed),
		marshalStrings(idea.ImplementationSteps), idea.Model,
		boolToInt(idea.BasedOnRealData), idea.GeneratedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return dbErr("insert business idea", err)
	}
	return nil
}

// GetIdea returns a single business idea by its ID.
func (s *SQLite) GetIdea(ctx context.Context, id string) (*model.BusinessIdea, error) {
	row := s.db.QueryRowContext(ctx, ideaSelect+` WHERE id = ?`, id)
	idea, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "business idea %s not found", id)
	}
	return idea, err
}

// ListIdeas returns ideas ordered by confidence, then recency.
func (s *SQLite) ListIdeas(ctx context.Context, limit int) ([]model.BusinessIdea, error) {
	return s.queryIdeas(ctx,
		ideaSelect+` ORDER BY confidence_score DESC, generated_at DESC LIMIT ?`, limit)
}

// ListIdeasForDigest returns recent ideas at or above the confidence floor.
func (s *SQLite) ListIdeasForDigest(ctx context.Context, minConfidence, limit int) ([]model.BusinessIdea, error) {
	return s.queryIdeas(ctx,
		ideaSelect+` WHERE confidence_score >= ? ORDER BY generated_at DESC LIMIT ?`,
		minConfidence, limit)
}

// DeleteIdea removes a business idea by its ID.
func (s *SQLite) DeleteIdea(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM business_ideas WHERE id = ?`, id)
	if err != nil {
		return dbErr("delete business idea", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "business idea %s not found", id)
	}
	return nil
}

// SaveIdea links an idea to a user's saved list. Saving twice is a no-op.
func (s *SQLite) SaveIdea(ctx context.Context, userID, ideaID string) (*model.SavedIdea, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO saved_ideas (user_id, idea_id, is_favorite, saved_at)
		 VALUES (?, ?, 0, ?)`,
		userID, ideaID, now.Format(timeLayout),
	)
	if err != nil {
		return nil, dbErr("save idea", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, idea_id, is_favorite, saved_at
		 FROM saved_ideas WHERE user_id = ? AND idea_id = ?`, userID, ideaID)
	return scanSavedIdea(row)
}

// ListSavedIdeas returns a user's saved ideas, newest first.
func (s *SQLite) ListSavedIdeas(ctx context.Context, userID string) ([]model.SavedIdea, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, idea_id, is_favorite, saved_at
		 FROM saved_ideas WHERE user_id = ? ORDER BY saved_at DESC, id DESC`, userID)
	if err != nil {
		return nil, dbErr("query saved ideas", err)
	}
	defer func() { _ = rows.Close() }()

	var saved []model.SavedIdea
	for rows.Next() {
		si, err := scanSavedIdea(rows)
		if err != nil {
			return nil, err
		}
		saved = append(saved, *si)
	}
	return saved, rows.Err()
}

// SetSavedIdeaFavorite flips the favorite flag on a saved idea.
func (s *SQLite) SetSavedIdeaFavorite(ctx context.Context, id int64, favorite bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE saved_ideas SET is_favorite = ? WHERE id = ?`, boolToInt(favorite), id)
	if err != nil {
		return dbErr("update saved idea", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "saved idea %d not found", id)
	}
	return nil
}

// DeleteSavedIdea removes an entry from a user's saved list.
func (s *SQLite) DeleteSavedIdea(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_ideas WHERE id = ?`, id)
	if err != nil {
		return dbErr("delete saved idea", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "saved idea %d not found", id)
	}
	return nil
}

const ideaSelect = `SELECT id, title, description, target_market, business_model,
	key_features, market_size, competitive_advantage, confidence_score, tags,
	estimated_cost, time_to_market, pain_points_addressed, implementation_steps,
	model, based_on_real_data, generated_at
	FROM business_ideas`

func (s *SQLite) queryIdeas(ctx context.Context, query string, args ...any) ([]model.BusinessIdea, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("query business ideas", err)
	}
	defer func() { _ = rows.Close() }()

	var ideas []model.BusinessIdea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, *idea)
	}
	return ideas, rows.Err()
}

func scanIdea(row scannable) (*model.BusinessIdea, error) {
	var idea model.BusinessIdea
	var features, tags, addressed, steps, generated string
	var real int
	err := row.Scan(&idea.ID, &idea.Title, &idea.Description, &idea.TargetMarket,
		&idea.BusinessModel, &features, &idea.MarketSize, &idea.CompetitiveAdvantage,
		&idea.ConfidenceScore, &tags, &idea.EstimatedCost, &idea.TimeToMarket,
		&addressed, &steps, &idea.Model, &real, &generated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, dbErr("scan business idea", err)
	}
	idea.KeyFeatures = unmarshalStrings(features)
	idea.Tags = unmarshalStrings(tags)
	idea.PainPointsAddressed = unmarshalStrings(addressed)
	idea.ImplementationSteps = unmarshalStrings(steps)
	idea.BasedOnRealData = real == 1
	idea.GeneratedAt, _ = time.Parse(timeLayout, generated)
	return &idea, nil
}

func scanSavedIdea(row scannable) (*model.SavedIdea, error) {
	var si model.SavedIdea
	var fav int
	var saved string
	err := row.Scan(&si.ID, &si.UserID, &si.IdeaID, &fav, &saved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.NotFound, "saved idea not found")
		}
		return nil, dbErr("scan saved idea", err)
	}
	si.IsFavorite = fav == 1
	si.SavedAt, _ = time.Parse(timeLayout, saved)
	return &si, nil
}
