package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ideaspark/internal/apperr"
	"ideaspark/internal/model"
)

// maxLoggedContent caps how much of a delivered message is kept in the log.
const maxLoggedContent = 500

// LogTelegramMessage appends a delivery record; the log is append-only.
// Content is truncated to maxLoggedContent characters before storage.
func (s *SQLite) LogTelegramMessage(ctx context.Context, entry *model.TelegramLog) error {
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	if runes := []rune(entry.Content); len(runes) > maxLoggedContent {
		entry.Content = string(runes[:maxLoggedContent])
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO telegram_messages
		   (chat_id, message_type, idea_ids, content, success, error_text, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ChatID, string(entry.Type), marshalStrings(entry.IdeaIDs),
		entry.Content, boolToInt(entry.Success), entry.ErrorText,
		entry.SentAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return dbErr("insert telegram log", err)
	}
	entry.ID, _ = res.LastInsertId()
	return nil
}

// TelegramStats aggregates delivery outcomes over the last `days` days.
func (s *SQLite) TelegramStats(ctx context.Context, days int) (*model.TelegramStats, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_type, success FROM telegram_messages WHERE sent_at >= ?`, cutoff)
	if err != nil {
		return nil, dbErr("query telegram stats", err)
	}
	defer func() { _ = rows.Close() }()

	stats := &model.TelegramStats{ByType: map[string]int{}}
	for rows.Next() {
		var msgType string
		var success int
		if err := rows.Scan(&msgType, &success); err != nil {
			return nil, dbErr("scan telegram stats", err)
		}
		stats.Total++
		if success == 1 {
			stats.Successful++
		}
		stats.ByType[msgType]++
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("telegram stats rows", err)
	}

	stats.Failed = stats.Total - stats.Successful
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.Total) * 100
	}
	return stats, nil
}

// CreateUser inserts a new user.
func (s *SQLite) CreateUser(ctx context.Context, u *model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, avatar, level, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Avatar, u.Level, u.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return dbErr("insert user", err)
	}
	return nil
}

// GetUser returns a user by ID.
func (s *SQLite) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, avatar, level, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Avatar, &u.Level, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "user %s not found", id)
	}
	if err != nil {
		return nil, dbErr("scan user", err)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return &u, nil
}

// PainPointSourceStats aggregates pain point counts and scores per source.
func (s *SQLite) PainPointSourceStats(ctx context.Context) ([]model.SourceStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, COUNT(*), AVG(sentiment_score), AVG(trend_score)
		 FROM pain_points GROUP BY source ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, dbErr("query source stats", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []model.SourceStats
	for rows.Next() {
		var st model.SourceStats
		if err := rows.Scan(&st.Source, &st.Count, &st.AvgSentiment, &st.AvgTrend); err != nil {
			return nil, dbErr("scan source stats", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// TrendingKeywords counts keyword occurrences in recent pain points.
func (s *SQLite) TrendingKeywords(ctx context.Context, days, limit int) ([]model.KeywordCount, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT keywords FROM pain_points WHERE collected_at >= ?`, cutoff)
	if err != nil {
		return nil, dbErr("query keywords", err)
	}
	defer func() { _ = rows.Close() }()

	counts := map[string]int{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, dbErr("scan keywords", err)
		}
		for _, kw := range unmarshalStrings(raw) {
			counts[kw]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("keywords rows", err)
	}

	out := make([]model.KeywordCount, 0, len(counts))
	for kw, n := range counts {
		out = append(out, model.KeywordCount{Keyword: kw, Frequency: n})
	}
	// Highest frequency first; ties break alphabetically for stable output.
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j].Frequency > out[i].Frequency ||
				(out[j].Frequency == out[i].Frequency && out[j].Keyword < out[i].Keyword) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// IdeaStats summarizes stored ideas by count, confidence, and provenance.
func (s *SQLite) IdeaStats(ctx context.Context) (*model.IdeaStats, error) {
	stats := &model.IdeaStats{}
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        AVG(confidence_score),
		        COALESCE(SUM(CASE WHEN based_on_real_data = 0 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN based_on_real_data = 1 THEN 1 ELSE 0 END), 0)
		 FROM business_ideas`).
		Scan(&stats.Total, &avg, &stats.MockCount, &stats.RealCount)
	if err != nil {
		return nil, dbErr("query idea stats", err)
	}
	if avg.Valid {
		stats.AvgConfidence = avg.Float64
	}
	return stats, nil
}
