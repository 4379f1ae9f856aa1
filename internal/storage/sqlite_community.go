package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ideaspark/internal/apperr"
	"ideaspark/internal/model"
)

// CreatePost inserts a new community post.
func (s *SQLite) CreatePost(ctx context.Context, p *model.CommunityPost) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO community_posts
		   (id, author_id, title, content, category, tags, likes_count,
		    comments_count, views_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?)`,
		p.ID, p.AuthorID, p.Title, p.Content, p.Category, marshalStrings(p.Tags),
		p.CreatedAt.Format(timeLayout), p.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return dbErr("insert post", err)
	}
	return nil
}

// GetPost returns a post by ID, optionally counting the read as a view.
func (s *SQLite) GetPost(ctx context.Context, id string, countView bool) (*model.CommunityPost, error) {
	if countView {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE community_posts SET views_count = views_count + 1 WHERE id = ?`, id); err != nil {
			return nil, dbErr("count view", err)
		}
	}
	row := s.db.QueryRowContext(ctx, postSelect+` WHERE id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "post %s not found", id)
	}
	return p, err
}

// ListPosts returns posts matching the given filters.
func (s *SQLite) ListPosts(ctx context.Context, opts ListPostsOptions) ([]model.CommunityPost, error) {
	var where []string
	var args []any

	if opts.Category != "" {
		where = append(where, "category = ?")
		args = append(args, opts.Category)
	}
	if opts.Tag != "" {
		where = append(where, "tags LIKE ?")
		args = append(args, `%"`+opts.Tag+`"%`)
	}
	if opts.Search != "" {
		where = append(where, "(lower(title) LIKE ? OR lower(content) LIKE ?)")
		needle := "%" + strings.ToLower(opts.Search) + "%"
		args = append(args, needle, needle)
	}

	query := postSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	switch opts.Sort {
	case "popular":
		query += " ORDER BY likes_count DESC, created_at DESC"
	case "comments":
		query += " ORDER BY comments_count DESC, created_at DESC"
	default:
		query += " ORDER BY created_at DESC"
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("query posts", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []model.CommunityPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// UpdatePost persists title, content, category and tags of an existing post.
func (s *SQLite) UpdatePost(ctx context.Context, p *model.CommunityPost) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE community_posts
		 SET title = ?, content = ?, category = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, p.Content, p.Category, marshalStrings(p.Tags),
		now.Format(timeLayout), p.ID,
	)
	if err != nil {
		return dbErr("update post", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "post %s not found", p.ID)
	}
	p.UpdatedAt = now
	return nil
}

// DeletePost removes a post together with its comments, likes and bookmarks.
func (s *SQLite) DeletePost(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM community_comments WHERE post_id = ?`, id); err != nil {
		return dbErr("delete comments", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM community_likes WHERE target_id = ?`, id); err != nil {
		return dbErr("delete likes", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM community_bookmarks WHERE post_id = ?`, id); err != nil {
		return dbErr("delete bookmarks", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM community_posts WHERE id = ?`, id)
	if err != nil {
		return dbErr("delete post", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "post %s not found", id)
	}
	return tx.Commit()
}

// CreateComment inserts a comment and bumps the post's comment counter.
func (s *SQLite) CreateComment(ctx context.Context, c *model.CommunityComment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Bumping the counter first doubles as the existence check.
	res, err := tx.ExecContext(ctx,
		`UPDATE community_posts SET comments_count = comments_count + 1 WHERE id = ?`,
		c.PostID)
	if err != nil {
		return dbErr("bump comment counter", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "post %s not found", c.PostID)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO community_comments
		   (id, post_id, author_id, parent_id, content, likes_count, is_edited, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, ?)`,
		c.ID, c.PostID, c.AuthorID, c.ParentID, c.Content, c.CreatedAt.Format(timeLayout),
	); err != nil {
		return dbErr("insert comment", err)
	}
	return tx.Commit()
}

// GetComment returns a single comment by its ID.
func (s *SQLite) GetComment(ctx context.Context, id string) (*model.CommunityComment, error) {
	row := s.db.QueryRowContext(ctx, commentSelect+` WHERE id = ?`, id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "comment %s not found", id)
	}
	return c, err
}

// ListComments returns all comments of a post, oldest first.
func (s *SQLite) ListComments(ctx context.Context, postID string) ([]model.CommunityComment, error) {
	rows, err := s.db.QueryContext(ctx,
		commentSelect+` WHERE post_id = ? ORDER BY created_at, id`, postID)
	if err != nil {
		return nil, dbErr("query comments", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []model.CommunityComment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// UpdateComment rewrites a comment's content and marks it edited.
func (s *SQLite) UpdateComment(ctx context.Context, c *model.CommunityComment) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE community_comments SET content = ?, is_edited = 1 WHERE id = ?`,
		c.Content, c.ID,
	)
	if err != nil {
		return dbErr("update comment", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "comment %s not found", c.ID)
	}
	c.IsEdited = true
	return nil
}

// DeleteComment removes a comment and decrements the post's counter.
func (s *SQLite) DeleteComment(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	var postID string
	err = tx.QueryRowContext(ctx,
		`SELECT post_id FROM community_comments WHERE id = ?`, id).Scan(&postID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Newf(apperr.NotFound, "comment %s not found", id)
	}
	if err != nil {
		return dbErr("load comment", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM community_comments WHERE id = ?`, id); err != nil {
		return dbErr("delete comment", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE community_posts SET comments_count = max(comments_count - 1, 0) WHERE id = ?`,
		postID); err != nil {
		return dbErr("drop comment counter", err)
	}
	return tx.Commit()
}

// TogglePostLike sets the like state for (userID, postID). Repeating the
// same action is a no-op and never moves the counter twice.
func (s *SQLite) TogglePostLike(ctx context.Context, userID, postID string, on bool) (ToggleResult, error) {
	return s.toggleLike(ctx, userID, postID, on, "community_posts")
}

// ToggleCommentLike sets the like state for (userID, commentID).
func (s *SQLite) ToggleCommentLike(ctx context.Context, userID, commentID string, on bool) (ToggleResult, error) {
	return s.toggleLike(ctx, userID, commentID, on, "community_comments")
}

func (s *SQLite) toggleLike(ctx context.Context, userID, targetID string, on bool, counterTable string) (ToggleResult, error) {
	var result ToggleResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, dbErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM community_likes WHERE user_id = ? AND target_id = ?`,
		userID, targetID).Scan(&exists)
	if err != nil {
		return result, dbErr("check like", err)
	}

	switch {
	case on && exists == 0:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO community_likes (user_id, target_id, created_at) VALUES (?, ?, ?)`,
			userID, targetID, time.Now().UTC().Format(timeLayout)); err != nil {
			return result, dbErr("insert like", err)
		}
		if err := bumpCounter(ctx, tx, counterTable, "likes_count", targetID, +1); err != nil {
			return result, err
		}
		result.Changed = true
	case !on && exists > 0:
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM community_likes WHERE user_id = ? AND target_id = ?`,
			userID, targetID); err != nil {
			return result, dbErr("delete like", err)
		}
		if err := bumpCounter(ctx, tx, counterTable, "likes_count", targetID, -1); err != nil {
			return result, err
		}
		result.Changed = true
	}
	result.Active = on

	query := fmt.Sprintf(`SELECT likes_count FROM %s WHERE id = ?`, counterTable)
	err = tx.QueryRowContext(ctx, query, targetID).Scan(&result.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return result, apperr.Newf(apperr.NotFound, "like target %s not found", targetID)
	}
	if err != nil {
		return result, dbErr("read like counter", err)
	}

	return result, tx.Commit()
}

// ToggleBookmark sets the bookmark state for (userID, postID); idempotent.
func (s *SQLite) ToggleBookmark(ctx context.Context, userID, postID string, on bool) (ToggleResult, error) {
	var result ToggleResult
	var res sql.Result
	var err error

	if on {
		res, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO community_bookmarks (user_id, post_id, created_at)
			 VALUES (?, ?, ?)`,
			userID, postID, time.Now().UTC().Format(timeLayout))
	} else {
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM community_bookmarks WHERE user_id = ? AND post_id = ?`,
			userID, postID)
	}
	if err != nil {
		return result, dbErr("toggle bookmark", err)
	}

	n, _ := res.RowsAffected()
	result.Active = on
	result.Changed = n > 0
	return result, nil
}

const postSelect = `SELECT id, author_id, title, content, category, tags,
	likes_count, comments_count, views_count, created_at, updated_at
	FROM community_posts`

const commentSelect = `SELECT id, post_id, author_id, parent_id, content,
	likes_count, is_edited, created_at
	FROM community_comments`

func bumpCounter(ctx context.Context, tx *sql.Tx, table, column, id string, delta int) error {
	query := fmt.Sprintf(
		`UPDATE %s SET %s = max(%s + ?, 0) WHERE id = ?`, table, column, column)
	if _, err := tx.ExecContext(ctx, query, delta, id); err != nil {
		return dbErr("bump counter", err)
	}
	return nil
}

func scanPost(row scannable) (*model.CommunityPost, error) {
	var p model.CommunityPost
	var tags, created, updated string
	err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.Category, &tags,
		&p.LikesCount, &p.CommentsCount, &p.ViewsCount, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, dbErr("scan post", err)
	}
	p.Tags = unmarshalStrings(tags)
	p.CreatedAt, _ = time.Parse(timeLayout, created)
	p.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &p, nil
}

func scanComment(row scannable) (*model.CommunityComment, error) {
	var c model.CommunityComment
	var parent sql.NullString
	var edited int
	var created string
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &parent, &c.Content,
		&c.LikesCount, &edited, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, dbErr("scan comment", err)
	}
	if parent.Valid {
		c.ParentID = &parent.String
	}
	c.IsEdited = edited == 1
	c.CreatedAt, _ = time.Parse(timeLayout, created)
	return &c, nil
}
