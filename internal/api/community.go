package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ideaspark/internal/apperr"
	"ideaspark/internal/model"
	"ideaspark/internal/storage"
)

func (s *Server) listPosts(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	opts := storage.ListPostsOptions{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Search:   c.Query("search"),
		Sort:     c.DefaultQuery("sort", "latest"),
		Limit:    limitQuery(c),
		Offset:   offset,
	}

	posts, err := s.store.ListPosts(c.Request.Context(), opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	okMeta(c, posts, gin.H{"count": len(posts), "offset": opts.Offset})
}

type createPostRequest struct {
	UserID   string   `json:"userId" binding:"required"`
	Title    string   `json:"title" binding:"required"`
	Content  string   `json:"content" binding:"required"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func (s *Server) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId, title and content are required")
		return
	}
	if req.Category == "" {
		req.Category = "general"
	}

	post := model.CommunityPost{
		ID:       uuid.NewString(),
		AuthorID: req.UserID,
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	}
	if err := s.store.CreatePost(c.Request.Context(), &post); err != nil {
		s.fail(c, err)
		return
	}
	created(c, post)
}

func (s *Server) getPost(c *gin.Context) {
	post, err := s.store.GetPost(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, post)
}

type updatePostRequest struct {
	UserID   string   `json:"userId" binding:"required"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func (s *Server) updatePost(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId is required")
		return
	}

	ctx := c.Request.Context()
	post, err := s.store.GetPost(ctx, c.Param("id"), false)
	if err != nil {
		s.fail(c, err)
		return
	}
	if post.AuthorID != req.UserID {
		s.fail(c, apperr.Newf(apperr.Forbidden, "only the author can edit this post"))
		return
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Content != "" {
		post.Content = req.Content
	}
	if req.Category != "" {
		post.Category = req.Category
	}
	if req.Tags != nil {
		post.Tags = req.Tags
	}
	if err := s.store.UpdatePost(ctx, post); err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, post, "post updated")
}

type ownerRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (s *Server) deletePost(c *gin.Context) {
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId is required")
		return
	}

	ctx := c.Request.Context()
	post, err := s.store.GetPost(ctx, c.Param("id"), false)
	if err != nil {
		s.fail(c, err)
		return
	}
	if post.AuthorID != req.UserID {
		s.fail(c, apperr.Newf(apperr.Forbidden, "only the author can delete this post"))
		return
	}

	if err := s.store.DeletePost(ctx, post.ID); err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, nil, "post deleted")
}

type toggleRequest struct {
	UserID string `json:"userId" binding:"required"`
	Action string `json:"action"`
}

// wantOn maps the requested action to the desired toggle state. An empty
// action means "like"/"bookmark" (turn on).
func (r toggleRequest) wantOn(offAction string) bool {
	return r.Action != offAction
}

func (s *Server) togglePostLike(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId is required")
		return
	}

	result, err := s.store.TogglePostLike(c.Request.Context(), req.UserID, c.Param("id"), req.wantOn("unlike"))
	if err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, gin.H{"liked": result.Active, "likesCount": result.Count}, toggleMessage(result, "liked"))
}

func (s *Server) toggleCommentLike(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId is required")
		return
	}

	result, err := s.store.ToggleCommentLike(c.Request.Context(), req.UserID, c.Param("id"), req.wantOn("unlike"))
	if err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, gin.H{"liked": result.Active, "likesCount": result.Count}, toggleMessage(result, "liked"))
}

func (s *Server) toggleBookmark(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId is required")
		return
	}

	result, err := s.store.ToggleBookmark(c.Request.Context(), req.UserID, c.Param("id"), req.wantOn("remove"))
	if err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, gin.H{"bookmarked": result.Active, "count": result.Count}, toggleMessage(result, "bookmarked"))
}

// toggleMessage describes a toggle outcome, calling out repeats so clients
// can tell an idempotent no-op from a state change.
func toggleMessage(result storage.ToggleResult, verb string) string {
	switch {
	case result.Active && !result.Changed:
		return "already " + verb
	case result.Active:
		return verb
	case result.Changed:
		return verb + " removed"
	default:
		return "not " + verb
	}
}

func (s *Server) listComments(c *gin.Context) {
	comments, err := s.store.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	okMeta(c, comments, gin.H{"count": len(comments)})
}

type createCommentRequest struct {
	UserID   string  `json:"userId" binding:"required"`
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parentId"`
}

func (s *Server) createComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId and content are required")
		return
	}

	comment := model.CommunityComment{
		ID:       uuid.NewString(),
		PostID:   c.Param("id"),
		AuthorID: req.UserID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := s.store.CreateComment(c.Request.Context(), &comment); err != nil {
		s.fail(c, err)
		return
	}
	created(c, comment)
}

type updateCommentRequest struct {
	UserID  string `json:"userId" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (s *Server) updateComment(c *gin.Context) {
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId and content are required")
		return
	}

	ctx := c.Request.Context()
	comment, err := s.store.GetComment(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if comment.AuthorID != req.UserID {
		s.fail(c, apperr.Newf(apperr.Forbidden, "only the author can edit this comment"))
		return
	}

	comment.Content = req.Content
	comment.IsEdited = true
	if err := s.store.UpdateComment(ctx, comment); err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, comment, "comment updated")
}

func (s *Server) deleteComment(c *gin.Context) {
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId is required")
		return
	}

	ctx := c.Request.Context()
	comment, err := s.store.GetComment(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if comment.AuthorID != req.UserID {
		s.fail(c, apperr.Newf(apperr.Forbidden, "only the author can delete this comment"))
		return
	}

	if err := s.store.DeleteComment(ctx, comment.ID); err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, nil, "comment deleted")
}
