package handler

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/internal/payload"
	"github.com/sbm9960-auto/koc-management/internal/resputil"
	"github.com/sbm9960-auto/koc-management/internal/util"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewBoardMgr)
}

type BoardMgr struct {
	name string
	db   *gorm.DB
}

func NewBoardMgr(conf *RegisterConfig) Manager {
	return &BoardMgr{
		name: "board",
		db:   conf.DB,
	}
}

func (mgr *BoardMgr) GetName() string { return mgr.name }

func (mgr *BoardMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("/boards/:board/posts", mgr.ListPosts)
	g.GET("/boards/:board/trending", mgr.Trending)
	g.GET("/posts/:id", mgr.GetPost)
}

func (mgr *BoardMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("/boards/:board/posts", mgr.WritePost)
	g.PUT("/posts/:id", mgr.EditPost)
	g.DELETE("/posts/:id", mgr.DeletePost)
	g.POST("/posts/:id/comments", mgr.AddComment)
	g.DELETE("/posts/:id/comments/:commentID", mgr.DeleteComment)
}

func (mgr *BoardMgr) RegisterAdmin(_ *gin.RouterGroup) {}

const (
	PostSortLatest   = "latest"
	PostSortPopular  = "popular"
	PostSortComments = "comments"

	trendingWindow = 7 * 24 * time.Hour
	trendingSize   = 3
)

type (
	BoardURI struct {
		Board model.Board `uri:"board" binding:"required"`
	}

	PostListQuery struct {
		payload.ListReqQuery
		Search string `form:"search"`
		Sort   string `form:"sort,default=latest"`
	}

	PostResp struct {
		ID             uint        `json:"id"`
		Board          model.Board `json:"board"`
		Title          string      `json:"title"`
		AuthorNickname string      `json:"authorNickname"`
		Views          int         `json:"views"`
		CommentCount   int         `json:"commentCount"`
		CreatedAt      time.Time   `json:"createdAt"`
	}

	PostDetailResp struct {
		PostResp
		AuthorID uint          `json:"authorID"`
		Content  string        `json:"content"`
		Image    string        `json:"image,omitempty"`
		Comments []CommentResp `json:"comments"`
	}

	CommentResp struct {
		ID             uint      `json:"id"`
		AuthorID       uint      `json:"authorID"`
		AuthorNickname string    `json:"authorNickname"`
		Content        string    `json:"content"`
		CreatedAt      time.Time `json:"createdAt"`
	}
)

// ListPosts returns one page of a board. Search narrows by case-insensitive
// substring over title or content, then the result is sorted and windowed
// into fixed-size pages with out-of-range pages clamped instead of erroring.
func (mgr *BoardMgr) ListPosts(c *gin.Context) {
	var uri BoardURI
	if err := c.ShouldBindUri(&uri); err != nil || !uri.Board.Valid() {
		resputil.BadRequestError(c, "unknown board")
		return
	}
	var req PostListQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var posts []model.Post
	if err := mgr.db.WithContext(c).
		Where("board = ?", uri.Board).
		Order("created_at DESC, id DESC").
		Find(&posts).Error; err != nil {
		klog.Errorf("failed to list posts, board: %s, err: %v", uri.Board, err)
		resputil.Error(c, "failed to list posts", resputil.NotSpecified)
		return
	}

	posts = filterPosts(posts, req.Search)
	sortPosts(posts, req.Sort)

	pageCount := payload.PageCount(len(posts))
	page := payload.ClampPage(req.Page, pageCount)
	window := paginatePosts(posts, page)

	resputil.Success(c, payload.ListResp[PostResp]{
		Rows:      lo.Map(window, func(p model.Post, _ int) PostResp { return convertToPostResp(&p) }),
		Count:     int64(len(posts)),
		Page:      page,
		PageCount: pageCount,
	})
}

// Trending returns the board's top three posts from the last seven days,
// ranked by views plus twice the comment count. The window boundary is
// inclusive at exactly seven days ago.
func (mgr *BoardMgr) Trending(c *gin.Context) {
	var uri BoardURI
	if err := c.ShouldBindUri(&uri); err != nil || !uri.Board.Valid() {
		resputil.BadRequestError(c, "unknown board")
		return
	}

	var posts []model.Post
	if err := mgr.db.WithContext(c).Where("board = ?", uri.Board).Find(&posts).Error; err != nil {
		klog.Errorf("failed to load posts for trending, board: %s, err: %v", uri.Board, err)
		resputil.Error(c, "failed to compute trending posts", resputil.NotSpecified)
		return
	}

	trending := trendingPosts(posts, time.Now())
	resputil.Success(c, lo.Map(trending, func(p model.Post, _ int) PostResp { return convertToPostResp(&p) }))
}

type PostIDReq struct {
	ID uint `uri:"id" binding:"required"`
}

// GetPost opens a post: the read counter grows by exactly one per open and
// the post comes back together with its comments. Anonymous reads count too.
func (mgr *BoardMgr) GetPost(c *gin.Context) {
	var postID PostIDReq
	if err := c.ShouldBindUri(&postID); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var post model.Post
	if err := mgr.db.WithContext(c).First(&post, postID.ID).Error; err != nil {
		resputil.Error(c, "post not found", resputil.NotFound)
		return
	}

	if err := mgr.db.WithContext(c).Model(&post).
		Update("views", gorm.Expr("views + 1")).Error; err != nil {
		klog.Warningf("failed to increment views, postID: %d, err: %v", post.ID, err)
	} else {
		post.Views++
	}

	var comments []model.Comment
	if err := mgr.db.WithContext(c).
		Where("post_id = ?", post.ID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		klog.Errorf("failed to load comments, postID: %d, err: %v", post.ID, err)
		resputil.Error(c, "failed to load comments", resputil.NotSpecified)
		return
	}

	resputil.Success(c, PostDetailResp{
		PostResp: convertToPostResp(&post),
		AuthorID: post.AuthorID,
		Content:  post.Content,
		Image:    post.Image,
		Comments: lo.Map(comments, func(cm model.Comment, _ int) CommentResp {
			return CommentResp{
				ID:             cm.ID,
				AuthorID:       cm.AuthorID,
				AuthorNickname: cm.AuthorNickname,
				Content:        cm.Content,
				CreatedAt:      cm.CreatedAt,
			}
		}),
	})
}

type WritePostReq struct {
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
	Image   string `json:"image"`
}

// defaultPostTitle replaces an empty title on submission.
const defaultPostTitle = "제목 없음"

// WritePost creates a post on the given board with zeroed counters. The
// author's nickname is denormalized into the post at writing time.
func (mgr *BoardMgr) WritePost(c *gin.Context) {
	token := util.GetToken(c)

	var uri BoardURI
	if err := c.ShouldBindUri(&uri); err != nil || !uri.Board.Valid() {
		resputil.BadRequestError(c, "unknown board")
		return
	}
	var req WritePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultPostTitle
	}

	post := model.Post{
		Board:          uri.Board,
		Title:          title,
		AuthorID:       token.UserID,
		AuthorNickname: token.Nickname,
		Content:        req.Content,
		Image:          req.Image,
	}
	if err := mgr.db.WithContext(c).Create(&post).Error; err != nil {
		klog.Errorf("failed to create post, board: %s, userID: %d, err: %v", uri.Board, token.UserID, err)
		resputil.Error(c, "failed to create post", resputil.NotSpecified)
		return
	}

	klog.Infof("post created, board: %s, postID: %d, author: %s", uri.Board, post.ID, post.AuthorNickname)
	resputil.Success(c, convertToPostResp(&post))
}

type EditPostReq struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
	Image   string `json:"image"`
}

// EditPost updates title, content and image. Only the author or an admin may
// edit; counters and authorship are untouched.
func (mgr *BoardMgr) EditPost(c *gin.Context) {
	post, ok := mgr.authorizedPost(c)
	if !ok {
		return
	}
	var req EditPostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	post.Title = req.Title
	post.Content = req.Content
	post.Image = req.Image
	if err := mgr.db.WithContext(c).Save(post).Error; err != nil {
		klog.Errorf("failed to edit post, postID: %d, err: %v", post.ID, err)
		resputil.Error(c, "failed to edit post", resputil.NotSpecified)
		return
	}
	resputil.Success(c, convertToPostResp(post))
}

// DeletePost removes a post and its comments. Only the author or an admin.
func (mgr *BoardMgr) DeletePost(c *gin.Context) {
	post, ok := mgr.authorizedPost(c)
	if !ok {
		return
	}

	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		klog.Errorf("failed to delete post, postID: %d, err: %v", post.ID, err)
		resputil.Error(c, "failed to delete post", resputil.NotSpecified)
		return
	}
	resputil.Success(c, "deleted")
}

type AddCommentReq struct {
	Content string `json:"content" binding:"required"`
}

// AddComment appends a comment and refreshes the post's cached comment count
// from the live rows.
func (mgr *BoardMgr) AddComment(c *gin.Context) {
	token := util.GetToken(c)

	var postID PostIDReq
	if err := c.ShouldBindUri(&postID); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req AddCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		resputil.BadRequestError(c, "comment content is required")
		return
	}

	var post model.Post
	if err := mgr.db.WithContext(c).First(&post, postID.ID).Error; err != nil {
		resputil.Error(c, "post not found", resputil.NotFound)
		return
	}

	comment := model.Comment{
		PostID:         post.ID,
		AuthorID:       token.UserID,
		AuthorNickname: token.Nickname,
		Content:        content,
	}
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return syncCommentCount(tx, post.ID)
	})
	if err != nil {
		klog.Errorf("failed to add comment, postID: %d, err: %v", post.ID, err)
		resputil.Error(c, "failed to add comment", resputil.NotSpecified)
		return
	}

	resputil.Success(c, CommentResp{
		ID:             comment.ID,
		AuthorID:       comment.AuthorID,
		AuthorNickname: comment.AuthorNickname,
		Content:        comment.Content,
		CreatedAt:      comment.CreatedAt,
	})
}

type CommentIDReq struct {
	ID        uint `uri:"id" binding:"required"`
	CommentID uint `uri:"commentID" binding:"required"`
}

// DeleteComment removes one comment, permitted to its author or an admin,
// and recomputes the cached count instead of decrementing it.
func (mgr *BoardMgr) DeleteComment(c *gin.Context) {
	token := util.GetToken(c)

	var req CommentIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var comment model.Comment
	if err := mgr.db.WithContext(c).
		Where("id = ? AND post_id = ?", req.CommentID, req.ID).
		First(&comment).Error; err != nil {
		resputil.Error(c, "comment not found", resputil.NotFound)
		return
	}
	if comment.AuthorID != token.UserID && token.Role != model.RoleAdmin {
		resputil.Error(c, "permission denied to delete this comment", resputil.UserNotAllowed)
		return
	}

	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&comment).Error; err != nil {
			return err
		}
		return syncCommentCount(tx, comment.PostID)
	})
	if err != nil {
		klog.Errorf("failed to delete comment, commentID: %d, err: %v", comment.ID, err)
		resputil.Error(c, "failed to delete comment", resputil.NotSpecified)
		return
	}
	resputil.Success(c, "deleted")
}

// authorizedPost binds the post ID, loads the post and checks that the caller
// is its author or an admin. On failure the response is already written.
func (mgr *BoardMgr) authorizedPost(c *gin.Context) (*model.Post, bool) {
	token := util.GetToken(c)

	var postID PostIDReq
	if err := c.ShouldBindUri(&postID); err != nil {
		resputil.BadRequestError(c, err.Error())
		return nil, false
	}

	var post model.Post
	if err := mgr.db.WithContext(c).First(&post, postID.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			resputil.Error(c, "post not found", resputil.NotFound)
		} else {
			resputil.Error(c, err.Error(), resputil.NotSpecified)
		}
		return nil, false
	}
	if post.AuthorID != token.UserID && token.Role != model.RoleAdmin {
		klog.Warningf("user attempted to modify another user's post, userID: %d, postID: %d, authorID: %d",
			token.UserID, post.ID, post.AuthorID)
		resputil.Error(c, "permission denied to modify this post", resputil.UserNotAllowed)
		return nil, false
	}
	return &post, true
}

// syncCommentCount rewrites the cached counter from the live comment rows.
func syncCommentCount(tx *gorm.DB, postID uint) error {
	var count int64
	if err := tx.Model(&model.Comment{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	return tx.Model(&model.Post{}).Where("id = ?", postID).Update("comment_count", count).Error
}

// filterPosts keeps posts whose title or content contains the query,
// case-insensitively. An empty query keeps everything.
func filterPosts(posts []model.Post, search string) []model.Post {
	query := strings.ToLower(strings.TrimSpace(search))
	if query == "" {
		return posts
	}
	return lo.Filter(posts, func(p model.Post, _ int) bool {
		return strings.Contains(strings.ToLower(p.Title), query) ||
			strings.Contains(strings.ToLower(p.Content), query)
	})
}

// sortPosts orders a board listing in place. Latest sorts by creation time
// descending, popular by views, comments by comment count.
func sortPosts(posts []model.Post, sortKey string) {
	switch sortKey {
	case PostSortPopular:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].Views > posts[j].Views
		})
	case PostSortComments:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CommentCount > posts[j].CommentCount
		})
	default:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	}
}

func paginatePosts(posts []model.Post, page int) []model.Post {
	start := (page - 1) * payload.PageSize
	if start >= len(posts) {
		return nil
	}
	end := start + payload.PageSize
	if end > len(posts) {
		end = len(posts)
	}
	return posts[start:end]
}

// trendingPosts ranks the posts of the last seven days by views plus twice
// the comment count and returns the top three. The cutoff is inclusive.
func trendingPosts(posts []model.Post, now time.Time) []model.Post {
	cutoff := now.Add(-trendingWindow)
	recent := lo.Filter(posts, func(p model.Post, _ int) bool {
		return !p.CreatedAt.Before(cutoff)
	})
	sort.SliceStable(recent, func(i, j int) bool {
		return engagementScore(&recent[i]) > engagementScore(&recent[j])
	})
	if len(recent) > trendingSize {
		recent = recent[:trendingSize]
	}
	return recent
}

func engagementScore(p *model.Post) int {
	return p.Views + 2*p.CommentCount
}

func convertToPostResp(p *model.Post) PostResp {
	return PostResp{
		ID:             p.ID,
		Board:          p.Board,
		Title:          p.Title,
		AuthorNickname: p.AuthorNickname,
		Views:          p.Views,
		CommentCount:   p.CommentCount,
		CreatedAt:      p.CreatedAt,
	}
}
