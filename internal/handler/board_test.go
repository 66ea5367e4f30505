package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/internal/payload"
	"github.com/sbm9960-auto/koc-management/internal/resputil"
	"github.com/sbm9960-auto/koc-management/internal/util"
)

func postAt(id uint, title string, age time.Duration, views, comments int) model.Post {
	return model.Post{
		Model:        gorm.Model{ID: id, CreatedAt: time.Now().Add(-age)},
		Board:        model.BoardFree,
		Title:        title,
		Views:        views,
		CommentCount: comments,
	}
}

func postTitles(posts []model.Post) []string {
	return lo.Map(posts, func(p model.Post, _ int) string { return p.Title })
}

func TestFilterPosts(t *testing.T) {
	posts := []model.Post{
		{Title: "오사카 맛집 추천해주세요!", Content: "오사카 맛집 정보 부탁드립니다."},
		{Title: "Tokyo Hotel Review", Content: "really nice stay"},
		{Title: "도쿄 월세 정보", Content: "도쿄 월세 정보 공유합니다."},
	}

	assert.Len(t, filterPosts(posts, ""), 3)
	assert.Len(t, filterPosts(posts, "   "), 3)

	// Case-insensitive, matches title or content.
	assert.Equal(t, []string{"Tokyo Hotel Review"}, postTitles(filterPosts(posts, "tokyo")))
	assert.Equal(t, []string{"Tokyo Hotel Review"}, postTitles(filterPosts(posts, "NICE")))
	// "정보" hits the first post through its content and the third through
	// its title.
	assert.Equal(t, []string{"오사카 맛집 추천해주세요!", "도쿄 월세 정보"}, postTitles(filterPosts(posts, "정보")))
	assert.Equal(t, []string{"도쿄 월세 정보"}, postTitles(filterPosts(posts, "월세")))
	assert.Empty(t, filterPosts(posts, "없는검색어"))
}

func TestSortPosts(t *testing.T) {
	posts := func() []model.Post {
		return []model.Post{
			postAt(1, "old-popular", 48*time.Hour, 300, 1),
			postAt(2, "new-quiet", time.Hour, 10, 2),
			postAt(3, "mid-chatty", 24*time.Hour, 50, 9),
		}
	}

	latest := posts()
	sortPosts(latest, PostSortLatest)
	assert.Equal(t, []string{"new-quiet", "mid-chatty", "old-popular"}, postTitles(latest))

	popular := posts()
	sortPosts(popular, PostSortPopular)
	assert.Equal(t, []string{"old-popular", "mid-chatty", "new-quiet"}, postTitles(popular))

	chatty := posts()
	sortPosts(chatty, PostSortComments)
	assert.Equal(t, []string{"mid-chatty", "new-quiet", "old-popular"}, postTitles(chatty))
}

func TestPaginatePosts(t *testing.T) {
	posts := make([]model.Post, 23)
	for i := range posts {
		posts[i] = model.Post{Title: fmt.Sprintf("post-%d", i)}
	}

	assert.Len(t, paginatePosts(posts, 1), payload.PageSize)
	assert.Len(t, paginatePosts(posts, 2), payload.PageSize)
	assert.Len(t, paginatePosts(posts, 3), 3)
	assert.Equal(t, "post-20", paginatePosts(posts, 3)[0].Title)
	assert.Empty(t, paginatePosts(posts, 4))
	assert.Empty(t, paginatePosts(nil, 1))
}

func TestTrendingPosts(t *testing.T) {
	now := time.Now()
	posts := []model.Post{
		postAt(1, "stale-hit", 8*24*time.Hour, 9999, 100), // outside the window
		postAt(2, "boundary", 7*24*time.Hour, 10, 0),      // exactly 7 days, inclusive
		postAt(3, "viewed", time.Hour, 320, 0),            // score 320
		postAt(4, "discussed", 2*time.Hour, 100, 120),     // score 340
		postAt(5, "quiet", 3*time.Hour, 1, 0),
		postAt(6, "steady", 4*time.Hour, 200, 50), // score 300
	}

	trending := trendingPosts(posts, now)
	require.Len(t, trending, trendingSize)
	assert.Equal(t, []string{"discussed", "viewed", "steady"}, postTitles(trending))
}

func TestTrendingFewerThanThree(t *testing.T) {
	posts := []model.Post{postAt(1, "only", time.Hour, 5, 0)}
	trending := trendingPosts(posts, time.Now())
	require.Len(t, trending, 1)
	assert.Equal(t, "only", trending[0].Title)
}

func TestEngagementScore(t *testing.T) {
	p := model.Post{Views: 234, CommentCount: 12}
	assert.Equal(t, 258, engagementScore(&p))
}

func boardMgrEnv(t *testing.T, identity *util.JWTMessage, db *gorm.DB) *testRouterEnv {
	t.Helper()
	mgr := &BoardMgr{name: "board", db: db}
	return &testRouterEnv{db: db, router: newTestRouter(mgr, identity)}
}

func TestWriteAndOpenPost(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, &model.User{Username: "alice", Nickname: "앨리스", Role: model.RoleUser})
	env := boardMgrEnv(t, alice, db)

	var created PostResp
	requireOK(t, doRequest(t, env.router, http.MethodPost, "/v1/boards/free/posts",
		WritePostReq{Title: "Test", Content: "first post"}), &created)
	assert.Equal(t, model.BoardFree, created.Board)
	assert.Equal(t, "앨리스", created.AuthorNickname)
	assert.Zero(t, created.Views)
	assert.Zero(t, created.CommentCount)

	// Each open increments the read counter by exactly one.
	path := fmt.Sprintf("/v1/posts/%d", created.ID)
	var opened PostDetailResp
	requireOK(t, doRequest(t, env.router, http.MethodGet, path, nil), &opened)
	assert.Equal(t, 1, opened.Views)
	requireOK(t, doRequest(t, env.router, http.MethodGet, path, nil), &opened)
	assert.Equal(t, 2, opened.Views)
	requireOK(t, doRequest(t, env.router, http.MethodGet, path, nil), &opened)
	assert.Equal(t, 3, opened.Views)
	assert.Equal(t, "first post", opened.Content)
	assert.Empty(t, opened.Comments)
}

func TestWritePostDefaultTitle(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, &model.User{Username: "alice", Nickname: "앨리스", Role: model.RoleUser})
	env := boardMgrEnv(t, alice, db)

	var created PostResp
	requireOK(t, doRequest(t, env.router, http.MethodPost, "/v1/boards/free/posts",
		WritePostReq{Title: "   ", Content: "body"}), &created)
	assert.Equal(t, "제목 없음", created.Title)
}

func TestWritePostUnknownBoard(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, &model.User{Username: "alice", Nickname: "앨리스", Role: model.RoleUser})
	env := boardMgrEnv(t, alice, db)

	w := doRequest(t, env.router, http.MethodPost, "/v1/boards/random/posts",
		WritePostReq{Title: "Test", Content: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPostsPagination(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, &model.User{Username: "alice", Nickname: "앨리스", Role: model.RoleUser})
	env := boardMgrEnv(t, alice, db)

	for i := 0; i < 13; i++ {
		requireOK(t, doRequest(t, env.router, http.MethodPost, "/v1/boards/free/posts",
			WritePostReq{Title: fmt.Sprintf("post-%02d", i), Content: "body"}), nil)
	}
	// Posts on the other board stay out of the listing.
	requireOK(t, doRequest(t, env.router, http.MethodPost, "/v1/boards/life/posts",
		WritePostReq{Title: "life-post", Content: "body"}), nil)

	var page1 payload.ListResp[PostResp]
	requireOK(t, doRequest(t, env.router, http.MethodGet, "/v1/boards/free/posts", nil), &page1)
	assert.EqualValues(t, 13, page1.Count)
	assert.Equal(t, 2, page1.PageCount)
	assert.Len(t, page1.Rows, payload.PageSize)

	var page2 payload.ListResp[PostResp]
	requireOK(t, doRequest(t, env.router, http.MethodGet, "/v1/boards/free/posts?page=2", nil), &page2)
	assert.Len(t, page2.Rows, 3)

	// Out-of-range pages clamp instead of erroring.
	var clamped payload.ListResp[PostResp]
	requireOK(t, doRequest(t, env.router, http.MethodGet, "/v1/boards/free/posts?page=99", nil), &clamped)
	assert.Equal(t, 2, clamped.Page)
	var first payload.ListResp[PostResp]
	requireOK(t, doRequest(t, env.router, http.MethodGet, "/v1/boards/free/posts?page=-1", nil), &first)
	assert.Equal(t, 1, first.Page)
}

func TestListPostsEmptyBoard(t *testing.T) {
	db := newTestDB(t)
	env := boardMgrEnv(t, nil, db)

	var page payload.ListResp[PostResp]
	requireOK(t, doRequest(t, env.router, http.MethodGet, "/v1/boards/life/posts", nil), &page)
	assert.Zero(t, page.Count)
	assert.Equal(t, 1, page.PageCount)
	assert.Equal(t, 1, page.Page)
	assert.Empty(t, page.Rows)
}

func TestCommentsKeepCountInSync(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, &model.User{Username: "alice", Nickname: "앨리스", Role: model.RoleUser})
	env := boardMgrEnv(t, alice, db)

	var post PostResp
	requireOK(t, doRequest(t, env.router, http.MethodPost, "/v1/boards/free/posts",
		WritePostReq{Title: "Test", Content: "body"}), &post)

	commentsPath := fmt.Sprintf("/v1/posts/%d/comments", post.ID)

	// Blank comments are rejected.
	w := doRequest(t, env.router, http.MethodPost, commentsPath, AddCommentReq{Content: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var first CommentResp
	requireOK(t, doRequest(t, env.router, http.MethodPost, commentsPath, AddCommentReq{Content: "좋은 글이네요"}), &first)
	requireOK(t, doRequest(t, env.router, http.MethodPost, commentsPath, AddCommentReq{Content: "둘째 댓글"}), nil)

	var stored model.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, 2, stored.CommentCount)

	requireOK(t, doRequest(t, env.router, http.MethodDelete,
		fmt.Sprintf("%s/%d", commentsPath, first.ID), nil), nil)
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, 1, stored.CommentCount)
}

func TestDeleteCommentPermissions(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, &model.User{Username: "alice", Nickname: "앨리스", Role: model.RoleUser})
	mallory := createUser(t, db, &model.User{Username: "mallory", Nickname: "말로리", Role: model.RoleUser})
	admin := createUser(t, db, &model.User{Username: "admin", Nickname: "관리자", Role: model.RoleAdmin})

	aliceEnv := boardMgrEnv(t, alice, db)
	var post PostResp
	requireOK(t, doRequest(t, aliceEnv.router, http.MethodPost, "/v1/boards/free/posts",
		WritePostReq{Title: "Test", Content: "body"}), &post)
	var comment CommentResp
	requireOK(t, doRequest(t, aliceEnv.router, http.MethodPost,
		fmt.Sprintf("/v1/posts/%d/comments", post.ID), AddCommentReq{Content: "mine"}), &comment)

	deletePath := fmt.Sprintf("/v1/posts/%d/comments/%d", post.ID, comment.ID)

	w := doRequest(t, boardMgrEnv(t, mallory, db).router, http.MethodDelete, deletePath, nil)
	assert.Equal(t, resputil.UserNotAllowed, decodeResp(t, w, nil).Code)

	requireOK(t, doRequest(t, boardMgrEnv(t, admin, db).router, http.MethodDelete, deletePath, nil), nil)
}

func TestEditAndDeletePostPermissions(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, &model.User{Username: "alice", Nickname: "앨리스", Role: model.RoleUser})
	mallory := createUser(t, db, &model.User{Username: "mallory", Nickname: "말로리", Role: model.RoleUser})
	admin := createUser(t, db, &model.User{Username: "admin", Nickname: "관리자", Role: model.RoleAdmin})

	aliceEnv := boardMgrEnv(t, alice, db)
	var post PostResp
	requireOK(t, doRequest(t, aliceEnv.router, http.MethodPost, "/v1/boards/free/posts",
		WritePostReq{Title: "Test", Content: "body"}), &post)
	postPath := fmt.Sprintf("/v1/posts/%d", post.ID)

	w := doRequest(t, boardMgrEnv(t, mallory, db).router, http.MethodPut, postPath,
		EditPostReq{Title: "hijacked", Content: "x"})
	assert.Equal(t, resputil.UserNotAllowed, decodeResp(t, w, nil).Code)

	var edited PostResp
	requireOK(t, doRequest(t, aliceEnv.router, http.MethodPut, postPath,
		EditPostReq{Title: "Test (edited)", Content: "updated"}), &edited)
	assert.Equal(t, "Test (edited)", edited.Title)

	// Admin may remove any post; its comments disappear with it.
	requireOK(t, doRequest(t, aliceEnv.router, http.MethodPost,
		fmt.Sprintf("/v1/posts/%d/comments", post.ID), AddCommentReq{Content: "c"}), nil)
	requireOK(t, doRequest(t, boardMgrEnv(t, admin, db).router, http.MethodDelete, postPath, nil), nil)

	var postCount, commentCount int64
	require.NoError(t, db.Model(&model.Post{}).Count(&postCount).Error)
	require.NoError(t, db.Model(&model.Comment{}).Where("post_id = ?", post.ID).Count(&commentCount).Error)
	assert.Zero(t, postCount)
	assert.Zero(t, commentCount)
}

func TestTrendingEndpoint(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, &model.User{Username: "alice", Nickname: "앨리스", Role: model.RoleUser})
	env := boardMgrEnv(t, alice, db)

	seed := []model.Post{
		postAt(0, "old", 10*24*time.Hour, 500, 50),
		postAt(0, "a", time.Hour, 234, 12),
		postAt(0, "b", 2*time.Hour, 156, 8),
		postAt(0, "c", 3*time.Hour, 320, 15),
		postAt(0, "d", 4*time.Hour, 1, 0),
	}
	for i := range seed {
		seed[i].AuthorID = alice.UserID
		seed[i].AuthorNickname = alice.Nickname
		createdAt := seed[i].CreatedAt
		require.NoError(t, db.Create(&seed[i]).Error)
		require.NoError(t, db.Model(&seed[i]).Update("created_at", createdAt).Error)
	}

	var trending []PostResp
	requireOK(t, doRequest(t, env.router, http.MethodGet, "/v1/boards/free/trending", nil), &trending)
	require.Len(t, trending, 3)
	// Scores: c=350, a=258, b=172; "old" is outside the 7-day window.
	assert.Equal(t, []string{"c", "a", "b"},
		lo.Map(trending, func(p PostResp, _ int) string { return p.Title }))
}
