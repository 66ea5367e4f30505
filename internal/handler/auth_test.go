package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/internal/resputil"
	"github.com/sbm9960-auto/koc-management/internal/util"
)

func newAuthRouter(t *testing.T) (*AuthMgr, *testRouterEnv) {
	t.Helper()
	db := newTestDB(t)
	mgr := &AuthMgr{
		name:     "auth",
		db:       db,
		tokenMgr: util.NewTokenManager("test-secret", 1, 168),
	}
	return mgr, &testRouterEnv{db: db, router: newTestRouter(mgr, nil)}
}

func signupBody(username, nickname string) SignupReq {
	return SignupReq{
		Username: username,
		Nickname: nickname,
		Name:     "김철수",
		Password: "secret",
		Email:    username + "@example.com",
		Phone:    "010-1234-5678",
		Region:   "도쿄",
	}
}

func TestSignupAutoLogin(t *testing.T) {
	_, env := newAuthRouter(t)

	w := doRequest(t, env.router, http.MethodPost, "/v1/signup", signupBody("alice", "앨리스"))
	var resp LoginResp
	requireOK(t, w, &resp)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "alice", resp.Context.Username)
	assert.Equal(t, "앨리스", resp.Context.Nickname)
	assert.Equal(t, model.RoleUser, resp.Context.Role)
	assert.Zero(t, resp.Context.Points)
	assert.Zero(t, resp.Context.Contribution)

	var user model.User
	require.NoError(t, env.db.Where("username = ?", "alice").First(&user).Error)
	require.NotNil(t, user.Password)
	assert.NotEqual(t, "secret", *user.Password, "password must be stored hashed")
}

func TestSignupDuplicates(t *testing.T) {
	_, env := newAuthRouter(t)

	requireOK(t, doRequest(t, env.router, http.MethodPost, "/v1/signup", signupBody("alice", "앨리스")), nil)

	w := doRequest(t, env.router, http.MethodPost, "/v1/signup", signupBody("alice", "다른닉네임"))
	env1 := decodeResp(t, w, nil)
	assert.Equal(t, resputil.DuplicateUsername, env1.Code)

	w = doRequest(t, env.router, http.MethodPost, "/v1/signup", signupBody("bob", "앨리스"))
	env2 := decodeResp(t, w, nil)
	assert.Equal(t, resputil.DuplicateNickname, env2.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	_, env := newAuthRouter(t)

	w := doRequest(t, env.router, http.MethodPost, "/v1/login", LoginReq{Username: "nobody", Password: "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeResp(t, w, nil)
	assert.Equal(t, resputil.UserNotFound, resp.Code)
	assert.Equal(t, "존재하지 않는 아이디입니다.", resp.Msg)
}

func TestLoginByUsernameOnly(t *testing.T) {
	_, env := newAuthRouter(t)
	requireOK(t, doRequest(t, env.router, http.MethodPost, "/v1/signup", signupBody("alice", "앨리스")), nil)

	// Any password passes as long as the username exists.
	w := doRequest(t, env.router, http.MethodPost, "/v1/login", LoginReq{Username: "alice", Password: "wrong"})
	var resp LoginResp
	requireOK(t, w, &resp)
	assert.Equal(t, "alice", resp.Context.Username)
}

func TestRefreshToken(t *testing.T) {
	_, env := newAuthRouter(t)

	w := doRequest(t, env.router, http.MethodPost, "/v1/signup", signupBody("alice", "앨리스"))
	var created LoginResp
	requireOK(t, w, &created)

	w = doRequest(t, env.router, http.MethodPost, "/v1/refresh", RefreshReq{RefreshToken: created.RefreshToken})
	var refreshed LoginResp
	requireOK(t, w, &refreshed)
	assert.Equal(t, created.Context.UserID, refreshed.Context.UserID)

	w = doRequest(t, env.router, http.MethodPost, "/v1/refresh", RefreshReq{RefreshToken: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckNickname(t *testing.T) {
	_, env := newAuthRouter(t)
	requireOK(t, doRequest(t, env.router, http.MethodPost, "/v1/signup", signupBody("alice", "앨리스")), nil)

	var taken NicknameCheckResp
	requireOK(t, doRequest(t, env.router, http.MethodGet, "/v1/nickname/check?nickname=앨리스", nil), &taken)
	assert.False(t, taken.Available)

	var free NicknameCheckResp
	requireOK(t, doRequest(t, env.router, http.MethodGet, "/v1/nickname/check?nickname=새닉네임", nil), &free)
	assert.True(t, free.Available)
}
