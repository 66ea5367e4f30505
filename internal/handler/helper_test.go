package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/internal/resputil"
	"github.com/sbm9960-auto/koc-management/internal/util"
)

func withID(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

type testRouterEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.Favorite{},
		&model.Application{},
		&model.Post{},
		&model.Comment{},
	))
	return db
}

// newTestRouter wires one manager the way the real route registration does,
// with the caller's identity injected instead of a real JWT round trip.
func newTestRouter(mgr Manager, identity *util.JWTMessage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	attach := func(g *gin.RouterGroup) *gin.RouterGroup {
		if identity != nil {
			g.Use(func(c *gin.Context) { util.SetJWTContext(c, *identity) })
		}
		return g
	}

	mgr.RegisterPublic(attach(r.Group("/v1")))
	mgr.RegisterProtected(attach(r.Group("/v1")))
	mgr.RegisterAdmin(attach(r.Group("/v1/admin")))
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code resputil.ErrorCode `json:"code"`
	Data json.RawMessage    `json:"data"`
	Msg  string             `json:"msg"`
}

// decodeResp unmarshals the response envelope and, when out is non-nil, its
// data payload.
func decodeResp(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func requireOK(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeResp(t, w, out)
	require.Equal(t, resputil.OK, env.Code, "unexpected envelope code, msg: %s", env.Msg)
}

func createUser(t *testing.T, db *gorm.DB, user *model.User) *util.JWTMessage {
	t.Helper()
	require.NoError(t, db.Create(user).Error)
	return &util.JWTMessage{
		UserID:   user.ID,
		Username: user.Username,
		Nickname: user.Nickname,
		Role:     user.Role,
	}
}
