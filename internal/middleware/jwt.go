package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/internal/resputil"
	"github.com/sbm9960-auto/koc-management/internal/util"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.Request.Header.Get("Authorization")
	t := strings.Split(authHeader, " ")
	if len(t) < 2 || t[0] != "Bearer" {
		return "", false
	}
	return t[1], true
}

func AuthProtected() gin.HandlerFunc {
	return func(c *gin.Context) {
		authToken, ok := bearerToken(c)
		if !ok {
			resputil.HTTPError(c, http.StatusUnauthorized, "Invalid token", resputil.TokenInvalid)
			c.Abort()
			return
		}

		token, err := util.GetTokenMgr().CheckToken(authToken)
		if err != nil {
			resputil.HTTPError(c, http.StatusUnauthorized, err.Error(), resputil.TokenExpired)
			c.Abort()
			return
		}

		util.SetJWTContext(c, token)
		c.Next()
	}
}

// AuthOptional resolves the caller's identity when a valid bearer token is
// present but lets anonymous requests through. Public views that adapt to
// the viewer (favorite partitioning) sit behind this.
func AuthOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authToken, ok := bearerToken(c); ok {
			if token, err := util.GetTokenMgr().CheckToken(authToken); err == nil {
				util.SetJWTContext(c, token)
			}
		}
		c.Next()
	}
}

func AuthAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.GetToken(c)
		if token.Role != model.RoleAdmin {
			resputil.HTTPError(c, http.StatusUnauthorized, "Not Admin", resputil.UserNotAllowed)
			c.Abort()
			return
		}
		c.Next()
	}
}
