package util

import (
	"github.com/gin-gonic/gin"

	"github.com/sbm9960-auto/koc-management/dao/model"
)

const (
	UserIDKey   = "x-user-id"
	UsernameKey = "x-user-name"
	NicknameKey = "x-user-nickname"
	RoleKey     = "x-user-role"
)

func SetJWTContext(c *gin.Context, msg JWTMessage) {
	c.Set(UserIDKey, msg.UserID)
	c.Set(UsernameKey, msg.Username)
	c.Set(NicknameKey, msg.Nickname)
	c.Set(RoleKey, msg.Role)
}

func GetToken(ctx *gin.Context) JWTMessage {
	var msg JWTMessage
	msg.UserID = ctx.GetUint(UserIDKey)
	msg.Username = ctx.GetString(UsernameKey)
	msg.Nickname = ctx.GetString(NicknameKey)

	if role, ok := ctx.Get(RoleKey); ok {
		msg.Role = role.(model.Role)
	} else {
		msg.Role = model.RoleGuest
	}
	return msg
}
