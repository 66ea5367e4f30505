package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sbm9960-auto/koc-management/internal/util"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// RegisterConfig carries the dependencies every manager may need.
type RegisterConfig struct {
	DB       *gorm.DB
	TokenMgr *util.TokenManager
}

// Registers collects the manager constructors; each handler file appends its
// own constructor from an init function.
var Registers []func(*RegisterConfig) Manager
