package internal

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sbm9960-auto/koc-management/internal/handler"
	"github.com/sbm9960-auto/koc-management/internal/middleware"
	"github.com/sbm9960-auto/koc-management/pkg/config"
)

const apiPrefix = "/v1"

type Backend struct {
	R *gin.Engine
}

func Register(conf *handler.RegisterConfig) *Backend {
	s := new(Backend)
	s.R = gin.Default()
	s.R.Use(middleware.Metrics())

	// Health check
	s.R.GET(apiPrefix+"/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok",
		})
	})

	// Prometheus metrics
	s.R.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.registerService(conf)

	return s
}

func (b *Backend) registerService(conf *handler.RegisterConfig) {
	if origins := config.GetConfig().Cors.AllowOrigins; len(origins) > 0 {
		corsConf := cors.DefaultConfig()
		corsConf.AllowOrigins = origins
		corsConf.AllowHeaders = append(corsConf.AllowHeaders, "Authorization")
		b.R.Use(cors.New(corsConf))
	}

	managers := registerManagers(conf)

	///////////////////////////////////////
	//// Public routers, no need login ////
	///////////////////////////////////////

	// Public views still adapt to the viewer when a token is present
	// (favorite partitioning), so identity resolution is optional here.
	publicRouter := b.R.Group(apiPrefix)
	publicRouter.Use(middleware.AuthOptional())

	///////////////////////////////////////
	//// Protected routers, need login ////
	///////////////////////////////////////

	protectedRouter := b.R.Group(apiPrefix)
	protectedRouter.Use(middleware.AuthProtected())

	///////////////////////////////////////
	//// Admin routers, need admin role ///
	///////////////////////////////////////

	adminRouter := b.R.Group(apiPrefix + "/admin")
	adminRouter.Use(middleware.AuthProtected(), middleware.AuthAdmin())

	for _, mgr := range managers {
		mgr.RegisterPublic(publicRouter)
		mgr.RegisterProtected(protectedRouter)
		mgr.RegisterAdmin(adminRouter)
	}
}
