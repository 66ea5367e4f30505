package helper

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/internal"
	"github.com/sbm9960-auto/koc-management/internal/handler"
	"github.com/sbm9960-auto/koc-management/pkg/backup"
	"github.com/sbm9960-auto/koc-management/pkg/config"
)

// ServerRunner 封装服务器运行逻辑
type ServerRunner struct {
	backendConfig *config.Config
	backupMgr     *backup.Manager
}

func NewServerRunner(backendConfig *config.Config) *ServerRunner {
	return &ServerRunner{
		backendConfig: backendConfig,
	}
}

// StartBackups wires the scheduled snapshot job.
func (sr *ServerRunner) StartBackups(registerConfig *handler.RegisterConfig) error {
	sr.backupMgr = backup.NewManager(registerConfig.DB, sr.backendConfig.Backup.Dir)
	return sr.backupMgr.Start(sr.backendConfig.Backup)
}

var (
	readHeaderTimeout = 10 * time.Second // 设置读取头部的超时时间
	cancelTimeout     = 10 * time.Second // 设置取消操作的超时时间
)

// StartServer runs the HTTP server until SIGINT/SIGTERM, then shuts it down
// gracefully.
func (sr *ServerRunner) StartServer(registerConfig *handler.RegisterConfig) {
	klog.Info("starting server")
	backend := internal.Register(registerConfig)

	// reference: https://gin-gonic.com/en/docs/examples/graceful-restart-or-stop
	srv := &http.Server{
		Addr:              sr.backendConfig.ServerAddr,
		Handler:           backend.R,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			klog.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need add it
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	klog.Info("Shutdown Gin Server ...")

	if sr.backupMgr != nil {
		sr.backupMgr.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		klog.Info("Gin Server Shutdown:", err)
	}
	klog.Info("Gin Server exiting")
}
