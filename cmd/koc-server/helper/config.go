package helper

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sbm9960-auto/koc-management/dao"
	"github.com/sbm9960-auto/koc-management/internal/handler"
	"github.com/sbm9960-auto/koc-management/internal/util"
	"github.com/sbm9960-auto/koc-management/pkg/config"
)

// ConfigInitializer 封装配置初始化逻辑
type ConfigInitializer struct {
	backendConfig *config.Config
}

func NewConfigInitializer() *ConfigInitializer {
	return &ConfigInitializer{
		backendConfig: config.GetConfig(),
	}
}

func (ci *ConfigInitializer) GetBackendConfig() *config.Config {
	return ci.backendConfig
}

// LoadDebugEnvironment loads the local .debug.env overrides when running in
// debug mode. The file is optional; a developer without one gets defaults.
func (ci *ConfigInitializer) LoadDebugEnvironment() error {
	if gin.Mode() != gin.DebugMode {
		return nil
	}

	if err := godotenv.Load(".debug.env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if port := os.Getenv("KOC_BE_PORT"); port != "" {
		ci.backendConfig.ServerAddr = ":" + port
	}
	return nil
}

// InitializeRegisterConfig opens the database, runs migrations and wires the
// dependencies the handlers need.
func (ci *ConfigInitializer) InitializeRegisterConfig() (*handler.RegisterConfig, error) {
	db := dao.GetDB()
	if err := dao.Migrate(db); err != nil {
		return nil, err
	}

	return &handler.RegisterConfig{
		DB:       db,
		TokenMgr: util.GetTokenMgr(),
	}, nil
}
