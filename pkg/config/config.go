package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

type Config struct {
	// Port Settings
	Host       string `json:"host"`       // The domain name of the server.
	ServerAddr string `json:"serverAddr"` // The address the server endpoint binds to.

	Auth struct {
		AccessTokenSecret  string `json:"accessTokenSecret"`
		RefreshTokenSecret string `json:"refreshTokenSecret"`
	} `json:"auth"`

	Sqlite struct {
		Path string `json:"path"` // Path of the database file.
	} `json:"sqlite"`

	Cors struct {
		AllowOrigins []string `json:"allowOrigins"`
	} `json:"cors"`

	Backup BackupConf `json:"backup"`
}

type BackupConf struct {
	Enable bool   `json:"enable"`
	Spec   string `json:"spec"` // Cron expression for the snapshot job.
	Dir    string `json:"dir"`  // Directory the snapshots are written to.
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// initConfig reads the configuration file. In debug mode the path can be
// overridden with KOC_DEBUG_CONFIG_PATH; in release mode the file is expected
// at /etc/koc/config.yaml. A missing file falls back to defaults so the
// server can run as a single binary with no setup.
func initConfig() *Config {
	cfg := defaultConfig()

	var configPath string
	if IsDebugMode() {
		if os.Getenv("KOC_DEBUG_CONFIG_PATH") != "" {
			configPath = os.Getenv("KOC_DEBUG_CONFIG_PATH")
		} else {
			configPath = "./etc/debug-config.yaml"
		}
	} else {
		configPath = "/etc/koc/config.yaml"
	}
	klog.Info("config path: ", configPath)

	if err := readConfig(configPath, cfg); err != nil {
		if os.IsNotExist(err) {
			klog.Warning("config file not found, using defaults")
			return cfg
		}
		klog.Error("init config", err)
		panic(err)
	}
	return cfg
}

func defaultConfig() *Config {
	cfg := &Config{
		Host:       "localhost",
		ServerAddr: ":8088",
	}
	cfg.Sqlite.Path = "koc.db"
	cfg.Backup.Spec = "0 3 * * *"
	cfg.Backup.Dir = "./backups"
	return cfg
}

func readConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}
