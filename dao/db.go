package dao

import (
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/pkg/config"
)

var (
	once     sync.Once
	instance *gorm.DB
)

// GetDB returns the singleton instance of the database connection.
func GetDB() *gorm.DB {
	once.Do(func() {
		dbConfig := config.GetConfig()

		var err error
		instance, err = gorm.Open(sqlite.Open(dbConfig.Sqlite.Path), &gorm.Config{})
		if err != nil {
			panic(err)
		}
		sqlDB, err := instance.DB()
		if err != nil {
			panic(err)
		}
		// SQLite allows a single writer; a small pool avoids lock contention.
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(time.Hour)

		klog.Info("SQLite init success!")
	})
	return instance
}
