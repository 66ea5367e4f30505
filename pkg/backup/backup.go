// Package backup builds full JSON snapshots of the database, both for the
// admin export download and for the scheduled on-disk backups.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/pkg/config"
)

// Snapshot is the one-way dump document. Nothing imports it back; it exists
// so an operator can inspect or archive the full state.
type Snapshot struct {
	ID           string              `json:"id"`
	TakenAt      time.Time           `json:"takenAt"`
	Users        []model.User        `json:"users"`
	Projects     []model.Project     `json:"projects"`
	Favorites    []model.Favorite    `json:"favorites"`
	Applications []model.Application `json:"applications"`
	Posts        []model.Post        `json:"posts"`
	Comments     []model.Comment     `json:"comments"`
}

// BuildSnapshot reads every table into a single document.
func BuildSnapshot(ctx context.Context, db *gorm.DB) (*Snapshot, error) {
	snapshot := &Snapshot{
		ID:      uuid.NewString(),
		TakenAt: time.Now(),
	}

	tx := db.WithContext(ctx)
	for _, load := range []func() error{
		func() error { return tx.Order("id ASC").Find(&snapshot.Users).Error },
		func() error { return tx.Order("id ASC").Find(&snapshot.Projects).Error },
		func() error { return tx.Order("id ASC").Find(&snapshot.Favorites).Error },
		func() error { return tx.Order("id ASC").Find(&snapshot.Applications).Error },
		func() error { return tx.Order("id ASC").Find(&snapshot.Posts).Error },
		func() error { return tx.Order("id ASC").Find(&snapshot.Comments).Error },
	} {
		if err := load(); err != nil {
			return nil, err
		}
	}
	return snapshot, nil
}

// Manager owns the scheduled backups.
type Manager struct {
	db   *gorm.DB
	dir  string
	cron *cron.Cron
}

func NewManager(db *gorm.DB, dir string) *Manager {
	return &Manager{
		db:   db,
		dir:  dir,
		cron: cron.New(cron.WithLocation(time.Local)),
	}
}

// Start schedules periodic snapshots according to the configured cron spec
// and returns immediately. It is a no-op when backups are disabled.
func (m *Manager) Start(conf config.BackupConf) error {
	if !conf.Enable {
		klog.Info("scheduled backups disabled")
		return nil
	}
	if _, err := m.cron.AddFunc(conf.Spec, func() {
		if _, err := m.RunOnce(context.Background()); err != nil {
			klog.Errorf("scheduled backup failed: %v", err)
		}
	}); err != nil {
		return err
	}
	m.cron.Start()
	klog.Infof("scheduled backups enabled, spec: %s, dir: %s", conf.Spec, m.dir)
	return nil
}

// Stop waits for a running backup to finish and stops the scheduler.
func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
}

// RunOnce writes one snapshot file into the backup directory and returns its
// path.
func (m *Manager) RunOnce(ctx context.Context) (string, error) {
	snapshot, err := BuildSnapshot(ctx, m.db)
	if err != nil {
		return "", fmt.Errorf("build snapshot: %w", err)
	}

	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	path := filepath.Join(m.dir, fmt.Sprintf("snapshot-%s-%s.json",
		snapshot.TakenAt.Format("20060102-150405"), snapshot.ID[:8]))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	klog.Infof("backup written: %s", path)
	return path, nil
}
