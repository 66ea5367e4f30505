package dao

import (
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/dao/model"
)

// Migrate applies all pending schema migrations and seeds the initial data.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202408310001_initial_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&model.User{},
					&model.Project{},
					&model.Favorite{},
					&model.Application{},
					&model.Post{},
					&model.Comment{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&model.Comment{},
					&model.Post{},
					&model.Application{},
					&model.Favorite{},
					&model.Project{},
					&model.User{},
				)
			},
		},
		{
			ID:      "202408310002_seed_data",
			Migrate: seedIfEmpty,
		},
	})

	if err := m.Migrate(); err != nil {
		return err
	}
	klog.Info("database migration finished")
	return nil
}

// seedIfEmpty inserts the operator account, the sample project catalog and a
// few sample posts. Counts are only written into empty tables, so rerunning
// the migration on an existing file is a no-op.
func seedIfEmpty(tx *gorm.DB) error {
	var userCount int64
	if err := tx.Model(&model.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount == 0 {
		admin := model.User{
			Username:     "admin",
			Nickname:     "관리자",
			Name:         "관리자",
			Email:        "admin@koc.com",
			Phone:        "080-0000-0000",
			Platforms:    datatypes.NewJSONSlice([]string{"네이버 블로그", "유튜브", "인스타그램"}),
			Region:       "도쿄",
			Points:       99999,
			Contribution: 99999,
			Role:         model.RoleAdmin,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
	}

	var projectCount int64
	if err := tx.Model(&model.Project{}).Count(&projectCount).Error; err != nil {
		return err
	}
	if projectCount == 0 {
		projects := []model.Project{
			{Category: model.CategoryRestaurant, Title: "도쿄 라멘집 체험", Location: "도쿄", Description: "맛있는 라멘 체험", Points: 1000, Deadline: "2024.12.31"},
			{Category: model.CategoryHotel, Title: "오사카 호텔 숙박", Location: "오사카", Description: "호텔 숙박 체험", Points: 2000, Deadline: "2024.12.25"},
			{Category: model.CategoryTourist, Title: "교토 전통 체험", Location: "교토", Description: "전통 문화 체험", Points: 1500, Deadline: "2024.12.20"},
			{Category: model.CategoryRestaurant, Title: "도쿄 스시 오마카세", Location: "도쿄", Description: "고급 스시 체험", Points: 2500, Deadline: "2024.12.15"},
			{Category: model.CategoryHotel, Title: "교토 료칸 숙박", Location: "교토", Description: "전통 료칸 체험", Points: 3000, Deadline: "2024.12.10"},
		}
		if err := tx.Create(&projects).Error; err != nil {
			return err
		}
	}

	var postCount int64
	if err := tx.Model(&model.Post{}).Count(&postCount).Error; err != nil {
		return err
	}
	if postCount == 0 {
		today := time.Now().Format(model.DateLayout)
		yesterday := time.Now().AddDate(0, 0, -1).Format(model.DateLayout)
		posts := []model.Post{
			{Board: model.BoardFree, Title: "오사카 맛집 추천해주세요!", AuthorNickname: "여행러버", Views: 234, CommentCount: 12, Content: "오사카 여행 예정입니다."},
			{Board: model.BoardFree, Title: "도쿄 호텔 체험 후기", AuthorNickname: "호텔마니아", Views: 156, CommentCount: 8, Content: "정말 좋았어요!"},
			{Board: model.BoardLife, Title: "도쿄 월세 정보", AuthorNickname: "도쿄살이", Views: 320, CommentCount: 15, Content: "도쿄 월세 정보 공유합니다."},
		}
		if err := tx.Create(&posts).Error; err != nil {
			return err
		}
		// Post dates live in CreatedAt; spread the samples over two days.
		dates := []string{today, yesterday, today}
		for i := range posts {
			if d, err := time.ParseInLocation(model.DateLayout, dates[i], time.Local); err == nil {
				if err := tx.Model(&posts[i]).Update("created_at", d).Error; err != nil {
					return err
				}
			}
		}
	}

	return nil
}
