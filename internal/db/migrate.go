package db

import (
	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/ikkim/ugcfy-backend/pkg/util"
	"gorm.io/gorm"
)

// Models lists every table in migration order
func Models() []interface{} {
	return []interface{}{
		&model.Shop{},
		&model.Media{},
		&model.Tag{},
		&model.MediaTag{},
		&model.ProductHotspot{},
		&model.Channel{},
		&model.MediaView{},
		&model.MediaClick{},
		&model.TeamMember{},
		&model.Widget{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// DefaultTags are created for a shop on install so the moderation UI is not empty
var DefaultTags = []string{"Featured", "Customer Photos", "Unboxing", "Reviews", "Lifestyle"}

// SeedShop adds the starter tags for shop. Existing slugs are left alone.
func SeedShop(db *gorm.DB, shop string) error {
	var count int64
	if err := db.Model(&model.Tag{}).Where("shop_domain = ?", shop).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Tags already seeded, skipping...", map[string]interface{}{
			"shop":           shop,
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding tag data...", map[string]interface{}{
		"shop": shop,
	})

	totalInserted := 0
	for _, name := range DefaultTags {
		tag := model.Tag{ShopDomain: shop, Name: name, Slug: util.Slugify(name)}
		if err := db.Create(&tag).Error; err != nil {
			logger.Error("Failed to create tag", err, map[string]interface{}{
				"tag": tag.Name,
			})
			return err
		}
		totalInserted++
	}

	logger.Info("Tags seeded successfully", map[string]interface{}{
		"shop":       shop,
		"total_tags": totalInserted,
	})
	return nil
}
