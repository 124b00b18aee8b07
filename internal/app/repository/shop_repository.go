package repository

import (
	"time"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"gorm.io/gorm"
)

type ShopRepository interface {
	FindByDomain(domain string) (*model.Shop, error)
	// Install creates the shop or reinstalls it with a fresh token
	Install(shop *model.Shop) error
	SetPlan(domain, planID, subscriptionID string) error
	MarkUninstalled(domain string, at time.Time) error
	// DeleteAllData removes every row owned by domain
	DeleteAllData(domain string) error
}

type shopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) FindByDomain(domain string) (*model.Shop, error) {
	var shop model.Shop
	if err := r.db.Where("domain = ?", domain).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) Install(shop *model.Shop) error {
	logger.Debug("Installing shop", map[string]interface{}{
		"shop": shop.Domain,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Shop
		err := tx.Where("domain = ?", shop.Domain).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			shop.Installed = true
			return tx.Create(shop).Error
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"access_token":   shop.AccessToken,
			"scopes":         shop.Scopes,
			"installed":      true,
			"uninstalled_at": nil,
		}).Error; err != nil {
			logger.Error("Failed to reinstall shop", err, map[string]interface{}{
				"shop": shop.Domain,
			})
			return err
		}
		*shop = existing
		return nil
	})
}

func (r *shopRepository) SetPlan(domain, planID, subscriptionID string) error {
	result := r.db.Model(&model.Shop{}).
		Where("domain = ?", domain).
		Updates(map[string]interface{}{
			"plan_id":         planID,
			"subscription_id": subscriptionID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *shopRepository) MarkUninstalled(domain string, at time.Time) error {
	return r.db.Model(&model.Shop{}).
		Where("domain = ?", domain).
		Updates(map[string]interface{}{
			"installed":      false,
			"access_token":   "",
			"plan_id":        nil,
			"uninstalled_at": at,
		}).Error
}

func (r *shopRepository) DeleteAllData(domain string) error {
	logger.Info("Deleting all shop data", map[string]interface{}{
		"shop": domain,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		mediaIDs := tx.Model(&model.Media{}).Select("id").Where("shop_domain = ?", domain)

		byMedia := []interface{}{
			&model.MediaTag{},
			&model.ProductHotspot{},
			&model.MediaView{},
			&model.MediaClick{},
		}
		for _, m := range byMedia {
			if err := tx.Where("media_id IN (?)", mediaIDs).Delete(m).Error; err != nil {
				return err
			}
		}

		byShop := []interface{}{
			&model.MediaView{},
			&model.MediaClick{},
			&model.Media{},
			&model.Tag{},
			&model.Channel{},
			&model.TeamMember{},
			&model.Widget{},
		}
		for _, m := range byShop {
			if err := tx.Where("shop_domain = ?", domain).Delete(m).Error; err != nil {
				return err
			}
		}

		return tx.Where("domain = ?", domain).Delete(&model.Shop{}).Error
	})
}
