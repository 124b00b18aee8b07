package repository

import (
	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"gorm.io/gorm"
)

type HotspotRepository interface {
	Create(hotspot *model.ProductHotspot) error
	FindByMedia(mediaID uint) ([]model.ProductHotspot, error)
	// FindByID only returns hotspots on media owned by shop
	FindByID(shop string, id uint) (*model.ProductHotspot, error)
	Update(hotspot *model.ProductHotspot) error
	Delete(id uint) error
}

type hotspotRepository struct {
	db *gorm.DB
}

func NewHotspotRepository(db *gorm.DB) HotspotRepository {
	return &hotspotRepository{db: db}
}

func (r *hotspotRepository) Create(hotspot *model.ProductHotspot) error {
	logger.Debug("Creating hotspot in database", map[string]interface{}{
		"media_id":   hotspot.MediaID,
		"product_id": hotspot.ProductID,
		"timestamp":  hotspot.Timestamp,
	})

	if err := r.db.Create(hotspot).Error; err != nil {
		logger.Error("Failed to create hotspot in database", err, map[string]interface{}{
			"media_id": hotspot.MediaID,
		})
		return err
	}
	return nil
}

func (r *hotspotRepository) FindByMedia(mediaID uint) ([]model.ProductHotspot, error) {
	var hotspots []model.ProductHotspot
	err := r.db.Where("media_id = ?", mediaID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&hotspots).Error
	return hotspots, err
}

func (r *hotspotRepository) FindByID(shop string, id uint) (*model.ProductHotspot, error) {
	var hotspot model.ProductHotspot
	err := r.db.
		Select("product_hotspots.*").
		Joins("JOIN media ON media.id = product_hotspots.media_id").
		Where("media.shop_domain = ?", shop).
		First(&hotspot, "product_hotspots.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &hotspot, nil
}

func (r *hotspotRepository) Update(hotspot *model.ProductHotspot) error {
	err := r.db.Model(hotspot).
		Select("Timestamp", "Duration", "Position", "ProductID", "UpdatedAt").
		Updates(hotspot).Error
	if err != nil {
		logger.Error("Failed to update hotspot in database", err, map[string]interface{}{
			"hotspot_id": hotspot.ID,
		})
	}
	return err
}

func (r *hotspotRepository) Delete(id uint) error {
	return r.db.Delete(&model.ProductHotspot{}, id).Error
}
