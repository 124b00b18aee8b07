package repository

import (
	"time"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"gorm.io/gorm"
)

type MediaStat struct {
	MediaID uint  `json:"media_id"`
	Views   int64 `json:"views"`
	Clicks  int64 `json:"clicks"`
}

type ProductStat struct {
	ProductID string `json:"product_id"`
	Clicks    int64  `json:"clicks"`
}

type AnalyticsRepository interface {
	CreateView(view *model.MediaView) error
	CreateClick(click *model.MediaClick) error
	// CountViews counts views of shop in [from, to); zero times leave that side open
	CountViews(shop string, from, to time.Time) (int64, error)
	CountClicks(shop string, from, to time.Time) (int64, error)
	TopMedia(shop string, limit int) ([]MediaStat, error)
	TopProducts(shop string, since time.Time, limit int) ([]ProductStat, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CreateView(view *model.MediaView) error {
	if err := r.db.Create(view).Error; err != nil {
		logger.Error("Failed to record media view", err, map[string]interface{}{
			"media_id": view.MediaID,
		})
		return err
	}
	return nil
}

func (r *analyticsRepository) CreateClick(click *model.MediaClick) error {
	if err := r.db.Create(click).Error; err != nil {
		logger.Error("Failed to record media click", err, map[string]interface{}{
			"media_id": click.MediaID,
		})
		return err
	}
	return nil
}

func windowed(query *gorm.DB, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at < ?", to)
	}
	return query
}

func (r *analyticsRepository) CountViews(shop string, from, to time.Time) (int64, error) {
	var count int64
	err := windowed(r.db.Model(&model.MediaView{}).Where("shop_domain = ?", shop), from, to).
		Count(&count).Error
	return count, err
}

func (r *analyticsRepository) CountClicks(shop string, from, to time.Time) (int64, error) {
	var count int64
	err := windowed(r.db.Model(&model.MediaClick{}).Where("shop_domain = ?", shop), from, to).
		Count(&count).Error
	return count, err
}

// TopMedia ranks the shop's approved media by all-time views
func (r *analyticsRepository) TopMedia(shop string, limit int) ([]MediaStat, error) {
	logger.Debug("Ranking top media", map[string]interface{}{
		"shop":  shop,
		"limit": limit,
	})

	var stats []MediaStat
	err := r.db.Table("media").
		Select("media.id AS media_id, COUNT(media_views.id) AS views").
		Joins("LEFT JOIN media_views ON media_views.media_id = media.id").
		Where("media.shop_domain = ? AND media.status = ?", shop, model.MediaStatusApproved).
		Group("media.id").
		Order("views DESC").
		Order("media.id DESC").
		Limit(limit).
		Scan(&stats).Error
	if err != nil {
		logger.Error("Failed to rank top media", err, map[string]interface{}{
			"shop": shop,
		})
		return nil, err
	}

	if len(stats) == 0 {
		return stats, nil
	}

	ids := make([]uint, len(stats))
	for i, s := range stats {
		ids[i] = s.MediaID
	}

	var clicks []struct {
		MediaID uint
		Clicks  int64
	}
	if err := r.db.Model(&model.MediaClick{}).
		Select("media_id, COUNT(*) AS clicks").
		Where("media_id IN ?", ids).
		Group("media_id").
		Scan(&clicks).Error; err != nil {
		return nil, err
	}

	byMedia := make(map[uint]int64, len(clicks))
	for _, c := range clicks {
		byMedia[c.MediaID] = c.Clicks
	}
	for i := range stats {
		stats[i].Clicks = byMedia[stats[i].MediaID]
	}
	return stats, nil
}

// TopProducts ranks tagged products by clicks since since
func (r *analyticsRepository) TopProducts(shop string, since time.Time, limit int) ([]ProductStat, error) {
	var stats []ProductStat
	err := r.db.Model(&model.MediaClick{}).
		Select("product_id, COUNT(*) AS clicks").
		Where("shop_domain = ? AND product_id IS NOT NULL AND product_id <> '' AND created_at >= ?", shop, since).
		Group("product_id").
		Order("clicks DESC").
		Order("product_id ASC").
		Limit(limit).
		Scan(&stats).Error
	if err != nil {
		logger.Error("Failed to rank top products", err, map[string]interface{}{
			"shop": shop,
		})
		return nil, err
	}
	return stats, nil
}
