package repository

import (
	"strings"
	"time"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MediaFilter struct {
	ShopDomain string
	Search     string   // url or caption, case-insensitive
	Tag        string   // single tag slug or name
	TagSlugs   []string // any of
	Status     *model.MediaStatus
	ProductID  string
	Limit      int
}

type MediaRepository interface {
	Create(media *model.Media) error
	BulkCreate(media []model.Media, batchSize int) error
	FindWithFilter(filter MediaFilter) ([]model.Media, error)
	FindByID(shop string, id uint) (*model.Media, error)
	FindByIDs(shop string, ids []uint) ([]model.Media, error)
	// FindOwner returns the shop domain owning media id
	FindOwner(id uint) (string, error)
	Update(media *model.Media) error
	UpdateStatus(shop string, id uint, status model.MediaStatus) (int64, error)
	BulkUpdateStatus(shop string, ids []uint, status model.MediaStatus) (int64, error)
	SetProduct(shop string, id uint, productID *string) (int64, error)
	Delete(shop string, id uint) error
	ExistingURLs(shop string, urls []string) (map[string]bool, error)
	Count(shop string) (int64, error)
	CountByStatus(shop string, status model.MediaStatus) (int64, error)
	CountImportsSince(shop string, since time.Time) (int64, error)
	AddTag(mediaID, tagID uint) error
	RemoveTag(mediaID, tagID uint) error
}

type mediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(media *model.Media) error {
	logger.Debug("Creating media in database", map[string]interface{}{
		"shop":        media.ShopDomain,
		"source_type": media.SourceType,
	})

	if err := r.db.Create(media).Error; err != nil {
		logger.Error("Failed to create media in database", err, map[string]interface{}{
			"shop":        media.ShopDomain,
			"source_type": media.SourceType,
		})
		return err
	}

	logger.Debug("Media created in database", map[string]interface{}{
		"media_id": media.ID,
		"shop":     media.ShopDomain,
	})
	return nil
}

// BulkCreate inserts media in batches; used by the spreadsheet import
func (r *mediaRepository) BulkCreate(media []model.Media, batchSize int) error {
	if len(media) == 0 {
		return nil
	}

	if err := r.db.CreateInBatches(media, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create media", err, map[string]interface{}{
			"count": len(media),
		})
		return err
	}

	logger.Info("Media bulk created", map[string]interface{}{
		"count": len(media),
	})
	return nil
}

func (r *mediaRepository) baseQuery() *gorm.DB {
	return r.db.Model(&model.Media{}).
		Preload("MediaTags.Tag")
}

func (r *mediaRepository) FindWithFilter(filter MediaFilter) ([]model.Media, error) {
	logger.Debug("Finding media with filter", map[string]interface{}{
		"shop":       filter.ShopDomain,
		"search":     filter.Search,
		"tag":        filter.Tag,
		"tag_slugs":  filter.TagSlugs,
		"status":     filter.Status,
		"product_id": filter.ProductID,
		"limit":      filter.Limit,
	})

	query := r.baseQuery().Where("media.shop_domain = ?", filter.ShopDomain)

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("(LOWER(media.url) LIKE ? OR LOWER(media.caption) LIKE ?)", like, like)
	}

	if filter.Tag != "" {
		sub := r.db.Table("media_tags").
			Select("1").
			Joins("JOIN tags ON tags.id = media_tags.tag_id").
			Where("media_tags.media_id = media.id").
			Where("(tags.slug = ? OR tags.name = ?)", filter.Tag, filter.Tag)
		query = query.Where("EXISTS (?)", sub)
	}

	if len(filter.TagSlugs) > 0 {
		sub := r.db.Table("media_tags").
			Select("1").
			Joins("JOIN tags ON tags.id = media_tags.tag_id").
			Where("media_tags.media_id = media.id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("EXISTS (?)", sub)
	}

	if filter.Status != nil {
		query = query.Where("media.status = ?", *filter.Status)
	}

	if filter.ProductID != "" {
		query = query.Where("media.product_id = ?", filter.ProductID)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var media []model.Media
	if err := query.Order("media.created_at DESC").Order("media.id DESC").Find(&media).Error; err != nil {
		logger.Error("Failed to find media with filter", err, map[string]interface{}{
			"shop": filter.ShopDomain,
		})
		return nil, err
	}

	logger.Debug("Media found with filter", map[string]interface{}{
		"shop":  filter.ShopDomain,
		"count": len(media),
	})
	return media, nil
}

func (r *mediaRepository) FindByID(shop string, id uint) (*model.Media, error) {
	logger.Debug("Finding media by ID in database", map[string]interface{}{
		"shop":     shop,
		"media_id": id,
	})

	var media model.Media
	err := r.baseQuery().
		Preload("Hotspots", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_hotspots.timestamp ASC")
		}).
		Where("shop_domain = ?", shop).
		First(&media, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find media by ID in database", err, map[string]interface{}{
				"media_id": id,
			})
		}
		return nil, err
	}

	return &media, nil
}

func (r *mediaRepository) FindByIDs(shop string, ids []uint) ([]model.Media, error) {
	var media []model.Media
	if len(ids) == 0 {
		return media, nil
	}
	err := r.baseQuery().
		Where("shop_domain = ? AND id IN ?", shop, ids).
		Find(&media).Error
	return media, err
}

func (r *mediaRepository) FindOwner(id uint) (string, error) {
	var media model.Media
	if err := r.db.Select("id", "shop_domain").First(&media, id).Error; err != nil {
		return "", err
	}
	return media.ShopDomain, nil
}

func (r *mediaRepository) Update(media *model.Media) error {
	logger.Debug("Updating media in database", map[string]interface{}{
		"media_id": media.ID,
	})

	err := r.db.Model(media).
		Select("Caption", "Status", "ProductID", "UpdatedAt").
		Updates(media).Error
	if err != nil {
		logger.Error("Failed to update media in database", err, map[string]interface{}{
			"media_id": media.ID,
		})
		return err
	}
	return nil
}

func (r *mediaRepository) UpdateStatus(shop string, id uint, status model.MediaStatus) (int64, error) {
	return r.BulkUpdateStatus(shop, []uint{id}, status)
}

func (r *mediaRepository) BulkUpdateStatus(shop string, ids []uint, status model.MediaStatus) (int64, error) {
	logger.Debug("Updating media status in database", map[string]interface{}{
		"shop":   shop,
		"ids":    ids,
		"status": status,
	})

	var count int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Media{}).
			Where("shop_domain = ? AND id IN ?", shop, ids).
			Updates(map[string]interface{}{
				"status":     status,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		count = result.RowsAffected
		return nil
	})
	if err != nil {
		logger.Error("Failed to update media status", err, map[string]interface{}{
			"shop":   shop,
			"status": status,
		})
		return 0, err
	}

	logger.Debug("Media status updated", map[string]interface{}{
		"shop":  shop,
		"count": count,
	})
	return count, nil
}

func (r *mediaRepository) SetProduct(shop string, id uint, productID *string) (int64, error) {
	result := r.db.Model(&model.Media{}).
		Where("shop_domain = ? AND id = ?", shop, id).
		Updates(map[string]interface{}{
			"product_id": productID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to set media product", result.Error, map[string]interface{}{
			"media_id": id,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Delete removes the media row together with its tags, hotspots and analytics
func (r *mediaRepository) Delete(shop string, id uint) error {
	logger.Debug("Deleting media from database", map[string]interface{}{
		"shop":     shop,
		"media_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var media model.Media
		if err := tx.Select("id").Where("shop_domain = ?", shop).First(&media, id).Error; err != nil {
			return err
		}

		children := []interface{}{
			&model.MediaTag{},
			&model.ProductHotspot{},
			&model.MediaView{},
			&model.MediaClick{},
		}
		for _, child := range children {
			if err := tx.Where("media_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&model.Media{}, id).Error
	})
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to delete media from database", err, map[string]interface{}{
				"media_id": id,
			})
		}
		return err
	}

	logger.Debug("Media deleted from database", map[string]interface{}{
		"media_id": id,
	})
	return nil
}

// ExistingURLs returns the subset of urls already stored for shop
func (r *mediaRepository) ExistingURLs(shop string, urls []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(urls) == 0 {
		return existing, nil
	}

	var found []string
	if err := r.db.Model(&model.Media{}).
		Where("shop_domain = ? AND url IN ?", shop, urls).
		Pluck("url", &found).Error; err != nil {
		return nil, err
	}

	for _, u := range found {
		existing[u] = true
	}
	return existing, nil
}

func (r *mediaRepository) Count(shop string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Media{}).Where("shop_domain = ?", shop).Count(&count).Error
	return count, err
}

func (r *mediaRepository) CountByStatus(shop string, status model.MediaStatus) (int64, error) {
	var count int64
	err := r.db.Model(&model.Media{}).
		Where("shop_domain = ? AND status = ?", shop, status).
		Count(&count).Error
	return count, err
}

// CountImportsSince counts media pulled from social channels after since
func (r *mediaRepository) CountImportsSince(shop string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Media{}).
		Where("shop_domain = ? AND source_type IN ? AND created_at >= ?",
			shop, []model.SourceType{model.SourceInstagram, model.SourceTikTok}, since).
		Count(&count).Error
	return count, err
}

// AddTag links a tag to media; linking twice is a no-op
func (r *mediaRepository) AddTag(mediaID, tagID uint) error {
	logger.Debug("Linking tag to media", map[string]interface{}{
		"media_id": mediaID,
		"tag_id":   tagID,
	})

	link := model.MediaTag{MediaID: mediaID, TagID: tagID}
	if err := r.db.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		logger.Error("Failed to link tag to media", err, map[string]interface{}{
			"media_id": mediaID,
			"tag_id":   tagID,
		})
		return err
	}
	return nil
}

func (r *mediaRepository) RemoveTag(mediaID, tagID uint) error {
	return r.db.Where("media_id = ? AND tag_id = ?", mediaID, tagID).Delete(&model.MediaTag{}).Error
}
