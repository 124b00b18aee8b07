package repository

import (
	"strings"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"gorm.io/gorm"
)

type TagRepository interface {
	FindWithFilter(shop, search string, limit int) ([]model.Tag, error)
	FindByID(shop string, id uint) (*model.Tag, error)
	FindBySlug(shop, slug string) (*model.Tag, error)
	Upsert(tag *model.Tag) error
	Delete(shop string, id uint) error
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) FindWithFilter(shop, search string, limit int) ([]model.Tag, error) {
	logger.Debug("Finding tags", map[string]interface{}{
		"shop":   shop,
		"search": search,
	})

	query := r.db.Where("shop_domain = ?", shop)
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR slug LIKE ?)", like, like)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var tags []model.Tag
	if err := query.Order("name ASC").Find(&tags).Error; err != nil {
		logger.Error("Failed to find tags", err, map[string]interface{}{
			"shop": shop,
		})
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) FindByID(shop string, id uint) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.Where("shop_domain = ?", shop).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindBySlug(shop, slug string) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.Where("shop_domain = ? AND slug = ?", shop, slug).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// Upsert creates the tag or renames the existing tag with the same slug
func (r *tagRepository) Upsert(tag *model.Tag) error {
	logger.Debug("Upserting tag", map[string]interface{}{
		"shop": tag.ShopDomain,
		"slug": tag.Slug,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Tag
		err := tx.Where("shop_domain = ? AND slug = ?", tag.ShopDomain, tag.Slug).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := tx.Create(tag).Error; err != nil {
				logger.Error("Failed to create tag", err, map[string]interface{}{
					"slug": tag.Slug,
				})
				return err
			}
			return nil
		}
		if err != nil {
			return err
		}

		existing.Name = tag.Name
		if err := tx.Model(&existing).Update("name", tag.Name).Error; err != nil {
			logger.Error("Failed to rename tag", err, map[string]interface{}{
				"tag_id": existing.ID,
			})
			return err
		}
		*tag = existing
		return nil
	})
}

// Delete removes the tag and detaches it from all media
func (r *tagRepository) Delete(shop string, id uint) error {
	logger.Debug("Deleting tag", map[string]interface{}{
		"shop":   shop,
		"tag_id": id,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		var tag model.Tag
		if err := tx.Select("id").Where("shop_domain = ?", shop).First(&tag, id).Error; err != nil {
			return err
		}
		if err := tx.Where("tag_id = ?", id).Delete(&model.MediaTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Tag{}, id).Error
	})
}
