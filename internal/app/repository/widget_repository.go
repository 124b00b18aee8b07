package repository

import (
	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"gorm.io/gorm"
)

type WidgetRepository interface {
	Create(widget *model.Widget) error
	FindByShop(shop string) ([]model.Widget, error)
	FindByID(shop string, id uint) (*model.Widget, error)
	Update(widget *model.Widget) error
	Delete(shop string, id uint) (int64, error)
	Count(shop string) (int64, error)
}

type widgetRepository struct {
	db *gorm.DB
}

func NewWidgetRepository(db *gorm.DB) WidgetRepository {
	return &widgetRepository{db: db}
}

func (r *widgetRepository) Create(widget *model.Widget) error {
	logger.Debug("Creating widget", map[string]interface{}{
		"shop": widget.ShopDomain,
		"type": widget.Type,
	})

	if err := r.db.Create(widget).Error; err != nil {
		logger.Error("Failed to create widget", err, map[string]interface{}{
			"shop": widget.ShopDomain,
		})
		return err
	}
	return nil
}

func (r *widgetRepository) FindByShop(shop string) ([]model.Widget, error) {
	var widgets []model.Widget
	err := r.db.Where("shop_domain = ?", shop).Order("created_at DESC").Order("id DESC").Find(&widgets).Error
	return widgets, err
}

func (r *widgetRepository) FindByID(shop string, id uint) (*model.Widget, error) {
	var widget model.Widget
	if err := r.db.Where("shop_domain = ?", shop).First(&widget, id).Error; err != nil {
		return nil, err
	}
	return &widget, nil
}

func (r *widgetRepository) Update(widget *model.Widget) error {
	return r.db.Model(widget).Select("Name", "Type", "Settings", "UpdatedAt").Updates(widget).Error
}

func (r *widgetRepository) Delete(shop string, id uint) (int64, error) {
	result := r.db.Where("shop_domain = ?", shop).Delete(&model.Widget{}, id)
	return result.RowsAffected, result.Error
}

func (r *widgetRepository) Count(shop string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Widget{}).Where("shop_domain = ?", shop).Count(&count).Error
	return count, err
}
