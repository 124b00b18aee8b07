package repository

import (
	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"gorm.io/gorm"
)

type TeamRepository interface {
	Create(member *model.TeamMember) error
	FindByShop(shop string) ([]model.TeamMember, error)
	FindByID(shop string, id uint) (*model.TeamMember, error)
	FindByEmail(shop, email string) (*model.TeamMember, error)
	FindByShopifyUserID(shop, userID string) (*model.TeamMember, error)
	Update(member *model.TeamMember) error
	Delete(shop string, id uint) (int64, error)
}

type teamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Create(member *model.TeamMember) error {
	logger.Debug("Creating team member", map[string]interface{}{
		"shop":  member.ShopDomain,
		"email": member.Email,
	})

	if err := r.db.Create(member).Error; err != nil {
		logger.Error("Failed to create team member", err, map[string]interface{}{
			"shop":  member.ShopDomain,
			"email": member.Email,
		})
		return err
	}
	return nil
}

// FindByShop lists active members first, newest first within each group
func (r *teamRepository) FindByShop(shop string) ([]model.TeamMember, error) {
	var members []model.TeamMember
	err := r.db.Where("shop_domain = ?", shop).
		Order("is_active DESC").
		Order("created_at DESC").
		Order("id DESC").
		Find(&members).Error
	return members, err
}

func (r *teamRepository) FindByID(shop string, id uint) (*model.TeamMember, error) {
	var member model.TeamMember
	if err := r.db.Where("shop_domain = ?", shop).First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *teamRepository) FindByEmail(shop, email string) (*model.TeamMember, error) {
	var member model.TeamMember
	if err := r.db.Where("shop_domain = ? AND email = ?", shop, email).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *teamRepository) FindByShopifyUserID(shop, userID string) (*model.TeamMember, error) {
	var member model.TeamMember
	if err := r.db.Where("shop_domain = ? AND shopify_user_id = ?", shop, userID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *teamRepository) Update(member *model.TeamMember) error {
	err := r.db.Model(member).
		Select("Name", "Permissions", "IsActive", "ShopifyUserID", "UpdatedAt").
		Updates(member).Error
	if err != nil {
		logger.Error("Failed to update team member", err, map[string]interface{}{
			"member_id": member.ID,
		})
	}
	return err
}

func (r *teamRepository) Delete(shop string, id uint) (int64, error) {
	result := r.db.Where("shop_domain = ?", shop).Delete(&model.TeamMember{}, id)
	return result.RowsAffected, result.Error
}
