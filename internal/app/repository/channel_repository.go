package repository

import (
	"time"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"gorm.io/gorm"
)

type ChannelRepository interface {
	// Upsert reconnects an existing channel of the same shop, type and username or creates a new one
	Upsert(channel *model.Channel) error
	FindByShop(shop string) ([]model.Channel, error)
	FindByID(shop string, id uint) (*model.Channel, error)
	UpdateStatus(id uint, status model.ChannelStatus) error
	MarkSynced(id uint, at time.Time) error
	SetAutoImport(shop string, id uint, enabled bool) (int64, error)
	Delete(shop string, id uint) (int64, error)
	ExpireBefore(now time.Time) (int64, error)
	FindAutoImport() ([]model.Channel, error)
}

type channelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) Upsert(channel *model.Channel) error {
	logger.Debug("Upserting channel", map[string]interface{}{
		"shop":     channel.ShopDomain,
		"type":     channel.Type,
		"username": channel.Username,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Channel
		err := tx.Where("shop_domain = ? AND type = ? AND username = ?",
			channel.ShopDomain, channel.Type, channel.Username).
			First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(channel).Error
		}
		if err != nil {
			return err
		}

		channel.ID = existing.ID
		channel.CreatedAt = existing.CreatedAt
		channel.AutoImport = existing.AutoImport
		channel.LastSyncedAt = existing.LastSyncedAt
		if err := tx.Save(channel).Error; err != nil {
			logger.Error("Failed to update channel", err, map[string]interface{}{
				"channel_id": existing.ID,
			})
			return err
		}
		return nil
	})
}

func (r *channelRepository) FindByShop(shop string) ([]model.Channel, error) {
	var channels []model.Channel
	err := r.db.Where("shop_domain = ?", shop).Order("created_at DESC").Find(&channels).Error
	return channels, err
}

func (r *channelRepository) FindByID(shop string, id uint) (*model.Channel, error) {
	var channel model.Channel
	if err := r.db.Where("shop_domain = ?", shop).First(&channel, id).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *channelRepository) UpdateStatus(id uint, status model.ChannelStatus) error {
	logger.Debug("Updating channel status", map[string]interface{}{
		"channel_id": id,
		"status":     status,
	})
	return r.db.Model(&model.Channel{}).Where("id = ?", id).Update("status", status).Error
}

func (r *channelRepository) MarkSynced(id uint, at time.Time) error {
	return r.db.Model(&model.Channel{}).Where("id = ?", id).Update("last_synced_at", at).Error
}

func (r *channelRepository) SetAutoImport(shop string, id uint, enabled bool) (int64, error) {
	result := r.db.Model(&model.Channel{}).
		Where("shop_domain = ? AND id = ?", shop, id).
		Update("auto_import", enabled)
	return result.RowsAffected, result.Error
}

func (r *channelRepository) Delete(shop string, id uint) (int64, error) {
	result := r.db.Where("shop_domain = ?", shop).Delete(&model.Channel{}, id)
	return result.RowsAffected, result.Error
}

// ExpireBefore marks connected channels whose token expired at or before now
func (r *channelRepository) ExpireBefore(now time.Time) (int64, error) {
	result := r.db.Model(&model.Channel{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", model.ChannelConnected, now).
		Update("status", model.ChannelExpired)
	if result.Error != nil {
		logger.Error("Failed to expire channels", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *channelRepository) FindAutoImport() ([]model.Channel, error) {
	var channels []model.Channel
	err := r.db.Where("status = ? AND auto_import = ?", model.ChannelConnected, true).
		Order("id ASC").
		Find(&channels).Error
	return channels, err
}
