package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/billing"
	"github.com/ikkim/ugcfy-backend/internal/storage"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrMediaNotFound     = errors.New("media not found")
	ErrInvalidMediaURL   = errors.New("media url must be an absolute http(s) url")
	ErrInvalidStatus     = errors.New("status must be DRAFT, APPROVED or REJECTED")
	ErrInvalidSourceType = errors.New("invalid source type")
	ErrEmptySelection    = errors.New("no media selected")
)

// MediaListLimit caps the moderation queue listing
const MediaListLimit = 50

type MediaQuery struct {
	Search string
	Tag    string
	Status string
}

type CreateMediaInput struct {
	URL        string
	Caption    string
	SourceType model.SourceType
	ProductID  *string
}

type MediaService interface {
	List(shop string, query MediaQuery) ([]model.Media, error)
	Get(shop string, id uint) (*model.Media, error)
	CreateFromURL(ctx context.Context, shop string, input CreateMediaInput) (*model.Media, error)
	UpdateCaption(ctx context.Context, shop string, id uint, caption string) (*model.Media, error)
	Delete(ctx context.Context, shop string, id uint) error
	SetStatus(ctx context.Context, shop string, id uint, status model.MediaStatus) (*model.Media, error)
	BulkSetStatus(ctx context.Context, shop string, ids []uint, status model.MediaStatus) (int64, error)
	SetProduct(ctx context.Context, shop string, id uint, productID *string) error
	AddTag(ctx context.Context, shop string, mediaID, tagID uint) error
	RemoveTag(ctx context.Context, shop string, mediaID, tagID uint) error
}

type mediaService struct {
	mediaRepo repository.MediaRepository
	tagRepo   repository.TagRepository
	billing   BillingService
	storage   storage.ObjectStorage
	notify    mediaNotifier
}

func NewMediaService(
	mediaRepo repository.MediaRepository,
	tagRepo repository.TagRepository,
	billingService BillingService,
	objectStorage storage.ObjectStorage,
	events EventPublisher,
	cache FeedCache,
) MediaService {
	return &mediaService{
		mediaRepo: mediaRepo,
		tagRepo:   tagRepo,
		billing:   billingService,
		storage:   objectStorage,
		notify:    newMediaNotifier(events, cache),
	}
}

func (s *mediaService) List(shop string, query MediaQuery) ([]model.Media, error) {
	filter := repository.MediaFilter{
		ShopDomain: shop,
		Search:     strings.TrimSpace(query.Search),
		Tag:        strings.TrimSpace(query.Tag),
		Limit:      MediaListLimit,
	}

	if query.Status != "" {
		status := model.MediaStatus(strings.ToUpper(query.Status))
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		filter.Status = &status
	}

	media, err := s.mediaRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list media", err, map[string]interface{}{
			"shop": shop,
		})
		return nil, err
	}
	return media, nil
}

func (s *mediaService) Get(shop string, id uint) (*model.Media, error) {
	media, err := s.mediaRepo.FindByID(shop, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	return media, nil
}

func (s *mediaService) CreateFromURL(ctx context.Context, shop string, input CreateMediaInput) (*model.Media, error) {
	if !isHTTPURL(input.URL) {
		return nil, ErrInvalidMediaURL
	}

	source := input.SourceType
	if source == "" {
		source = model.SourceURL
	}
	if !source.IsValid() {
		return nil, ErrInvalidSourceType
	}

	action := billing.ActionCreateMedia
	if source.IsImport() {
		action = billing.ActionImportMedia
	}
	if _, err := s.billing.Check(shop, action); err != nil {
		return nil, err
	}

	media := &model.Media{
		ShopDomain: shop,
		URL:        strings.TrimSpace(input.URL),
		Caption:    strings.TrimSpace(input.Caption),
		Status:     model.MediaStatusDraft,
		SourceType: source,
		ProductID:  normalizeProductID(input.ProductID),
	}
	if err := s.mediaRepo.Create(media); err != nil {
		return nil, err
	}

	logger.Info("Media created", map[string]interface{}{
		"shop":     shop,
		"media_id": media.ID,
		"source":   source,
	})
	s.notify.changed(ctx, shop, EventMediaCreated, media)
	return media, nil
}

func (s *mediaService) UpdateCaption(ctx context.Context, shop string, id uint, caption string) (*model.Media, error) {
	media, err := s.Get(shop, id)
	if err != nil {
		return nil, err
	}

	media.Caption = strings.TrimSpace(caption)
	if err := s.mediaRepo.Update(media); err != nil {
		return nil, err
	}

	s.notify.changed(ctx, shop, EventMediaUpdated, media)
	return media, nil
}

// Delete removes the media with its dependents and the stored file, if any
func (s *mediaService) Delete(ctx context.Context, shop string, id uint) error {
	media, err := s.Get(shop, id)
	if err != nil {
		return err
	}

	if err := s.mediaRepo.Delete(shop, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMediaNotFound
		}
		return err
	}

	if media.StorageKey != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, media.StorageKey); err != nil {
			// the row is gone; an orphaned object is only wasted space
			logger.Warn("Failed to delete media object", map[string]interface{}{
				"shop":  shop,
				"key":   media.StorageKey,
				"error": err.Error(),
			})
		}
	}

	logger.Info("Media deleted", map[string]interface{}{
		"shop":     shop,
		"media_id": id,
	})
	s.notify.changed(ctx, shop, EventMediaDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *mediaService) SetStatus(ctx context.Context, shop string, id uint, status model.MediaStatus) (*model.Media, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	count, err := s.mediaRepo.UpdateStatus(shop, id, status)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrMediaNotFound
	}

	media, err := s.Get(shop, id)
	if err != nil {
		return nil, err
	}

	logger.Info("Media status updated", map[string]interface{}{
		"shop":     shop,
		"media_id": id,
		"status":   status,
	})
	s.notify.changed(ctx, shop, EventMediaUpdated, media)
	return media, nil
}

func (s *mediaService) BulkSetStatus(ctx context.Context, shop string, ids []uint, status model.MediaStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}
	if !status.IsValid() {
		return 0, ErrInvalidStatus
	}

	count, err := s.mediaRepo.BulkUpdateStatus(shop, ids, status)
	if err != nil {
		return 0, err
	}

	logger.Info("Media status bulk updated", map[string]interface{}{
		"shop":      shop,
		"requested": len(ids),
		"updated":   count,
		"status":    status,
	})
	s.notify.changed(ctx, shop, EventMediaUpdated, map[string]interface{}{
		"ids":    ids,
		"status": status,
	})
	return count, nil
}

// SetProduct links media to a product; nil clears the link
func (s *mediaService) SetProduct(ctx context.Context, shop string, id uint, productID *string) error {
	productID = normalizeProductID(productID)

	count, err := s.mediaRepo.SetProduct(shop, id, productID)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMediaNotFound
	}

	s.notify.changed(ctx, shop, EventMediaUpdated, map[string]interface{}{
		"id":         id,
		"product_id": productID,
	})
	return nil
}

func (s *mediaService) AddTag(ctx context.Context, shop string, mediaID, tagID uint) error {
	if err := s.ensureOwned(shop, mediaID, tagID); err != nil {
		return err
	}
	if err := s.mediaRepo.AddTag(mediaID, tagID); err != nil {
		return err
	}

	s.notify.changed(ctx, shop, EventMediaUpdated, map[string]interface{}{
		"id":        mediaID,
		"added_tag": tagID,
	})
	return nil
}

func (s *mediaService) RemoveTag(ctx context.Context, shop string, mediaID, tagID uint) error {
	if err := s.ensureOwned(shop, mediaID, tagID); err != nil {
		return err
	}
	if err := s.mediaRepo.RemoveTag(mediaID, tagID); err != nil {
		return err
	}

	s.notify.changed(ctx, shop, EventMediaUpdated, map[string]interface{}{
		"id":          mediaID,
		"removed_tag": tagID,
	})
	return nil
}

// ensureOwned checks both rows belong to shop
func (s *mediaService) ensureOwned(shop string, mediaID, tagID uint) error {
	if _, err := s.Get(shop, mediaID); err != nil {
		return err
	}
	if _, err := s.tagRepo.FindByID(shop, tagID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return err
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// normalizeProductID trims the id; blank means no product
func normalizeProductID(productID *string) *string {
	if productID == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*productID)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
