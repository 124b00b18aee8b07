package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrHotspotNotFound   = errors.New("hotspot not found")
	ErrInvalidTimestamp  = errors.New("timestamp must be zero or positive")
	ErrInvalidDuration   = errors.New("duration must be positive")
	ErrInvalidPosition   = errors.New("invalid hotspot position")
	ErrProductIDRequired = errors.New("product id is required")
	ErrTimestampRequired = errors.New("timestamp is required")
)

type CreateHotspotInput struct {
	MediaID   uint
	ProductID string
	Timestamp *float64
	Duration  *float64
	Position  string
}

// UpdateHotspotInput leaves nil fields unchanged
type UpdateHotspotInput struct {
	ProductID *string
	Timestamp *float64
	Duration  *float64
	Position  *string
}

type HotspotService interface {
	List(shop string, mediaID uint) ([]model.ProductHotspot, error)
	Create(ctx context.Context, shop string, input CreateHotspotInput) (*model.ProductHotspot, error)
	Update(ctx context.Context, shop string, id uint, input UpdateHotspotInput) (*model.ProductHotspot, error)
	Delete(ctx context.Context, shop string, id uint) error
}

type hotspotService struct {
	hotspotRepo repository.HotspotRepository
	mediaRepo   repository.MediaRepository
	notify      mediaNotifier
}

func NewHotspotService(
	hotspotRepo repository.HotspotRepository,
	mediaRepo repository.MediaRepository,
	events EventPublisher,
	cache FeedCache,
) HotspotService {
	return &hotspotService{
		hotspotRepo: hotspotRepo,
		mediaRepo:   mediaRepo,
		notify:      newMediaNotifier(events, cache),
	}
}

func (s *hotspotService) ensureMedia(shop string, mediaID uint) error {
	if _, err := s.mediaRepo.FindByID(shop, mediaID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMediaNotFound
		}
		return err
	}
	return nil
}

// List returns the hotspots of media ordered by timestamp
func (s *hotspotService) List(shop string, mediaID uint) ([]model.ProductHotspot, error) {
	if err := s.ensureMedia(shop, mediaID); err != nil {
		return nil, err
	}
	return s.hotspotRepo.FindByMedia(mediaID)
}

func (s *hotspotService) Create(ctx context.Context, shop string, input CreateHotspotInput) (*model.ProductHotspot, error) {
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return nil, ErrProductIDRequired
	}
	if input.Timestamp == nil {
		return nil, ErrTimestampRequired
	}

	hotspot := &model.ProductHotspot{
		MediaID:   input.MediaID,
		ProductID: productID,
		Timestamp: *input.Timestamp,
		Duration:  model.DefaultHotspotDuration,
		Position:  model.PositionBottomRight,
	}
	if input.Duration != nil {
		hotspot.Duration = *input.Duration
	}
	if input.Position != "" {
		hotspot.Position = model.HotspotPosition(input.Position)
	}
	if err := validateHotspot(hotspot); err != nil {
		return nil, err
	}

	if err := s.ensureMedia(shop, input.MediaID); err != nil {
		return nil, err
	}

	if err := s.hotspotRepo.Create(hotspot); err != nil {
		logger.Error("Failed to create hotspot", err, map[string]interface{}{
			"shop":     shop,
			"media_id": input.MediaID,
		})
		return nil, err
	}

	logger.Info("Hotspot created", map[string]interface{}{
		"shop":       shop,
		"media_id":   hotspot.MediaID,
		"hotspot_id": hotspot.ID,
	})
	s.notify.changed(ctx, shop, EventMediaUpdated, map[string]interface{}{
		"id":      hotspot.MediaID,
		"hotspot": hotspot,
	})
	return hotspot, nil
}

func (s *hotspotService) Update(ctx context.Context, shop string, id uint, input UpdateHotspotInput) (*model.ProductHotspot, error) {
	hotspot, err := s.hotspotRepo.FindByID(shop, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHotspotNotFound
		}
		return nil, err
	}

	if input.ProductID != nil {
		productID := strings.TrimSpace(*input.ProductID)
		if productID == "" {
			return nil, ErrProductIDRequired
		}
		hotspot.ProductID = productID
	}
	if input.Timestamp != nil {
		hotspot.Timestamp = *input.Timestamp
	}
	if input.Duration != nil {
		hotspot.Duration = *input.Duration
	}
	if input.Position != nil {
		hotspot.Position = model.HotspotPosition(*input.Position)
	}
	if err := validateHotspot(hotspot); err != nil {
		return nil, err
	}

	if err := s.hotspotRepo.Update(hotspot); err != nil {
		return nil, err
	}

	s.notify.changed(ctx, shop, EventMediaUpdated, map[string]interface{}{
		"id":      hotspot.MediaID,
		"hotspot": hotspot,
	})
	return hotspot, nil
}

func (s *hotspotService) Delete(ctx context.Context, shop string, id uint) error {
	hotspot, err := s.hotspotRepo.FindByID(shop, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHotspotNotFound
		}
		return err
	}

	if err := s.hotspotRepo.Delete(id); err != nil {
		return err
	}

	s.notify.changed(ctx, shop, EventMediaUpdated, map[string]interface{}{
		"id":              hotspot.MediaID,
		"removed_hotspot": id,
	})
	return nil
}

func validateHotspot(h *model.ProductHotspot) error {
	if h.Timestamp < 0 {
		return ErrInvalidTimestamp
	}
	if h.Duration <= 0 {
		return ErrInvalidDuration
	}
	if !h.Position.IsValid() {
		return ErrInvalidPosition
	}
	return nil
}
