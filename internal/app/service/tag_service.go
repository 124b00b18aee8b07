package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/ikkim/ugcfy-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrTagNotFound  = errors.New("tag not found")
	ErrTagNameEmpty = errors.New("tag name is required")
)

// TagListLimit caps tag listings in the admin UI
const TagListLimit = 50

type TagService interface {
	ListTags(shop, search string) ([]model.Tag, error)
	// CreateTag upserts by slug; an existing tag is renamed to name
	CreateTag(ctx context.Context, shop, name string) (*model.Tag, error)
	DeleteTag(ctx context.Context, shop string, id uint) error
}

type tagService struct {
	tagRepo repository.TagRepository
	cache   FeedCache
}

func NewTagService(tagRepo repository.TagRepository, cache FeedCache) TagService {
	if cache == nil {
		cache = noopCache{}
	}
	return &tagService{tagRepo: tagRepo, cache: cache}
}

// ListTags returns tags ordered by name, filtered by name or slug
func (s *tagService) ListTags(shop, search string) ([]model.Tag, error) {
	return s.tagRepo.FindWithFilter(shop, strings.TrimSpace(search), TagListLimit)
}

func (s *tagService) CreateTag(ctx context.Context, shop, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	slug := util.Slugify(name)
	if name == "" || slug == "" {
		return nil, ErrTagNameEmpty
	}

	existing, err := s.tagRepo.FindBySlug(shop, slug)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && existing.Name == name {
		return existing, nil
	}

	tag := &model.Tag{ShopDomain: shop, Name: name, Slug: slug}
	if err := s.tagRepo.Upsert(tag); err != nil {
		logger.Error("Failed to upsert tag", err, map[string]interface{}{
			"shop": shop,
			"slug": slug,
		})
		return nil, err
	}

	// feeds carry tag names; a new tag has no media yet
	if existing != nil {
		s.cache.Invalidate(ctx, shop)
	}

	logger.Info("Tag saved", map[string]interface{}{
		"shop":   shop,
		"tag_id": tag.ID,
		"slug":   slug,
	})
	return tag, nil
}

func (s *tagService) DeleteTag(ctx context.Context, shop string, id uint) error {
	if err := s.tagRepo.Delete(shop, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return err
	}

	// feeds filter by tag slug
	s.cache.Invalidate(ctx, shop)

	logger.Info("Tag deleted", map[string]interface{}{
		"shop":   shop,
		"tag_id": id,
	})
	return nil
}
