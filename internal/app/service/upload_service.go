package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/billing"
	"github.com/ikkim/ugcfy-backend/internal/storage"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/ikkim/ugcfy-backend/pkg/util"
)

var (
	ErrNoFiles       = errors.New("no files provided")
	ErrFilenameEmpty = errors.New("filename is required")
)

// UploadFile is one part of a multipart upload
type UploadFile struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

type UploadResult struct {
	Media []model.Media `json:"media"`
	// Skipped counts files not stored because the plan limit was reached mid-batch
	Skipped      int  `json:"skipped"`
	LimitReached bool `json:"limit_reached"`
}

type UploadService interface {
	Upload(ctx context.Context, shop string, files []UploadFile) (*UploadResult, error)
	PresignUpload(ctx context.Context, shop, filename, contentType string) (*storage.PresignedURLResponse, error)
}

type uploadService struct {
	mediaRepo   repository.MediaRepository
	billing     BillingService
	storage     storage.ObjectStorage
	maxFileSize int64
	notify      mediaNotifier
}

func NewUploadService(
	mediaRepo repository.MediaRepository,
	billingService BillingService,
	objectStorage storage.ObjectStorage,
	maxFileSize int64,
	events EventPublisher,
	cache FeedCache,
) UploadService {
	return &uploadService{
		mediaRepo:   mediaRepo,
		billing:     billingService,
		storage:     objectStorage,
		maxFileSize: maxFileSize,
		notify:      newMediaNotifier(events, cache),
	}
}

type checkedFile struct {
	UploadFile
	contentType string
}

// Upload validates every file first, then stores them one by one as DRAFT media.
// The media limit is checked before each file; once it is hit the rest are skipped.
func (s *uploadService) Upload(ctx context.Context, shop string, files []UploadFile) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	checked := make([]checkedFile, 0, len(files))
	for _, f := range files {
		contentType, err := s.validate(f)
		if err != nil {
			logger.Warn("Upload rejected", map[string]interface{}{
				"shop":     shop,
				"filename": f.Filename,
				"error":    err.Error(),
			})
			return nil, err
		}
		checked = append(checked, checkedFile{UploadFile: f, contentType: contentType})
	}

	result := &UploadResult{Media: []model.Media{}}
	for i, f := range checked {
		if _, err := s.billing.Check(shop, billing.ActionCreateMedia); err != nil {
			if errors.Is(err, ErrUsageLimitReached) && len(result.Media) > 0 {
				result.Skipped = len(checked) - i
				result.LimitReached = true
				break
			}
			return nil, err
		}

		media, err := s.store(ctx, shop, f)
		if err != nil {
			return nil, err
		}
		result.Media = append(result.Media, *media)
	}

	logger.Info("Files uploaded", map[string]interface{}{
		"shop":     shop,
		"uploaded": len(result.Media),
		"skipped":  result.Skipped,
	})
	if len(result.Media) > 0 {
		s.notify.changed(ctx, shop, EventMediaCreated, result.Media)
	}
	return result, nil
}

func (s *uploadService) validate(f UploadFile) (string, error) {
	if strings.TrimSpace(f.Filename) == "" {
		return "", ErrFilenameEmpty
	}
	if err := storage.ValidateFileSize(f.Size, s.maxFileSize); err != nil {
		return "", err
	}

	contentType, err := storage.DetectMediaType(f.Content)
	if err != nil {
		return "", err
	}
	if _, err := f.Content.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind file: %w", err)
	}
	return contentType, nil
}

func (s *uploadService) store(ctx context.Context, shop string, f checkedFile) (*model.Media, error) {
	key := storage.ObjectKey(storage.MediaFolder(shop), f.Filename)

	url, err := s.storage.Upload(ctx, key, f.contentType, f.Content, f.Size)
	if err != nil {
		logger.Error("Failed to store uploaded file", err, map[string]interface{}{
			"shop": shop,
			"key":  key,
		})
		return nil, err
	}

	media := &model.Media{
		ShopDomain: shop,
		URL:        url,
		Caption:    util.TrimExtension(f.Filename),
		Status:     model.MediaStatusDraft,
		SourceType: model.SourceUpload,
		StorageKey: key,
	}
	if err := s.mediaRepo.Create(media); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			logger.Warn("Failed to remove object after insert error", map[string]interface{}{
				"key":   key,
				"error": delErr.Error(),
			})
		}
		return nil, err
	}
	return media, nil
}

// PresignUpload returns a direct upload URL under the shop's folder
func (s *uploadService) PresignUpload(ctx context.Context, shop, filename, contentType string) (*storage.PresignedURLResponse, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, ErrFilenameEmpty
	}
	if err := storage.ValidateContentType(contentType, storage.AllowedMediaTypes); err != nil {
		return nil, err
	}

	resp, err := s.storage.PresignUpload(ctx, filename, contentType, storage.MediaFolder(shop))
	if err != nil {
		logger.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"shop":     shop,
			"filename": filename,
		})
		return nil, err
	}
	return resp, nil
}
