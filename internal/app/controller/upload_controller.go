package controller

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
)

const (
	// multipartMemory is held in memory per upload request before spilling to disk
	multipartMemory = 32 << 20
	// multipartOverhead covers boundaries and part headers on top of the file bytes
	multipartOverhead = 64 << 10

	MaxFilesPerUpload = 10
)

type UploadController struct {
	uploadService service.UploadService
	maxBodySize   int64
}

func NewUploadController(uploadService service.UploadService, maxFileSize int64) *UploadController {
	return &UploadController{
		uploadService: uploadService,
		maxBodySize:   maxFileSize*MaxFilesPerUpload + multipartOverhead,
	}
}

type PresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// Upload stores one or more multipart files as draft media
// POST /api/upload
func (ctrl *UploadController) Upload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ctrl.maxBodySize)
	if err := c.Request.ParseMultipartForm(min(multipartMemory, ctrl.maxBodySize)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("Upload body over limit", map[string]interface{}{
				"limit": tooLarge.Limit,
			})
			apperrors.RespondWithError(c, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge,
				fmt.Sprintf("Upload exceeds %d MB", ctrl.maxBodySize>>20))
			return
		}
		log.Warn("Invalid multipart form", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.UploadNoFiles, "Expected a multipart form with files")
		return
	}
	defer c.Request.MultipartForm.RemoveAll()

	headers := c.Request.MultipartForm.File["files"]
	if len(headers) == 0 {
		apperrors.BadRequest(c, apperrors.UploadNoFiles, "No files provided")
		return
	}
	if len(headers) > MaxFilesPerUpload {
		apperrors.BadRequest(c, apperrors.UploadFailed, fmt.Sprintf("At most %d files per upload", MaxFilesPerUpload))
		return
	}

	files := make([]service.UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			log.Error("Failed to open uploaded file", err, map[string]interface{}{
				"filename": h.Filename,
			})
			apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.UploadFailed, "Failed to read "+h.Filename)
			return
		}
		opened = append(opened, f)
		files = append(files, service.UploadFile{
			Filename: h.Filename,
			Size:     h.Size,
			Content:  f,
		})
	}

	result, err := ctrl.uploadService.Upload(c.Request.Context(), shop, files)
	if err != nil {
		respondServiceError(c, err, "upload files")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"uploaded":      len(result.Media),
		"skipped":       result.Skipped,
		"limit_reached": result.LimitReached,
		"media":         toMediaResponses(result.Media),
	})
}

// PresignedURL issues a direct-to-storage upload URL
// POST /api/upload/presigned-url
func (ctrl *UploadController) PresignedURL(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req PresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "filename and content_type are required")
		return
	}

	resp, err := ctrl.uploadService.PresignUpload(c.Request.Context(), shop, req.Filename, req.ContentType)
	if err != nil {
		respondServiceError(c, err, "generate presigned URL")
		return
	}

	c.JSON(http.StatusOK, resp)
}
