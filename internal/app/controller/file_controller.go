package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
	"github.com/ikkim/ugcfy-backend/internal/storage"
)

// FileController serves uploads kept in memory when no S3 bucket is configured
type FileController struct {
	store       *storage.MemoryStorage
	maxFileSize int64
}

func NewFileController(store *storage.MemoryStorage, maxFileSize int64) *FileController {
	return &FileController{
		store:       store,
		maxFileSize: maxFileSize,
	}
}

func objectKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}

// GetFile returns a stored object
// GET /files/*key
func (ctrl *FileController) GetFile(c *gin.Context) {
	data, contentType, ok := ctrl.store.Object(objectKey(c))
	if !ok {
		apperrors.NotFound(c, apperrors.ResourceNotFound, "File not found")
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, contentType, data)
}

// PutFile completes a presigned upload
// PUT /files/*key?signature=
func (ctrl *FileController) PutFile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	key := objectKey(c)

	body := http.MaxBytesReader(c.Writer, c.Request.Body, ctrl.maxFileSize)
	fileURL, err := ctrl.store.PutPresigned(c.Request.Context(), key, c.Query("signature"), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, storage.ErrNotPresigned):
			apperrors.Forbidden(c, "Upload URL is invalid or already used")
		case errors.As(err, &tooLarge):
			apperrors.RespondWithError(c, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge, "File is too large")
		default:
			log.Error("Failed to store presigned upload", err, map[string]interface{}{
				"key": key,
			})
			apperrors.InternalError(c, "Failed to store file")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"file_url": fileURL})
}
