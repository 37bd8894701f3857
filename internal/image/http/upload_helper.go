package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/visa-cms-backend/internal/auth"
	"github.com/nekogravitycat/visa-cms-backend/internal/image"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/response"
)

// FileUploadConfig defines the configuration for image uploads.
type FileUploadConfig struct {
	FormFieldName string   // The name of the form field containing the file (default: "file")
	MaxSizeBytes  int64    // The maximum file size in bytes (0 = no limit)
	AllowedTypes  []string // The list of allowed MIME types (empty = image.DefaultAllowedTypes)
}

// HandleFileUpload reads one multipart file and stores it as an image.
func (h *Handler) HandleFileUpload(c *gin.Context, config FileUploadConfig) {
	fieldName := config.FormFieldName
	if fieldName == "" {
		fieldName = "file"
	}

	if config.MaxSizeBytes > 0 {
		// leave room for the multipart envelope and the alt text field
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxSizeBytes+1<<20)
	}

	fileHeader, err := c.FormFile(fieldName)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, image.ErrFileTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": fieldName + " is required"})
		return
	}
	if config.MaxSizeBytes > 0 && fileHeader.Size > config.MaxSizeBytes {
		response.Error(c, image.ErrFileTooLarge)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close()

	img, err := h.service.Upload(c.Request.Context(), image.UploadInput{
		Filename:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Content:      src,
		UploadedBy:   auth.GetUserEmail(c),
		AltText:      c.PostForm("alt_text"),
		MaxSizeBytes: config.MaxSizeBytes,
		AllowedTypes: config.AllowedTypes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewResponse(img, h.resolver))
}
