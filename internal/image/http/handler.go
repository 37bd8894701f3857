package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/auth"
	"github.com/nekogravitycat/visa-cms-backend/internal/image"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/cdn"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/request"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/response"
)

type Handler struct {
	service  image.Service
	resolver *cdn.Resolver
	upload   FileUploadConfig
}

func NewHandler(service image.Service, resolver *cdn.Resolver, upload FileUploadConfig) *Handler {
	return &Handler{
		service:  service,
		resolver: resolver,
		upload:   upload,
	}
}

// ServeFile serves the stored image content by ID
func (h *Handler) ServeFile(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	stream, img, err := h.service.Download(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	writeStream(c, stream, img.ContentType)
}

// ServeThumbnail serves the thumbnail of a stored image
func (h *Handler) ServeThumbnail(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	stream, _, err := h.service.DownloadThumbnail(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	// thumbnails are always JPEG
	writeStream(c, stream, "image/jpeg")
}

func writeStream(c *gin.Context, stream io.Reader, contentType string) {
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		// response already started
		zap.L().Warn("streaming image failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
}

func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	h.list(c, image.Filter{
		PendingDeletion: req.PendingDeletion,
		Page:            req.Page,
		PageSize:        req.PageSize,
		SortOrder:       req.SortOrder,
	}, req.ListParams)
}

// PendingDeletion lists images waiting for manual cleanup, oldest request first.
func (h *Handler) PendingDeletion(c *gin.Context) {
	var req request.ListParams
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	h.list(c, image.Filter{
		PendingDeletion: true,
		Page:            req.Page,
		PageSize:        req.PageSize,
		SortOrder:       "ASC",
	}, req)
}

func (h *Handler) list(c *gin.Context, filter image.Filter, params request.ListParams) {
	list, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ImageResponse, len(list))
	for i, img := range list {
		items[i] = NewResponse(img, h.resolver)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, params.Page, params.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	img, err := h.service.Get(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(img, h.resolver))
}

func (h *Handler) Upload(c *gin.Context) {
	h.HandleFileUpload(c, h.upload)
}

// Register records an image that is already hosted on the CDN.
func (h *Handler) Register(c *gin.Context) {
	var body RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	img, err := h.service.Register(c.Request.Context(), image.RegisterInput{
		URL:        body.URL,
		AltText:    body.AltText,
		UploadedBy: auth.GetUserEmail(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewResponse(img, h.resolver))
}

// Delete marks the image for deletion. Nothing is removed from storage.
func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	img, err := h.service.RequestDeletion(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusAccepted, NewResponse(img, h.resolver))
}
