package http

import (
	"time"

	"github.com/nekogravitycat/visa-cms-backend/internal/image"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/cdn"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/request"
)

type ImageResponse struct {
	ID                  string         `json:"id"`
	URL                 string         `json:"url"`
	PublicID            *string        `json:"public_id"`
	AltText             string         `json:"alt_text"`
	ContentType         string         `json:"content_type,omitempty"`
	Size                int64          `json:"size,omitempty"`
	ThumbnailURL        *string        `json:"thumbnail_url"`
	DeliveryURLs        *cdn.ImageURLs `json:"delivery_urls,omitempty"`
	DeletionRequestedAt *time.Time     `json:"deletion_requested_at"`
	CreatedAt           time.Time      `json:"created_at"`
}

func NewResponse(img *image.Image, resolver *cdn.Resolver) ImageResponse {
	resp := ImageResponse{
		ID:                  img.ID,
		URL:                 img.URL,
		PublicID:            img.PublicID,
		AltText:             img.AltText,
		ContentType:         img.ContentType,
		Size:                img.Size,
		DeletionRequestedAt: img.DeletionRequestedAt,
		CreatedAt:           img.CreatedAt,
	}
	switch {
	case img.ThumbnailPath != nil:
		t := image.ThumbnailURL(img.ID)
		resp.ThumbnailURL = &t
	case img.PublicID != nil && resolver != nil:
		urls := resolver.Resolve(img.URL, cdn.Thumbnail)
		resp.DeliveryURLs = &urls
		resp.ThumbnailURL = &urls.Primary
	}
	return resp
}

type ListRequest struct {
	request.ListParams
	PendingDeletion bool `form:"pending_deletion"`
}

type RegisterRequest struct {
	URL     string `json:"url" binding:"required,max=2048"`
	AltText string `json:"alt_text" binding:"max=300"`
}
