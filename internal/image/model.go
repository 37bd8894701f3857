package image

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.NotFound("image not found")
	ErrNotStored         = apperror.NotFound("image is hosted externally")
	ErrNoThumbnail       = apperror.NotFound("thumbnail not available for this image")
	ErrMarkedForDeletion = apperror.New(http.StatusGone, "image has been marked for deletion")
	ErrFileTooLarge      = apperror.New(http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
	ErrUnsupportedType   = apperror.New(http.StatusUnsupportedMediaType, "file type is not allowed")
	ErrNotAnImage        = apperror.BadRequest("file is not a supported image")
	ErrInvalidURL        = apperror.BadRequest("url must be an absolute http or https URL")
)

// Image is either a file uploaded to this service's storage or a reference
// to an image hosted on the CDN.
type Image struct {
	ID                  string
	URL                 string
	PublicID            *string // CDN public id, when URL is a CDN delivery URL
	AltText             string
	ContentType         string
	Size                int64
	StoragePath         *string
	ThumbnailPath       *string
	UploadedBy          string
	DeletionRequestedAt *time.Time
	CreatedAt           time.Time
}

// IsStored reports whether the bytes live in this service's storage.
func (i *Image) IsStored() bool {
	return i.StoragePath != nil
}

func (i *Image) MarkedForDeletion() bool {
	return i.DeletionRequestedAt != nil
}

// FileURL returns the public URL for accessing a stored image by its ID.
func FileURL(id string) string {
	return "/v1/images/" + id
}

// ThumbnailURL returns the public URL for a stored image's thumbnail.
func ThumbnailURL(id string) string {
	return "/v1/images/" + id + "/thumbnail"
}

type Filter struct {
	PendingDeletion bool // only images marked for deletion
	Page            int
	PageSize        int
	SortOrder       string
}
