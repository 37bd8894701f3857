package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/metrics"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/cdn"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/storage"
)

const (
	thumbnailWidth  = 400
	thumbnailHeight = 300
)

// DefaultAllowedTypes are the image formats the thumbnail generator decodes.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png"}

type UploadInput struct {
	Filename     string
	ContentType  string // as declared by the client; sniffed when empty or generic
	Content      io.Reader
	UploadedBy   string
	AltText      string
	MaxSizeBytes int64    // 0 = no limit
	AllowedTypes []string // empty = DefaultAllowedTypes
}

type RegisterInput struct {
	URL        string
	AltText    string
	UploadedBy string
}

type Service interface {
	Upload(ctx context.Context, in UploadInput) (*Image, error)
	// Register records an externally hosted image, typically a CDN URL.
	Register(ctx context.Context, in RegisterInput) (*Image, error)
	Get(ctx context.Context, id string) (*Image, error)
	List(ctx context.Context, filter Filter) ([]*Image, int, error)
	// RequestDeletion only marks the image. Stored files and CDN assets are
	// left in place for an operator to remove.
	RequestDeletion(ctx context.Context, id string) (*Image, error)
	RefreshPendingDeletion(ctx context.Context) (int, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *Image, error)
	DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *Image, error)
}

type service struct {
	repo     Repository
	storage  storage.Storage
	imgProc  *storage.ImageProcessor
	resolver *cdn.Resolver
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, store storage.Storage, resolver *cdn.Resolver, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:     repo,
		storage:  store,
		imgProc:  storage.NewImageProcessor(),
		resolver: resolver,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*Image, error) {
	reader := in.Content
	if in.MaxSizeBytes > 0 {
		reader = io.LimitReader(in.Content, in.MaxSizeBytes+1)
	}
	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if in.MaxSizeBytes > 0 && int64(len(fileBytes)) > in.MaxSizeBytes {
		return nil, ErrFileTooLarge
	}

	contentType := in.ContentType
	if mediaType(contentType) == "" || mediaType(contentType) == "application/octet-stream" {
		contentType = http.DetectContentType(fileBytes)
	}
	contentType = mediaType(contentType)
	allowed := in.AllowedTypes
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	if !slices.Contains(allowed, contentType) {
		return nil, ErrUnsupportedType
	}
	if _, _, err := s.imgProc.Dimensions(bytes.NewReader(fileBytes)); err != nil {
		return nil, ErrNotAnImage
	}

	imageID := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(in.Filename))

	// Sharding path: images/ab/UUID.ext
	shard := imageID[:2]
	storagePath := fmt.Sprintf("images/%s/%s%s", shard, imageID, ext)

	if err := s.storage.Save(ctx, storagePath, bytes.NewReader(fileBytes)); err != nil {
		return nil, fmt.Errorf("failed to save image to storage: %w", err)
	}

	var thumbnailPath *string
	thumbReader, err := s.imgProc.GenerateThumbnail(bytes.NewReader(fileBytes), thumbnailWidth, thumbnailHeight)
	if err == nil {
		tPath := fmt.Sprintf("images/%s/%s_thumb.jpg", shard, imageID)
		if err = s.storage.Save(ctx, tPath, thumbReader); err == nil {
			thumbnailPath = &tPath
		}
	}
	if err != nil {
		s.logger.Warn("thumbnail generation failed", zap.String("image_id", imageID), zap.Error(err))
	}

	img := &Image{
		ID:            imageID,
		URL:           FileURL(imageID),
		AltText:       strings.TrimSpace(in.AltText),
		ContentType:   contentType,
		Size:          int64(len(fileBytes)),
		StoragePath:   &storagePath,
		ThumbnailPath: thumbnailPath,
		UploadedBy:    in.UploadedBy,
	}

	if err := s.repo.Create(ctx, img); err != nil {
		// the record never existed, so the orphaned files can go
		_ = s.storage.Delete(ctx, storagePath)
		if thumbnailPath != nil {
			_ = s.storage.Delete(ctx, *thumbnailPath)
		}
		return nil, err
	}

	s.logger.Info("image uploaded", zap.String("image_id", img.ID), zap.Int64("size", img.Size))
	return img, nil
}

// mediaType drops parameters such as charset from a Content-Type value.
func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*Image, error) {
	url := strings.TrimSpace(in.URL)
	if err := s.validate.Var(url, "required,http_url"); err != nil {
		return nil, ErrInvalidURL
	}

	img := &Image{
		ID:         uuid.New().String(),
		URL:        url,
		AltText:    strings.TrimSpace(in.AltText),
		UploadedBy: in.UploadedBy,
	}
	if id, ok := s.resolver.ExtractPublicID(url); ok {
		img.PublicID = &id
	}

	if err := s.repo.Create(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *service) Get(ctx context.Context, id string) (*Image, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Image, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) RequestDeletion(ctx context.Context, id string) (*Image, error) {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	marked, err := s.repo.MarkDeletion(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	img.DeletionRequestedAt = &marked

	s.logger.Info("image marked for deletion",
		zap.String("image_id", img.ID),
		zap.String("url", img.URL),
		zap.Stringp("storage_path", img.StoragePath),
		zap.Stringp("public_id", img.PublicID),
	)

	if _, err := s.RefreshPendingDeletion(ctx); err != nil {
		s.logger.Warn("refresh pending deletion gauge failed", zap.Error(err))
	}
	return img, nil
}

func (s *service) RefreshPendingDeletion(ctx context.Context) (int, error) {
	n, err := s.repo.CountPendingDeletion(ctx)
	if err != nil {
		return 0, err
	}
	metrics.SetImagesPendingDeletion(n)
	return n, nil
}

// servable loads an image that may still be delivered from storage.
func (s *service) servable(ctx context.Context, id string) (*Image, error) {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if img.MarkedForDeletion() {
		return nil, ErrMarkedForDeletion
	}
	if !img.IsStored() {
		return nil, ErrNotStored
	}
	return img, nil
}

func (s *service) open(ctx context.Context, p string) (io.ReadCloser, error) {
	stream, err := s.storage.Get(ctx, p)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve image from storage: %w", err)
	}
	return stream, nil
}

func (s *service) Download(ctx context.Context, id string) (io.ReadCloser, *Image, error) {
	img, err := s.servable(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.open(ctx, *img.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return stream, img, nil
}

func (s *service) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *Image, error) {
	img, err := s.servable(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if img.ThumbnailPath == nil {
		return nil, nil, ErrNoThumbnail
	}

	stream, err := s.open(ctx, *img.ThumbnailPath)
	if err != nil {
		return nil, nil, err
	}
	return stream, img, nil
}
