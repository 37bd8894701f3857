package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
)

// ErrNotAnImage is returned when content cannot be decoded as an image.
var ErrNotAnImage = errors.New("content is not a supported image")

// ImageProcessor resizes uploaded images.
type ImageProcessor struct {
	quality int
}

// NewImageProcessor creates a new ImageProcessor encoding JPEGs at quality 80.
func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{quality: 80}
}

// Dimensions reports the width and height of the encoded image without
// decoding the pixel data.
func (p *ImageProcessor) Dimensions(content io.Reader) (int, int, error) {
	cfg, _, err := image.DecodeConfig(content)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	return cfg.Width, cfg.Height, nil
}

// GenerateThumbnail fits the source image into maxWidth x maxHeight and
// returns it encoded as JPEG.
func (p *ImageProcessor) GenerateThumbnail(content io.Reader, maxWidth, maxHeight int) (io.Reader, error) {
	img, _, err := image.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	thumbnail := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, thumbnail, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf, nil
}
