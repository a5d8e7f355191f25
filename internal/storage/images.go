package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// ImageContentType is the type of every processed image.
const ImageContentType = "image/jpeg"

var (
	// ErrUnsupportedImage is returned when an upload cannot be decoded.
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")

	// ErrImageTooLarge is returned when an upload exceeds the size limit.
	ErrImageTooLarge = errors.New("image too large")
)

// ProcessedImage holds the encoded picture and its thumbnail.
type ProcessedImage struct {
	Full      []byte
	Thumbnail []byte
	Width     int
	Height    int
}

// ImageProcessor normalizes uploads to JPEG and derives thumbnails.
type ImageProcessor struct {
	maxSize    int64
	thumbWidth int
	quality    int
}

// NewImageProcessor creates a processor accepting uploads of at most maxSize
// bytes and producing thumbnails thumbWidth pixels wide.
func NewImageProcessor(maxSize int64, thumbWidth int) *ImageProcessor {
	return &ImageProcessor{maxSize: maxSize, thumbWidth: thumbWidth, quality: 85}
}

// Process decodes r (JPEG, PNG, GIF, BMP or TIFF), applies EXIF orientation
// and re-encodes it. Images narrower than the thumbnail width are not upscaled.
func (p *ImageProcessor) Process(r io.Reader) (*ProcessedImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > p.maxSize {
		return nil, ErrImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	out := &ProcessedImage{Width: bounds.Dx(), Height: bounds.Dy()}

	var full bytes.Buffer
	if err := imaging.Encode(&full, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	out.Full = full.Bytes()

	thumb := img
	if out.Width > p.thumbWidth {
		thumb = imaging.Resize(img, p.thumbWidth, 0, imaging.Lanczos)
	}
	var thumbBuf bytes.Buffer
	if err := imaging.Encode(&thumbBuf, thumb, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	out.Thumbnail = thumbBuf.Bytes()

	return out, nil
}
