// Package images holds the product image pipeline: every uploaded image is
// normalized to a max-800px-wide JPEG before it reaches storage, and stored
// images can be re-cropped/rotated after the fact.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

const (
	// Uploaded images are resized to this width before storage.
	uploadWidth = 800
	// Fixed JPEG quality for all re-encoded images.
	jpegQuality = 80
)

// ResizeForUpload decodes an image, scales it down to 800px width (aspect
// ratio kept, never upscaled) and re-encodes it as JPEG at quality 80.
func ResizeForUpload(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if img.Bounds().Dx() > uploadWidth {
		img = imaging.Resize(img, uploadWidth, 0, imaging.Lanczos)
	}

	return encodeJPEG(img)
}

// CropRotate rotates the image by angleDeg around its center (the canvas
// grows to the rotated bounding box) and then cuts out rect from the
// rotated image. The result is a JPEG at quality 80. Pure and
// deterministic; rect coordinates refer to the rotated canvas.
func CropRotate(r io.Reader, rect image.Rectangle, angleDeg float64) ([]byte, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if angleDeg != 0 {
		img = imaging.Rotate(img, angleDeg, color.White)
	}

	if rect.Empty() {
		return nil, fmt.Errorf("crop rectangle is empty")
	}
	if !rect.In(img.Bounds()) {
		return nil, fmt.Errorf("crop rectangle %v outside image bounds %v", rect, img.Bounds())
	}

	return encodeJPEG(imaging.Crop(img, rect))
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
