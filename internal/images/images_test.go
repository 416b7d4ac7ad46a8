package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testImage renders a w x h image with a simple gradient so that encoding
// has something non-uniform to chew on.
func testImage(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestResizeForUpload_ScalesTo800(t *testing.T) {
	src := testImage(t, 1600, 1200)

	out, err := ResizeForUpload(bytes.NewReader(src))
	require.NoError(t, err)

	img := decodeJPEG(t, out)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy(), "aspect ratio must be kept")
}

func TestResizeForUpload_NeverUpscales(t *testing.T) {
	src := testImage(t, 400, 300)

	out, err := ResizeForUpload(bytes.NewReader(src))
	require.NoError(t, err)

	img := decodeJPEG(t, out)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestResizeForUpload_RejectsGarbage(t *testing.T) {
	_, err := ResizeForUpload(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestCropRotate_CropOnly(t *testing.T) {
	src := testImage(t, 200, 100)

	out, err := CropRotate(bytes.NewReader(src), image.Rect(10, 10, 110, 60), 0)
	require.NoError(t, err)

	img := decodeJPEG(t, out)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestCropRotate_RotationExpandsCanvas(t *testing.T) {
	src := testImage(t, 200, 100)

	// A 90 degree rotation swaps the dimensions; crop the full canvas.
	out, err := CropRotate(bytes.NewReader(src), image.Rect(0, 0, 100, 200), 90)
	require.NoError(t, err)

	img := decodeJPEG(t, out)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestCropRotate_RejectsOutOfBoundsRect(t *testing.T) {
	src := testImage(t, 100, 100)

	_, err := CropRotate(bytes.NewReader(src), image.Rect(0, 0, 200, 200), 0)
	assert.Error(t, err)
}

func TestCropRotate_Deterministic(t *testing.T) {
	src := testImage(t, 120, 80)
	rect := image.Rect(5, 5, 60, 40)

	first, err := CropRotate(bytes.NewReader(src), rect, 15)
	require.NoError(t, err)
	second, err := CropRotate(bytes.NewReader(src), rect, 15)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
