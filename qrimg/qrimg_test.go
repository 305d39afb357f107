package qrimg_test

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m-varma-group/qrgate/qrimg"
)

func TestRenderNoLabel(t *testing.T) {
	data, err := qrimg.Render("https://example.com/qr/abc12345", "")

	assert.Nil(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	assert.Nil(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestRenderWithLabel(t *testing.T) {
	data, err := qrimg.Render("https://example.com/qr/abc12345", "Site Photos")

	assert.Nil(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	assert.Nil(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Greater(t, img.Bounds().Dy(), 200)
}

func TestRenderLongLabelWraps(t *testing.T) {
	short, err := qrimg.Render("https://example.com/qr/abc12345", "short")
	assert.Nil(t, err)

	long, err := qrimg.Render("https://example.com/qr/abc12345", strings.Repeat("a", 45))
	assert.Nil(t, err)

	shortImg, err := png.Decode(bytes.NewReader(short))
	assert.Nil(t, err)
	longImg, err := png.Decode(bytes.NewReader(long))
	assert.Nil(t, err)

	// two lines take a taller strip than one
	assert.Greater(t, longImg.Bounds().Dy(), shortImg.Bounds().Dy())
}

func TestRenderTruncatesOverlongLabel(t *testing.T) {
	data, err := qrimg.Render("https://example.com/qr/abc12345", strings.Repeat("x", 200))

	assert.Nil(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.Nil(t, err)
}
