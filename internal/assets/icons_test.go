package assets

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCornersTransparent(t *testing.T) {
	img := Render(IconSize)

	assert.Equal(t, uint8(0), img.RGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), img.RGBAAt(IconSize-1, IconSize-1).A)
	assert.Equal(t, background, img.RGBAAt(IconSize/2, 6))
}

func TestTrayIconIsPNG(t *testing.T) {
	res := TrayIcon()
	assert.Equal(t, "tray.png", res.Name())

	img, err := png.Decode(bytes.NewReader(res.Content()))
	require.NoError(t, err)
	assert.Equal(t, IconSize, img.Bounds().Dx())
	assert.Equal(t, res.Content(), AppIcon().Content())
}
