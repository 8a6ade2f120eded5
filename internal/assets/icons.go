// Package assets draws the application icon.
package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"fyne.io/fyne/v2"
)

// IconSize is the edge length of the rendered icon in pixels.
const IconSize = 64

var (
	background = color.RGBA{32, 33, 35, 255}
	glass      = color.RGBA{88, 140, 236, 255}
	handle     = color.RGBA{230, 230, 230, 255}
)

var (
	iconOnce sync.Once
	iconPNG  []byte
)

// TrayIcon returns the system tray icon resource.
func TrayIcon() fyne.Resource {
	return fyne.NewStaticResource("tray.png", iconBytes())
}

// AppIcon returns the application icon resource.
func AppIcon() fyne.Resource {
	return fyne.NewStaticResource("app.png", iconBytes())
}

func iconBytes() []byte {
	iconOnce.Do(func() {
		var buf bytes.Buffer
		if err := png.Encode(&buf, Render(IconSize)); err != nil {
			panic(err)
		}
		iconPNG = buf.Bytes()
	})
	return iconPNG
}

// Render draws a magnifying glass on a rounded dark square.
func Render(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	s := float64(size)
	radius := s * 0.19
	lensX, lensY := s*0.42, s*0.42
	outer, inner := s*0.24, s*0.16

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			if !inRoundedRect(px, py, 2, 2, s-4, s-4, radius) {
				continue
			}
			img.Set(x, y, background)

			d := math.Hypot(px-lensX, py-lensY)
			switch {
			case d <= outer && d >= inner:
				img.Set(x, y, glass)
			case onHandle(px, py, s):
				img.Set(x, y, handle)
			}
		}
	}
	return img
}

// onHandle reports whether p lies on the diagonal stroke below the lens.
func onHandle(px, py, s float64) bool {
	x0, y0 := s*0.58, s*0.58
	x1, y1 := s*0.78, s*0.78
	if px < x0-s*0.05 || px > x1+s*0.05 || py < y0-s*0.05 || py > y1+s*0.05 {
		return false
	}
	// distance from the line x == y
	return math.Abs(px-py)/math.Sqrt2 <= s*0.05
}

func inRoundedRect(px, py, rx, ry, rw, rh, radius float64) bool {
	if px < rx || px >= rx+rw || py < ry || py >= ry+rh {
		return false
	}
	cx := math.Max(rx+radius, math.Min(px, rx+rw-radius))
	cy := math.Max(ry+radius, math.Min(py, ry+rh-radius))
	return math.Hypot(px-cx, py-cy) <= radius
}
