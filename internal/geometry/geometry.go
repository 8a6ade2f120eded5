// Package geometry resolves which display the pointer is on and where a window
// of a given size should sit to be centred on it.
//
// Screen frames and pointer locations are logical (scale-independent) units in a
// global top-left-origin space. Monitor values are physical pixels.
package geometry

import (
	"errors"
	"math"
)

// ErrNoScreens is returned by a ScreenSource that can enumerate nothing.
var ErrNoScreens = errors.New("no screens attached")

// Point is a logical position.
type Point struct {
	X, Y float64
}

// Size is a logical extent.
type Size struct {
	Width, Height float64
}

// Rect is a logical rectangle.
type Rect struct {
	Origin Point
	Size   Size
}

// Contains reports whether p lies in r. The minimum edges are inclusive and the
// maximum edges exclusive, so a point on the seam between two side-by-side
// displays belongs to exactly one of them.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Origin.X && p.X < r.Origin.X+r.Size.Width &&
		p.Y >= r.Origin.Y && p.Y < r.Origin.Y+r.Size.Height
}

// Screen is one attached display as reported by the platform.
type Screen struct {
	Name        string
	Frame       Rect
	ScaleFactor float64
}

// PhysicalPosition is an integer pixel offset.
type PhysicalPosition struct {
	X, Y int
}

// PhysicalSize is an integer pixel extent.
type PhysicalSize struct {
	Width, Height int
}

// Monitor is the display under the pointer, in physical pixels. Name is empty
// when the platform does not report one.
type Monitor struct {
	Name        string
	Position    PhysicalPosition
	Size        PhysicalSize
	ScaleFactor float64
}

// Logical converts the monitor bounds back to logical units.
func (m Monitor) Logical() Rect {
	scale := m.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	return Rect{
		Origin: Point{X: float64(m.Position.X) / scale, Y: float64(m.Position.Y) / scale},
		Size:   Size{Width: float64(m.Size.Width) / scale, Height: float64(m.Size.Height) / scale},
	}
}

// ToMonitor converts a screen to physical pixels using its own scale factor.
func (s Screen) ToMonitor() Monitor {
	scale := s.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	return Monitor{
		Name: s.Name,
		Position: PhysicalPosition{
			X: int(math.Trunc(s.Frame.Origin.X * scale)),
			Y: int(math.Trunc(s.Frame.Origin.Y * scale)),
		},
		Size: PhysicalSize{
			Width:  int(math.Trunc(s.Frame.Size.Width * scale)),
			Height: int(math.Trunc(s.Frame.Size.Height * scale)),
		},
		ScaleFactor: scale,
	}
}

// Locate returns the first screen containing pointer, converted to a Monitor.
// ok is false when no screen contains it.
func Locate(pointer Point, screens []Screen) (mon Monitor, ok bool) {
	for _, s := range screens {
		if s.Frame.Contains(pointer) {
			return s.ToMonitor(), true
		}
	}
	return Monitor{}, false
}

// Center returns the top-left origin that centres a window of size win on mon,
// in logical units. The window size itself is left untouched.
func Center(mon Monitor, win Size) Point {
	display := mon.Logical()
	return Point{
		X: display.Origin.X + (display.Size.Width-win.Width)/2,
		Y: display.Origin.Y + (display.Size.Height-win.Height)/2,
	}
}
