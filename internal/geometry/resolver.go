package geometry

import "fmt"

// ScreenSource is the platform query surface the resolver needs.
type ScreenSource interface {
	PointerLocation() (Point, error)
	Screens() ([]Screen, error)
}

// Resolver finds the monitor currently under the pointer.
type Resolver struct {
	source ScreenSource
}

// NewResolver creates a resolver over source.
func NewResolver(source ScreenSource) *Resolver {
	return &Resolver{source: source}
}

// MonitorUnderCursor reads the pointer and returns the display containing it.
// ok is false when no display contains the pointer; err is only set when the
// platform query itself failed.
func (r *Resolver) MonitorUnderCursor() (mon Monitor, ok bool, err error) {
	pointer, err := r.source.PointerLocation()
	if err != nil {
		return Monitor{}, false, fmt.Errorf("query pointer: %w", err)
	}
	screens, err := r.source.Screens()
	if err != nil {
		return Monitor{}, false, fmt.Errorf("enumerate screens: %w", err)
	}
	mon, ok = Locate(pointer, screens)
	return mon, ok, nil
}
