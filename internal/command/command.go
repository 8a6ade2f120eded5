// Package command decodes remote control messages and routes them to the
// overlay controller.
//
// Messages are JSON text frames:
//
//	{"Method": "ShowApp", "Data": {"Position": {"X": 1, "Y": 2, "Type": "MouseScreen"}, "SelectAll": true}}
//
// Unknown fields are ignored.
package command

import (
	"errors"

	"github.com/tidwall/gjson"
)

const (
	MethodToggleApp = "ToggleApp"
	MethodShowApp   = "ShowApp"

	// PositionMouseScreen asks for the window on the monitor under the cursor.
	PositionMouseScreen = "MouseScreen"
)

var ErrMalformed = errors.New("malformed command")

// Kind identifies a recognised command.
type Kind int

const (
	Unknown Kind = iota
	ToggleApp
	ShowApp
)

func (k Kind) String() string {
	switch k {
	case ToggleApp:
		return MethodToggleApp
	case ShowApp:
		return MethodShowApp
	default:
		return "Unknown"
	}
}

// Origin says what a Position is relative to.
type Origin int

const (
	OriginOther Origin = iota
	OriginCursorMonitor
)

// Position is a requested window placement. X and Y are logical units.
type Position struct {
	X, Y   float64
	Type   string
	Origin Origin
}

// Payload carries the optional arguments of a show-type command.
type Payload struct {
	Position  *Position
	SelectAll bool
}

// Command is a decoded message.
type Command struct {
	Kind    Kind
	Method  string
	Payload Payload
}

// Parse decodes raw. Invalid JSON or a non-object document returns
// ErrMalformed. An unrecognised or missing Method yields Kind Unknown.
func Parse(raw string) (Command, error) {
	if !gjson.Valid(raw) {
		return Command{}, ErrMalformed
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return Command{}, ErrMalformed
	}

	cmd := Command{Kind: Unknown}
	method := doc.Get("Method")
	if method.Type == gjson.String {
		cmd.Method = method.Str
	}
	switch cmd.Method {
	case MethodToggleApp:
		cmd.Kind = ToggleApp
	case MethodShowApp:
		cmd.Kind = ShowApp
	}
	cmd.Payload = payload(doc.Get("Data"))
	return cmd, nil
}

func payload(data gjson.Result) Payload {
	var p Payload
	if !data.IsObject() {
		return p
	}

	p.Position = position(data.Get("Position"))
	p.SelectAll = data.Get("SelectAll").Type == gjson.True
	return p
}

// position requires numeric X and Y and a string Type; anything less means
// the message carries no position.
func position(pos gjson.Result) *Position {
	if !pos.IsObject() {
		return nil
	}
	x, y, typ := pos.Get("X"), pos.Get("Y"), pos.Get("Type")
	if x.Type != gjson.Number || y.Type != gjson.Number || typ.Type != gjson.String {
		return nil
	}
	p := &Position{X: x.Num, Y: y.Num, Type: typ.Str}
	if p.Type == PositionMouseScreen {
		p.Origin = OriginCursorMonitor
	}
	return p
}
