package board

import (
	"errors"
	"fmt"
)

// DefaultName is used when a document does not name its board.
const DefaultName = "Virtual Board"

// Role groups pins by how they are driven.
type Role string

const (
	RoleLED    Role = "led"
	RoleSwitch Role = "switch"
	RoleButton Role = "button"
	RoleOther  Role = "other"
)

// Roles lists every pin role in lookup precedence order.
var Roles = []Role{RoleLED, RoleSwitch, RoleButton, RoleOther}

// Pin is a named boolean signal on the board.
type Pin struct {
	Name   string `json:"pinName" yaml:"pinName"`
	ID     string `json:"pinId" yaml:"pinId"`
	Status bool   `json:"status,omitempty" yaml:"status,omitempty"`
}

// SevenSegmentDigit references the pins driving one digit.
// An empty reference is an unwired segment and always reads off.
type SevenSegmentDigit struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
	C string `json:"c" yaml:"c"`
	D string `json:"d" yaml:"d"`
	E string `json:"e" yaml:"e"`
	F string `json:"f" yaml:"f"`
	G string `json:"g" yaml:"g"`
	P string `json:"p" yaml:"p"`
}

// SegmentNames are the segment labels in the order returned by Refs and Segments.
var SegmentNames = [8]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'p'}

// Refs returns the referenced pin ids in segment order a..g, p.
func (d SevenSegmentDigit) Refs() [8]string {
	return [8]string{d.A, d.B, d.C, d.D, d.E, d.F, d.G, d.P}
}

// Board is the full named collection of pins and digits.
type Board struct {
	Name      string              `json:"boardName" yaml:"boardName"`
	LEDs      []Pin               `json:"leds" yaml:"leds"`
	Switches  []Pin               `json:"switches" yaml:"switches"`
	Buttons   []Pin               `json:"buttons" yaml:"buttons"`
	OtherPins []Pin               `json:"otherPins" yaml:"otherPins"`
	Digits    []SevenSegmentDigit `json:"sevseg" yaml:"sevseg"`
}

// PinNotFoundError reports a pin id that does not resolve on the board.
type PinNotFoundError struct {
	ID   string
	Role Role // empty when the lookup spanned every role
}

func (e *PinNotFoundError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("board: could not find %s pin %q", e.Role, e.ID)
	}
	return fmt.Sprintf("board: could not find pin %q", e.ID)
}

// ErrDuplicatePin is returned by Validate when two pins share an id.
var ErrDuplicatePin = errors.New("board: duplicate pin id")

// ErrEmptyPinID is returned by Validate when a pin has no id.
var ErrEmptyPinID = errors.New("board: pin id is empty")

// ErrEmptyPinName is returned by Validate when a pin has no name.
var ErrEmptyPinName = errors.New("board: pin name is empty")

// IsPinNotFound reports whether err wraps a PinNotFoundError.
func IsPinNotFound(err error) bool {
	var nf *PinNotFoundError
	return errors.As(err, &nf)
}

// Pins returns the slice backing a role. The returned slice aliases the board.
func (b *Board) Pins(role Role) []Pin {
	switch role {
	case RoleLED:
		return b.LEDs
	case RoleSwitch:
		return b.Switches
	case RoleButton:
		return b.Buttons
	case RoleOther:
		return b.OtherPins
	}
	return nil
}

// Find returns the pin with id among pins of the given role.
func (b *Board) Find(role Role, id string) (*Pin, error) {
	pins := b.Pins(role)
	for i := range pins {
		if pins[i].ID == id {
			return &pins[i], nil
		}
	}
	return nil, &PinNotFoundError{ID: id, Role: role}
}

// PinValue resolves id against leds, switches, buttons and other pins, in
// that order. An empty id yields a detached pin that reads false.
func (b *Board) PinValue(id string) (*Pin, error) {
	if id == "" {
		return &Pin{}, nil
	}
	for _, role := range Roles {
		if p, err := b.Find(role, id); err == nil {
			return p, nil
		}
	}
	return nil, &PinNotFoundError{ID: id}
}

// Segments projects a digit onto the current pin statuses.
func (b *Board) Segments(d SevenSegmentDigit) [8]bool {
	var out [8]bool
	for i, ref := range d.Refs() {
		if ref == "" {
			continue
		}
		if p, err := b.PinValue(ref); err == nil {
			out[i] = p.Status
		}
	}
	return out
}

// Validate checks id uniqueness and that every digit reference resolves.
func (b *Board) Validate() error {
	seen := make(map[string]Role)
	for _, role := range Roles {
		for _, p := range b.Pins(role) {
			if p.ID == "" {
				return fmt.Errorf("%w: %s pin %q", ErrEmptyPinID, role, p.Name)
			}
			if p.Name == "" {
				return fmt.Errorf("%w: %s pin %q", ErrEmptyPinName, role, p.ID)
			}
			if prev, ok := seen[p.ID]; ok {
				return fmt.Errorf("%w: %q used by %s and %s", ErrDuplicatePin, p.ID, prev, role)
			}
			seen[p.ID] = role
		}
	}
	for i, d := range b.Digits {
		for j, ref := range d.Refs() {
			if ref == "" {
				continue
			}
			if _, ok := seen[ref]; !ok {
				return fmt.Errorf("board: digit %d segment %c: %w", i, SegmentNames[j], &PinNotFoundError{ID: ref})
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	return &Board{
		Name:      b.Name,
		LEDs:      append([]Pin(nil), b.LEDs...),
		Switches:  append([]Pin(nil), b.Switches...),
		Buttons:   append([]Pin(nil), b.Buttons...),
		OtherPins: append([]Pin(nil), b.OtherPins...),
		Digits:    append([]SevenSegmentDigit(nil), b.Digits...),
	}
}

// PinCount returns the number of pins across every role.
func (b *Board) PinCount() int {
	return len(b.LEDs) + len(b.Switches) + len(b.Buttons) + len(b.OtherPins)
}
