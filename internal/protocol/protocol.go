package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// Simulation wire protocol
//
// Text frames over a persistent websocket, one command per frame.
//
//   Direction   Frame                       Meaning
//   ─────────   ─────────────────────────   ─────────────────────────────────────
//   outbound    CHANGE <pinId> <0|1>        an input pin changed on the board
//   inbound     <pinId> <op> <0|1>          an output pin changed in the simulation
//   inbound     ...[ERROR]...               simulation-side error, informational
//
// The inbound op token is an echo (usually "=") and is not interpreted.
// An inbound value is true only when it is exactly "1".

const (
	// ErrorMarker tags simulation error frames.
	ErrorMarker = "[ERROR]"

	changeVerb = "CHANGE"
)

// DefaultURL is the fixed local simulation endpoint.
const DefaultURL = "ws://127.0.0.1:8083"

// ErrMalformed is returned for inbound frames that are not three tokens.
var ErrMalformed = errors.New("protocol: malformed message")

// Kind classifies an inbound frame.
type Kind int

const (
	KindUpdate Kind = iota
	KindError
)

// Inbound is a decoded simulation frame.
type Inbound struct {
	Kind  Kind
	PinID string
	Op    string
	Value bool
	Raw   string
}

// ParseInbound decodes one frame. Error frames are returned with KindError and
// a nil error; anything that is not exactly three space-separated tokens
// returns ErrMalformed.
func ParseInbound(raw string) (Inbound, error) {
	if strings.Contains(raw, ErrorMarker) {
		return Inbound{Kind: KindError, Raw: raw}, nil
	}

	words := strings.Split(raw, " ")
	if len(words) != 3 {
		return Inbound{Raw: raw}, fmt.Errorf("%w: %d tokens in %q", ErrMalformed, len(words), raw)
	}
	if words[0] == "" {
		return Inbound{Raw: raw}, fmt.Errorf("%w: empty pin id in %q", ErrMalformed, raw)
	}

	return Inbound{
		Kind:  KindUpdate,
		PinID: words[0],
		Op:    words[1],
		Value: words[2] == "1",
		Raw:   raw,
	}, nil
}

// FormatChange encodes an outbound pin change.
func FormatChange(pinID string, value bool) string {
	return fmt.Sprintf("%s %s %s", changeVerb, pinID, bit(value))
}

func bit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
