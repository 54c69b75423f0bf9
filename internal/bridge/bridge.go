package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/vboard/internal/board"
	"github.com/tinytelemetry/vboard/internal/journal"
	"github.com/tinytelemetry/vboard/internal/protocol"
	"github.com/tinytelemetry/vboard/internal/simconn"
)

// DefaultEventBuffer is the per-subscriber change queue length.
const DefaultEventBuffer = 256

// ErrNoBoard is returned by input operations before a board is loaded.
var ErrNoBoard = errors.New("bridge: no board loaded")

// Link is the simulation connection slot driven by the bridge.
// *simconn.Connector satisfies it.
type Link interface {
	Connect(ctx context.Context) bool
	Close() error
	Send(text string) error
}

// Recorder persists pin transitions. *journal.Journal satisfies it.
type Recorder interface {
	Append(t journal.Transition) (uint64, error)
}

// ChangeKind identifies what a Change describes.
type ChangeKind int

const (
	ChangePin ChangeKind = iota
	ChangeBoard
	ChangeConnection
)

// Change is published to subscribers after every state mutation.
type Change struct {
	Kind   ChangeKind
	At     time.Time
	PinID  string
	Role   board.Role
	Value  bool
	Origin journal.Origin
	State  simconn.State
	Err    error
}

// Snapshot is a consistent copy of the bridge state.
type Snapshot struct {
	Board    *board.Board // nil before the first load
	Path     string
	State    simconn.State
	Segments [][8]bool
	Activity map[string]int
	LastErr  error
}

// Options configures a Bridge.
type Options struct {
	Recorder    Recorder
	EventBuffer int
}

// Bridge is the single owner of board and connection state. Inbound
// simulation frames and user gestures both mutate state through it.
type Bridge struct {
	mu       sync.Mutex
	board    *board.Board
	path     string
	link     Link
	state    simconn.State
	activity map[string]int
	lastErr  error

	recorder Recorder
	bufSize  int
	subs     map[chan Change]struct{}
	out      *outbox
}

// New creates a bridge with no board and no link.
func New(opts Options) *Bridge {
	size := opts.EventBuffer
	if size <= 0 {
		size = DefaultEventBuffer
	}
	return &Bridge{
		recorder: opts.Recorder,
		bufSize:  size,
		activity: make(map[string]int),
		subs:     make(map[chan Change]struct{}),
		out:      newOutbox(),
	}
}

// Attach sets the simulation link. The link's events must be routed to
// HandleEvent.
func (b *Bridge) Attach(link Link) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.link = link
}

// Subscribe returns a channel of changes and a function that cancels the
// subscription. Changes are dropped for subscribers that fall behind.
func (b *Bridge) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, b.bufSize)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// LoadFile parses the document at path and, on success, replaces the board.
// On failure the current board is kept.
func (b *Bridge) LoadFile(path string) error {
	bd, err := board.LoadFile(path)
	if err != nil {
		log.Printf("bridge: load %s: %v", path, err)
		b.mu.Lock()
		b.lastErr = err
		b.mu.Unlock()
		return err
	}
	b.LoadBoard(bd, path)
	return nil
}

// LoadBoard replaces the active board. Statuses start at the values the
// board carries, which for parsed documents are their declared defaults.
func (b *Bridge) LoadBoard(bd *board.Board, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.board = bd
	b.path = path
	b.lastErr = nil
	b.activity = make(map[string]int)

	now := time.Now()
	for _, role := range board.Roles {
		for _, p := range bd.Pins(role) {
			b.record(now, p.ID, role, p.Status, journal.OriginLoad)
		}
	}
	log.Printf("bridge: loaded board %q (%d pins, %d digits)", bd.Name, bd.PinCount(), len(bd.Digits))
	b.publish(Change{Kind: ChangeBoard, At: now, State: b.state})
}

// Snapshot returns a deep copy of the current state.
func (b *Bridge) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{
		Board:    b.board.Clone(),
		Path:     b.path,
		State:    b.state,
		Activity: make(map[string]int, len(b.activity)),
		LastErr:  b.lastErr,
	}
	for id, n := range b.activity {
		snap.Activity[id] = n
	}
	if b.board != nil {
		snap.Segments = make([][8]bool, len(b.board.Digits))
		for i, d := range b.board.Digits {
			snap.Segments[i] = b.board.Segments(d)
		}
	}
	return snap
}

// State returns the connection state as seen by the bridge.
func (b *Bridge) State() simconn.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Connect asks the link to open a connection. It reports false when no link
// is attached or a connection is already open or opening.
func (b *Bridge) Connect(ctx context.Context) bool {
	b.mu.Lock()
	link := b.link
	if link == nil || b.state != simconn.Disconnected {
		b.mu.Unlock()
		return false
	}
	b.state = simconn.Connecting
	b.publish(Change{Kind: ChangeConnection, At: time.Now(), State: b.state})
	b.mu.Unlock()

	if !link.Connect(ctx) {
		// The slot was busy; the link's own events will settle the state.
		return false
	}
	return true
}

// Disconnect closes the connection, if any.
func (b *Bridge) Disconnect() error {
	b.mu.Lock()
	link := b.link
	b.mu.Unlock()
	if link == nil {
		return nil
	}
	return link.Close()
}

// HandleEvent applies a connector event. It is the simconn handler.
func (b *Bridge) HandleEvent(ev simconn.Event) {
	switch ev.Kind {
	case simconn.EventOpened:
		b.opened()
	case simconn.EventMessage:
		b.HandleMessage(ev.Text)
	case simconn.EventClosed:
		b.closed(ev.Err)
	}
}

func (b *Bridge) opened() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = simconn.Connected
	b.publish(Change{Kind: ChangeConnection, At: time.Now(), State: b.state})

	// Let the simulation adopt the client's switch positions.
	if b.board == nil {
		return
	}
	for _, sw := range b.board.Switches {
		b.send(protocol.FormatChange(sw.ID, sw.Status))
	}
}

func (b *Bridge) closed(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = simconn.Disconnected
	b.out.discard()
	if err != nil {
		b.lastErr = err
	}
	b.publish(Change{Kind: ChangeConnection, At: time.Now(), State: b.state, Err: err})
}

// HandleMessage applies one inbound simulation frame. Only LEDs and other
// pins are driven by the simulation; input pins are never touched.
func (b *Bridge) HandleMessage(raw string) {
	msg, err := protocol.ParseInbound(raw)
	if err != nil {
		log.Printf("bridge: dropping inbound frame: %v", err)
		return
	}
	if msg.Kind == protocol.KindError {
		log.Printf("bridge: simulation reported: %s", msg.Raw)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.board == nil {
		return
	}
	for _, role := range []board.Role{board.RoleLED, board.RoleOther} {
		if p, err := b.board.Find(role, msg.PinID); err == nil {
			b.apply(p, role, msg.Value, journal.OriginSimulation)
			return
		}
	}
}

// ToggleSwitch flips a switch and reports the new position to the simulation.
func (b *Bridge) ToggleSwitch(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.find(board.RoleSwitch, id)
	if err != nil {
		return err
	}
	b.apply(p, board.RoleSwitch, !p.Status, journal.OriginUser)
	b.send(protocol.FormatChange(p.ID, p.Status))
	return nil
}

// SetSwitch moves a switch to value. Nothing is sent when it is already there.
func (b *Bridge) SetSwitch(id string, value bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.find(board.RoleSwitch, id)
	if err != nil {
		return err
	}
	if b.apply(p, board.RoleSwitch, value, journal.OriginUser) {
		b.send(protocol.FormatChange(p.ID, value))
	}
	return nil
}

// PressButton drives a momentary button high.
func (b *Bridge) PressButton(id string) error {
	return b.setButton(id, true)
}

// ReleaseButton drives a momentary button low.
func (b *Bridge) ReleaseButton(id string) error {
	return b.setButton(id, false)
}

func (b *Bridge) setButton(id string, value bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.find(board.RoleButton, id)
	if err != nil {
		return err
	}
	b.apply(p, board.RoleButton, value, journal.OriginUser)
	b.send(protocol.FormatChange(p.ID, value))
	return nil
}

// find must be called with b.mu held.
func (b *Bridge) find(role board.Role, id string) (*board.Pin, error) {
	if b.board == nil {
		return nil, ErrNoBoard
	}
	return b.board.Find(role, id)
}

// apply is the single mutation point for pin status. It must be called with
// b.mu held and reports whether the status changed.
func (b *Bridge) apply(p *board.Pin, role board.Role, value bool, origin journal.Origin) bool {
	if p.Status == value {
		return false
	}
	p.Status = value
	b.activity[p.ID]++

	now := time.Now()
	b.record(now, p.ID, role, value, origin)
	b.publish(Change{
		Kind:   ChangePin,
		At:     now,
		PinID:  p.ID,
		Role:   role,
		Value:  value,
		Origin: origin,
		State:  b.state,
	})
	return true
}

// send is fire-and-forget; frames are dropped while disconnected. Must be
// called with b.mu held so frames are queued in mutation order. The write
// itself happens off the lock.
func (b *Bridge) send(text string) {
	if b.link == nil || b.state != simconn.Connected {
		return
	}
	b.out.push(b.link, text)
}

// Flush blocks until every queued frame has been handed to the link.
func (b *Bridge) Flush() {
	b.out.flush()
}

func (b *Bridge) record(at time.Time, id string, role board.Role, value bool, origin journal.Origin) {
	if b.recorder == nil {
		return
	}
	name := ""
	if b.board != nil {
		name = b.board.Name
	}
	_, err := b.recorder.Append(journal.Transition{
		Time:   at.UTC(),
		Board:  name,
		PinID:  id,
		Role:   string(role),
		Value:  value,
		Origin: origin,
	})
	if err != nil {
		log.Printf("bridge: record transition %s: %v", id, err)
	}
}

// publish must be called with b.mu held.
func (b *Bridge) publish(c Change) {
	for ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// String describes the bridge for logs.
func (b *Bridge) String() string {
	s := b.Snapshot()
	name := "<none>"
	if s.Board != nil {
		name = s.Board.Name
	}
	return fmt.Sprintf("bridge(board=%s, state=%s)", name, s.State)
}
