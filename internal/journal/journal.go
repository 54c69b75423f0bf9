package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755
)

// Origin identifies who changed a pin.
type Origin string

const (
	OriginUser       Origin = "user"
	OriginSimulation Origin = "simulation"
	OriginLoad       Origin = "load"
)

// Transition is one recorded pin status change.
type Transition struct {
	Time   time.Time `json:"time"`
	Board  string    `json:"board"`
	PinID  string    `json:"pin"`
	Role   string    `json:"role"`
	Value  bool      `json:"value"`
	Origin Origin    `json:"origin"`
}

type entry struct {
	Seq        uint64     `json:"seq"`
	Transition Transition `json:"transition"`
}

// file is the subset of *os.File the journal writes through.
type file interface {
	io.WriteCloser
	Truncate(size int64) error
	Seek(offset int64, whence int) (int64, error)
	Sync() error
}

// Journal is an append-only trace of pin transitions, one JSON entry per
// line. Sequence numbers continue across reopen.
type Journal struct {
	mu      sync.Mutex
	path    string
	file    file
	size    int64
	nextSeq uint64
	sync    bool
}

// Option configures a Journal.
type Option func(*Journal)

// WithSync fsyncs after every append.
func WithSync() Option {
	return func(j *Journal) { j.sync = true }
}

// Open creates or opens a journal at path. A partially written trailing line
// left by a crash is truncated away. Malformed complete lines are skipped and
// never cost the entries after them.
func Open(path string, opts ...Option) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("journal: mkdir: %w", err)
	}

	maxSeq, validSize, skipped, err := scan(path)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		log.Printf("journal: skipped %d malformed entries in %s", skipped, path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, defaultFileMode)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	if err := f.Truncate(validSize); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("journal: truncate torn tail: %w", err)
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("journal: seek: %w", err)
	}

	j := &Journal{
		path:    path,
		file:    f,
		size:    validSize,
		nextSeq: maxSeq + 1,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string { return j.path }

// Append persists one transition and returns its sequence number. A failed
// append leaves no partial line behind and does not consume a sequence number.
func (j *Journal) Append(t Transition) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return 0, errors.New("journal: closed")
	}
	if t.Time.IsZero() {
		t.Time = time.Now().UTC()
	}

	seq := j.nextSeq
	line, err := json.Marshal(entry{Seq: seq, Transition: t})
	if err != nil {
		return 0, fmt.Errorf("journal: marshal entry: %w", err)
	}
	line = append(line, '\n')

	if _, err := j.file.Write(line); err != nil {
		return 0, j.rollback(fmt.Errorf("journal: write entry: %w", err))
	}
	if j.sync {
		if err := j.file.Sync(); err != nil {
			return 0, j.rollback(fmt.Errorf("journal: sync entry: %w", err))
		}
	}
	j.size += int64(len(line))
	j.nextSeq++
	return seq, nil
}

// rollback cuts the file back to the end of the last complete entry. Must be
// called with j.mu held.
func (j *Journal) rollback(cause error) error {
	if err := j.file.Truncate(j.size); err != nil {
		return errors.Join(cause, fmt.Errorf("journal: rollback truncate: %w", err))
	}
	if _, err := j.file.Seek(j.size, io.SeekStart); err != nil {
		return errors.Join(cause, fmt.Errorf("journal: rollback seek: %w", err))
	}
	return cause
}

// Replay calls fn for every entry in file order. Malformed lines and a
// partial trailing line are skipped.
func (j *Journal) Replay(fn func(seq uint64, t Transition) error) error {
	if fn == nil {
		return errors.New("journal: replay callback is nil")
	}

	j.mu.Lock()
	path := j.path
	j.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("journal: open for replay: %w", err)
	}
	defer f.Close()

	_, _, err = readEntries(f, func(e entry) error {
		return fn(e.Seq, e.Transition)
	})
	return err
}

// Close closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// scan returns the highest sequence number, the byte length of the complete
// lines of the file and how many of those lines were malformed.
func scan(path string) (uint64, int64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, 0, 0, nil
		}
		return 0, 0, 0, fmt.Errorf("journal: open for scan: %w", err)
	}
	defer f.Close()

	var maxSeq uint64
	complete, skipped, err := readEntries(f, func(e entry) error {
		if e.Seq > maxSeq {
			maxSeq = e.Seq
		}
		return nil
	})
	if err != nil {
		return 0, 0, 0, err
	}
	return maxSeq, complete, skipped, nil
}

// readEntries decodes every newline-terminated line, skipping malformed ones.
// It returns the byte length of the complete lines and the number skipped; a
// trailing line without a newline is neither decoded nor counted.
func readEntries(r io.Reader, fn func(e entry) error) (int64, int, error) {
	reader := bufio.NewReader(r)
	var complete int64
	var skipped int
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return complete, skipped, fmt.Errorf("journal: read: %w", err)
		}
		if len(line) == 0 || line[len(line)-1] != '\n' {
			return complete, skipped, nil
		}
		complete += int64(len(line))

		var e entry
		if uerr := json.Unmarshal(line, &e); uerr != nil || e.Seq == 0 {
			skipped++
			continue
		}
		if ferr := fn(e); ferr != nil {
			return complete, skipped, ferr
		}
	}
}
