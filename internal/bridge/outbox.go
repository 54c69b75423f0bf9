package bridge

import (
	"errors"
	"log"
	"sync"

	"github.com/tinytelemetry/vboard/internal/simconn"
)

type frame struct {
	link Link
	text string
}

// outbox hands outbound frames to the link in the order they were queued.
// A drain goroutine runs only while frames are pending, so a stalled write
// never holds the bridge lock.
type outbox struct {
	mu       sync.Mutex
	idle     *sync.Cond
	queue    []frame
	draining bool
}

func newOutbox() *outbox {
	o := &outbox{}
	o.idle = sync.NewCond(&o.mu)
	return o
}

func (o *outbox) push(link Link, text string) {
	o.mu.Lock()
	o.queue = append(o.queue, frame{link: link, text: text})
	start := !o.draining
	o.draining = true
	o.mu.Unlock()

	if start {
		go o.drain()
	}
}

func (o *outbox) drain() {
	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			o.draining = false
			o.idle.Broadcast()
			o.mu.Unlock()
			return
		}
		f := o.queue[0]
		o.queue[0] = frame{}
		o.queue = o.queue[1:]
		o.mu.Unlock()

		if err := f.link.Send(f.text); err != nil && !errors.Is(err, simconn.ErrNotConnected) {
			log.Printf("bridge: %v", err)
		}
	}
}

// discard drops frames not yet handed to the link.
func (o *outbox) discard() {
	o.mu.Lock()
	o.queue = nil
	o.mu.Unlock()
}

func (o *outbox) flush() {
	o.mu.Lock()
	for o.draining {
		o.idle.Wait()
	}
	o.mu.Unlock()
}
