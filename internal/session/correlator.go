package session

import (
	"sync"
	"time"

	"github.com/extago/extalife/internal/protocol"
)

// waiter is one in-flight request/response exchange. The read loop feeds it
// frames via handle; the issuing goroutine blocks on done.
type waiter struct {
	command protocol.Command

	mu       sync.Mutex
	frames   []*protocol.Response
	activity time.Time
	resolved bool
	err      error
	done     chan struct{}
}

// handle applies one decoded frame to the exchange.
//
// Accumulation frames (searching/partial/progress) extend the exchange and
// reset the activity clock; notification frames only touch the clock (they
// signal the controller is alive mid-transfer without contributing data);
// a terminal frame resolves the waiter exactly once. Broadcast and
// validation statuses never belong to an exchange and are ignored.
func (w *waiter) handle(response *protocol.Response) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.resolved {
		return
	}

	switch {
	case response.Status == protocol.StatusNotification:
		w.activity = time.Now()
	case response.Status.Accumulation():
		w.activity = time.Now()
		w.frames = append(w.frames, response)
	case response.Status.Terminal():
		w.frames = append(w.frames, response)
		w.resolved = true
		close(w.done)
	}
}

// fail resolves the waiter with an error. No-op if already resolved.
func (w *waiter) fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.resolved {
		return
	}
	w.err = err
	w.resolved = true
	close(w.done)
}

// lastActivity returns the time of the most recent frame for this exchange.
func (w *waiter) lastActivity() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activity
}

// result returns the accumulated frames, or the failure error.
func (w *waiter) result() ([]*protocol.Response, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames, w.err
}

// correlator matches inbound response frames to in-flight requests by
// command code. The command-execution lock keeps it to at most one waiter
// per command; should two ever be registered, the first one consumes the
// frames.
type correlator struct {
	mu      sync.Mutex
	waiters []*waiter
}

func (c *correlator) register(command protocol.Command) *waiter {
	w := &waiter{
		command:  command,
		activity: time.Now(),
		done:     make(chan struct{}),
	}
	c.mu.Lock()
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()
	return w
}

func (c *correlator) unregister(w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, candidate := range c.waiters {
		if candidate == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// dispatch routes one decoded frame to the first registered waiter for its
// command code.
func (c *correlator) dispatch(response *protocol.Response) {
	c.mu.Lock()
	var target *waiter
	for _, w := range c.waiters {
		if w.command == response.Command {
			target = w
			break
		}
	}
	c.mu.Unlock()

	if target != nil {
		target.handle(response)
	}
}

// failAll resolves every pending waiter with err. Used when the connection
// closes so no Exec call is ever left hanging.
func (c *correlator) failAll(err error) {
	c.mu.Lock()
	pending := make([]*waiter, len(c.waiters))
	copy(pending, c.waiters)
	c.waiters = nil
	c.mu.Unlock()

	for _, w := range pending {
		w.fail(err)
	}
}
