package pipeline

import (
	"context"
	"sync"
)

// Ticket identifies one load of one page.
type Ticket struct {
	Page string
	Gen  uint64
}

// Tracker makes page loads cancellable and lets callers discard
// responses that arrive after a newer load began or the page was left.
type Tracker struct {
	mu     sync.Mutex
	gen    map[string]uint64
	cancel map[string]context.CancelFunc
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		gen:    make(map[string]uint64),
		cancel: make(map[string]context.CancelFunc),
	}
}

// Begin cancels any in-flight load for page and starts a new one.
func (t *Tracker) Begin(parent context.Context, page string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.cancel[page]; ok {
		prev()
	}
	t.gen[page]++
	t.cancel[page] = cancel
	return ctx, Ticket{Page: page, Gen: t.gen[page]}
}

// current reports whether tk is the latest load for its page.
func (t *Tracker) current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen[tk.Page] == tk.Gen
}

// Finish releases tk's context and reports whether its result should be
// applied.
func (t *Tracker) Finish(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen[tk.Page] != tk.Gen {
		return false
	}
	if cancel, ok := t.cancel[tk.Page]; ok {
		cancel()
		delete(t.cancel, tk.Page)
	}
	return true
}

// InFlight reports whether page has an unfinished load.
func (t *Tracker) InFlight(page string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.cancel[page]
	return ok
}

// Cancel aborts page's in-flight load; its result will be discarded.
func (t *Tracker) Cancel(page string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked(page)
}

// CancelAll aborts every in-flight load.
func (t *Tracker) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for page := range t.cancel {
		t.cancelLocked(page)
	}
}

func (t *Tracker) cancelLocked(page string) {
	cancel, ok := t.cancel[page]
	if !ok {
		return
	}
	cancel()
	delete(t.cancel, page)
	t.gen[page]++
}
