package engine

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/worldloom/worldloom/pkg/observability"
	"github.com/worldloom/worldloom/pkg/world"
)

// Observer receives every snapshot the coordinator publishes, in
// publication order. OnSnapshot runs under the coordinator's publication
// lock and should return quickly.
type Observer interface {
	OnSnapshot(s *Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s *Snapshot)

// OnSnapshot calls f(s).
func (f ObserverFunc) OnSnapshot(s *Snapshot) { f(s) }

// Coordinator owns the published layout state of one view. It is safe for
// concurrent use.
type Coordinator struct {
	logger  *log.Logger
	seq     atomic.Uint64
	current atomic.Pointer[Snapshot]
	wg      sync.WaitGroup

	mu        sync.Mutex // guards publication, selected and observers
	selected  string
	observers []Observer
}

// NewCoordinator creates a coordinator with no published snapshot.
// A nil logger discards output.
func NewCoordinator(logger *log.Logger, observers ...Observer) *Coordinator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Coordinator{logger: logger, observers: observers}
}

// Subscribe adds an observer. It does not receive the current snapshot.
func (c *Coordinator) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Current returns the published snapshot, or nil before the first publish.
func (c *Coordinator) Current() *Snapshot {
	return c.current.Load()
}

// Pending tracks one submitted recompute.
type Pending struct {
	// Seq is the request sequence number assigned at submission.
	Seq uint64

	done      chan struct{}
	snap      *Snapshot
	published bool
	err       error
}

// Done is closed when the computation has finished and publication has been
// decided.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the computation finishes or ctx is done. It returns the
// computed snapshot and whether it was published; a snapshot that lost to a
// later request is returned with published == false.
func (p *Pending) Wait(ctx context.Context) (*Snapshot, bool, error) {
	select {
	case <-p.done:
		return p.snap, p.published, p.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Submit starts a recompute on its own goroutine and returns immediately.
// The request sequence is taken at submission, so a later Submit always
// supersedes an earlier one once both complete.
func (c *Coordinator) Submit(ctx context.Context, elements []world.Element, rels []world.Relationship, req Request) *Pending {
	p := &Pending{Seq: c.seq.Add(1), done: make(chan struct{})}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(p.done)

		observability.Layout().OnLayoutStart(ctx, req.Strategy.String(), len(elements))
		snap, err := Recompute(ctx, elements, rels, req)
		if err != nil {
			observability.Layout().OnLayoutComplete(ctx, req.Strategy.String(), 0, 0, 0, err)
			c.logger.Warn("recompute failed", "seq", p.Seq, "strategy", req.Strategy, "err", err)
			p.err = err
			return
		}
		observability.Layout().OnLayoutComplete(ctx, req.Strategy.String(), len(snap.Nodes), len(snap.Edges), snap.Duration, nil)

		snap.Seq = p.Seq
		p.snap, p.published = c.publish(ctx, snap)
	}()
	return p
}

// Recompute submits a request and waits for it.
func (c *Coordinator) Recompute(ctx context.Context, elements []world.Element, rels []world.Relationship, req Request) (*Snapshot, bool, error) {
	return c.Submit(ctx, elements, rels, req).Wait(ctx)
}

// Select moves the selection on the published snapshot and republishes it
// under the same sequence number. The selection also carries over to later
// snapshots that contain the node. Select returns nil if nothing has been
// published yet.
func (c *Coordinator) Select(id string) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = id
	cur := c.current.Load()
	if cur == nil {
		return nil
	}
	return c.reselect(cur, id)
}

// SelectIfCurrent is Select restricted to the snapshot published under seq.
// If another snapshot has been published since, nothing changes and it
// reports false.
func (c *Coordinator) SelectIfCurrent(seq uint64, id string) (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.current.Load()
	if cur == nil || cur.Seq != seq {
		return nil, false
	}
	c.selected = id
	return c.reselect(cur, id), true
}

// reselect publishes cur with the selection moved to id. c.mu must be held.
func (c *Coordinator) reselect(cur *Snapshot, id string) *Snapshot {
	next := cur.Select(id)
	c.current.Store(next)
	c.notify(next)
	return next
}

// Wait blocks until every submitted recompute has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) publish(ctx context.Context, snap *Snapshot) (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur := c.current.Load(); cur != nil && cur.Seq >= snap.Seq {
		observability.Layout().OnSnapshotStale(ctx, snap.Seq)
		c.logger.Debug("discarded stale layout", "seq", snap.Seq, "published", cur.Seq)
		return snap, false
	}

	if c.selected != "" {
		snap = snap.Select(c.selected)
	}
	c.current.Store(snap)
	observability.Layout().OnSnapshotPublished(ctx, snap.Seq)
	c.logger.Debug("published layout",
		"seq", snap.Seq,
		"strategy", snap.Request.Strategy,
		"nodes", len(snap.Nodes),
		"edges", len(snap.Edges),
		"duration", snap.Duration)
	c.notify(snap)
	return snap, true
}

func (c *Coordinator) notify(snap *Snapshot) {
	for _, o := range c.observers {
		o.OnSnapshot(snap)
	}
}
