package hooks

import (
	"context"
	"sync"

	"github.com/pageza/chef-next-door/backend/internal/cache"
	"github.com/pageza/chef-next-door/backend/internal/metrics"
)

// Query is a long-lived read. It refetches when a mutation invalidates its
// key, when connectivity returns and when asked to, and takes replaced
// values straight from mutations.
type Query[T any] struct {
	client  *Client
	ctx     context.Context
	changes chan struct{}

	mu     sync.Mutex
	key    string
	fetch  Fetcher[T]
	state  State[T]
	seq    uint64
	closed bool
}

// Subscribe starts a query on key. Background fetches run under ctx.
func Subscribe[T any](ctx context.Context, c *Client, key string, fetch Fetcher[T]) *Query[T] {
	q := &Query[T]{
		client:  c,
		ctx:     ctx,
		changes: make(chan struct{}, 1),
	}
	c.register(q)
	q.SetKey(key, fetch)
	return q
}

func (q *Query[T]) Key() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.key
}

func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

func (q *Query[T]) Snapshot() Snapshot { return q.State().Snapshot() }

func (q *Query[T]) Changes() <-chan struct{} { return q.changes }

// SetKey points the query at another key. A response still in flight for
// the previous key is dropped; an empty key leaves the query idle.
func (q *Query[T]) SetKey(key string, fetch Fetcher[T]) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.seq++
	seq := q.seq
	q.key, q.fetch = key, fetch
	if key == "" {
		q.state = State[T]{Status: StatusIdle}
	} else {
		q.state = State[T]{Status: StatusLoading, IsValidating: true}
	}
	q.mu.Unlock()
	q.notify()

	if key == "" {
		metrics.RecordCacheRead("none", "suspended")
		return
	}
	go q.load(q.ctx, seq, modeMount)
}

// Revalidate refetches the current key, bypassing the cache, and returns
// once the state was updated.
func (q *Query[T]) Revalidate(ctx context.Context) {
	q.revalidate(ctx, modeForce)
}

// Close detaches the query. Late responses are discarded.
func (q *Query[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.seq++
	q.mu.Unlock()
	q.client.unregister(q)
}

func (q *Query[T]) revalidate(ctx context.Context, m mode) {
	q.mu.Lock()
	seq, closed := q.seq, q.closed
	q.mu.Unlock()
	if !closed {
		q.load(ctx, seq, m)
	}
}

// onCommand supersedes any fetch in flight: its result predates the
// mutation.
func (q *Query[T]) onCommand(cmd cache.Command) {
	var (
		value    T
		replaced bool
	)
	if cmd.Action == cache.ActionReplace {
		value, replaced = convert[T](cmd.Value)
	}

	q.mu.Lock()
	if q.closed || !matches(cmd, q.key) {
		q.mu.Unlock()
		return
	}
	q.seq++
	seq := q.seq
	if replaced {
		q.state = State[T]{Status: StatusSuccess, Data: value, HasData: true}
		q.mu.Unlock()
		q.notify()
		return
	}
	q.mu.Unlock()

	m := modeTrigger
	if cmd.Action == cache.ActionReplace {
		m = modeForce
	}
	go q.load(q.ctx, seq, m)
}

// load resolves the key current at seq and publishes the outcome unless
// the key changed meanwhile.
func (q *Query[T]) load(ctx context.Context, seq uint64, m mode) {
	q.mu.Lock()
	if q.closed || q.seq != seq || q.key == "" {
		q.mu.Unlock()
		return
	}
	key, fetch := q.key, q.fetch
	q.state.IsValidating = true
	if !q.state.HasData {
		q.state.Status = StatusLoading
	}
	q.mu.Unlock()
	q.notify()

	c := q.client
	ns := cache.Namespace(key)
	result := "miss"
	if entry, ok := c.lookup(ctx, key); ok {
		if cached, ok := decode[T](entry); ok {
			if c.fresh(entry, m) {
				metrics.RecordCacheRead(ns, "hit")
				q.finish(seq, cached, nil)
				return
			}
			result = "stale"
			q.show(seq, cached)
		}
	}
	metrics.RecordCacheRead(ns, result)

	value, err := fetchTyped(ctx, c, key, fetch)
	q.finish(seq, value, err)
}

// show publishes cached data while a refetch is running.
func (q *Query[T]) show(seq uint64, data T) {
	q.mu.Lock()
	if q.closed || q.seq != seq || q.state.HasData {
		q.mu.Unlock()
		return
	}
	q.state.Data, q.state.HasData = data, true
	q.mu.Unlock()
	q.notify()
}

func (q *Query[T]) finish(seq uint64, data T, err error) {
	q.mu.Lock()
	if q.closed || q.seq != seq {
		q.mu.Unlock()
		return
	}
	if err != nil {
		q.state.Status = StatusError
		q.state.Err = err
	} else {
		q.state.Status = StatusSuccess
		q.state.Data, q.state.HasData = data, true
		q.state.Err = nil
	}
	q.state.IsValidating = false
	q.mu.Unlock()
	q.notify()
}

func (q *Query[T]) notify() {
	select {
	case q.changes <- struct{}{}:
	default:
	}
}
