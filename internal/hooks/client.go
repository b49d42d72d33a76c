package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/cache"
	"github.com/pageza/chef-next-door/backend/internal/metrics"
)

// ErrorHandler is called for every read that finally failed.
type ErrorHandler func(key string, err error)

// mode says how much a cached entry is trusted.
type mode int

const (
	// modeMount honours RevalidateOnMount.
	modeMount mode = iota
	// modeTrigger serves entries younger than the dedupe interval.
	modeTrigger
	// modeForce always asks the backend.
	modeForce
)

type subscriber interface {
	Key() string
	onCommand(cmd cache.Command)
	revalidate(ctx context.Context, m mode)
}

// Client runs reads for every session of the service over one shared
// cache.
type Client struct {
	adapter *cache.Adapter
	store   cache.Store
	policy  Policy
	log     logrus.FieldLogger
	now     func() time.Time

	group singleflight.Group

	mu          sync.Mutex
	keyGens     map[string]uint64
	prefixGens  map[string]uint64
	subs        map[subscriber]struct{}
	errHandlers []ErrorHandler
}

func NewClient(adapter *cache.Adapter, policy Policy, log logrus.FieldLogger) *Client {
	c := &Client{
		adapter:    adapter,
		store:      adapter.Store(),
		policy:     policy,
		log:        log.WithField("component", "ReadHooks"),
		now:        time.Now,
		keyGens:    make(map[string]uint64),
		prefixGens: make(map[string]uint64),
		subs:       make(map[subscriber]struct{}),
	}
	adapter.Guard(c.bump)
	adapter.Observe(c.observe)
	return c
}

func (c *Client) Policy() Policy { return c.policy }

// Apply hands cmds to the cache adapter. Subscriptions on the touched keys
// are updated or revalidated.
func (c *Client) Apply(ctx context.Context, cmds ...cache.Command) error {
	return c.adapter.Apply(ctx, cmds...)
}

// OnError registers a global handler for failed reads. A NotAuthenticated
// error reaching it means the caller has to sign in again; the transport
// turns that into the login redirect when it renders the error.
func (c *Client) OnError(h ErrorHandler) {
	c.mu.Lock()
	c.errHandlers = append(c.errHandlers, h)
	c.mu.Unlock()
}

// CountFailures is an ErrorHandler feeding the read failure metric.
func CountFailures(key string, err error) {
	metrics.RecordReadFailure(cache.Namespace(key), string(apperr.KindOf(err)))
}

// Reconnect revalidates every subscription after connectivity came back.
// It returns the number of subscriptions revalidated.
func (c *Client) Reconnect(ctx context.Context) int {
	if !c.policy.RevalidateOnReconnect {
		return 0
	}
	return c.revalidateAll(ctx)
}

// Focus revalidates every subscription when the user returns to the app.
func (c *Client) Focus(ctx context.Context) int {
	if !c.policy.RevalidateOnFocus {
		return 0
	}
	return c.revalidateAll(ctx)
}

func (c *Client) revalidateAll(ctx context.Context) int {
	subs := c.subscribers()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, s := range subs {
		if s.Key() == "" {
			continue
		}
		g.Go(func() error {
			s.revalidate(gctx, modeTrigger)
			return nil
		})
	}
	_ = g.Wait()
	return len(subs)
}

func (c *Client) register(s subscriber) {
	c.mu.Lock()
	c.subs[s] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) unregister(s subscriber) {
	c.mu.Lock()
	delete(c.subs, s)
	c.mu.Unlock()
}

func (c *Client) subscribers() []subscriber {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := make([]subscriber, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	return subs
}

// bump runs before the adapter applies cmd, so fetches already in flight
// for the touched keys can no longer commit.
func (c *Client) bump(cmd cache.Command) {
	c.mu.Lock()
	if cmd.Prefix {
		c.prefixGens[cmd.Key]++
	} else {
		c.keyGens[cmd.Key]++
	}
	c.mu.Unlock()
}

// observe runs after the adapter applied cmd.
func (c *Client) observe(_ context.Context, cmd cache.Command) {
	for _, s := range c.subscribers() {
		if matches(cmd, s.Key()) {
			s.onCommand(cmd)
		}
	}
}

func matches(cmd cache.Command, key string) bool {
	if key == "" {
		return false
	}
	if cmd.Prefix {
		return strings.HasPrefix(key, cmd.Key)
	}
	return key == cmd.Key
}

// generation changes whenever a command touches key.
func (c *Client) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.keyGens[key]
	for prefix, n := range c.prefixGens {
		if strings.HasPrefix(key, prefix) {
			gen += n
		}
	}
	return gen
}

func (c *Client) reportError(key string, err error) {
	c.log.WithError(err).WithFields(logrus.Fields{
		"key":  key,
		"kind": apperr.KindOf(err),
	}).Error("read failed")

	c.mu.Lock()
	handlers := append([]ErrorHandler(nil), c.errHandlers...)
	c.mu.Unlock()
	for _, h := range handlers {
		h(key, err)
	}
}

func (c *Client) lookup(ctx context.Context, key string) (cache.Entry, bool) {
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache lookup failed")
		return cache.Entry{}, false
	}
	return entry, ok
}

func (c *Client) fresh(entry cache.Entry, m mode) bool {
	switch {
	case entry.Stale, m == modeForce:
		return false
	case m == modeMount && !c.policy.RevalidateOnMount:
		return true
	default:
		return entry.Age(c.now()) < c.policy.DedupeInterval
	}
}

// fetch collapses concurrent fetches of key into one call of fn. Calls
// started after a command touched key never join an older fetch.
func (c *Client) fetch(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	gen := c.generation(key)
	v, err, _ := c.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		// The shared fetch must not die with whichever caller came first.
		return c.fetchOnce(context.WithoutCancel(ctx), key, gen, fn)
	})
	return v, err
}

func (c *Client) fetchOnce(ctx context.Context, key string, gen uint64, fn func(context.Context) (any, error)) (any, error) {
	ns := cache.Namespace(key)
	log := c.log.WithField("key", key)

	var value any
	attempt := 0
	op := func() error {
		v, err := fn(ctx)
		if err != nil {
			retry := c.policy.Retry.ShouldRetry(err, attempt)
			attempt++
			if !retry {
				return backoff.Permanent(err)
			}
			return err
		}
		value = v
		return nil
	}
	notify := func(err error, wait time.Duration) {
		metrics.RecordFetchRetry(ns)
		log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "wait": wait}).Warn("fetch failed, retrying")
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(c.policy.Retry.backOff(), ctx), notify); err != nil {
		metrics.RecordFetch(ns, "error")
		c.reportError(key, err)
		return nil, err
	}

	entry, err := cache.NewEntry(value)
	if err != nil {
		log.WithError(err).Warn("failed to encode fetch result")
		metrics.RecordFetch(ns, "ok")
		return value, nil
	}
	stored, err := c.adapter.Commit(ctx, key, entry, func() bool { return c.generation(key) == gen })
	switch {
	case err != nil:
		log.WithError(err).Warn("failed to cache fetch result")
	case !stored:
		metrics.RecordFetch(ns, "superseded")
		log.Debug("fetch overtaken by a cache command, result not cached")
		return value, nil
	}
	metrics.RecordFetch(ns, "ok")
	return value, nil
}

func fetchTyped[T any](ctx context.Context, c *Client, key string, fetch Fetcher[T]) (T, error) {
	var zero T
	v, err := c.fetch(ctx, key, func(ctx context.Context) (any, error) { return fetch(ctx) })
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, apperr.Backend("read", fmt.Errorf("key %s holds %T", key, v))
	}
	return typed, nil
}

func decode[T any](entry cache.Entry) (T, bool) {
	var v T
	if err := json.Unmarshal(entry.Data, &v); err != nil {
		return v, false
	}
	return v, true
}

// convert turns a command value into T, going through JSON when the
// mutation declared a different but compatible type.
func convert[T any](value any) (T, bool) {
	if v, ok := value.(T); ok {
		return v, true
	}
	entry, err := cache.NewEntry(value)
	if err != nil {
		var zero T
		return zero, false
	}
	return decode[T](entry)
}

// Read performs a one-shot read of key. An empty key suspends the read: no
// fetch happens and the state is idle.
func Read[T any](ctx context.Context, c *Client, key string, fetch Fetcher[T]) State[T] {
	if key == "" {
		metrics.RecordCacheRead("none", "suspended")
		return State[T]{Status: StatusIdle}
	}
	ns := cache.Namespace(key)

	var cached T
	hasCached := false
	if entry, ok := c.lookup(ctx, key); ok {
		if cached, hasCached = decode[T](entry); hasCached && c.fresh(entry, modeMount) {
			metrics.RecordCacheRead(ns, "hit")
			return State[T]{Status: StatusSuccess, Data: cached, HasData: true}
		}
	}
	if hasCached {
		metrics.RecordCacheRead(ns, "stale")
	} else {
		metrics.RecordCacheRead(ns, "miss")
	}

	value, err := fetchTyped(ctx, c, key, fetch)
	if err != nil {
		st := State[T]{Status: StatusError, Err: err}
		if hasCached {
			st.Data, st.HasData = cached, true
		}
		return st
	}
	return State[T]{Status: StatusSuccess, Data: value, HasData: true}
}
