package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/metrics"
)

// Observer is told about every applied command, after the store changed.
type Observer func(ctx context.Context, cmd Command)

// Guard is told about a command before it touches the store. No Commit
// runs between a guard call and the store change it announces.
type Guard func(cmd Command)

// Adapter is the only writer of cache changes declared by mutations.
type Adapter struct {
	store Store
	log   logrus.FieldLogger

	// writeMu orders commands against Commit.
	writeMu sync.Mutex

	mu        sync.RWMutex
	guards    []Guard
	observers []Observer
}

func NewAdapter(store Store, log logrus.FieldLogger) *Adapter {
	return &Adapter{store: store, log: log.WithField("component", "CacheAdapter")}
}

// Store returns the underlying store.
func (a *Adapter) Store() Store { return a.store }

// Observe registers o for every subsequently applied command.
func (a *Adapter) Observe(o Observer) {
	a.mu.Lock()
	a.observers = append(a.observers, o)
	a.mu.Unlock()
}

// Guard registers g for every subsequently applied command.
func (a *Adapter) Guard(g Guard) {
	a.mu.Lock()
	a.guards = append(a.guards, g)
	a.mu.Unlock()
}

// Commit stores a fetched entry under key when current still holds. current
// is evaluated after every earlier command has reached the store and before
// any later one does, so a value fetched before a mutation is never written
// over it.
func (a *Adapter) Commit(ctx context.Context, key string, entry Entry, current func() bool) (bool, error) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	if !current() {
		return false, nil
	}
	if err := a.store.Set(ctx, key, entry); err != nil {
		return false, err
	}
	return true, nil
}

// Apply interprets cmds in order. A failing command does not stop the
// remaining ones; all failures are returned joined.
func (a *Adapter) Apply(ctx context.Context, cmds ...Command) error {
	var errs []error
	for _, cmd := range cmds {
		if cmd.Key == "" {
			continue
		}
		a.writeMu.Lock()
		a.guard(cmd)
		err := a.apply(ctx, cmd)
		a.writeMu.Unlock()
		if err != nil {
			a.log.WithError(err).WithField("command", cmd.String()).Error("cache command failed")
			errs = append(errs, err)
		}
		metrics.RecordCacheCommand(string(cmd.Action))
		a.notify(ctx, cmd)
	}
	return errors.Join(errs...)
}

func (a *Adapter) apply(ctx context.Context, cmd Command) error {
	keys := []string{cmd.Key}
	if cmd.Prefix {
		var err error
		if keys, err = a.store.Keys(ctx, cmd.Key); err != nil {
			return err
		}
	}

	var entry Entry
	if cmd.Action == ActionReplace {
		var err error
		if entry, err = NewEntry(cmd.Value); err != nil {
			return err
		}
	}

	for _, key := range keys {
		var err error
		switch cmd.Action {
		case ActionReplace:
			err = a.store.Set(ctx, key, entry)
		case ActionInvalidate:
			err = a.markStale(ctx, key)
		case ActionPurge:
			err = a.store.Delete(ctx, key)
		default:
			err = errors.New("unknown cache action " + string(cmd.Action))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) markStale(ctx context.Context, key string) error {
	entry, ok, err := a.store.Get(ctx, key)
	if err != nil || !ok {
		return err
	}
	entry.Stale = true
	return a.store.Set(ctx, key, entry)
}

func (a *Adapter) guard(cmd Command) {
	a.mu.RLock()
	guards := append([]Guard(nil), a.guards...)
	a.mu.RUnlock()
	for _, g := range guards {
		g(cmd)
	}
}

func (a *Adapter) notify(ctx context.Context, cmd Command) {
	a.mu.RLock()
	observers := append([]Observer(nil), a.observers...)
	a.mu.RUnlock()
	for _, o := range observers {
		o(ctx, cmd)
	}
}
