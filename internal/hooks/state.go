package hooks

import "context"

// Status is the lifecycle stage of a read.
type Status string

const (
	// StatusIdle means the key is empty and nothing was requested.
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

// State is what a read hands to the presentation layer. A failed
// revalidation keeps the previous Data.
type State[T any] struct {
	Status       Status
	Data         T
	HasData      bool
	Err          error
	IsValidating bool
}

// Snapshot is a State with the data type erased, for transports that
// serialize whatever they get.
type Snapshot struct {
	Status       Status
	Data         any
	HasData      bool
	Err          error
	IsValidating bool
}

func (s State[T]) Snapshot() Snapshot {
	snap := Snapshot{Status: s.Status, HasData: s.HasData, Err: s.Err, IsValidating: s.IsValidating}
	if s.HasData {
		snap.Data = s.Data
	}
	return snap
}

// Fetcher loads the value behind a key from the resource access functions.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Subscription is the type-erased view of a Query.
type Subscription interface {
	Key() string
	Snapshot() Snapshot
	// Changes receives a value whenever the state changed. Bursts are
	// coalesced into one notification.
	Changes() <-chan struct{}
	Revalidate(ctx context.Context)
	Close()
}
