// Package hooks implements cached reads over the resource access functions:
// deduplication, revalidation on mount and reconnect, retry of failed
// fetches and long-lived subscriptions that follow cache commands.
package hooks

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pageza/chef-next-door/backend/config"
	"github.com/pageza/chef-next-door/backend/internal/apperr"
)

// RetryPolicy decides whether a failed fetch is attempted again.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// NoRetryOn lists error kinds that fail immediately.
	NoRetryOn []apperr.Kind
}

// DefaultRetryPolicy retries three times a second apart and never retries
// a missing resource or a missing session.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		NoRetryOn:  []apperr.Kind{apperr.KindNotAuthenticated, apperr.KindNotFound},
	}
}

// ShouldRetry reports whether attempt (zero based) may be followed by
// another one after err.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.MaxRetries {
		return false
	}
	return p.retryable(err)
}

func (p RetryPolicy) retryable(err error) bool {
	kind := apperr.KindOf(err)
	for _, k := range p.NoRetryOn {
		if k == kind {
			return false
		}
	}
	return true
}

func (p RetryPolicy) backOff() backoff.BackOff {
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(p.BaseDelay), uint64(retries))
}

// Policy is the revalidation behaviour shared by every read.
type Policy struct {
	RevalidateOnMount     bool
	RevalidateOnReconnect bool
	RevalidateOnFocus     bool
	// DedupeInterval is how long a fetched entry is served without
	// asking the backend again.
	DedupeInterval time.Duration
	Retry          RetryPolicy
}

func DefaultPolicy() Policy {
	return Policy{
		RevalidateOnMount:     true,
		RevalidateOnReconnect: true,
		RevalidateOnFocus:     false,
		DedupeInterval:        2 * time.Second,
		Retry:                 DefaultRetryPolicy(),
	}
}

// PolicyFromConfig applies the configured hook settings over the defaults.
func PolicyFromConfig(cfg config.HooksConfig) Policy {
	p := DefaultPolicy()
	p.RevalidateOnMount = cfg.RevalidateOnMount
	p.RevalidateOnReconnect = cfg.RevalidateOnReconnect
	p.RevalidateOnFocus = cfg.RevalidateOnFocus
	if cfg.DedupeInterval > 0 {
		p.DedupeInterval = cfg.DedupeInterval
	}
	if cfg.RetryCount >= 0 {
		p.Retry.MaxRetries = cfg.RetryCount
	}
	if cfg.RetryInterval > 0 {
		p.Retry.BaseDelay = cfg.RetryInterval
	}
	return p
}
