// Package portal holds the read path shared by the client portal handlers:
// per-entity loaders that expose {data, loading, error} and discard stale results.
package portal

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// User-facing messages. Details go to the log, never to the client.
const (
	MsgLoadFailed = "Não foi possível carregar os dados. Tente novamente."
	MsgNotFound   = "Registro não encontrado."
)

// ErrNotFound is returned by fetchers when the scoped record does not exist.
var ErrNotFound = errors.New("not found")

// errStale marks a result that lost the race against a newer load.
var errStale = errors.New("stale load")

// Fetcher loads the data scoped by id.
type Fetcher[T any] func(ctx context.Context, id string) (T, error)

// View is what a loader exposes to its consumer.
type View[T any] struct {
	Data     T      `json:"data"`
	Loading  bool   `json:"loading"`
	Error    string `json:"error,omitempty"`
	NotFound bool   `json:"-"`
	Stale    bool   `json:"-"`
}

// Resource loads one entity collection for a changing scope id. A new Load
// cancels the previous one, and a result is applied only while its load is
// still the latest; otherwise it is reported as stale and dropped.
type Resource[T any] struct {
	name  string
	fetch Fetcher[T]
	empty func() T
	log   *zap.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	view   View[T]
}

// NewResource builds a loader. empty produces the placeholder value shown when
// there is nothing to show (nil slices would render as JSON null).
func NewResource[T any](name string, fetch Fetcher[T], empty func() T, log *zap.Logger) *Resource[T] {
	if log == nil {
		log = zap.NewNop()
	}
	if empty == nil {
		empty = func() T { var zero T; return zero }
	}
	return &Resource[T]{name: name, fetch: fetch, empty: empty, log: log, view: View[T]{Data: empty()}}
}

// Load fetches for id. An empty id short-circuits: no fetch, not loading, empty data.
// Failures are not retried.
func (r *Resource[T]) Load(ctx context.Context, id string) View[T] {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	gen := r.gen
	if id == "" {
		r.view = View[T]{Data: r.empty()}
		v := r.view
		r.mu.Unlock()
		return v
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.view = View[T]{Data: r.empty(), Loading: true}
	r.mu.Unlock()

	data, err := r.fetch(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		cancel()
		return View[T]{Data: r.empty(), Stale: true, Error: errStale.Error()}
	}
	cancel()
	r.cancel = nil

	switch {
	case err == nil:
		r.view = View[T]{Data: data}
	case errors.Is(err, ErrNotFound):
		r.view = View[T]{Data: r.empty(), Error: MsgNotFound, NotFound: true}
	default:
		r.log.Error("portal load failed", zap.String("resource", r.name), zap.String("id", id), zap.Error(err))
		r.view = View[T]{Data: r.empty(), Error: MsgLoadFailed}
	}
	return r.view
}

// Current returns the last applied view.
func (r *Resource[T]) Current() View[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// Load is a one-shot convenience for request handlers.
func Load[T any](ctx context.Context, log *zap.Logger, name, id string, fetch Fetcher[T], empty func() T) View[T] {
	return NewResource(name, fetch, empty, log).Load(ctx, id)
}

// EmptySlice is an empty-list placeholder factory.
func EmptySlice[E any]() []E { return []E{} }
