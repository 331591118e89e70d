package flowcore

import (
	"context"
	"time"

	"github.com/flowcore/sdk-go/internal/futures"
	"github.com/rs/zerolog"
)

// Context is the façade user handler code is given. Every method either
// replays a prior journal entry or appends a new one and, for
// completable entries, blocks (cooperatively) until a matching
// Completion arrives.
type Context interface {
	context.Context

	// Key returns the object key this invocation is keyed on, or "" for
	// an unkeyed (stateless) service handler.
	Key() string

	// Log returns a logger tagged with the service name and invocation
	// id. Entries written while the journal is replaying are dropped.
	Log() *zerolog.Logger

	// Rand returns a deterministic random source seeded from the
	// invocation id. Calling it from within a side effect is forbidden.
	Rand() Rand

	Get(key string) ([]byte, error)
	Set(key string, value []byte)
	Clear(key string)
	ClearAll()
	Keys() ([]string, error)

	Sleep(d time.Duration)
	After(d time.Duration) After

	Service(service string) ServiceClient
	ServiceSend(service string, delay time.Duration) ServiceSendClient
	Object(service, key string) ServiceClient
	ObjectSend(service, key string, delay time.Duration) ServiceSendClient

	// Run executes fn durably: its first successful result (or terminal
	// failure) is journaled, and replay returns that journaled result
	// without re-running fn. If a RetryPolicy is given, non-terminal
	// errors are retried with a journaled Sleep between attempts.
	Run(fn func() ([]byte, error), policy ...RetryPolicy) ([]byte, error)

	Awakeable() Awakeable[[]byte]
	ResolveAwakeable(id string, value []byte)
	RejectAwakeable(id string, reason error)

	// Selector builds a combineable-promise aggregator over futs, whose
	// registration order is the order the corresponding ops were
	// issued. See the All/Race/Any/AllSettled helpers in package
	// futures, and OrTimeout below.
	Selector(futs ...futures.Selectable) (Selector, error)

	// OrTimeout races target against an auxiliary Sleep of duration d.
	// It returns nil if target resolves first (the caller then reads
	// target's own result as usual) or a futures.TimeoutError if the
	// deadline elapses first.
	OrTimeout(target futures.Selectable, d time.Duration) error
}

// ObjectContext is the Context handed to a keyed ("Object") handler;
// it is the same surface as Context, just named distinctly at the
// registration boundary so handler signatures self-document their
// HandlerKind.
type ObjectContext interface {
	Context
}

// After is the handle returned by Context.After: a Sleep registered as
// a Selectable so it can be combined with other awaitables, plus a
// blocking Done for the simple, non-combined case.
type After interface {
	futures.Selectable
	Done() error
}

// Selector is the public surface for the synthetic combinator
// aggregator; see futures.Selector for the implementation.
type Selector interface {
	Select() (futures.Selectable, error)
	Remaining() int
}

// Rand is the deterministic random source exposed on Context.
type Rand interface {
	Uint64() uint64
	Float64() float64
	UUID() [16]byte
}
