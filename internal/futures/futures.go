// Package futures implements the tagged future type the Context hands
// back from any operation that may need to await a runtime Completion.
// Every future carries the journal index it resolves against, so the
// Selector (combineable promise) machinery can reason about indices
// without reopening the journal.
package futures

import (
	"context"
	stderrors "errors"

	"github.com/flowcore/sdk-go/internal/errors"
	"github.com/flowcore/sdk-go/internal/wire"
)

// Selectable is anything that can be registered with a Selector: it
// exposes the journal index it resolves against and a channel-like
// "done" signal the selector can poll or wait on.
type Selectable interface {
	Index() uint32
	done() <-chan struct{}
}

// ResponseFuture is returned by a request/response RPC call. Response
// blocks (cooperatively, respecting ctx cancellation) until the
// CallEntryMessage at Index() is completed.
type ResponseFuture struct {
	ctx   context.Context
	entry *wire.CallEntryMessage
	index uint32
	ch    chan struct{}
	err   error
}

var _ Selectable = (*ResponseFuture)(nil)

// NewResponseFuture ties a ResponseFuture to the completable entry just
// appended (or replayed) at index. ch is closed by the journal when the
// entry transitions out of NotReady.
func NewResponseFuture(ctx context.Context, entry *wire.CallEntryMessage, index uint32, ch chan struct{}) *ResponseFuture {
	return &ResponseFuture{ctx: ctx, entry: entry, index: index, ch: ch}
}

// NewFailedResponseFuture wraps a synchronous error (e.g. marshalling
// the request failed) as an already-resolved future.
func NewFailedResponseFuture(err error) *ResponseFuture {
	ch := make(chan struct{})
	close(ch)
	return &ResponseFuture{err: err, ch: ch}
}

func (f *ResponseFuture) Index() uint32          { return f.index }
func (f *ResponseFuture) done() <-chan struct{}  { return f.ch }

// Response blocks until the call completes and returns its response
// bytes or its terminal failure. If no more completions can arrive, it
// panics with *wire.SuspensionPanic instead of returning, so the
// invocation boundary can distinguish a clean suspend from a fatal
// transport error.
func (f *ResponseFuture) Response() ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	select {
	case <-f.ch:
	case <-f.ctx.Done():
		panic(&wire.SuspensionPanic{Err: context.Cause(f.ctx), EntryIndexes: []uint32{f.index}})
	}
	if f.entry.Failure != nil {
		return nil, stderrors.New(f.entry.Failure.Message)
	}
	return f.entry.Value, nil
}

// AwakeableFuture resolves when a matching ResolveAwakeable/
// RejectAwakeable completion arrives.
type AwakeableFuture struct {
	ctx   context.Context
	entry *wire.AwakeableEntryMessage
	index uint32
	ch    chan struct{}
}

var _ Selectable = (*AwakeableFuture)(nil)

func NewAwakeableFuture(ctx context.Context, entry *wire.AwakeableEntryMessage, index uint32, ch chan struct{}) *AwakeableFuture {
	return &AwakeableFuture{ctx: ctx, entry: entry, index: index, ch: ch}
}

func (f *AwakeableFuture) Index() uint32         { return f.index }
func (f *AwakeableFuture) done() <-chan struct{} { return f.ch }

func (f *AwakeableFuture) Result() ([]byte, error) {
	select {
	case <-f.ch:
	case <-f.ctx.Done():
		panic(&wire.SuspensionPanic{Err: context.Cause(f.ctx), EntryIndexes: []uint32{f.index}})
	}
	if f.entry.Failure != nil {
		return nil, stderrors.New(f.entry.Failure.Message)
	}
	return f.entry.Value, nil
}

// SleepFuture resolves when the Sleep entry's wakeup completion
// arrives; it carries no payload.
type SleepFuture struct {
	ctx   context.Context
	entry *wire.SleepEntryMessage
	index uint32
	ch    chan struct{}
}

var _ Selectable = (*SleepFuture)(nil)

func NewSleepFuture(ctx context.Context, entry *wire.SleepEntryMessage, index uint32, ch chan struct{}) *SleepFuture {
	return &SleepFuture{ctx: ctx, entry: entry, index: index, ch: ch}
}

func (f *SleepFuture) Index() uint32         { return f.index }
func (f *SleepFuture) done() <-chan struct{} { return f.ch }

func (f *SleepFuture) Wait() error {
	select {
	case <-f.ch:
	case <-f.ctx.Done():
		panic(&wire.SuspensionPanic{Err: context.Cause(f.ctx), EntryIndexes: []uint32{f.index}})
	}
	if f.entry.Failure != nil {
		return stderrors.New(f.entry.Failure.Message)
	}
	return nil
}

// RunFuture resolves when the side effect's RunEntry has been
// acknowledged (bidirectional mode only; request-response mode never
// constructs one since the entry is completed synchronously).
type RunFuture struct {
	ctx   context.Context
	index uint32
	ch    chan struct{}
}

var _ Selectable = (*RunFuture)(nil)

func NewRunFuture(ctx context.Context, index uint32, ch chan struct{}) *RunFuture {
	return &RunFuture{ctx: ctx, index: index, ch: ch}
}

func (f *RunFuture) Index() uint32         { return f.index }
func (f *RunFuture) done() <-chan struct{} { return f.ch }

func (f *RunFuture) Wait() error {
	select {
	case <-f.ch:
		return nil
	case <-f.ctx.Done():
		panic(&wire.SuspensionPanic{Err: context.Cause(f.ctx), EntryIndexes: []uint32{f.index}})
	}
}

// TimeoutError is returned by OrTimeout when the auxiliary sleep fires
// before the wrapped Selectable resolves.
type TimeoutError struct{}

func (TimeoutError) Error() string { return "timeout" }

func (TimeoutError) FlowcoreErrorCode() uint32 { return uint32(errors.ErrInternal) }
