package state

import (
	"context"

	flowcore "github.com/flowcore/sdk-go"
	internalrand "github.com/flowcore/sdk-go/internal/rand"

	"github.com/rs/zerolog"
)

// Context is the concrete flowcore.Context handed to every handler
// invocation. Every exported method either consumes the next replay
// entry or appends a new live one via journalAdvance, and (for
// completable entries) blocks on the returned channel.
type Context struct {
	context.Context
	m *Machine
}

func newContext(m *Machine) *Context {
	return &Context{Context: m.suspensionCtx, m: m}
}

var _ flowcore.Context = (*Context)(nil)

func (c *Context) Key() string { return c.m.key }

// Log returns a logger tagged with the service/handler/invocation id.
// While the journal is replaying, the same calls already produced
// output the first time the handler ran this far, so they are
// silenced to avoid duplicate log lines on every replay.
func (c *Context) Log() *zerolog.Logger {
	if c.m.journal.IsReplaying() {
		l := c.m.log.Level(zerolog.Disabled)
		return &l
	}
	return &c.m.log
}

// Rand returns the deterministic random source seeded from the
// invocation id. It is safe to call during replay (it reproduces the
// same sequence) but forbidden inside a side effect closure, where
// calls are not guaranteed to happen the same number of times on
// retry.
func (c *Context) Rand() flowcore.Rand {
	c.checkNotInSideEffect("rand")
	return randFacade{c.m.rnd}
}

func (c *Context) checkNotInSideEffect(op string) {
	if c.m.insideSideEffect {
		panic(&forbiddenOperation{message: "You cannot do " + op + " calls from within a side effect."})
	}
}

// randFacade adapts internal/rand.Rand (whose UUID method returns the
// google/uuid named type) to the flowcore.Rand interface (which
// deliberately returns a plain [16]byte so callers are not forced to
// import google/uuid just to read Context.Rand().UUID()).
type randFacade struct {
	r *internalrand.Rand
}

func (f randFacade) Uint64() uint64   { return f.r.Uint64() }
func (f randFacade) Float64() float64 { return f.r.Float64() }
func (f randFacade) UUID() [16]byte   { return [16]byte(f.r.UUID()) }
