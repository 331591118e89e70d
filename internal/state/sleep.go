package state

import (
	"time"

	flowcore "github.com/flowcore/sdk-go"
	"github.com/flowcore/sdk-go/internal/futures"
	"github.com/flowcore/sdk-go/internal/wire"
)

// Sleep journals a wakeup time and blocks until the runtime delivers
// the corresponding Completion (or, on replay, until the journaled
// entry is already resolved). The wakeup time itself is not matched on
// replay: only the kind of the entry is deterministic, not the wall
// clock value computed for it.
func (c *Context) Sleep(d time.Duration) {
	_ = c.sleepFuture(d).Wait()
}

// After is the non-blocking counterpart: it issues the Sleep entry
// immediately but returns a handle that can be combined with other
// awaitables through a Selector, or waited on directly via Done.
func (c *Context) After(d time.Duration) flowcore.After {
	return afterHandle{c.sleepFuture(d)}
}

func (c *Context) sleepFuture(d time.Duration) *futures.SleepFuture {
	c.checkNotInSideEffect("sleep")

	wakeUp := uint64(time.Now().Add(d).UnixMilli())
	candidate := &wire.SleepEntryMessage{WakeUpTime: wakeUp}
	entry, index, ch := journalAdvance(c.m, candidate, func(*wire.SleepEntryMessage) bool { return true })

	return futures.NewSleepFuture(c.m.suspensionCtx, entry, index, ch)
}

// afterHandle embeds *futures.SleepFuture so it inherits its (package-
// private) Selectable implementation verbatim, and adds the Done name
// flowcore.After exposes in place of Wait.
type afterHandle struct {
	*futures.SleepFuture
}

func (a afterHandle) Done() error { return a.Wait() }
