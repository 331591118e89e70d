package state

import (
	"fmt"

	flowcore "github.com/flowcore/sdk-go"
	"github.com/flowcore/sdk-go/internal/wire"
)

// Run executes fn durably. Only the live path ever calls fn: replay
// walks past any durable backoff Sleep entries journaled by earlier
// retries and then consumes the final RunEntry directly, returning its
// journaled result without invoking fn at all (it is presumed
// non-deterministic and/or side-effecting).
//
// A non-terminal error from fn is retried, with a journaled Sleep
// between attempts so the backoff survives a crash/replay; a terminal
// error (or a non-terminal one with no retries left) is journaled as
// the Run's final failure and returned to the caller to handle like
// any other error.
func (c *Context) Run(fn func() ([]byte, error), policy ...flowcore.RetryPolicy) ([]byte, error) {
	c.checkNotInSideEffect("run")
	m := c.m

	p := flowcore.DefaultRetryPolicy
	if len(policy) > 0 {
		p = policy[0]
	}

	for attempt := uint(0); ; attempt++ {
		if typ, ok := m.journal.PeekNextType(); ok && typ == wire.SleepEntryMessageType {
			journalAdvance(m, &wire.SleepEntryMessage{}, func(*wire.SleepEntryMessage) bool { return true })
			continue
		}

		if m.journal.IsReplaying() {
			entry, _, ch := journalAdvance(m, &wire.RunEntryMessage{}, func(*wire.RunEntryMessage) bool { return true })
			<-ch
			return runResult(entry)
		}

		m.insideSideEffect = true
		value, runErr := fn()
		m.insideSideEffect = false

		if runErr == nil || flowcore.IsTerminalError(runErr) || attempt >= p.MaxRetries {
			candidate := &wire.RunEntryMessage{}
			switch {
			case runErr != nil && m.mode == flowcore.RequestResponse:
				candidate.SetFailure(flowcore.ErrorCode(runErr), runErr.Error())
			case runErr != nil:
				candidate.Failure = &wire.Failure{Code: flowcore.ErrorCode(runErr), Message: runErr.Error()}
			case m.mode == flowcore.RequestResponse:
				candidate.SetValue(value)
			default:
				candidate.Value = value
			}

			entry, _, ch := journalAdvance(m, candidate, func(*wire.RunEntryMessage) bool { return true })
			<-ch
			return runResult(entry)
		}

		c.Sleep(p.delay(attempt))
	}
}

func runResult(entry *wire.RunEntryMessage) ([]byte, error) {
	if entry.Failure != nil {
		return nil, flowcore.TerminalError(fmt.Errorf("%s", entry.Failure.Message), entry.Failure.Code)
	}
	return entry.Value, nil
}
