package state

import (
	"bytes"
	"fmt"

	flowcore "github.com/flowcore/sdk-go"
	"github.com/flowcore/sdk-go/internal/wire"
)

// Get reads one state key. In complete-state mode (the common case,
// §3) the value is already known from Start's state map, so a new
// GetStateEntry is journaled already-resolved and never blocks; in
// partial-state mode it is journaled unresolved and awaits a Completion.
func (c *Context) Get(key string) ([]byte, error) {
	c.checkNotInSideEffect("get state")

	candidate := &wire.GetStateEntryMessage{Key: []byte(key)}
	if !c.m.journal.IsReplaying() && !c.m.partial {
		if v, ok := c.m.current[key]; ok {
			candidate.SetValue(v)
		} else {
			candidate.Empty = true
		}
	}

	entry, _, ch := journalAdvance(c.m, candidate, func(replayed *wire.GetStateEntryMessage) bool {
		return bytes.Equal(replayed.Key, []byte(key))
	})

	<-ch
	if entry.Failure != nil {
		return nil, flowcore.TerminalError(fmt.Errorf("%s", entry.Failure.Message), entry.Failure.Code)
	}
	if entry.Empty {
		return nil, flowcore.ErrKeyNotFound
	}
	return entry.Value, nil
}

// Set journals a new value for key. It is completed-on-append: the
// local eager-state cache is updated immediately so, in complete-state
// mode, a subsequent Get in the same invocation observes it without a
// round trip. In partial-state mode Get always awaits a Completion.
func (c *Context) Set(key string, value []byte) {
	c.checkNotInSideEffect("set state")
	candidate := &wire.SetStateEntryMessage{Key: []byte(key), Value: value}
	journalAdvance(c.m, candidate, func(replayed *wire.SetStateEntryMessage) bool {
		return bytes.Equal(replayed.Key, []byte(key)) && bytes.Equal(replayed.Value, value)
	})
	c.m.current[key] = value
}

func (c *Context) Clear(key string) {
	c.checkNotInSideEffect("clear state")
	candidate := &wire.ClearStateEntryMessage{Key: []byte(key)}
	journalAdvance(c.m, candidate, func(replayed *wire.ClearStateEntryMessage) bool {
		return bytes.Equal(replayed.Key, []byte(key))
	})
	delete(c.m.current, key)
}

func (c *Context) ClearAll() {
	c.checkNotInSideEffect("clear all state")
	journalAdvance(c.m, &wire.ClearAllStateEntryMessage{}, func(*wire.ClearAllStateEntryMessage) bool { return true })
	c.m.current = map[string][]byte{}
}

// Keys lists every key known for this invocation. In complete-state
// mode this is answered locally from the eager map without a round
// trip; in partial-state mode it always awaits a Completion, since the
// local map may not be exhaustive.
func (c *Context) Keys() ([]string, error) {
	c.checkNotInSideEffect("get state keys")

	candidate := &wire.GetStateKeysEntryMessage{}
	if !c.m.journal.IsReplaying() && !c.m.partial {
		keys := make([][]byte, 0, len(c.m.current))
		for k := range c.m.current {
			keys = append(keys, []byte(k))
		}
		candidate.Keys = keys
		candidate.SetValue(nil)
	}

	entry, _, ch := journalAdvance(c.m, candidate, func(*wire.GetStateKeysEntryMessage) bool { return true })
	<-ch
	if entry.Failure != nil {
		return nil, flowcore.TerminalError(fmt.Errorf("%s", entry.Failure.Message), entry.Failure.Code)
	}
	out := make([]string, len(entry.Keys))
	for i, k := range entry.Keys {
		out[i] = string(k)
	}
	return out, nil
}
