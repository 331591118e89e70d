package state

import (
	"encoding/binary"

	flowcore "github.com/flowcore/sdk-go"
	"github.com/flowcore/sdk-go/internal/futures"
	"github.com/flowcore/sdk-go/internal/wire"

	"github.com/mr-tron/base58"
)

var _ flowcore.Awakeable[[]byte] = (*awakeable)(nil)

// awakeable wraps an AwakeableFuture with the externally-addressable
// id a peer calling ResolveAwakeable/RejectAwakeable needs.
type awakeable struct {
	id string
	f  *futures.AwakeableFuture
}

func (a *awakeable) Id() string { return a.id }

func (a *awakeable) Result() ([]byte, error) {
	return a.f.Result()
}

// Awakeable journals a new AwakeableEntry and derives its externally
// visible id from the invocation id and the entry's journal index, the
// same way the entry itself is addressed internally: base58(invocation
// id || big-endian index), prefixed so a peer can recognise it.
func (c *Context) Awakeable() flowcore.Awakeable[[]byte] {
	c.checkNotInSideEffect("awakeable")

	candidate := &wire.AwakeableEntryMessage{}
	entry, index, ch := journalAdvance(c.m, candidate, func(*wire.AwakeableEntryMessage) bool { return true })

	id := awakeableID(c.m.id, index)
	return &awakeable{id: id, f: futures.NewAwakeableFuture(c.m.suspensionCtx, entry, index, ch)}
}

func awakeableID(invocationID []byte, index uint32) string {
	buf := make([]byte, len(invocationID)+4)
	copy(buf, invocationID)
	binary.BigEndian.PutUint32(buf[len(invocationID):], index)
	return "prom_1" + base58.Encode(buf)
}

// ResolveAwakeable completes the awakeable addressed by id with value.
// It is completed-on-append and never blocks.
func (c *Context) ResolveAwakeable(id string, value []byte) {
	c.checkNotInSideEffect("resolve awakeable")
	candidate := &wire.CompleteAwakeableEntryMessage{Id: id, Resolve: true, Value: value}
	journalAdvance(c.m, candidate, func(replayed *wire.CompleteAwakeableEntryMessage) bool {
		return replayed.Id == id && replayed.Resolve
	})
}

// RejectAwakeable fails the awakeable addressed by id with reason.
func (c *Context) RejectAwakeable(id string, reason error) {
	c.checkNotInSideEffect("reject awakeable")
	candidate := &wire.CompleteAwakeableEntryMessage{
		Id:      id,
		Failure: &wire.Failure{Code: flowcore.ErrorCode(reason), Message: reason.Error()},
	}
	journalAdvance(c.m, candidate, func(replayed *wire.CompleteAwakeableEntryMessage) bool {
		return replayed.Id == id && !replayed.Resolve
	})
}
