package state

import (
	"context"
	"net"
	"testing"
	"time"

	flowcore "github.com/flowcore/sdk-go"
	internalerrors "github.com/flowcore/sdk-go/internal/errors"
	"github.com/flowcore/sdk-go/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcHandler adapts a plain closure to flowcore.Handler for tests
// that want full control over the raw input/output bytes.
type funcHandler struct {
	kind flowcore.HandlerKind
	fn   func(ctx flowcore.Context, input []byte) ([]byte, error)
}

func (h *funcHandler) Kind() flowcore.HandlerKind { return h.kind }
func (h *funcHandler) Call(ctx flowcore.Context, input []byte) ([]byte, error) {
	return h.fn(ctx, input)
}

// startMachine wires handler to one end of an in-memory duplex
// connection and returns the other end's Protocol (playing the
// runtime's role) plus the channel Start's eventual error lands on.
func startMachine(t *testing.T, handler flowcore.Handler, mode flowcore.ProtocolMode) (*wire.Protocol, <-chan error) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() {
		serverConn.Close()
		clientConn.Close()
	})

	m := NewMachine(handler, serverConn, mode, "Greeter", "Greet")
	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background()) }()

	return wire.NewProtocol(clientConn), done
}

// TestS1SideEffectWithAck is spec §8 S1: the runtime already knows
// about the side effect's RunEntry (it arrives already-completed in
// the replay prefix), so the handler never blocks on it.
func TestS1SideEffectWithAck(t *testing.T) {
	handler := &funcHandler{fn: func(ctx flowcore.Context, input []byte) ([]byte, error) {
		name, err := ctx.Run(func() ([]byte, error) { return []byte("Francesco"), nil })
		if err != nil {
			return nil, err
		}
		return []byte("Hello " + string(name)), nil
	}}

	proto, _ := startMachine(t, handler, flowcore.BidiStream)

	require.NoError(t, proto.Write(&wire.StartMessage{Id: []byte("inv-1"), DebugId: "dbg-1", KnownEntries: 2}))
	require.NoError(t, proto.Write(&wire.InputEntryMessage{Value: []byte("Till")}))
	require.NoError(t, proto.Write(&wire.RunEntryMessage{Value: []byte("Francesco")}))

	msg, err := proto.Read()
	require.NoError(t, err)
	out, ok := msg.(*wire.OutputEntryMessage)
	require.True(t, ok, "expected OutputEntry, got %T", msg)
	assert.Equal(t, []byte("Hello Francesco"), out.Value)

	msg, err = proto.Read()
	require.NoError(t, err)
	assert.IsType(t, &wire.EndMessage{}, msg)
}

// TestS2SideEffectWithCompletion is spec §8 S2: the side effect's
// RunEntry is not in the replay prefix at all (KnownEntries=1, just
// Input), so the handler runs it live, journals it over the wire, and
// the output sequence begins with the freshly-appended RunEntry.
func TestS2SideEffectWithCompletion(t *testing.T) {
	handler := &funcHandler{fn: func(ctx flowcore.Context, input []byte) ([]byte, error) {
		name, err := ctx.Run(func() ([]byte, error) { return []byte("Francesco"), nil })
		if err != nil {
			return nil, err
		}
		return []byte("Hello " + string(name)), nil
	}}

	proto, _ := startMachine(t, handler, flowcore.BidiStream)

	require.NoError(t, proto.Write(&wire.StartMessage{Id: []byte("inv-1"), DebugId: "dbg-1", KnownEntries: 1}))
	require.NoError(t, proto.Write(&wire.InputEntryMessage{Value: []byte("Till")}))

	msg, err := proto.Read()
	require.NoError(t, err)
	run, ok := msg.(*wire.RunEntryMessage)
	require.True(t, ok, "expected RunEntry, got %T", msg)
	assert.Equal(t, []byte("Francesco"), run.Value)

	// Request-response mode's RunEntry is completed-on-append, but this
	// test runs BidiStream, so the handler is awaiting an Ack before it
	// can proceed past the RunEntry it just journaled.
	require.NoError(t, proto.Write(&wire.AckMessage{EntryIndex: 1}))

	msg, err = proto.Read()
	require.NoError(t, err)
	out, ok := msg.(*wire.OutputEntryMessage)
	require.True(t, ok, "expected OutputEntry, got %T", msg)
	assert.Equal(t, []byte("Hello Francesco"), out.Value)

	msg, err = proto.Read()
	require.NoError(t, err)
	assert.IsType(t, &wire.EndMessage{}, msg)
}

// TestS2CompletionResolvesLiveSideEffect is the literal spec §8 S2
// wire trace: the runtime resolves a live RunEntry with a Completion
// rather than an Ack. The RunEntry's value was already fixed when it
// was journaled, so the Completion only needs to unblock the handler.
func TestS2CompletionResolvesLiveSideEffect(t *testing.T) {
	handler := &funcHandler{fn: func(ctx flowcore.Context, input []byte) ([]byte, error) {
		name, err := ctx.Run(func() ([]byte, error) { return []byte("Francesco"), nil })
		if err != nil {
			return nil, err
		}
		return []byte("Hello " + string(name)), nil
	}}

	proto, _ := startMachine(t, handler, flowcore.BidiStream)

	require.NoError(t, proto.Write(&wire.StartMessage{Id: []byte("inv-1"), DebugId: "dbg-1", KnownEntries: 1}))
	require.NoError(t, proto.Write(&wire.InputEntryMessage{Value: []byte("Till")}))

	msg, err := proto.Read()
	require.NoError(t, err)
	run, ok := msg.(*wire.RunEntryMessage)
	require.True(t, ok, "expected RunEntry, got %T", msg)
	assert.Equal(t, []byte("Francesco"), run.Value)

	require.NoError(t, proto.Write(&wire.CompletionMessage{EntryIndex: 1, Value: []byte("Francesco")}))

	msg, err = proto.Read()
	require.NoError(t, err)
	out, ok := msg.(*wire.OutputEntryMessage)
	require.True(t, ok, "expected OutputEntry, got %T", msg)
	assert.Equal(t, []byte("Hello Francesco"), out.Value)

	msg, err = proto.Read()
	require.NoError(t, err)
	assert.IsType(t, &wire.EndMessage{}, msg)
}

// TestS3JournalMismatch is spec §8 S3: the replayed entry at the index
// the user code's first side effect would occupy is some other kind of
// entry entirely, so the core fails fatally instead of silently
// reinterpreting it.
func TestS3JournalMismatch(t *testing.T) {
	handler := &funcHandler{fn: func(ctx flowcore.Context, input []byte) ([]byte, error) {
		_, err := ctx.Run(func() ([]byte, error) { return []byte("x"), nil })
		return nil, err
	}}

	proto, _ := startMachine(t, handler, flowcore.BidiStream)

	require.NoError(t, proto.Write(&wire.StartMessage{Id: []byte("inv-1"), KnownEntries: 2}))
	require.NoError(t, proto.Write(&wire.InputEntryMessage{Value: []byte("Till")}))
	require.NoError(t, proto.Write(&wire.CallEntryMessage{
		ServiceName: "Greet", HandlerName: "Greet", Parameter: []byte("Francesco"), Value: []byte("FRANCESCO"),
	}))

	msg, err := proto.Read()
	require.NoError(t, err)
	out, ok := msg.(*wire.OutputEntryMessage)
	require.True(t, ok, "expected OutputEntry, got %T", msg)
	require.NotNil(t, out.Failure)
	assert.Equal(t, uint32(internalerrors.ErrJournalMismatch), out.Failure.Code)

	msg, err = proto.Read()
	require.NoError(t, err)
	assert.IsType(t, &wire.EndMessage{}, msg)
}

// TestS4ForbiddenNestedSideEffect is spec §8 S4: the replayed RunEntry
// already carries the fixed terminal failure for a forbidden op
// attempted from within a side effect, and replay must reproduce that
// failure as the invocation's Output without re-running anything.
func TestS4ForbiddenNestedSideEffect(t *testing.T) {
	const forbiddenMsg = "You cannot do set state calls from within a side effect."

	handler := &funcHandler{fn: func(ctx flowcore.Context, input []byte) ([]byte, error) {
		return ctx.Run(func() ([]byte, error) {
			ctx.Set("k", []byte("v")) // forbidden: panics with forbiddenOperation
			return nil, nil
		})
	}}

	proto, _ := startMachine(t, handler, flowcore.BidiStream)

	require.NoError(t, proto.Write(&wire.StartMessage{Id: []byte("inv-1"), KnownEntries: 2}))
	require.NoError(t, proto.Write(&wire.InputEntryMessage{Value: []byte("Till")}))
	require.NoError(t, proto.Write(&wire.RunEntryMessage{
		Failure: &wire.Failure{Code: uint32(internalerrors.ErrUnknown), Message: forbiddenMsg},
	}))

	msg, err := proto.Read()
	require.NoError(t, err)
	out, ok := msg.(*wire.OutputEntryMessage)
	require.True(t, ok, "expected OutputEntry, got %T", msg)
	require.NotNil(t, out.Failure)
	assert.Equal(t, forbiddenMsg, out.Failure.Message)

	msg, err = proto.Read()
	require.NoError(t, err)
	assert.IsType(t, &wire.EndMessage{}, msg)
}

// TestS4LiveForbiddenSideEffectTerminatesInvocation is the live
// counterpart of TestS4ForbiddenNestedSideEffect: the forbidden op
// panics for the first time during Processing (no replayed RunEntry),
// so the core itself must journal the failure on a RunEntry before
// ending the invocation, rather than looping on a retryable error.
func TestS4LiveForbiddenSideEffectTerminatesInvocation(t *testing.T) {
	const forbiddenMsg = "You cannot do set state calls from within a side effect."

	handler := &funcHandler{fn: func(ctx flowcore.Context, input []byte) ([]byte, error) {
		return ctx.Run(func() ([]byte, error) {
			ctx.Set("k", []byte("v")) // forbidden: panics with forbiddenOperation
			return nil, nil
		})
	}}

	proto, _ := startMachine(t, handler, flowcore.BidiStream)

	require.NoError(t, proto.Write(&wire.StartMessage{Id: []byte("inv-1"), KnownEntries: 1}))
	require.NoError(t, proto.Write(&wire.InputEntryMessage{Value: []byte("Till")}))

	msg, err := proto.Read()
	require.NoError(t, err)
	run, ok := msg.(*wire.RunEntryMessage)
	require.True(t, ok, "expected RunEntry, got %T", msg)
	require.NotNil(t, run.Failure)
	assert.Equal(t, forbiddenMsg, run.Failure.Message)

	require.NoError(t, proto.Write(&wire.AckMessage{EntryIndex: 1}))

	msg, err = proto.Read()
	require.NoError(t, err)
	out, ok := msg.(*wire.OutputEntryMessage)
	require.True(t, ok, "expected OutputEntry, got %T", msg)
	require.NotNil(t, out.Failure)
	assert.Equal(t, forbiddenMsg, out.Failure.Message)

	msg, err = proto.Read()
	require.NoError(t, err)
	assert.IsType(t, &wire.EndMessage{}, msg)
}

// TestGetStateCompleteModeResolvesEagerly exercises the complete-state
// fast path: Start's state map already has the answer, so GetState
// never waits on a Completion.
func TestGetStateCompleteModeResolvesEagerly(t *testing.T) {
	handler := &funcHandler{fn: func(ctx flowcore.Context, input []byte) ([]byte, error) {
		v, err := ctx.Get("counter")
		if err != nil {
			return nil, err
		}
		return v, nil
	}}

	proto, _ := startMachine(t, handler, flowcore.BidiStream)

	require.NoError(t, proto.Write(&wire.StartMessage{
		Id: []byte("inv-1"), KnownEntries: 1,
		StateMap: []wire.StateEntry{{Key: []byte("counter"), Value: []byte("42")}},
	}))
	require.NoError(t, proto.Write(&wire.InputEntryMessage{}))

	msg, err := proto.Read()
	require.NoError(t, err)
	get, ok := msg.(*wire.GetStateEntryMessage)
	require.True(t, ok, "expected GetStateEntry, got %T", msg)
	assert.Equal(t, []byte("42"), get.Value)

	msg, err = proto.Read()
	require.NoError(t, err)
	out := msg.(*wire.OutputEntryMessage)
	assert.Equal(t, []byte("42"), out.Value)
}

// TestGetStatePartialModeAwaitsCompletion exercises the other branch:
// PartialState means the local map cannot answer Get, so the entry is
// journaled NotReady and only resolves once a Completion arrives.
func TestGetStatePartialModeAwaitsCompletion(t *testing.T) {
	handler := &funcHandler{fn: func(ctx flowcore.Context, input []byte) ([]byte, error) {
		return ctx.Get("counter")
	}}

	proto, _ := startMachine(t, handler, flowcore.BidiStream)

	require.NoError(t, proto.Write(&wire.StartMessage{Id: []byte("inv-1"), KnownEntries: 1, PartialState: true}))
	require.NoError(t, proto.Write(&wire.InputEntryMessage{}))

	msg, err := proto.Read()
	require.NoError(t, err)
	_, ok := msg.(*wire.GetStateEntryMessage)
	require.True(t, ok, "expected GetStateEntry, got %T", msg)

	require.NoError(t, proto.Write(&wire.CompletionMessage{EntryIndex: 1, Value: []byte("99")}))

	msg, err = proto.Read()
	require.NoError(t, err)
	out := msg.(*wire.OutputEntryMessage)
	assert.Equal(t, []byte("99"), out.Value)
}

// TestOrTimeoutTargetWins exercises Context.OrTimeout when the target
// awaitable resolves before the auxiliary Sleep: the auxiliary Sleep
// is still journaled (index 2) but left pending.
func TestOrTimeoutTargetWins(t *testing.T) {
	handler := &funcHandler{fn: func(ctx flowcore.Context, input []byte) ([]byte, error) {
		target := ctx.After(time.Hour)
		if err := ctx.OrTimeout(target, time.Second); err != nil {
			return []byte(err.Error()), nil
		}
		return []byte("target"), nil
	}}

	proto, _ := startMachine(t, handler, flowcore.BidiStream)

	require.NoError(t, proto.Write(&wire.StartMessage{Id: []byte("inv-1"), KnownEntries: 1}))
	require.NoError(t, proto.Write(&wire.InputEntryMessage{}))

	msg, err := proto.Read()
	require.NoError(t, err)
	assert.IsType(t, &wire.SleepEntryMessage{}, msg)

	msg, err = proto.Read()
	require.NoError(t, err)
	assert.IsType(t, &wire.SleepEntryMessage{}, msg)

	require.NoError(t, proto.Write(&wire.CompletionMessage{EntryIndex: 1, Empty: true}))

	msg, err = proto.Read()
	require.NoError(t, err)
	out, ok := msg.(*wire.OutputEntryMessage)
	require.True(t, ok, "expected OutputEntry, got %T", msg)
	assert.Equal(t, []byte("target"), out.Value)
}

// TestOrTimeoutDeadlineWins is the other branch: the auxiliary Sleep
// resolves first, so OrTimeout reports futures.TimeoutError without
// waiting any further on the target.
func TestOrTimeoutDeadlineWins(t *testing.T) {
	handler := &funcHandler{fn: func(ctx flowcore.Context, input []byte) ([]byte, error) {
		target := ctx.After(time.Hour)
		if err := ctx.OrTimeout(target, time.Second); err != nil {
			return []byte(err.Error()), nil
		}
		return []byte("target"), nil
	}}

	proto, _ := startMachine(t, handler, flowcore.BidiStream)

	require.NoError(t, proto.Write(&wire.StartMessage{Id: []byte("inv-1"), KnownEntries: 1}))
	require.NoError(t, proto.Write(&wire.InputEntryMessage{}))

	msg, err := proto.Read()
	require.NoError(t, err)
	assert.IsType(t, &wire.SleepEntryMessage{}, msg)

	msg, err = proto.Read()
	require.NoError(t, err)
	assert.IsType(t, &wire.SleepEntryMessage{}, msg)

	require.NoError(t, proto.Write(&wire.CompletionMessage{EntryIndex: 2, Empty: true}))

	msg, err = proto.Read()
	require.NoError(t, err)
	out, ok := msg.(*wire.OutputEntryMessage)
	require.True(t, ok, "expected OutputEntry, got %T", msg)
	assert.Equal(t, []byte("timeout"), out.Value)
}
