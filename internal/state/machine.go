// Package state implements the Invocation State Machine: it drives a
// user handler through Start -> Replaying -> Processing -> (Suspended |
// Closed), bridging the wire Codec/Journal to the Context façade the
// handler actually calls into.
package state

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	flowcore "github.com/flowcore/sdk-go"
	internalerrors "github.com/flowcore/sdk-go/internal/errors"
	internalrand "github.com/flowcore/sdk-go/internal/rand"
	"github.com/flowcore/sdk-go/internal/wire"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// errIncompleteJournal is the suspend cause used in RequestResponse
// mode: per §4.5, that mode never emits Suspension, so running out of
// known completions there means the journal the runtime sent was
// incomplete — a fatal protocol error rather than a clean suspend.
var errIncompleteJournal = fmt.Errorf("state: handler suspended in request-response mode with an incomplete journal")

// Machine owns one invocation end to end: the journal, the pending-
// completion table, the eager state map, and the user handler task.
type Machine struct {
	ctx           context.Context
	suspensionCtx context.Context
	suspend       func(error)

	handler  flowcore.Handler
	protocol *wire.Protocol
	mode     flowcore.ProtocolMode

	id          []byte
	debugID     string
	key         string
	serviceName string
	handlerName string

	partial bool
	current map[string][]byte

	journal    *Journal
	entryMutex sync.Mutex

	pendingMu      sync.Mutex
	pendingEntries map[uint32]wire.CompleteableMessage
	pendingChans   map[uint32]chan struct{}
	pendingAcks    map[uint32]chan struct{}

	insideSideEffect bool

	rnd *internalrand.Rand
	log zerolog.Logger

	// failure is set once a fatal condition has been recorded; any
	// further op panics immediately with it instead of doing more work.
	failure any
}

// NewMachine constructs a Machine bound to conn's duplex byte stream.
// serviceName/handlerName are used only for logging.
func NewMachine(handler flowcore.Handler, conn io.ReadWriter, mode flowcore.ProtocolMode, serviceName, handlerName string) *Machine {
	return &Machine{
		handler:        handler,
		mode:           mode,
		serviceName:    serviceName,
		handlerName:    handlerName,
		current:        make(map[string][]byte),
		log:            log.Logger,
		pendingEntries: map[uint32]wire.CompleteableMessage{},
		pendingChans:   map[uint32]chan struct{}{},
		pendingAcks:    map[uint32]chan struct{}{},
		protocol:       wire.NewProtocol(conn),
	}
}

// Start reads the Start+Input prefix, replays any known entries, and
// runs the handler to completion, suspension, or a fatal error.
func (m *Machine) Start(inner context.Context) error {
	msg, err := m.protocol.Read()
	if err != nil {
		return err
	}
	start, ok := msg.(*wire.StartMessage)
	if !ok {
		return wire.ErrUnexpectedMessage
	}

	m.ctx = inner
	m.suspensionCtx, m.suspend = context.WithCancelCause(m.ctx)
	m.id = start.Id
	m.key = start.Key
	m.partial = start.PartialState
	m.rnd = internalrand.New(start.Id)

	m.log = m.log.With().
		Str("invocationId", start.DebugId).
		Str("service", m.serviceName).
		Str("handler", m.handlerName).
		Logger()

	ctx := newContext(m)

	m.log.Debug().Msg("invocation started")
	defer m.log.Debug().Msg("invocation ended")

	return m.process(ctx, start)
}

func (m *Machine) process(ctx *Context, start *wire.StartMessage) error {
	for _, entry := range start.StateMap {
		m.current[string(entry.Key)] = entry.Value
	}

	msg, err := m.protocol.Read()
	if err != nil {
		return err
	}
	inputMsg, ok := msg.(*wire.InputEntryMessage)
	if !ok {
		return wire.ErrUnexpectedMessage
	}

	m.journal = newJournal(start.KnownEntries)

	outputSeen := false
	for i := uint32(1); i < start.KnownEntries; i++ {
		entry, err := m.protocol.Read()
		if err != nil {
			return fmt.Errorf("failed to read replay entry: %w", err)
		}
		m.journal.AppendReplay(entry)
		if _, ok := entry.(*wire.OutputEntryMessage); ok {
			outputSeen = true
		}
	}

	go m.pump()

	return m.invoke(ctx, inputMsg.GetValue(), outputSeen)
}

// pump continuously reads control messages (Completion, Ack) off the
// wire until the stream ends, correlating them with pending entries.
// When reading ends, it cancels suspensionCtx so any blocked Context op
// wakes up and decides, via the cause, whether to suspend cleanly or
// report a fatal error.
func (m *Machine) pump() {
	for {
		msg, err := m.protocol.Read()
		if err != nil {
			cause := err
			if stderrors.Is(err, io.EOF) {
				if m.mode == flowcore.RequestResponse {
					cause = errIncompleteJournal
				} else {
					cause = io.EOF
				}
			}
			m.suspend(cause)
			return
		}

		switch t := msg.(type) {
		case *wire.CompletionMessage:
			m.complete(t)
		case *wire.AckMessage:
			m.ack(t)
		default:
			m.log.Warn().Type("type", msg).Msg("unexpected control message while processing")
		}
	}
}

func (m *Machine) complete(c *wire.CompletionMessage) {
	m.pendingMu.Lock()
	entry, ok := m.pendingEntries[c.EntryIndex]
	if !ok {
		// A live side effect's RunEntry is registered against pendingAcks
		// (see journalAdvance), but in bidi mode the runtime may resolve
		// it with a Completion instead of an Ack: its Value/Failure were
		// already fixed locally when the entry was journaled, so this
		// only needs to unblock whatever is waiting on it, the same as
		// an Ack would.
		if ch, ok := m.pendingAcks[c.EntryIndex]; ok {
			delete(m.pendingAcks, c.EntryIndex)
			m.pendingMu.Unlock()
			close(ch)
			return
		}
		m.pendingMu.Unlock()
		// Either the entry does not exist yet (completions for entries
		// not yet appended are treated conservatively as a protocol
		// error) or it was already completed once (double-completion is
		// fatal).
		m.suspend(fmt.Errorf("completion for unknown or already-completed entry %d", c.EntryIndex))
		return
	}
	ch := m.pendingChans[c.EntryIndex]
	delete(m.pendingEntries, c.EntryIndex)
	delete(m.pendingChans, c.EntryIndex)
	m.pendingMu.Unlock()

	if c.Failure != nil {
		entry.SetFailure(c.Failure.Code, c.Failure.Message)
	} else if get, isGet := entry.(*wire.GetStateEntryMessage); isGet && c.Empty {
		get.Empty = true
	} else {
		entry.SetValue(c.Value)
	}
	close(ch)
}

func (m *Machine) ack(a *wire.AckMessage) {
	m.pendingMu.Lock()
	ch, ok := m.pendingAcks[a.EntryIndex]
	delete(m.pendingAcks, a.EntryIndex)
	m.pendingMu.Unlock()
	if ok {
		close(ch)
	}
}

// journalAdvance is the single chokepoint every Context op funnels
// through: it assigns the next journal index, either matching it
// against the replay prefix or writing candidate as a new live entry,
// and (for completable kinds) registers a completion channel before
// the entry can possibly be observed as written. Candidate is used
// both as the entry to emit on the live path and as the "expected"
// value reported in a journal-mismatch failure.
func journalAdvance[M wire.Message](m *Machine, candidate M, matches func(replayed M) bool) (entry M, index uint32, ch chan struct{}) {
	m.entryMutex.Lock()
	defer m.entryMutex.Unlock()

	if m.failure != nil {
		panic(m.failure)
	}

	idx, raw, isReplay := m.journal.Advance()

	var result M
	if isReplay {
		typed, ok := raw.(M)
		if !ok || !matches(typed) {
			panic(m.newEntryMismatch(candidate, raw))
		}
		result = typed
	} else {
		result = candidate
	}

	if cm, ok := any(result).(wire.CompleteableMessage); ok {
		if _, isRun := any(result).(*wire.RunEntryMessage); isRun {
			// A RunEntry correlates against an Ack, not a Completion: see
			// registerAckLocked. A replayed RunEntry is already persisted
			// by the runtime, so it never waits for one.
			if isReplay || cm.Ready() {
				ch = closedChan()
			} else {
				ch = m.registerAckLocked(idx)
			}
		} else {
			ch = m.registerPendingLocked(idx, cm)
		}
	}

	if !isReplay {
		if err := m.protocol.Write(result); err != nil {
			panic(&writeError{err: err, entry: result, entryIndex: idx})
		}
	}

	return result, idx, ch
}

func (m *Machine) registerPendingLocked(index uint32, cm wire.CompleteableMessage) chan struct{} {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	ch := make(chan struct{})
	if cm.Ready() {
		close(ch)
		return ch
	}
	m.pendingEntries[index] = cm
	m.pendingChans[index] = ch
	return ch
}

// registerAckLocked is used by the side-effect runner in bidi mode: a
// RunEntry must be durably acknowledged before the handler may proceed
// past it, so that a crash between journaling it and the runtime
// persisting it cannot silently lose the side effect's result.
func (m *Machine) registerAckLocked(index uint32) chan struct{} {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	ch := make(chan struct{})
	m.pendingAcks[index] = ch
	return ch
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// invoke runs the user handler and turns its outcome (success, terminal
// failure, panic) into the correct terminal message sequence. It never
// lets a panic escape: the recover() below is the single place that
// translates every internal control-flow signal (journal mismatch,
// write failure, suspension, forbidden operation inside a side effect)
// into wire messages.
func (m *Machine) invoke(ctx *Context, input []byte, outputSeen bool) (err error) {
	defer func() {
		recovered := recover()
		switch typ := recovered.(type) {
		case nil:
			return
		case *entryMismatch:
			m.failure = typ
			m.log.Error().
				Uint32("entryIndex", typ.entryIndex).
				Type("expectedType", typ.expectedEntry).
				Type("actualType", typ.actualEntry).
				Msg("journal mismatch: replayed journal entries did not correspond to the user code; user code must be deterministic")

			if err = m.protocol.Write(&wire.OutputEntryMessage{Failure: &wire.Failure{
				Code: uint32(internalerrors.ErrJournalMismatch),
				Message: fmt.Sprintf(
					"journal mismatch at entry %d: in user code: %T, in replayed journal: %T",
					typ.entryIndex, typ.expectedEntry, typ.actualEntry),
			}}); err != nil {
				return
			}
			err = m.protocol.Write(&wire.EndMessage{})
			return
		case *writeError:
			m.failure = typ
			m.log.Error().Err(typ.err).Msg("failed to write entry, shutting down state machine")
			_ = m.protocol.Write(&wire.ErrorMessage{
				Code:              uint32(internalerrors.ErrProtocolViolation),
				Message:           typ.err.Error(),
				Description:       string(debug.Stack()),
				RelatedEntryIndex: &typ.entryIndex,
				RelatedEntryType:  typ.entry.Type().UInt32(),
			})
			return
		case *wire.SuspensionPanic:
			if m.ctx.Err() != nil {
				// the connection itself is gone; nothing to write
				return
			}
			if stderrors.Is(typ.Err, io.EOF) {
				m.log.Info().Uints32("entryIndexes", typ.EntryIndexes).Msg("suspending")
				err = m.protocol.Write(&wire.SuspensionMessage{EntryIndexes: typ.EntryIndexes})
			} else {
				m.log.Error().Err(typ.Err).Uints32("entryIndexes", typ.EntryIndexes).Msg("fatal error while awaiting completions")
				_ = m.protocol.Write(&wire.ErrorMessage{
					Code:    uint32(flowcore.ErrorCode(typ.Err)),
					Message: fmt.Sprintf("problem reading completions: %v", typ.Err),
				})
			}
			return
		case *forbiddenOperation:
			m.insideSideEffect = false
			m.log.Error().Str("message", typ.message).Msg("forbidden operation attempted from within a side effect")

			failure := &wire.Failure{Code: uint32(internalerrors.ErrUnknown), Message: typ.message}
			entry := &wire.RunEntryMessage{}
			if m.mode == flowcore.RequestResponse {
				entry.SetFailure(failure.Code, failure.Message)
			} else {
				entry.Failure = failure
			}
			_, _, ch := journalAdvance(m, entry, func(*wire.RunEntryMessage) bool { return true })
			<-ch

			if err = m.protocol.Write(&wire.OutputEntryMessage{Failure: failure}); err != nil {
				return
			}
			err = m.protocol.Write(&wire.EndMessage{})
			return
		default:
			m.log.Error().Interface("panic", typ).Msg("unrecovered panic in handler")
			_ = m.protocol.Write(&wire.ErrorMessage{
				Code:        uint32(internalerrors.ErrInternal),
				Message:     fmt.Sprint(typ),
				Description: string(debug.Stack()),
			})
			return
		}
	}()

	if outputSeen {
		return m.protocol.Write(&wire.EndMessage{})
	}

	out, callErr := m.handler.Call(ctx, input)
	if callErr != nil {
		m.log.Error().Err(callErr).Msg("handler failed")
	}

	if callErr != nil && flowcore.IsTerminalError(callErr) {
		if err := m.protocol.Write(&wire.OutputEntryMessage{
			Failure: &wire.Failure{Code: flowcore.ErrorCode(callErr), Message: callErr.Error()},
		}); err != nil {
			return err
		}
		return m.protocol.Write(&wire.EndMessage{})
	} else if callErr != nil {
		// non-terminal: no End message, the runtime is expected to retry
		// the whole invocation.
		return m.protocol.Write(&wire.ErrorMessage{
			Code:    flowcore.ErrorCode(callErr),
			Message: callErr.Error(),
		})
	}

	if err := m.protocol.Write(&wire.OutputEntryMessage{Value: out}); err != nil {
		return err
	}
	return m.protocol.Write(&wire.EndMessage{})
}
