package state

import "github.com/flowcore/sdk-go/internal/wire"

// entryMismatch is panicked when a replayed entry's kind (or, for
// deterministic-body entries, its body) does not match the operation
// the user code performed at the same journal index. It is fatal: the
// invocation ends with a journal-mismatch Output failure.
type entryMismatch struct {
	entryIndex    uint32
	expectedEntry wire.Message
	actualEntry   wire.Message
}

func (m *Machine) newEntryMismatch(expected, actual wire.Message) *entryMismatch {
	return &entryMismatch{
		entryIndex:    m.journal.Index(),
		expectedEntry: expected,
		actualEntry:   actual,
	}
}

// writeError is panicked when writing an entry to the protocol fails
// (almost always because the transport is already gone).
type writeError struct {
	err        error
	entry      wire.Message
	entryIndex uint32
}

// forbiddenOperation is panicked by any Context op that the reentrancy
// guard disallows while a side effect is executing.
type forbiddenOperation struct {
	message string
}

func (f *forbiddenOperation) Error() string { return f.message }
