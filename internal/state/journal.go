package state

import (
	"sync"

	"github.com/flowcore/sdk-go/internal/wire"
)

// Journal owns the ordered list of entries for one invocation and the
// bookkeeping that makes replay correct: a prefix of entries the
// runtime already knows about (replay), and the live entries appended
// as the user handler runs past that prefix.
//
// Indices are 1-based and dense. The Input entry is read by the Machine
// directly and never passes through the Journal, so index 1 is the
// first entry after Input.
type Journal struct {
	mu      sync.Mutex
	replay  []wire.Message
	index   uint32
}

func newJournal(knownEntries uint32) *Journal {
	cap := 0
	if knownEntries > 1 {
		cap = int(knownEntries - 1)
	}
	return &Journal{replay: make([]wire.Message, 0, cap)}
}

// AppendReplay records a prior entry sent by the runtime as part of the
// replay prefix. Called only while the journal has not yet advanced
// past it.
func (j *Journal) AppendReplay(msg wire.Message) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.replay = append(j.replay, msg)
}

// ReplayLen reports how many entries are in the replay prefix.
func (j *Journal) ReplayLen() uint32 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return uint32(len(j.replay))
}

// Advance assigns the next index (1-based) and returns the replay
// entry at that index, if the journal has not yet run past the replay
// prefix. Callers must hold whatever external serialization guarantees
// op ordering (the Machine's entryMutex); Advance itself is safe to
// call concurrently but callers racing each other would get
// inconsistent (index, entry) pairs for user-visible purposes.
func (j *Journal) Advance() (index uint32, entry wire.Message, isReplay bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.index++
	if j.index <= uint32(len(j.replay)) {
		return j.index, j.replay[j.index-1], true
	}
	return j.index, nil, false
}

// Index returns the most recently assigned index.
func (j *Journal) Index() uint32 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.index
}

// IsReplaying reports whether the journal still has unconsumed replay
// entries ahead of the current index.
func (j *Journal) IsReplaying() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.index < uint32(len(j.replay))
}

// PeekNextType reports the message type of the next entry Advance
// would return from the replay prefix, without consuming it. It
// returns false once the journal has run past the replay prefix.
func (j *Journal) PeekNextType() (wire.MessageType, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	next := j.index + 1
	if next > uint32(len(j.replay)) {
		return 0, false
	}
	return j.replay[next-1].Type(), true
}
