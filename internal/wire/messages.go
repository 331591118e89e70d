package wire

import "google.golang.org/protobuf/encoding/protowire"

// Failure is the (code, message) pair carried by any entry or Output
// that terminated with an error.
type Failure struct {
	Code    uint32
	Message string
}

// StateEntry is one key/value pair in the eager state map sent with
// Start.
type StateEntry struct {
	Key   []byte
	Value []byte
}

// StartMessage opens an invocation: the runtime hands over the
// invocation id, the number of journal entries it already knows about
// (including the Input entry), and, in complete-state mode, the full
// state map.
type StartMessage struct {
	Id           []byte
	DebugId      string
	Key          string
	KnownEntries uint32
	StateMap     []StateEntry
	PartialState bool
}

func (m *StartMessage) Type() MessageType { return StartMessageType }

func (m *StartMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendBytesField(buf, 1, m.Id)
	buf = appendStringField(buf, 2, m.DebugId)
	buf = appendVarintField(buf, 3, uint64(m.KnownEntries))
	for _, e := range m.StateMap {
		var entry []byte
		entry = appendBytesField(entry, 1, e.Key)
		entry = appendBytesField(entry, 2, e.Value)
		buf = appendBytesField(buf, 4, entry)
	}
	buf = appendBoolField(buf, 5, m.PartialState)
	buf = appendStringField(buf, 6, m.Key)
	return buf
}

func decodeStartMessage(body []byte) (*StartMessage, error) {
	m := &StartMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.Id = append([]byte(nil), v...)
		case 2:
			m.DebugId = string(v)
		case 3:
			m.KnownEntries = uint32(n)
		case 4:
			entry := StateEntry{}
			_ = consumeFields(v, func(n2 protowire.Number, t2 protowire.Type, v2 []byte, u2 uint64) error {
				switch n2 {
				case 1:
					entry.Key = append([]byte(nil), v2...)
				case 2:
					entry.Value = append([]byte(nil), v2...)
				}
				return nil
			})
			m.StateMap = append(m.StateMap, entry)
		case 5:
			m.PartialState = n != 0
		case 6:
			m.Key = string(v)
		}
		return nil
	})
	return m, err
}

// InputEntryMessage carries the invocation's request payload. It always
// comes right after Start and takes no Journal index of its own: the
// first entry after it is index 1.
type InputEntryMessage struct {
	Value []byte
}

func (m *InputEntryMessage) Type() MessageType  { return InputEntryMessageType }
func (m *InputEntryMessage) GetValue() []byte   { return m.Value }
func (m *InputEntryMessage) MarshalBody() []byte {
	return appendBytesField(nil, 1, m.Value)
}

func decodeInputEntryMessage(body []byte) (*InputEntryMessage, error) {
	m := &InputEntryMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		if num == 1 {
			m.Value = append([]byte(nil), v...)
		}
		return nil
	})
	return m, err
}

// OutputEntryMessage is the handler's terminal result: either a success
// value or a terminal failure.
type OutputEntryMessage struct {
	Value      []byte
	Failure    *Failure
}

func (m *OutputEntryMessage) Type() MessageType { return OutputEntryMessageType }
func (m *OutputEntryMessage) MarshalBody() []byte {
	var buf []byte
	if m.Failure != nil {
		var f []byte
		f = appendVarintField(f, 1, uint64(m.Failure.Code))
		f = appendStringField(f, 2, m.Failure.Message)
		buf = appendBytesField(buf, 2, f)
	} else {
		buf = appendBytesField(buf, 1, m.Value)
	}
	return buf
}

func decodeOutputEntryMessage(body []byte) (*OutputEntryMessage, error) {
	m := &OutputEntryMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.Value = append([]byte(nil), v...)
		case 2:
			f := &Failure{}
			_ = consumeFields(v, func(n2 protowire.Number, t2 protowire.Type, v2 []byte, u2 uint64) error {
				switch n2 {
				case 1:
					f.Code = uint32(u2)
				case 2:
					f.Message = string(v2)
				}
				return nil
			})
			m.Failure = f
		}
		return nil
	})
	return m, err
}

// EndMessage closes the invocation's message stream.
type EndMessage struct{}

func (m *EndMessage) Type() MessageType   { return EndMessageType }
func (m *EndMessage) MarshalBody() []byte { return nil }

// SuspensionMessage tells the runtime which journal indices the
// handler is blocked on; the runtime may close the connection after
// receiving it.
type SuspensionMessage struct {
	EntryIndexes []uint32
}

func (m *SuspensionMessage) Type() MessageType { return SuspensionMessageType }
func (m *SuspensionMessage) MarshalBody() []byte {
	var buf []byte
	for _, idx := range m.EntryIndexes {
		buf = protowire.AppendTag(buf, 1, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(idx))
	}
	return buf
}

func decodeSuspensionMessage(body []byte) (*SuspensionMessage, error) {
	m := &SuspensionMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		if num == 1 {
			m.EntryIndexes = append(m.EntryIndexes, uint32(n))
		}
		return nil
	})
	return m, err
}

// ErrorMessage is a fatal, non-journaled protocol error: the connection
// ends without a clean Output+End pair.
type ErrorMessage struct {
	Code              uint32
	Message           string
	Description       string
	RelatedEntryIndex *uint32
	RelatedEntryType  uint32
}

func (m *ErrorMessage) Type() MessageType { return ErrorMessageType }
func (m *ErrorMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendVarintField(buf, 1, uint64(m.Code))
	buf = appendStringField(buf, 2, m.Message)
	buf = appendStringField(buf, 3, m.Description)
	if m.RelatedEntryIndex != nil {
		buf = appendVarintField(buf, 4, uint64(*m.RelatedEntryIndex))
	}
	buf = appendVarintField(buf, 5, uint64(m.RelatedEntryType))
	return buf
}

func decodeErrorMessage(body []byte) (*ErrorMessage, error) {
	m := &ErrorMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.Code = uint32(n)
		case 2:
			m.Message = string(v)
		case 3:
			m.Description = string(v)
		case 4:
			idx := uint32(n)
			m.RelatedEntryIndex = &idx
		case 5:
			m.RelatedEntryType = uint32(n)
		}
		return nil
	})
	return m, err
}

// --- state entries ---

// GetStateEntryMessage reads one state key. Result is either Empty
// (key absent), a Value, or (never in practice) a Failure.
type GetStateEntryMessage struct {
	Key     []byte
	Value   []byte
	Empty   bool
	Failure *Failure
	ready   bool
}

func (m *GetStateEntryMessage) Type() MessageType { return GetStateEntryMessageType }
func (m *GetStateEntryMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendBytesField(buf, 1, m.Key)
	if m.Failure != nil {
		var f []byte
		f = appendVarintField(f, 1, uint64(m.Failure.Code))
		f = appendStringField(f, 2, m.Failure.Message)
		buf = appendBytesField(buf, 4, f)
	} else if m.Empty {
		buf = appendBoolField(buf, 2, true)
	} else if m.ready {
		buf = appendBytesField(buf, 3, m.Value)
	}
	return buf
}
func (m *GetStateEntryMessage) SetValue(value []byte) { m.Value = value; m.ready = true }
func (m *GetStateEntryMessage) SetFailure(code uint32, message string) {
	m.Failure = &Failure{Code: code, Message: message}
}
func (m *GetStateEntryMessage) completedFlag() bool { return m.ready || m.Empty || m.Failure != nil }
func (m *GetStateEntryMessage) Ready() bool { return m.completedFlag() }

func decodeGetStateEntryMessage(body []byte) (*GetStateEntryMessage, error) {
	m := &GetStateEntryMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.Key = append([]byte(nil), v...)
		case 2:
			m.Empty = n != 0
		case 3:
			m.Value = append([]byte(nil), v...)
			m.ready = true
		case 4:
			f := &Failure{}
			_ = consumeFields(v, func(n2 protowire.Number, t2 protowire.Type, v2 []byte, u2 uint64) error {
				switch n2 {
				case 1:
					f.Code = uint32(u2)
				case 2:
					f.Message = string(v2)
				}
				return nil
			})
			m.Failure = f
		}
		return nil
	})
	return m, err
}

// SetStateEntryMessage is completed-on-append: setting state never
// awaits a completion.
type SetStateEntryMessage struct {
	Key   []byte
	Value []byte
}

func (m *SetStateEntryMessage) Type() MessageType { return SetStateEntryMessageType }
func (m *SetStateEntryMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendBytesField(buf, 1, m.Key)
	buf = appendBytesField(buf, 2, m.Value)
	return buf
}

func decodeSetStateEntryMessage(body []byte) (*SetStateEntryMessage, error) {
	m := &SetStateEntryMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.Key = append([]byte(nil), v...)
		case 2:
			m.Value = append([]byte(nil), v...)
		}
		return nil
	})
	return m, err
}

// ClearStateEntryMessage is completed-on-append.
type ClearStateEntryMessage struct {
	Key []byte
}

func (m *ClearStateEntryMessage) Type() MessageType   { return ClearStateEntryMessageType }
func (m *ClearStateEntryMessage) MarshalBody() []byte { return appendBytesField(nil, 1, m.Key) }

func decodeClearStateEntryMessage(body []byte) (*ClearStateEntryMessage, error) {
	m := &ClearStateEntryMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		if num == 1 {
			m.Key = append([]byte(nil), v...)
		}
		return nil
	})
	return m, err
}

// ClearAllStateEntryMessage is completed-on-append and carries no body.
type ClearAllStateEntryMessage struct{}

func (m *ClearAllStateEntryMessage) Type() MessageType   { return ClearAllStateEntryMessageType }
func (m *ClearAllStateEntryMessage) MarshalBody() []byte { return nil }

// GetStateKeysEntryMessage lists every key the runtime knows about for
// this invocation.
type GetStateKeysEntryMessage struct {
	Keys    [][]byte
	ready   bool
	Failure *Failure
}

func (m *GetStateKeysEntryMessage) Type() MessageType { return GetStateKeysEntryMessageType }
func (m *GetStateKeysEntryMessage) MarshalBody() []byte {
	var buf []byte
	if m.Failure != nil {
		var f []byte
		f = appendVarintField(f, 1, uint64(m.Failure.Code))
		f = appendStringField(f, 2, m.Failure.Message)
		buf = appendBytesField(buf, 2, f)
		return buf
	}
	for _, k := range m.Keys {
		buf = appendBytesField(buf, 1, k)
	}
	return buf
}
func (m *GetStateKeysEntryMessage) SetValue(value []byte) {
	_ = consumeFields(value, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		if num == 1 {
			m.Keys = append(m.Keys, append([]byte(nil), v...))
		}
		return nil
	})
	m.ready = true
}
func (m *GetStateKeysEntryMessage) SetFailure(code uint32, message string) {
	m.Failure = &Failure{Code: code, Message: message}
}
func (m *GetStateKeysEntryMessage) completedFlag() bool { return true }
func (m *GetStateKeysEntryMessage) Ready() bool { return m.ready || m.Failure != nil }

func decodeGetStateKeysEntryMessage(body []byte) (*GetStateKeysEntryMessage, error) {
	m := &GetStateKeysEntryMessage{ready: true}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.Keys = append(m.Keys, append([]byte(nil), v...))
		case 2:
			f := &Failure{}
			_ = consumeFields(v, func(n2 protowire.Number, t2 protowire.Type, v2 []byte, u2 uint64) error {
				switch n2 {
				case 1:
					f.Code = uint32(u2)
				case 2:
					f.Message = string(v2)
				}
				return nil
			})
			m.Failure = f
		}
		return nil
	})
	return m, err
}

// SleepEntryMessage journals a wakeup time; its completion carries no
// payload, only a signal that the time has passed.
type SleepEntryMessage struct {
	WakeUpTime uint64
	ready      bool
	Failure    *Failure
}

func (m *SleepEntryMessage) Type() MessageType { return SleepEntryMessageType }
func (m *SleepEntryMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendVarintField(buf, 1, m.WakeUpTime)
	if m.Failure != nil {
		var f []byte
		f = appendVarintField(f, 1, uint64(m.Failure.Code))
		f = appendStringField(f, 2, m.Failure.Message)
		buf = appendBytesField(buf, 3, f)
	}
	return buf
}
func (m *SleepEntryMessage) SetValue(value []byte) { m.ready = true }
func (m *SleepEntryMessage) SetFailure(code uint32, message string) {
	m.Failure = &Failure{Code: code, Message: message}
}
func (m *SleepEntryMessage) completedFlag() bool { return m.ready || m.Failure != nil }
func (m *SleepEntryMessage) Ready() bool { return m.completedFlag() }

func decodeSleepEntryMessage(body []byte) (*SleepEntryMessage, error) {
	m := &SleepEntryMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.WakeUpTime = n
		case 3:
			f := &Failure{}
			_ = consumeFields(v, func(n2 protowire.Number, t2 protowire.Type, v2 []byte, u2 uint64) error {
				switch n2 {
				case 1:
					f.Code = uint32(u2)
				case 2:
					f.Message = string(v2)
				}
				return nil
			})
			m.Failure = f
		}
		return nil
	})
	return m, err
}

// CallEntryMessage is a request/response RPC: it is completable and
// resolves with the callee's response bytes or failure.
type CallEntryMessage struct {
	ServiceName string
	HandlerName string
	Key         string
	Parameter   []byte

	Value   []byte
	Failure *Failure
	ready   bool
}

func (m *CallEntryMessage) Type() MessageType { return CallEntryMessageType }
func (m *CallEntryMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendStringField(buf, 1, m.ServiceName)
	buf = appendStringField(buf, 2, m.HandlerName)
	buf = appendStringField(buf, 3, m.Key)
	buf = appendBytesField(buf, 4, m.Parameter)
	if m.Failure != nil {
		var f []byte
		f = appendVarintField(f, 1, uint64(m.Failure.Code))
		f = appendStringField(f, 2, m.Failure.Message)
		buf = appendBytesField(buf, 6, f)
	} else if m.ready {
		buf = appendBytesField(buf, 5, m.Value)
	}
	return buf
}
func (m *CallEntryMessage) SetValue(value []byte) { m.Value = value; m.ready = true }
func (m *CallEntryMessage) SetFailure(code uint32, message string) {
	m.Failure = &Failure{Code: code, Message: message}
}
func (m *CallEntryMessage) completedFlag() bool { return m.ready || m.Failure != nil }
func (m *CallEntryMessage) Ready() bool { return m.completedFlag() }

func decodeCallEntryMessage(body []byte) (*CallEntryMessage, error) {
	m := &CallEntryMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.ServiceName = string(v)
		case 2:
			m.HandlerName = string(v)
		case 3:
			m.Key = string(v)
		case 4:
			m.Parameter = append([]byte(nil), v...)
		case 5:
			m.Value = append([]byte(nil), v...)
			m.ready = true
		case 6:
			f := &Failure{}
			_ = consumeFields(v, func(n2 protowire.Number, t2 protowire.Type, v2 []byte, u2 uint64) error {
				switch n2 {
				case 1:
					f.Code = uint32(u2)
				case 2:
					f.Message = string(v2)
				}
				return nil
			})
			m.Failure = f
		}
		return nil
	})
	return m, err
}

// OneWayCallEntryMessage is completed-on-append: a fire-and-forget (or
// delayed) call to another handler.
type OneWayCallEntryMessage struct {
	ServiceName string
	HandlerName string
	Key         string
	Parameter   []byte
	InvokeTime  uint64
}

func (m *OneWayCallEntryMessage) Type() MessageType { return OneWayCallEntryMessageType }
func (m *OneWayCallEntryMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendStringField(buf, 1, m.ServiceName)
	buf = appendStringField(buf, 2, m.HandlerName)
	buf = appendStringField(buf, 3, m.Key)
	buf = appendBytesField(buf, 4, m.Parameter)
	buf = appendVarintField(buf, 5, m.InvokeTime)
	return buf
}

func decodeOneWayCallEntryMessage(body []byte) (*OneWayCallEntryMessage, error) {
	m := &OneWayCallEntryMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.ServiceName = string(v)
		case 2:
			m.HandlerName = string(v)
		case 3:
			m.Key = string(v)
		case 4:
			m.Parameter = append([]byte(nil), v...)
		case 5:
			m.InvokeTime = n
		}
		return nil
	})
	return m, err
}

// AwakeableEntryMessage is completable: it resolves when a matching
// ResolveAwakeable/RejectAwakeable completion arrives for its index.
type AwakeableEntryMessage struct {
	Value   []byte
	Failure *Failure
	ready   bool
}

func (m *AwakeableEntryMessage) Type() MessageType { return AwakeableEntryMessageType }
func (m *AwakeableEntryMessage) MarshalBody() []byte {
	var buf []byte
	if m.Failure != nil {
		var f []byte
		f = appendVarintField(f, 1, uint64(m.Failure.Code))
		f = appendStringField(f, 2, m.Failure.Message)
		buf = appendBytesField(buf, 2, f)
	} else if m.ready {
		buf = appendBytesField(buf, 1, m.Value)
	}
	return buf
}
func (m *AwakeableEntryMessage) SetValue(value []byte) { m.Value = value; m.ready = true }
func (m *AwakeableEntryMessage) SetFailure(code uint32, message string) {
	m.Failure = &Failure{Code: code, Message: message}
}
func (m *AwakeableEntryMessage) completedFlag() bool { return m.ready || m.Failure != nil }
func (m *AwakeableEntryMessage) Ready() bool { return m.completedFlag() }

func decodeAwakeableEntryMessage(body []byte) (*AwakeableEntryMessage, error) {
	m := &AwakeableEntryMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.Value = append([]byte(nil), v...)
			m.ready = true
		case 2:
			f := &Failure{}
			_ = consumeFields(v, func(n2 protowire.Number, t2 protowire.Type, v2 []byte, u2 uint64) error {
				switch n2 {
				case 1:
					f.Code = uint32(u2)
				case 2:
					f.Message = string(v2)
				}
				return nil
			})
			m.Failure = f
		}
		return nil
	})
	return m, err
}

// CompleteAwakeableEntryMessage is completed-on-append: it resolves or
// rejects an awakeable addressed by its externally-visible id, issued
// by this invocation or a peer.
type CompleteAwakeableEntryMessage struct {
	Id      string
	Resolve bool
	Value   []byte
	Failure *Failure
}

func (m *CompleteAwakeableEntryMessage) Type() MessageType { return CompleteAwakeableEntryMessageType }
func (m *CompleteAwakeableEntryMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendStringField(buf, 1, m.Id)
	if m.Resolve {
		buf = appendBytesField(buf, 2, m.Value)
	} else if m.Failure != nil {
		var f []byte
		f = appendVarintField(f, 1, uint64(m.Failure.Code))
		f = appendStringField(f, 2, m.Failure.Message)
		buf = appendBytesField(buf, 3, f)
	}
	return buf
}

func decodeCompleteAwakeableEntryMessage(body []byte) (*CompleteAwakeableEntryMessage, error) {
	m := &CompleteAwakeableEntryMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.Id = string(v)
		case 2:
			m.Value = append([]byte(nil), v...)
			m.Resolve = true
		case 3:
			f := &Failure{}
			_ = consumeFields(v, func(n2 protowire.Number, t2 protowire.Type, v2 []byte, u2 uint64) error {
				switch n2 {
				case 1:
					f.Code = uint32(u2)
				case 2:
					f.Message = string(v2)
				}
				return nil
			})
			m.Failure = f
		}
		return nil
	})
	return m, err
}

// RunEntryMessage journals the result of a side effect. In bidi mode it
// is completable (awaited to guarantee ordering before suspension); in
// the committed/request-response variant it is completed-on-append.
type RunEntryMessage struct {
	Name    string
	Value   []byte
	Failure *Failure
	ready   bool
}

func (m *RunEntryMessage) Type() MessageType { return RunEntryMessageType }
func (m *RunEntryMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendStringField(buf, 1, m.Name)
	if m.Failure != nil {
		var f []byte
		f = appendVarintField(f, 1, uint64(m.Failure.Code))
		f = appendStringField(f, 2, m.Failure.Message)
		buf = appendBytesField(buf, 3, f)
	} else {
		buf = appendBytesField(buf, 2, m.Value)
	}
	return buf
}
func (m *RunEntryMessage) SetValue(value []byte) { m.Value = value; m.ready = true }
func (m *RunEntryMessage) SetFailure(code uint32, message string) {
	m.Failure = &Failure{Code: code, Message: message}
	m.ready = true
}
func (m *RunEntryMessage) completedFlag() bool { return true }
func (m *RunEntryMessage) Ready() bool { return m.ready }

func decodeRunEntryMessage(body []byte) (*RunEntryMessage, error) {
	m := &RunEntryMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.Name = string(v)
		case 2:
			m.Value = append([]byte(nil), v...)
			m.ready = true
		case 3:
			f := &Failure{}
			_ = consumeFields(v, func(n2 protowire.Number, t2 protowire.Type, v2 []byte, u2 uint64) error {
				switch n2 {
				case 1:
					f.Code = uint32(u2)
				case 2:
					f.Message = string(v2)
				}
				return nil
			})
			m.Failure = f
		}
		return nil
	})
	return m, err
}

// CompletionMessage is delivered by the runtime for a previously
// appended completable entry.
type CompletionMessage struct {
	EntryIndex uint32
	Empty      bool
	Value      []byte
	Failure    *Failure
}

func (m *CompletionMessage) Type() MessageType { return CompletionMessageType }
func (m *CompletionMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendVarintField(buf, 1, uint64(m.EntryIndex))
	if m.Failure != nil {
		var f []byte
		f = appendVarintField(f, 1, uint64(m.Failure.Code))
		f = appendStringField(f, 2, m.Failure.Message)
		buf = appendBytesField(buf, 4, f)
	} else if m.Empty {
		buf = appendBoolField(buf, 2, true)
	} else {
		buf = appendBytesField(buf, 3, m.Value)
	}
	return buf
}

func decodeCompletionMessage(body []byte) (*CompletionMessage, error) {
	m := &CompletionMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case 1:
			m.EntryIndex = uint32(n)
		case 2:
			m.Empty = n != 0
		case 3:
			m.Value = append([]byte(nil), v...)
		case 4:
			f := &Failure{}
			_ = consumeFields(v, func(n2 protowire.Number, t2 protowire.Type, v2 []byte, u2 uint64) error {
				switch n2 {
				case 1:
					f.Code = uint32(u2)
				case 2:
					f.Message = string(v2)
				}
				return nil
			})
			m.Failure = f
		}
		return nil
	})
	return m, err
}

// AckMessage acknowledges that a journal entry (usually a RunEntry) has
// been durably persisted by the runtime.
type AckMessage struct {
	EntryIndex uint32
}

func (m *AckMessage) Type() MessageType   { return AckMessageType }
func (m *AckMessage) MarshalBody() []byte { return appendVarintField(nil, 1, uint64(m.EntryIndex)) }

func decodeAckMessage(body []byte) (*AckMessage, error) {
	m := &AckMessage{}
	err := consumeFields(body, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		if num == 1 {
			m.EntryIndex = uint32(n)
		}
		return nil
	})
	return m, err
}
