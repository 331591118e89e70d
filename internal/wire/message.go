// Package wire implements the Codec component of the invocation
// protocol: a pure, allocation-light transformation between a stream of
// length-prefixed binary frames and the tagged Message variants the
// state machine operates on. It does not hold any per-invocation state.
package wire

import "fmt"

// MessageType tags the wire-level kind of a frame. Values are grouped by
// category the same way the real protocol groups them, so a reader can
// tell a control message from a journal entry by its high bits.
type MessageType uint16

const (
	StartMessageType    MessageType = 0x0000
	InputEntryMessageType    MessageType = 0x0400
	OutputEntryMessageType   MessageType = 0x0401

	GetStateEntryMessageType      MessageType = 0x0800
	SetStateEntryMessageType      MessageType = 0x0801
	ClearStateEntryMessageType    MessageType = 0x0802
	ClearAllStateEntryMessageType MessageType = 0x0803
	GetStateKeysEntryMessageType  MessageType = 0x0804

	SleepEntryMessageType               MessageType = 0x0c00
	CallEntryMessageType                MessageType = 0x0c01
	OneWayCallEntryMessageType           MessageType = 0x0c02
	AwakeableEntryMessageType            MessageType = 0x0c03
	CompleteAwakeableEntryMessageType    MessageType = 0x0c04
	RunEntryMessageType                  MessageType = 0x0c05

	CompletionMessageType MessageType = 0x8000
	SuspensionMessageType MessageType = 0x8001
	ErrorMessageType       MessageType = 0x8002
	EndMessageType         MessageType = 0x8003
	AckMessageType         MessageType = 0x8004
)

func (t MessageType) UInt32() uint32 {
	return uint32(t)
}

func (t MessageType) String() string {
	switch t {
	case StartMessageType:
		return "Start"
	case InputEntryMessageType:
		return "InputEntry"
	case OutputEntryMessageType:
		return "OutputEntry"
	case GetStateEntryMessageType:
		return "GetStateEntry"
	case SetStateEntryMessageType:
		return "SetStateEntry"
	case ClearStateEntryMessageType:
		return "ClearStateEntry"
	case ClearAllStateEntryMessageType:
		return "ClearAllStateEntry"
	case GetStateKeysEntryMessageType:
		return "GetStateKeysEntry"
	case SleepEntryMessageType:
		return "SleepEntry"
	case CallEntryMessageType:
		return "CallEntry"
	case OneWayCallEntryMessageType:
		return "OneWayCallEntry"
	case AwakeableEntryMessageType:
		return "AwakeableEntry"
	case CompleteAwakeableEntryMessageType:
		return "CompleteAwakeableEntry"
	case RunEntryMessageType:
		return "RunEntry"
	case CompletionMessageType:
		return "Completion"
	case SuspensionMessageType:
		return "Suspension"
	case ErrorMessageType:
		return "Error"
	case EndMessageType:
		return "End"
	case AckMessageType:
		return "Ack"
	default:
		return fmt.Sprintf("Unknown(%#04x)", uint16(t))
	}
}

// IsJournalEntry reports whether this message type denotes a journal
// entry (as opposed to a control message).
func (t MessageType) IsJournalEntry() bool {
	switch t {
	case InputEntryMessageType, OutputEntryMessageType,
		GetStateEntryMessageType, SetStateEntryMessageType,
		ClearStateEntryMessageType, ClearAllStateEntryMessageType,
		GetStateKeysEntryMessageType, SleepEntryMessageType,
		CallEntryMessageType, OneWayCallEntryMessageType,
		AwakeableEntryMessageType, CompleteAwakeableEntryMessageType,
		RunEntryMessageType:
		return true
	default:
		return false
	}
}

// Header is the fixed-size frame prefix: message type, flag bits, and
// the length in bytes of the body that follows.
type Header struct {
	Type        MessageType
	Completed   bool
	RequiresAck bool
	Length      uint32
}

const (
	flagCompleted   uint16 = 0x0001
	flagRequiresAck uint16 = 0x0002
)

// Message is the decoded, in-memory form of one frame. Every concrete
// message type in this package implements it.
type Message interface {
	Type() MessageType
	// MarshalBody encodes the message body (without the frame header).
	MarshalBody() []byte
}

// CompleteableMessage is a journal entry message that can transition
// from NotReady to a terminal result via a Completion.
type CompleteableMessage interface {
	Message
	SetValue(value []byte)
	SetFailure(code uint32, message string)
	// Ready reports whether this entry already carries a terminal
	// result (because it was resolved eagerly, or because it was
	// replayed already-completed) and therefore needs no Completion.
	Ready() bool
}

// AckableMessage is a journal entry message whose append must be
// acknowledged by the runtime before the handler can proceed past it
// (used by RunEntry in the bidirectional transport).
type AckableMessage interface {
	Message
}
