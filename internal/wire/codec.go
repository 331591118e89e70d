package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"
)

// ProtocolDecodeError is returned by DecodeBuffer for truncated frames,
// unknown mandatory message types, or a body length that would overflow
// the remaining buffer. Protocol.Read returns it for an unknown message
// type or a malformed body; a short read there surfaces as the
// underlying io error instead.
type ProtocolDecodeError struct {
	Reason string
}

func (e *ProtocolDecodeError) Error() string {
	return fmt.Sprintf("protocol decode error: %s", e.Reason)
}

// ErrUnexpectedMessage is returned when the protocol requires the next
// message to be of a specific type (e.g. Start, then Input) and it is
// not.
var ErrUnexpectedMessage = fmt.Errorf("wire: unexpected message type")

const headerSize = 8

// encodeHeader writes the 8-byte frame header: 2 bytes message type, 2
// bytes flags, 4 bytes body length, all big-endian.
func encodeHeader(h Header) []byte {
	buf := make([]byte, headerSize)
	binary.BigEndian.PutUint16(buf[0:2], uint16(h.Type))
	var flags uint16
	if h.Completed {
		flags |= flagCompleted
	}
	if h.RequiresAck {
		flags |= flagRequiresAck
	}
	binary.BigEndian.PutUint16(buf[2:4], flags)
	binary.BigEndian.PutUint32(buf[4:8], h.Length)
	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, &ProtocolDecodeError{Reason: "truncated header"}
	}
	typ := MessageType(binary.BigEndian.Uint16(buf[0:2]))
	flags := binary.BigEndian.Uint16(buf[2:4])
	length := binary.BigEndian.Uint32(buf[4:8])
	return Header{
		Type:        typ,
		Completed:   flags&flagCompleted != 0,
		RequiresAck: flags&flagRequiresAck != 0,
		Length:      length,
	}, nil
}

// Encode serializes a single Message into a self-contained frame
// (header + body). It never fails for in-range values.
func Encode(msg Message) []byte {
	body := msg.MarshalBody()
	h := Header{Type: msg.Type(), Length: uint32(len(body))}
	if cm, ok := msg.(CompleteableMessage); ok {
		h.Completed = cm.Ready()
	} else if msg.Type().IsJournalEntry() {
		// completed-on-append entries (SetState, ClearState,
		// ClearAllState, OneWayCall, CompleteAwakeable, Input, Output)
		h.Completed = true
	}
	out := make([]byte, 0, headerSize+len(body))
	out = append(out, encodeHeader(h)...)
	out = append(out, body...)
	return out
}

// DecodeBuffer decodes every complete frame present in buf. It fails
// with a *ProtocolDecodeError on truncation, an unknown mandatory type,
// or a declared length that exceeds the remaining bytes.
func DecodeBuffer(buf []byte) ([]Message, error) {
	var msgs []Message
	for len(buf) > 0 {
		if len(buf) < headerSize {
			return nil, &ProtocolDecodeError{Reason: "truncated header at end of buffer"}
		}
		h, err := decodeHeader(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[headerSize:]
		if uint32(len(buf)) < h.Length {
			return nil, &ProtocolDecodeError{Reason: "truncated body"}
		}
		body := buf[:h.Length]
		buf = buf[h.Length:]

		msg, err := decodeBody(h, body)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func decodeBody(h Header, body []byte) (Message, error) {
	switch h.Type {
	case StartMessageType:
		return decodeStartMessage(body)
	case InputEntryMessageType:
		return decodeInputEntryMessage(body)
	case OutputEntryMessageType:
		return decodeOutputEntryMessage(body)
	case EndMessageType:
		return &EndMessage{}, nil
	case SuspensionMessageType:
		return decodeSuspensionMessage(body)
	case ErrorMessageType:
		return decodeErrorMessage(body)
	case GetStateEntryMessageType:
		return decodeGetStateEntryMessage(body)
	case SetStateEntryMessageType:
		return decodeSetStateEntryMessage(body)
	case ClearStateEntryMessageType:
		return decodeClearStateEntryMessage(body)
	case ClearAllStateEntryMessageType:
		return &ClearAllStateEntryMessage{}, nil
	case GetStateKeysEntryMessageType:
		return decodeGetStateKeysEntryMessage(body)
	case SleepEntryMessageType:
		return decodeSleepEntryMessage(body)
	case CallEntryMessageType:
		return decodeCallEntryMessage(body)
	case OneWayCallEntryMessageType:
		return decodeOneWayCallEntryMessage(body)
	case AwakeableEntryMessageType:
		return decodeAwakeableEntryMessage(body)
	case CompleteAwakeableEntryMessageType:
		return decodeCompleteAwakeableEntryMessage(body)
	case RunEntryMessageType:
		return decodeRunEntryMessage(body)
	case CompletionMessageType:
		return decodeCompletionMessage(body)
	case AckMessageType:
		return decodeAckMessage(body)
	default:
		return nil, &ProtocolDecodeError{Reason: fmt.Sprintf("unknown mandatory message type %s", h.Type)}
	}
}

// --- low level protowire helpers shared by messages.go ---

func appendBytesField(buf []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	buf = protowire.AppendBytes(buf, v)
	return buf
}

func appendStringField(buf []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return buf
	}
	return appendBytesField(buf, num, []byte(v))
}

func appendVarintField(buf []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	buf = protowire.AppendVarint(buf, v)
	return buf
}

func appendBoolField(buf []byte, num protowire.Number, v bool) []byte {
	if !v {
		return buf
	}
	return appendVarintField(buf, num, 1)
}

// consumeFields walks every (number, value) pair in buf, handing bytes-
// and varint-typed fields to fn. Unknown field numbers are ignored,
// matching protobuf's forward-compatible decoding rule.
func consumeFields(buf []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error) error {
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return &ProtocolDecodeError{Reason: "malformed field tag"}
		}
		buf = buf[n:]
		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return &ProtocolDecodeError{Reason: "malformed length-delimited field"}
			}
			if err := fn(num, typ, v, 0); err != nil {
				return err
			}
			buf = buf[n:]
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return &ProtocolDecodeError{Reason: "malformed varint field"}
			}
			if err := fn(num, typ, nil, v); err != nil {
				return err
			}
			buf = buf[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return &ProtocolDecodeError{Reason: "malformed field"}
			}
			buf = buf[n:]
		}
	}
	return nil
}

// Protocol wraps a duplex byte stream with frame-at-a-time Read/Write,
// serializing writes so concurrent goroutines (the handler task and the
// completion reader) cannot interleave partial frames.
type Protocol struct {
	r *bufio.Reader
	w io.Writer

	writeMu sync.Mutex
}

func NewProtocol(conn io.ReadWriter) *Protocol {
	return &Protocol{
		r: bufio.NewReader(conn),
		w: conn,
	}
}

// Read blocks for exactly one frame and decodes it.
func (p *Protocol) Read() (Message, error) {
	headerBuf := make([]byte, headerSize)
	if _, err := io.ReadFull(p.r, headerBuf); err != nil {
		return nil, err
	}
	h, err := decodeHeader(headerBuf)
	if err != nil {
		return nil, err
	}
	body := make([]byte, h.Length)
	if h.Length > 0 {
		if _, err := io.ReadFull(p.r, body); err != nil {
			return nil, err
		}
	}
	return decodeBody(h, body)
}

// Write encodes and flushes a single message frame.
func (p *Protocol) Write(msg Message) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_, err := p.w.Write(Encode(msg))
	return err
}
