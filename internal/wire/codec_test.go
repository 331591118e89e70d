package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip encodes msg, decodes the resulting buffer, and returns the
// single decoded Message, asserting decode∘encode = id on the wire
// bytes (property 1, spec §8).
func roundTrip(t *testing.T, msg Message) Message {
	t.Helper()
	encoded := Encode(msg)
	decoded, err := DecodeBuffer(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	return decoded[0]
}

func TestCodecRoundTrip(t *testing.T) {
	idx := uint32(7)

	cases := []struct {
		name string
		msg  Message
	}{
		{"Start", &StartMessage{
			Id: []byte("inv-1"), DebugId: "dbg-1", Key: "key-1",
			KnownEntries: 3,
			StateMap:     []StateEntry{{Key: []byte("a"), Value: []byte("b")}},
			PartialState: true,
		}},
		{"InputEntry", &InputEntryMessage{Value: []byte("hello")}},
		{"OutputEntryValue", &OutputEntryMessage{Value: []byte("world")}},
		{"OutputEntryFailure", &OutputEntryMessage{Failure: &Failure{Code: 500, Message: "boom"}}},
		{"End", &EndMessage{}},
		{"Suspension", &SuspensionMessage{EntryIndexes: []uint32{1, 3, 5}}},
		{"Error", &ErrorMessage{Code: 571, Message: "bad", Description: "desc", RelatedEntryIndex: &idx, RelatedEntryType: 2}},
		{"GetStateEntryValue", &GetStateEntryMessage{Key: []byte("k"), Value: []byte("v"), ready: true}},
		{"GetStateEntryEmpty", &GetStateEntryMessage{Key: []byte("k"), Empty: true}},
		{"SetStateEntry", &SetStateEntryMessage{Key: []byte("k"), Value: []byte("v")}},
		{"ClearStateEntry", &ClearStateEntryMessage{Key: []byte("k")}},
		{"ClearAllStateEntry", &ClearAllStateEntryMessage{}},
		{"GetStateKeysEntry", &GetStateKeysEntryMessage{Keys: [][]byte{[]byte("a"), []byte("b")}}},
		{"SleepEntry", &SleepEntryMessage{WakeUpTime: 123456}},
		{"CallEntry", &CallEntryMessage{ServiceName: "svc", HandlerName: "h", Key: "k", Parameter: []byte("p")}},
		{"OneWayCallEntry", &OneWayCallEntryMessage{ServiceName: "svc", HandlerName: "h", Parameter: []byte("p"), InvokeTime: 99}},
		{"AwakeableEntry", &AwakeableEntryMessage{}},
		{"CompleteAwakeableEntryResolve", &CompleteAwakeableEntryMessage{Id: "prom_1abc", Resolve: true, Value: []byte("v")}},
		{"CompleteAwakeableEntryReject", &CompleteAwakeableEntryMessage{Id: "prom_1abc", Failure: &Failure{Code: 1, Message: "no"}}},
		{"RunEntry", &RunEntryMessage{Name: "run", Value: []byte("v")}},
		{"Completion", &CompletionMessage{EntryIndex: 4, Value: []byte("v")}},
		{"CompletionEmpty", &CompletionMessage{EntryIndex: 2, Empty: true}},
		{"Ack", &AckMessage{EntryIndex: 9}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded := roundTrip(t, tc.msg)
			assert.Equal(t, tc.msg.Type(), decoded.Type())
			assert.Equal(t, tc.msg.MarshalBody(), decoded.MarshalBody())
		})
	}
}

func TestEncodeSetsCompletedFlagFromReadyMessages(t *testing.T) {
	notReady := &GetStateEntryMessage{Key: []byte("k")}
	framed := Encode(notReady)
	h, err := decodeHeader(framed[:headerSize])
	require.NoError(t, err)
	assert.False(t, h.Completed)

	ready := &GetStateEntryMessage{Key: []byte("k"), Value: []byte("v"), ready: true}
	framed = Encode(ready)
	h, err = decodeHeader(framed[:headerSize])
	require.NoError(t, err)
	assert.True(t, h.Completed)
}

func TestEncodeSetsCompletedOnAppendEntries(t *testing.T) {
	framed := Encode(&SetStateEntryMessage{Key: []byte("k"), Value: []byte("v")})
	h, err := decodeHeader(framed[:headerSize])
	require.NoError(t, err)
	assert.True(t, h.Completed)
}

func TestDecodeBufferMultipleFrames(t *testing.T) {
	var buf []byte
	buf = append(buf, Encode(&InputEntryMessage{Value: []byte("a")})...)
	buf = append(buf, Encode(&EndMessage{})...)

	msgs, err := DecodeBuffer(buf)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.IsType(t, &InputEntryMessage{}, msgs[0])
	assert.IsType(t, &EndMessage{}, msgs[1])
}

func TestDecodeBufferTruncatedHeader(t *testing.T) {
	_, err := DecodeBuffer([]byte{0x00, 0x01, 0x02})
	require.Error(t, err)
	var decodeErr *ProtocolDecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestDecodeBufferTruncatedBody(t *testing.T) {
	framed := Encode(&InputEntryMessage{Value: []byte("hello world")})
	_, err := DecodeBuffer(framed[:len(framed)-2])
	require.Error(t, err)
}

func TestDecodeBufferUnknownMessageType(t *testing.T) {
	h := encodeHeader(Header{Type: MessageType(0x9999), Length: 0})
	_, err := DecodeBuffer(h)
	require.Error(t, err)
}

func TestProtocolReadWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	p := NewProtocol(&buf)

	require.NoError(t, p.Write(&InputEntryMessage{Value: []byte("ping")}))
	require.NoError(t, p.Write(&EndMessage{}))

	msg1, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, InputEntryMessageType, msg1.Type())

	msg2, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, EndMessageType, msg2.Type())
}
