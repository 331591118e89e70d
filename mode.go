package flowcore

// ProtocolMode is the transport shape an invocation runs under,
// reported at discovery time per §6.
type ProtocolMode int

const (
	// BidiStream is the default, fully-duplex transport: the handler
	// may suspend and the runtime may resume it later over a new
	// connection, replaying the journal.
	BidiStream ProtocolMode = iota
	// RequestResponse buffers the entire journal into one request and
	// one response; the handler must run to completion without
	// suspending.
	RequestResponse
)

func (m ProtocolMode) String() string {
	if m == RequestResponse {
		return "RequestResponse"
	}
	return "BidiStream"
}
