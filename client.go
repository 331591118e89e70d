package flowcore

import "github.com/flowcore/sdk-go/internal/futures"

// ServiceClient picks a handler name on a target service (or keyed
// object) to call or send.
type ServiceClient interface {
	Method(handler string) CallClient
}

// ServiceSendClient is the one-way counterpart of ServiceClient.
type ServiceSendClient interface {
	Method(handler string) SendClient
}

// CallClient issues a request/response RPC. Request marshals input
// (JSON, by convention) and returns a ResponseFuture the caller can
// block on immediately or register with a Selector.
type CallClient interface {
	Request(input any) ResponseFuture
}

// SendClient issues a one-way (fire-and-forget, optionally delayed)
// RPC. It is completed-on-append: Request never blocks.
type SendClient interface {
	Request(input any) error
}

// ResponseFuture is satisfied directly by *futures.ResponseFuture; it
// is spelled out here so the public API does not require callers to
// import the internal package.
type ResponseFuture interface {
	Response() ([]byte, error)
}

// Awakeable is an externally-addressable promise: Id() is handed to an
// out-of-band party, who resolves or rejects it by calling back into
// the runtime with that id. Result blocks until that happens.
type Awakeable[T any] interface {
	Id() string
	Result() (T, error)
}

var (
	_ ResponseFuture      = (*futures.ResponseFuture)(nil)
)
