package flowcore

import "encoding/json"

// HandlerKind distinguishes a stateless (Unkeyed) service handler from
// one keyed on an object/virtual-object identity (Keyed). Discovery
// reports this per handler so the runtime can route by key when
// required.
type HandlerKind int

const (
	Unkeyed HandlerKind = iota
	Keyed
)

func (k HandlerKind) String() string {
	if k == Keyed {
		return "Keyed"
	}
	return "Unkeyed"
}

// Handler is the type-erased entry point the invocation state machine
// calls into: raw request bytes in, raw response bytes (or an error)
// out. NewServiceHandler/NewObjectHandler adapt a typed Go function to
// this interface using JSON marshalling, matching the convention
// example/utils.go and example/checkout.go already use.
type Handler interface {
	Call(ctx Context, input []byte) ([]byte, error)
	Kind() HandlerKind
}

type typedHandler[I, O any] struct {
	kind HandlerKind
	fn   func(ctx Context, input I) (O, error)
}

func (h *typedHandler[I, O]) Kind() HandlerKind { return h.kind }

func (h *typedHandler[I, O]) Call(ctx Context, input []byte) ([]byte, error) {
	var in I
	if len(input) > 0 {
		if err := json.Unmarshal(input, &in); err != nil {
			return nil, TerminalError(err)
		}
	}
	out, err := h.fn(ctx, in)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// NewServiceHandler adapts fn for registration on an unkeyed service.
func NewServiceHandler[I, O any](fn func(ctx Context, input I) (O, error)) Handler {
	return &typedHandler[I, O]{kind: Unkeyed, fn: fn}
}

// NewObjectHandler adapts fn for registration on a keyed object; ctx is
// an ObjectContext (which embeds Context and adds nothing to it), so
// callers that want the key call ctx.Key().
func NewObjectHandler[I, O any](fn func(ctx ObjectContext, input I) (O, error)) Handler {
	return &typedHandler[I, O]{kind: Keyed, fn: func(ctx Context, input I) (O, error) {
		return fn(ctx, input)
	}}
}

// Service is a named collection of handlers, built fluently:
//
//	flowcore.NewService("Greeter").
//	    Handler("Greet", flowcore.NewServiceHandler(greet))
type Service struct {
	name     string
	handlers map[string]Handler
}

func NewService(name string) *Service {
	return &Service{name: name, handlers: map[string]Handler{}}
}

func NewObject(name string) *Service {
	return &Service{name: name, handlers: map[string]Handler{}}
}

func (s *Service) Handler(name string, h Handler) *Service {
	s.handlers[name] = h
	return s
}

func (s *Service) Name() string { return s.name }

func (s *Service) handler(name string) (Handler, bool) {
	h, ok := s.handlers[name]
	return h, ok
}
