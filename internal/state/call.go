package state

import (
	"bytes"
	"encoding/json"
	"time"

	flowcore "github.com/flowcore/sdk-go"
	"github.com/flowcore/sdk-go/internal/futures"
	"github.com/flowcore/sdk-go/internal/wire"
)

var (
	_ flowcore.ServiceClient     = (*serviceProxy)(nil)
	_ flowcore.ServiceSendClient = (*serviceSendProxy)(nil)
	_ flowcore.CallClient        = (*serviceCall)(nil)
	_ flowcore.SendClient        = (*serviceSend)(nil)
)

// Service targets an unkeyed service by name for a request/response
// call; key is empty.
func (c *Context) Service(service string) flowcore.ServiceClient {
	return &serviceProxy{ctx: c, service: service}
}

// ServiceSend is the one-way counterpart of Service, optionally delayed.
func (c *Context) ServiceSend(service string, delay time.Duration) flowcore.ServiceSendClient {
	return &serviceSendProxy{ctx: c, service: service, delay: delay}
}

// Object targets a keyed virtual object by service name and key.
func (c *Context) Object(service, key string) flowcore.ServiceClient {
	return &serviceProxy{ctx: c, service: service, key: key}
}

// ObjectSend is the one-way counterpart of Object, optionally delayed.
func (c *Context) ObjectSend(service, key string, delay time.Duration) flowcore.ServiceSendClient {
	return &serviceSendProxy{ctx: c, service: service, key: key, delay: delay}
}

type serviceProxy struct {
	ctx     *Context
	service string
	key     string
}

func (p *serviceProxy) Method(handler string) flowcore.CallClient {
	return &serviceCall{ctx: p.ctx, service: p.service, key: p.key, handler: handler}
}

type serviceSendProxy struct {
	ctx     *Context
	service string
	key     string
	delay   time.Duration
}

func (p *serviceSendProxy) Method(handler string) flowcore.SendClient {
	return &serviceSend{ctx: p.ctx, service: p.service, key: p.key, handler: handler, delay: p.delay}
}

type serviceCall struct {
	ctx     *Context
	service string
	key     string
	handler string
}

// Request marshals input as JSON, journals a CallEntry, and returns a
// future the caller can block on (Response) or combine via Selector.
// The target and parameter bytes are identifying: on replay they must
// match what user code computed this time, or the journal has
// diverged from a deterministic replay.
func (s *serviceCall) Request(input any) flowcore.ResponseFuture {
	c := s.ctx
	param, err := json.Marshal(input)
	if err != nil {
		return futures.NewFailedResponseFuture(flowcore.TerminalError(err))
	}
	c.checkNotInSideEffect("service call")

	candidate := &wire.CallEntryMessage{
		ServiceName: s.service,
		HandlerName: s.handler,
		Key:         s.key,
		Parameter:   param,
	}
	entry, index, ch := journalAdvance(c.m, candidate, func(replayed *wire.CallEntryMessage) bool {
		return replayed.ServiceName == s.service &&
			replayed.HandlerName == s.handler &&
			replayed.Key == s.key &&
			bytes.Equal(replayed.Parameter, param)
	})
	return futures.NewResponseFuture(c.m.suspensionCtx, entry, index, ch)
}

type serviceSend struct {
	ctx     *Context
	service string
	key     string
	handler string
	delay   time.Duration
}

// Request journals a one-way call entry, optionally delayed, and
// returns immediately: it is completed-on-append and never blocks.
func (s *serviceSend) Request(input any) error {
	c := s.ctx
	param, err := json.Marshal(input)
	if err != nil {
		return flowcore.TerminalError(err)
	}
	c.checkNotInSideEffect("service send")

	var invokeTime uint64
	if s.delay > 0 {
		invokeTime = uint64(time.Now().Add(s.delay).UnixMilli())
	}
	candidate := &wire.OneWayCallEntryMessage{
		ServiceName: s.service,
		HandlerName: s.handler,
		Key:         s.key,
		Parameter:   param,
		InvokeTime:  invokeTime,
	}
	journalAdvance(c.m, candidate, func(replayed *wire.OneWayCallEntryMessage) bool {
		return replayed.ServiceName == s.service &&
			replayed.HandlerName == s.handler &&
			replayed.Key == s.key &&
			bytes.Equal(replayed.Parameter, param)
	})
	return nil
}
