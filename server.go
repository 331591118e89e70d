package flowcore

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Invocation is the handle an invocation runner returns: Start blocks
// (cooperatively) until the invocation suspends or the connection
// closes. It is satisfied directly by *state.Machine; Server never
// imports internal/state itself (that would cycle back through
// internal/state's own import of this package), so the caller supplies
// a MachineRunner that does.
type Invocation interface {
	Start(ctx context.Context) error
}

// MachineRunner constructs the Invocation that drives one connection
// for handler, over conn, under the given protocol mode. Passed to
// NewServer by the binary wiring cmd (see example/main.go), which is
// the one place in the module allowed to import both this package and
// internal/state.
type MachineRunner func(handler Handler, conn io.ReadWriter, mode ProtocolMode, serviceName, handlerName string) Invocation

// ServerVersion is reported in the x-restate-server response header on
// every request, identifying this SDK's build.
const ServerVersion = "flowcore-sdk-go/0.1"

const invocationContentType = "application/vnd.restate.invocation.v1"

// Server binds Services to a duplex HTTP/2 transport and a discovery
// endpoint, matching the path/content-type contract described in the
// core spec's external-interfaces section.
type Server struct {
	services   map[string]*Service
	newMachine MachineRunner
	mode       ProtocolMode
	validator  RequestValidator
	log        zerolog.Logger
}

// NewServer builds a Server that drives invocations with newMachine.
// Mode defaults to BidiStream; override with WithMode.
func NewServer(newMachine MachineRunner) *Server {
	return &Server{
		services:   map[string]*Service{},
		newMachine: newMachine,
		mode:       BidiStream,
		log:        zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
}

// Bind registers svc's handlers under its name. Returns s for chaining.
func (s *Server) Bind(svc *Service) *Server {
	s.services[svc.Name()] = svc
	return s
}

// WithMode overrides the protocol mode advertised at discovery and
// used to drive every invocation. Returns s for chaining.
func (s *Server) WithMode(mode ProtocolMode) *Server {
	s.mode = mode
	return s
}

// WithValidator installs a RequestValidator checked before both the
// discovery and invoke paths are served.
func (s *Server) WithValidator(v RequestValidator) *Server {
	s.validator = v
	return s
}

// Handler builds the http.Handler implementing the transport contract:
// GET /discover and POST /invoke/<service>/<handler>; any other path
// is 404, and a missing/unsupported content-type on /invoke is 415.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/discover", s.serveDiscover)
	mux.HandleFunc("/invoke/", s.serveInvoke)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return s.withCommonHeaders(mux)
}

func (s *Server) withCommonHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-restate-server", ServerVersion)
		if s.validator != nil {
			if err := s.validator.Validate(r); err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) serveInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ct := r.Header.Get("content-type")
	if !strings.HasPrefix(ct, invocationContentType) {
		http.Error(w, "unsupported content-type", http.StatusUnsupportedMediaType)
		return
	}

	serviceName, handlerName, ok := parseInvokePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	svc, ok := s.services[serviceName]
	if !ok {
		http.NotFound(w, r)
		return
	}
	handler, ok := svc.handler(handlerName)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("content-type", invocationContentType)
	w.WriteHeader(http.StatusOK)

	conn := &duplexStream{r: r.Body, w: w}
	inv := s.newMachine(handler, conn, s.mode, serviceName, handlerName)
	if err := inv.Start(r.Context()); err != nil {
		s.log.Error().Err(err).Str("service", serviceName).Str("handler", handlerName).Msg("invocation ended with error")
	}
}

func parseInvokePath(path string) (service, handler string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/invoke/")
	if trimmed == path {
		return "", "", false
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// duplexStream adapts an http.ResponseWriter/request body pair to
// io.ReadWriter, flushing after every Write so bidirectional-mode
// frames reach the peer without buffering in the response writer.
type duplexStream struct {
	r io.ReadCloser
	w http.ResponseWriter
}

func (d *duplexStream) Read(p []byte) (int, error) { return d.r.Read(p) }

func (d *duplexStream) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	if f, ok := d.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}

// Listen serves Handler over cleartext HTTP/2 (h2c) at addr, the
// transport the duplex stream protocol needs since invocation frames
// must flow both ways without waiting for the response to start.
func (s *Server) Listen(addr string) error {
	h2s := &http2.Server{}
	handler := h2c.NewHandler(s.Handler(), h2s)
	httpServer := &http.Server{Addr: addr, Handler: handler}
	s.log.Info().Str("addr", addr).Msg("listening")
	return httpServer.ListenAndServe()
}

