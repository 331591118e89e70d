package flowcore

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// discoveryHandler describes one registered handler in the discovery
// manifest.
type discoveryHandler struct {
	Name string `json:"name"`
	Kind string `json:"ty"`
}

type discoveryService struct {
	Name     string             `json:"name"`
	Handlers []discoveryHandler `json:"handlers"`
}

type discoveryManifest struct {
	ProtocolMode string             `json:"protocolMode"`
	Services     []discoveryService `json:"services"`
}

// serveDiscover answers GET /discover with the registered
// services/handlers and the protocol mode every invocation on this
// server runs under.
func (s *Server) serveDiscover(w http.ResponseWriter, r *http.Request) {
	manifest := discoveryManifest{ProtocolMode: s.mode.String()}
	for _, svc := range s.services {
		ds := discoveryService{Name: svc.Name()}
		for name, h := range svc.handlers {
			ds.Handlers = append(ds.Handlers, discoveryHandler{Name: name, Kind: h.Kind().String()})
		}
		manifest.Services = append(manifest.Services, ds)
	}

	w.Header().Set("content-type", "application/json")
	if err := json.NewEncoder(w).Encode(manifest); err != nil {
		http.Error(w, fmt.Sprintf("encode discovery manifest: %v", err), http.StatusInternalServerError)
	}
}
