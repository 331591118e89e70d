package main

import (
	"io"
	"log"

	flowcore "github.com/flowcore/sdk-go"
	"github.com/flowcore/sdk-go/internal/state"
)

// newMachine is the one place outside internal/state allowed to
// construct a *state.Machine: flowcore.Server depends on it only
// through the flowcore.MachineRunner function type, so the root
// package never has to import internal/state (which itself imports
// flowcore for Context/Handler) and no import cycle results.
func newMachine(handler flowcore.Handler, conn io.ReadWriter, mode flowcore.ProtocolMode, serviceName, handlerName string) flowcore.Invocation {
	return state.NewMachine(handler, conn, mode, serviceName, handlerName)
}

func main() {
	srv := flowcore.NewServer(newMachine).
		Bind(health).
		Bind(bigCounter).
		Bind(checkoutService)

	log.Fatal(srv.Listen(":9080"))
}
