package state

import (
	"fmt"
	"time"

	flowcore "github.com/flowcore/sdk-go"
	"github.com/flowcore/sdk-go/internal/futures"
)

// selectorFacade adapts *futures.Selector (package-private Selectable
// children) to the public flowcore.Selector surface.
type selectorFacade struct {
	s *futures.Selector
}

func (s selectorFacade) Select() (futures.Selectable, error) { return s.s.Select() }
func (s selectorFacade) Remaining() int                      { return s.s.Remaining() }

// Selector builds a combinator aggregator over futs, in the order they
// were registered. Combining zero futures is a caller error: there is
// nothing to ever select.
func (c *Context) Selector(futs ...futures.Selectable) (flowcore.Selector, error) {
	c.checkNotInSideEffect("selector")
	if len(futs) == 0 {
		return nil, fmt.Errorf("state: Selector requires at least one future")
	}
	return selectorFacade{futures.NewSelector(c.m.suspensionCtx, futs...)}, nil
}

// OrTimeout races target against an auxiliary Sleep of duration d: if
// target resolves first, OrTimeout returns nil and the caller reads
// target's own result as usual; if the deadline elapses first, it
// returns futures.TimeoutError without waiting any further on target.
func (c *Context) OrTimeout(target futures.Selectable, d time.Duration) error {
	c.checkNotInSideEffect("timeout")

	sleep := c.sleepFuture(d)
	sel := futures.NewSelector(c.m.suspensionCtx, target, sleep)

	picked, err := sel.Select()
	if err != nil {
		return err
	}
	if picked == futures.Selectable(sleep) {
		return futures.TimeoutError{}
	}
	return nil
}
