package futures

import (
	"context"
	"reflect"

	"github.com/flowcore/sdk-go/internal/wire"
)

// Selector is the synthetic, non-journaled aggregator behind the
// Context's promise combinators. It is constructed over a fixed set of
// Selectable children (registered in the order the caller passed them,
// which is also journal-index order for indices assigned on the same
// tick) and reports which child resolves first each time Select is
// called.
type Selector struct {
	ctx   context.Context
	cases []reflect.SelectCase
	order []Selectable
}

// NewSelector builds a Selector over futs. futs must be registered in
// the order the caller invoked the underlying operations; combinators
// do not reorder children.
func NewSelector(ctx context.Context, futs ...Selectable) *Selector {
	s := &Selector{ctx: ctx, order: append([]Selectable(nil), futs...)}
	s.rebuild()
	return s
}

func (s *Selector) rebuild() {
	cases := make([]reflect.SelectCase, 0, len(s.order)+1)
	for _, f := range s.order {
		cases = append(cases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(f.done()),
		})
	}
	cases = append(cases, reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(s.ctx.Done()),
	})
	s.cases = cases
}

// Remaining reports how many children have not yet resolved.
func (s *Selector) Remaining() int { return len(s.order) }

// Select blocks until the next child resolves and returns it. The
// child is removed from the selector so a later Select call does not
// return it again. If no child can ever resolve (the selector's
// context is done), Select panics with *wire.SuspensionPanic carrying
// every still-pending child's index, so the invocation boundary can
// emit a single Suspension message listing all of them at once.
func (s *Selector) Select() (Selectable, error) {
	if len(s.order) == 0 {
		return nil, context.Canceled
	}
	chosen, _, _ := reflect.Select(s.cases)
	if chosen == len(s.order) {
		indexes := make([]uint32, len(s.order))
		for i, f := range s.order {
			indexes[i] = f.Index()
		}
		panic(&wire.SuspensionPanic{Err: context.Cause(s.ctx), EntryIndexes: indexes})
	}
	picked := s.order[chosen]
	s.order = append(s.order[:chosen], s.order[chosen+1:]...)
	s.rebuild()
	return picked, nil
}

// All blocks until every future in futs has resolved, in whatever
// order they actually complete.
func All(ctx context.Context, futs ...Selectable) error {
	sel := NewSelector(ctx, futs...)
	for sel.Remaining() > 0 {
		if _, err := sel.Select(); err != nil {
			return err
		}
	}
	return nil
}

// Race returns the first future to resolve, leaving the rest pending.
func Race(ctx context.Context, futs ...Selectable) (Selectable, error) {
	sel := NewSelector(ctx, futs...)
	return sel.Select()
}

// Any returns the first future to resolve; callers distinguish success
// from failure by inspecting the returned Selectable's concrete result.
func Any(ctx context.Context, futs ...Selectable) (Selectable, error) {
	return Race(ctx, futs...)
}

// AllSettled blocks until every future has resolved and returns them in
// resolution order (not input order), mirroring the other combinators'
// non-reordering-of-registration/reordering-of-results semantics.
func AllSettled(ctx context.Context, futs ...Selectable) ([]Selectable, error) {
	sel := NewSelector(ctx, futs...)
	settled := make([]Selectable, 0, len(futs))
	for sel.Remaining() > 0 {
		f, err := sel.Select()
		if err != nil {
			return settled, err
		}
		settled = append(settled, f)
	}
	return settled, nil
}
