// Package absint implements the intraprocedural fixpoint solver: worklist
// iteration with widening over a client lattice and transfer function.
package absint

import (
	"context"
	"fmt"

	"github.com/cs-au-dk/fixpoint/analysis/cfg"
	L "github.com/cs-au-dk/fixpoint/analysis/lattice"
	"github.com/cs-au-dk/fixpoint/utils/pq"
)

// Run computes the invariants of every node reachable from the start of v.
// init is the state before the start node and c is passed to every Exec call.
//
// Termination relies on the lattice's widening. Panics raised by the client
// are not recovered. The context is polled between node visits.
func Run[I, E, C any](ctx context.Context, v cfg.View[I], a Analysis[I, E, C], init E, c C) (*InvariantMap[E], error) {
	s := &solver[I, E, C]{
		ctx:  ctx,
		v:    v,
		a:    a,
		lat:  a.Lattice,
		init: init,
		c:    c,
		res:  newInvariantMap(a.Lattice, v.Exit()),
	}
	return s.run()
}

type solver[I, E, C any] struct {
	ctx  context.Context
	v    cfg.View[I]
	a    Analysis[I, E, C]
	lat  L.Lattice[E]
	init E
	c    C
	res  *InvariantMap[E]
}

// priorities numbers nodes in reverse postorder of the normal edges. Nodes
// only reachable through exceptional edges come after all others.
func (s *solver[I, E, C]) priorities() map[cfg.Node]int {
	start := s.v.Start()
	prio := cfg.AsGraph(s.v, false).ReversePostorder(start)
	if !s.a.Config.Exceptional {
		return prio
	}

	base := len(prio)
	for n, p := range cfg.AsGraph(s.v, true).ReversePostorder(start) {
		if _, found := prio[n]; !found {
			prio[n] = base + p
		}
	}
	return prio
}

// blocked checks whether states must not flow out of n.
func (s *solver[I, E, C]) blocked(n cfg.Node) bool {
	return s.a.Config.StopAtExnSink && s.v.Kind(n) == cfg.ExnSink
}

// pre joins the post-states of the predecessors of n computed so far.
func (s *solver[I, E, C]) pre(n cfg.Node) E {
	state := s.lat.Bot()
	if n == s.v.Start() {
		state = s.init
	}

	for _, p := range cfg.Predecessors(s.v, n, s.a.Config.Exceptional) {
		if s.blocked(p) {
			continue
		}
		if inv, found := s.res.inv[p]; found {
			state = s.lat.Join(state, inv.Post)
		}
	}
	return state
}

func (s *solver[I, E, C]) exec(n cfg.Node, state E) E {
	for _, instr := range s.v.Instrs(n) {
		state = s.a.Exec(s.c, state, n, instr)
	}
	return state
}

// update stores the new post-state of n and reports whether it grew.
func (s *solver[I, E, C]) update(n cfg.Node, pre, post E) bool {
	inv, found := s.res.inv[n]
	if !found {
		s.res.inv[n] = &Invariant[E]{Pre: pre, Post: post, Visits: 1}
		return true
	}

	inv.Pre = pre
	if s.lat.Leq(post, inv.Post) {
		return false
	}

	if inv.Visits < s.a.Config.widenThreshold() {
		inv.Post = s.lat.Join(inv.Post, post)
	} else {
		inv.Post = s.lat.Widen(inv.Post, post, inv.Visits)
		if l := s.a.Config.Logger; l != nil {
			l.Printf("Widened %s after %d updates", n, inv.Visits)
		}
	}
	inv.Visits++
	return true
}

func (s *solver[I, E, C]) run() (*InvariantMap[E], error) {
	prio := s.priorities()
	worklist := pq.Empty(func(a, b cfg.Node) bool {
		return prio[a] < prio[b]
	})
	worklist.Add(s.v.Start())

	conf := s.a.Config
	for !worklist.IsEmpty() {
		select {
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		default:
		}

		s.res.steps++
		if conf.MaxIterations > 0 && s.res.steps > conf.MaxIterations {
			return nil, fmt.Errorf("%d node visits: %w", conf.MaxIterations, ErrIterationBound)
		}

		n := worklist.GetNext()
		pre := s.pre(n)
		post := s.exec(n, pre)

		if conf.Logger != nil {
			conf.Logger.Printf("Visiting %s: %s", n, s.lat.Show(post))
		}

		if !s.update(n, pre, post) || s.blocked(n) {
			continue
		}

		for _, succ := range cfg.Successors(s.v, n, conf.Exceptional) {
			worklist.Add(succ)
		}
	}

	s.prune()
	return s.res, nil
}

// prune drops the invariants the view's retention policy discards.
func (s *solver[I, E, C]) prune() {
	for n := range s.res.inv {
		if !cfg.Retains(s.v, n) {
			delete(s.res.inv, n)
		}
	}
}
