package engine

import "time"

// Stopper is an early-termination policy consulted by the search loop.
// visits includes statistics carried over from a reused tree; playouts
// counts only the current search.
type Stopper interface {
	ShouldStop(visits, playouts uint64, elapsed time.Duration) bool
}

// ChainedStopper combines sub-stoppers, signaling as soon as any one of
// them signals. An empty chain never signals by itself.
type ChainedStopper struct {
	stoppers []Stopper
}

// AddStopper appends a sub-stopper to the chain.
func (c *ChainedStopper) AddStopper(s Stopper) {
	c.stoppers = append(c.stoppers, s)
}

// Len returns the number of sub-stoppers.
func (c *ChainedStopper) Len() int {
	return len(c.stoppers)
}

func (c *ChainedStopper) ShouldStop(visits, playouts uint64, elapsed time.Duration) bool {
	for _, s := range c.stoppers {
		if s.ShouldStop(visits, playouts, elapsed) {
			return true
		}
	}
	return false
}

// VisitsStopper signals once total visits reach the bound.
type VisitsStopper uint64

func (v VisitsStopper) ShouldStop(visits, _ uint64, _ time.Duration) bool {
	return visits >= uint64(v)
}

// PlayoutsStopper signals once the current search has performed the given
// number of playouts.
type PlayoutsStopper uint64

func (p PlayoutsStopper) ShouldStop(_, playouts uint64, _ time.Duration) bool {
	return playouts >= uint64(p)
}

// TimeStopper signals once the search has run for the given duration.
type TimeStopper time.Duration

func (t TimeStopper) ShouldStop(_, _ uint64, elapsed time.Duration) bool {
	return elapsed >= time.Duration(t)
}

// AddIntrinsicStoppers augments a caller-supplied chain with the engine's
// own safety bounds, so that a search with no configured limits still
// terminates.
func AddIntrinsicStoppers(c *ChainedStopper, params Params) {
	if params.MaxPlayouts > 0 {
		c.AddStopper(PlayoutsStopper(params.MaxPlayouts))
	}
}
