// Package engine defines the search-engine boundary the self-play driver
// calls into, plus a built-in Monte Carlo searcher that implements it. The
// driver never looks inside a search; it constructs one per ply, runs it to
// completion, and reads the best move and evaluation back out.
package engine

import (
	"time"

	"github.com/notnil/chess"

	"github.com/castlegate/autoplay/gametree"
)

// Searcher is one per-ply search over a game tree. RunBlocking returns when
// a stopper signals or Abort is called; every other method is only
// meaningful once RunBlocking has returned, except Abort, which may be
// called from any goroutine at any time.
type Searcher interface {
	// RunBlocking searches with the given number of worker threads and
	// blocks until the search terminates.
	RunBlocking(threads int) error
	// BestEval returns the value (in [-1, 1], from the mover's point of
	// view) and draw probability of the best edge.
	BestEval() (value, draw float64)
	// BestMove returns the selected move. Successive calls return the same
	// move until ResetBestMove.
	BestMove() *chess.Move
	// ResetBestMove discards the selected move so that the next BestMove
	// call re-selects.
	ResetBestMove()
	// Abort stops an in-flight search.
	Abort()
	// TotalPlayouts returns the number of playouts the search performed.
	TotalPlayouts() uint64
}

// Info is a progress report delivered through a Responder.
type Info struct {
	Playouts uint64
	Visits   uint64
	Elapsed  time.Duration
	Value    float64
	Draw     float64
}

// Responder receives search output. The driver supplies one wrapping the
// per-side callbacks.
type Responder interface {
	OnBestMove(m *chess.Move)
	OnInfo(info Info)
}

// Evaluator scores a position from the side to move's point of view,
// returning a value in [-1, 1] and a draw probability in [0, 1].
// Implementations must be safe for concurrent use: one evaluator is
// typically shared across sides and across games.
type Evaluator interface {
	Evaluate(pos *chess.Position) (value, draw float64)
}

// Tablebase is an external exact-result probe for simplified endgame
// positions. A probe that misses returns ok=false.
type Tablebase interface {
	Probe(pos *chess.Position) (result gametree.Result, ok bool)
}

// Params are the engine-intrinsic search settings.
type Params struct {
	// RolloutDepth bounds random playout length before the evaluator is
	// consulted.
	RolloutDepth int
	// MaxPlayouts is a hard safety cap enforced through an intrinsic
	// stopper regardless of caller-supplied limits.
	MaxPlayouts uint64
}

// DefaultParams returns the engine defaults.
func DefaultParams() Params {
	return Params{
		RolloutDepth: 24,
		MaxPlayouts:  1 << 20,
	}
}
