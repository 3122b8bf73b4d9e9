package selfplay

import (
	"github.com/castlegate/autoplay/engine"
	"github.com/castlegate/autoplay/gametree"
)

// PlayerSettings are the per-side knobs of the driver itself, as opposed to
// the engine's search parameters.
type PlayerSettings struct {
	// ReuseTree keeps search statistics below the new head across moves
	// instead of discarding them before every search.
	ReuseTree bool
	// ResignPercentage enables simple-style resignation when the side's
	// normalized evaluation drops below this percentage. Zero disables it.
	ResignPercentage float64
	// ResignWDLStyle switches resignation to thresholds on the win, draw
	// and loss probabilities instead of the normalized evaluation.
	ResignWDLStyle bool
	// ResignEarliestMove is the first move number at which resignation is
	// considered.
	ResignEarliestMove int
	// MinimumAllowedVisits rejects a selected move whose visit count is
	// below this threshold unless it is also the most-visited move.
	MinimumAllowedVisits int
	// LegacyCastlingNotation re-encodes castling moves in king-two-files
	// style in callbacks and move listings. It has no effect on the
	// randomized starting arrangement.
	LegacyCastlingNotation bool
}

// Callbacks deliver search output to the caller. Any of them may be nil.
type Callbacks struct {
	// BestMove receives the committed move of each ply in UCI form.
	BestMove func(move string)
	// Info receives search progress reports.
	Info func(info engine.Info)
	// DiscardedMove receives the full side-relative move sequence,
	// including the rejected candidate, whenever the minimum-visit check
	// discards a move.
	DiscardedMove func(moves []string)
}

// SearchContext is everything a searcher is constructed with for one ply.
type SearchContext struct {
	Tree      *gametree.Tree
	Evaluator engine.Evaluator
	Responder engine.Responder
	Stopper   engine.Stopper
	Cache     *engine.EvalCache
	Tablebase engine.Tablebase
	Params    engine.Params
}

// SearcherFactory builds a per-ply searcher. Tests substitute scripted
// engines through this.
type SearcherFactory func(sc SearchContext) engine.Searcher

// PlayerConfig bundles everything one side of a self-play game needs.
type PlayerConfig struct {
	Settings  PlayerSettings
	Limits    Limits
	Evaluator engine.Evaluator
	Cache     *engine.EvalCache
	Params    engine.Params
	Callbacks Callbacks
	// NewSearcher overrides the built-in engine when non-nil.
	NewSearcher SearcherFactory
}
