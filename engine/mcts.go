package engine

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/castlegate/autoplay/gametree"
)

const uctExploration = 1.2

// edgeStat accumulates this search's statistics for one edge at the head.
// Values are stored from the head mover's point of view.
type edgeStat struct {
	sync.Mutex
	child gametree.NodeID
	move  *chess.Move
	pos   *chess.Position
	n     uint64
	sumV  float64
	sumD  float64
}

func (e *edgeStat) mean() (v, d float64, n uint64) {
	e.Lock()
	defer e.Unlock()
	if e.n == 0 {
		return 0, 0, 0
	}
	return e.sumV / float64(e.n), e.sumD / float64(e.n), e.n
}

// MCTS is the built-in searcher: a one-ply Monte Carlo search that plays
// random rollouts below each edge of the head and scores the leaves with
// the evaluator. Visit counts are written back to the tree so they survive
// across moves when tree reuse is enabled.
type MCTS struct {
	tree      *gametree.Tree
	eval      Evaluator
	responder Responder
	stopper   Stopper
	tb        Tablebase
	params    Params

	playouts      atomic.Uint64
	initialVisits uint64
	start         time.Time
	aborted       atomic.Bool

	mu       sync.Mutex
	cancelFn context.CancelFunc

	edges []*edgeStat

	tbResult gametree.Result
	tbHit    bool

	bestMu sync.Mutex
	best   *chess.Move
}

var _ Searcher = (*MCTS)(nil)

// NewMCTS builds a searcher bound to a tree. A nil evaluator falls back to
// material; a nil stopper means only intrinsic limits apply; cache and
// tablebase may be nil.
func NewMCTS(tree *gametree.Tree, eval Evaluator, responder Responder,
	stopper Stopper, cache *EvalCache, tb Tablebase, params Params) *MCTS {

	if eval == nil {
		eval = MaterialEvaluator{}
	}
	if cache != nil {
		eval = cache.Wrap(eval)
	}
	if stopper == nil {
		stopper = &ChainedStopper{}
	}
	return &MCTS{
		tree:      tree,
		eval:      eval,
		responder: responder,
		stopper:   stopper,
		tb:        tb,
		params:    params,
	}
}

// RunBlocking runs the search with the given worker count and blocks until
// a stopper signals or Abort is called.
func (m *MCTS) RunBlocking(threads int) error {
	threads = max(1, threads)
	m.start = time.Now()

	head := m.tree.HeadPosition()
	m.tree.ExpandHead()
	treeEdges := m.tree.EdgesAtHead()
	m.edges = make([]*edgeStat, 0, len(treeEdges))
	for _, e := range treeEdges {
		m.initialVisits += uint64(e.N)
		m.edges = append(m.edges, &edgeStat{
			child: e.Child,
			move:  e.Move,
			pos:   head.Update(e.Move),
		})
	}
	if len(m.edges) == 0 {
		// Terminal head; nothing to search.
		m.sendFinal()
		return nil
	}

	if m.tb != nil {
		if res, ok := m.tb.Probe(head); ok {
			m.tbResult, m.tbHit = res, true
			log.Debug().Stringer("result", res).Msg("tablebase-hit")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.mu.Lock()
	m.cancelFn = cancel
	m.mu.Unlock()
	if m.aborted.Load() {
		cancel()
	}

	g := errgroup.Group{}
	for t := 0; t < threads; t++ {
		g.Go(func() error {
			for {
				if m.aborted.Load() {
					return nil
				}
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				done := m.playouts.Load()
				if m.stopper.ShouldStop(m.initialVisits+done, done, time.Since(m.start)) {
					cancel()
					return nil
				}
				edge := m.chooseEdge()
				v, d := m.rollout(edge.pos)
				v = -v // rollout value is from the opponent's perspective
				edge.Lock()
				edge.n++
				edge.sumV += v
				edge.sumD += d
				edge.Unlock()
				m.playouts.Add(1)
				m.tree.AddVisit(edge.child)
			}
		})
	}
	err := g.Wait()

	m.mu.Lock()
	m.cancelFn = nil
	m.mu.Unlock()

	elapsed := time.Since(m.start)
	playouts := m.playouts.Load()
	log.Debug().
		Uint64("playouts", playouts).
		Float64("pps", float64(playouts)/elapsed.Seconds()).
		Dur("elapsed", elapsed).
		Msg("search-ended")
	m.sendFinal()
	return err
}

func (m *MCTS) sendFinal() {
	if m.responder == nil {
		return
	}
	v, d := m.BestEval()
	m.responder.OnInfo(Info{
		Playouts: m.playouts.Load(),
		Visits:   m.initialVisits + m.playouts.Load(),
		Elapsed:  time.Since(m.start),
		Value:    v,
		Draw:     d,
	})
	if best := m.BestMove(); best != nil {
		m.responder.OnBestMove(best)
	}
}

// chooseEdge picks the next edge to play out with UCT; unvisited edges are
// taken first, in random order.
func (m *MCTS) chooseEdge() *edgeStat {
	var unvisited []*edgeStat
	total := uint64(0)
	for _, e := range m.edges {
		_, _, n := e.mean()
		if n == 0 {
			unvisited = append(unvisited, e)
		}
		total += n
	}
	if len(unvisited) > 0 {
		return unvisited[frand.Intn(len(unvisited))]
	}
	var best *edgeStat
	bestScore := math.Inf(-1)
	logTotal := math.Log(float64(total + 1))
	for _, e := range m.edges {
		v, _, n := e.mean()
		score := v + uctExploration*math.Sqrt(logTotal/float64(n))
		if score > bestScore {
			bestScore = score
			best = e
		}
	}
	return best
}

// rollout plays random moves to a bounded depth and scores the leaf with
// the evaluator. The returned value is from the point of view of the side
// to move at pos.
func (m *MCTS) rollout(pos *chess.Position) (float64, float64) {
	sign := 1.0
	for depth := 0; depth < m.params.RolloutDepth; depth++ {
		switch pos.Status() {
		case chess.Checkmate:
			return -sign, 0
		case chess.Stalemate:
			return 0, 1
		}
		moves := pos.ValidMoves()
		if len(moves) == 0 {
			return 0, 1
		}
		pos = pos.Update(moves[frand.Intn(len(moves))])
		sign = -sign
	}
	v, d := m.eval.Evaluate(pos)
	return sign * v, d
}

// BestEval returns the evaluation of the most-visited edge. A tablebase hit
// overrides the sampled value with the exact result.
func (m *MCTS) BestEval() (float64, float64) {
	if m.tbHit {
		return tbEval(m.tbResult, m.tree.IsBlackToMove())
	}
	best := m.mostVisitedEdge()
	if best == nil {
		return m.eval.Evaluate(m.tree.HeadPosition())
	}
	v, d, n := best.mean()
	if n == 0 {
		return m.eval.Evaluate(m.tree.HeadPosition())
	}
	return v, d
}

func tbEval(res gametree.Result, blackToMove bool) (float64, float64) {
	switch res {
	case gametree.Draw:
		return 0, 1
	case gametree.WhiteWon:
		if blackToMove {
			return -1, 0
		}
		return 1, 0
	case gametree.BlackWon:
		if blackToMove {
			return 1, 0
		}
		return -1, 0
	}
	return 0, 0
}

func (m *MCTS) mostVisitedEdge() *edgeStat {
	var best *edgeStat
	bestN := uint64(0)
	for _, e := range m.edges {
		_, _, n := e.mean()
		if best == nil || n > bestN {
			best, bestN = e, n
		}
	}
	return best
}

// BestMove samples a move with probability proportional to tree visit
// counts, so repeated ResetBestMove/BestMove cycles can land on different
// moves. The sample is cached until ResetBestMove.
func (m *MCTS) BestMove() *chess.Move {
	m.bestMu.Lock()
	defer m.bestMu.Unlock()
	if m.best != nil {
		return m.best
	}
	edges := m.tree.EdgesAtHead()
	if len(edges) == 0 {
		return nil
	}
	total := uint64(0)
	for _, e := range edges {
		total += uint64(e.N)
	}
	if total == 0 {
		m.best = edges[frand.Intn(len(edges))].Move
		return m.best
	}
	r := frand.Uint64n(total)
	for _, e := range edges {
		if r < uint64(e.N) {
			m.best = e.Move
			return m.best
		}
		r -= uint64(e.N)
	}
	m.best = edges[len(edges)-1].Move
	return m.best
}

// ResetBestMove discards the cached sample.
func (m *MCTS) ResetBestMove() {
	m.bestMu.Lock()
	m.best = nil
	m.bestMu.Unlock()
}

// Abort stops the search. Safe to call from any goroutine, before or during
// RunBlocking.
func (m *MCTS) Abort() {
	m.aborted.Store(true)
	m.mu.Lock()
	if m.cancelFn != nil {
		m.cancelFn()
	}
	m.mu.Unlock()
}

// TotalPlayouts returns the playouts performed so far.
func (m *MCTS) TotalPlayouts() uint64 {
	return m.playouts.Load()
}
