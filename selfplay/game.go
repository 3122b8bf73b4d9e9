// Package selfplay drives one automated game between two configured search
// engines: a per-move search-and-commit cycle over per-side game trees,
// with resignation, minimum-visit move selection, opening-book replay and
// thread-safe cancellation.
package selfplay

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/castlegate/autoplay/book"
	"github.com/castlegate/autoplay/engine"
	"github.com/castlegate/autoplay/gametree"
)

// Game is one self-play game. A single goroutine drives Play; Abort may be
// called from any other goroutine at any time. No other concurrent access
// is supported.
type Game struct {
	players        [2]PlayerConfig
	trees          [2]*gametree.Tree
	shared         bool
	legacyCastling bool

	result gametree.Result
	// minEval tracks the per-side minimum of the normalized evaluation;
	// maxEval tracks the game-wide maxima of the white-win, draw and
	// black-win probabilities. Both exist only for post-game resignation
	// diagnostics.
	minEval [2]float64
	maxEval [3]float64

	trainingData []TrainingRecord
	moveCount    int
	nodesTotal   uint64

	aborted atomic.Bool
	// mu guards the active-search slot so Abort cannot race with the
	// driver swapping in a new search.
	mu     sync.Mutex
	search engine.Searcher
}

// NewGame builds a game from two player configs. The starting position has
// each side's back rank independently shuffled — unconditionally, whatever
// the castling-notation setting, to diversify the generated training data.
// When sharedTree is set both sides play on one tree; otherwise each side
// owns a tree and the driver keeps them in lockstep. The opening prefix is
// replayed on construction.
func NewGame(white, black PlayerConfig, sharedTree bool, opening []*chess.Move) (*Game, error) {
	g := &Game{
		players:        [2]PlayerConfig{white, black},
		shared:         sharedTree,
		legacyCastling: white.Settings.LegacyCastlingNotation || black.Settings.LegacyCastlingNotation,
		minEval:        [2]float64{1, 1},
	}
	fen := shuffledStartFEN()

	g.trees[0] = gametree.New()
	if err := g.trees[0].ResetToPosition(fen, nil); err != nil {
		return nil, err
	}
	if sharedTree {
		g.trees[1] = g.trees[0]
	} else {
		g.trees[1] = gametree.New()
		if err := g.trees[1].ResetToPosition(fen, nil); err != nil {
			return nil, err
		}
	}
	for _, m := range opening {
		if err := g.trees[0].MakeMove(m); err != nil {
			return nil, fmt.Errorf("replaying opening prefix: %w", err)
		}
		if g.trees[0] != g.trees[1] {
			if err := g.trees[1].MakeMove(m); err != nil {
				return nil, fmt.Errorf("replaying opening prefix: %w", err)
			}
		}
	}
	return g, nil
}

func shuffledStartFEN() string {
	whiteRank := []byte("RNBQKBNR")
	blackRank := []byte("rnbqkbnr")
	frand.Shuffle(len(whiteRank), func(i, j int) {
		whiteRank[i], whiteRank[j] = whiteRank[j], whiteRank[i]
	})
	frand.Shuffle(len(blackRank), func(i, j int) {
		blackRank[i], blackRank[j] = blackRank[j], blackRank[i]
	})
	return fmt.Sprintf("%s/pppppppp/8/8/8/8/PPPPPPPP/%s w - - 0 1", blackRank, whiteRank)
}

// Play runs the ply loop until the game reaches a terminal result or an
// abort is observed. The opening line, if any, is replayed move by move
// through the resolver before search results are used.
func (g *Game) Play(whiteThreads, blackThreads int, training, enableResign bool,
	tb engine.Tablebase, opening book.Line) error {

	blacksMove := g.trees[0].PlyCount()%2 == 1
	bookCursor := 0

	for !g.aborted.Load() {
		g.result = g.trees[0].ComputeResult()
		if g.result != gametree.Undecided {
			break
		}

		idx := 0
		if blacksMove {
			idx = 1
		}
		player := &g.players[idx]
		inBook := bookCursor < len(opening) && opening[bookCursor].Half(blacksMove) != nil

		if !player.Settings.ReuseTree {
			g.trees[idx].TrimAtHead()
		}

		g.mu.Lock()
		if g.aborted.Load() {
			g.mu.Unlock()
			break
		}
		stopper := player.Limits.MakeStopper()
		params := player.Params
		if params == (engine.Params{}) {
			params = engine.DefaultParams()
		}
		engine.AddIntrinsicStoppers(stopper, params)
		responder := newResponder(player.Callbacks, g.trees[idx].HeadPosition(), g.legacyCastling)
		search := g.newSearcher(player, SearchContext{
			Tree:      g.trees[idx],
			Evaluator: player.Evaluator,
			Responder: responder,
			Stopper:   stopper,
			Cache:     player.Cache,
			Tablebase: tb,
			Params:    params,
		})
		g.search = search
		g.mu.Unlock()

		threads := whiteThreads
		if blacksMove {
			threads = blackThreads
		}
		if err := search.RunBlocking(threads); err != nil {
			return fmt.Errorf("search: %w", err)
		}
		g.moveCount++
		g.nodesTotal += search.TotalPlayouts()
		if g.aborted.Load() {
			break
		}

		bestQ, bestD := search.BestEval()
		if training {
			// Outcome labels are patched at game end.
			g.trainingData = append(g.trainingData,
				newTrainingRecord(g.trees[idx].HeadPosition(), bestQ, bestD))
		}

		eval := (bestQ + 1) / 2
		if eval < g.minEval[idx] {
			g.minEval[idx] = eval
		}
		moveNumber := (g.trees[0].PlyCount()+1)/2 + 1
		bestW := (bestQ + 1 - bestD) / 2
		bestL := bestW - bestQ
		if blacksMove {
			g.maxEval[0] = math.Max(g.maxEval[0], bestL)
			g.maxEval[2] = math.Max(g.maxEval[2], bestW)
		} else {
			g.maxEval[0] = math.Max(g.maxEval[0], bestW)
			g.maxEval[2] = math.Max(g.maxEval[2], bestL)
		}
		g.maxEval[1] = math.Max(g.maxEval[1], bestD)

		if enableResign && moveNumber >= player.Settings.ResignEarliestMove {
			if done := g.maybeResign(player.Settings, blacksMove, eval, bestW, bestD, bestL); done {
				break
			}
		}

		move, ok := g.selectMove(search, idx)
		if !ok {
			break
		}

		if inBook {
			ply := opening[bookCursor].Half(blacksMove)
			resolved, err := ResolveMove(g.trees[idx].HeadPosition(), ply, blacksMove)
			if err != nil {
				return fmt.Errorf("opening line: %w", err)
			}
			move = resolved
		}
		if bookCursor < len(opening) && blacksMove {
			bookCursor++
		}

		if err := g.trees[0].MakeMove(move); err != nil {
			return err
		}
		if g.trees[0] != g.trees[1] {
			if err := g.trees[1].MakeMove(move); err != nil {
				return err
			}
		}
		blacksMove = !blacksMove
	}
	log.Debug().
		Stringer("result", g.result).
		Int("plies", g.moveCount).
		Uint64("nodes", g.nodesTotal).
		Msg("game-over")
	return nil
}

// maybeResign applies the configured resignation policy and reports whether
// the game ends here. The first exceeded WDL condition wins.
func (g *Game) maybeResign(settings PlayerSettings, blacksMove bool,
	eval, bestW, bestD, bestL float64) bool {

	resignPct := settings.ResignPercentage / 100
	if settings.ResignWDLStyle {
		threshold := 1 - resignPct
		switch {
		case bestW > threshold:
			if blacksMove {
				g.result = gametree.BlackWon
			} else {
				g.result = gametree.WhiteWon
			}
		case bestL > threshold:
			if blacksMove {
				g.result = gametree.WhiteWon
			} else {
				g.result = gametree.BlackWon
			}
		case bestD > threshold:
			g.result = gametree.Draw
		default:
			return false
		}
		log.Debug().Stringer("result", g.result).Msg("wdl-resignation")
		return true
	}
	if eval < resignPct { // always false when the percentage is zero
		if blacksMove {
			g.result = gametree.WhiteWon
		} else {
			g.result = gametree.BlackWon
		}
		log.Debug().Stringer("result", g.result).Msg("resignation")
		return true
	}
	return false
}

// selectMove takes the engine's reported best move, enforcing the
// minimum-visit threshold: a move below both the maximum visit count and
// the threshold is discarded, reported through the discarded-move callback
// when the projected position is not already decided, and re-queried. The
// retry is unbounded; the abort flag is re-checked on every iteration since
// retries can span an external abort.
func (g *Game) selectMove(search engine.Searcher, idx int) (*chess.Move, bool) {
	settings := g.players[idx].Settings
	for {
		if g.aborted.Load() {
			return nil, false
		}
		move := search.BestMove()
		if move == nil {
			return nil, false
		}
		maxN, curN := uint32(0), uint32(0)
		for _, edge := range g.trees[idx].EdgesAtHead() {
			if edge.N > maxN {
				maxN = edge.N
			}
			if edge.Move.String() == move.String() {
				curN = edge.N
			}
		}
		if curN == maxN || int(curN) >= settings.MinimumAllowedVisits {
			return move, true
		}
		res, err := g.trees[idx].ResultAfter(move)
		if err == nil && res == gametree.Undecided {
			if cb := g.players[idx].Callbacks.DiscardedMove; cb != nil {
				moves := g.GetMoves()
				moves = append(moves, relativeUCI(move.String(), g.trees[idx].IsBlackToMove()))
				cb(moves)
			}
		}
		search.ResetBestMove()
	}
}

func (g *Game) newSearcher(p *PlayerConfig, sc SearchContext) engine.Searcher {
	if p.NewSearcher != nil {
		return p.NewSearcher(sc)
	}
	return engine.NewMCTS(sc.Tree, sc.Evaluator, sc.Responder, sc.Stopper, sc.Cache, sc.Tablebase, sc.Params)
}

// Abort cancels the game from any goroutine: the flag stops the ply loop
// and any active search is told to stop. The in-flight ply is never
// committed; the game ends with whatever result was last computed.
func (g *Game) Abort() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.aborted.Store(true)
	if g.search != nil {
		g.search.Abort()
	}
}

// GetMoves returns the game's move sequence in side-relative UCI form:
// parent back-references are walked from the head to the game-begin node,
// reversed, and replayed through an independent cursor, re-encoding
// castling when legacy notation is configured and mirroring Black's
// half-moves.
func (g *Game) GetMoves() []string {
	t := g.trees[0]
	var moves []*chess.Move
	for id := t.CurrentHead(); id != t.GameBeginNode(); {
		n := t.NodeAt(id)
		moves = append(moves, n.Move)
		id = n.Parent
	}
	moves = lo.Reverse(moves)

	fenOpt, err := chess.FEN(t.StartFEN())
	if err != nil {
		return nil
	}
	cursor := chess.NewGame(fenOpt, chess.UseNotation(chess.UCINotation{}))
	result := make([]string, 0, len(moves))
	for _, m := range moves {
		pos := cursor.Position()
		blackMover := pos.Turn() == chess.Black
		uci := m.String()
		if g.legacyCastling {
			uci = legacyCastleUCI(pos, m)
		}
		decoded, err := chess.UCINotation{}.Decode(pos, m.String())
		if err != nil {
			return result
		}
		if err := cursor.Move(decoded); err != nil {
			return result
		}
		result = append(result, relativeUCI(uci, blackMover))
	}
	return result
}

// GetGameResult returns the current result; Undecided until the game ends.
func (g *Game) GetGameResult() gametree.Result {
	return g.result
}

// GetWorstEvalForWinnerOrDraw is a post-game diagnostic of how close the
// resignation thresholds came to mis-firing. It assumes both players share
// a resign style; mixing styles would mix the meaning of "worst".
func (g *Game) GetWorstEvalForWinnerOrDraw() float64 {
	if g.players[0].Settings.ResignWDLStyle {
		switch g.result {
		case gametree.WhiteWon:
			return math.Max(g.maxEval[1], g.maxEval[2])
		case gametree.BlackWon:
			return math.Max(g.maxEval[1], g.maxEval[0])
		default:
			return math.Max(g.maxEval[2], g.maxEval[0])
		}
	}
	switch g.result {
	case gametree.WhiteWon:
		return g.minEval[0]
	case gametree.BlackWon:
		return g.minEval[1]
	default:
		return math.Min(g.minEval[0], g.minEval[1])
	}
}

// WriteTrainingData patches every record's outcome label from the final
// result and the record's side to move, then forwards it to the writer.
func (g *Game) WriteTrainingData(w TrainingWriter) error {
	for i := range g.trainingData {
		rec := g.trainingData[i]
		switch g.result {
		case gametree.WhiteWon:
			if rec.SideToMove {
				rec.Result = -1
			} else {
				rec.Result = 1
			}
		case gametree.BlackWon:
			if rec.SideToMove {
				rec.Result = 1
			} else {
				rec.Result = -1
			}
		default:
			rec.Result = 0
		}
		if err := w.WriteRecord(&rec); err != nil {
			return err
		}
	}
	return nil
}

// NumTrainingRecords returns the number of snapshots taken so far.
func (g *Game) NumTrainingRecords() int {
	return len(g.trainingData)
}

// MoveCount returns the number of searches run.
func (g *Game) MoveCount() int {
	return g.moveCount
}

// NodesTotal returns the total playouts across all searches of the game.
func (g *Game) NodesTotal() uint64 {
	return g.nodesTotal
}
