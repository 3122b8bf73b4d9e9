package engine

import (
	"math"
	"sync"

	"github.com/notnil/chess"
)

var pieceValues = map[chess.PieceType]float64{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3.25,
	chess.Rook:   5,
	chess.Queen:  9,
}

// MaterialEvaluator is the fallback evaluator: a material count squashed
// into [-1, 1], with a draw probability that rises as material leaves the
// board. It is stateless and safe for concurrent use.
type MaterialEvaluator struct{}

func (MaterialEvaluator) Evaluate(pos *chess.Position) (float64, float64) {
	var balance, total float64
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := pos.Board().Piece(sq)
		if piece == chess.NoPiece || piece.Type() == chess.King {
			continue
		}
		v := pieceValues[piece.Type()]
		total += v
		if piece.Color() == pos.Turn() {
			balance += v
		} else {
			balance -= v
		}
	}
	value := math.Tanh(balance / 10)
	draw := 0.1 + 0.5*math.Exp(-math.Abs(balance))*math.Exp(-total/20)
	return value, draw
}

// EvalCache memoizes evaluations keyed by position. One cache is typically
// shared by both sides of a game, and across games of a run.
type EvalCache struct {
	mu      sync.Mutex
	entries map[string][2]float64
	cap     int
}

// NewEvalCache returns a cache bounded to roughly cap entries.
func NewEvalCache(cap int) *EvalCache {
	if cap <= 0 {
		cap = 1 << 16
	}
	return &EvalCache{entries: make(map[string][2]float64), cap: cap}
}

// Wrap returns an Evaluator that consults the cache before delegating.
func (c *EvalCache) Wrap(inner Evaluator) Evaluator {
	return &cachedEvaluator{cache: c, inner: inner}
}

func (c *EvalCache) get(key string) (value, draw float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e[0], e[1], ok
}

func (c *EvalCache) put(key string, value, draw float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.cap {
		// Full reset instead of eviction bookkeeping; the cache refills
		// within a few plies.
		c.entries = make(map[string][2]float64)
	}
	c.entries[key] = [2]float64{value, draw}
}

// Len returns the number of cached entries.
func (c *EvalCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type cachedEvaluator struct {
	cache *EvalCache
	inner Evaluator
}

func (e *cachedEvaluator) Evaluate(pos *chess.Position) (float64, float64) {
	key := pos.String()
	if v, d, ok := e.cache.get(key); ok {
		return v, d
	}
	v, d := e.inner.Evaluate(pos)
	e.cache.put(key, v, d)
	return v, d
}
