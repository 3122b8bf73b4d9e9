// Package automatic contains the logic for running batches of self-play
// games: per-worker game runners, the job feeder, training-data and result
// persistence, and aggregate run statistics.
package automatic

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/castlegate/autoplay/book"
	"github.com/castlegate/autoplay/config"
	"github.com/castlegate/autoplay/engine"
	"github.com/castlegate/autoplay/selfplay"
)

// GameRunner is the master struct for one worker's game loop. It owns no
// games across calls; the shared evaluator and cache are externally owned
// and thread safe.
type GameRunner struct {
	cfg       *config.Config
	logchan   chan string
	evaluator engine.Evaluator
	cache     *engine.EvalCache
	tablebase engine.Tablebase

	mu      sync.Mutex
	current *selfplay.Game
	stopped bool
}

// GameSummary is the per-game log line.
type GameSummary struct {
	GameID    int      `json:"game_id"`
	Result    string   `json:"result"`
	Plies     int      `json:"plies"`
	Nodes     uint64   `json:"nodes"`
	WorstEval float64  `json:"worst_eval"`
	Records   int      `json:"records"`
	Moves     []string `json:"moves"`
}

// NewGameRunner instantiates a runner. logchan may be nil; evaluator may be
// nil to use the built-in material evaluator.
func NewGameRunner(logchan chan string, cfg *config.Config,
	evaluator engine.Evaluator, cache *engine.EvalCache, tb engine.Tablebase) *GameRunner {

	return &GameRunner{
		cfg:       cfg,
		logchan:   logchan,
		evaluator: evaluator,
		cache:     cache,
		tablebase: tb,
	}
}

func (r *GameRunner) playerConfig() selfplay.PlayerConfig {
	return selfplay.PlayerConfig{
		Settings: selfplay.PlayerSettings{
			ReuseTree:              r.cfg.ReuseTree,
			ResignPercentage:       r.cfg.ResignPercentage,
			ResignWDLStyle:         r.cfg.ResignWDLStyle,
			ResignEarliestMove:     r.cfg.ResignEarliestMove,
			MinimumAllowedVisits:   r.cfg.MinimumAllowedVisits,
			LegacyCastlingNotation: r.cfg.LegacyCastlingNotation,
		},
		Limits: selfplay.Limits{
			Visits:     r.cfg.Visits,
			Playouts:   r.cfg.Playouts,
			MoveTimeMS: r.cfg.MoveTimeMS,
		},
		Evaluator: r.evaluator,
		Cache:     r.cache,
		Callbacks: selfplay.Callbacks{
			DiscardedMove: func(moves []string) {
				log.Debug().Strs("moves", moves).Msg("discarded-move")
			},
		},
	}
}

// PlayGame plays one full self-play game and persists its output. The game
// result is returned so callers can aggregate.
func (r *GameRunner) PlayGame(gameID int, opening book.Line,
	tw selfplay.TrainingWriter, store *ResultsStore) (*GameSummary, error) {

	game, err := selfplay.NewGame(r.playerConfig(), r.playerConfig(), r.cfg.SharedTree, nil)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil, nil
	}
	r.current = game
	r.mu.Unlock()

	err = game.Play(r.cfg.WhiteThreads, r.cfg.BlackThreads,
		r.cfg.Training, r.cfg.EnableResign, r.tablebase, opening)

	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if r.cfg.Training && tw != nil {
		if err := game.WriteTrainingData(tw); err != nil {
			return nil, err
		}
	}

	summary := &GameSummary{
		GameID:    gameID,
		Result:    game.GetGameResult().String(),
		Plies:     game.MoveCount(),
		Nodes:     game.NodesTotal(),
		WorstEval: game.GetWorstEvalForWinnerOrDraw(),
		Records:   game.NumTrainingRecords(),
		Moves:     game.GetMoves(),
	}
	if store != nil {
		if err := store.Record(summary); err != nil {
			log.Err(err).Int("gameID", gameID).Msg("could not store game result")
		}
	}
	if r.logchan != nil {
		line, err := json.Marshal(summary)
		if err == nil {
			r.logchan <- string(line) + "\n"
		}
	}
	return summary, nil
}

// Abort cancels the in-flight game, if any, and keeps the runner from
// starting another one.
func (r *GameRunner) Abort() {
	r.mu.Lock()
	r.stopped = true
	game := r.current
	r.mu.Unlock()
	if game != nil {
		game.Abort()
	}
}
