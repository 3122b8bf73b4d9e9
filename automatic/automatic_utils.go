package automatic

// Batch orchestration of self-play games. Allow many games across worker
// goroutines, a feeder that can be cancelled, and a single log file.

import (
	"context"
	"errors"
	"expvar"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/castlegate/autoplay/book"
	"github.com/castlegate/autoplay/config"
	"github.com/castlegate/autoplay/engine"
)

var (
	GamesCounter *expvar.Int
	IsPlaying    *expvar.Int
)

func init() {
	GamesCounter = expvar.NewInt("selfplayGamesCounter")
	IsPlaying = expvar.NewInt("selfplayIsPlaying")
}

// RunSummary aggregates one batch.
type RunSummary struct {
	Games     int
	WhiteWins int
	BlackWins int
	Draws     int
	Undecided int
	Plies     Statistic
	WorstEval Statistic
}

// StartSelfPlayGames plays numGames self-play games across the given number
// of worker goroutines and blocks until they all finish or ctx is
// cancelled. Cancellation stops the feeder and aborts in-flight games.
// Per-game summary lines are written to outputFilename as JSON lines.
func StartSelfPlayGames(ctx context.Context, cfg *config.Config,
	numGames int, threads int, outputFilename string) (*RunSummary, error) {

	if IsPlaying.Value() > 0 {
		return nil, errors.New("games are already being played, please wait till complete")
	}

	var openings []book.Line
	if cfg.OpeningsFile != "" {
		var err error
		openings, err = book.LoadFile(cfg.OpeningsFile)
		if err != nil {
			return nil, err
		}
		log.Info().Int("lines", len(openings)).Msg("loaded openings")
	}

	var tw *TrainingFileWriter
	if cfg.Training && cfg.TrainingFile != "" {
		var err error
		tw, err = NewTrainingFileWriter(cfg.TrainingFile)
		if err != nil {
			return nil, err
		}
		defer tw.Close()
	}

	var store *ResultsStore
	if cfg.ResultsDB != "" {
		var err error
		store, err = OpenResultsStore(cfg.ResultsDB)
		if err != nil {
			return nil, err
		}
		defer store.Close()
	}

	logfile, err := os.Create(outputFilename)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("games", numGames).Int("threads", threads).Msg("starting self-play batch")

	GamesCounter.Set(0)
	jobs := make(chan int, 100)
	logChan := make(chan string, 100)
	summaries := make(chan *GameSummary, 100)

	evaluator := engine.MaterialEvaluator{}
	cache := engine.NewEvalCache(0)

	runners := make([]*GameRunner, threads)
	var wg sync.WaitGroup
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		runners[i] = NewGameRunner(logChan, cfg, evaluator, cache, nil)
		go func(r *GameRunner) {
			defer wg.Done()
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			for gameID := range jobs {
				var opening book.Line
				if len(openings) > 0 {
					opening = openings[gameID%len(openings)]
				}
				summary, err := r.PlayGame(gameID, opening, tw, store)
				if err != nil {
					log.Err(err).Int("gameID", gameID).Msg("game failed")
					continue
				}
				if summary != nil {
					summaries <- summary
					GamesCounter.Add(1)
				}
			}
		}(runners[i])
	}

	// A cancelled context aborts the in-flight games; the feeder below
	// notices it as well and stops queueing.
	runDone := make(chan struct{})
	abortDone := make(chan struct{})
	go func() {
		defer close(abortDone)
		select {
		case <-ctx.Done():
			log.Info().Msg("got stop signal, aborting games...")
			for _, r := range runners {
				r.Abort()
			}
		case <-runDone:
		}
	}()

	go func() {
	gameLoop:
		for i := 0; i < numGames; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				break gameLoop
			}
			if (i+1)%1000 == 0 {
				log.Info().Int("queued", i+1).Msg("queued jobs")
			}
		}
		close(jobs)
		log.Debug().Msg("finished queueing all jobs")
		wg.Wait()
		close(logChan)
		close(summaries)
		log.Debug().Msg("all games finished")
	}()

	go func() {
		for msg := range logChan {
			logfile.WriteString(msg)
		}
		logfile.Close()
	}()

	summary := &RunSummary{}
	for s := range summaries {
		summary.Games++
		switch s.Result {
		case "1-0":
			summary.WhiteWins++
		case "0-1":
			summary.BlackWins++
		case "1/2-1/2":
			summary.Draws++
		default:
			summary.Undecided++
		}
		summary.Plies.Push(float64(s.Plies))
		summary.WorstEval.Push(s.WorstEval)
	}
	close(runDone)
	<-abortDone
	log.Info().
		Int("games", summary.Games).
		Int("whiteWins", summary.WhiteWins).
		Int("blackWins", summary.BlackWins).
		Int("draws", summary.Draws).
		Float64("meanPlies", summary.Plies.Mean()).
		Msg("self-play batch done")
	return summary, ctx.Err()
}
