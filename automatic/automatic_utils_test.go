package automatic

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"

	"github.com/castlegate/autoplay/config"
	"github.com/castlegate/autoplay/selfplay"
)

// batchConfig makes White resign on the first move: at a resignation
// percentage of 100 any evaluation short of a certain win is below the
// threshold, so every game ends 0-1 after a single search.
func batchConfig(dir string) *config.Config {
	return &config.Config{
		WhiteThreads:       1,
		BlackThreads:       1,
		Playouts:           16,
		Visits:             selfplay.Unset,
		MoveTimeMS:         selfplay.Unset,
		SharedTree:         true,
		EnableResign:       true,
		ResignPercentage:   100,
		ResignEarliestMove: 1,
		Training:           true,
		TrainingFile:       filepath.Join(dir, "training.jsonl.gz"),
		ResultsDB:          filepath.Join(dir, "results.db"),
	}
}

func TestStartSelfPlayGames(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	cfg := batchConfig(dir)
	output := filepath.Join(dir, "games.log")

	summary, err := StartSelfPlayGames(context.Background(), cfg, 3, 2, output)
	is.NoErr(err)
	is.Equal(summary.Games, 3)
	is.Equal(summary.BlackWins, 3)
	is.True(FuzzyEqual(summary.Plies.Mean(), 1))

	// One JSON summary line per game.
	f, err := os.Open(output)
	is.NoErr(err)
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var gs GameSummary
		is.NoErr(json.Unmarshal(scanner.Bytes(), &gs))
		is.Equal(gs.Result, "0-1")
		lines++
	}
	is.Equal(lines, 3)

	// One training record per game, readable back through gzip.
	tf, err := os.Open(cfg.TrainingFile)
	is.NoErr(err)
	defer tf.Close()
	gz, err := gzip.NewReader(tf)
	is.NoErr(err)
	records := 0
	dec := json.NewDecoder(gz)
	for dec.More() {
		var rec selfplay.TrainingRecord
		is.NoErr(dec.Decode(&rec))
		is.Equal(len(rec.Features), 128)
		// White was to move and lost.
		is.Equal(rec.Result, int8(-1))
		records++
	}
	is.Equal(records, 3)

	// The results store kept all three games.
	store, err := OpenResultsStore(cfg.ResultsDB)
	is.NoErr(err)
	defer store.Close()
	n, err := store.Games()
	is.NoErr(err)
	is.Equal(n, 3)
}

func TestStartSelfPlayGamesCancelled(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	cfg := batchConfig(dir)
	cfg.Training = false
	cfg.TrainingFile = ""
	cfg.ResultsDB = ""

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := StartSelfPlayGames(ctx, cfg, 100, 2, filepath.Join(dir, "games.log"))
	is.True(err == context.Canceled)
	is.Equal(summary.Games, 0)
}

func TestPlayGame(t *testing.T) {
	is := is.New(t)
	cfg := batchConfig(t.TempDir())
	r := NewGameRunner(nil, cfg, nil, nil, nil)

	summary, err := r.PlayGame(7, nil, nil, nil)
	is.NoErr(err)
	is.Equal(summary.GameID, 7)
	is.Equal(summary.Result, "0-1")
	is.Equal(summary.Plies, 1)
	is.True(summary.Nodes >= 16)
}
