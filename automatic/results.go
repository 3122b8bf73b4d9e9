package automatic

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// ResultsStore records finished games in a sqlite database so a run can be
// inspected after the fact without parsing the log stream.
type ResultsStore struct {
	mu sync.Mutex
	db *sql.DB
}

const resultsSchema = `
CREATE TABLE IF NOT EXISTS games (
	game_id INTEGER PRIMARY KEY,
	result TEXT NOT NULL,
	plies INTEGER NOT NULL,
	nodes INTEGER NOT NULL,
	worst_eval REAL NOT NULL,
	records INTEGER NOT NULL,
	moves TEXT NOT NULL
);`

func OpenResultsStore(path string) (*ResultsStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open results db: %w", err)
	}
	if _, err := db.Exec(resultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create results schema: %w", err)
	}
	return &ResultsStore{db: db}, nil
}

func (s *ResultsStore) Record(summary *GameSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO games (game_id, result, plies, nodes, worst_eval, records, moves)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		summary.GameID, summary.Result, summary.Plies, summary.Nodes,
		summary.WorstEval, summary.Records, strings.Join(summary.Moves, " "))
	return err
}

// Games returns the number of stored games.
func (s *ResultsStore) Games() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM games`).Scan(&n)
	return n, err
}

func (s *ResultsStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
