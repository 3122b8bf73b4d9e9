package automatic

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/castlegate/autoplay/selfplay"
)

// TrainingFileWriter persists finalized training records as gzipped JSON
// lines. It is shared across worker goroutines and serializes writes
// internally.
type TrainingFileWriter struct {
	mu      sync.Mutex
	file    *os.File
	gz      *gzip.Writer
	enc     *json.Encoder
	records int
}

var _ selfplay.TrainingWriter = (*TrainingFileWriter)(nil)

func NewTrainingFileWriter(path string) (*TrainingFileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create training file: %w", err)
	}
	gz := gzip.NewWriter(f)
	return &TrainingFileWriter{
		file: f,
		gz:   gz,
		enc:  json.NewEncoder(gz),
	}, nil
}

func (w *TrainingFileWriter) WriteRecord(rec *selfplay.TrainingRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(rec); err != nil {
		return err
	}
	w.records++
	return nil
}

// Records returns the number of records written so far.
func (w *TrainingFileWriter) Records() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records
}

// Close flushes the gzip stream and closes the file.
func (w *TrainingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.gz.Close(); err != nil {
		return fmt.Errorf("could not close gzip writer: %w", err)
	}
	return w.file.Close()
}
