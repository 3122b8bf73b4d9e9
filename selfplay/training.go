package selfplay

import (
	"github.com/notnil/chess"
)

// TrainingRecord is one labeled snapshot per played ply: board-derived
// features, the side to move, the search's best evaluation as training
// target, and an outcome label patched only once the game has finished.
type TrainingRecord struct {
	// Features holds a 64-entry piece-code plane followed by a 64-entry
	// side-to-move plane.
	Features []float32 `json:"features" yaml:"features,flow"`
	// SideToMove is true when Black is to move in the snapshot position.
	SideToMove bool    `json:"side_to_move" yaml:"side_to_move"`
	Value      float64 `json:"value" yaml:"value"`
	Draw       float64 `json:"draw" yaml:"draw"`
	// Result is 0 until finalization, then +1 if the side to move won,
	// -1 if it lost, 0 on a draw.
	Result int8 `json:"result" yaml:"result"`
}

// TrainingWriter persists finalized training records.
type TrainingWriter interface {
	WriteRecord(rec *TrainingRecord) error
}

func newTrainingRecord(pos *chess.Position, value, draw float64) TrainingRecord {
	features := make([]float32, 128)
	board := pos.Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		if piece := board.Piece(sq); piece != chess.NoPiece {
			features[int(sq)] = float32(piece)
		}
	}
	black := pos.Turn() == chess.Black
	if black {
		for i := 64; i < 128; i++ {
			features[i] = 1
		}
	}
	return TrainingRecord{
		Features:   features,
		SideToMove: black,
		Value:      value,
		Draw:       draw,
	}
}
