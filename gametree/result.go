package gametree

import (
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// Result is the outcome of a game. It transitions exactly once, from
// Undecided to one of the terminal values.
type Result int

const (
	Undecided Result = iota
	WhiteWon
	BlackWon
	Draw
)

func (r Result) String() string {
	switch r {
	case WhiteWon:
		return "1-0"
	case BlackWon:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	}
	return "*"
}

// ResultOf adjudicates a position history: checkmate and stalemate from the
// final position, then insufficient mating material, then the fifty-move
// rule (100 reversible plies), then threefold repetition. Draws are declared
// automatically rather than left claimable, since there is no player to
// claim them in self-play.
func ResultOf(history []*chess.Position) Result {
	if len(history) == 0 {
		return Undecided
	}
	head := history[len(history)-1]
	switch head.Status() {
	case chess.Checkmate:
		if head.Turn() == chess.White {
			return BlackWon
		}
		return WhiteWon
	case chess.Stalemate:
		return Draw
	}
	if insufficientMaterial(head) {
		return Draw
	}
	if halfMoveClock(head) >= 100 {
		return Draw
	}
	if repetitionCount(history) >= 2 {
		return Draw
	}
	return Undecided
}

// insufficientMaterial reports whether neither side can possibly deliver
// mate: bare kings, a lone minor piece, or bishops confined to one square
// color. Any pawn, rook or queen on the board keeps mate possible.
func insufficientMaterial(pos *chess.Position) bool {
	board := pos.Board()
	knights := 0
	lightBishops, darkBishops := 0, 0
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		switch piece.Type() {
		case chess.NoPieceType, chess.King:
		case chess.Knight:
			knights++
		case chess.Bishop:
			if (int(sq.File())+int(sq.Rank()))%2 == 0 {
				darkBishops++
			} else {
				lightBishops++
			}
		default:
			return false
		}
	}
	if knights == 0 {
		return lightBishops == 0 || darkBishops == 0
	}
	return knights == 1 && lightBishops == 0 && darkBishops == 0
}

// halfMoveClock extracts the reversible-ply counter from the position's FEN.
func halfMoveClock(pos *chess.Position) int {
	fields := strings.Fields(pos.String())
	if len(fields) < 5 {
		return 0
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0
	}
	return n
}

// repetitionCount counts how many earlier positions in the history repeat
// the final one (piece placement, side to move, castling and en passant
// rights; move clocks excluded).
func repetitionCount(history []*chess.Position) int {
	key := repetitionKey(history[len(history)-1])
	count := 0
	for _, pos := range history[:len(history)-1] {
		if repetitionKey(pos) == key {
			count++
		}
	}
	return count
}

func repetitionKey(pos *chess.Position) string {
	fields := strings.Fields(pos.String())
	if len(fields) < 4 {
		return pos.String()
	}
	return strings.Join(fields[:4], " ")
}
