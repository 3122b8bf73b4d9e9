package selfplay

import (
	"github.com/notnil/chess"

	"github.com/castlegate/autoplay/engine"
)

// callbackResponder adapts per-side callbacks to the engine's response
// sink, applying the configured castling encoding on the way out.
type callbackResponder struct {
	cb     Callbacks
	encode func(m *chess.Move) string
}

func (r *callbackResponder) OnBestMove(m *chess.Move) {
	if r.cb.BestMove != nil {
		r.cb.BestMove(r.encode(m))
	}
}

func (r *callbackResponder) OnInfo(info engine.Info) {
	if r.cb.Info != nil {
		r.cb.Info(info)
	}
}

// newResponder wraps callbacks for one ply's search. When legacy castling
// notation is required, castle moves reported as "king takes own rook" are
// re-encoded against the head board as two-file king moves.
func newResponder(cb Callbacks, head *chess.Position, legacy bool) engine.Responder {
	encode := (*chess.Move).String
	if legacy {
		encode = func(m *chess.Move) string {
			return legacyCastleUCI(head, m)
		}
	}
	return &callbackResponder{cb: cb, encode: encode}
}

// legacyCastleUCI re-encodes a king-takes-own-rook castle move as the
// legacy king-two-files encoding. Any other move is returned as plain UCI.
func legacyCastleUCI(pos *chess.Position, m *chess.Move) string {
	board := pos.Board()
	from := board.Piece(m.S1())
	to := board.Piece(m.S2())
	if from.Type() != chess.King || to.Type() != chess.Rook || from.Color() != to.Color() {
		return m.String()
	}
	targetFile := chess.FileG
	if m.S2().File() < m.S1().File() {
		targetFile = chess.FileC
	}
	target := chess.Square(int(m.S1().Rank())*8 + int(targetFile))
	return m.S1().String() + target.String()
}

// mirrorUCI flips the rank digits of a UCI move string, converting between
// absolute and side-relative coordinates. Promotion suffixes pass through.
func mirrorUCI(uci string) string {
	if len(uci) < 4 {
		return uci
	}
	b := []byte(uci)
	b[1] = '0' + ('9' - b[1])
	b[3] = '0' + ('9' - b[3])
	return string(b)
}

// relativeUCI encodes a move side-relatively: Black's moves are rank
// mirrored so the sequence reads from the mover's point of view.
func relativeUCI(uci string, blackMover bool) string {
	if blackMover {
		return mirrorUCI(uci)
	}
	return uci
}
