package selfplay

import (
	"github.com/notnil/chess"

	"github.com/castlegate/autoplay/book"
)

// ResolveMove resolves a book ply against a concrete board into the unique
// legal move satisfying all of the ply's constraints. The ply's coordinates
// are perspective-normalized; mirror must be set when resolving for Black
// so candidate moves are mirrored into the same frame before matching.
//
// Failure means the opening line does not fit the position — corrupt or
// incompatible book data — and the enclosing game must be abandoned.
func ResolveMove(pos *chess.Position, ply *book.Ply, mirror bool) (*chess.Move, error) {
	if ply.Castle() {
		return resolveCastle(pos, ply, mirror)
	}

	for _, cand := range pos.ValidMoves() {
		s1, s2 := cand.S1(), cand.S2()
		if mirror {
			s1, s2 = mirrorSquare(s1), mirrorSquare(s2)
		}
		if s2 != ply.Target {
			continue
		}
		// The claimed piece type must match what actually sits on the
		// source square.
		if pos.Board().Piece(cand.S1()).Type() != ply.Piece {
			continue
		}
		if ply.FromFile != book.NoSource && int(s1.File()) != ply.FromFile {
			continue
		}
		if ply.FromRank != book.NoSource && int(s1.Rank()) != ply.FromRank {
			continue
		}
		if ply.Promotion != chess.NoPieceType {
			if cand.Promo() != ply.Promotion {
				continue
			}
		} else if cand.Promo() != chess.NoPieceType && cand.Promo() != chess.Queen {
			// A promoting move the book spells without a promotion piece
			// defaults to the queen.
			continue
		}
		return cand, nil
	}
	return nil, &book.UnknownMoveError{Notation: ply.Notation}
}

// resolveCastle builds the castle move directly from the king's home square
// and the target file; castling is structurally unambiguous, so no
// legal-move enumeration is needed.
func resolveCastle(pos *chess.Position, ply *book.Ply, mirror bool) (*chess.Move, error) {
	homeRank := chess.Rank1
	if mirror {
		homeRank = chess.Rank8
	}
	targetFile := chess.FileG
	if ply.QueensideCastle {
		targetFile = chess.FileC
	}
	from := chess.Square(int(homeRank)*8 + int(chess.FileE))
	to := chess.Square(int(homeRank)*8 + int(targetFile))
	mv, err := chess.UCINotation{}.Decode(pos, from.String()+to.String())
	if err != nil {
		return nil, &book.UnknownMoveError{Notation: ply.Notation}
	}
	return mv, nil
}

func mirrorSquare(sq chess.Square) chess.Square {
	return chess.Square((7-int(sq.Rank()))*8 + int(sq.File()))
}
