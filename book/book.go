// Package book holds opening lines for self-play: pre-determined move
// sequences that are replayed at the start of a game before search-driven
// play begins. A line is parsed once into partially disambiguated ply
// descriptors; resolving a descriptor against a concrete board happens in
// the selfplay package.
package book

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// NoSource marks an unspecified source file or rank constraint.
const NoSource = -1

// Ply is one half-move as it appears in an opening line: a destination
// square, the moved piece type, and whatever disambiguation the notation
// carried. Coordinates are perspective-normalized: plies for Black are
// stored rank-mirrored so that both sides read from the mover's point of
// view. Resolution against an absolute board mirrors candidates back.
type Ply struct {
	Target    chess.Square
	Piece     chess.PieceType
	FromFile  int // 0..7 for a..h, NoSource if unspecified
	FromRank  int // 0..7 for ranks 1..8, NoSource if unspecified
	Promotion chess.PieceType

	KingsideCastle  bool
	QueensideCastle bool

	// Notation is the original token, kept for error reporting.
	Notation string
}

// Castle reports whether the ply is either castling move.
func (p *Ply) Castle() bool {
	return p.KingsideCastle || p.QueensideCastle
}

// Entry pairs the White and Black halves of one full move. Either half may
// be nil, which happens on the last move of a line ending with a White ply.
type Entry struct {
	White *Ply
	Black *Ply
}

// Half returns the ply for the given side, or nil if the entry has none.
func (e Entry) Half(black bool) *Ply {
	if black {
		return e.Black
	}
	return e.White
}

// Line is an ordered sequence of paired half-moves.
type Line []Entry

// UnknownMoveError reports a book ply that could not be parsed or could not
// be matched against any legal move. It signals a corrupt or incompatible
// opening line; the enclosing self-play game must be abandoned.
type UnknownMoveError struct {
	Notation string
}

func (e *UnknownMoveError) Error() string {
	return fmt.Sprintf("book: unrecognized move %q", e.Notation)
}

var pieceLetters = map[byte]chess.PieceType{
	'N': chess.Knight,
	'B': chess.Bishop,
	'R': chess.Rook,
	'Q': chess.Queen,
	'K': chess.King,
}

// ParseLine parses a space-separated sequence of SAN tokens, alternating
// White and Black half-moves, into a Line. Move numbers ("1." etc) and
// result markers are skipped.
func ParseLine(s string) (Line, error) {
	var line Line
	var entry Entry
	black := false
	for _, tok := range strings.Fields(s) {
		if skipToken(tok) {
			continue
		}
		ply, err := ParseSAN(tok, black)
		if err != nil {
			return nil, err
		}
		if black {
			entry.Black = ply
			line = append(line, entry)
			entry = Entry{}
		} else {
			entry.White = ply
		}
		black = !black
	}
	if entry.White != nil {
		line = append(line, entry)
	}
	return line, nil
}

func skipToken(tok string) bool {
	switch tok {
	case "1-0", "0-1", "1/2-1/2", "*", "...":
		return true
	}
	// move numbers like "12."
	return strings.HasSuffix(tok, ".")
}

// ParseSAN parses a single SAN token into a Ply. When black is set, square
// coordinates are mirrored into the mover's perspective.
func ParseSAN(tok string, black bool) (*Ply, error) {
	ply := &Ply{
		FromFile:  NoSource,
		FromRank:  NoSource,
		Promotion: chess.NoPieceType,
		Notation:  tok,
	}
	s := strings.TrimRight(tok, "+#!?")
	if s == "" {
		return nil, &UnknownMoveError{Notation: tok}
	}

	switch s {
	case "O-O", "0-0":
		ply.KingsideCastle = true
		return ply, nil
	case "O-O-O", "0-0-0":
		ply.QueensideCastle = true
		return ply, nil
	}

	ply.Piece = chess.Pawn
	if pt, ok := pieceLetters[s[0]]; ok {
		ply.Piece = pt
		s = s[1:]
	}

	if i := strings.IndexByte(s, '='); i >= 0 {
		if i != len(s)-2 {
			return nil, &UnknownMoveError{Notation: tok}
		}
		promo, ok := pieceLetters[s[len(s)-1]]
		if !ok || promo == chess.King {
			return nil, &UnknownMoveError{Notation: tok}
		}
		ply.Promotion = promo
		s = s[:i]
	}

	s = strings.ReplaceAll(s, "x", "")
	if len(s) < 2 {
		return nil, &UnknownMoveError{Notation: tok}
	}

	file, rank := s[len(s)-2], s[len(s)-1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return nil, &UnknownMoveError{Notation: tok}
	}
	ply.Target = square(int(file-'a'), int(rank-'1'), black)

	// Whatever precedes the target square is source disambiguation: a file,
	// a rank, or both.
	for i := 0; i < len(s)-2; i++ {
		switch c := s[i]; {
		case c >= 'a' && c <= 'h':
			ply.FromFile = int(c - 'a')
		case c >= '1' && c <= '8':
			ply.FromRank = mirrorRank(int(c-'1'), black)
		default:
			return nil, &UnknownMoveError{Notation: tok}
		}
	}
	return ply, nil
}

func square(file, rank int, mirror bool) chess.Square {
	return chess.Square(mirrorRank(rank, mirror)*8 + file)
}

func mirrorRank(rank int, mirror bool) int {
	if mirror {
		return 7 - rank
	}
	return rank
}
