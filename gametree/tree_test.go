package gametree

import (
	"testing"

	"github.com/matryer/is"
	"github.com/notnil/chess"
)

func mustDecode(t *testing.T, tr *Tree, uci string) *chess.Move {
	t.Helper()
	m, err := chess.UCINotation{}.Decode(tr.HeadPosition(), uci)
	if err != nil {
		t.Fatalf("decode %s: %v", uci, err)
	}
	return m
}

func TestNewTree(t *testing.T) {
	is := is.New(t)
	tr := New()
	is.Equal(tr.CurrentHead(), tr.GameBeginNode())
	is.Equal(tr.StartFEN(), StartFENStandard)
	is.Equal(tr.PlyCount(), 0)
	is.True(!tr.IsBlackToMove())
	is.Equal(tr.ComputeResult(), Undecided)
}

func TestMakeMoveAppendsAndDescends(t *testing.T) {
	is := is.New(t)
	tr := New()
	root := tr.CurrentHead()

	is.NoErr(tr.MakeMove(mustDecode(t, tr, "e2e4")))
	is.True(tr.CurrentHead() != root)
	is.True(tr.IsBlackToMove())
	is.Equal(tr.PlyCount(), 1)

	node := tr.NodeAt(tr.CurrentHead())
	is.Equal(node.Parent, root)
	is.Equal(node.Move.String(), "e2e4")
}

func TestMakeMoveReusesExistingChild(t *testing.T) {
	is := is.New(t)
	tr := New()
	children := tr.ExpandHead()
	is.Equal(len(children), 20)

	var target NodeID
	for _, id := range children {
		if tr.NodeAt(id).Move.String() == "e2e4" {
			target = id
		}
	}
	tr.AddVisit(target)
	tr.AddVisit(target)

	is.NoErr(tr.MakeMove(mustDecode(t, tr, "e2e4")))
	is.Equal(tr.CurrentHead(), target)
	is.Equal(tr.NodeAt(target).Visits, uint32(2))
}

func TestTrimAtHead(t *testing.T) {
	is := is.New(t)
	tr := New()
	children := tr.ExpandHead()
	is.Equal(len(children), 20)
	tr.TrimAtHead()
	is.Equal(len(tr.NodeAt(tr.CurrentHead()).Children), 0)
	// A fresh expansion rebuilds the edges with zeroed statistics.
	is.Equal(len(tr.ExpandHead()), 20)
	for _, e := range tr.EdgesAtHead() {
		is.Equal(e.N, uint32(0))
	}
}

func TestExpandHeadIdempotent(t *testing.T) {
	is := is.New(t)
	tr := New()
	first := tr.ExpandHead()
	second := tr.ExpandHead()
	is.Equal(first, second)
}

func TestResetToPosition(t *testing.T) {
	is := is.New(t)
	tr := New()
	is.NoErr(tr.MakeMove(mustDecode(t, tr, "e2e4")))

	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1"
	is.NoErr(tr.ResetToPosition(fen, nil))
	is.Equal(tr.StartFEN(), fen)
	is.Equal(tr.PlyCount(), 0)
	is.True(tr.IsBlackToMove())

	err := tr.ResetToPosition("not a fen", nil)
	if err == nil {
		t.Error("expected error for malformed FEN")
	}
}

func TestHistoryAndResultAfter(t *testing.T) {
	is := is.New(t)
	tr := New()
	// Fool's mate up to the final queen move.
	for _, uci := range []string{"f2f3", "e7e5", "g2g4"} {
		is.NoErr(tr.MakeMove(mustDecode(t, tr, uci)))
	}
	is.Equal(len(tr.History()), 4)
	is.Equal(tr.ComputeResult(), Undecided)

	res, err := tr.ResultAfter(mustDecode(t, tr, "d8h4"))
	is.NoErr(err)
	is.Equal(res, BlackWon)
	// The projection must not commit the move.
	is.Equal(tr.PlyCount(), 3)
	is.Equal(tr.ComputeResult(), Undecided)
}

func TestTwinTreesStayInLockstep(t *testing.T) {
	is := is.New(t)
	a := New()
	b := New()
	for _, uci := range []string{"e2e4", "e7e5", "g1f3"} {
		m := mustDecode(t, a, uci)
		is.NoErr(a.MakeMove(m))
		// The same move object commits on the twin via re-decoding.
		is.NoErr(b.MakeMove(m))
	}
	is.Equal(a.HeadPosition().String(), b.HeadPosition().String())
}
