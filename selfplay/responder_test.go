package selfplay

import (
	"testing"

	"github.com/matryer/is"
	"github.com/notnil/chess"

	"github.com/castlegate/autoplay/engine"
)

func TestMirrorUCI(t *testing.T) {
	is := is.New(t)
	is.Equal(mirrorUCI("e7e5"), "e2e4")
	is.Equal(mirrorUCI("e2e4"), "e7e5")
	is.Equal(mirrorUCI("a1h8"), "a8h1")
	is.Equal(mirrorUCI("b2a1q"), "b7a8q")
	is.Equal(mirrorUCI("xy"), "xy")
}

func TestRelativeUCI(t *testing.T) {
	is := is.New(t)
	is.Equal(relativeUCI("g8f6", true), "g1f3")
	is.Equal(relativeUCI("g1f3", false), "g1f3")
}

func TestLegacyCastleUCI(t *testing.T) {
	is := is.New(t)
	pos := posFromFEN(t, "r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1")

	// A two-file castle is already in the legacy encoding.
	mv, err := chess.UCINotation{}.Decode(pos, "e1g1")
	is.NoErr(err)
	is.Equal(legacyCastleUCI(pos, mv), "e1g1")

	// A plain move passes through untouched.
	mv, err = chess.UCINotation{}.Decode(pos, "e2e4")
	is.NoErr(err)
	is.Equal(legacyCastleUCI(pos, mv), "e2e4")
}

func TestResponderForwardsCallbacks(t *testing.T) {
	is := is.New(t)
	var gotMove string
	var gotInfo engine.Info
	cb := Callbacks{
		BestMove: func(m string) { gotMove = m },
		Info:     func(i engine.Info) { gotInfo = i },
	}
	pos := chess.NewGame().Position()
	r := newResponder(cb, pos, false)

	mv, err := chess.UCINotation{}.Decode(pos, "e2e4")
	is.NoErr(err)
	r.OnBestMove(mv)
	is.Equal(gotMove, "e2e4")

	r.OnInfo(engine.Info{Playouts: 42})
	is.Equal(gotInfo.Playouts, uint64(42))
}

func TestResponderNilCallbacks(t *testing.T) {
	is := is.New(t)
	pos := chess.NewGame().Position()
	r := newResponder(Callbacks{}, pos, true)
	mv, err := chess.UCINotation{}.Decode(pos, "e2e4")
	is.NoErr(err)
	// Must not panic with no callbacks configured.
	r.OnBestMove(mv)
	r.OnInfo(engine.Info{})
}
