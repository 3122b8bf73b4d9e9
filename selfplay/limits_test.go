package selfplay

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestDefaultLimitsUnset(t *testing.T) {
	is := is.New(t)
	l := DefaultLimits()
	is.Equal(l.Visits, int64(Unset))
	is.Equal(l.Playouts, int64(Unset))
	is.Equal(l.MoveTimeMS, int64(Unset))
	is.Equal(l.MakeStopper().Len(), 0)
}

func TestMakeStopperOnePerBound(t *testing.T) {
	is := is.New(t)
	l := Limits{Visits: 100, Playouts: Unset, MoveTimeMS: 500}
	c := l.MakeStopper()
	is.Equal(c.Len(), 2)

	is.True(!c.ShouldStop(99, 0, 100*time.Millisecond))
	is.True(c.ShouldStop(100, 0, 100*time.Millisecond))
	is.True(c.ShouldStop(0, 0, 500*time.Millisecond))
}

func TestMakeStopperZeroIsABound(t *testing.T) {
	is := is.New(t)
	// Zero is a configured bound, not an unset one.
	l := Limits{Visits: 0, Playouts: Unset, MoveTimeMS: Unset}
	c := l.MakeStopper()
	is.Equal(c.Len(), 1)
	is.True(c.ShouldStop(0, 0, 0))
}
