package selfplay

import (
	"time"

	"github.com/castlegate/autoplay/engine"
)

// Unset marks a limit that is not configured.
const Unset = -1

// Limits are the optional per-move search bounds of one side. Any subset,
// including none at all, may be set; an unlimited search then relies on the
// engine's intrinsic stoppers.
type Limits struct {
	Visits     int64
	Playouts   int64
	MoveTimeMS int64
}

// DefaultLimits returns limits with every bound unset.
func DefaultLimits() Limits {
	return Limits{Visits: Unset, Playouts: Unset, MoveTimeMS: Unset}
}

// MakeStopper builds the composite early-termination policy for these
// limits: one sub-stopper per configured bound, first to trigger wins.
func (l Limits) MakeStopper() *engine.ChainedStopper {
	c := &engine.ChainedStopper{}
	if l.Visits >= 0 {
		c.AddStopper(engine.VisitsStopper(l.Visits))
	}
	if l.Playouts >= 0 {
		c.AddStopper(engine.PlayoutsStopper(l.Playouts))
	}
	if l.MoveTimeMS >= 0 {
		c.AddStopper(engine.TimeStopper(time.Duration(l.MoveTimeMS) * time.Millisecond))
	}
	return c
}
