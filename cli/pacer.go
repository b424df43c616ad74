package cli

import "time"

// maxLagMs is how far emulated time may trail wall time before the pacer
// stops catching up and starts over from the current position. Host stalls
// longer than this are dropped instead of being replayed at full speed.
const maxLagMs = 250.0

// pacer locks emulated time to wall time. Both are measured from the
// point the pacer was last based.
type pacer struct {
	wallStart time.Time
	emuStart  float64
}

func newPacer(wall time.Time, emuMs float64) *pacer {
	p := &pacer{}
	p.rebase(wall, emuMs)
	return p
}

// rebase makes (wall, emuMs) the new reference point.
func (p *pacer) rebase(wall time.Time, emuMs float64) {
	p.wallStart = wall
	p.emuStart = emuMs
}

// due returns how many emulated milliseconds must run so emulated time
// catches up with wall time. Emulation ahead of wall time gets 0.
func (p *pacer) due(wall time.Time, emuMs float64) float64 {
	target := p.emuStart + float64(wall.Sub(p.wallStart))/float64(time.Millisecond)
	lag := target - emuMs
	if lag > maxLagMs {
		p.rebase(wall, emuMs)
		return 0
	}
	if lag < 0 {
		return 0
	}
	return lag
}
