package sim

import (
	"math"

	"github.com/san-kum/kinsim/internal/forcing"
)

// Window is one integration interval. Pulse is the index of the forcing
// pulse active in it, or -1 outside the pulse program.
type Window struct {
	Index int
	Start float64
	End   float64
	Pulse int
}

func (w Window) Length() float64 { return w.End - w.Start }

// Schedule splits [start, end] into integration windows. Without a schedule
// the whole interval is one window. With one, the first window runs up to
// the pulse start offset, then one window per pulse for every complete
// cycle, then partial-cycle windows consume the remainder.
func Schedule(start, end float64, sched *forcing.Schedule) []Window {
	if sched == nil || len(sched.Pulses) == 0 {
		return []Window{{Index: 0, Start: start, End: end, Pulse: -1}}
	}

	total := end - start
	// windows shorter than this are rounding residue
	minLen := 1e-12 * math.Max(1, math.Abs(total))

	var out []Window
	add := func(from, to float64, pulse int) {
		to = math.Min(to, end)
		if to-from <= minLen {
			return
		}
		out = append(out, Window{Index: len(out), Start: from, End: to, Pulse: pulse})
	}

	t := start
	add(t, start+sched.Start, -1)
	t = math.Min(start+sched.Start, end)

	cycle := sched.CycleLength()
	cycles := 0
	if total > sched.Start {
		cycles = int(math.Floor((total - sched.Start) / cycle))
	}
	offsets := make([]float64, len(sched.Pulses)+1)
	for k, p := range sched.Pulses {
		offsets[k+1] = offsets[k] + p.Duration
	}
	base := t
	for c := 0; c < cycles; c++ {
		from := base + float64(c)*cycle
		for k := range sched.Pulses {
			add(from+offsets[k], from+offsets[k+1], k)
		}
	}
	t = base + float64(cycles)*cycle

	for k := 0; t < end-minLen; k = (k + 1) % len(sched.Pulses) {
		next := math.Min(t+sched.Pulses[k].Duration, end)
		add(t, next, k)
		t = next
	}

	if len(out) == 0 {
		return []Window{{Index: 0, Start: start, End: end, Pulse: -1}}
	}
	out[len(out)-1].End = end
	return out
}
