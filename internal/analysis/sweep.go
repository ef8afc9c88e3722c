package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/sim"
)

// SweepPoint is the response of one species at one forward rate constant.
// Min and Max cover the recorded tail of the run.
type SweepPoint struct {
	Kf    float64
	Final float64
	Min   float64
	Max   float64
}

// SweepOptions configures RateSweep.
//
// Parameters:
// - Reaction: 0-based reaction whose Kf is swept (Kb is kept)
// - Species: 0-based species to record
// - From, To, Points: range of Kf values, inclusive
// - Log: space values geometrically instead of linearly
// - Record: fraction of the run, from the end, used for Min and Max
type SweepOptions struct {
	Reaction int
	Species  int
	From, To float64
	Points   int
	Log      bool
	Record   float64
}

// RateSweep runs the network once per rate constant value. Each run uses
// its own simulator.
func RateSweep(ctx context.Context, net *chem.Network, cfg sim.Config, opts SweepOptions) ([]SweepPoint, error) {
	if opts.Species < 0 || opts.Species >= net.NumSpecies() {
		return nil, fmt.Errorf("analysis: species %d out of range", opts.Species+1)
	}
	if opts.Reaction < 0 || opts.Reaction >= net.NumReactions() {
		return nil, fmt.Errorf("%w: %d", chem.ErrUnknownReaction, opts.Reaction+1)
	}
	if opts.Points < 2 {
		opts.Points = 2
	}
	if opts.Log && !(opts.From > 0 && opts.To > 0) {
		return nil, fmt.Errorf("analysis: log sweep needs positive bounds, got %g..%g", opts.From, opts.To)
	}
	record := opts.Record
	if !(record > 0) || record > 1 {
		record = 0.25
	}
	tail := cfg.End - record*(cfg.End-cfg.Start)

	out := make([]SweepPoint, 0, opts.Points)
	for i := 0; i < opts.Points; i++ {
		f := float64(i) / float64(opts.Points-1)
		k := opts.From + f*(opts.To-opts.From)
		if opts.Log {
			k = opts.From * math.Pow(opts.To/opts.From, f)
		}

		swept, err := net.WithRates(opts.Reaction, k, net.Reactions[opts.Reaction].Kb)
		if err != nil {
			return out, err
		}
		res, err := sim.New(nil).Run(ctx, swept, cfg)
		if err != nil {
			return out, fmt.Errorf("analysis: kf=%g: %w", k, err)
		}

		times, values := res.Store.Series(opts.Species)
		p := SweepPoint{Kf: k, Final: values[len(values)-1], Min: math.Inf(1), Max: math.Inf(-1)}
		for j, t := range times {
			if t < tail {
				continue
			}
			p.Min = math.Min(p.Min, values[j])
			p.Max = math.Max(p.Max, values[j])
		}
		out = append(out, p)
	}
	return out, nil
}

// SweepToASCII plots the recorded range of each point as a vertical bar.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, p := range data {
		minVal = math.Min(minVal, p.Min)
		maxVal = math.Max(maxVal, p.Max)
	}
	if math.IsInf(minVal, 0) || math.IsInf(maxVal, 0) {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	rowOf := func(v float64) int {
		return height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
	}
	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}
		for row := rowOf(p.Max); row <= rowOf(p.Min); row++ {
			if row >= 0 && row < height {
				canvas[row][col] = '│'
			}
		}
		if row := rowOf(p.Final); row >= 0 && row < height {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
