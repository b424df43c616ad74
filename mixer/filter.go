package mixer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FilterKind selects low-pass or high-pass response.
type FilterKind int

const (
	LowPass FilterKind = iota
	HighPass
)

// Filter order limits. Each order adds one RC stage (6 dB/octave).
const (
	MinFilterOrder = 1
	MaxFilterOrder = 16
)

var errBadFilterSpec = errors.New("invalid filter specification")

// FilterSetting is one parsed filter from a custom filter description.
type FilterSetting struct {
	Kind     FilterKind
	Order    int
	CutoffHz int
}

// ParseFilterSpec parses a description made of up to one "lpf <order> <hz>"
// and one "hpf <order> <hz>" clause. Cutoffs must lie below the Nyquist
// frequency of sampleRate.
func ParseFilterSpec(spec string, sampleRate int) ([]FilterSetting, error) {
	fields := strings.Fields(strings.ToLower(spec))
	if len(fields) == 0 || len(fields)%3 != 0 {
		return nil, fmt.Errorf("%w: %q", errBadFilterSpec, spec)
	}

	var out []FilterSetting
	seen := map[FilterKind]bool{}
	for i := 0; i < len(fields); i += 3 {
		var kind FilterKind
		switch fields[i] {
		case "lpf":
			kind = LowPass
		case "hpf":
			kind = HighPass
		default:
			return nil, fmt.Errorf("%w: unknown filter type %q", errBadFilterSpec, fields[i])
		}
		if seen[kind] {
			return nil, fmt.Errorf("%w: %q given twice", errBadFilterSpec, fields[i])
		}
		seen[kind] = true

		order, err := strconv.Atoi(fields[i+1])
		if err != nil || order < MinFilterOrder || order > MaxFilterOrder {
			return nil, fmt.Errorf("%w: order %q out of range", errBadFilterSpec, fields[i+1])
		}
		cutoff, err := strconv.Atoi(fields[i+2])
		if err != nil || cutoff <= 0 || cutoff >= sampleRate/2 {
			return nil, fmt.Errorf("%w: cutoff %q out of range", errBadFilterSpec, fields[i+2])
		}
		out = append(out, FilterSetting{Kind: kind, Order: order, CutoffHz: cutoff})
	}
	return out, nil
}

// filterChain is a cascade of first-order RC sections applied to both
// stereo channels, with state persisting across Mix calls.
type filterChain struct {
	kind     FilterKind
	enabled  bool
	order    int
	cutoffHz int
	alpha    float64
	prevIn   [MaxFilterOrder][2]float64
	prevOut  [MaxFilterOrder][2]float64
}

// configure derives the smoothing factor from the cutoff.
// Low-pass:  alpha = dt / (RC + dt)
// High-pass: alpha = RC / (RC + dt)
// where RC = 1/(2*pi*fc) and dt = 1/sampleRate.
func (f *filterChain) configure(order, cutoffHz, sampleRate int) {
	if order < MinFilterOrder {
		order = MinFilterOrder
	}
	if order > MaxFilterOrder {
		order = MaxFilterOrder
	}
	f.order = order
	f.cutoffHz = cutoffHz

	rc := 1.0 / (2 * math.Pi * float64(cutoffHz))
	dt := 1.0 / float64(sampleRate)
	if f.kind == LowPass {
		f.alpha = dt / (rc + dt)
	} else {
		f.alpha = rc / (rc + dt)
	}
	f.prevIn = [MaxFilterOrder][2]float64{}
	f.prevOut = [MaxFilterOrder][2]float64{}
}

func (f *filterChain) process(l, r float32) (float32, float32) {
	in := [2]float64{float64(l), float64(r)}
	for s := 0; s < f.order; s++ {
		for c := 0; c < 2; c++ {
			var y float64
			if f.kind == LowPass {
				y = f.alpha*in[c] + (1-f.alpha)*f.prevOut[s][c]
			} else {
				y = f.alpha * (f.prevOut[s][c] + in[c] - f.prevIn[s][c])
			}
			f.prevIn[s][c] = in[c]
			f.prevOut[s][c] = y
			in[c] = y
		}
	}
	return float32(in[0]), float32(in[1])
}
