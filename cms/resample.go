package cms

import (
	"fmt"

	resampler "github.com/tphakala/go-audio-resampler"
)

// Resampler converts one channel from the render rate to the output rate,
// one input sample at a time.
type Resampler interface {
	Push(s float32)
	// Ready reports whether an output sample can be popped.
	Ready() bool
	Pop() float32
}

// Resampler bandwidth limits.
const (
	bandwidthFraction = 0.9    // of the output Nyquist frequency
	minBandwidthHz    = 8000.0 // floor for low output rates
)

// bandwidthCap returns the passband limit for an output rate.
func bandwidthCap(outputRate int) float64 {
	bw := bandwidthFraction * float64(outputRate) / 2
	if bw < minBandwidthHz {
		bw = minBandwidthHz
	}
	return bw
}

// streamEngine is the part of the resampler library's streaming engine
// that we drive. Samples stay float32 end to end.
type streamEngine interface {
	ProcessFloat32(in []float32) ([]float32, error)
}

// sincResampler adapts the streaming polyphase engine to the push/pop
// contract. Output produced by one Push is held until popped.
type sincResampler struct {
	eng     streamEngine
	in      [1]float32
	pending []float32
	head    int
}

// newSincResampler builds a resampler from the render rate to outputRate.
// The passband preset is the narrowest one that still covers the bandwidth
// cap.
func newSincResampler(outputRate int) (*sincResampler, error) {
	fraction := bandwidthCap(outputRate) / (float64(outputRate) / 2)

	quality := resampler.QualityVeryHigh
	switch {
	case fraction <= 0.80:
		quality = resampler.QualityLow
	case fraction <= 0.90:
		quality = resampler.QualityMedium
	case fraction <= 0.95:
		quality = resampler.QualityHigh
	}

	eng, err := resampler.NewEngine(float64(renderRateHz), float64(outputRate), quality)
	if err != nil {
		return nil, fmt.Errorf("resampler %d->%d Hz: %w", renderRateHz, outputRate, err)
	}
	return &sincResampler{eng: eng}, nil
}

func (r *sincResampler) Push(s float32) {
	r.in[0] = s
	out, err := r.eng.ProcessFloat32(r.in[:])
	if err != nil {
		// Process only fails on malformed input, which a single sample
		// never is.
		panic(fmt.Sprintf("cms: resampler rejected input: %v", err))
	}
	if len(out) == 0 {
		return
	}
	if r.head == len(r.pending) {
		r.pending = r.pending[:0]
		r.head = 0
	}
	r.pending = append(r.pending, out...)
}

func (r *sincResampler) Ready() bool {
	return r.head < len(r.pending)
}

func (r *sincResampler) Pop() float32 {
	s := r.pending[r.head]
	r.head++
	return s
}
