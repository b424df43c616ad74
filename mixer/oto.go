package mixer

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// otoBufferBytes is ~100ms at 48kHz stereo 16-bit. The player pulls from
// the mixer whenever its internal buffer drops below this.
const otoBufferBytes = 19200

// OtoOutput plays the mixer's output through oto. Oto's player goroutine
// calls Mixer.Read, which makes it the audio callback that pulls frames
// from every channel.
type OtoOutput struct {
	player *oto.Player
}

// oto context singleton
var (
	otoCtx      *oto.Context
	otoCtxRate  int
	otoInitOnce sync.Once
	otoInitErr  error
)

// ensureOtoContext initializes the oto audio context on first use. Oto
// allows one context per process, so the first sample rate wins.
func ensureOtoContext(sampleRate int) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		otoCtxRate = sampleRate
		<-readyChan
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoCtxRate != sampleRate {
		return nil, fmt.Errorf("oto context already running at %d Hz", otoCtxRate)
	}
	return otoCtx, nil
}

// NewOtoOutput starts playback of m through the host audio device.
func NewOtoOutput(m *Mixer, volume float64) (*OtoOutput, error) {
	ctx, err := ensureOtoContext(m.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	player := ctx.NewPlayer(m)
	player.SetBufferSize(otoBufferBytes)
	player.SetVolume(volume)
	player.Play()

	return &OtoOutput{player: player}, nil
}

// SetVolume sets the playback volume (0.0 = silent, 1.0 = full).
func (o *OtoOutput) SetVolume(vol float64) {
	o.player.SetVolume(vol)
}

// Close stops playback.
func (o *OtoOutput) Close() {
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
}
