// Package cli provides a command-line runner for the emulator.
// It runs the guest in real time and plays the card through the host audio
// device.
package cli

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/user-none/emcms/emu"
	"github.com/user-none/emcms/mixer"
)

// slicesPerSecond is how often the emulation goroutine wakes up.
const slicesPerSecond = 60

// Runner wraps an emulator for command-line mode.
// The emulator runs on a dedicated goroutine that keeps emulated time in
// step with wall time; the audio device pulls from the mixer on its own
// goroutine.
type Runner struct {
	emulator *emu.Emulator
	output   *mixer.OtoOutput
	volume   float64

	control *Control
	resync  atomic.Bool
	done    chan struct{}
}

// NewRunner starts running e. With audio false, or if the audio device
// cannot be opened, the runner drains the mixer itself and plays nothing.
func NewRunner(e *emu.Emulator, volume float64, audio bool) *Runner {
	r := &Runner{
		emulator: e,
		volume:   volume,
		control:  NewControl(),
		done:     make(chan struct{}),
	}

	if audio {
		out, err := mixer.NewOtoOutput(e.Mixer(), volume)
		if err != nil {
			log.Printf("Warning: audio initialization failed: %v", err)
		} else {
			r.output = out
		}
	}

	go r.emulationLoop()

	return r
}

// Pause stops emulated time and mutes output. It returns once the
// emulation goroutine is parked.
func (r *Runner) Pause() {
	r.control.RequestPause()
	if r.output != nil {
		r.output.SetVolume(0)
	}
}

// Resume continues after Pause.
func (r *Runner) Resume() {
	if r.output != nil {
		r.output.SetVolume(r.volume)
	}
	// Time spent paused is not made up.
	r.resync.Store(true)
	r.control.RequestResume()
}

// Paused reports whether emulation is paused.
func (r *Runner) Paused() bool {
	return r.control.IsPaused()
}

// Done is closed when the emulation goroutine exits.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Close stops emulation and audio. The emulator itself is left open.
func (r *Runner) Close() {
	r.control.Stop()
	<-r.done

	if r.output != nil {
		r.output.Close()
		r.output = nil
	}
}

// emulationLoop runs on a dedicated goroutine. Each slice it runs the
// guest for however much emulated time wall time has gained, then sleeps
// out the rest of the slice.
func (r *Runner) emulationLoop() {
	defer close(r.done)

	sliceTime := time.Second / slicesPerSecond
	rate := float64(r.emulator.Mixer().SampleRate())
	p := newPacer(time.Now(), r.emulator.Now())

	// owedFrames carries the fractional frame between slices when the
	// runner drains the mixer itself.
	var owedFrames float64

	for {
		if !r.control.CheckPause() {
			return
		}

		sliceStart := time.Now()
		if r.resync.Swap(false) {
			p.rebase(sliceStart, r.emulator.Now())
		}

		if ms := p.due(sliceStart, r.emulator.Now()); ms > 0 {
			before := r.emulator.Now()
			r.emulator.RunFor(ms)

			// Without a device nothing pulls audio, so pull it here to keep
			// the card's queue bounded.
			if r.output == nil {
				owedFrames += (r.emulator.Now() - before) * rate / 1000
				if n := int(owedFrames); n > 0 {
					owedFrames -= float64(n)
					r.emulator.Mixer().Mix(n)
				}
			}
		}

		if sleepTime := sliceTime - time.Since(sliceStart); sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}
	}
}
