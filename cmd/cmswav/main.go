// Command cmswav runs a guest program without real-time pacing and writes
// the card's output to a WAV file.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/user-none/emcms/cms"
	"github.com/user-none/emcms/emu"
	"github.com/user-none/emcms/mixer"
)

// chunkFrames is how much audio is mixed per emulation step (10ms at 48kHz).
const chunkFrames = 480

func main() {
	progPath := flag.String("prog", "", "path to a raw Z80 program loaded at 0x0000 (default: built-in demo)")
	outPath := flag.String("o", "cms.wav", "output WAV file")
	seconds := flag.Float64("seconds", 5, "length to render")
	base := flag.String("base", "220", "card base port (hex)")
	card := flag.String("card", string(cms.DefaultCard), "card type: gb or cms")
	filter := flag.String("filter", cms.DefaultFilter, "output filter: on, off, or e.g. \"lpf 2 8000\"")
	rate := flag.Int("rate", mixer.DefaultSampleRate, "output sample rate")
	flag.Parse()

	if *seconds <= 0 {
		log.Fatal("seconds must be positive")
	}

	program := emu.DemoProgram
	if *progPath != "" {
		data, err := os.ReadFile(*progPath)
		if err != nil {
			log.Fatalf("Failed to load program: %v", err)
		}
		program = data
	}

	opts := cms.Options{
		cms.KeyBase:   *base,
		cms.KeyCard:   *card,
		cms.KeyFilter: *filter,
	}
	e, err := emu.NewEmulator(program, opts, *rate)
	if err != nil {
		log.Fatalf("Failed to initialize emulator: %v", err)
	}
	defer e.Close()

	w, err := mixer.NewWavWriter(*outPath, *rate)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}

	if err := render(e, w, *seconds, *rate); err != nil {
		w.Close()
		log.Fatalf("Render failed: %v", err)
	}
	if err := w.Close(); err != nil {
		log.Fatalf("Failed to finish output: %v", err)
	}
	log.Printf("wrote %.1fs to %s", *seconds, *outPath)
}

// render advances e in lockstep with the mixer so every chunk of audio is
// pulled right after the emulated time it covers.
func render(e *emu.Emulator, w *mixer.WavWriter, seconds float64, rate int) error {
	total := int(seconds * float64(rate))
	chunkMs := float64(chunkFrames) * 1000 / float64(rate)

	for done := 0; done < total; done += chunkFrames {
		n := chunkFrames
		if total-done < n {
			n = total - done
		}
		e.RunFor(chunkMs * float64(n) / chunkFrames)
		if err := w.Write(e.Mixer().Mix(n)); err != nil {
			return err
		}
	}
	return nil
}
