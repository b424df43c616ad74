package mixer

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth   = 16
	wavFormatPCM  = 1
	wavChannelNum = 2
)

// WavWriter records mixed output to a 16-bit stereo WAV file. Samples are
// encoded as they arrive; the header is finalized on Close.
type WavWriter struct {
	file *os.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer
}

// NewWavWriter creates path and prepares it for sampleRate stereo audio.
func NewWavWriter(path string, sampleRate int) (*WavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	return &WavWriter{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, wavBitDepth, wavChannelNum, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: wavChannelNum, SampleRate: sampleRate},
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

// Write appends interleaved stereo samples as produced by Mixer.Mix.
func (w *WavWriter) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(s)
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file.
func (w *WavWriter) Close() (rerr error) {
	defer func() {
		if err := w.file.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wav: %w", err)
		}
	}()
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}
