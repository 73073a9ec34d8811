// Package wavio reads and writes PCM WAV files as planar float64 audio.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/bassforge/dsp/dither"
)

const wavFormatPCM = 1

var (
	// ErrInvalidFile is returned for input that is not a RIFF/WAVE file.
	ErrInvalidFile = errors.New("wavio: not a valid wav file")
	// ErrUnsupportedFormat is returned for non-PCM data or bit depths
	// outside 8/16/24/32.
	ErrUnsupportedFormat = errors.New("wavio: unsupported format")
)

// Audio is a decoded file. Channels are planar and equally long.
type Audio struct {
	SampleRate float64
	BitDepth   int
	Channels   [][]float64
}

// NewAudio allocates silent audio.
func NewAudio(sampleRate float64, channels, frames int) *Audio {
	a := &Audio{SampleRate: sampleRate, BitDepth: 16, Channels: make([][]float64, channels)}
	for ch := range a.Channels {
		a.Channels[ch] = make([]float64, frames)
	}

	return a
}

// Frames returns the length of the first channel.
func (a *Audio) Frames() int {
	if len(a.Channels) == 0 {
		return 0
	}

	return len(a.Channels[0])
}

// Pad appends frames of silence to every channel.
func (a *Audio) Pad(frames int) {
	if frames <= 0 {
		return
	}

	for ch := range a.Channels {
		a.Channels[ch] = append(a.Channels[ch], make([]float64, frames)...)
	}
}

// Mono returns the channel average.
func (a *Audio) Mono() []float64 {
	out := make([]float64, a.Frames())
	if len(a.Channels) == 0 {
		return out
	}

	g := 1 / float64(len(a.Channels))
	for _, ch := range a.Channels {
		for i, v := range ch {
			out[i] += v * g
		}
	}

	return out
}

func supportedDepth(bits int) bool {
	return bits == 8 || bits == 16 || bits == 24 || bits == 32
}

// Decode reads a PCM WAV stream.
func Decode(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}

	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: audio format %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	bits := int(dec.BitDepth)
	if !supportedDepth(bits) {
		return nil, fmt.Errorf("%w: %d bit", ErrUnsupportedFormat, bits)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavio: decode: %w", err)
	}

	channels := int(dec.NumChans)
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}

	frames := len(buf.Data) / channels
	a := NewAudio(float64(dec.SampleRate), channels, frames)
	a.BitDepth = bits

	scale := 1 / float64(int(1)<<(bits-1))
	offset := 0
	if bits == 8 {
		// 8-bit WAV is unsigned.
		offset = 128
	}

	for i := range frames {
		for ch := range channels {
			a.Channels[ch][i] = float64(buf.Data[i*channels+ch]-offset) * scale
		}
	}

	return a, nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavio: %w", err)
	}
	defer f.Close()

	a, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return a, nil
}

// Encode writes a as PCM at a.BitDepth (16 when unset). Samples are
// quantized per channel by a dither.Quantizer built from opts. It returns
// the number of clipped samples.
func Encode(w io.WriteSeeker, a *Audio, opts ...dither.Option) (int, error) {
	bits := a.BitDepth
	if bits == 0 {
		bits = 16
	}

	if bits == 8 || !supportedDepth(bits) {
		return 0, fmt.Errorf("%w: cannot write %d bit", ErrUnsupportedFormat, bits)
	}

	channels := len(a.Channels)
	if channels == 0 {
		return 0, fmt.Errorf("%w: no channels", ErrUnsupportedFormat)
	}

	frames := a.Frames()
	quantizers := make([]*dither.Quantizer, channels)

	for ch := range quantizers {
		q, err := dither.NewQuantizer(a.SampleRate, append(opts, dither.WithBitDepth(bits))...)
		if err != nil {
			return 0, fmt.Errorf("wavio: %w", err)
		}

		quantizers[ch] = q
	}

	data := make([]int, frames*channels)
	for ch, q := range quantizers {
		src := a.Channels[ch]
		for i := range frames {
			data[i*channels+ch] = q.Quantize(src[i])
		}
	}

	enc := wav.NewEncoder(w, int(a.SampleRate), bits, channels, wavFormatPCM)

	err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: int(a.SampleRate)},
		Data:           data,
		SourceBitDepth: bits,
	})
	if err != nil {
		return 0, fmt.Errorf("wavio: encode: %w", err)
	}

	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("wavio: encode: %w", err)
	}

	clips := 0
	for _, q := range quantizers {
		clips += q.Clips()
	}

	return clips, nil
}

// WriteFile encodes a into a new file at path.
func WriteFile(path string, a *Audio, opts ...dither.Option) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("wavio: %w", err)
	}

	clips, err := Encode(f, a, opts...)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("wavio: %w", cerr)
	}

	return clips, err
}
