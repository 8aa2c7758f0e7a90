// Package audioconv decodes wav, mp3 and ogg (vorbis or opus) audio into
// the 16 kHz mono float PCM whisper expects.
package audioconv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

const TargetRate = 16000

type Options struct {
	MaxSamples int
}

type Format int

const (
	Unknown Format = iota
	WAV
	MP3
	Ogg
)

func (f Format) String() string {
	switch f {
	case WAV:
		return "wav"
	case MP3:
		return "mp3"
	case Ogg:
		return "ogg"
	}
	return "unknown"
}

// Detect identifies the container from the leading bytes of a clip.
func Detect(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, []byte("RIFF")):
		return WAV
	case bytes.HasPrefix(head, []byte("OggS")):
		return Ogg
	case bytes.HasPrefix(head, []byte("ID3")):
		return MP3
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		// bare MPEG frame sync
		return MP3
	}
	return Unknown
}

func formatFromExt(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return WAV
	case ".mp3":
		return MP3
	case ".ogg", ".oga", ".opus":
		return Ogg
	}
	return Unknown
}

// ConvertFile decodes the file at path, trusting its extension before
// sniffing the content.
func ConvertFile(path string, opt Options) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f := formatFromExt(path)
	if f == Unknown {
		f = Detect(data)
	}
	return Decode(bytes.NewReader(data), f, opt)
}

// DecodeBytes sniffs and decodes an in-memory clip.
func DecodeBytes(data []byte, opt Options) ([]float32, error) {
	return Decode(bytes.NewReader(data), Detect(data), opt)
}

func Decode(r io.ReadSeeker, f Format, opt Options) ([]float32, error) {
	var (
		x   []float32
		err error
	)
	switch f {
	case WAV:
		x, err = decodeWAV(r)
	case MP3:
		x, err = decodeMP3(r)
	case Ogg:
		x, err = decodeOgg(r)
	default:
		return nil, errors.New("unsupported format (supported: wav/mp3/ogg-vorbis/ogg-opus)")
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f, err)
	}
	if opt.MaxSamples > 0 && len(x) > opt.MaxSamples {
		x = x[:opt.MaxSamples]
	}
	return x, nil
}

// decodeOgg tries vorbis first and falls back to opus.
func decodeOgg(r io.ReadSeeker) ([]float32, error) {
	x, verr := decodeOggVorbis(r)
	if verr == nil {
		return x, nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	x, oerr := decodeOggOpus(r)
	if oerr != nil {
		return nil, fmt.Errorf("neither vorbis (%v) nor opus: %w", verr, oerr)
	}
	return x, nil
}

// toMono16k downmixes interleaved samples and resamples to TargetRate.
func toMono16k(x []float32, channels, rate int) []float32 {
	if channels > 1 {
		x = downmixInterleaved(x, channels)
	}
	return resampleLinear(x, rate, TargetRate)
}

func decodeWAV(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if pb == nil || len(pb.Data) == 0 {
		return nil, errors.New("empty wav")
	}

	bd := int(dec.BitDepth)
	if bd == 0 {
		bd = 16
	}

	ch, sr := 1, 44100
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			ch = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			sr = pb.Format.SampleRate
		}
	}
	return toMono16k(intSliceToFloat32(pb.Data, bd), ch, sr), nil
}

func decodeMP3(r io.Reader) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, err
	}
	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, &ints); err != nil {
		return nil, err
	}

	sr := dec.SampleRate()
	if sr <= 0 {
		sr = 44100
	}
	// go-mp3 always yields interleaved stereo
	return toMono16k(int16SliceToFloat32(ints), 2, sr), nil
}

func decodeOggVorbis(r io.Reader) ([]float32, error) {
	pcm, f, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if f == nil || f.Channels <= 0 || f.SampleRate <= 0 {
		return nil, errors.New("invalid ogg/vorbis stream")
	}
	return toMono16k(pcm, f.Channels, f.SampleRate), nil
}

func decodeOggOpus(r io.ReadSeeker) ([]float32, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	// opus always decodes at 48 kHz
	var (
		pcm48 []float32
		buf   = make([]int16, 48_000*ch/2)
	)
	for {
		n, err := dec.Read(buf) // samples per channel
		if n > 0 {
			pcm48 = append(pcm48, int16SliceToFloat32(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if len(pcm48) == 0 {
		return nil, errors.New("empty opus stream")
	}
	return toMono16k(pcm48, ch, 48000), nil
}

func intSliceToFloat32(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*scale, -1.0, 1.0))
	}
	return out
}

func int16SliceToFloat32(data []int16) []float32 {
	out := make([]float32, len(data))
	const scale = 1.0 / 32768.0
	for i, v := range data {
		out[i] = float32(float64(v) * scale)
	}
	return out
}

func downmixInterleaved(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	nFrames := len(in) / channels
	out := make([]float32, nFrames)
	for i := 0; i < nFrames; i++ {
		sum := 0.0
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += float64(in[base+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

func resampleLinear(in []float32, inSR, outSR int) []float32 {
	if inSR == outSR || len(in) == 0 {
		return in
	}
	ratio := float64(outSR) / float64(inSR)
	outN := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, outN)
	for i := 0; i < outN; i++ {
		src := float64(i) / ratio
		i0 := int(math.Floor(src))
		i1 := i0 + 1
		if i0 >= len(in) {
			out[i] = in[len(in)-1]
			continue
		}
		if i1 >= len(in) {
			out[i] = in[i0]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i1]*a
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
