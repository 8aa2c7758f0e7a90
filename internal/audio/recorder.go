// Package audio captures microphone input and manages other applications'
// playback volume while the assistant talks.
package audio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
	frameDur   = 20 * time.Millisecond
)

var ErrNoSpeech = errors.New("audio: no speech detected")

// VAD tunes the energy based end-of-utterance detector.
type VAD struct {
	Threshold float64       // frame RMS above which a frame is speech
	Silence   time.Duration // trailing silence that ends the utterance
	MaxLength time.Duration
	// Lead bounds the wait for speech to begin.
	Lead time.Duration
}

var DefaultVAD = VAD{
	Threshold: 0.015,
	Silence:   600 * time.Millisecond,
	MaxLength: 10 * time.Second,
	Lead:      5 * time.Second,
}

// detector keeps the frames of one utterance. Leading silence is dropped,
// trailing silence is kept until it is long enough to end the capture.
type detector struct {
	vad      VAD
	speaking bool
	silent   time.Duration
	elapsed  time.Duration
	out      []float32
}

// push adds a frame and reports whether the capture is finished.
func (d *detector) push(frame []float32) bool {
	d.elapsed += frameDur

	if frameRMS(frame) > d.vad.Threshold {
		d.speaking = true
		d.silent = 0
		d.out = append(d.out, frame...)
	} else if d.speaking {
		d.silent += frameDur
		d.out = append(d.out, frame...)
		if d.silent >= d.vad.Silence {
			return true
		}
	} else if d.vad.Lead > 0 && d.elapsed >= d.vad.Lead {
		return true
	}
	return d.elapsed >= d.vad.MaxLength
}

func (d *detector) result() ([]float32, error) {
	if !d.speaking {
		return nil, ErrNoSpeech
	}
	return d.out, nil
}

type Recorder struct {
	vad VAD
}

// NewRecorder initializes portaudio; Close releases it.
func NewRecorder(vad VAD) (*Recorder, error) {
	if vad.Threshold <= 0 {
		vad = DefaultVAD
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Recorder{vad: vad}, nil
}

func (r *Recorder) Close() error {
	return portaudio.Terminate()
}

// Record captures one utterance from the default input as 16 kHz mono PCM.
// Capture ends after trailing silence, at the length cap, or when ctx is done.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	d := &detector{vad: r.vad, out: make([]float32, 0, SampleRate*3)}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, err
		}
		if d.push(buf) {
			return d.result()
		}
	}
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
