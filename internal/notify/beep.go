// Package notify plays the listening cue and raises desktop notifications.
package notify

import (
	"fmt"
	log "log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

const cueRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(cueRate, cueRate.N(time.Second/10))
	})
	return speakerErr
}

// tone is a sine wave with a short linear fade at both ends.
func tone(freq float64, d time.Duration) beep.Streamer {
	total := cueRate.N(d)
	fade := total / 10
	pos := 0

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for i := range samples {
			if pos >= total {
				break
			}
			gain := 0.3
			if fade > 0 && pos < fade {
				gain *= float64(pos) / float64(fade)
			} else if fade > 0 && total-pos < fade {
				gain *= float64(total-pos) / float64(fade)
			}
			v := gain * math.Sin(2*math.Pi*freq*float64(pos)/float64(cueRate))
			samples[i] = [2]float64{v, v}
			pos++
			n++
		}
		return n, true
	})
}

func loadCue(path string) (beep.Streamer, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	s, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("decode cue: %w", err)
	}
	var out beep.Streamer = s
	if format.SampleRate != cueRate {
		out = beep.Resample(4, format.SampleRate, cueRate, s)
	}
	return out, func() { s.Close() }, nil
}

// Beep plays the cue file at path, or a short tone when path is empty or
// cannot be decoded. It blocks until playback ends.
func Beep(path string) error {
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	var (
		s       beep.Streamer
		release = func() {}
	)
	if path != "" {
		cue, rel, err := loadCue(path)
		if err != nil {
			log.Debug("Falling back to tone cue", "path", path, "err", err)
		} else {
			s, release = cue, rel
		}
	}
	if s == nil {
		s = beep.Seq(tone(880, 90*time.Millisecond), tone(1320, 90*time.Millisecond))
	}
	defer release()

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() { close(done) })))
	<-done
	return nil
}
