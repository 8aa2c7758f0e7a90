package audio

import (
	"context"
	"fmt"
	log "log/slog"
	"time"
)

// PCMTranscriber turns 16 kHz mono PCM into text.
type PCMTranscriber interface {
	TranscribePCM(ctx context.Context, pcm []float32) (string, error)
}

type recorder interface {
	Record(ctx context.Context) ([]float32, error)
}

// Listener records one utterance and transcribes it.
type Listener struct {
	rec     recorder
	stt     PCMTranscriber
	timeout time.Duration
}

func NewListener(rec *Recorder, stt PCMTranscriber) *Listener {
	return &Listener{rec: rec, stt: stt, timeout: time.Minute}
}

func (l *Listener) Listen(ctx context.Context) (string, error) {
	pcm, err := l.rec.Record(ctx)
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	log.Debug("Recorded", "samples", len(pcm))

	tctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	text, err := l.stt.TranscribePCM(tctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return text, nil
}
