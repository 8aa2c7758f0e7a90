// Package stt transcribes 16 kHz mono PCM with whisper.cpp.
package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"jarvis/pkg/audioconv"
)

var (
	ErrNoModel = errors.New("stt: empty model path")
	ErrNoAudio = errors.New("stt: no audio samples")
)

type Options struct {
	Language      string // "auto", "en", ...
	TranslateToEn bool
	Threads       int // <=0 => NumCPU()
	InitialPrompt string
	BeamSize      int // 0 = greedy
	SplitOnWord   bool
	// MaxSamples caps decoded clips; 0 = no cap.
	MaxSamples int
}

type Segment struct {
	Text     string
	StartSec float64
	EndSec   float64
}

type Result struct {
	Text     string
	Segments []Segment
	Language string
}

// Transcriber owns a loaded model. Contexts are created per call and
// calls are serialized.
type Transcriber struct {
	mu    sync.Mutex
	model whisper.Model
	opt   Options
}

func NewTranscriber(modelPath string, opt Options) (*Transcriber, error) {
	if modelPath == "" {
		return nil, ErrNoModel
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return &Transcriber{model: m, opt: opt}, nil
}

func (t *Transcriber) Close() error {
	if t.model == nil {
		return nil
	}
	return t.model.Close()
}

// TranscribePCM returns the cleaned text of pcm using the default options.
func (t *Transcriber) TranscribePCM(ctx context.Context, pcm []float32) (string, error) {
	res, err := t.Transcribe(ctx, pcm, t.opt)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// TranscribeAudio decodes an encoded clip (wav, mp3, ogg) and transcribes it.
func (t *Transcriber) TranscribeAudio(ctx context.Context, data []byte) (string, error) {
	pcm, err := audioconv.DecodeBytes(data, audioconv.Options{MaxSamples: t.opt.MaxSamples})
	if err != nil {
		return "", fmt.Errorf("decode clip: %w", err)
	}
	return t.TranscribePCM(ctx, pcm)
}

// Transcribe runs the model over pcm, which must be mono 16 kHz in [-1, 1].
func (t *Transcriber) Transcribe(ctx context.Context, pcm []float32, opt Options) (Result, error) {
	if t.model == nil {
		return Result{}, errors.New("stt: nil model")
	}
	if len(pcm) == 0 {
		return Result{}, ErrNoAudio
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	wctx, err := t.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("new context: %w", err)
	}

	if err := opt.apply(wctx); err != nil {
		return Result{}, err
	}

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return Result{}, fmt.Errorf("process: %w", err)
	}

	var (
		segs  []Segment
		parts []string
	)
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		s, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("next segment: %w", err)
		}
		segs = append(segs, Segment{
			Text:     s.Text,
			StartSec: s.Start.Seconds(),
			EndSec:   s.End.Seconds(),
		})
		parts = append(parts, s.Text)
	}

	lang := wctx.DetectedLanguage()
	if lang == "" {
		lang = wctx.Language()
	}

	return Result{
		Text:     Clean(strings.Join(parts, " ")),
		Segments: segs,
		Language: lang,
	}, nil
}

func (opt Options) apply(wctx whisper.Context) error {
	lang := opt.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return fmt.Errorf("set language %q: %w", lang, err)
	}
	wctx.SetTranslate(opt.TranslateToEn)

	threads := opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))
	wctx.SetSplitOnWord(opt.SplitOnWord)
	if opt.BeamSize > 0 {
		wctx.SetBeamSize(opt.BeamSize)
	}
	if opt.InitialPrompt != "" {
		wctx.SetInitialPrompt(opt.InitialPrompt)
	}
	return nil
}

// whisper marks non-speech as [BLANK_AUDIO], (music), *laughs* and so on
var annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\*[^*]*\*`)

// Clean drops non-speech annotations and collapses whitespace.
func Clean(text string) string {
	text = annotationRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}
