// Package tts speaks text through libespeak-ng.
package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

static int
jarvis_espeak_init(const char *voice, int rate, int pitch)
{
	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -1; }

	if (voice && *voice)
	{
		if (espeak_SetVoiceByName(voice) != EE_OK)
		{
			espeak_VOICE specs = { .languages = voice };
			espeak_SetVoiceByProperties(&specs);
		}
	}
	espeak_SetParameter(espeakRATE, rate, 0);
	espeak_SetParameter(espeakPITCH, pitch, 0);
	return 0;
}

static int
jarvis_espeak_say(const char *text)
{
	if (!text)
	{ return -1; }

	espeak_ERROR rc = espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	return rc == EE_OK ? 0 : (int)rc;
}
*/
import "C"

import (
	"context"
	"fmt"
	log "log/slog"
	"regexp"
	"strings"
	"sync"
	"unsafe"
)

// Base espeak-ng parameters; Config scales them.
const (
	baseRate  = 175
	basePitch = 50
)

type Config struct {
	Voice string  // voice name or language, e.g. "en-gb"
	Rate  float64 // multiplier of the default rate
	Pitch float64 // multiplier of the default pitch
}

// DefaultConfig is a slightly quick, lowered British voice.
var DefaultConfig = Config{Voice: "en-gb", Rate: 1.05, Pitch: 0.85}

// Ducker lowers other audio while speaking.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

// Speaker is process wide: espeak-ng keeps global state.
type Speaker struct {
	mu   sync.Mutex
	duck Ducker
}

var (
	initOnce sync.Once
	initErr  error
)

// New initializes espeak-ng once. duck may be nil.
func New(cfg Config, duck Ducker) (*Speaker, error) {
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultConfig.Rate
	}
	if cfg.Pitch <= 0 {
		cfg.Pitch = DefaultConfig.Pitch
	}

	initOnce.Do(func() {
		cvoice := C.CString(cfg.Voice)
		defer C.free(unsafe.Pointer(cvoice))

		rate := C.int(float64(baseRate) * cfg.Rate)
		pitch := C.int(float64(basePitch) * cfg.Pitch)
		if rc := C.jarvis_espeak_init(cvoice, rate, pitch); rc != 0 {
			initErr = fmt.Errorf("espeak init failed: %d", int(rc))
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	return &Speaker{duck: duck}, nil
}

// Speak blocks until text has been played or ctx is done.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = Prepare(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.duck != nil {
		if err := s.duck.Duck(ctx); err != nil {
			log.Debug("Failed to duck", "err", err)
		}
		defer func() {
			if err := s.duck.Restore(context.WithoutCancel(ctx)); err != nil {
				log.Debug("Failed to restore volume", "err", err)
			}
		}()
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	done := make(chan C.int, 1)
	go func() { done <- C.jarvis_espeak_say(ctext) }()

	select {
	case rc := <-done:
		if rc != 0 {
			return fmt.Errorf("espeak synth failed: %d", int(rc))
		}
		return nil
	case <-ctx.Done():
		C.espeak_Cancel()
		<-done
		return ctx.Err()
	}
}

func (s *Speaker) Close() error {
	if rc := C.espeak_Terminate(); rc != C.EE_OK {
		return fmt.Errorf("espeak terminate failed: %d", int(rc))
	}
	return nil
}

var (
	markupRe = regexp.MustCompile("[*_`#>~]+")
	linkRe   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
)

// Prepare strips markdown from completion replies so it is not read aloud.
func Prepare(text string) string {
	text = linkRe.ReplaceAllString(text, "$1")
	text = markupRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
