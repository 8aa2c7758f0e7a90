// Package speech abstracts the platform speech and notification
// capabilities so the assistant runs headless.
package speech

import (
	"context"
	"errors"
	"sync"
)

var ErrUnavailable = errors.New("speech: capability unavailable")

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Listener captures one utterance and returns its transcript.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

type Notifier interface {
	// Cue signals that listening has started.
	Cue()
	Notify(title, body string) error
}

type Nop struct{}

func (Nop) Speak(context.Context, string) error    { return nil }
func (Nop) Listen(context.Context) (string, error) { return "", ErrUnavailable }
func (Nop) Cue()                                   {}
func (Nop) Notify(string, string) error            { return nil }

// Memory records everything spoken and notified. Listen pops scripted
// utterances.
type Memory struct {
	mu     sync.Mutex
	spoken []string
	notes  []string
	heard  []string
	cues   int
}

func NewMemory(heard ...string) *Memory {
	return &Memory{heard: heard}
}

func (m *Memory) Speak(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spoken = append(m.spoken, text)
	return nil
}

func (m *Memory) Listen(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.heard) == 0 {
		return "", ErrUnavailable
	}
	text := m.heard[0]
	m.heard = m.heard[1:]
	return text, nil
}

func (m *Memory) Cue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cues++
}

func (m *Memory) Notify(title, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, title+": "+body)
	return nil
}

func (m *Memory) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

func (m *Memory) Notes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.notes...)
}

func (m *Memory) Cues() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cues
}
