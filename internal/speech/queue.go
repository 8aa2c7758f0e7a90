package speech

import (
	"context"
	log "log/slog"
	"strings"
	"sync"
)

type utterance struct {
	text string
	then func()
}

// Queue speaks utterances one after another on a single worker. The
// speaking callback follows the worker.
type Queue struct {
	sp         Speaker
	onSpeaking func(bool)

	mu      sync.Mutex
	pending []utterance
	closed  bool
	wake    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewQueue(sp Speaker, onSpeaking func(bool)) *Queue {
	if onSpeaking == nil {
		onSpeaking = func(bool) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		sp:         sp,
		onSpeaking: onSpeaking,
		wake:       make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go q.run()
	return q
}

// Say queues text. then, if set, runs after the text has been spoken. Blank
// text is dropped together with its continuation.
func (q *Queue) Say(text string, then func()) {
	if strings.TrimSpace(text) == "" {
		return
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, utterance{text: text, then: then})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) next() (utterance, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return utterance{}, false
	}
	u := q.pending[0]
	q.pending = q.pending[1:]
	return u, true
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		u, ok := q.next()
		if !ok {
			select {
			case <-q.wake:
				continue
			case <-q.ctx.Done():
				return
			}
		}

		q.onSpeaking(true)
		if err := q.sp.Speak(q.ctx, u.text); err != nil {
			log.Warn("Failed to voice out", "err", err)
		}
		q.onSpeaking(false)

		if q.ctx.Err() != nil {
			return
		}
		if u.then != nil {
			u.then()
		}
	}
}

// Close drops what has not been spoken and waits for the worker.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.pending = nil
	q.mu.Unlock()

	q.cancel()
	<-q.done
}

// Idle reports whether nothing is queued. The current utterance may still
// be playing.
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) == 0
}
