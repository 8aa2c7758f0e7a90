// Package protocol carries colon-separated request frames between shards
// over a websocket:
//
//	TO:VERB:NOUN[:ARG...]:FROM
//
// Every field is a bare token. Free text has to be encoded by the caller.
package protocol

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	Broadcast = "ALL"

	verbOk  = "OK"
	verbErr = "ERR"
)

var ErrMalformed = errors.New("protocol: malformed frame")

var (
	tokenRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	hexIDRe = regexp.MustCompile(`^[0-9A-Fa-f]{2}$`)
)

// IsToken reports whether s can travel as a bare field.
func IsToken(s string) bool { return tokenRe.MatchString(s) }

// isAddress accepts shard names and two-digit hex node ids.
func isAddress(s string) bool { return IsToken(s) || hexIDRe.MatchString(s) }

type Message struct {
	To   string
	Verb string
	Noun string
	Args []string
	From string
}

// NewMessage builds an unsent request; From is filled in on transmit.
func NewMessage(to, verb, noun string, args ...string) Message {
	return Message{To: to, Verb: verb, Noun: noun, Args: args}
}

func malformed(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, a...))
}

// Parse decodes one frame. Verb and noun are upper-cased.
func Parse(frame string) (*Message, error) {
	frame = strings.TrimSpace(frame)
	switch {
	case frame == "":
		return nil, malformed("empty")
	case strings.ContainsAny(frame, " \t\r\n"):
		return nil, malformed("whitespace in %q", frame)
	}

	f := strings.Split(frame, ":")
	if len(f) < 4 {
		return nil, malformed("%d fields, want at least 4", len(f))
	}

	m := &Message{
		To:   f[0],
		Verb: strings.ToUpper(f[1]),
		Noun: strings.ToUpper(f[2]),
		Args: append([]string(nil), f[3:len(f)-1]...),
		From: f[len(f)-1],
	}

	if m.To != Broadcast && !isAddress(m.To) {
		return nil, malformed("recipient %q", m.To)
	}
	if !isAddress(m.From) {
		return nil, malformed("sender %q", m.From)
	}
	if !IsToken(m.Verb) || !IsToken(m.Noun) {
		return nil, malformed("verb/noun %q %q", m.Verb, m.Noun)
	}
	for i, a := range m.Args {
		if !IsToken(a) {
			return nil, malformed("arg %d %q", i, a)
		}
	}
	return m, nil
}

func (m *Message) String() string {
	var b strings.Builder
	b.WriteString(m.To)
	for _, s := range append([]string{m.Verb, m.Noun}, m.Args...) {
		b.WriteByte(':')
		b.WriteString(s)
	}
	b.WriteByte(':')
	b.WriteString(m.From)
	return b.String()
}

// Reply returns a message addressed back to the sender of m.
func (m *Message) Reply() *Message {
	return &Message{To: m.From, Verb: m.Verb, Noun: m.Noun, From: m.To}
}

func (m *Message) Ok(noun string, args ...string) {
	m.Verb, m.Noun, m.Args = verbOk, noun, args
}

func (m *Message) Error(reason string, args ...string) {
	m.Verb, m.Noun, m.Args = verbErr, reason, args
}

func (m *Message) IsOk() bool { return m.Verb == verbOk }

// recipient is the TO field of a raw frame.
func recipient(frame string) string {
	to, _, _ := strings.Cut(frame, ":")
	return to
}
