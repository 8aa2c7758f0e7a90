package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"regexp"

	"jarvis/internal/llm"
	"jarvis/internal/session"
)

const (
	DefaultRecipient = "pepper.potts@starkindustries.com"
	DefaultSubject   = "Automated Transmission"

	videoIDLen = 11
)

func personaPrompt(text string) string {
	return fmt.Sprintf(`You are J.A.R.V.I.S., the highly sophisticated AI assistant to Tony Stark.
Keep responses concise, professional, and helpful.
Current environment: Linux desktop with system access.
The user says: %q.
Respond as J.A.R.V.I.S. would.`, text)
}

func videoIDPrompt(query string) string {
	return fmt.Sprintf(`You are a YouTube video database. The user wants to play: %q.
Return ONLY the 11-character YouTube video ID (like dQw4w9WgXcQ) for the most popular/official version of this song or video.
Return NOTHING else, no explanation, no punctuation, just the 11-character ID.`, query)
}

func draftPrompt(text string) string {
	return fmt.Sprintf(`The user wants to send an email: %q.
Draft a professional but JARVIS-like email. Output only valid JSON with fields: recipient, subject, body.`, text)
}

var nonIDChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeVideoID keeps the identifier alphabet and reports whether what is
// left has the exact identifier length.
func SanitizeVideoID(raw string) (string, bool) {
	id := nonIDChars.ReplaceAllString(raw, "")
	return id, len(id) == videoIDLen
}

// ResolveVideoID asks the completer for the video id of query. On any failure
// the query itself is returned with ok=false.
func ResolveVideoID(ctx context.Context, c llm.Completer, query string) (string, bool) {
	if c == nil {
		return query, false
	}
	raw, err := c.Complete(ctx, videoIDPrompt(query))
	if err != nil {
		log.Warn("Failed to resolve video id", "query", query, "err", err)
		return query, false
	}
	id, ok := SanitizeVideoID(raw)
	if !ok {
		log.Debug("Rejected video id", "raw", raw)
		return query, false
	}
	return id, true
}

var ErrMalformedDraft = errors.New("intent: malformed email draft")

var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// ParseDraft extracts the first JSON object from the completion and fills
// missing recipient and subject with defaults.
func ParseDraft(raw string) (session.EmailDraft, error) {
	block := jsonBlock.FindString(raw)
	if block == "" {
		return session.EmailDraft{}, ErrMalformedDraft
	}

	var payload struct {
		Recipient string `json:"recipient"`
		Subject   string `json:"subject"`
		Body      string `json:"body"`
	}
	if err := json.Unmarshal([]byte(block), &payload); err != nil {
		return session.EmailDraft{}, fmt.Errorf("%w: %v", ErrMalformedDraft, err)
	}

	d := session.EmailDraft{To: payload.Recipient, Subject: payload.Subject, Body: payload.Body}
	if d.To == "" {
		d.To = DefaultRecipient
	}
	if d.Subject == "" {
		d.Subject = DefaultSubject
	}
	return d, nil
}

// GenerateDraft asks the completer for a draft for the utterance.
func GenerateDraft(ctx context.Context, c llm.Completer, utterance string) (session.EmailDraft, error) {
	if c == nil {
		return session.EmailDraft{}, errors.New("no completer")
	}
	raw, err := c.Complete(ctx, draftPrompt(utterance))
	if err != nil {
		return session.EmailDraft{}, fmt.Errorf("draft completion: %w", err)
	}
	return ParseDraft(raw)
}
