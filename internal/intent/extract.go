package intent

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const DefaultMediaQuery = "top music"

var (
	mediaFillers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)play\s*`),
		regexp.MustCompile(`(?i)on youtube`),
		regexp.MustCompile(`(?i)youtube`),
		regexp.MustCompile(`(?i)search for`),
		regexp.MustCompile(`(?i)song`),
	}

	reminderTrigger = regexp.MustCompile(`(?i)remind me to|remind me|set a reminder for|set a reminder to`)
	reminderTime    = regexp.MustCompile(`(?i)in (\d+) (second|minute|hour)s?`)
	standaloneTo    = regexp.MustCompile(`(?i)\bto\b`)

	intLiteral = regexp.MustCompile(`\d+`)
)

// removeFirst deletes the first match of re in s.
func removeFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

func stripFirst(s string, words ...string) string {
	for _, w := range words {
		s = strings.Replace(s, w, "", 1)
	}
	return strings.TrimSpace(s)
}

// MediaQuery extracts the thing to play from the original-case utterance.
func MediaQuery(text string) string {
	q := text
	for _, re := range mediaFillers {
		q = removeFirst(re, q)
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return DefaultMediaQuery
	}
	return q
}

func SearchQuery(lower string) string {
	return stripFirst(lower, "search", "google", "for")
}

func SearchLink(query string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

type Unit string

const (
	UnitSecond Unit = "second"
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
)

// Reminder is a parsed reminder request. Value is zero when the utterance
// carries no time phrase.
type Reminder struct {
	Text  string
	Value int
	Unit  Unit
}

const GenericReminder = "Generic Reminder"

func ParseReminder(lower string) Reminder {
	r := Reminder{Unit: UnitMinute}

	text := removeFirst(reminderTrigger, lower)
	if m := reminderTime.FindStringSubmatch(text); m != nil {
		text = strings.Replace(text, m[0], "", 1)
		r.Value, _ = strconv.Atoi(m[1])
		r.Unit = Unit(strings.ToLower(m[2]))
	}
	text = strings.TrimSpace(removeFirst(standaloneTo, text))
	if text == "" {
		text = GenericReminder
	}
	r.Text = text
	return r
}

func (r Reminder) Minutes() float64 {
	switch r.Unit {
	case UnitSecond:
		return float64(r.Value) / 60
	case UnitHour:
		return float64(r.Value) * 60
	default:
		return float64(r.Value)
	}
}

// Phrase renders the delay the way it was asked for, e.g. "10 minutes".
func (r Reminder) Phrase() string {
	if r.Value == 1 {
		return fmt.Sprintf("%d %s", r.Value, r.Unit)
	}
	return fmt.Sprintf("%d %ss", r.Value, r.Unit)
}

// FirstInt returns the first integer literal in s.
func FirstInt(s string) (int, bool) {
	m := intLiteral.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// overflow
		return math.MaxInt, true
	}
	return n, true
}

func AppName(lower string) string {
	return stripFirst(lower, "launch", "open app")
}

func ScanPath(lower, root string) string {
	p := stripFirst(lower, "scan", "search files")
	if p == "" {
		return root
	}
	return p
}
