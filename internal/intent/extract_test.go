package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/llm"
	"jarvis/internal/session"
)

func TestMediaQuery(t *testing.T) {
	cases := map[string]string{
		"play shape of you":             "shape of you",
		"Play Despacito on YouTube":     "Despacito",
		"youtube search for lofi beats": "lofi beats",
		"play the thunderstruck song":   "the thunderstruck",
		"play":                          DefaultMediaQuery,
		"PLAY   ":                       DefaultMediaQuery,
	}
	for in, want := range cases {
		assert.Equal(t, want, MediaQuery(in), in)
	}
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "quantum tunneling", SearchQuery("search for quantum tunneling"))
	assert.Equal(t, "arc reactor", SearchQuery("google arc reactor"))
	// only the first "for" goes
	assert.Equal(t, "tips for forging", SearchQuery("search for tips for forging"))
	assert.Equal(t, "https://www.google.com/search?q=a%26b+c", SearchLink("a&b c"))
}

func TestParseReminder(t *testing.T) {
	cases := []struct {
		in      string
		want    Reminder
		minutes float64
	}{
		{"remind me to call mom in 10 minutes", Reminder{Text: "call mom", Value: 10, Unit: UnitMinute}, 10},
		{"remind me to stretch in 30 seconds", Reminder{Text: "stretch", Value: 30, Unit: UnitSecond}, 0.5},
		{"set a reminder to check the reactor in 2 hours", Reminder{Text: "check the reactor", Value: 2, Unit: UnitHour}, 120},
		{"remind me in 1 minute", Reminder{Text: GenericReminder, Value: 1, Unit: UnitMinute}, 1},
		{"remind me to buy milk", Reminder{Text: "buy milk", Unit: UnitMinute}, 0},
		{"set a reminder for", Reminder{Text: GenericReminder, Unit: UnitMinute}, 0},
	}
	for _, tc := range cases {
		got := ParseReminder(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.InDelta(t, tc.minutes, got.Minutes(), 1e-9, tc.in)
	}
}

func TestReminderPhrase(t *testing.T) {
	assert.Equal(t, "1 hour", Reminder{Value: 1, Unit: UnitHour}.Phrase())
	assert.Equal(t, "45 seconds", Reminder{Value: 45, Unit: UnitSecond}.Phrase())
}

func TestFirstInt(t *testing.T) {
	n, ok := FirstInt("set volume to 40 then 60")
	assert.True(t, ok)
	assert.Equal(t, 40, n)

	_, ok = FirstInt("volume up")
	assert.False(t, ok)
}

func TestScanPathAndAppName(t *testing.T) {
	assert.Equal(t, "/", ScanPath("scan", "/"))
	assert.Equal(t, "/var/log", ScanPath("scan /var/log", "/"))
	assert.Equal(t, "in downloads", ScanPath("search files in downloads", "/"))
	assert.Equal(t, "spotify", AppName("open app spotify"))
	assert.Equal(t, "", AppName("launch"))
}

func TestSanitizeVideoID(t *testing.T) {
	id, ok := SanitizeVideoID(" `JGwWNGJdvx8`.\n")
	assert.True(t, ok)
	assert.Equal(t, "JGwWNGJdvx8", id)

	_, ok = SanitizeVideoID("I could not find that video.")
	assert.False(t, ok)
}

func TestResolveVideoID(t *testing.T) {
	var prompt string
	c := llm.Func(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "JGwWNGJdvx8", nil
	})

	id, ok := ResolveVideoID(context.Background(), c, "shape of you")
	assert.True(t, ok)
	assert.Equal(t, "JGwWNGJdvx8", id)
	assert.Contains(t, prompt, "11-character")
	assert.Contains(t, prompt, `"shape of you"`)

	bad := llm.Func(func(context.Context, string) (string, error) { return "", errors.New("quota") })
	id, ok = ResolveVideoID(context.Background(), bad, "shape of you")
	assert.False(t, ok)
	assert.Equal(t, "shape of you", id)

	id, ok = ResolveVideoID(context.Background(), nil, "top music")
	assert.False(t, ok)
	assert.Equal(t, "top music", id)
}

func TestParseDraft(t *testing.T) {
	d, err := ParseDraft("Here you go, sir:\n```json\n{\"recipient\": \"rhodey@usaf.mil\", \"subject\": \"Suit test\", \"body\": \"Be there at 9.\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, session.EmailDraft{To: "rhodey@usaf.mil", Subject: "Suit test", Body: "Be there at 9."}, d)

	d, err = ParseDraft(`{"body": "Dinner at 8."}`)
	require.NoError(t, err)
	assert.Equal(t, session.EmailDraft{To: DefaultRecipient, Subject: DefaultSubject, Body: "Dinner at 8."}, d)

	_, err = ParseDraft("no json at all")
	assert.ErrorIs(t, err, ErrMalformedDraft)

	_, err = ParseDraft("{recipient: nope}")
	assert.ErrorIs(t, err, ErrMalformedDraft)
}

func TestGenerateDraft(t *testing.T) {
	c := llm.Func(func(_ context.Context, p string) (string, error) {
		assert.Contains(t, p, "recipient, subject, body")
		return `{"recipient":"happy@stark.com","subject":"Car","body":"Bring the car around."}`, nil
	})
	d, err := GenerateDraft(context.Background(), c, "email happy about the car")
	require.NoError(t, err)
	assert.Equal(t, "happy@stark.com", d.To)

	_, err = GenerateDraft(context.Background(), nil, "email happy")
	assert.Error(t, err)
}
