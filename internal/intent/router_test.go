package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/bridge"
	"jarvis/internal/llm"
	"jarvis/internal/session"
)

var errOffline = errors.New("offline")

func failing() llm.Completer {
	return llm.Func(func(context.Context, string) (string, error) { return "", errOffline })
}

type volumeBridge struct {
	bridge.Bridge
	volume int
}

func (b volumeBridge) GetVolume(context.Context) int { return b.volume }

var fixedNow = time.Date(2026, 10, 14, 15, 4, 5, 0, time.UTC)

func newRouter(c llm.Completer, b bridge.Bridge) *Router {
	return New(c, b, Options{Now: func() time.Time { return fixedNow }})
}

func TestRouteLocalRules(t *testing.T) {
	snap := Snapshot{Pending: 3, Metrics: session.Metrics{CPU: 12, RAM: 40, Temp: 45.5}}

	cases := []struct {
		in   string
		want Decision
	}{
		{
			in: "play shape of you",
			want: Decision{
				Rule:    "media",
				Reply:   `Accessing neural index for "shape of you". Locating the optimal stream, sir.`,
				Panel:   panel(session.PanelMedia),
				Effects: []Effect{ResolveMedia{Query: "shape of you"}},
			},
		},
		{
			in: "Play Despacito on YouTube",
			want: Decision{
				Rule:    "media",
				Reply:   `Accessing neural index for "Despacito". Locating the optimal stream, sir.`,
				Panel:   panel(session.PanelMedia),
				Effects: []Effect{ResolveMedia{Query: "Despacito"}},
			},
		},
		{
			in: "search for quantum tunneling",
			want: Decision{
				Rule:  "search",
				Reply: `Executing global search for "quantum tunneling". Accessing Google secure indices.`,
				Panel: panel(session.PanelSearch),
				Effects: []Effect{ShowSearch{
					Query: "quantum tunneling",
					Results: []session.SearchResult{{
						Title:   "Results for quantum tunneling",
						Snippet: "Scanning the web for data nodes...",
						Link:    "https://www.google.com/search?q=quantum+tunneling",
					}},
				}},
			},
		},
		{
			in: "send an email to pepper about the suit",
			want: Decision{
				Rule:    "email",
				Reply:   "Comms interface engaged. I've initialized the drafting protocols for your approval.",
				Panel:   panel(session.PanelEmail),
				Effects: []Effect{DraftEmail{Utterance: "send an email to pepper about the suit"}},
			},
		},
		{
			in: "email",
			want: Decision{
				Rule:  "email",
				Reply: "Comms interface engaged. I've initialized the drafting protocols for your approval.",
				Panel: panel(session.PanelEmail),
			},
		},
		{
			in:   "show my missions",
			want: Decision{Rule: "tasks", Reply: "Displaying your current mission directives, sir.", Panel: panel(session.PanelTasks)},
		},
		{
			in:   "what's on my calendar",
			want: Decision{Rule: "calendar", Reply: "Synchronizing with Google Calendar... Connection stable.", Panel: panel(session.PanelTasks)},
		},
		{
			in: "remind me to call mom in 10 minutes",
			want: Decision{
				Rule:    "reminder",
				Reply:   `Reminder protocol initiated: "call mom" in 10 minutes. I've set the chronometer, sir.`,
				Panel:   panel(session.PanelTasks),
				Effects: []Effect{ScheduleReminder{Text: "call mom", Minutes: 10}},
			},
		},
		{
			in: "remind me to buy milk",
			want: Decision{
				Rule:    "reminder",
				Reply:   `Directive recorded: "buy milk". I've added it to your Task Protocols, sir.`,
				Panel:   panel(session.PanelTasks),
				Effects: []Effect{AddTask{Title: "buy milk", Priority: session.PriorityMedium}},
			},
		},
		{
			in: "set volume to 40",
			want: Decision{
				Rule:    "volume",
				Reply:   "System volume adjusted to 40 percent, sir.",
				Effects: []Effect{SetVolume{Level: 40}},
			},
		},
		{
			in: "brightness 70",
			want: Decision{
				Rule:    "brightness",
				Reply:   "Display brightness calibrated to 70 percent.",
				Effects: []Effect{SetBrightness{Level: 70}},
			},
		},
		{
			in: "set volume to 99999999999999999999999",
			want: Decision{
				Rule:    "volume",
				Reply:   "System volume adjusted to 100 percent, sir.",
				Effects: []Effect{SetVolume{Level: 100}},
			},
		},
		{
			in: "brightness 250",
			want: Decision{
				Rule:    "brightness",
				Reply:   "Display brightness calibrated to 100 percent.",
				Effects: []Effect{SetBrightness{Level: 100}},
			},
		},
		{
			in: "launch firefox",
			want: Decision{
				Rule:    "launch",
				Reply:   "Initiating launch sequence for firefox. Interface deployed, sir.",
				Effects: []Effect{LaunchApp{Name: "firefox"}},
			},
		},
		{
			in: "switch to light mode",
			want: Decision{
				Rule:    "theme-light",
				Reply:   "Stark Industrial theme engaged. Visual parameters calibrated for high luminosity.",
				Effects: []Effect{SetTheme{Theme: session.ThemeLight}},
			},
		},
		{
			in: "engage stealth mode",
			want: Decision{
				Rule:    "theme-dark",
				Reply:   "Original Stealth theme engaged. All systems transitioning to low-profile mode.",
				Effects: []Effect{SetTheme{Theme: session.ThemeDefault}},
			},
		},
		{
			in: "scan /home/tony",
			want: Decision{
				Rule:    "scan",
				Reply:   "Simulating sector scan for vulnerabilities... Cloud link established.",
				Panel:   panel(session.PanelScanner),
				Effects: []Effect{ScanDirectory{Path: "/home/tony", Simulated: true}},
			},
		},
		{
			in: "give me a briefing",
			want: Decision{
				Rule:  "status",
				Reply: "Status Report: Systems are nominal. CPU load is at 12 percent with core temperature at 45.5 degrees Celsius. You have 3 pending directives. Shall I proceed with a full system scan?",
			},
		},
	}

	r := newRouter(failing(), nil)
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			tc.want.Local = true
			got := r.Route(context.Background(), snap, tc.in)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Route(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestRouteOrderResolvesOverlaps(t *testing.T) {
	r := newRouter(failing(), nil)
	ctx := context.Background()

	cases := map[string]string{
		"search files in documents":    "search",
		"play the search results":      "media",
		"schedule a task for tomorrow": "tasks",
		"message me the status":        "email",
		"remind me about the meeting":  "calendar",
		"scan and report":              "scan",
	}
	for in, want := range cases {
		assert.Equal(t, want, r.Route(ctx, Snapshot{}, in).Rule, in)
	}
}

func TestRouteWithBridge(t *testing.T) {
	r := newRouter(failing(), volumeBridge{volume: 65})
	ctx := context.Background()

	d := r.Route(ctx, Snapshot{}, "check the volume")
	assert.Equal(t, "Current system volume is at 65 percent.", d.Reply)
	assert.Empty(t, d.Effects)

	d = r.Route(ctx, Snapshot{}, "scan")
	want := Decision{
		Rule:    "scan",
		Reply:   "Executing deep-sector scan of /. Analyzing file structures...",
		Panel:   panel(session.PanelScanner),
		Effects: []Effect{ScanDirectory{Path: "/"}},
		Local:   true,
	}
	assert.Empty(t, cmp.Diff(want, d))
}

func TestRouteScanRootOption(t *testing.T) {
	r := New(nil, nil, Options{ScanRoot: "/home"})
	d := r.Route(context.Background(), Snapshot{}, "scan")
	assert.Equal(t, []Effect{ScanDirectory{Path: "/home", Simulated: true}}, d.Effects)
}

func TestRouteWithoutBridgeNeedsParameter(t *testing.T) {
	r := newRouter(failing(), nil)
	ctx := context.Background()

	for _, in := range []string{"set volume to 15", "brightness to 30", "launch code", "scan"} {
		d := r.Route(ctx, Snapshot{}, in)
		assert.True(t, d.Local, in)
		assert.NotEmpty(t, d.Reply, in)
		assert.NotEmpty(t, d.Effects, in)
	}

	for _, in := range []string{"check volume", "volume up", "raise brightness", "launch"} {
		d := r.Route(ctx, Snapshot{}, in)
		assert.False(t, d.Local, in)
		assert.Empty(t, d.Effects, in)
		assert.Equal(t, "canned", d.Rule, in)
	}
}

func TestRouteVolumeLevelIsFirstInteger(t *testing.T) {
	r := newRouter(nil, nil)
	for _, n := range []int{0, 7, 40, 100, 250} {
		in := fmt.Sprintf("set volume to %d and then 99", n)
		d := r.Route(context.Background(), Snapshot{}, in)
		require.Len(t, d.Effects, 1)
		assert.Equal(t, SetVolume{Level: n}, d.Effects[0], in)
	}
}

func TestRouteCompletionFallback(t *testing.T) {
	var prompt string
	c := llm.Func(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "At your service, sir.", nil
	})
	r := newRouter(c, nil)

	d := r.Route(context.Background(), Snapshot{}, "who built you?")
	assert.Equal(t, Decision{Rule: "completion", Reply: "At your service, sir."}, d)
	assert.Contains(t, prompt, "J.A.R.V.I.S.")
	assert.Contains(t, prompt, `"who built you?"`)
}

func TestRouteEmptyCompletionIsAcknowledged(t *testing.T) {
	c := llm.Func(func(context.Context, string) (string, error) { return "  ", nil })
	d := newRouter(c, nil).Route(context.Background(), Snapshot{}, "hmm")
	assert.Equal(t, Acknowledged, d.Reply)
}

func TestRouteCannedWhenCompletionFails(t *testing.T) {
	r := newRouter(failing(), nil)
	ctx := context.Background()

	cases := map[string]string{
		"hello there":        "Good day, sir. All primary systems are nominal and I am fully operational. How may I be of assistance?",
		"how are you":        "All systems are functioning within optimal parameters, sir. Arc Reactor output is stable at 100%. Is there something specific you require?",
		"what's the weather": "Current atmospheric conditions at Malibu: 72°F, Clear. Visibility is clear, sir.",
		"what time is it":    "The current time is 3:04:05 PM, sir.",
		"thank you":          "Of course, sir. It is my privilege to assist. Is there anything else you require?",
		"help":               "I can assist with: YouTube playback, Google searches, email drafting, task management, reminders, system diagnostics, and much more. Simply state your directive, sir.",
		"xyzzy":              `Understood, sir. I've processed your directive: "xyzzy". The neural network is currently operating in low-bandwidth mode. Full AI capabilities will be restored momentarily.`,
	}
	for in, want := range cases {
		d := r.Route(ctx, Snapshot{}, in)
		assert.Equal(t, want, d.Reply, in)
		assert.False(t, d.Local, in)
		assert.Nil(t, d.Panel, in)
	}
}

func TestRouteNilCompleterUsesCanned(t *testing.T) {
	d := newRouter(nil, nil).Route(context.Background(), Snapshot{}, "hey")
	assert.Equal(t, "canned", d.Rule)
	assert.True(t, strings.HasPrefix(d.Reply, "Good day, sir."))
}

func TestRulesOrder(t *testing.T) {
	want := []string{
		"media", "search", "email", "tasks", "calendar", "reminder", "volume",
		"brightness", "launch", "theme-light", "theme-dark", "scan", "status",
	}
	assert.Equal(t, want, Rules())
}
