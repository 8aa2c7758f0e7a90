// Package intent decides, for one utterance, the reply, the panel to show
// and the side effects to apply.
//
// Rules are evaluated top to bottom against the lower-cased utterance and
// the first match wins, so overlapping keywords resolve by position. A rule
// that matches but cannot act (a volume request with no level) ends the
// search and falls through to the completion fallback.
package intent

import (
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"strings"
	"time"

	"jarvis/internal/bridge"
	"jarvis/internal/llm"
	"jarvis/internal/session"
)

// Snapshot is the session context a routing decision depends on.
type Snapshot struct {
	Theme   session.Theme
	Pending int
	Metrics session.Metrics
}

type Decision struct {
	Rule    string
	Reply   string
	Panel   *session.Panel
	Effects []Effect
	// Local is set when a rule handled the utterance without the completer.
	Local bool
}

type Options struct {
	ScanRoot string
	Weather  Weather
	Now      func() time.Time
}

// Router is safe for concurrent use once built.
type Router struct {
	completer llm.Completer
	bridge    bridge.Bridge
	opts      Options
}

// New builds a router. A nil completer always fails over to the canned
// replies; a nil bridge means no OS binding.
func New(c llm.Completer, b bridge.Bridge, opts Options) *Router {
	if opts.ScanRoot == "" {
		opts.ScanRoot = "/"
	}
	if opts.Weather == (Weather{}) {
		opts.Weather = DefaultWeather
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Router{completer: c, bridge: b, opts: opts}
}

func (r *Router) HasBridge() bool { return r.bridge != nil }

type input struct {
	text  string
	lower string
	snap  Snapshot
}

type rule struct {
	name   string
	match  func(lower string) bool
	handle func(ctx context.Context, r *Router, in input) (Decision, bool)
}

func has(words ...string) func(string) bool {
	return func(lower string) bool { return containsAny(lower, words...) }
}

func panel(p session.Panel) *session.Panel { return &p }

var rules = []rule{
	{
		name: "media",
		match: func(l string) bool {
			return strings.Contains(l, "play") || (strings.Contains(l, "youtube") && strings.Contains(l, "search"))
		},
		handle: handleMedia,
	},
	{name: "search", match: has("search", "google"), handle: handleSearch},
	{name: "email", match: has("email", "message"), handle: handleEmail},
	{name: "tasks", match: has("task", "directive", "mission"), handle: reply(session.PanelTasks, "Displaying your current mission directives, sir.")},
	// calendar requests show the task panel
	{name: "calendar", match: has("schedule", "calendar", "meeting"), handle: reply(session.PanelTasks, "Synchronizing with Google Calendar... Connection stable.")},
	{name: "reminder", match: has("remind me", "set a reminder"), handle: handleReminder},
	{name: "volume", match: has("volume"), handle: handleVolume},
	{name: "brightness", match: has("brightness"), handle: handleBrightness},
	{name: "launch", match: has("launch", "open app"), handle: handleLaunch},
	{name: "theme-light", match: has("light mode", "white theme"), handle: handleTheme(session.ThemeLight, "Stark Industrial theme engaged. Visual parameters calibrated for high luminosity.")},
	{name: "theme-dark", match: has("dark mode", "default theme", "stealth mode"), handle: handleTheme(session.ThemeDefault, "Original Stealth theme engaged. All systems transitioning to low-profile mode.")},
	{name: "scan", match: has("scan", "search files"), handle: handleScan},
	{name: "status", match: has("status", "report", "briefing"), handle: handleStatus},
}

// Rules lists rule names in evaluation order.
func Rules() []string {
	names := make([]string, 0, len(rules))
	for _, rl := range rules {
		names = append(names, rl.name)
	}
	return names
}

// Route decides what to do with text. It never fails: remote errors are
// logged and replaced by local replies.
func (r *Router) Route(ctx context.Context, snap Snapshot, text string) Decision {
	in := input{text: text, lower: strings.ToLower(text), snap: snap}

	for _, rl := range rules {
		if !rl.match(in.lower) {
			continue
		}
		if d, ok := rl.handle(ctx, r, in); ok {
			d.Rule = rl.name
			d.Local = true
			return finish(d)
		}
		log.Debug("Rule matched without action", "rule", rl.name)
		break
	}
	return finish(r.fallback(ctx, in))
}

func finish(d Decision) Decision {
	if strings.TrimSpace(d.Reply) == "" {
		d.Reply = Acknowledged
	}
	return d
}

func (r *Router) fallback(ctx context.Context, in input) Decision {
	d := Decision{Rule: "completion"}
	if r.completer != nil {
		out, err := r.completer.Complete(ctx, personaPrompt(in.text))
		if err == nil {
			d.Reply = out
			return d
		}
		log.Warn("Completion failed", "err", err)
	}
	d.Rule = "canned"
	d.Reply = Canned(in.text, r.opts.Weather, r.opts.Now())
	return d
}

func reply(p session.Panel, text string) func(context.Context, *Router, input) (Decision, bool) {
	return func(context.Context, *Router, input) (Decision, bool) {
		return Decision{Reply: text, Panel: panel(p)}, true
	}
}

func handleMedia(_ context.Context, _ *Router, in input) (Decision, bool) {
	q := MediaQuery(in.text)
	return Decision{
		Reply:   fmt.Sprintf("Accessing neural index for \"%s\". Locating the optimal stream, sir.", q),
		Panel:   panel(session.PanelMedia),
		Effects: []Effect{ResolveMedia{Query: q}},
	}, true
}

func handleSearch(_ context.Context, _ *Router, in input) (Decision, bool) {
	q := SearchQuery(in.lower)
	return Decision{
		Reply: fmt.Sprintf("Executing global search for \"%s\". Accessing Google secure indices.", q),
		Panel: panel(session.PanelSearch),
		Effects: []Effect{ShowSearch{
			Query: q,
			Results: []session.SearchResult{{
				Title:   "Results for " + q,
				Snippet: "Scanning the web for data nodes...",
				Link:    SearchLink(q),
			}},
		}},
	}, true
}

func handleEmail(_ context.Context, _ *Router, in input) (Decision, bool) {
	d := Decision{
		Reply: "Comms interface engaged. I've initialized the drafting protocols for your approval.",
		Panel: panel(session.PanelEmail),
	}
	if len(in.lower) > 10 {
		d.Effects = []Effect{DraftEmail{Utterance: in.text}}
	}
	return d, true
}

func handleReminder(_ context.Context, _ *Router, in input) (Decision, bool) {
	rem := ParseReminder(in.lower)
	d := Decision{Panel: panel(session.PanelTasks)}
	if rem.Value > 0 {
		d.Reply = fmt.Sprintf("Reminder protocol initiated: \"%s\" in %s. I've set the chronometer, sir.", rem.Text, rem.Phrase())
		d.Effects = []Effect{ScheduleReminder{Text: rem.Text, Minutes: rem.Minutes()}}
	} else {
		d.Reply = fmt.Sprintf("Directive recorded: \"%s\". I've added it to your Task Protocols, sir.", rem.Text)
		d.Effects = []Effect{AddTask{Title: rem.Text, Priority: session.PriorityMedium}}
	}
	return d, true
}

func handleVolume(ctx context.Context, r *Router, in input) (Decision, bool) {
	if level, ok := FirstInt(in.lower); ok {
		level = bridge.ClampPercent(level)
		return Decision{
			Reply:   fmt.Sprintf("System volume adjusted to %d percent, sir.", level),
			Effects: []Effect{SetVolume{Level: level}},
		}, true
	}
	if strings.Contains(in.lower, "check") && r.bridge != nil {
		return Decision{
			Reply: fmt.Sprintf("Current system volume is at %d percent.", r.bridge.GetVolume(ctx)),
		}, true
	}
	return Decision{}, false
}

func handleBrightness(_ context.Context, _ *Router, in input) (Decision, bool) {
	level, ok := FirstInt(in.lower)
	if !ok {
		return Decision{}, false
	}
	level = bridge.ClampPercent(level)
	return Decision{
		Reply:   fmt.Sprintf("Display brightness calibrated to %d percent.", level),
		Effects: []Effect{SetBrightness{Level: level}},
	}, true
}

func handleLaunch(_ context.Context, _ *Router, in input) (Decision, bool) {
	name := AppName(in.lower)
	if name == "" {
		return Decision{}, false
	}
	return Decision{
		Reply:   fmt.Sprintf("Initiating launch sequence for %s. Interface deployed, sir.", name),
		Effects: []Effect{LaunchApp{Name: name}},
	}, true
}

func handleTheme(t session.Theme, text string) func(context.Context, *Router, input) (Decision, bool) {
	return func(context.Context, *Router, input) (Decision, bool) {
		return Decision{Reply: text, Effects: []Effect{SetTheme{Theme: t}}}, true
	}
}

func handleScan(_ context.Context, r *Router, in input) (Decision, bool) {
	path := ScanPath(in.lower, r.opts.ScanRoot)
	d := Decision{Panel: panel(session.PanelScanner)}
	if r.bridge != nil {
		d.Reply = fmt.Sprintf("Executing deep-sector scan of %s. Analyzing file structures...", path)
		d.Effects = []Effect{ScanDirectory{Path: path}}
	} else {
		d.Reply = "Simulating sector scan for vulnerabilities... Cloud link established."
		d.Effects = []Effect{ScanDirectory{Path: path, Simulated: true}}
	}
	return d, true
}

func handleStatus(_ context.Context, _ *Router, in input) (Decision, bool) {
	m := in.snap.Metrics
	return Decision{
		Reply: fmt.Sprintf(
			"Status Report: Systems are nominal. CPU load is at %d percent with core temperature at %s degrees Celsius. You have %d pending directives. Shall I proceed with a full system scan?",
			m.CPU, strconv.FormatFloat(m.Temp, 'f', -1, 64), in.snap.Pending,
		),
	}, true
}
