package assistant

import (
	"context"
	"fmt"
	log "log/slog"

	"jarvis/internal/calendar"
	"jarvis/internal/intent"
	"jarvis/internal/session"
)

const ReminderTitle = "J.A.R.V.I.S. Reminder"

// SimulatedScan is what a scan reports when no bridge is bound.
var SimulatedScan = []string{"SECURE_NODE_1.db", "ENCRYPTED_LOG.txt", "STARK_MAIN_INFRA.sys"}

// apply performs one effect. The returned line, if any, is spoken after
// the reply.
func (a *Assistant) apply(ctx context.Context, eff intent.Effect) string {
	switch e := eff.(type) {
	case intent.ResolveMedia:
		a.State.SetMedia(session.Media{Query: e.Query})
		id, ok := intent.ResolveVideoID(ctx, a.Completer, e.Query)
		if !ok {
			return ""
		}
		a.State.SetMedia(session.Media{Query: e.Query, VideoID: id})
		return fmt.Sprintf("Streaming \"%s\" in the Media Bay, sir.", e.Query)

	case intent.ShowSearch:
		a.State.SetSearch(e.Results)

	case intent.DraftEmail:
		d, err := intent.GenerateDraft(ctx, a.Completer, e.Utterance)
		if err != nil {
			log.Warn("Failed to draft email", "err", err)
			return ""
		}
		a.State.SetEmail(d)

	case intent.ScheduleReminder:
		a.scheduleReminder(e.Text, e.Minutes)

	case intent.AddTask:
		a.addTask(e.Title, e.Priority)

	case intent.SetVolume:
		if a.Bridge != nil {
			if err := a.Bridge.SetVolume(ctx, e.Level); err != nil {
				log.Warn("Failed to set volume", "level", e.Level, "err", err)
			}
		}

	case intent.SetBrightness:
		if a.Bridge != nil {
			if err := a.Bridge.SetBrightness(ctx, e.Level); err != nil {
				log.Warn("Failed to set brightness", "level", e.Level, "err", err)
			}
		}

	case intent.LaunchApp:
		if a.Bridge != nil {
			if err := a.Bridge.LaunchApp(ctx, e.Name); err != nil {
				log.Warn("Failed to launch app", "app", e.Name, "err", err)
			}
		}

	case intent.SetTheme:
		a.setTheme(e.Theme)

	case intent.ScanDirectory:
		return a.scan(ctx, e)

	default:
		log.Warn("Unknown effect", "effect", fmt.Sprintf("%T", eff))
	}
	return ""
}

func (a *Assistant) scan(ctx context.Context, e intent.ScanDirectory) string {
	a.State.SetScanning(true)
	a.changed()

	if e.Simulated || a.Bridge == nil {
		a.after(a.opts.ScanDelay, func() {
			a.State.SetScanResults(SimulatedScan)
			a.changed()
			a.Say("Internal scan complete. All web-based nodes are synchronized.")
		})
		return ""
	}

	files := a.Bridge.ScanDirectory(ctx, e.Path)
	a.State.SetScanResults(files)
	a.changed()
	return fmt.Sprintf("Scan complete, sir. I've indexed %d primary data nodes.", len(files))
}

func (a *Assistant) scheduleReminder(text string, minutes float64) {
	r := a.Reminders.Schedule(text, minutes, a.fireReminder)
	a.State.AddReminder(r)
	a.changed()

	due := r.Due
	a.syncCalendar(calendar.Event{
		Title:    text,
		Start:    &due,
		Duration: a.opts.ReminderDuration,
	})
}

func (a *Assistant) fireReminder(r session.Reminder) {
	if _, ok := a.State.FireReminder(r.ID); !ok {
		return
	}
	a.changed()

	if err := a.Notifier.Notify(ReminderTitle, r.Text); err != nil {
		log.Warn("Failed to notify", "err", err)
	}
	a.Say("Sir, a reminder: " + r.Text)
}

// syncCalendar mirrors ev to the calendar in the background. Without a
// calendar client or a provider token nothing is attempted.
func (a *Assistant) syncCalendar(ev calendar.Event) {
	u := a.State.User()
	if a.Calendar == nil || u == nil || u.ProviderToken == "" {
		log.Debug("Calendar sync skipped", "title", ev.Title)
		return
	}
	token := u.ProviderToken

	a.State.SetCalendarStatus(session.SyncSyncing)
	a.changed()

	a.goBg(func(ctx context.Context) {
		created, err := a.Calendar.CreateEvent(ctx, token, ev)
		if err != nil {
			log.Warn("Failed to sync calendar", "title", ev.Title, "err", err)
			a.State.SetCalendarStatus(session.SyncError)
		} else {
			log.Info("Calendar event created", "id", created.ID)
			a.State.SetCalendarStatus(session.SyncSynced)
		}
		a.changed()

		a.after(a.opts.StatusClear, func() {
			a.State.SetCalendarStatus(session.SyncIdle)
			a.changed()
		})
	})
}
