// Package calendar creates events on the user's primary Google calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const DefaultBaseURL = "https://www.googleapis.com/calendar/v3/"

const primary = "primary"

var ErrNoToken = errors.New("calendar: no provider token")

// Event with a nil Start is an all-day event for today.
type Event struct {
	Title    string
	Start    *time.Time
	Duration time.Duration
}

// Created is the subset of the event resource callers use.
type Created struct {
	ID       string
	HTMLLink string
}

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendar api %d: %s", e.Status, e.Message)
}

type Client struct {
	base string
	http *http.Client
	loc  *time.Location
	now  func() time.Time
}

// New talks to base, the API root. hc carries the transport the bearer
// token is layered on; nil uses the default transport.
func New(base string, hc *http.Client) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		base: strings.TrimRight(base, "/") + "/",
		http: hc,
		loc:  time.Local,
		now:  time.Now,
	}
}

// localtimePath is read when the process zone has no IANA name.
var localtimePath = "/etc/localtime"

// zoneName returns the IANA name of loc, or "" when it cannot be told. The
// process zone is always called "Local", so it is resolved from TZ or the
// /etc/localtime link.
func zoneName(loc *time.Location) string {
	name := loc.String()
	if name != "Local" {
		return name
	}
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			return tz
		}
	}
	target, err := os.Readlink(localtimePath)
	if err != nil {
		return ""
	}
	if _, zone, ok := strings.Cut(target, "zoneinfo/"); ok {
		return zone
	}
	return ""
}

func (c *Client) event(ev Event) *gcal.Event {
	out := &gcal.Event{Summary: "[JARVIS] " + ev.Title}

	if ev.Start == nil {
		today := c.now().In(c.loc).Format(time.DateOnly)
		out.Description = "Task created by J.A.R.V.I.S assistant"
		out.Start = &gcal.EventDateTime{Date: today}
		out.End = &gcal.EventDateTime{Date: today}
		return out
	}

	// an empty zone is left out; the RFC 3339 offset places the event
	zone := zoneName(c.loc)
	start := ev.Start.In(c.loc)
	out.Description = "Created by J.A.R.V.I.S assistant"
	out.Start = &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: zone}
	out.End = &gcal.EventDateTime{DateTime: start.Add(ev.Duration).Format(time.RFC3339), TimeZone: zone}
	out.Reminders = &gcal.EventReminders{
		Overrides:       []*gcal.EventReminder{{Method: "popup", Minutes: 0, ForceSendFields: []string{"Minutes"}}},
		ForceSendFields: []string{"UseDefault"},
	}
	return out
}

func (c *Client) service(ctx context.Context, token string) (*gcal.Service, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	hc.Timeout = c.http.Timeout
	return gcal.NewService(ctx, option.WithHTTPClient(hc), option.WithEndpoint(c.base))
}

// CreateEvent inserts ev with the user's provider token.
func (c *Client) CreateEvent(ctx context.Context, token string, ev Event) (Created, error) {
	if token == "" {
		return Created{}, ErrNoToken
	}

	svc, err := c.service(ctx, token)
	if err != nil {
		return Created{}, fmt.Errorf("calendar service: %w", err)
	}

	got, err := svc.Events.Insert(primary, c.event(ev)).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			msg := gerr.Message
			if msg == "" {
				msg = "Calendar API error"
			}
			return Created{}, &APIError{Status: gerr.Code, Message: msg}
		}
		return Created{}, fmt.Errorf("calendar request: %w", err)
	}
	return Created{ID: got.Id, HTMLLink: got.HtmlLink}, nil
}
