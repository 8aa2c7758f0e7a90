package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := New(srv.URL, srv.Client())
	c.loc = time.UTC
	c.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }
	return c
}

func TestCreateTimedEvent(t *testing.T) {
	var got map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer ya29.token", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		io.WriteString(w, `{"id":"ev1","htmlLink":"https://calendar.google.com/event?eid=ev1"}`)
	})

	start := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	ev, err := c.CreateEvent(context.Background(), "ya29.token", Event{Title: "call mom", Start: &start, Duration: 30 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, "ev1", ev.ID)

	want := map[string]any{
		"summary":     "[JARVIS] call mom",
		"description": "Created by J.A.R.V.I.S assistant",
		"start":       map[string]any{"dateTime": "2026-10-14T10:00:00Z", "timeZone": "UTC"},
		"end":         map[string]any{"dateTime": "2026-10-14T10:30:00Z", "timeZone": "UTC"},
		"reminders": map[string]any{
			"useDefault": false,
			"overrides":  []any{map[string]any{"method": "popup", "minutes": float64(0)}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("event body mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateAllDayEvent(t *testing.T) {
	var got map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		io.WriteString(w, `{"id":"ev2"}`)
	})

	_, err := c.CreateEvent(context.Background(), "tok", Event{Title: "Polish the suit"})
	require.NoError(t, err)

	want := map[string]any{
		"summary":     "[JARVIS] Polish the suit",
		"description": "Task created by J.A.R.V.I.S assistant",
		"start":       map[string]any{"date": "2026-10-14"},
		"end":         map[string]any{"date": "2026-10-14"},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestCreateEventErrors(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"code":403,"message":"Insufficient Permission"}}`)
	})

	_, err := c.CreateEvent(context.Background(), "tok", Event{Title: "x"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Insufficient Permission", apiErr.Message)

	c = testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway</html>")
	})
	_, err = c.CreateEvent(context.Background(), "tok", Event{Title: "x"})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Calendar API error", apiErr.Message)
}

func TestCreateEventWithoutToken(t *testing.T) {
	called := false
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := c.CreateEvent(context.Background(), "", Event{Title: "x"})
	assert.ErrorIs(t, err, ErrNoToken)
	assert.False(t, called)
}

func TestZoneName(t *testing.T) {
	link := filepath.Join(t.TempDir(), "localtime")
	require.NoError(t, os.Symlink("/usr/share/zoneinfo/Europe/Rome", link))
	old := localtimePath
	localtimePath = link
	t.Cleanup(func() { localtimePath = old })

	t.Setenv("TZ", "")
	assert.Equal(t, "Europe/Rome", zoneName(time.Local))
	assert.Equal(t, "UTC", zoneName(time.UTC))

	t.Setenv("TZ", ":UTC")
	assert.Equal(t, "UTC", zoneName(time.Local))

	t.Setenv("TZ", "")
	localtimePath = filepath.Join(t.TempDir(), "missing")
	assert.Empty(t, zoneName(time.Local))
}

func TestTimedEventOmitsUnnamedZone(t *testing.T) {
	var got map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		io.WriteString(w, `{"id":"ev3"}`)
	})
	c.loc = time.FixedZone("", 2*60*60)

	start := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	_, err := c.CreateEvent(context.Background(), "tok", Event{Title: "x", Start: &start})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"dateTime": "2026-10-14T12:00:00+02:00"}, got["start"])
	assert.NotContains(t, got["end"], "timeZone")
}
