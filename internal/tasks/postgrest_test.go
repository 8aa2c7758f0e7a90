package tasks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/session"
)

type recorded struct {
	method string
	query  url.Values
	body   string
	auth   string
	prefer string
}

func supabase(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*PostgREST, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	reqs := &[]recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/tasks", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		*reqs = append(*reqs, recorded{
			method: r.Method,
			query:  r.URL.Query(),
			body:   string(raw),
			auth:   r.Header.Get("Authorization"),
			prefer: r.Header.Get("Prefer"),
		})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewPostgREST(srv.URL+"/", "anon"), reqs
}

var signedIn = session.User{ID: "u-1", AccessToken: "jwt"}

func TestPostgRESTList(t *testing.T) {
	p, reqs := supabase(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":7,"title":"Fly","completed":false,"priority":"High"},{"id":"b2","title":"Land","completed":true}]`)
	})

	got, err := p.List(context.Background(), signedIn)
	require.NoError(t, err)
	assert.Equal(t, []session.Task{
		{ID: "7", Title: "Fly", Priority: session.PriorityHigh},
		{ID: "b2", Title: "Land", Completed: true, Priority: session.PriorityMedium},
	}, got)

	require.Len(t, *reqs, 1)
	assert.Equal(t, "Bearer jwt", (*reqs)[0].auth)
	q := (*reqs)[0].query
	assert.Equal(t, "*", q.Get("select"))
	assert.Equal(t, "eq.u-1", q.Get("user_id"))
	assert.True(t, strings.HasPrefix(q.Get("order"), "created_at.asc"), q.Get("order"))
}

func TestPostgRESTInsertPatchesPriority(t *testing.T) {
	p, reqs := supabase(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `[{"id":42,"title":"Build Mark 43","completed":false}]`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	got, err := p.Insert(context.Background(), signedIn, session.Task{Title: "Build Mark 43", Priority: session.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, session.Task{ID: "42", Title: "Build Mark 43", Priority: session.PriorityHigh}, got)

	require.Len(t, *reqs, 2)
	var inserted []map[string]any
	require.NoError(t, json.Unmarshal([]byte((*reqs)[0].body), &inserted))
	assert.Equal(t, "u-1", inserted[0]["user_id"])
	assert.NotContains(t, inserted[0], "priority")
	assert.Equal(t, "return=representation", (*reqs)[0].prefer)

	assert.Equal(t, http.MethodPatch, (*reqs)[1].method)
	assert.Equal(t, "eq.42", (*reqs)[1].query.Get("id"))
	assert.Equal(t, "eq.u-1", (*reqs)[1].query.Get("user_id"))
	assert.JSONEq(t, `{"priority":"High"}`, (*reqs)[1].body)
}

func TestPostgRESTInsertToleratesPriorityFailure(t *testing.T) {
	p, _ := supabase(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			io.WriteString(w, `[{"id":"x1","title":"t","completed":false}]`)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"code":"PGRST204","message":"column \"priority\" does not exist"}`)
	})

	got, err := p.Insert(context.Background(), signedIn, session.Task{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, "x1", got.ID)
}

func TestPostgRESTUpdateAndDelete(t *testing.T) {
	p, reqs := supabase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, p.Update(ctx, signedIn, "9", Completed(true)))
	require.NoError(t, p.DeleteCompleted(ctx, signedIn))

	require.Len(t, *reqs, 2)
	assert.JSONEq(t, `{"completed":true}`, (*reqs)[0].body)
	assert.Equal(t, "return=minimal", (*reqs)[0].prefer)
	assert.Equal(t, "eq.9", (*reqs)[0].query.Get("id"))
	assert.Equal(t, http.MethodDelete, (*reqs)[1].method)
	assert.Equal(t, "eq.true", (*reqs)[1].query.Get("completed"))
	assert.Equal(t, "eq.u-1", (*reqs)[1].query.Get("user_id"))
}

func TestPostgRESTError(t *testing.T) {
	p, _ := supabase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"code":"PGRST301","message":"JWT expired"}`)
	})

	_, err := p.List(context.Background(), signedIn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT expired")
}

func TestPostgRESTFallsBackToAnonKey(t *testing.T) {
	p, reqs := supabase(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	_, err := p.List(context.Background(), session.User{ID: "u-2"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer anon", (*reqs)[0].auth)
}

func TestPostgRESTHonoursCancelledContext(t *testing.T) {
	p, reqs := supabase(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.List(ctx, signedIn)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *reqs)
}
