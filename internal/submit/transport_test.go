package submit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/urlpad/internal/log"
)

type capturedRequest struct {
	Method      string
	Path        string
	ContentType string
	UserAgent   string
	RequestID   string
	Body        []byte
}

func newRecordingServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			UserAgent:   r.Header.Get("User-Agent"),
			RequestID:   r.Header.Get("X-Request-ID"),
			Body:        body,
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func TestRestyTransport_RequestShape(t *testing.T) {
	withBufferLog(t)
	srv, requests := newRecordingServer(t, http.StatusOK)

	tr := NewRestyTransport(srv.URL, 0, "v1.2.3")
	status, err := tr.Post(context.Background(), "/projects", Payload{Text: "https://modrinth.com/mod/sodium"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)

	reqs := requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/projects", req.Path)
	assert.Contains(t, req.ContentType, "application/json")
	assert.Equal(t, "urlpad/v1.2.3", req.UserAgent)
	assert.NotEmpty(t, req.RequestID)
	assert.JSONEq(t, `{"text":"https://modrinth.com/mod/sodium"}`, string(req.Body))
}

func TestRestyTransport_StatusesPassThrough(t *testing.T) {
	withBufferLog(t)

	for _, status := range []int{http.StatusCreated, http.StatusUnprocessableEntity, http.StatusInternalServerError} {
		srv, _ := newRecordingServer(t, status)
		got, err := NewRestyTransport(srv.URL, 0, "test").Post(context.Background(), "/projects", Payload{})
		require.NoError(t, err)
		require.Equal(t, status, got)
	}
}

func TestRestyTransport_NoRetries(t *testing.T) {
	withBufferLog(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	res := New(NewRestyTransport(srv.URL, 0, "test")).Submit(context.Background(), "x")
	require.Equal(t, OutcomeServerError, res.Outcome)
	require.Equal(t, int32(1), hits.Load())
}

func TestRestyTransport_ConnectionRefused(t *testing.T) {
	withBufferLog(t)

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := New(NewRestyTransport(url, 0, "test")).Submit(context.Background(), "x")
	require.Equal(t, OutcomeNetwork, res.Outcome)
	require.Error(t, res.Err)
	require.Contains(t, res.Err.Error(), url)
	require.Len(t, log.Matching("[ERROR]"), 1, "exactly one diagnostic entry")
}

func TestRestyTransport_Timeout(t *testing.T) {
	withBufferLog(t)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	_, err := NewRestyTransport(srv.URL, 20*time.Millisecond, "test").Post(context.Background(), "/projects", Payload{})
	require.Error(t, err)
}

func TestSubmitter_IdenticalTextSentTwice(t *testing.T) {
	withBufferLog(t)
	srv, requests := newRecordingServer(t, http.StatusOK)

	s := New(NewRestyTransport(srv.URL, 0, "test"))
	s.Submit(context.Background(), "same text")
	s.Submit(context.Background(), "same text")

	reqs := requests()
	require.Len(t, reqs, 2, "no caching or deduplication")
	require.Equal(t, reqs[0].Body, reqs[1].Body)
	require.NotEqual(t, reqs[0].RequestID, reqs[1].RequestID)

	var p Payload
	require.NoError(t, json.Unmarshal(reqs[0].Body, &p))
	require.Equal(t, "same text", p.Text)
}
