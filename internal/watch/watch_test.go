package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/urlpad/internal/log"
	"github.com/zjrosen/urlpad/internal/submit"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

type recordingTransport struct {
	mu     sync.Mutex
	status int
	texts  []string
}

func (r *recordingTransport) Post(_ context.Context, _ string, p submit.Payload) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, p.Text)
	return r.status, nil
}

func (r *recordingTransport) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

type harness struct {
	path    string
	tr      *recordingTransport
	results chan submit.Result
	cancel  context.CancelFunc
	done    chan error
}

func startWatcher(t *testing.T, initial string, onStart bool) *harness {
	t.Helper()
	cleanup, err := log.Init("", 100)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	h := &harness{
		path:    filepath.Join(t.TempDir(), "projects.txt"),
		tr:      &recordingTransport{status: 200},
		results: make(chan submit.Result, 16),
		done:    make(chan error, 1),
	}
	require.NoError(t, os.WriteFile(h.path, []byte(initial), 0o644))

	w := New(Config{
		Path:          h.path,
		Delay:         50 * time.Millisecond,
		Submitter:     submit.New(h.tr),
		Report:        func(r Report) { h.results <- r.Result },
		SubmitOnStart: onStart,
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})

	require.Eventually(t, func() bool {
		return len(log.Matching("[watch]", "watching")) == 1
	}, 2*time.Second, 5*time.Millisecond)
	return h
}

func (h *harness) next(t *testing.T) submit.Result {
	t.Helper()
	select {
	case r := <-h.results:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("no submission")
		return submit.Result{}
	}
}

func TestRun_SubmitOnStart(t *testing.T) {
	h := startWatcher(t, "https://modrinth.com/mod/sodium\n", true)

	res := h.next(t)
	require.Equal(t, submit.OutcomeSuccess, res.Outcome)
	require.Equal(t, []string{"https://modrinth.com/mod/sodium\n"}, h.tr.sent())
}

func TestRun_BurstOfWritesIsOneSubmission(t *testing.T) {
	h := startWatcher(t, "", false)

	for _, text := range []string{"a", "ab", "abc"} {
		require.NoError(t, os.WriteFile(h.path, []byte(text), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	res := h.next(t)
	require.Equal(t, "abc", res.Text)

	select {
	case extra := <-h.results:
		t.Fatalf("unexpected second submission %q", extra.Text)
	case <-time.After(200 * time.Millisecond):
	}
	require.Equal(t, []string{"abc"}, h.tr.sent())
}

func TestRun_IgnoresOtherFiles(t *testing.T) {
	h := startWatcher(t, "", false)

	other := filepath.Join(filepath.Dir(h.path), "other.txt")
	require.NoError(t, os.WriteFile(other, []byte("nope"), 0o644))

	select {
	case r := <-h.results:
		t.Fatalf("unexpected submission %q", r.Text)
	case <-time.After(200 * time.Millisecond):
	}
	require.Empty(t, h.tr.sent())
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := startWatcher(t, "", false)

	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(t, err)
		h.done <- err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRun_NoPath(t *testing.T) {
	w := New(Config{Submitter: submit.New(&recordingTransport{status: 200})})
	require.ErrorIs(t, w.Run(context.Background()), ErrNoPath)
}

func TestRun_MissingDirectory(t *testing.T) {
	w := New(Config{
		Path:      filepath.Join(t.TempDir(), "missing", "projects.txt"),
		Submitter: submit.New(&recordingTransport{status: 200}),
	})
	err := w.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "watching")
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name string
		res  submit.Result
		want []string
	}{
		{
			name: "success",
			res:  submit.Result{Seq: 1, Text: "a\nb\n", Status: 200, Outcome: submit.OutcomeSuccess},
			want: []string{"#1", "2 line(s)", "200 success"},
		},
		{
			name: "validation",
			res:  submit.Result{Seq: 2, Text: "x", Status: 422, Outcome: submit.OutcomeValidation},
			want: []string{"#2", "1 line(s)", "422 validation-error"},
		},
		{
			name: "empty text",
			res:  submit.Result{Seq: 3, Status: 503, Outcome: submit.OutcomeServerError},
			want: []string{"0 line(s)", "503 server-error"},
		},
		{
			name: "network",
			res:  submit.Result{Seq: 4, Text: "x", Outcome: submit.OutcomeNetwork, Err: context.DeadlineExceeded},
			want: []string{"network error", "context deadline exceeded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := FormatResult(tt.res)
			for _, w := range tt.want {
				require.Contains(t, line, w)
			}
		})
	}
}

func TestLineDelta(t *testing.T) {
	tests := []struct {
		name           string
		prev, next     string
		added, removed int
	}{
		{"first submission", "", "a\nb\n", 2, 0},
		{"unchanged", "a\nb\n", "a\nb\n", 0, 0},
		{"append line", "a\n", "a\nb\n", 1, 0},
		{"replace last line", "a\nb", "a\nc", 1, 1},
		{"clear", "a\nb\n", "", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, removed := LineDelta(tt.prev, tt.next)
			require.Equal(t, tt.added, added, "added")
			require.Equal(t, tt.removed, removed, "removed")
		})
	}
}

func TestFormatReport(t *testing.T) {
	line := FormatReport(Report{
		Result:  submit.Result{Seq: 5, Text: "a\n", Status: 200, Outcome: submit.OutcomeSuccess},
		Added:   3,
		Removed: 1,
	})
	require.Contains(t, line, "200 success")
	require.Contains(t, line, "+3 -1")
}
