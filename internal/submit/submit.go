// Package submit posts the field text to the projects endpoint and
// classifies the HTTP outcome. Submissions are one-shot: nothing is retried,
// cached or deduplicated, and in-flight requests are never cancelled by
// newer ones.
package submit

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/urlpad/internal/log"
)

// DefaultPath is the endpoint path submissions are posted to.
const DefaultPath = "/projects"

const tracerName = "github.com/zjrosen/urlpad/internal/submit"

// Outcome classifies a finished submission.
type Outcome int

const (
	OutcomeSuccess     Outcome = iota // 2xx
	OutcomeValidation                 // 422, the server rejected the text
	OutcomeServerError                // any other status
	OutcomeNetwork                    // no response was obtained
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidation:
		return "validation-error"
	case OutcomeServerError:
		return "server-error"
	case OutcomeNetwork:
		return "network-error"
	default:
		return "unknown"
	}
}

// Classify maps an HTTP status code to an Outcome.
func Classify(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status == http.StatusUnprocessableEntity:
		return OutcomeValidation
	default:
		return OutcomeServerError
	}
}

// Payload is the JSON request body.
type Payload struct {
	Text string `json:"text"`
}

// Transport performs the HTTP exchange. Only the status code is consulted.
// A non-nil error means no response was obtained.
type Transport interface {
	Post(ctx context.Context, path string, payload Payload) (int, error)
}

// Result describes one submission.
type Result struct {
	Seq     uint64
	Text    string
	Status  int
	Outcome Outcome
	Err     error
	Elapsed time.Duration
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithPath overrides DefaultPath.
func WithPath(path string) Option {
	return func(s *Submitter) {
		s.path = path
	}
}

// WithTracer overrides the global tracer provider's tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Submitter) {
		s.tracer = tracer
	}
}

// Submitter is safe for concurrent use; overlapping submissions proceed
// independently.
type Submitter struct {
	transport Transport
	path      string
	tracer    trace.Tracer
	seq       atomic.Uint64
}

// New creates a Submitter over the given transport.
func New(transport Transport, opts ...Option) *Submitter {
	s := &Submitter{
		transport: transport,
		path:      DefaultPath,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit posts text once and classifies the result. Network failures are
// written to the diagnostic log exactly once and reported in Result.Err.
func (s *Submitter) Submit(ctx context.Context, text string) Result {
	res := Result{
		Seq:  s.seq.Add(1),
		Text: text,
	}

	ctx, span := s.tracer.Start(ctx, "submit.projects", trace.WithAttributes(
		attribute.Int64("urlpad.seq", int64(res.Seq)),
		attribute.Int("urlpad.text_bytes", len(text)),
	))
	defer span.End()

	log.Debug(log.CatSubmit, "submitting", "seq", res.Seq, "path", s.path, "bytes", len(text))

	start := time.Now()
	status, err := s.transport.Post(ctx, s.path, Payload{Text: text})
	res.Elapsed = time.Since(start)

	if err != nil {
		res.Outcome = OutcomeNetwork
		res.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "network error")
		span.SetAttributes(attribute.String("urlpad.outcome", res.Outcome.String()))
		log.ErrorErr(log.CatSubmit, "network error", err, "seq", res.Seq)
		return res
	}

	res.Status = status
	res.Outcome = Classify(status)
	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.String("urlpad.outcome", res.Outcome.String()),
	)
	if res.Outcome != OutcomeSuccess {
		span.SetStatus(codes.Error, res.Outcome.String())
	}

	log.Info(log.CatSubmit, "submitted",
		"seq", res.Seq, "status", status, "outcome", res.Outcome, "elapsed", res.Elapsed)
	return res
}
