package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/zjrosen/urlpad/internal/log"
)

// restyLogger routes resty's internal logging through the urlpad logger.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) {
	log.Warn(log.CatHTTP, fmt.Sprintf(format, v...))
}

func (restyLogger) Warnf(format string, v ...any) {
	log.Warn(log.CatHTTP, fmt.Sprintf(format, v...))
}

func (restyLogger) Debugf(format string, v ...any) {
	log.Debug(log.CatHTTP, fmt.Sprintf(format, v...))
}

// RestyTransport is the default Transport.
type RestyTransport struct {
	client  *resty.Client
	baseURL string
}

// NewRestyTransport creates a transport posting JSON to baseURL. A zero
// timeout keeps resty's default of no client-side timeout. Retries are
// disabled.
func NewRestyTransport(baseURL string, timeout time.Duration, version string) *RestyTransport {
	client := resty.New()
	client.SetLogger(restyLogger{})

	client.
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "urlpad/"+version).
		SetRetryCount(0)

	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		log.Debug(log.CatHTTP, "request", "method", req.Method, "url", req.URL,
			"request_id", req.Header.Get("X-Request-ID"))
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		log.Debug(log.CatHTTP, "response", "status", resp.StatusCode(), "took", resp.Time())
		return nil
	})

	return &RestyTransport{
		client:  client,
		baseURL: baseURL,
	}
}

// Post implements Transport.
func (t *RestyTransport) Post(ctx context.Context, path string, payload Payload) (int, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetBody(payload).
		Post(path)
	if err != nil {
		return 0, fmt.Errorf("posting to %s%s: %w", t.baseURL, path, err)
	}
	return resp.StatusCode(), nil
}
