package stats

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/abdul-hamid-achik/apidriver/packages/apiclient"
)

// Recorder is an apiclient.Transport that measures every call it forwards.
// Responses outside 2xx count as errors, as do transport failures; calls
// that hit a deadline count as timeouts.
type Recorder struct {
	next    apiclient.Transport
	metrics *Metrics
	now     func() time.Time
}

var _ apiclient.Transport = (*Recorder)(nil)

// NewRecorder wraps next. A nil metrics allocates a fresh collector.
func NewRecorder(next apiclient.Transport, metrics *Metrics) *Recorder {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Recorder{next: next, metrics: metrics, now: time.Now}
}

// Metrics returns the collector the Recorder writes to.
func (r *Recorder) Metrics() *Metrics {
	return r.metrics
}

var errUnsuccessful = errors.New("unsuccessful status")

func (r *Recorder) observe(method string, call func() (*apiclient.Response, error)) (*apiclient.Response, error) {
	start := r.now()
	resp, err := call()
	elapsed := r.now().Sub(start)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		r.metrics.RecordTimeout(method)
	case err != nil:
		r.metrics.Record(method, elapsed, err)
	case resp != nil && !resp.IsSuccess():
		r.metrics.Record(method, elapsed, errUnsuccessful)
	default:
		r.metrics.Record(method, elapsed, nil)
	}
	return resp, err
}

func (r *Recorder) Get(ctx context.Context, url string, headers map[string]string) (*apiclient.Response, error) {
	return r.observe(http.MethodGet, func() (*apiclient.Response, error) {
		return r.next.Get(ctx, url, headers)
	})
}

func (r *Recorder) Post(ctx context.Context, url string, body any, headers map[string]string) (*apiclient.Response, error) {
	return r.observe(http.MethodPost, func() (*apiclient.Response, error) {
		return r.next.Post(ctx, url, body, headers)
	})
}

func (r *Recorder) Put(ctx context.Context, url string, body any, headers map[string]string) (*apiclient.Response, error) {
	return r.observe(http.MethodPut, func() (*apiclient.Response, error) {
		return r.next.Put(ctx, url, body, headers)
	})
}

func (r *Recorder) Delete(ctx context.Context, url string, headers map[string]string) (*apiclient.Response, error) {
	return r.observe(http.MethodDelete, func() (*apiclient.Response, error) {
		return r.next.Delete(ctx, url, headers)
	})
}
