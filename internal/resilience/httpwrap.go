package resilience

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/ristore-api/internal/obs"
)

// ErrNotConfigured is returned when Do is called on a zero HTTPClient.
var ErrNotConfigured = errors.New("resilience: http client not configured")

// HTTPClient performs a single outbound attempt per call, bounded by Timeout.
// Failed calls are never retried; callers decide how to surface the failure.
type HTTPClient struct {
	Client  *http.Client
	Target  string
	Timeout time.Duration
}

// NewHTTPClient builds a client whose transport emits client spans.
func NewHTTPClient(target string, timeout time.Duration) HTTPClient {
	return HTTPClient{
		Client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Target:  strings.TrimSpace(target),
		Timeout: timeout,
	}
}

// Do executes req once. The returned cancel func must be called after the
// response body has been consumed; it releases the per-call deadline.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, context.CancelFunc, error) {
	if cl.Client == nil {
		return nil, func() {}, ErrNotConfigured
	}
	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if cl.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, cl.Timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}

	start := time.Now()
	resp, err := cl.Client.Do(req.WithContext(callCtx))
	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	} else if errors.Is(err, context.DeadlineExceeded) {
		status = "timeout"
	}
	if obs.GatewayRequestDuration != nil {
		obs.GatewayRequestDuration.WithLabelValues(cl.targetLabel(), status).Observe(obs.DurationMillis(time.Since(start)))
	}
	if err != nil {
		cancel()
		return nil, func() {}, err
	}
	return resp, cancel, nil
}

func (cl HTTPClient) targetLabel() string {
	if cl.Target == "" {
		return "default"
	}
	return cl.Target
}
