package httpretry

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDoer struct {
	calls  atomic.Int32
	status int
}

func (d *countingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls.Add(1)
	return &http.Response{
		StatusCode: d.status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func newTestRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com/orders", nil)
	require.NoError(t, err)
	return req
}

func TestRetryClient_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	doer := &countingDoer{status: http.StatusServiceUnavailable}
	rc := NewRetryClient(doer, 0)

	resp, err := rc.Do(newTestRequest(t))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), doer.calls.Load())
}

func TestRetryClient_NegativeRetriesUsesDefault(t *testing.T) {
	doer := &countingDoer{status: http.StatusServiceUnavailable}
	rc := NewRetryClient(doer, -1).WithBackoff(time.Millisecond, 2*time.Millisecond)

	resp, err := rc.Do(newTestRequest(t))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(4), doer.calls.Load(), "default is 3 retries after the initial request")
}

func TestRetryClient_StopsOnNonRetryableStatus(t *testing.T) {
	doer := &countingDoer{status: http.StatusUnprocessableEntity}
	rc := NewRetryClient(doer, 5).WithBackoff(time.Millisecond, 2*time.Millisecond)

	resp, err := rc.Do(newTestRequest(t))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(1), doer.calls.Load())
}
