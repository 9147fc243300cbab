// package testing contains shared testing utilities
package testing

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockRoundTripper allows custom HTTP responses for testing.
//
// Calls counts RoundTrip invocations.
type MockRoundTripper struct {
	response *http.Response
	err      error
	sequence []error
	Calls    int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

// NewSequenceRoundTripper fails call i with errs[i] and answers 200 OK once a nil entry or the end is reached.
func NewSequenceRoundTripper(errs ...error) *MockRoundTripper {
	return &MockRoundTripper{sequence: errs}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	i := m.Calls
	m.Calls++

	if m.sequence != nil {
		if i < len(m.sequence) && m.sequence[i] != nil {
			return nil, m.sequence[i]
		}
		return okResponse(), nil
	}
	if m.response == nil && m.err == nil {
		return okResponse(), nil
	}
	return m.response, m.err
}

func okResponse() *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: io.NopCloser(&emptyReader{})}
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }

// NewStaticServer answers every request with status and body.
func NewStaticServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// NewRecordingServer calls inspect for every request and answers 200 with an empty JSON object.
func NewRecordingServer(t *testing.T, inspect func(r *http.Request)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inspect(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "{}")
	}))
	t.Cleanup(ts.Close)
	return ts
}
