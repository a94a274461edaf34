package check

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmater/boostprobe/internal/proto"
)

const limit = 100 << 10

// limitServer mimics a boost endpoint that enforces a body size limit.
func limitServer(t *testing.T, max int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, max))
		if err != nil {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		var req proto.BoostRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"ok"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func statusServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newProber(url string) *Prober {
	return NewProber(Target{BaseURL: url, Path: "/boost", APIKey: "v4v4me", Timeout: 2 * time.Second})
}

// Classify tests

func TestClassify_Total(t *testing.T) {
	for status := 0; status < 600; status++ {
		got := Classify(status, nil)
		switch {
		case status == http.StatusCreated:
			assert.Equal(t, proto.OutcomeAccept, got, "status %d", status)
		case status >= 400:
			assert.Equal(t, proto.OutcomeReject, got, "status %d", status)
		default:
			assert.Equal(t, proto.OutcomeIndeterminate, got, "status %d", status)
		}
	}
}

func TestClassify_TransportError(t *testing.T) {
	err := errors.New("connection refused")
	assert.Equal(t, proto.OutcomeIndeterminate, Classify(0, err))
	assert.Equal(t, proto.OutcomeIndeterminate, Classify(http.StatusCreated, err))
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches(proto.OutcomeAccept, proto.OutcomeAccept))
	assert.True(t, Matches(proto.OutcomeReject, proto.OutcomeReject))
	assert.False(t, Matches(proto.OutcomeAccept, proto.OutcomeReject))
	assert.False(t, Matches(proto.OutcomeReject, proto.OutcomeIndeterminate))
	assert.False(t, Matches(proto.OutcomeIndeterminate, proto.OutcomeIndeterminate))
}

// Prober tests

func TestRun_SendsHeadersAndBody(t *testing.T) {
	var got proto.BoostRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/boost", r.URL.Path)
		assert.Equal(t, "v4v4me", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	result := newProber(srv.URL + "/").Run(context.Background(), proto.ProbeCase{SizeKB: 2, Expect: proto.OutcomeAccept})

	assert.True(t, result.Matched)
	assert.Equal(t, "boost", got.Action)
	assert.Len(t, got.Message, 2048)
}

func TestRun_UnderLimitAccepted(t *testing.T) {
	srv := limitServer(t, limit)

	result := newProber(srv.URL).Run(context.Background(), proto.ProbeCase{SizeKB: 50, Expect: proto.OutcomeAccept})

	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, proto.OutcomeAccept, result.Actual)
	assert.True(t, result.Matched)
	assert.Greater(t, result.PayloadSize, 50*1024)
	assert.Less(t, result.PayloadSize, limit)
	assert.Empty(t, result.Detail)
}

func TestRun_NearLimitAccepted(t *testing.T) {
	srv := limitServer(t, limit)

	result := newProber(srv.URL).Run(context.Background(), proto.ProbeCase{SizeKB: 95, Expect: proto.OutcomeAccept})

	assert.True(t, result.Matched, result.Detail)
	assert.Less(t, result.PayloadSize, limit)
}

func TestRun_OverLimitRejected(t *testing.T) {
	srv := limitServer(t, limit)

	result := newProber(srv.URL).Run(context.Background(), proto.ProbeCase{SizeKB: 150, Expect: proto.OutcomeReject})

	assert.Equal(t, http.StatusRequestEntityTooLarge, result.StatusCode)
	assert.Equal(t, proto.OutcomeReject, result.Actual)
	assert.True(t, result.Matched)
	assert.Greater(t, result.PayloadSize, limit)
	assert.Contains(t, result.Body, "payload too large")
}

func TestRun_MisconfiguredServerMismatch(t *testing.T) {
	srv := statusServer(t, http.StatusCreated)

	result := newProber(srv.URL).Run(context.Background(), proto.ProbeCase{SizeKB: 150, Expect: proto.OutcomeReject})

	assert.Equal(t, proto.OutcomeAccept, result.Actual)
	assert.False(t, result.Matched)
	assert.Contains(t, result.Detail, "expected REJECT")
}

func TestRun_UnexpectedStatusIndeterminate(t *testing.T) {
	srv := statusServer(t, http.StatusOK)

	result := newProber(srv.URL).Run(context.Background(), proto.ProbeCase{SizeKB: 1, Expect: proto.OutcomeAccept})

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, proto.OutcomeIndeterminate, result.Actual)
	assert.False(t, result.Matched)
	assert.Contains(t, result.Detail, "unexpected status code: 200")
}

func TestRun_Unreachable(t *testing.T) {
	result := newProber("http://127.0.0.1:1").Run(context.Background(), proto.ProbeCase{SizeKB: 1, Expect: proto.OutcomeAccept})

	assert.Equal(t, 0, result.StatusCode)
	assert.Equal(t, proto.OutcomeIndeterminate, result.Actual)
	assert.False(t, result.Matched)
	assert.True(t, strings.HasPrefix(result.Detail, "request failed:"), result.Detail)
	assert.Positive(t, result.PayloadSize)
}

func TestRun_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()
	defer close(release)

	p := NewProber(Target{BaseURL: srv.URL, Path: "/boost", Timeout: 100 * time.Millisecond})
	start := time.Now()
	result := p.Run(context.Background(), proto.ProbeCase{SizeKB: 1, Expect: proto.OutcomeAccept})

	require.Equal(t, proto.OutcomeIndeterminate, result.Actual)
	assert.False(t, result.Matched)
	assert.NotEmpty(t, result.Detail)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRun_FailureDoesNotAffectNextCase(t *testing.T) {
	srv := limitServer(t, limit)
	down := newProber("http://127.0.0.1:1")
	up := newProber(srv.URL)

	first := down.Run(context.Background(), proto.ProbeCase{SizeKB: 50, Expect: proto.OutcomeAccept})
	second := up.Run(context.Background(), proto.ProbeCase{SizeKB: 50, Expect: proto.OutcomeAccept})

	assert.False(t, first.Matched)
	assert.True(t, second.Matched)
}

func TestNewProber_DefaultTimeout(t *testing.T) {
	p := NewProber(Target{BaseURL: "http://example.com", Path: "/boost"})
	assert.Equal(t, DefaultTimeout, p.Target().Timeout)
	assert.Equal(t, "http://example.com/boost", p.Target().URL())
}
