package alert

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmater/boostprobe/internal/proto"
)

func TestFire(t *testing.T) {
	var received RunAlert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	payload := RunAlert{
		RunID:       "run-1",
		Target:      "http://localhost:8080/boost",
		Status:      "failed",
		CasesFailed: 1,
		CasesTotal:  3,
		FailedCases: []string{"over-limit"},
	}

	require.NoError(t, Fire(context.Background(), srv.URL, payload))
	assert.Equal(t, payload, received)
}

func TestFire_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Fire(context.Background(), srv.URL, RunAlert{RunID: "x", Status: "failed"})
	assert.ErrorContains(t, err, "unexpected status 500")
}

func TestFire_Unreachable(t *testing.T) {
	err := Fire(context.Background(), "http://127.0.0.1:1", RunAlert{RunID: "x"})
	assert.Error(t, err)
}

func TestFromSummary(t *testing.T) {
	s := proto.RunSummary{
		RunID:  "run-2",
		Target: "http://boost.example.com/boost",
		Results: []proto.ProbeResult{
			{Case: proto.ProbeCase{Name: "under-limit", SizeKB: 50}, Matched: true},
			{Case: proto.ProbeCase{SizeKB: 150}, Matched: false},
		},
	}

	a := FromSummary(s)

	assert.Equal(t, "run-2", a.RunID)
	assert.Equal(t, "failed", a.Status)
	assert.Equal(t, 1, a.CasesFailed)
	assert.Equal(t, 2, a.CasesTotal)
	assert.Equal(t, []string{"150kb"}, a.FailedCases)
}
